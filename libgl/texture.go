package libgl

import (
	"log"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

type texture struct {
	glId           uint32
	target         uint32
	internalFormat uint32
	width, height  int
}

// UnboundTexture is a 2D texture with immutable storage.
type UnboundTexture interface {
	LabeledGlObject
	Id() uint32
	Bind(unit int) BoundTexture
	Allocate(levels int, internalFormat uint32, width, height int)
	Load(level int, width, height int, format uint32, data any)
	// Read copies level 0 into data, which must be large enough.
	Read(format uint32, data any)
	FilterMode(min, mag int32)
	WrapMode(s, t int32)
	GenerateMipmap()
	Width() int
	Height() int
	InternalFormat() uint32
	Delete()
}

type BoundTexture interface {
	UnboundTexture
}

func NewTexture() UnboundTexture {
	var id uint32
	gl.CreateTextures(gl.TEXTURE_2D, 1, &id)
	return &texture{
		glId:   id,
		target: gl.TEXTURE_2D,
	}
}

func (tex *texture) Id() uint32 {
	return tex.glId
}

func (tex *texture) SetDebugLabel(label string) {
	setObjectLabel(gl.TEXTURE, tex.glId, label)
}

func (tex *texture) Bind(unit int) BoundTexture {
	State.BindTextureUnit(unit, tex.glId)
	return BoundTexture(tex)
}

func (tex *texture) Delete() {
	if tex.glId == 0 {
		return
	}
	State.ForgetTexture(tex.glId)
	gl.DeleteTextures(1, &tex.glId)
	tex.glId = 0
}

// Allocate reserves storage. levels == 0 allocates a full mip chain.
func (tex *texture) Allocate(levels int, internalFormat uint32, width, height int) {
	if levels == 0 {
		levels = 1
		for n := max(width, height); n > 1; n >>= 1 {
			levels++
		}
	}
	tex.width, tex.height = width, height
	tex.internalFormat = internalFormat
	gl.TextureStorage2D(tex.glId, int32(levels), internalFormat, int32(width), int32(height))
}

func (tex *texture) Load(level int, width, height int, format uint32, data any) {
	dataType := getGlType(data)
	gl.TextureSubImage2D(tex.glId, int32(level), 0, 0, int32(width), int32(height), format, dataType, Pointer(data))
}

func (tex *texture) Read(format uint32, data any) {
	dataType := getGlType(data)
	gl.GetTextureImage(tex.glId, 0, format, dataType, int32(ByteSize(data)), Pointer(data))
}

func (tex *texture) FilterMode(min, mag int32) {
	if min != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_MIN_FILTER, min)
	}
	if mag != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_MAG_FILTER, mag)
	}
}

func (tex *texture) WrapMode(s, t int32) {
	if s != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_WRAP_S, s)
	}
	if t != 0 {
		gl.TextureParameteri(tex.glId, gl.TEXTURE_WRAP_T, t)
	}
}

func (tex *texture) GenerateMipmap() {
	gl.GenerateTextureMipmap(tex.glId)
}

func (tex *texture) Width() int {
	return tex.width
}

func (tex *texture) Height() int {
	return tex.height
}

func (tex *texture) InternalFormat() uint32 {
	return tex.internalFormat
}

func getGlType(data any) uint32 {
	switch data.(type) {
	case byte, []byte, *byte:
		return gl.UNSIGNED_BYTE
	case int8, []int8, *int8:
		return gl.BYTE
	case int16, []int16, *int16:
		return gl.SHORT
	case uint16, []uint16, *uint16:
		return gl.UNSIGNED_SHORT
	case int32, []int32, *int32:
		return gl.INT
	case uint32, []uint32, *uint32:
		return gl.UNSIGNED_INT
	case float32, []float32, *float32, mgl32.Vec3, []mgl32.Vec3, mgl32.Vec4, []mgl32.Vec4:
		return gl.FLOAT
	}
	log.Panicf("invalid type: %T", data)
	return 0
}

type sampler struct {
	glId uint32
}

type UnboundSampler interface {
	LabeledGlObject
	Id() uint32
	Bind(unit int) BoundSampler
	FilterMode(min, mag int32)
	WrapMode(s, t int32)
	Delete()
}

type BoundSampler interface {
	UnboundSampler
}

func NewSampler() UnboundSampler {
	var id uint32
	gl.CreateSamplers(1, &id)
	return &sampler{
		glId: id,
	}
}

func (s *sampler) Id() uint32 {
	return s.glId
}

func (s *sampler) SetDebugLabel(label string) {
	setObjectLabel(gl.SAMPLER, s.glId, label)
}

func (s *sampler) Bind(unit int) BoundSampler {
	State.BindSampler(unit, s.glId)
	return BoundSampler(s)
}

func (s *sampler) FilterMode(min, mag int32) {
	if min != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MIN_FILTER, min)
	}
	if mag != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MAG_FILTER, mag)
	}
}

func (sampler *sampler) WrapMode(s, t int32) {
	if s != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_S, s)
	}
	if t != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_T, t)
	}
}

func (s *sampler) Delete() {
	if s.glId == 0 {
		return
	}
	State.ForgetSampler(s.glId)
	gl.DeleteSamplers(1, &s.glId)
	s.glId = 0
}
