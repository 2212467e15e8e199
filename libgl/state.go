package libgl

import (
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
)

type Capability uint32

const (
	DepthTest   Capability = gl.DEPTH_TEST
	Blend       Capability = gl.BLEND
	ScissorTest Capability = gl.SCISSOR_TEST
	CullFace    Capability = gl.CULL_FACE
)

type BlendFactor uint32

const (
	BlendZero             BlendFactor = gl.ZERO
	BlendOne              BlendFactor = gl.ONE
	BlendSrcAlpha         BlendFactor = gl.SRC_ALPHA
	BlendOneMinusSrcAlpha BlendFactor = gl.ONE_MINUS_SRC_ALPHA
)

type BlendEquation uint32

const (
	BlendFuncAdd BlendEquation = gl.FUNC_ADD
)

type DepthFunc uint32

const (
	DepthFuncLess   DepthFunc = gl.LESS
	DepthFuncLEqual DepthFunc = gl.LEQUAL
)

// DefaultFramebuffer is the id of the window's on-screen framebuffer.
const DefaultFramebuffer uint32 = 0

// StateManager shadows the GL binding state so redundant calls can be skipped.
// All methods must be called from the thread that owns the context.
type StateManager struct {
	Caps                             map[Capability]bool
	TextureUnits, SamplerUnits       []uint32
	DrawFramebuffer, ReadFramebuffer uint32
	ProgramPipeline, VertexArray     uint32
	ActiveTextureUnit                int
	ViewportRect, ScissorRect        [4]int
	BlendFactorSrc, BlendFactorDst   BlendFactor
	BlendEquationMode                BlendEquation
	DepthFuncFn                      DepthFunc
	DepthWriteMask                   bool
	CullFaceMask                     uint32
	ClearColorRGBA                   [4]float32
}

var State *StateManager

func NewStateManager() *StateManager {
	return &StateManager{
		Caps:           map[Capability]bool{},
		TextureUnits:   make([]uint32, 32),
		SamplerUnits:   make([]uint32, 32),
		DepthWriteMask: true,
	}
}

var Env *Environment

type Environment struct {
	Vendor   string
	Renderer string
	Version  string
}

const (
	VendorIntel   = "intel"
	VendorNvidia  = "nvidia"
	VendorAmd     = "ati"
	VendorUnknown = "unknown"
)

func GetEnvironment() *Environment {
	vendor := strings.ToLower(gl.GoStr(gl.GetString(gl.VENDOR)))
	switch {
	case strings.Contains(vendor, "intel"):
		vendor = VendorIntel
	case strings.Contains(vendor, "nvidia"):
		vendor = VendorNvidia
	case strings.Contains(vendor, "ati ") || strings.Contains(vendor, "amd"):
		vendor = VendorAmd
	default:
		vendor = VendorUnknown
	}

	return &Environment{
		Vendor:   vendor,
		Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:  gl.GoStr(gl.GetString(gl.VERSION)),
	}
}

func (s *StateManager) Enable(cap Capability) {
	if s.Caps[cap] {
		return
	}
	gl.Enable(uint32(cap))
	s.Caps[cap] = true
}

func (s *StateManager) Disable(cap Capability) {
	if !s.Caps[cap] {
		return
	}
	gl.Disable(uint32(cap))
	s.Caps[cap] = false
}

// SetEnabled enables exactly the given capabilities and disables every other
// capability that is currently enabled.
func (s *StateManager) SetEnabled(caps ...Capability) {
	want := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		want[c] = true
	}
	for c, on := range s.Caps {
		if on && !want[c] {
			s.Disable(c)
		}
	}
	for c := range want {
		s.Enable(c)
	}
}

func (s *StateManager) CullBack() {
	if s.CullFaceMask == gl.BACK {
		return
	}
	gl.CullFace(gl.BACK)
	s.CullFaceMask = gl.BACK
}

func (s *StateManager) BlendFunc(sfactor, dfactor BlendFactor) {
	if s.BlendFactorSrc == sfactor && s.BlendFactorDst == dfactor {
		return
	}
	gl.BlendFunc(uint32(sfactor), uint32(dfactor))
	s.BlendFactorSrc = sfactor
	s.BlendFactorDst = dfactor
}

func (s *StateManager) BlendEquation(mode BlendEquation) {
	if s.BlendEquationMode == mode {
		return
	}
	gl.BlendEquation(uint32(mode))
	s.BlendEquationMode = mode
}

func (s *StateManager) DepthFunc(fn DepthFunc) {
	if s.DepthFuncFn == fn {
		return
	}
	gl.DepthFunc(uint32(fn))
	s.DepthFuncFn = fn
}

func (s *StateManager) DepthMask(flag bool) {
	if s.DepthWriteMask == flag {
		return
	}
	gl.DepthMask(flag)
	s.DepthWriteMask = flag
}

func (s *StateManager) BindTextureUnit(unit int, texture uint32) {
	if s.TextureUnits[unit] == texture {
		return
	}
	gl.BindTextureUnit(uint32(unit), texture)
	s.TextureUnits[unit] = texture
}

func (s *StateManager) ActiveTexture(unit int) {
	if s.ActiveTextureUnit == unit {
		return
	}
	gl.ActiveTexture(uint32(gl.TEXTURE0 + unit))
	s.ActiveTextureUnit = unit
}

// BindTexture binds a texture to the active unit the classic way, for code
// paths (like the imgui renderer) that only know a raw texture name.
func (s *StateManager) BindTexture(target uint32, texture uint32) {
	if s.TextureUnits[s.ActiveTextureUnit] == texture {
		return
	}
	gl.BindTexture(target, texture)
	s.TextureUnits[s.ActiveTextureUnit] = texture
}

func (s *StateManager) BindSampler(unit int, sampler uint32) {
	if s.SamplerUnits[unit] == sampler {
		return
	}
	gl.BindSampler(uint32(unit), sampler)
	s.SamplerUnits[unit] = sampler
}

// target must be GL_DRAW_FRAMEBUFFER, GL_READ_FRAMEBUFFER or GL_FRAMEBUFFER
func (s *StateManager) BindFramebuffer(target, framebuffer uint32) {
	switch target {
	case gl.FRAMEBUFFER:
		if s.DrawFramebuffer == framebuffer && s.ReadFramebuffer == framebuffer {
			return
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, framebuffer)
		s.DrawFramebuffer = framebuffer
		s.ReadFramebuffer = framebuffer
	case gl.DRAW_FRAMEBUFFER:
		s.BindDrawFramebuffer(framebuffer)
	case gl.READ_FRAMEBUFFER:
		s.BindReadFramebuffer(framebuffer)
	}
}

func (s *StateManager) BindDrawFramebuffer(framebuffer uint32) {
	if s.DrawFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, framebuffer)
	s.DrawFramebuffer = framebuffer
}

func (s *StateManager) BindReadFramebuffer(framebuffer uint32) {
	if s.ReadFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, framebuffer)
	s.ReadFramebuffer = framebuffer
}

func (s *StateManager) BindProgramPipeline(pipeline uint32) {
	if s.ProgramPipeline == pipeline {
		return
	}
	gl.BindProgramPipeline(pipeline)
	s.ProgramPipeline = pipeline
}

func (s *StateManager) BindVertexArray(array uint32) {
	if s.VertexArray == array {
		return
	}
	gl.BindVertexArray(array)
	s.VertexArray = array
}

func (s *StateManager) Viewport(x, y, w, h int) {
	rect := [4]int{x, y, w, h}
	if s.ViewportRect == rect {
		return
	}
	gl.Viewport(int32(x), int32(y), int32(w), int32(h))
	s.ViewportRect = rect
}

func (s *StateManager) Scissor(x, y, w, h int) {
	rect := [4]int{x, y, w, h}
	if s.ScissorRect == rect {
		return
	}
	gl.Scissor(int32(x), int32(y), int32(w), int32(h))
	s.ScissorRect = rect
}

func (s *StateManager) ClearColor(r, g, b, a float32) {
	rgba := [4]float32{r, g, b, a}
	if s.ClearColorRGBA == rgba {
		return
	}
	gl.ClearColor(r, g, b, a)
	s.ClearColorRGBA = rgba
}

// The Forget* methods drop cached bindings of a deleted object. GL itself
// reverts such bindings to 0 on deletion, so the cache does the same.

func (s *StateManager) ForgetTexture(name uint32) {
	for i, v := range s.TextureUnits {
		if v == name {
			s.TextureUnits[i] = 0
		}
	}
}

func (s *StateManager) ForgetSampler(name uint32) {
	for i, v := range s.SamplerUnits {
		if v == name {
			s.SamplerUnits[i] = 0
		}
	}
}

func (s *StateManager) ForgetFramebuffer(name uint32) {
	if s.DrawFramebuffer == name {
		s.DrawFramebuffer = 0
	}
	if s.ReadFramebuffer == name {
		s.ReadFramebuffer = 0
	}
}

func (s *StateManager) ForgetProgramPipeline(name uint32) {
	if s.ProgramPipeline == name {
		s.ProgramPipeline = 0
	}
}

func (s *StateManager) ForgetVertexArray(name uint32) {
	if s.VertexArray == name {
		s.VertexArray = 0
	}
}
