package libgl

import (
	"fmt"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxColorAttachments bounds the color attachment indices a framebuffer tracks.
const MaxColorAttachments = 8

type framebuffer struct {
	glId          uint32
	textures      []UnboundTexture
	renderbuffers []UnboundRenderbuffer
}

type UnboundFramebuffer interface {
	LabeledGlObject
	Id() uint32
	// target must be GL_DRAW_FRAMEBUFFER, GL_READ_FRAMEBUFFER or GL_FRAMEBUFFER
	Bind(target uint32) BoundFramebuffer
	// target must be GL_DRAW_FRAMEBUFFER, GL_READ_FRAMEBUFFER or GL_FRAMEBUFFER
	Check(target uint32) error
	GetTexture(index int) UnboundTexture
	GetRenderbuffer(index int) UnboundRenderbuffer
	AttachTexture(index int, texture UnboundTexture)
	AttachRenderbuffer(index int, renderbuffer UnboundRenderbuffer)
	BindTargets(attachments ...int)
	ClearColor(index int, color mgl32.Vec4)
	ClearDepth(depth float32)
	Delete()
}

type BoundFramebuffer interface {
	UnboundFramebuffer
}

func NewFramebuffer() UnboundFramebuffer {
	var id uint32
	gl.CreateFramebuffers(1, &id)

	return &framebuffer{
		glId:          id,
		textures:      make([]UnboundTexture, MaxColorAttachments+2),
		renderbuffers: make([]UnboundRenderbuffer, MaxColorAttachments+2),
	}
}

func (fb *framebuffer) Id() uint32 {
	return fb.glId
}

func (fb *framebuffer) SetDebugLabel(label string) {
	setObjectLabel(gl.FRAMEBUFFER, fb.glId, label)
}

// BindTargets selects the draw buffers. Indices below MaxColorAttachments are
// color attachment numbers, anything else is passed through as a GL enum.
func (fb *framebuffer) BindTargets(indices ...int) {
	if len(indices) == 0 {
		gl.NamedFramebufferDrawBuffer(fb.glId, gl.NONE)
		return
	}
	attachments := make([]uint32, len(indices))
	for i, v := range indices {
		attachments[i] = attachmentEnum(v)
	}
	gl.NamedFramebufferDrawBuffers(fb.glId, int32(len(attachments)), &attachments[0])
}

func (fb *framebuffer) Check(target uint32) error {
	status := gl.CheckNamedFramebufferStatus(fb.glId, target)
	return FramebufferStatusError(status)
}

// FramebufferStatusError describes an incomplete framebuffer status, or returns
// nil for GL_FRAMEBUFFER_COMPLETE.
func FramebufferStatusError(status uint32) error {
	switch status {
	case gl.FRAMEBUFFER_COMPLETE:
		return nil
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return fmt.Errorf("an attachment is framebuffer incomplete (GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT)")
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return fmt.Errorf("the framebuffer has no attachments (GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT)")
	case gl.FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER:
		return fmt.Errorf("the object type of a draw attachment is none (GL_FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER)")
	case gl.FRAMEBUFFER_INCOMPLETE_READ_BUFFER:
		return fmt.Errorf("the object type of the read attachment is none (GL_FRAMEBUFFER_INCOMPLETE_READ_BUFFER)")
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return fmt.Errorf("the combination of internal formats of the attachments is not supported (GL_FRAMEBUFFER_UNSUPPORTED)")
	case gl.FRAMEBUFFER_INCOMPLETE_MULTISAMPLE:
		return fmt.Errorf("the attachments have different sampling (GL_FRAMEBUFFER_INCOMPLETE_MULTISAMPLE)")
	case gl.FRAMEBUFFER_INCOMPLETE_LAYER_TARGETS:
		return fmt.Errorf("the attachments are not all layered or all unlayered (GL_FRAMEBUFFER_INCOMPLETE_LAYER_TARGETS)")
	}
	return fmt.Errorf("unknown framebuffer status: %X", status)
}

func (fb *framebuffer) Bind(target uint32) BoundFramebuffer {
	State.BindFramebuffer(target, fb.glId)
	return BoundFramebuffer(fb)
}

func (fb *framebuffer) AttachTexture(index int, texture UnboundTexture) {
	fb.textures[slotOf(index)] = texture
	gl.NamedFramebufferTexture(fb.glId, attachmentEnum(index), texture.Id(), 0)
}

func (fb *framebuffer) AttachRenderbuffer(index int, renderbuffer UnboundRenderbuffer) {
	fb.renderbuffers[slotOf(index)] = renderbuffer
	gl.NamedFramebufferRenderbuffer(fb.glId, attachmentEnum(index), gl.RENDERBUFFER, renderbuffer.Id())
}

func (fb *framebuffer) ClearColor(index int, color mgl32.Vec4) {
	gl.ClearNamedFramebufferfv(fb.glId, gl.COLOR, int32(index), &color[0])
}

func (fb *framebuffer) ClearDepth(depth float32) {
	gl.ClearNamedFramebufferfv(fb.glId, gl.DEPTH, 0, &depth)
}

func attachmentEnum(index int) uint32 {
	if index < MaxColorAttachments {
		return uint32(gl.COLOR_ATTACHMENT0 + index)
	}
	return uint32(index)
}

// depth and stencil go in the first two slots, colors after them
func slotOf(index int) int {
	switch index {
	case gl.DEPTH_ATTACHMENT, gl.DEPTH_STENCIL_ATTACHMENT:
		return 0
	case gl.STENCIL_ATTACHMENT:
		return 1
	}
	return index + 2
}

func (fb *framebuffer) GetTexture(index int) UnboundTexture {
	return fb.textures[slotOf(index)]
}

func (fb *framebuffer) GetRenderbuffer(index int) UnboundRenderbuffer {
	return fb.renderbuffers[slotOf(index)]
}

// Delete only releases the framebuffer object, not its attachments.
func (fb *framebuffer) Delete() {
	if fb.glId == 0 {
		return
	}
	State.ForgetFramebuffer(fb.glId)
	gl.DeleteFramebuffers(1, &fb.glId)
	fb.glId = 0
	clear(fb.textures)
	clear(fb.renderbuffers)
}

type renderbuffer struct {
	glId           uint32
	internalFormat uint32
	width, height  int
}

type UnboundRenderbuffer interface {
	LabeledGlObject
	Id() uint32
	Allocate(internalFormat uint32, width, height int)
	Width() int
	Height() int
	Delete()
}

func NewRenderbuffer() UnboundRenderbuffer {
	var id uint32
	gl.CreateRenderbuffers(1, &id)
	return &renderbuffer{
		glId: id,
	}
}

func (rb *renderbuffer) Id() uint32 {
	return rb.glId
}

func (rb *renderbuffer) SetDebugLabel(label string) {
	setObjectLabel(gl.RENDERBUFFER, rb.glId, label)
}

func (rb *renderbuffer) Allocate(internalFormat uint32, width, height int) {
	gl.NamedRenderbufferStorage(rb.glId, internalFormat, int32(width), int32(height))
	rb.internalFormat = internalFormat
	rb.width, rb.height = width, height
}

func (rb *renderbuffer) Width() int {
	return rb.width
}

func (rb *renderbuffer) Height() int {
	return rb.height
}

func (rb *renderbuffer) Delete() {
	if rb.glId == 0 {
		return
	}
	gl.DeleteRenderbuffers(1, &rb.glId)
	rb.glId = 0
}
