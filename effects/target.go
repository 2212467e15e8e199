package effects

import (
	"fmt"

	"oreglow/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// AttachmentSpec describes one color attachment.
type AttachmentSpec struct {
	InternalFormat uint32
}

var HdrAttachment = AttachmentSpec{InternalFormat: gl.RGBA16F}

// TargetIncompleteError is returned when a render target fails the
// completeness check. The target is kept, draws into it are undefined.
type TargetIncompleteError struct {
	Target        string
	Width, Height int
	Err           error
}

func (e *TargetIncompleteError) Error() string {
	return fmt.Sprintf("render target %q (%dx%d) is incomplete: %v", e.Target, e.Width, e.Height, e.Err)
}

func (e *TargetIncompleteError) Unwrap() error {
	return e.Err
}

// RenderTarget is a framebuffer with its own color attachments and an
// optional depth renderbuffer, all of the same size.
type RenderTarget struct {
	name          string
	width, height int
	specs         []AttachmentSpec
	wantDepth     bool
	framebuffer   libgl.UnboundFramebuffer
	colors        []libgl.UnboundTexture
	depth         libgl.UnboundRenderbuffer
}

// NewRenderTarget allocates and checks a target. When the check fails the
// target is still returned alongside a *TargetIncompleteError.
func NewRenderTarget(name string, width, height int, specs []AttachmentSpec, wantDepth bool) (*RenderTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render target %q: invalid size %dx%d", name, width, height)
	}
	if len(specs) == 0 || len(specs) > libgl.MaxColorAttachments {
		return nil, fmt.Errorf("render target %q: %d color attachments not supported", name, len(specs))
	}

	rt := &RenderTarget{
		name:      name,
		specs:     append([]AttachmentSpec(nil), specs...),
		wantDepth: wantDepth,
	}
	return rt, rt.create(width, height)
}

func (rt *RenderTarget) create(width, height int) error {
	rt.width, rt.height = width, height

	rt.framebuffer = libgl.NewFramebuffer()
	rt.framebuffer.SetDebugLabel(rt.name)

	rt.colors = make([]libgl.UnboundTexture, len(rt.specs))
	targets := make([]int, len(rt.specs))
	for i, spec := range rt.specs {
		tex := libgl.NewTexture()
		tex.SetDebugLabel(fmt.Sprintf("%s color %d", rt.name, i))
		tex.Allocate(1, spec.InternalFormat, width, height)
		tex.FilterMode(gl.LINEAR, gl.LINEAR)
		tex.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)
		rt.framebuffer.AttachTexture(i, tex)
		rt.colors[i] = tex
		targets[i] = i
	}
	rt.framebuffer.BindTargets(targets...)

	if rt.wantDepth {
		rt.depth = libgl.NewRenderbuffer()
		rt.depth.SetDebugLabel(rt.name + " depth")
		rt.depth.Allocate(gl.DEPTH_COMPONENT24, width, height)
		rt.framebuffer.AttachRenderbuffer(gl.DEPTH_ATTACHMENT, rt.depth)
	}

	if err := rt.framebuffer.Check(gl.DRAW_FRAMEBUFFER); err != nil {
		return &TargetIncompleteError{Target: rt.name, Width: width, Height: height, Err: err}
	}
	return nil
}

// Delete releases all attachments and the framebuffer. It is safe to call
// more than once and on a target that failed to build.
func (rt *RenderTarget) Delete() {
	for _, tex := range rt.colors {
		if tex != nil {
			tex.Delete()
		}
	}
	rt.colors = nil
	if rt.depth != nil {
		rt.depth.Delete()
		rt.depth = nil
	}
	if rt.framebuffer != nil {
		rt.framebuffer.Delete()
		rt.framebuffer = nil
	}
}

// Resize recreates the target from scratch, even at the same size.
func (rt *RenderTarget) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render target %q: invalid size %dx%d", rt.name, width, height)
	}
	rt.Delete()
	return rt.create(width, height)
}

// Bind makes the target the draw destination and sets the viewport to cover it.
func (rt *RenderTarget) Bind() {
	rt.framebuffer.Bind(gl.DRAW_FRAMEBUFFER)
	libgl.State.Viewport(0, 0, rt.width, rt.height)
}

func (rt *RenderTarget) Clear(index int, color mgl32.Vec4) {
	rt.framebuffer.ClearColor(index, color)
}

func (rt *RenderTarget) ClearDepth() {
	if rt.depth != nil {
		// the clear honors the depth mask
		libgl.State.DepthMask(true)
		rt.framebuffer.ClearDepth(1)
	}
}

func (rt *RenderTarget) Name() string {
	return rt.name
}

func (rt *RenderTarget) Width() int {
	return rt.width
}

func (rt *RenderTarget) Height() int {
	return rt.height
}

func (rt *RenderTarget) AttachmentCount() int {
	return len(rt.colors)
}

func (rt *RenderTarget) Color(index int) libgl.UnboundTexture {
	return rt.colors[index]
}

func (rt *RenderTarget) HasDepth() bool {
	return rt.depth != nil
}

func (rt *RenderTarget) Framebuffer() libgl.UnboundFramebuffer {
	return rt.framebuffer
}
