package effects

import (
	_ "embed"
	"fmt"
	"log/slog"

	"oreglow/libgl"
	"oreglow/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed shaders/quad.vert
var quadVertexSrc string

//go:embed shaders/bloom_extract.frag
var extractFragmentSrc string

//go:embed shaders/blur.frag
var blurFragmentSrc string

//go:embed shaders/bloom_final.frag
var compositeFragmentSrc string

// BloomPipeline renders a scene into an HDR target and composites a blurred
// bright pass over it.
//
// A frame is BeginRender, scene draws, EndRender and then either ApplyBloom or
// RenderToScreen. All methods must be called on the thread owning the GL
// context. Resize must not be called in the middle of a frame.
type BloomPipeline struct {
	// Clear color of the scene attachment.
	ClearColor mgl32.Vec4
	// Source of the bright pass.
	ExtractSource ExtractSource
	// Output is where the composite goes. Nil means the default framebuffer.
	Output *RenderTarget

	width, height int
	protocol      frameProtocol
	logger        *slog.Logger

	hdr       *RenderTarget
	pingPong  [2]*RenderTarget
	extract   libgl.UnboundShaderPipeline
	blur      libgl.UnboundShaderPipeline
	composite libgl.UnboundShaderPipeline
	sampler   libgl.UnboundSampler
	quad      *libutil.Quad
}

// NewBloomPipeline builds the programs and targets for the given viewport.
// Shader build failures are returned and leave nothing allocated. Incomplete
// targets are only logged.
func NewBloomPipeline(width, height int) (pipeline *BloomPipeline, err error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bloom pipeline: invalid size %dx%d", width, height)
	}

	var cleanup []libutil.Deleter
	defer func() {
		if err != nil {
			libutil.DeleteAll(cleanup)
		}
	}()

	p := &BloomPipeline{
		ClearColor: mgl32.Vec4{0, 0, 0, 1},
		logger:     slog.Default().With("component", "bloom"),
	}

	p.extract, err = libgl.NewShaderPipeline(quadVertexSrc, extractFragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("bloom extract shader: %w", err)
	}
	p.extract.SetDebugLabel("bloom extract")
	cleanup = append(cleanup, p.extract)

	p.blur, err = libgl.NewShaderPipeline(quadVertexSrc, blurFragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("bloom blur shader: %w", err)
	}
	p.blur.SetDebugLabel("bloom blur")
	cleanup = append(cleanup, p.blur)

	p.composite, err = libgl.NewShaderPipeline(quadVertexSrc, compositeFragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("bloom composite shader: %w", err)
	}
	p.composite.SetDebugLabel("bloom composite")

	p.quad = libutil.NewQuad()

	p.sampler = libgl.NewSampler()
	p.sampler.SetDebugLabel("bloom")
	p.sampler.FilterMode(gl.LINEAR, gl.LINEAR)
	p.sampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)

	p.createTargets(width, height)
	return p, nil
}

func (p *BloomPipeline) createTargets(width, height int) {
	p.width, p.height = width, height

	var err error
	p.hdr, err = NewRenderTarget("hdr scene", width, height, []AttachmentSpec{HdrAttachment, HdrAttachment}, true)
	p.logTargetError(err)
	for i := range p.pingPong {
		p.pingPong[i], err = NewRenderTarget(fmt.Sprintf("ping-pong %d", i), width, height, []AttachmentSpec{HdrAttachment}, false)
		p.logTargetError(err)
	}
}

func (p *BloomPipeline) logTargetError(err error) {
	if err != nil {
		p.logger.Error("render target unusable", "err", err)
	}
}

func (p *BloomPipeline) reportProtocol(err error) {
	if err != nil {
		p.logger.Error("recovering", "err", err)
	}
}

// Release frees programs, then targets, then the quad. Further calls are no-ops.
func (p *BloomPipeline) Release() {
	if p.quad == nil {
		return
	}
	p.extract.Delete()
	p.blur.Delete()
	p.composite.Delete()

	p.hdr.Delete()
	for _, rt := range p.pingPong {
		rt.Delete()
	}

	p.sampler.Delete()
	p.quad.Delete()
	p.quad = nil
}

// Resize recreates every target. Sizes of zero or less are ignored, which
// happens while the window is minimized.
func (p *BloomPipeline) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		p.logger.Debug("ignoring resize", "width", width, "height", height)
		return
	}
	p.logTargetError(p.hdr.Resize(width, height))
	for _, rt := range p.pingPong {
		p.logTargetError(rt.Resize(width, height))
	}
	p.width, p.height = width, height
}

// BeginRender directs drawing into the HDR target and clears it.
func (p *BloomPipeline) BeginRender() {
	p.reportProtocol(p.protocol.begin())

	p.hdr.Bind()
	// clears are clipped by the scissor box
	libgl.State.Disable(libgl.ScissorTest)
	p.hdr.Clear(0, p.ClearColor)
	p.hdr.Clear(1, mgl32.Vec4{0, 0, 0, 1})
	p.hdr.ClearDepth()
}

// EndRender restores the default framebuffer.
func (p *BloomPipeline) EndRender() {
	p.reportProtocol(p.protocol.end())
	libgl.State.BindDrawFramebuffer(libgl.DefaultFramebuffer)
}

// ApplyBloom extracts, blurs and composites the last recorded scene.
func (p *BloomPipeline) ApplyBloom(settings BloomSettings) {
	p.reportProtocol(p.protocol.post("ApplyBloom"))

	defer libgl.PushDebugGroup("Bloom")()

	libgl.State.SetEnabled()
	p.sampler.Bind(0)
	p.sampler.Bind(1)

	source, threshold := p.hdr.Color(0), settings.Threshold
	if p.ExtractSource == ExtractBrightMask {
		source, threshold = p.hdr.Color(1), 0
	}

	p.extract.Bind()
	p.extract.FragmentStage().SetUniform("u_threshold", threshold)
	p.pingPong[0].Bind()
	p.pingPong[0].Clear(0, mgl32.Vec4{0, 0, 0, 1})
	source.Bind(0)
	p.quad.Draw()

	p.blur.Bind()
	blurStage := p.blur.FragmentStage()
	blurStage.SetUniform("u_texel_step", settings.TexelStep(p.height))
	for _, pass := range blurSchedule(settings.Passes) {
		p.pingPong[pass.dst].Bind()
		p.pingPong[pass.src].Color(0).Bind(0)
		blurStage.SetUniform("u_horizontal", pass.horizontal)
		p.quad.Draw()
	}

	p.present(p.pingPong[finalPingPong(settings.Passes)].Color(0), settings.Intensity)
}

// RenderToScreen presents the scene without bloom.
func (p *BloomPipeline) RenderToScreen() {
	p.reportProtocol(p.protocol.post("RenderToScreen"))

	defer libgl.PushDebugGroup("Passthrough")()

	libgl.State.SetEnabled()
	p.sampler.Bind(0)
	p.present(nil, 0)
}

func (p *BloomPipeline) present(bloom libgl.UnboundTexture, intensity float32) {
	black := mgl32.Vec4{0, 0, 0, 1}
	if p.Output != nil {
		p.Output.Bind()
		p.Output.Clear(0, black)
	} else {
		libgl.State.BindDrawFramebuffer(libgl.DefaultFramebuffer)
		libgl.State.Viewport(0, 0, p.width, p.height)
		gl.ClearNamedFramebufferfv(libgl.DefaultFramebuffer, gl.COLOR, 0, &black[0])
	}

	p.composite.Bind()
	p.composite.FragmentStage().SetUniform("u_intensity", intensity)
	p.hdr.Color(0).Bind(0)
	if bloom != nil {
		bloom.Bind(1)
	} else {
		libgl.State.BindTextureUnit(1, 0)
	}
	p.quad.Draw()
}

func (p *BloomPipeline) SceneTexture() libgl.UnboundTexture {
	return p.hdr.Color(0)
}

func (p *BloomPipeline) BrightTexture() libgl.UnboundTexture {
	return p.hdr.Color(1)
}

// SceneTarget exposes the HDR target, mostly for tests and captures.
func (p *BloomPipeline) SceneTarget() *RenderTarget {
	return p.hdr
}

func (p *BloomPipeline) Size() (width, height int) {
	return p.width, p.height
}
