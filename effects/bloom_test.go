package effects_test

import (
	"errors"
	"testing"

	"oreglow/effects"
	"oreglow/libgl"
	"oreglow/libio"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordRect records a black scene with a rect of value in both attachments.
func recordRect(p *effects.BloomPipeline, x, y, w, h int, value float32) {
	p.BeginRender()
	libgl.State.Enable(libgl.ScissorTest)
	libgl.State.Scissor(x, y, w, h)
	p.SceneTarget().Clear(0, mgl32.Vec4{value, value, value, 1})
	p.SceneTarget().Clear(1, mgl32.Vec4{value, value, value, 1})
	libgl.State.Disable(libgl.ScissorTest)
	p.EndRender()
}

type pipelineFixture struct {
	pipeline *effects.BloomPipeline
	output   *effects.RenderTarget
}

func newFixture(t *testing.T, width, height int) *pipelineFixture {
	f := &pipelineFixture{}
	var err, outErr error
	runOnMain(t, func() {
		f.pipeline, err = effects.NewBloomPipeline(width, height)
		if err != nil {
			return
		}
		f.output, outErr = effects.NewRenderTarget("output", width, height, []effects.AttachmentSpec{effects.HdrAttachment}, false)
		f.pipeline.Output = f.output
	})
	require.NoError(t, err)
	require.NoError(t, outErr)
	t.Cleanup(func() {
		onMain <- func() {
			f.pipeline.Release()
			f.output.Delete()
		}
		<-onMainDone
	})
	return f
}

func TestBloomPipeline_PassthroughIsIdentity(t *testing.T) {
	f := newFixture(t, 64, 48)

	var scene, presented *libio.FloatImage
	runOnMain(t, func() {
		f.pipeline.ClearColor = mgl32.Vec4{0.25, 0.5, 0.75, 1}
		recordRect(f.pipeline, 10, 10, 20, 8, 3)
		f.pipeline.RenderToScreen()
		scene = readTexture(f.pipeline.SceneTexture())
		presented = readTexture(f.output.Color(0))
	})

	assert.InDeltaSlice(t, scene.Pix, presented.Pix, 1e-3)
	assert.InDelta(t, 3, presented.At(15, 12)[0], 1e-3)
}

func TestBloomPipeline_ZeroIntensityIsIdentity(t *testing.T) {
	f := newFixture(t, 64, 48)

	var scene, presented *libio.FloatImage
	runOnMain(t, func() {
		recordRect(f.pipeline, 10, 10, 20, 8, 3)
		f.pipeline.ApplyBloom(effects.BloomSettings{Threshold: 0.5, Intensity: 0, Passes: 5})
		scene = readTexture(f.pipeline.SceneTexture())
		presented = readTexture(f.output.Color(0))
	})

	assert.InDeltaSlice(t, scene.Pix, presented.Pix, 1e-3)
}

func TestBloomPipeline_MatchesSoftware(t *testing.T) {
	f := newFixture(t, 40, 40)
	proc := effects.NewSwProcessor()
	defer proc.Release()

	for _, passes := range []int{0, 1, 2, 3, 10} {
		settings := effects.BloomSettings{Threshold: 0.5, Intensity: 1, Passes: passes}
		var scene, presented *libio.FloatImage
		runOnMain(t, func() {
			recordRect(f.pipeline, 20, 20, 1, 1, 1)
			f.pipeline.ApplyBloom(settings)
			scene = readTexture(f.pipeline.SceneTexture())
			presented = readTexture(f.output.Color(0))
		})

		expected, err := proc.Process(effects.Frame{Scene: scene}, settings)
		require.NoError(t, err)
		assert.InDeltaSlice(t, expected.Pix, presented.Pix, 5e-3, "passes=%d", passes)
	}
}

func TestBloomPipeline_ScaledTapsMatchSoftware(t *testing.T) {
	f := newFixture(t, 40, 40)
	proc := effects.NewSwProcessor()
	defer proc.Release()

	// 40 / 20 puts the taps two texels apart
	settings := effects.BloomSettings{Threshold: 0.5, Intensity: 1, Passes: 3, ReferenceHeight: 20}
	var scene, presented *libio.FloatImage
	runOnMain(t, func() {
		recordRect(f.pipeline, 20, 20, 1, 1, 1)
		f.pipeline.ApplyBloom(settings)
		scene = readTexture(f.pipeline.SceneTexture())
		presented = readTexture(f.output.Color(0))
	})

	expected, err := proc.Process(effects.Frame{Scene: scene}, settings)
	require.NoError(t, err)
	assert.InDeltaSlice(t, expected.Pix, presented.Pix, 5e-3)
	assert.Greater(t, presented.At(20+16, 20)[0], float32(0), "two horizontal passes reach sixteen texels")
}

func TestBloomPipeline_ThresholdOne(t *testing.T) {
	f := newFixture(t, 64, 48)

	var scene, presented *libio.FloatImage
	runOnMain(t, func() {
		f.pipeline.ClearColor = mgl32.Vec4{0.2, 0.2, 0.2, 1}
		recordRect(f.pipeline, 10, 10, 20, 8, 1)
		f.pipeline.ApplyBloom(effects.BloomSettings{Threshold: 1, Intensity: 1, Passes: 5})
		scene = readTexture(f.pipeline.SceneTexture())
		presented = readTexture(f.output.Color(0))
	})

	assert.InDeltaSlice(t, scene.Pix, presented.Pix, 1e-3)
}

func TestBloomPipeline_EndToEnd(t *testing.T) {
	f := newFixture(t, 800, 600)

	var scene, presented *libio.FloatImage
	runOnMain(t, func() {
		recordRect(f.pipeline, 200, 150, 400, 300, 1)
		f.pipeline.ApplyBloom(effects.BloomSettings{Threshold: 0.5, Intensity: 1, Passes: 5})
		scene = readTexture(f.pipeline.SceneTexture())
		presented = readTexture(f.output.Color(0))
	})

	assert.Greater(t, presented.AverageBrightness(), scene.AverageBrightness())
	for _, p := range [][2]int{{198, 148}, {601, 148}, {198, 451}, {601, 451}} {
		assert.Zero(t, scene.At(p[0], p[1])[0])
		assert.Greater(t, presented.At(p[0], p[1])[0], float32(0), "bloom reaches %v", p)
	}
}

func TestBloomPipeline_ExtractStartsFromBlack(t *testing.T) {
	f := newFixture(t, 32, 32)

	var scene, presented *libio.FloatImage
	runOnMain(t, func() {
		recordRect(f.pipeline, 0, 0, 32, 32, 4)
		f.pipeline.ApplyBloom(effects.BloomSettings{Threshold: 0.5, Intensity: 1, Passes: 2})

		recordRect(f.pipeline, 8, 8, 4, 4, 0.25)
		f.pipeline.ApplyBloom(effects.BloomSettings{Threshold: 0.5, Intensity: 1, Passes: 0})
		scene = readTexture(f.pipeline.SceneTexture())
		presented = readTexture(f.output.Color(0))
	})

	assert.InDeltaSlice(t, scene.Pix, presented.Pix, 1e-3, "nothing of the previous frame's bloom remains")
}

func TestBloomPipeline_BrightMaskSource(t *testing.T) {
	f := newFixture(t, 32, 32)

	var presented *libio.FloatImage
	runOnMain(t, func() {
		f.pipeline.ExtractSource = effects.ExtractBrightMask
		f.pipeline.BeginRender()
		libgl.State.Enable(libgl.ScissorTest)
		libgl.State.Scissor(16, 16, 1, 1)
		f.pipeline.SceneTarget().Clear(1, mgl32.Vec4{0.1, 0.1, 0.1, 1})
		libgl.State.Disable(libgl.ScissorTest)
		f.pipeline.EndRender()
		f.pipeline.ApplyBloom(effects.BloomSettings{Threshold: 0.5, Intensity: 1, Passes: 0})
		presented = readTexture(f.output.Color(0))
	})

	assert.InDelta(t, 0.1, presented.At(16, 16)[0], 1e-3, "mask below the threshold still blooms")
}

func TestBloomPipeline_ProtocolRecovery(t *testing.T) {
	f := newFixture(t, 32, 32)

	var drawFramebuffer uint32
	runOnMain(t, func() {
		f.pipeline.Output = nil
		f.pipeline.BeginRender()
		f.pipeline.BeginRender()
		f.pipeline.ApplyBloom(effects.DefaultBloomSettings())
		f.pipeline.EndRender()
		f.pipeline.RenderToScreen()
		drawFramebuffer = libgl.State.DrawFramebuffer
	})

	assert.Equal(t, libgl.DefaultFramebuffer, drawFramebuffer)
}

func TestBloomPipeline_Resize(t *testing.T) {
	f := newFixture(t, 32, 32)

	var w, h, sceneW int
	runOnMain(t, func() {
		f.pipeline.Resize(0, 20)
		f.pipeline.Resize(64, -1)
		f.pipeline.Resize(48, 24)
		w, h = f.pipeline.Size()
		sceneW = f.pipeline.SceneTexture().Width()
	})

	assert.Equal(t, 48, w)
	assert.Equal(t, 24, h)
	assert.Equal(t, 48, sceneW)
}

func TestNewShaderPipeline_BuildError(t *testing.T) {
	var err error
	runOnMain(t, func() {
		_, err = libgl.NewShaderPipeline("#version 450 core\nvoid main() {}\n", "#version 450 core\nvoid main() { undefined(); }\n")
	})

	var buildErr *libgl.ShaderBuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Equal(t, "fragment", buildErr.Stage)
}

func TestRenderTarget_ResizeSameSize(t *testing.T) {
	var (
		rt                 *effects.RenderTarget
		createErr, sizeErr error
		before, after      []int32
	)
	formats := func() []int32 {
		var result []int32
		for i := 0; i < rt.AttachmentCount(); i++ {
			var format int32
			gl.GetTextureLevelParameteriv(rt.Color(i).Id(), 0, gl.TEXTURE_INTERNAL_FORMAT, &format)
			result = append(result, format)
		}
		return result
	}
	runOnMain(t, func() {
		rt, createErr = effects.NewRenderTarget("test", 320, 240, []effects.AttachmentSpec{effects.HdrAttachment, effects.HdrAttachment}, true)
		before = formats()
		sizeErr = rt.Resize(320, 240)
		after = formats()
	})
	require.NoError(t, createErr)
	require.NoError(t, sizeErr)
	defer runOnMain(t, rt.Delete)

	assert.Equal(t, []int32{gl.RGBA16F, gl.RGBA16F}, before)
	assert.Equal(t, before, after)
	assert.Equal(t, 2, rt.AttachmentCount())
	assert.True(t, rt.HasDepth())
	assert.Equal(t, 320, rt.Width())
	assert.Equal(t, 240, rt.Height())
	assert.Equal(t, 320, rt.Color(1).Width())
}

func TestRenderTarget_DeleteTwice(t *testing.T) {
	var rt *effects.RenderTarget
	runOnMain(t, func() {
		rt, _ = effects.NewRenderTarget("test", 8, 8, []effects.AttachmentSpec{effects.HdrAttachment}, false)
		rt.Delete()
		rt.Delete()
	})
	assert.Nil(t, rt.Framebuffer())
	assert.Zero(t, rt.AttachmentCount())
}

func TestNewRenderTarget_InvalidSize(t *testing.T) {
	_, err := effects.NewRenderTarget("test", 0, 8, []effects.AttachmentSpec{effects.HdrAttachment}, false)
	assert.Error(t, err)
}

func TestNewRenderTarget_IncompleteIsReturned(t *testing.T) {
	var (
		rt  *effects.RenderTarget
		err error
	)
	runOnMain(t, func() {
		// shared exponent formats are not color renderable
		rt, err = effects.NewRenderTarget("shared exponent", 16, 16, []effects.AttachmentSpec{{InternalFormat: gl.RGB9_E5}}, false)
	})

	var incomplete *effects.TargetIncompleteError
	require.True(t, errors.As(err, &incomplete), "got %v", err)
	assert.Equal(t, "shared exponent", incomplete.Target)
	assert.Equal(t, 16, incomplete.Width)
	require.NotNil(t, rt)
	assert.Equal(t, 1, rt.AttachmentCount())

	var recovered any
	runOnMain(t, func() {
		defer func() { recovered = recover() }()
		rt.Clear(0, mgl32.Vec4{1, 1, 1, 1})
		rt.Delete()
	})
	assert.Nil(t, recovered)
	assert.Zero(t, rt.AttachmentCount())
}
