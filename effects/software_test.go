package effects

import (
	"math/rand"
	"testing"

	"oreglow/libio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// filledRect returns a black opaque image with an opaque rect [x0,x1)×[y0,y1) of value.
func filledRect(width, height, x0, y0, x1, y1 int, value float32) *libio.FloatImage {
	img := libio.NewFloatImage(nil, width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := [4]float32{0, 0, 0, 1}
			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				c = [4]float32{value, value, value, 1}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func randomScene(width, height int, max float32) *libio.FloatImage {
	rng := rand.New(rand.NewSource(1))
	img := libio.NewFloatImage(nil, width, height)
	for i := range img.Pix {
		if i%libio.Channels == 3 {
			img.Pix[i] = 1
		} else {
			img.Pix[i] = rng.Float32() * max
		}
	}
	return img
}

func TestSwProcessor_CompositeReadsFinalBuffer(t *testing.T) {
	scene := filledRect(33, 33, 16, 16, 17, 17, 1)
	proc := &swProcessor{}

	for _, passes := range []int{0, 1, 2, 3, 10} {
		settings := BloomSettings{Threshold: 0.5, Intensity: 1, Passes: passes}
		pingPong, err := proc.blurred(Frame{Scene: scene}, settings)
		require.NoError(t, err)
		out, err := proc.Process(Frame{Scene: scene}, settings)
		require.NoError(t, err)

		expected := compositeSw(scene, pingPong[passes%2], 1)
		assert.Equal(t, expected.Pix, out.Pix, "passes=%d", passes)
	}
}

func TestSwProcessor_BlurDirectionByParity(t *testing.T) {
	scene := filledRect(33, 33, 16, 16, 17, 17, 1)
	proc := NewSwProcessor()
	defer proc.Release()

	spread := func(passes int) (right, up int) {
		out, err := proc.Process(Frame{Scene: scene}, BloomSettings{Threshold: 0.5, Intensity: 1, Passes: passes})
		require.NoError(t, err)
		for d := 1; d <= 16; d++ {
			if out.At(16+d, 16)[0] > 0 {
				right = d
			}
			if out.At(16, 16+d)[0] > 0 {
				up = d
			}
		}
		return right, up
	}

	cases := []struct {
		passes    int
		right, up int
	}{
		{0, 0, 0},
		{1, 4, 0},
		{2, 4, 4},
		{3, 8, 4},
		{10, 16, 16},
	}
	for _, c := range cases {
		right, up := spread(c.passes)
		assert.Equal(t, c.right, right, "horizontal reach after %d passes", c.passes)
		assert.Equal(t, c.up, up, "vertical reach after %d passes", c.passes)
	}
}

func TestSwProcessor_ZeroIntensityIsIdentity(t *testing.T) {
	scene := randomScene(40, 30, 4)
	out, err := NewSwProcessor().Process(Frame{Scene: scene}, BloomSettings{Threshold: 0.1, Intensity: 0, Passes: 5})
	require.NoError(t, err)
	assert.Equal(t, scene.Pix, out.Pix)
}

func TestSwProcessor_ThresholdOneExtractsNothing(t *testing.T) {
	scene := randomScene(40, 30, 1)
	settings := BloomSettings{Threshold: 1, Intensity: 1, Passes: 4}
	proc := &swProcessor{}

	pingPong, err := proc.blurred(Frame{Scene: scene}, settings)
	require.NoError(t, err)
	for i := 0; i < len(pingPong[0].Pix); i += libio.Channels {
		assert.Zero(t, pingPong[0].Pix[i]+pingPong[0].Pix[i+1]+pingPong[0].Pix[i+2])
	}

	out, err := proc.Process(Frame{Scene: scene}, settings)
	require.NoError(t, err)
	assert.Equal(t, scene.Pix, out.Pix)
}

func TestSwProcessor_ResizeKeepsKernel(t *testing.T) {
	settings := BloomSettings{Threshold: 0.5, Intensity: 1, Passes: 5}
	profile := func(size int) []float32 {
		scene := filledRect(size, size, size/2, 0, size/2+1, size, 2)
		out, err := NewSwProcessor().Process(Frame{Scene: scene}, settings)
		require.NoError(t, err)
		row := make([]float32, 14)
		for d := range row {
			row[d] = out.At(size/2+d, size/2)[0]
		}
		return row
	}

	small, large := profile(64), profile(128)
	assert.InDeltaSlice(t, small, large, 1e-6)
	assert.Zero(t, small[13], "three horizontal passes reach twelve texels")
	assert.Greater(t, small[12], float32(0))
}

func TestSwProcessor_EndToEnd(t *testing.T) {
	scene := filledRect(800, 600, 200, 150, 600, 450, 1)
	out, err := NewSwProcessor().Process(Frame{Scene: scene}, BloomSettings{Threshold: 0.5, Intensity: 1, Passes: 5})
	require.NoError(t, err)

	assert.Greater(t, out.AverageBrightness(), scene.AverageBrightness())
	for _, p := range [][2]int{{198, 148}, {601, 148}, {198, 451}, {601, 451}} {
		assert.Zero(t, scene.At(p[0], p[1])[0])
		assert.Greater(t, out.At(p[0], p[1])[0], float32(0), "bloom reaches %v", p)
	}
	assert.Zero(t, out.At(0, 0)[0], "far corner stays black")
}

func TestSwProcessor_BrightMaskSkipsThreshold(t *testing.T) {
	scene := filledRect(16, 16, 0, 0, 0, 0, 0)
	mask := filledRect(16, 16, 8, 8, 9, 9, 0.1)
	settings := BloomSettings{Threshold: 0.5, Intensity: 1, Passes: 0}

	out, err := NewSwProcessor().Process(Frame{Scene: scene, Bright: mask, Source: ExtractBrightMask}, settings)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, out.At(8, 8)[0], 1e-6)

	out, err = NewSwProcessor().Process(Frame{Scene: scene, Bright: mask, Source: ExtractSceneColor}, settings)
	require.NoError(t, err)
	assert.Zero(t, out.At(8, 8)[0], "the mask is ignored when extracting from the scene")

	_, err = NewSwProcessor().Process(Frame{Scene: scene, Source: ExtractBrightMask}, settings)
	assert.Error(t, err)
}

func TestSwProcessor_ReferenceHeightKeepsNormalizedSpread(t *testing.T) {
	settings := BloomSettings{Threshold: 0.5, Intensity: 1, Passes: 5, ReferenceHeight: 64}
	render := func(size int) *libio.FloatImage {
		// a column one sixty-fourth of the width wide
		scene := filledRect(size, size, size/2, 0, size/2+size/64, size, 2)
		out, err := NewSwProcessor().Process(Frame{Scene: scene}, settings)
		require.NoError(t, err)
		return out
	}

	small, large := render(64), render(128)
	for d := range 14 {
		assert.InDelta(t, small.At(32+d, 32)[0], large.At(64+2*d, 64)[0], 1e-5, "offset %d", d)
	}
	assert.Greater(t, large.At(64+24, 64)[0], float32(0))
	assert.Zero(t, large.At(64+26, 64)[0])
}

func TestBloomSettings_TexelStep(t *testing.T) {
	assert.Equal(t, float32(1), BloomSettings{}.TexelStep(1080))
	assert.Equal(t, float32(1), BloomSettings{ReferenceHeight: 600}.TexelStep(600))
	assert.Equal(t, float32(2), BloomSettings{ReferenceHeight: 600}.TexelStep(1200))
	assert.Equal(t, float32(0.5), BloomSettings{ReferenceHeight: 600}.TexelStep(300))
	assert.Equal(t, float32(1), BloomSettings{ReferenceHeight: 600}.TexelStep(0))
}

func TestSampleLinear(t *testing.T) {
	img := libio.NewFloatImage(nil, 4, 1)
	for x := range 4 {
		img.Set(x, 0, [4]float32{float32(x), 0, 0, 1})
	}
	assert.Equal(t, float32(1), sampleLinear(img, 1, 0, true)[0])
	assert.InDelta(t, 1.25, sampleLinear(img, 1.25, 0, true)[0], 1e-6)
	assert.Equal(t, float32(0), sampleLinear(img, -3.5, 0, true)[0], "clamped low")
	assert.Equal(t, float32(3), sampleLinear(img, 7.5, 0, true)[0], "clamped high")
}
