package effects

import (
	"runtime"
	"sync"

	"oreglow/libio"

	"github.com/chewxy/math32"
)

type swProcessor struct{}

// NewSwProcessor returns a CPU implementation that matches the GL passes
// texel for texel.
func NewSwProcessor() Processor {
	return &swProcessor{}
}

func (*swProcessor) Release() {
}

func (proc *swProcessor) Process(frame Frame, settings BloomSettings) (*libio.FloatImage, error) {
	pingPong, err := proc.blurred(frame, settings)
	if err != nil {
		return nil, err
	}
	return compositeSw(frame.Scene, pingPong[finalPingPong(settings.Passes)], settings.Intensity), nil
}

// blurred runs extract and blur and returns both ping-pong buffers.
func (proc *swProcessor) blurred(frame Frame, settings BloomSettings) ([2]*libio.FloatImage, error) {
	src, threshold, err := frame.extractInput(settings)
	if err != nil {
		return [2]*libio.FloatImage{}, err
	}
	pingPong := [2]*libio.FloatImage{
		extractSw(src, threshold),
		libio.NewFloatImage(nil, src.Width, src.Height),
	}
	for _, pass := range blurSchedule(settings.Passes) {
		blurSw(pingPong[pass.src], pingPong[pass.dst], pass.horizontal, settings.TexelStep(src.Height))
	}
	return pingPong, nil
}

// parallelRows splits the rows over the available cpus.
func parallelRows(height int, fn func(y int)) {
	workers := min(runtime.GOMAXPROCS(0), height)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for y := w; y < height; y += workers {
				fn(y)
			}
		}(w)
	}
	wg.Wait()
}

func extractSw(src *libio.FloatImage, threshold float32) *libio.FloatImage {
	dst := libio.NewFloatImage(nil, src.Width, src.Height)
	parallelRows(src.Height, func(y int) {
		for x := 0; x < src.Width; x++ {
			c := src.At(x, y)
			if libio.Luminance(c[0], c[1], c[2]) > threshold {
				dst.Set(x, y, [4]float32{c[0], c[1], c[2], 1})
			} else {
				dst.Set(x, y, [4]float32{0, 0, 0, 1})
			}
		}
	})
	return dst
}

// blurSw samples like a linear filtered texture clamped to the edge.
func blurSw(src, dst *libio.FloatImage, horizontal bool, step float32) {
	w, h := src.Width, src.Height
	parallelRows(h, func(y int) {
		for x := 0; x < w; x++ {
			var sum [3]float32
			for i := -4; i <= 4; i++ {
				weight := BlurWeights[max(i, -i)]
				var c [3]float32
				if horizontal {
					c = sampleLinear(src, float32(x)+float32(i)*step, y, true)
				} else {
					c = sampleLinear(src, float32(y)+float32(i)*step, x, false)
				}
				sum[0] += c[0] * weight
				sum[1] += c[1] * weight
				sum[2] += c[2] * weight
			}
			dst.Set(x, y, [4]float32{sum[0], sum[1], sum[2], 1})
		}
	})
}

// sampleLinear interpolates along one axis at texel position pos. fixed is
// the coordinate on the other axis.
func sampleLinear(img *libio.FloatImage, pos float32, fixed int, horizontal bool) [3]float32 {
	n := img.Height
	if horizontal {
		n = img.Width
	}
	p0 := math32.Floor(pos)
	f := pos - p0
	i0 := min(max(int(p0), 0), n-1)
	i1 := min(max(int(p0)+1, 0), n-1)

	at := func(i int) [4]float32 {
		if horizontal {
			return img.At(i, fixed)
		}
		return img.At(fixed, i)
	}
	a := at(i0)
	if f == 0 {
		return [3]float32{a[0], a[1], a[2]}
	}
	b := at(i1)
	return [3]float32{
		a[0] + (b[0]-a[0])*f,
		a[1] + (b[1]-a[1])*f,
		a[2] + (b[2]-a[2])*f,
	}
}

func compositeSw(scene, bloom *libio.FloatImage, intensity float32) *libio.FloatImage {
	dst := libio.NewFloatImage(nil, scene.Width, scene.Height)
	parallelRows(scene.Height, func(y int) {
		for x := 0; x < scene.Width; x++ {
			c := scene.At(x, y)
			if intensity > 0 {
				b := bloom.At(x, y)
				c[0] += b[0] * intensity
				c[1] += b[1] * intensity
				c[2] += b[2] * intensity
			}
			dst.Set(x, y, [4]float32{c[0], c[1], c[2], 1})
		}
	})
	return dst
}
