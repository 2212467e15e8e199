package libio

import (
	"fmt"
	goimg "image"
	"image/color"
	"unsafe"

	"github.com/chewxy/math32"
)

// FloatImage is an RGBA float32 image as read back from a GL texture.
//
// Note that the origin (0,0) is in the bottom left, as opposed to Go's top left origin.
type FloatImage struct {
	Width, Height int
	Pix           []float32
}

const Channels = 4

// NewFloatImage allocates a black image when pix is nil.
func NewFloatImage(pix []float32, width, height int) *FloatImage {
	if pix == nil {
		pix = make([]float32, width*height*Channels)
	}
	if len(pix) != width*height*Channels {
		panic(fmt.Sprintf("pixel buffer of length %d does not match %dx%d rgba", len(pix), width, height))
	}
	return &FloatImage{Width: width, Height: height, Pix: pix}
}

func (img *FloatImage) Index(x, y int) int {
	return (x + y*img.Width) * Channels
}

func (img *FloatImage) Count() int {
	return img.Width * img.Height
}

func (img *FloatImage) Bytes() int {
	return img.Count() * Channels * 4
}

func (img *FloatImage) Pointer() unsafe.Pointer {
	return unsafe.Pointer(&img.Pix[0])
}

func (img *FloatImage) At(x, y int) [4]float32 {
	i := img.Index(x, y)
	return [4]float32(img.Pix[i : i+4])
}

func (img *FloatImage) Set(x, y int, rgba [4]float32) {
	copy(img.Pix[img.Index(x, y):], rgba[:])
}

func (img *FloatImage) Clone() *FloatImage {
	pix := make([]float32, len(img.Pix))
	copy(pix, img.Pix)
	return NewFloatImage(pix, img.Width, img.Height)
}

// Luminance uses the Rec. 709 weights.
func Luminance(r, g, b float32) float32 {
	return r*0.2126 + g*0.7152 + b*0.0722
}

// AverageBrightness is the mean of the rgb channels over all pixels.
func (img *FloatImage) AverageBrightness() float32 {
	if img.Count() == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < len(img.Pix); i += Channels {
		sum += float64(img.Pix[i] + img.Pix[i+1] + img.Pix[i+2])
	}
	return float32(sum / float64(img.Count()*3))
}

// FromImage converts a decoded image, flipping it so row 0 is the bottom row.
func FromImage(src goimg.Image) *FloatImage {
	b := src.Bounds()
	img := NewFloatImage(nil, b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			img.Set(x, b.Dy()-y-1, [4]float32{
				float32(c.R) / 0xff,
				float32(c.G) / 0xff,
				float32(c.B) / 0xff,
				float32(c.A) / 0xff,
			})
		}
	}
	return img
}

// ToRGBA clamps to [0,1] after applying gamma and flips back to a top left
// origin. Alpha is written as opaque.
func (img *FloatImage) ToRGBA(gamma float32) *goimg.RGBA {
	rgba := goimg.NewRGBA(goimg.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := img.Index(x, y)
			j := (x + (img.Height-y-1)*img.Width) * 4
			for c := 0; c < 3; c++ {
				rgba.Pix[j+c] = uint8(clampGamma(img.Pix[i+c], 1/gamma) * 0xff)
			}
			rgba.Pix[j+3] = 0xff
		}
	}
	return rgba
}

func clampGamma(value, invGamma float32) float32 {
	value = math32.Max(0, value)
	if invGamma != 1 {
		value = math32.Pow(value, invGamma)
	}
	return math32.Min(value, 1)
}
