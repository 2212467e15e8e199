package main

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/furui/fastnoiselite-go"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/slices"
	"golang.org/x/image/draw"
)

// OreTextureSize is the edge length every ore texture is brought to.
const OreTextureSize = 16

// share of pixels that become ore in a generated texture
const proceduralOreCoverage = 0.3

type Ore struct {
	Name         string
	Color        mgl32.Vec3
	GlowStrength float32
	DiffusePath  string
	EmissivePath string
}

func OresFromConfig(list []OreConfig) []Ore {
	ores := make([]Ore, len(list))
	for i, c := range list {
		ores[i] = Ore{
			Name:         c.Name,
			Color:        c.Color,
			GlowStrength: c.Glow,
			DiffusePath:  c.Diffuse,
			EmissivePath: c.Emissive,
		}
	}
	return ores
}

// TextureKind selects one of the two maps of an ore.
type TextureKind int

const (
	DiffuseMap TextureKind = iota
	EmissiveMap
)

// MapsPerOre is how many textures one draw binds at once.
const MapsPerOre = int(EmissiveMap) + 1

func (k TextureKind) String() string {
	if k == EmissiveMap {
		return "emissive"
	}
	return "diffuse"
}

func (ore *Ore) path(kind TextureKind) string {
	if kind == EmissiveMap {
		return ore.EmissivePath
	}
	return ore.DiffusePath
}

// LoadOreImage decodes an ore texture and brings it to 16×16. It returns an
// error when the file is missing or cannot be decoded.
func LoadOreImage(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	size := img.Bounds().Size()
	if size.X != OreTextureSize || size.Y != OreTextureSize {
		slog.Warn("ore texture is not 16x16, rescaling", "path", path, "format", format, "width", size.X, "height", size.Y)
	}
	return toOreImage(img), nil
}

func toOreImage(img image.Image) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, OreTextureSize, OreTextureSize))
	if img.Bounds().Size() == dst.Rect.Size() {
		draw.Draw(dst, dst.Rect, img, img.Bounds().Min, draw.Src)
	} else {
		draw.NearestNeighbor.Scale(dst, dst.Rect, img, img.Bounds(), draw.Src, nil)
	}
	return dst
}

// ProceduralOreImages generates a stone texture with ore colored blotches
// and the matching emissive mask. The output only depends on the name and
// color.
func ProceduralOreImages(name string, oreColor mgl32.Vec3) (diffuse, emissive *image.NRGBA) {
	h := fnv.New32a()
	h.Write([]byte(name))
	offset := float32(h.Sum32()%4096) * 17

	stone := fastnoiselite.NewNoise()
	stone.SetNoiseType(fastnoiselite.NoiseTypeOpenSimplex2)
	stone.FractalType = fastnoiselite.FractalTypeFBm
	stone.Frequency = 0.35
	stone.SetFractalOctaves(2)

	veins := fastnoiselite.NewNoise()
	veins.SetNoiseType(fastnoiselite.NoiseTypeOpenSimplex2)
	veins.Frequency = 0.22

	n := OreTextureSize * OreTextureSize
	grey := make([]float32, n)
	blotch := make([]float32, n)
	for y := 0; y < OreTextureSize; y++ {
		for x := 0; x < OreTextureSize; x++ {
			fx := fastnoiselite.FNLfloat(float32(x) + offset)
			fy := fastnoiselite.FNLfloat(float32(y) - offset)
			grey[y*OreTextureSize+x] = 0.5 + 0.12*float32(stone.GetNoise2D(fx, fy))
			blotch[y*OreTextureSize+x] = float32(veins.GetNoise2D(fx, fy))
		}
	}

	// fixed coverage regardless of how the noise happens to fall
	sorted := slices.Clone(blotch)
	slices.Sort(sorted)
	cut := sorted[int(float32(n)*(1-proceduralOreCoverage))]

	diffuse = image.NewNRGBA(image.Rect(0, 0, OreTextureSize, OreTextureSize))
	emissive = image.NewNRGBA(image.Rect(0, 0, OreTextureSize, OreTextureSize))
	for i := range n {
		x, y := i%OreTextureSize, i/OreTextureSize
		g := grey[i]
		if blotch[i] >= cut {
			c := oreColor.Mul(0.8).Add(mgl32.Vec3{g, g, g}.Mul(0.2))
			diffuse.SetNRGBA(x, y, nrgba(c[0], c[1], c[2]))
			emissive.SetNRGBA(x, y, nrgba(1, 1, 1))
		} else {
			diffuse.SetNRGBA(x, y, nrgba(g, g, g))
			emissive.SetNRGBA(x, y, nrgba(0, 0, 0))
		}
	}
	return diffuse, emissive
}

func nrgba(r, g, b float32) color.NRGBA {
	return color.NRGBA{R: unorm8(r), G: unorm8(g), B: unorm8(b), A: 255}
}

func unorm8(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}
