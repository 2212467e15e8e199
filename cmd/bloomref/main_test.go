package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"oreglow/effects"
	"oreglow/libio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadImageFormats(t *testing.T) {
	dir := t.TempDir()

	src := libio.NewFloatImage(nil, 4, 2)
	src.Set(1, 1, [4]float32{2.5, 0, 0, 1})
	f32 := filepath.Join(dir, "scene.f32")
	require.NoError(t, saveFloatImage(f32, src))

	got, err := loadImage(f32)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, got.At(1, 1)[0], 1e-3)

	rgba := image.NewRGBA(image.Rect(0, 0, 3, 3))
	rgba.Set(0, 0, color.RGBA{R: 255, A: 255})
	pngPath := filepath.Join(dir, "scene.png")
	file, err := os.Create(pngPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(file, rgba))
	require.NoError(t, file.Close())

	got, err = loadImage(pngPath)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Width)
	// top left of the png is the last row of the float image
	assert.InDelta(t, 1, got.At(0, 2)[0], 1e-6)

	_, err = loadImage(filepath.Join(dir, "missing.f32"))
	assert.Error(t, err)
}

func TestNewProcessor(t *testing.T) {
	proc, err := newProcessor("sw", "gpu")
	require.NoError(t, err)
	proc.Release()

	_, err = newProcessor("vulkan", "gpu")
	assert.Error(t, err)
	_, err = newProcessor("cl", "toaster")
	assert.Error(t, err)
}

func TestParseDeviceType(t *testing.T) {
	dt, err := parseDeviceType("CPU")
	require.NoError(t, err)
	assert.Equal(t, effects.DeviceTypeCPU, dt)
}

func TestSoftwarePipelineWritesPng(t *testing.T) {
	scene := libio.NewFloatImage(nil, 16, 16)
	scene.Set(8, 8, [4]float32{4, 4, 4, 1})

	proc, err := newProcessor("sw", "")
	require.NoError(t, err)
	out, err := proc.Process(effects.Frame{Scene: scene}, effects.DefaultBloomSettings())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, savePng(path, out, 1))
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)

	// the glow spreads to the neighbours of the lit pixel
	r, _, _, _ := img.At(9, 16-1-8).RGBA()
	assert.Greater(t, r, uint32(0))
}
