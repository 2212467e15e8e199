package main

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

type fakeKeys struct {
	down map[glfw.Key]bool
	tap  map[glfw.Key]bool
}

func held(keys ...glfw.Key) fakeKeys {
	f := fakeKeys{down: map[glfw.Key]bool{}, tap: map[glfw.Key]bool{}}
	for _, k := range keys {
		f.down[k] = true
	}
	return f
}

func pressed(keys ...glfw.Key) fakeKeys {
	f := held(keys...)
	for _, k := range keys {
		f.tap[k] = true
	}
	return f
}

func (f fakeKeys) IsKeyDown(key glfw.Key) bool { return f.down[key] }
func (f fakeKeys) IsKeyTap(key glfw.Key) bool  { return f.tap[key] }

func TestControlsDefaults(t *testing.T) {
	c := NewControls(DefaultConfig())
	assert.Equal(t, float32(0.5), c.Ambient)
	assert.True(t, c.BloomEnabled)
	assert.Equal(t, 5, c.Bloom.Passes)
	assert.Equal(t, 3, c.OreCount())
	assert.Equal(t, 0, c.OreIndex)
}

func TestControlsAmbientIsContinuousAndClamped(t *testing.T) {
	c := NewControls(DefaultConfig())
	for range 10 {
		c.Update(held(glfw.KeyUp))
	}
	assert.InDelta(t, 0.6, c.Ambient, 1e-4)

	for range 200 {
		c.Update(held(glfw.KeyUp))
	}
	assert.Equal(t, float32(1), c.Ambient)

	for range 200 {
		c.Update(held(glfw.KeyDown))
	}
	assert.Equal(t, float32(0), c.Ambient)
}

func TestControlsOreSelection(t *testing.T) {
	c := NewControls(DefaultConfig())

	c.Update(pressed(glfw.KeyLeft))
	assert.Equal(t, 0, c.OreIndex, "left clamps at zero")

	// holding without a new press does nothing
	c.Update(pressed(glfw.KeyRight))
	c.Update(held(glfw.KeyRight))
	c.Update(held(glfw.KeyRight))
	assert.Equal(t, 1, c.OreIndex)

	c.Update(pressed(glfw.KeyRight))
	c.Update(pressed(glfw.KeyRight))
	assert.Equal(t, 0, c.OreIndex, "right wraps")

	c.Update(pressed(glfw.KeyRight))
	c.Update(pressed(glfw.KeyLeft))
	assert.Equal(t, 0, c.OreIndex)
}

func TestControlsBloomToggleOnPress(t *testing.T) {
	c := NewControls(DefaultConfig())
	c.Update(pressed(glfw.KeyB))
	assert.False(t, c.BloomEnabled)
	c.Update(held(glfw.KeyB))
	assert.False(t, c.BloomEnabled)
	c.Update(pressed(glfw.KeyB))
	assert.True(t, c.BloomEnabled)
}

func TestControlsBloomValues(t *testing.T) {
	c := NewControls(DefaultConfig())

	c.Update(held(glfw.KeyEqual))
	assert.InDelta(t, 1.05, c.Bloom.Intensity, 1e-5)
	for range 100 {
		c.Update(held(glfw.KeyEqual))
	}
	assert.Equal(t, float32(maxIntensity), c.Bloom.Intensity)
	for range 100 {
		c.Update(held(glfw.KeyMinus))
	}
	assert.Equal(t, float32(0), c.Bloom.Intensity)

	c.Update(held(glfw.KeyComma))
	assert.InDelta(t, 0.49, c.Bloom.Threshold, 1e-5)
	for range 100 {
		c.Update(held(glfw.KeyPeriod))
	}
	assert.Equal(t, float32(1), c.Bloom.Threshold)

	c.Update(pressed(glfw.KeyRightBracket))
	c.Update(held(glfw.KeyRightBracket))
	assert.Equal(t, 6, c.Bloom.Passes)
	for range 30 {
		c.Update(pressed(glfw.KeyLeftBracket))
	}
	assert.Equal(t, 0, c.Bloom.Passes)
}

func TestControlsActions(t *testing.T) {
	c := NewControls(DefaultConfig())
	assert.Equal(t, ControlActions{}, c.Update(held(glfw.KeyEscape, glfw.KeyF12)))
	assert.Equal(t, ControlActions{Quit: true, Capture: true}, c.Update(pressed(glfw.KeyEscape, glfw.KeyF12)))
}

func TestControlsWithoutOres(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ores = nil
	c := NewControls(cfg)
	c.Update(pressed(glfw.KeyRight))
	assert.Equal(t, 0, c.OreIndex)
}

func TestControlsStatus(t *testing.T) {
	c := NewControls(DefaultConfig())
	c.BloomEnabled = false
	assert.Equal(t,
		"Ore: Diamond | Ambient: 0.50 | Bloom: OFF | Intensity: 1.00 | Threshold: 0.50 | Passes: 5 | Extract: scene",
		c.Status("Diamond"))
}
