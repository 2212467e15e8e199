package main

import (
	"fmt"

	"oreglow/effects"
	"oreglow/libutil"

	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	ambientStep   = 0.01
	intensityStep = 0.05
	thresholdStep = 0.01
	maxIntensity  = 3
)

// Controls holds the values the user can change at runtime.
type Controls struct {
	Ambient      float32
	OreIndex     int
	BloomEnabled bool
	Bloom        effects.BloomSettings
	Extract      effects.ExtractSource

	oreCount int
}

// ControlActions are one-shot requests raised by a key press.
type ControlActions struct {
	Quit    bool
	Capture bool
}

func NewControls(cfg Config) *Controls {
	bloom, source := cfg.BloomSettings()
	return &Controls{
		Ambient:      cfg.Scene.Ambient,
		BloomEnabled: cfg.Bloom.Enabled,
		Bloom:        bloom,
		Extract:      source,
		oreCount:     len(cfg.Ores),
	}
}

// Update applies one frame of keyboard input. Ambient, intensity and threshold
// change while their key is held. Everything else reacts to the press only.
func (c *Controls) Update(in KeyInput) (actions ControlActions) {
	if in.IsKeyTap(glfw.KeyEscape) {
		actions.Quit = true
	}
	if in.IsKeyTap(glfw.KeyF12) {
		actions.Capture = true
	}

	if in.IsKeyDown(glfw.KeyUp) {
		c.Ambient += ambientStep
	}
	if in.IsKeyDown(glfw.KeyDown) {
		c.Ambient -= ambientStep
	}

	if in.IsKeyTap(glfw.KeyRight) && c.oreCount > 0 {
		c.OreIndex = (c.OreIndex + 1) % c.oreCount
	}
	if in.IsKeyTap(glfw.KeyLeft) && c.OreIndex > 0 {
		c.OreIndex--
	}

	if in.IsKeyTap(glfw.KeyB) {
		c.BloomEnabled = !c.BloomEnabled
	}

	if in.IsKeyDown(glfw.KeyEqual) {
		c.Bloom.Intensity += intensityStep
	}
	if in.IsKeyDown(glfw.KeyMinus) {
		c.Bloom.Intensity -= intensityStep
	}
	if in.IsKeyDown(glfw.KeyPeriod) {
		c.Bloom.Threshold += thresholdStep
	}
	if in.IsKeyDown(glfw.KeyComma) {
		c.Bloom.Threshold -= thresholdStep
	}

	if in.IsKeyTap(glfw.KeyRightBracket) {
		c.Bloom.Passes++
	}
	if in.IsKeyTap(glfw.KeyLeftBracket) {
		c.Bloom.Passes--
	}

	c.Clamp()
	return actions
}

// Clamp forces every value into its range, also after edits from the panel.
func (c *Controls) Clamp() {
	c.Ambient = libutil.Clamp(c.Ambient, 0, 1)
	c.Bloom.Intensity = libutil.Clamp(c.Bloom.Intensity, 0, maxIntensity)
	c.Bloom.Threshold = libutil.Clamp(c.Bloom.Threshold, 0, 1)
	c.Bloom.Passes = libutil.Clamp(c.Bloom.Passes, 0, maxBlurPasses)
	if c.oreCount > 0 {
		c.OreIndex = libutil.Clamp(c.OreIndex, 0, c.oreCount-1)
	} else {
		c.OreIndex = 0
	}
}

func (c *Controls) OreCount() int {
	return c.oreCount
}

// Status is the one line summary logged whenever a value changes.
func (c *Controls) Status(oreName string) string {
	bloom := "OFF"
	if c.BloomEnabled {
		bloom = "ON"
	}
	return fmt.Sprintf("Ore: %s | Ambient: %.2f | Bloom: %s | Intensity: %.2f | Threshold: %.2f | Passes: %d | Extract: %s",
		oreName, c.Ambient, bloom, c.Bloom.Intensity, c.Bloom.Threshold, c.Bloom.Passes, c.Extract)
}
