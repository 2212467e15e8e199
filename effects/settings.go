package effects

import "fmt"

// ExtractSource selects what the bright pass reads.
type ExtractSource int

const (
	// ExtractSceneColor thresholds the scene color attachment by luminance.
	ExtractSceneColor ExtractSource = iota
	// ExtractBrightMask passes the scene authored mask in attachment 1 through
	// unchanged. The threshold is not applied a second time.
	ExtractBrightMask
)

func (s ExtractSource) String() string {
	switch s {
	case ExtractSceneColor:
		return "scene"
	case ExtractBrightMask:
		return "mask"
	}
	return fmt.Sprintf("ExtractSource(%d)", int(s))
}

func ParseExtractSource(s string) (ExtractSource, error) {
	switch s {
	case "", "scene":
		return ExtractSceneColor, nil
	case "mask":
		return ExtractBrightMask, nil
	}
	return 0, fmt.Errorf("unknown extract source %q, expected scene or mask", s)
}

// BloomSettings configures a single ApplyBloom call.
type BloomSettings struct {
	// Luminance a pixel must exceed to bloom.
	Threshold float32
	// Weight of the blurred image in the composite.
	Intensity float32
	// Number of one directional blur passes. Zero or less composites the
	// unblurred extract.
	Passes int
	// Viewport height at which the kernel taps are one texel apart. Taps are
	// spaced proportionally at other heights so the glow covers the same
	// share of the screen. Zero keeps one texel spacing at every size.
	ReferenceHeight int
}

// TexelStep is the distance in texels between two blur taps for a target of
// the given height.
func (s BloomSettings) TexelStep(height int) float32 {
	if s.ReferenceHeight <= 0 || height <= 0 {
		return 1
	}
	return float32(height) / float32(s.ReferenceHeight)
}

func DefaultBloomSettings() BloomSettings {
	return BloomSettings{
		Threshold: 0.5,
		Intensity: 1.0,
		Passes:    5,
	}
}

// BlurWeights is the one sided 9 tap gaussian kernel, center first.
var BlurWeights = [5]float32{0.227027, 0.1945946, 0.1216216, 0.054054, 0.016216}
