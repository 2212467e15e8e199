package effects

import (
	"fmt"

	"oreglow/libio"
)

// Frame is a captured HDR scene, as written by the scene pass.
type Frame struct {
	Scene *libio.FloatImage
	// Bright is the scene authored mask. Only needed for ExtractBrightMask.
	Bright *libio.FloatImage
	Source ExtractSource
}

// Processor runs the bloom algorithm off screen on captured frames.
type Processor interface {
	Process(frame Frame, settings BloomSettings) (*libio.FloatImage, error)
	Release()
}

// extractInput picks the image and threshold the bright pass uses.
func (f Frame) extractInput(settings BloomSettings) (*libio.FloatImage, float32, error) {
	if f.Scene == nil {
		return nil, 0, fmt.Errorf("frame has no scene image")
	}
	if f.Source != ExtractBrightMask {
		return f.Scene, settings.Threshold, nil
	}
	if f.Bright == nil {
		return nil, 0, fmt.Errorf("extract source %s needs a bright image", f.Source)
	}
	if f.Bright.Width != f.Scene.Width || f.Bright.Height != f.Scene.Height {
		return nil, 0, fmt.Errorf("bright image is %dx%d, scene is %dx%d", f.Bright.Width, f.Bright.Height, f.Scene.Width, f.Scene.Height)
	}
	return f.Bright, 0, nil
}
