package main

import (
	"bufio"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"oreglow/libgl"
	"oreglow/libio"

	"github.com/go-gl/gl/v4.5-core/gl"
)

// CaptureNames returns the file names of one capture taken at t.
func CaptureNames(dir string, t time.Time) (scene, bright, screen string) {
	stamp := t.Format("20060102-150405.000")
	return filepath.Join(dir, "scene-"+stamp+".f32"),
		filepath.Join(dir, "bright-"+stamp+".f32"),
		filepath.Join(dir, "screen-"+stamp+".png")
}

// ReadTexture copies an RGBA float texture into a new image.
func ReadTexture(tex libgl.UnboundTexture) *libio.FloatImage {
	img := libio.NewFloatImage(nil, tex.Width(), tex.Height())
	tex.Read(gl.RGBA, img.Pix)
	return img
}

// ReadScreen reads the default framebuffer's back buffer as floats.
func ReadScreen(width, height int) *libio.FloatImage {
	img := libio.NewFloatImage(nil, width, height)
	libgl.State.BindReadFramebuffer(libgl.DefaultFramebuffer)
	gl.ReadBuffer(gl.BACK)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.FLOAT, img.Pointer())
	return img
}

func WriteFloatImage(path string, img *libio.FloatImage) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if err := libio.EncodeFloatImage(w, img, libio.CompressionFixedPoint16Lz4); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return w.Flush()
}

func WritePng(path string, img *libio.FloatImage) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := png.Encode(f, img.ToRGBA(1)); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// CaptureFrame writes the HDR scene and bright attachments plus the window
// contents into dir.
func CaptureFrame(dir string, scene, bright *libio.FloatImage, screen *libio.FloatImage) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("capture dir: %w", err)
	}
	scenePath, brightPath, screenPath := CaptureNames(dir, time.Now())
	if err := WriteFloatImage(scenePath, scene); err != nil {
		return err
	}
	if err := WriteFloatImage(brightPath, bright); err != nil {
		return err
	}
	if screen != nil {
		if err := WritePng(screenPath, screen); err != nil {
			return err
		}
	}
	slog.Info("frame captured", "scene", scenePath, "bright", brightPath, "screen", screenPath,
		"avg_brightness", scene.AverageBrightness())
	return nil
}
