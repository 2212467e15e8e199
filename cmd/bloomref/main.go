// Command bloomref runs the bloom post process on a captured frame without a
// window, either on the CPU or with OpenCL.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"oreglow/effects"
	"oreglow/libio"
)

var args = struct {
	backend   string
	device    string
	bright    string
	source    string
	threshold float64
	intensity float64
	passes    int
	gamma     float64
	raw       string
}{
	backend:   "sw",
	device:    "gpu",
	source:    "scene",
	threshold: float64(effects.DefaultBloomSettings().Threshold),
	intensity: float64(effects.DefaultBloomSettings().Intensity),
	passes:    effects.DefaultBloomSettings().Passes,
	gamma:     1,
}

func printGeneralUsage() {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s [arguments] <scene.f32|scene.png> <out.png>\n\n", exe)
	fmt.Fprintf(os.Stderr, "The arguments are:\n\n")
	flag.CommandLine.SetOutput(os.Stderr)
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	flag.StringVar(&args.backend, "backend", args.backend, "sw or cl")
	flag.StringVar(&args.device, "device", args.device, "preferred OpenCL device: gpu, cpu or accelerator")
	flag.StringVar(&args.bright, "bright", args.bright, "bright mask image, required for -source mask")
	flag.StringVar(&args.source, "source", args.source, "extract source: scene or mask")
	flag.Float64Var(&args.threshold, "threshold", args.threshold, "luminance threshold")
	flag.Float64Var(&args.intensity, "intensity", args.intensity, "bloom intensity")
	flag.IntVar(&args.passes, "passes", args.passes, "blur passes")
	flag.Float64Var(&args.gamma, "gamma", args.gamma, "gamma applied before clamping to 8 bit")
	flag.StringVar(&args.raw, "raw", args.raw, "also write the unclamped result as .f32")
	flag.Parse()

	if flag.NArg() != 2 {
		printGeneralUsage()
	}

	source, err := effects.ParseExtractSource(args.source)
	harderr(err)

	frame := effects.Frame{Source: source}
	frame.Scene, err = loadImage(flag.Arg(0))
	harderr(err)
	if args.bright != "" {
		frame.Bright, err = loadImage(args.bright)
		harderr(err)
	}

	proc, err := newProcessor(args.backend, args.device)
	harderr(err)
	defer proc.Release()

	settings := effects.BloomSettings{
		Threshold: float32(args.threshold),
		Intensity: float32(args.intensity),
		Passes:    args.passes,
	}
	start := time.Now()
	out, err := proc.Process(frame, settings)
	harderr(err)
	slog.Info("bloom applied", "backend", args.backend, "width", out.Width, "height", out.Height,
		"passes", settings.Passes, "took", time.Since(start), "avg_brightness", out.AverageBrightness())

	harderr(savePng(flag.Arg(1), out, float32(args.gamma)))
	if args.raw != "" {
		harderr(saveFloatImage(args.raw, out))
	}
}

func newProcessor(backend, device string) (effects.Processor, error) {
	switch backend {
	case "sw":
		return effects.NewSwProcessor(), nil
	case "cl":
		deviceType, err := parseDeviceType(device)
		if err != nil {
			return nil, err
		}
		return effects.NewClProcessor(deviceType)
	}
	return nil, fmt.Errorf("unknown backend %q, expected sw or cl", backend)
}

func parseDeviceType(s string) (effects.DeviceType, error) {
	switch strings.ToLower(s) {
	case "gpu":
		return effects.DeviceTypeGPU, nil
	case "cpu":
		return effects.DeviceTypeCPU, nil
	case "accelerator":
		return effects.DeviceTypeAccelerator, nil
	}
	return 0, fmt.Errorf("unknown device type %q", s)
}

// loadImage reads a float capture or any decodable 8 bit image.
func loadImage(path string) (*libio.FloatImage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".f32") {
		img, err := libio.DecodeFloatImage(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return img, nil
	}

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return libio.FromImage(img), nil
}

func savePng(path string, img *libio.FloatImage, gamma float32) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img.ToRGBA(gamma))
}

func saveFloatImage(path string, img *libio.FloatImage) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	defer file.Close()
	return libio.EncodeFloatImage(file, img, libio.CompressionFixedPoint16Lz4)
}

func harderr(err error) {
	if err != nil {
		slog.Error("bloomref", "err", err)
		os.Exit(1)
	}
}
