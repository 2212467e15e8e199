package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"oreglow/effects"
	"oreglow/libutil"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

const maxBlurPasses = 20

type Config struct {
	Window WindowConfig `toml:"window"`
	Log    LogConfig    `toml:"log"`
	Bloom  BloomConfig  `toml:"bloom"`
	Scene  SceneConfig  `toml:"scene"`
	Ores   []OreConfig  `toml:"ore"`
}

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
}

type LogConfig struct {
	// debug, info, warn or error
	Level string `toml:"level"`
}

type BloomConfig struct {
	Enabled   bool    `toml:"enabled"`
	Threshold float32 `toml:"threshold"`
	Intensity float32 `toml:"intensity"`
	Passes    int     `toml:"passes"`
	// window height the blur radius is tuned for, 0 for a fixed texel radius
	ReferenceHeight int `toml:"reference_height"`
	// scene or mask
	Extract string `toml:"extract"`
}

type SceneConfig struct {
	Ambient        float32    `toml:"ambient"`
	ClearColor     [3]float32 `toml:"clear_color"`
	CameraPosition [3]float32 `toml:"camera_position"`
	// vertical, in degrees
	Fov           float32    `toml:"fov"`
	Near          float32    `toml:"near"`
	Far           float32    `toml:"far"`
	RotationSpeed float32    `toml:"rotation_speed"`
	RotationAxis  [3]float32 `toml:"rotation_axis"`
	ShaderDir     string     `toml:"shader_dir"`
	TextureCache  int        `toml:"texture_cache"`
}

type OreConfig struct {
	Name     string     `toml:"name"`
	Color    [3]float32 `toml:"color"`
	Glow     float32    `toml:"glow"`
	Diffuse  string     `toml:"diffuse"`
	Emissive string     `toml:"emissive"`
}

func DefaultConfig() Config {
	bloom := effects.DefaultBloomSettings()
	return Config{
		Window: WindowConfig{Width: 800, Height: 600, Title: "Glowing Ores", VSync: true},
		Log:    LogConfig{Level: "info"},
		Bloom: BloomConfig{
			Enabled:         true,
			Threshold:       bloom.Threshold,
			Intensity:       bloom.Intensity,
			Passes:          bloom.Passes,
			ReferenceHeight: 600,
			Extract:         effects.ExtractSceneColor.String(),
		},
		Scene: SceneConfig{
			Ambient:        0.5,
			ClearColor:     [3]float32{0.1, 0.1, 0.1},
			CameraPosition: [3]float32{0, 0, 3},
			Fov:            45,
			Near:           0.1,
			Far:            100,
			RotationSpeed:  0.5,
			RotationAxis:   [3]float32{0.5, 1, 0},
			ShaderDir:      "assets/shaders",
			TextureCache:   32,
		},
		Ores: []OreConfig{
			{Name: "Diamond", Color: [3]float32{0, 0.8, 1}, Glow: 2.0,
				Diffuse: "textures/diamond/diffuse.png", Emissive: "textures/diamond/emissive.png"},
			{Name: "Emerald", Color: [3]float32{0, 0.8, 0.2}, Glow: 1.8,
				Diffuse: "textures/emerald/diffuse.png", Emissive: "textures/emerald/emissive.png"},
			{Name: "Redstone", Color: [3]float32{0.9, 0.1, 0.1}, Glow: 2.5,
				Diffuse: "textures/redstone/diffuse.png", Emissive: "textures/redstone/emissive.png"},
		},
	}
}

// LoadConfig reads a TOML file over the defaults. A missing file yields the
// defaults. Out of range values are clamped.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("config file not found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	cfg, err = ParseConfig(data)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	defaultOres := cfg.Ores
	cfg.Ores = nil

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return DefaultConfig(), fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return DefaultConfig(), err
	}
	if len(cfg.Ores) == 0 {
		cfg.Ores = defaultOres
	}
	if err := cfg.validate(); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if _, err := cfg.LogLevel(); err != nil {
		return err
	}
	if _, err := effects.ParseExtractSource(cfg.Bloom.Extract); err != nil {
		return err
	}
	if cfg.Scene.Near <= 0 || cfg.Scene.Far <= cfg.Scene.Near {
		return fmt.Errorf("invalid clipping planes %v..%v", cfg.Scene.Near, cfg.Scene.Far)
	}
	if mgl32.Vec3(cfg.Scene.RotationAxis).Len() == 0 {
		return errors.New("rotation axis must not be zero")
	}
	if cfg.Scene.TextureCache < MapsPerOre {
		return fmt.Errorf("texture cache size %d cannot hold the %d maps of one ore", cfg.Scene.TextureCache, MapsPerOre)
	}
	for i, ore := range cfg.Ores {
		if ore.Name == "" {
			return fmt.Errorf("ore %d has no name", i)
		}
	}

	cfg.Bloom.Threshold = libutil.Clamp(cfg.Bloom.Threshold, 0, 1)
	cfg.Bloom.Intensity = libutil.Clamp(cfg.Bloom.Intensity, 0, 3)
	cfg.Bloom.Passes = libutil.Clamp(cfg.Bloom.Passes, 0, maxBlurPasses)
	cfg.Bloom.ReferenceHeight = max(cfg.Bloom.ReferenceHeight, 0)
	cfg.Scene.Ambient = libutil.Clamp(cfg.Scene.Ambient, 0, 1)
	cfg.Scene.Fov = libutil.Clamp(cfg.Scene.Fov, 1, 179)
	return nil
}

func (cfg *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// BloomSettings converts the bloom section. The config must be validated.
func (cfg *Config) BloomSettings() (effects.BloomSettings, effects.ExtractSource) {
	source, _ := effects.ParseExtractSource(cfg.Bloom.Extract)
	return effects.BloomSettings{
		Threshold:       cfg.Bloom.Threshold,
		Intensity:       cfg.Bloom.Intensity,
		Passes:          cfg.Bloom.Passes,
		ReferenceHeight: cfg.Bloom.ReferenceHeight,
	}, source
}
