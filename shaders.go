package main

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"oreglow/libgl"
)

//go:embed assets/shaders/*.vert assets/shaders/*.frag
var embeddedShaders embed.FS

// ShaderSource reads shader files from a directory on disk, falling back to
// the copies built into the binary.
type ShaderSource struct {
	Dir string
}

func (src ShaderSource) Read(name string) (string, error) {
	if src.Dir != "" {
		data, err := os.ReadFile(filepath.Join(src.Dir, name))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read shader %s: %w", name, err)
		}
	}
	data, err := embeddedShaders.ReadFile(path.Join("assets/shaders", name))
	if err != nil {
		return "", fmt.Errorf("read shader %s: %w", name, err)
	}
	return string(data), nil
}

// Pipeline builds <name>.vert and <name>.frag.
func (src ShaderSource) Pipeline(name string) (libgl.UnboundShaderPipeline, error) {
	vsh, err := src.Read(name + ".vert")
	if err != nil {
		return nil, err
	}
	fsh, err := src.Read(name + ".frag")
	if err != nil {
		return nil, err
	}
	pipeline, err := libgl.NewShaderPipeline(vsh, fsh)
	if err != nil {
		return nil, err
	}
	pipeline.SetDebugLabel(name)
	return pipeline, nil
}
