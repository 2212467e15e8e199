package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderSourcePrefersDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ore.frag"), []byte("override"), 0o644))

	src := ShaderSource{Dir: dir}
	got, err := src.Read("ore.frag")
	require.NoError(t, err)
	assert.Equal(t, "override", got)

	got, err = src.Read("ore.vert")
	require.NoError(t, err)
	assert.Contains(t, got, "//meta:name ore_vs")
}

func TestShaderSourceEmbedded(t *testing.T) {
	for _, name := range []string{"ore", "basic", "imgui"} {
		for _, ext := range []string{".vert", ".frag"} {
			got, err := ShaderSource{}.Read(name + ext)
			require.NoError(t, err, name+ext)
			assert.Contains(t, got, "#version 450 core")
		}
	}

	_, err := ShaderSource{}.Read("missing.frag")
	assert.Error(t, err)
}
