package main

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"

	"oreglow/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	lru "github.com/hashicorp/golang-lru/v2"
)

type textureKey struct {
	ore  string
	kind TextureKind
}

// OreTextures uploads ore maps on first use and keeps the most recent ones
// on the GPU. Evicted textures are deleted.
type OreTextures struct {
	cache *lru.Cache[textureKey, libgl.UnboundTexture]
}

// NewOreTextures needs room for at least one ore's maps, otherwise binding
// the second map would delete the first.
func NewOreTextures(size int) (*OreTextures, error) {
	if size < MapsPerOre {
		return nil, fmt.Errorf("ore texture cache: size %d is below %d", size, MapsPerOre)
	}
	cache, err := lru.NewWithEvict[textureKey, libgl.UnboundTexture](size, deleteTextureOnEviction)
	if err != nil {
		return nil, fmt.Errorf("ore texture cache: %w", err)
	}
	return &OreTextures{cache: cache}, nil
}

func deleteTextureOnEviction(key textureKey, tex libgl.UnboundTexture) {
	slog.Debug("evicting ore texture", "ore", key.ore, "kind", key.kind)
	tex.Delete()
}

func (t *OreTextures) Get(ore *Ore, kind TextureKind) libgl.UnboundTexture {
	key := textureKey{ore: ore.Name, kind: kind}
	if tex, ok := t.cache.Get(key); ok {
		return tex
	}
	tex := uploadOreImage(oreImage(ore, kind), fmt.Sprintf("%s %s", ore.Name, kind))
	t.cache.Add(key, tex)
	return tex
}

// Release deletes every cached texture.
func (t *OreTextures) Release() {
	t.cache.Purge()
}

func oreImage(ore *Ore, kind TextureKind) *image.NRGBA {
	if path := ore.path(kind); path != "" {
		img, err := LoadOreImage(path)
		if err == nil {
			slog.Debug("loaded ore texture", "ore", ore.Name, "kind", kind, "path", path)
			return img
		}
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("ore texture missing, generating one", "ore", ore.Name, "kind", kind, "path", path)
		} else {
			slog.Error("ore texture failed to load, generating one", "ore", ore.Name, "kind", kind, "err", err)
		}
	}
	diffuse, emissive := ProceduralOreImages(ore.Name, ore.Color)
	if kind == EmissiveMap {
		return emissive
	}
	return diffuse
}

func uploadOreImage(img *image.NRGBA, label string) libgl.UnboundTexture {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	// GL rows start at the bottom
	rows := make([]byte, 0, w*h*4)
	for y := h - 1; y >= 0; y-- {
		rows = append(rows, img.Pix[y*img.Stride:y*img.Stride+w*4]...)
	}

	tex := libgl.NewTexture()
	tex.SetDebugLabel(label)
	tex.Allocate(1, gl.RGBA8, w, h)
	tex.Load(0, w, h, gl.RGBA, rows)
	tex.FilterMode(gl.NEAREST, gl.NEAREST)
	tex.WrapMode(gl.REPEAT, gl.REPEAT)
	return tex
}
