package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"oreglow/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// position, normal, uv
const cubeVertexStride = 8

var cubeFaces = [6][3]mgl32.Vec3{
	// normal, u, v with u × v = normal
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

var quadCorners = [6][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 0}, {1, 1}, {0, 1}}

// CubeVertices builds a unit cube centered at the origin with counter
// clockwise front faces.
func CubeVertices() []float32 {
	verts := make([]float32, 0, len(cubeFaces)*len(quadCorners)*cubeVertexStride)
	for _, face := range cubeFaces {
		n, u, v := face[0], face[1], face[2]
		for _, st := range quadCorners {
			p := n.Mul(0.5).Add(u.Mul(st[0] - 0.5)).Add(v.Mul(st[1] - 0.5))
			verts = append(verts, p[0], p[1], p[2], n[0], n[1], n[2], st[0], st[1])
		}
	}
	return verts
}

// OreScene draws the rotating ore block into whatever framebuffer is bound.
type OreScene struct {
	Camera        *Camera
	RotationAxis  mgl32.Vec3
	RotationSpeed float32

	shaders    ShaderSource
	shader     libgl.UnboundShaderPipeline
	shaderName string
	vbo        libgl.UnboundBuffer
	vao        libgl.UnboundVertexArray
	sampler    libgl.UnboundSampler
	textures   *OreTextures
}

// NewOreScene builds the ore shader, falling back to the basic one when it
// fails. Only a failure of both is returned.
func NewOreScene(cfg SceneConfig, cam *Camera, shaders ShaderSource) (*OreScene, error) {
	scene := &OreScene{
		Camera:        cam,
		RotationAxis:  mgl32.Vec3(cfg.RotationAxis).Normalize(),
		RotationSpeed: cfg.RotationSpeed,
		shaders:       shaders,
	}

	var err error
	scene.shader, err = shaders.Pipeline("ore")
	scene.shaderName = "ore"
	if err != nil {
		slog.Error("ore shader failed, falling back to basic", "err", err)
		var fallbackErr error
		scene.shader, fallbackErr = shaders.Pipeline("basic")
		scene.shaderName = "basic"
		if fallbackErr != nil {
			return nil, fmt.Errorf("no usable scene shader: %w", errors.Join(err, fallbackErr))
		}
	}
	slog.Info("scene shader ready", "shader", scene.shaderName)

	scene.textures, err = NewOreTextures(cfg.TextureCache)
	if err != nil {
		scene.shader.Delete()
		return nil, err
	}

	vertices := CubeVertices()
	scene.vbo = libgl.NewBuffer()
	scene.vbo.SetDebugLabel("cube")
	scene.vbo.Allocate(vertices, 0)

	scene.vao = libgl.NewVertexArray()
	scene.vao.SetDebugLabel("cube")
	scene.vao.Layout(0, 0, 3, gl.FLOAT, false, 0)
	scene.vao.Layout(0, 1, 3, gl.FLOAT, false, 3*4)
	scene.vao.Layout(0, 2, 2, gl.FLOAT, false, 6*4)
	scene.vao.BindBuffer(0, scene.vbo, 0, cubeVertexStride*4)

	scene.sampler = libgl.NewSampler()
	scene.sampler.SetDebugLabel("ore")
	scene.sampler.FilterMode(gl.NEAREST, gl.NEAREST)
	scene.sampler.WrapMode(gl.REPEAT, gl.REPEAT)

	return scene, nil
}

func (scene *OreScene) ShaderName() string {
	return scene.shaderName
}

// Uses reports whether file is one of the active shader's sources.
func (scene *OreScene) Uses(file string) bool {
	return file == scene.shaderName+".vert" || file == scene.shaderName+".frag"
}

// ReloadShader rebuilds the stage stored in file. On failure the previous
// program keeps running.
func (scene *OreScene) ReloadShader(file string) error {
	if !scene.Uses(file) {
		return fmt.Errorf("%s is not a source of the %s shader", file, scene.shaderName)
	}
	src, err := scene.shaders.Read(file)
	if err != nil {
		return err
	}
	stage := uint32(gl.FRAGMENT_SHADER)
	if filepath.Ext(file) == ".vert" {
		stage = gl.VERTEX_SHADER
	}
	return scene.shader.Rebuild(stage, src)
}

func (scene *OreScene) ModelMatrix(time float64) mgl32.Mat4 {
	return mgl32.HomogRotate3D(float32(time)*scene.RotationSpeed, scene.RotationAxis)
}

func (scene *OreScene) Draw(ore *Ore, ambient float32, time float64) {
	defer libgl.PushDebugGroup("Ore scene")()

	libgl.State.SetEnabled(libgl.DepthTest, libgl.CullFace)
	libgl.State.CullBack()
	libgl.State.DepthFunc(libgl.DepthFuncLess)
	libgl.State.DepthMask(true)

	scene.shader.Bind()
	vs := scene.shader.VertexStage()
	vs.SetUniform("u_model", scene.ModelMatrix(time))
	vs.SetUniform("u_view", scene.Camera.ViewMatrix)
	vs.SetUniform("u_projection", scene.Camera.ProjectionMatrix)

	fs := scene.shader.FragmentStage()
	if scene.shaderName == "ore" {
		fs.SetUniform("u_view_position", scene.Camera.Position)
		fs.SetUniform("u_ambient", ambient)
		fs.SetUniform("u_ore_color", ore.Color)
		fs.SetUniform("u_glow_strength", ore.GlowStrength)
	}

	scene.sampler.Bind(0)
	scene.textures.Get(ore, DiffuseMap).Bind(0)
	scene.sampler.Bind(1)
	scene.textures.Get(ore, EmissiveMap).Bind(1)

	scene.vao.Bind()
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(cubeFaces)*len(quadCorners)))
}

func (scene *OreScene) Delete() {
	scene.textures.Release()
	scene.sampler.Delete()
	scene.vao.Delete()
	scene.vbo.Delete()
	scene.shader.Delete()
}
