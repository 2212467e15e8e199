package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubeVertices(t *testing.T) {
	verts := CubeVertices()
	require.Len(t, verts, 36*cubeVertexStride)

	vertex := func(i int) (pos, normal mgl32.Vec3, uv mgl32.Vec2) {
		v := verts[i*cubeVertexStride:]
		return mgl32.Vec3{v[0], v[1], v[2]}, mgl32.Vec3{v[3], v[4], v[5]}, mgl32.Vec2{v[6], v[7]}
	}

	normals := map[mgl32.Vec3]int{}
	for tri := range 12 {
		a, n, _ := vertex(tri * 3)
		b, _, _ := vertex(tri*3 + 1)
		c, _, _ := vertex(tri*3 + 2)
		normals[n]++

		// counter clockwise seen from outside
		face := b.Sub(a).Cross(c.Sub(a))
		assert.Greater(t, face.Dot(n), float32(0), "triangle %d", tri)
	}
	assert.Len(t, normals, 6)
	for n, count := range normals {
		assert.Equal(t, 2, count, "normal %v", n)
	}

	for i := range 36 {
		pos, n, uv := vertex(i)
		for axis := range 3 {
			assert.InDelta(t, 0.5, abs(pos[axis]), 1e-6)
		}
		// every vertex lies on the face its normal points at
		assert.InDelta(t, 0.5, pos.Dot(n), 1e-6)
		assert.Contains(t, []float32{0, 1}, uv[0])
		assert.Contains(t, []float32{0, 1}, uv[1])
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestOreSceneModelMatrix(t *testing.T) {
	scene := &OreScene{RotationAxis: mgl32.Vec3{0.5, 1, 0}.Normalize(), RotationSpeed: 0.5}
	assert.True(t, scene.ModelMatrix(0).ApproxEqual(mgl32.Ident4()))

	// rotating about the axis leaves the axis in place
	m := scene.ModelMatrix(3)
	axis := m.Mul4x1(scene.RotationAxis.Vec4(0)).Vec3()
	assert.True(t, axis.ApproxEqualThreshold(scene.RotationAxis, 1e-5))
	assert.False(t, m.ApproxEqual(mgl32.Ident4()))
}

func TestOreSceneUses(t *testing.T) {
	scene := &OreScene{shaderName: "ore"}
	assert.True(t, scene.Uses("ore.frag"))
	assert.True(t, scene.Uses("ore.vert"))
	assert.False(t, scene.Uses("basic.frag"))
	assert.False(t, scene.Uses("imgui.vert"))
	assert.Error(t, scene.ReloadShader("basic.frag"))
}
