package main

import "github.com/go-gl/mathgl/mgl32"

type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	// in degrees
	VerticalFov       float32
	ViewportDimension mgl32.Vec2
	ClippingPlanes    mgl32.Vec2
	ViewMatrix        mgl32.Mat4
	ProjectionMatrix  mgl32.Mat4
}

func NewCamera(cfg SceneConfig, width, height int) *Camera {
	cam := &Camera{
		Position:          cfg.CameraPosition,
		VerticalFov:       cfg.Fov,
		ViewportDimension: mgl32.Vec2{float32(width), float32(height)},
		ClippingPlanes:    mgl32.Vec2{cfg.Near, cfg.Far},
	}
	cam.UpdateViewMatrix()
	cam.UpdateProjectionMatrix()
	return cam
}

func (cam *Camera) UpdateViewMatrix() {
	cam.ViewMatrix = mgl32.LookAtV(cam.Position, cam.Target, mgl32.Vec3{0, 1, 0})
}

func (cam *Camera) UpdateProjectionMatrix() {
	w, h := cam.ViewportDimension[0], cam.ViewportDimension[1]
	if w <= 0 || h <= 0 {
		return
	}
	n, f := cam.ClippingPlanes[0], cam.ClippingPlanes[1]
	cam.ProjectionMatrix = mgl32.Perspective(mgl32.DegToRad(cam.VerticalFov), w/h, n, f)
}

// Resize keeps the previous projection when the window is minimized.
func (cam *Camera) Resize(width, height int) {
	cam.ViewportDimension = mgl32.Vec2{float32(width), float32(height)}
	cam.UpdateProjectionMatrix()
}
