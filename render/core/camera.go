package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// clipZFix maps OpenGL clip depth [-1, 1] to the [0, 1] range WebGPU expects.
var clipZFix = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

type PerspectiveCamera struct {
	Fov      float32 // vertical field of view in degrees
	Aspect   float32
	Near     float32
	Far      float32
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
}

func NewPerspectiveCamera(fov, aspect, near, far float32) *PerspectiveCamera {
	return &PerspectiveCamera{
		Fov:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     mgl32.Vec3{0, 1, 0},
	}
}

func (c *PerspectiveCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *PerspectiveCamera) Projection() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	return clipZFix.Mul4(mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far))
}

func (c *PerspectiveCamera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// SetViewport updates the aspect ratio; zero sizes are ignored.
func (c *PerspectiveCamera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}
