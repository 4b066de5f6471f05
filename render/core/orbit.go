package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// OrbitControls rotates a camera around its target. Input accumulates into
// pending deltas that Update applies and, with damping, decays over frames.
type OrbitControls struct {
	EnableDamping bool
	DampingFactor float32
	RotateSpeed   float32
	ZoomSpeed     float32
	MinDistance   float32
	MaxDistance   float32

	deltaTheta float32
	deltaPhi   float32
	zoomScale  float32
}

func NewOrbitControls() *OrbitControls {
	return &OrbitControls{
		EnableDamping: true,
		DampingFactor: 0.05,
		RotateSpeed:   1,
		ZoomSpeed:     1,
		MinDistance:   0,
		MaxDistance:   math32.Inf(1),
		zoomScale:     1,
	}
}

// Rotate queues a rotation in radians: dx around the up axis, dy towards the poles.
func (o *OrbitControls) Rotate(dx, dy float32) {
	o.deltaTheta -= dx * o.RotateSpeed
	o.deltaPhi -= dy * o.RotateSpeed
}

// Zoom queues a dolly step. Positive steps move the camera closer.
func (o *OrbitControls) Zoom(steps float32) {
	o.zoomScale *= math32.Pow(0.95, steps*o.ZoomSpeed)
}

// Moving reports whether pending motion remains.
func (o *OrbitControls) Moving() bool {
	const eps = 1e-6
	return math32.Abs(o.deltaTheta) > eps || math32.Abs(o.deltaPhi) > eps || math32.Abs(o.zoomScale-1) > eps
}

// Update applies pending motion to cam and reports whether the camera moved.
func (o *OrbitControls) Update(cam *PerspectiveCamera) bool {
	offset := cam.Position.Sub(cam.Target)
	radius := offset.Len()
	if radius == 0 {
		return false
	}

	// Spherical coordinates around +y.
	theta := math32.Atan2(offset.X(), offset.Z())
	phi := math32.Acos(mgl32.Clamp(offset.Y()/radius, -1, 1))

	factor := float32(1)
	if o.EnableDamping {
		factor = o.DampingFactor
	}
	theta += o.deltaTheta * factor
	phi += o.deltaPhi * factor

	const epsPhi = 1e-6
	phi = mgl32.Clamp(phi, epsPhi, math32.Pi-epsPhi)
	radius = mgl32.Clamp(radius*o.zoomScale, o.MinDistance, o.MaxDistance)

	sinPhi := math32.Sin(phi)
	next := mgl32.Vec3{
		radius * sinPhi * math32.Sin(theta),
		radius * math32.Cos(phi),
		radius * sinPhi * math32.Cos(theta),
	}
	moved := next.Sub(offset).Len() > 1e-6
	cam.Position = cam.Target.Add(next)

	if o.EnableDamping {
		o.deltaTheta *= 1 - o.DampingFactor
		o.deltaPhi *= 1 - o.DampingFactor
	} else {
		o.deltaTheta, o.deltaPhi = 0, 0
	}
	o.zoomScale = 1
	return moved
}
