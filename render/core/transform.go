package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() *Transform {
	return &Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// ObjectToWorld returns M = T * R * S.
func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	return TRS(t.Position, t.Rotation, t.Scale)
}

// WorldToObject inverts the components individually: inv(S) * inv(R) * inv(T).
func (t *Transform) WorldToObject() mgl32.Mat4 {
	invScale := mgl32.Scale3D(1.0/t.Scale.X(), 1.0/t.Scale.Y(), 1.0/t.Scale.Z())
	invRotate := t.Rotation.Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

func TRS(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	translate := mgl32.Translate3D(position.X(), position.Y(), position.Z())
	rotate := rotation.Mat4()
	scaleM := mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())

	return translate.Mul4(rotate).Mul4(scaleM)
}

// EulerXYZ builds a rotation from intrinsic X, then Y, then Z angles in radians.
func EulerXYZ(x, y, z float32) mgl32.Quat {
	return mgl32.AnglesToQuat(x, y, z, mgl32.XYZ)
}
