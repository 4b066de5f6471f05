package donuts

import (
	"github.com/gekko3d/donuts/render/core"
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent is the world-space transform of an entity.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// LocalTransformComponent is the transform relative to the Parent entity.
type LocalTransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

type Parent struct {
	Entity EntityId
}

func IdentityTransform() TransformComponent {
	return TransformComponent{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t TransformComponent) Matrix() mgl32.Mat4 {
	return core.TRS(t.Position, t.Rotation, t.Scale)
}

type HierarchyModule struct{}

func (HierarchyModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(TransformHierarchySystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

const maxHierarchyPasses = 8

// TransformHierarchySystem keeps roots' local transforms in sync with their
// world transform and propagates world transforms down to children.
func TransformHierarchySystem(cmd *Commands) {
	MakeQuery3[LocalTransformComponent, TransformComponent, Parent](cmd).Map(func(eid EntityId, local *LocalTransformComponent, tr *TransformComponent, parent *Parent) bool {
		if parent != nil {
			return true
		}
		local.Position = tr.Position
		local.Rotation = tr.Rotation
		local.Scale = tr.Scale
		return true
	}, Parent{})

	// Each pass settles one more level of depth.
	for pass := 0; pass < maxHierarchyPasses; pass++ {
		changed := false
		MakeQuery3[LocalTransformComponent, Parent, TransformComponent](cmd).Map(func(eid EntityId, local *LocalTransformComponent, parent *Parent, world *TransformComponent) bool {
			parentWorld := GetComponent[TransformComponent](cmd, parent.Entity)
			if parentWorld == nil {
				return true
			}

			next := composeTransforms(*parentWorld, *local)
			if next != *world {
				*world = next
				changed = true
			}
			return true
		})
		if !changed {
			break
		}
	}
}

// composeTransforms applies local in the space of parent, keeping
// per-axis scale signs instead of decomposing a matrix.
func composeTransforms(parent TransformComponent, local LocalTransformComponent) TransformComponent {
	scaledLocalPos := mgl32.Vec3{
		local.Position.X() * parent.Scale.X(),
		local.Position.Y() * parent.Scale.Y(),
		local.Position.Z() * parent.Scale.Z(),
	}
	return TransformComponent{
		Position: parent.Position.Add(parent.Rotation.Rotate(scaledLocalPos)),
		Rotation: parent.Rotation.Mul(local.Rotation).Normalize(),
		Scale: mgl32.Vec3{
			parent.Scale.X() * local.Scale.X(),
			parent.Scale.Y() * local.Scale.Y(),
			parent.Scale.Z() * local.Scale.Z(),
		},
	}
}
