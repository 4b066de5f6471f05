package donuts

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/gekko3d/donuts/render/core"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrNegativeCount = errors.New("instance count must not be negative")
	ErrAlreadyFilled = errors.New("instance pool already filled")
)

// InstanceParams is the instance count last requested from the control panel.
type InstanceParams struct {
	DesiredCount int
}

// InstanceSampler draws random instance transforms. Positions fall in
// [-Spread/2, Spread/2] per axis, X and Y rotations in [0, π], and a single
// scale in [0, 1) is shared by all three axes.
type InstanceSampler struct {
	Spread float32
	rng    *rand.Rand
}

// NewInstanceSampler seeds the sampler; seed 0 draws a random seed.
func NewInstanceSampler(spread float32, seed uint64) *InstanceSampler {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &InstanceSampler{
		Spread: spread,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

type instanceDraw struct {
	Position   mgl32.Vec3
	RotX, RotY float32
	Scale      float32
}

func (s *InstanceSampler) draw() instanceDraw {
	r := func() float32 { return s.rng.Float32() }
	return instanceDraw{
		Position: mgl32.Vec3{
			(r() - 0.5) * s.Spread,
			(r() - 0.5) * s.Spread,
			(r() - 0.5) * s.Spread,
		},
		RotX:  r() * math.Pi,
		RotY:  r() * math.Pi,
		Scale: r(),
	}
}

func (s *InstanceSampler) Sample() LocalTransformComponent {
	d := s.draw()
	return LocalTransformComponent{
		Position: d.Position,
		Rotation: core.EulerXYZ(d.RotX, d.RotY, 0),
		Scale:    mgl32.Vec3{d.Scale, d.Scale, d.Scale},
	}
}

// InstancePool owns one group entity and the ordered instances under it.
type InstancePool struct {
	Sampler *InstanceSampler

	group   EntityId
	grouped bool
	members []EntityId
	scene   *SceneGraph
}

func NewInstancePool(scene *SceneGraph, sampler *InstanceSampler) *InstancePool {
	return &InstancePool{scene: scene, Sampler: sampler}
}

// InitialFill creates the group entity and fills it with count instances.
func (p *InstancePool) InitialFill(cmd *Commands, count int, mesh AssetId, material *MatcapMaterial) error {
	if p.grouped {
		return ErrAlreadyFilled
	}
	if count < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCount, count)
	}

	tr := IdentityTransform()
	p.group = cmd.AddEntity(
		&GroupComponent{Name: "instances"},
		&tr,
		&LocalTransformComponent{Rotation: tr.Rotation, Scale: tr.Scale},
	)
	p.grouped = true
	return p.Regenerate(cmd, count, mesh, material)
}

// Regenerate replaces every instance with count freshly sampled ones. The old
// instances are removed one by one before any new one is created, and the
// group is attached to the scene if it isn't already.
func (p *InstancePool) Regenerate(cmd *Commands, count int, mesh AssetId, material *MatcapMaterial) error {
	if count < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCount, count)
	}
	if !p.grouped {
		return p.InitialFill(cmd, count, mesh, material)
	}
	start := time.Now()

	for len(p.members) > 0 {
		last := len(p.members) - 1
		cmd.RemoveEntity(p.members[last])
		p.members = p.members[:last]
	}

	p.members = slices.Grow(p.members, count)
	for i := 0; i < count; i++ {
		local := p.Sampler.Sample()
		world := TransformComponent(local)
		eid := cmd.AddEntity(
			&Parent{Entity: p.group},
			&local,
			&world,
			&MeshComponent{Mesh: mesh},
			&MaterialComponent{Material: material},
		)
		p.members = append(p.members, eid)
	}

	p.scene.Attach(p.group)
	cmd.Logger().Debugf("instances: regenerated %d in %s", count, time.Since(start))
	return nil
}

func (p *InstancePool) Len() int {
	return len(p.members)
}

// Members returns the instances in creation order.
func (p *InstancePool) Members() []EntityId {
	return slices.Clone(p.members)
}

// Group returns the group entity; ok is false before InitialFill.
func (p *InstancePool) Group() (EntityId, bool) {
	return p.group, p.grouped
}

func (p *InstancePool) Attached() bool {
	return p.grouped && p.scene.Attached(p.group)
}

// InstancePoolModule installs the pool and its parameters. It needs the
// SceneGraph resource, so SceneGraphModule must be installed first.
type InstancePoolModule struct {
	Spread float32
	Seed   uint64
}

func (m InstancePoolModule) Install(app *App, cmd *Commands) {
	scene := Resource[SceneGraph](app)
	if scene == nil {
		panic("InstancePoolModule requires SceneGraphModule")
	}
	cmd.AddResources(
		NewInstancePool(scene, NewInstanceSampler(m.Spread, m.Seed)),
		&InstanceParams{},
	)
}
