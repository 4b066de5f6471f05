package donuts

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEcs_MakeEcs(t *testing.T) {
	ecs := MakeEcs()

	assert.Empty(t, ecs.archetypes)
	assert.Empty(t, ecs.entityIndex)
	assert.Zero(t, ecs.entityIdCounter)
	assert.Zero(t, ecs.componentIdCounter)
}

func TestEcs_AddEntitySplitsArchetypes(t *testing.T) {
	ecs := MakeEcs()

	bare := ecs.addEntity()
	mesh := ecs.addEntity(MeshComponent{Mesh: "torus"})
	other := ecs.addEntity(&MeshComponent{Mesh: "text"})

	require.True(t, ecs.hasEntity(bare))
	require.True(t, ecs.hasEntity(mesh))
	assert.NotEqual(t, ecs.entityIndex[bare], ecs.entityIndex[mesh])
	assert.Equal(t, ecs.entityIndex[mesh], ecs.entityIndex[other], "value and pointer components share an archetype")
	assert.Equal(t, AssetId("text"), componentOf[MeshComponent](&ecs, other).Mesh)
}

func TestEcs_AddComponentsMovesEntity(t *testing.T) {
	ecs := MakeEcs()
	material := &MatcapMaterial{Key: "1"}

	eid := ecs.addEntity(MeshComponent{Mesh: "torus"})
	ecs.addComponents(eid, Parent{Entity: 7}, GroupComponent{Name: "g"})
	ecs.addComponents(eid, &MaterialComponent{Material: material})

	arch := ecs.archetypes[ecs.entityIndex[eid]]
	assert.Len(t, arch.componentData, 4)
	assert.Equal(t, AssetId("torus"), componentOf[MeshComponent](&ecs, eid).Mesh, "components survive the move")
	assert.Equal(t, EntityId(7), componentOf[Parent](&ecs, eid).Entity)
	assert.Same(t, material, componentOf[MaterialComponent](&ecs, eid).Material)

	// Unknown entities are ignored.
	ecs.addComponents(EntityId(999), Parent{})
	assert.False(t, ecs.hasEntity(999))
}

func TestEcs_InvalidComponentPanics(t *testing.T) {
	ecs := MakeEcs()
	assert.Panics(t, func() { ecs.addEntity(123) })
	assert.Panics(t, func() { ecs.addEntity(nil) })
}

func TestEcs_ComponentRegistration(t *testing.T) {
	ecs := MakeEcs()
	meshType := reflect.TypeFor[MeshComponent]()

	id1 := ecs.getComponentId(meshType)
	id2 := ecs.getComponentId(meshType)
	other := ecs.getComponentId(reflect.TypeFor[Parent]())

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, other)
	assert.Equal(t, meshType, ecs.getComponentType(id1))
	assert.Panics(t, func() { ecs.getComponentType(componentId(99)) })
}

func TestEcs_ArchetypeKeys(t *testing.T) {
	assert.Equal(t, archetypeKey{1, 2, 3}, dedupAndSortArchetypeKey([]componentId{3, 1, 2, 1, 3}))
	assert.Equal(t, archetypeKey{1, 2, 3, 4}, combineArchetypeKeys([]componentId{1, 2, 3}, []componentId{4, 3, 2, 1}))
	assert.Equal(t,
		getArchetypeId(dedupAndSortArchetypeKey([]componentId{2, 1})),
		getArchetypeId(archetypeKey{1, 2}),
	)
}

func TestEcs_RemoveEntity(t *testing.T) {
	ecs := MakeEcs()
	eid := ecs.addEntity(MeshComponent{Mesh: "torus"})
	ecs.removeEntity(eid)

	assert.False(t, ecs.hasEntity(eid))
	assert.Zero(t, ecs.entityCount())
	assert.Nil(t, componentOf[MeshComponent](&ecs, eid))

	assert.NotPanics(t, func() {
		ecs.removeEntity(eid)
		ecs.removeEntity(EntityId(999))
	})
}

func TestEcs_RowReuse(t *testing.T) {
	ecs := MakeEcs()
	a := ecs.addEntity(MeshComponent{Mesh: "a"})
	b := ecs.addEntity(MeshComponent{Mesh: "b"})
	ecs.removeEntity(a)
	c := ecs.addEntity(MeshComponent{Mesh: "c"})

	arch := ecs.archetypes[ecs.entityIndex[b]]
	assert.Len(t, arch.componentData[ecs.getComponentId(reflect.TypeFor[MeshComponent]())], 2, "the freed row is reused")
	assert.Equal(t, AssetId("b"), componentOf[MeshComponent](&ecs, b).Mesh)
	assert.Equal(t, AssetId("c"), componentOf[MeshComponent](&ecs, c).Mesh)
	assert.Equal(t, 2, ecs.entityCount())
}

func TestEcs_IdsAreMonotonic(t *testing.T) {
	ecs := MakeEcs()
	a := ecs.addEntity()
	ecs.removeEntity(a)
	b := ecs.addEntity()
	assert.Greater(t, b, a, "removed ids are never handed out again")
}
