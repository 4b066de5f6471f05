package donuts

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReflectSlice_TypedColumns(t *testing.T) {
	col := reflectSliceMake(reflect.TypeFor[MeshComponent]())
	_, ok := col.([]MeshComponent)
	require.True(t, ok, "column is a []MeshComponent, got %T", col)

	for _, id := range []AssetId{"torus", "text"} {
		col = reflectSliceAppend(col, reflect.ValueOf(MeshComponent{Mesh: id}))
	}
	meshes := col.([]MeshComponent)
	assert.Equal(t, []MeshComponent{{Mesh: "torus"}, {Mesh: "text"}}, meshes)

	reflectSliceSet(col, 0, reflect.ValueOf(MeshComponent{Mesh: "sphere"}))
	assert.Equal(t, AssetId("sphere"), meshes[0].Mesh, "set writes through to the backing array")
	assert.Equal(t, AssetId("text"), reflectSliceGet(col, 1).Interface().(MeshComponent).Mesh)
}

func TestReflectSlice_Panics(t *testing.T) {
	ints := []int{1, 2}
	assert.Panics(t, func() { reflectSliceGet(ints, 10) })
	assert.Panics(t, func() { reflectSliceSet(ints, 0, reflect.ValueOf("wrong")) })
	assert.Panics(t, func() { reflectSliceAppend(ints, reflect.ValueOf(1.5)) })
}
