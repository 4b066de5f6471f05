package donuts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

func TestLoadScene(t *testing.T) {
	f := newPoolFixture(t)
	font, err := opentype.Parse(goregular.TTF)
	require.NoError(t, err)
	f.assets.SetFont(font)

	def := SceneFromConfig(DefaultConfig())
	def.Donuts.Count = 200

	scene, err := LoadScene(f.cmd, f.assets, f.graph, f.pool, def)
	require.NoError(t, err)
	f.app.FlushCommands()

	assert.Equal(t, "1", scene.Material.Key)
	assert.Equal(t, 200, f.pool.Len())
	assert.True(t, f.pool.Attached())
	assert.True(t, f.graph.Attached(scene.Text))

	text, err := f.assets.Mesh(scene.TextMesh)
	require.NoError(t, err)
	minB, maxB := text.Geometry.BoundingBox()
	assert.InDelta(t, 0, minB.Add(maxB).X(), 1e-4, "text is centred")

	torus, err := f.assets.Mesh(scene.Torus)
	require.NoError(t, err)
	assert.Equal(t, def.Donuts.Torus.RadialSegments*def.Donuts.Torus.TubularSegments*2, torus.Geometry.TriangleCount())

	// The text shares the donuts' material.
	mat := GetComponent[MaterialComponent](f.cmd, scene.Text)
	require.NotNil(t, mat)
	assert.Same(t, scene.Material, mat.Material)
	require.NoError(t, scene.Material.SetMatcap(f.assets, "2"))
	assert.Equal(t, "2", mat.Material.Key)
}

func TestLoadScene_Errors(t *testing.T) {
	t.Run("missing font", func(t *testing.T) {
		f := newPoolFixture(t)
		_, err := LoadScene(f.cmd, f.assets, f.graph, f.pool, SceneFromConfig(DefaultConfig()))
		assert.ErrorIs(t, err, ErrAssetNotFound)
		_, ok := f.pool.Group()
		assert.False(t, ok)
	})

	t.Run("unknown matcap", func(t *testing.T) {
		f := newPoolFixture(t)
		def := SceneFromConfig(DefaultConfig())
		def.MatcapKey = "missing"
		_, err := LoadScene(f.cmd, f.assets, f.graph, f.pool, def)
		assert.ErrorIs(t, err, ErrAssetNotFound)
	})
}
