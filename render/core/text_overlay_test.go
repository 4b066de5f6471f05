package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextOverlay_Vertices(t *testing.T) {
	overlay, err := NewTextOverlay(goRegular(t), 16)
	require.NoError(t, err)
	require.NotNil(t, overlay.Atlas)

	lines := []OverlayLine{{Text: "ab c", X: 10, Y: 10, Color: [4]float32{1, 1, 1, 1}}}
	verts := overlay.Vertices(lines, 800, 600)

	// The space has no ink and produces no quad.
	require.Len(t, verts, 3*6)
	for _, v := range verts {
		assert.GreaterOrEqual(t, v.Pos[0], float32(-1))
		assert.LessOrEqual(t, v.Pos[0], float32(1))
		assert.GreaterOrEqual(t, v.UV[0], float32(0))
		assert.LessOrEqual(t, v.UV[1], float32(1))
	}

	assert.Empty(t, overlay.Vertices(lines, 0, 600))
}

func TestTextOverlay_Measure(t *testing.T) {
	overlay, err := NewTextOverlay(goRegular(t), 16)
	require.NoError(t, err)

	w1, h1 := overlay.Measure([]string{"abc"})
	w2, h2 := overlay.Measure([]string{"abc", "abcdef"})

	assert.Positive(t, w1)
	assert.Greater(t, w2, w1)
	assert.InDelta(t, 2*h1, h2, 1e-6)
	assert.Equal(t, overlay.LineHeight(), h1)
}

func TestTextOverlay_AtlasGrowsWithSize(t *testing.T) {
	small, err := NewTextOverlay(goRegular(t), 16)
	require.NoError(t, err)
	assert.Equal(t, overlayAtlasMin, small.Atlas.Bounds().Dx())

	large, err := NewTextOverlay(goRegular(t), 160)
	require.NoError(t, err)
	side := large.Atlas.Bounds().Dx()
	assert.Greater(t, side, overlayAtlasMin)
	assert.LessOrEqual(t, side, overlayAtlasMax)

	for _, v := range large.Vertices([]OverlayLine{{Text: "Wg@", Color: [4]float32{1, 1, 1, 1}}}, 800, 600) {
		assert.LessOrEqual(t, v.UV[0], float32(1))
		assert.LessOrEqual(t, v.UV[1], float32(1))
	}

	_, err = NewTextOverlay(goRegular(t), 2000)
	assert.ErrorIs(t, err, errAtlasFull)
}
