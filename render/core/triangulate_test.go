package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trianglesArea(pts []mgl32.Vec2, tris []int) float32 {
	var area float32
	for i := 0; i < len(tris); i += 3 {
		area += cross(pts[tris[i]], pts[tris[i+1]], pts[tris[i+2]]) / 2
	}
	return area
}

func TestTriangulate_Square(t *testing.T) {
	square := []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	tris := Triangulate(square, nil)

	require.Len(t, tris, 6)
	assert.InDelta(t, 1, trianglesArea(square, tris), 1e-6)
}

func TestTriangulate_ClockwiseInput(t *testing.T) {
	square := []mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	tris := Triangulate(square, nil)

	require.Len(t, tris, 6)
	for i := 0; i < len(tris); i += 3 {
		assert.Positive(t, cross(square[tris[i]], square[tris[i+1]], square[tris[i+2]]))
	}
}

func TestTriangulate_Concave(t *testing.T) {
	// L shape, area 3.
	l := []mgl32.Vec2{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}
	tris := Triangulate(l, nil)

	assert.Len(t, tris, 4*3)
	assert.InDelta(t, 3, trianglesArea(l, tris), 1e-5)
}

func TestTriangulate_Hole(t *testing.T) {
	outer := []mgl32.Vec2{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	hole := []mgl32.Vec2{{1, 1}, {3, 1}, {3, 3}, {1, 3}}
	tris := Triangulate(outer, [][]mgl32.Vec2{hole})

	all := append(append([]mgl32.Vec2{}, outer...), hole...)
	require.NotEmpty(t, tris)
	assert.InDelta(t, 12, trianglesArea(all, tris), 1e-4)
	for i := 0; i < len(tris); i += 3 {
		assert.Positive(t, cross(all[tris[i]], all[tris[i+1]], all[tris[i+2]]))
	}
}

func TestTriangulate_TwoHoles(t *testing.T) {
	outer := []mgl32.Vec2{{0, 0}, {10, 0}, {10, 4}, {0, 4}}
	holes := [][]mgl32.Vec2{
		{{1, 1}, {3, 1}, {3, 3}, {1, 3}},
		{{6, 1}, {8, 1}, {8, 3}, {6, 3}},
	}
	tris := Triangulate(outer, holes)

	all := append(append(append([]mgl32.Vec2{}, outer...), holes[0]...), holes[1]...)
	assert.InDelta(t, 40-4-4, trianglesArea(all, tris), 1e-4)
}

func TestSignedArea(t *testing.T) {
	ccw := []mgl32.Vec2{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	assert.InDelta(t, 4, SignedArea(ccw), 1e-6)

	cw := []mgl32.Vec2{{0, 2}, {2, 2}, {2, 0}, {0, 0}}
	assert.InDelta(t, -4, SignedArea(cw), 1e-6)
}
