package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex matches the vertex layout of the matcap shader.
type Vertex struct {
	Pos    [3]float32
	Normal [3]float32
}

// Geometry is an indexed triangle list with counter-clockwise front faces.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// BoundingBox returns the min and max corners. An empty geometry yields two zero vectors.
func (g *Geometry) BoundingBox() (mgl32.Vec3, mgl32.Vec3) {
	if len(g.Vertices) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	minB := mgl32.Vec3(g.Vertices[0].Pos)
	maxB := minB
	for _, v := range g.Vertices[1:] {
		for i := 0; i < 3; i++ {
			minB[i] = min(minB[i], v.Pos[i])
			maxB[i] = max(maxB[i], v.Pos[i])
		}
	}
	return minB, maxB
}

func (g *Geometry) Translate(offset mgl32.Vec3) {
	for i := range g.Vertices {
		g.Vertices[i].Pos[0] += offset[0]
		g.Vertices[i].Pos[1] += offset[1]
		g.Vertices[i].Pos[2] += offset[2]
	}
}

// Center moves the geometry so that its bounding box is centred on the origin.
func (g *Geometry) Center() {
	minB, maxB := g.BoundingBox()
	g.Translate(minB.Add(maxB).Mul(-0.5))
}

// appendQuad adds a flat shaded quad a-b-c-d given counter-clockwise when
// seen from the side the normal points to.
func (g *Geometry) appendQuad(a, b, c, d mgl32.Vec3) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() < 1e-12 {
		n = c.Sub(a).Cross(d.Sub(a))
	}
	if n.Len() < 1e-12 {
		return
	}
	normal := [3]float32(n.Normalize())

	base := uint32(len(g.Vertices))
	g.Vertices = append(g.Vertices,
		Vertex{Pos: a, Normal: normal},
		Vertex{Pos: b, Normal: normal},
		Vertex{Pos: c, Normal: normal},
		Vertex{Pos: d, Normal: normal},
	)
	g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
}
