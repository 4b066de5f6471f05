package core

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

const triangulateEpsilon = 1e-9

// Triangulate ear-clips a polygon with holes. outer is the boundary, holes
// are fully contained in it. The result lists counter-clockwise triangles as
// indices into the concatenation outer, holes[0], holes[1], ...
func Triangulate(outer []mgl32.Vec2, holes [][]mgl32.Vec2) []int {
	pts := slices.Clone(outer)
	polygon := orientedIndices(0, len(outer), pts, true)

	type hole struct {
		indices []int
		maxX    float32
	}
	var hs []hole
	for _, h := range holes {
		offset := len(pts)
		pts = append(pts, h...)
		idx := orientedIndices(offset, len(h), pts, false)
		if len(idx) < 3 {
			continue
		}
		maxX := pts[idx[0]].X()
		for _, i := range idx {
			maxX = max(maxX, pts[i].X())
		}
		hs = append(hs, hole{indices: idx, maxX: maxX})
	}

	// Rightmost holes first so later bridges can't cut through earlier ones.
	slices.SortFunc(hs, func(a, b hole) int {
		switch {
		case a.maxX > b.maxX:
			return -1
		case a.maxX < b.maxX:
			return 1
		}
		return 0
	})

	remaining := make([][]int, len(hs))
	for i, h := range hs {
		remaining[i] = h.indices
	}
	for i := range remaining {
		polygon = bridgeHole(polygon, remaining[i], remaining[i+1:], pts)
	}

	return earClip(polygon, pts)
}

// orientedIndices returns indices offset..offset+n-1, reversed if needed so
// the ring winds counter-clockwise (ccw) or clockwise (!ccw).
func orientedIndices(offset, n int, pts []mgl32.Vec2, ccw bool) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = offset + i
	}
	if (signedArea(idx, pts) > 0) != ccw {
		slices.Reverse(idx)
	}
	return idx
}

func signedArea(ring []int, pts []mgl32.Vec2) float32 {
	var area float32
	for i := range ring {
		a, b := pts[ring[i]], pts[ring[(i+1)%len(ring)]]
		area += a.X()*b.Y() - b.X()*a.Y()
	}
	return area / 2
}

// SignedArea is positive for counter-clockwise rings.
func SignedArea(ring []mgl32.Vec2) float32 {
	var area float32
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		area += a.X()*b.Y() - b.X()*a.Y()
	}
	return area / 2
}

// cross is positive when c lies to the left of the directed line a->b.
func cross(a, b, c mgl32.Vec2) float32 {
	return (b.X()-a.X())*(c.Y()-a.Y()) - (b.Y()-a.Y())*(c.X()-a.X())
}

// bridgeHole splices hole into polygon through the closest polygon vertex
// that can see the hole's rightmost vertex.
func bridgeHole(polygon, hole []int, pending [][]int, pts []mgl32.Vec2) []int {
	m := 0
	for i, idx := range hole {
		if pts[idx].X() > pts[hole[m]].X() {
			m = i
		}
	}
	mp := pts[hole[m]]

	best, bestDist := -1, float32(0)
	for k, idx := range polygon {
		p := pts[idx]
		d := p.Sub(mp).LenSqr()
		if best != -1 && d >= bestDist {
			continue
		}
		n := len(polygon)
		prev, next := pts[polygon[(k-1+n)%n]], pts[polygon[(k+1)%n]]
		if !locallyInside(prev, p, next, mp) {
			continue
		}
		if segmentBlocked(mp, p, polygon, pts) || segmentBlocked(mp, p, hole, pts) {
			continue
		}
		blocked := false
		for _, other := range pending {
			if segmentBlocked(mp, p, other, pts) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		best, bestDist = k, d
	}
	if best == -1 {
		// Nothing visible; dropping the hole keeps the outline intact.
		return polygon
	}

	merged := make([]int, 0, len(polygon)+len(hole)+2)
	merged = append(merged, polygon[:best+1]...)
	for i := 0; i <= len(hole); i++ {
		merged = append(merged, hole[(m+i)%len(hole)])
	}
	merged = append(merged, polygon[best])
	merged = append(merged, polygon[best+1:]...)
	return merged
}

// locallyInside reports whether t lies in the interior wedge at vertex p of
// a counter-clockwise ring prev->p->next.
func locallyInside(prev, p, next, t mgl32.Vec2) bool {
	if cross(prev, p, next) >= 0 {
		return cross(prev, p, t) >= 0 && cross(p, next, t) >= 0
	}
	return cross(prev, p, t) >= 0 || cross(p, next, t) >= 0
}

// segmentBlocked reports whether a-b properly crosses any edge of ring.
// Edges touching a or b are ignored.
func segmentBlocked(a, b mgl32.Vec2, ring []int, pts []mgl32.Vec2) bool {
	for i := range ring {
		p, q := pts[ring[i]], pts[ring[(i+1)%len(ring)]]
		if p == a || p == b || q == a || q == b {
			continue
		}
		if segmentsCross(a, b, p, q) {
			return true
		}
	}
	return false
}

func segmentsCross(a, b, c, d mgl32.Vec2) bool {
	d1 := cross(a, b, c)
	d2 := cross(a, b, d)
	d3 := cross(c, d, a)
	d4 := cross(c, d, b)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func earClip(polygon []int, pts []mgl32.Vec2) []int {
	ring := slices.Clone(polygon)
	triangles := make([]int, 0, max(len(ring)-2, 0)*3)

	for len(ring) > 3 {
		n := len(ring)
		clipped := false
		for i := 0; i < n; i++ {
			ia, ib, ic := ring[(i-1+n)%n], ring[i], ring[(i+1)%n]
			if !isEar(ring, i, pts) {
				continue
			}
			triangles = append(triangles, ia, ib, ic)
			ring = slices.Delete(ring, i, i+1)
			clipped = true
			break
		}
		if clipped {
			continue
		}

		// No ear left: drop one degenerate (collinear or repeated) vertex and retry.
		dropped := false
		for i := 0; i < n; i++ {
			a, b, c := pts[ring[(i-1+n)%n]], pts[ring[i]], pts[ring[(i+1)%n]]
			if abs32(cross(a, b, c)) <= triangulateEpsilon {
				ring = slices.Delete(ring, i, i+1)
				dropped = true
				break
			}
		}
		if !dropped {
			break
		}
	}

	if len(ring) == 3 && cross(pts[ring[0]], pts[ring[1]], pts[ring[2]]) > triangulateEpsilon {
		triangles = append(triangles, ring[0], ring[1], ring[2])
	}
	return triangles
}

func isEar(ring []int, i int, pts []mgl32.Vec2) bool {
	n := len(ring)
	a, b, c := pts[ring[(i-1+n)%n]], pts[ring[i]], pts[ring[(i+1)%n]]
	if cross(a, b, c) <= triangulateEpsilon {
		return false
	}
	for j := 0; j < n; j++ {
		if j == i || j == (i-1+n)%n || j == (i+1)%n {
			continue
		}
		p := pts[ring[j]]
		if p == a || p == b || p == c {
			continue
		}
		// Only reflex vertices can sit inside an ear.
		if cross(pts[ring[(j-1+n)%n]], p, pts[ring[(j+1)%n]]) > 0 {
			continue
		}
		if cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0 {
			return false
		}
	}
	return true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
