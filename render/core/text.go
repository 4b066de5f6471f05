package core

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// TextOptions controls the extrusion of a text mesh. Lengths are in world units.
type TextOptions struct {
	Size           float32 // em size
	Depth          float32
	CurveSegments  int // points per curved outline segment
	BevelEnabled   bool
	BevelThickness float32 // bevel depth along z
	BevelSize      float32 // bevel extent in the glyph plane
	BevelOffset    float32
	BevelSegments  int
}

func DefaultTextOptions() TextOptions {
	return TextOptions{
		Size:           0.5,
		Depth:          0.2,
		CurveSegments:  5,
		BevelEnabled:   true,
		BevelThickness: 0.03,
		BevelSize:      0.02,
		BevelOffset:    0,
		BevelSegments:  4,
	}
}

func (o TextOptions) validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("text size must be positive, got %g", o.Size)
	}
	if o.Depth < 0 {
		return fmt.Errorf("text depth must not be negative, got %g", o.Depth)
	}
	if o.CurveSegments < 1 {
		return fmt.Errorf("text needs at least one curve segment, got %d", o.CurveSegments)
	}
	if o.BevelEnabled && o.BevelSegments < 1 {
		return fmt.Errorf("bevel needs at least one segment, got %d", o.BevelSegments)
	}
	return nil
}

// shape is one filled region of a glyph: an outer ring (counter-clockwise)
// and the holes cut into it (clockwise).
type shape struct {
	outer []mgl32.Vec2
	holes [][]mgl32.Vec2
}

// NewTextGeometry lays out text with f and extrudes every glyph along +z.
// The text baseline starts at the origin; lines break on '\n'.
func NewTextGeometry(f *sfnt.Font, text string, opts TextOptions) (*Geometry, error) {
	if f == nil {
		return nil, errors.New("text geometry needs a font")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	shapes, err := layoutShapes(f, text, opts)
	if err != nil {
		return nil, err
	}

	g := &Geometry{}
	for _, s := range shapes {
		extrudeShape(g, s, opts)
	}
	return g, nil
}

func layoutShapes(f *sfnt.Font, text string, opts TextOptions) ([]shape, error) {
	var buf sfnt.Buffer
	upm := float32(f.UnitsPerEm())
	ppem := fixed.I(int(f.UnitsPerEm()))
	scale := opts.Size / upm

	metrics, err := f.Metrics(&buf, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("reading font metrics: %w", err)
	}
	lineHeight := fixedToFloat(metrics.Height) * scale

	var shapes []shape
	var penX, penY float32
	prev := sfnt.GlyphIndex(0)
	for _, r := range text {
		if r == '\n' {
			penX = 0
			penY -= lineHeight
			prev = 0
			continue
		}

		gi, err := f.GlyphIndex(&buf, r)
		if err != nil {
			return nil, fmt.Errorf("glyph index for %q: %w", r, err)
		}
		if prev != 0 && gi != 0 {
			if kern, err := f.Kern(&buf, prev, gi, ppem, font.HintingNone); err == nil {
				penX += fixedToFloat(kern) * scale
			}
		}

		segments, err := f.LoadGlyph(&buf, gi, ppem, nil)
		if err != nil {
			return nil, fmt.Errorf("loading glyph %q: %w", r, err)
		}
		contours := flattenSegments(segments, opts.CurveSegments, scale, mgl32.Vec2{penX, penY})
		shapes = append(shapes, groupContours(contours)...)

		advance, err := f.GlyphAdvance(&buf, gi, ppem, font.HintingNone)
		if err != nil {
			return nil, fmt.Errorf("glyph advance for %q: %w", r, err)
		}
		penX += fixedToFloat(advance) * scale
		prev = gi
	}
	return shapes, nil
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}

// flattenSegments turns glyph segments into closed polylines. Glyph space
// has y pointing down, so y is flipped on the way out.
func flattenSegments(segments sfnt.Segments, curveSegments int, scale float32, origin mgl32.Vec2) [][]mgl32.Vec2 {
	toVec := func(p fixed.Point26_6) mgl32.Vec2 {
		return mgl32.Vec2{
			origin.X() + fixedToFloat(p.X)*scale,
			origin.Y() - fixedToFloat(p.Y)*scale,
		}
	}

	var contours [][]mgl32.Vec2
	var current []mgl32.Vec2
	closeContour := func() {
		if ring := cleanRing(current); len(ring) >= 3 {
			contours = append(contours, ring)
		}
		current = nil
	}

	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			closeContour()
			current = append(current, toVec(seg.Args[0]))
		case sfnt.SegmentOpLineTo:
			current = append(current, toVec(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			if len(current) == 0 {
				continue
			}
			p0, c, p1 := current[len(current)-1], toVec(seg.Args[0]), toVec(seg.Args[1])
			for i := 1; i <= curveSegments; i++ {
				t := float32(i) / float32(curveSegments)
				u := 1 - t
				current = append(current, p0.Mul(u*u).Add(c.Mul(2*u*t)).Add(p1.Mul(t*t)))
			}
		case sfnt.SegmentOpCubeTo:
			if len(current) == 0 {
				continue
			}
			p0, c0, c1, p1 := current[len(current)-1], toVec(seg.Args[0]), toVec(seg.Args[1]), toVec(seg.Args[2])
			for i := 1; i <= curveSegments; i++ {
				t := float32(i) / float32(curveSegments)
				u := 1 - t
				current = append(current, p0.Mul(u*u*u).Add(c0.Mul(3*u*u*t)).Add(c1.Mul(3*u*t*t)).Add(p1.Mul(t*t*t)))
			}
		}
	}
	closeContour()
	return contours
}

// cleanRing drops repeated points, including a closing point equal to the first.
func cleanRing(points []mgl32.Vec2) []mgl32.Vec2 {
	ring := make([]mgl32.Vec2, 0, len(points))
	for _, p := range points {
		if len(ring) > 0 && samePoint(ring[len(ring)-1], p) {
			continue
		}
		ring = append(ring, p)
	}
	for len(ring) > 1 && samePoint(ring[0], ring[len(ring)-1]) {
		ring = ring[:len(ring)-1]
	}
	return ring
}

func samePoint(a, b mgl32.Vec2) bool {
	return a.Sub(b).LenSqr() < 1e-14
}

// groupContours sorts contours into shapes by nesting depth: even depth is
// filled, odd depth is a hole of the smallest filled contour around it.
// Outline direction differs between TrueType and CFF fonts, so it isn't used.
func groupContours(contours [][]mgl32.Vec2) []shape {
	depth := make([]int, len(contours))
	for i, c := range contours {
		for j, other := range contours {
			if i != j && pointInRing(c[0], other) {
				depth[i]++
			}
		}
	}

	shapes := []shape{}
	outerOf := make(map[int]int) // contour index -> shape index
	for i, c := range contours {
		if depth[i]%2 != 0 {
			continue
		}
		ring := slices.Clone(c)
		if SignedArea(ring) < 0 {
			slices.Reverse(ring)
		}
		outerOf[i] = len(shapes)
		shapes = append(shapes, shape{outer: ring})
	}

	for i, c := range contours {
		if depth[i]%2 == 0 {
			continue
		}
		best, bestArea := -1, float32(0)
		for j, outer := range contours {
			if depth[j] != depth[i]-1 || !pointInRing(c[0], outer) {
				continue
			}
			area := abs32(SignedArea(outer))
			if best == -1 || area < bestArea {
				best, bestArea = j, area
			}
		}
		if best == -1 {
			continue
		}
		ring := slices.Clone(c)
		if SignedArea(ring) > 0 {
			slices.Reverse(ring)
		}
		s := &shapes[outerOf[best]]
		s.holes = append(s.holes, ring)
	}
	return shapes
}

// pointInRing is the even-odd crossing test.
func pointInRing(p mgl32.Vec2, ring []mgl32.Vec2) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Y() > p.Y()) != (b.Y() > p.Y()) {
			x := a.X() + (p.Y()-a.Y())*(b.X()-a.X())/(b.Y()-a.Y())
			if p.X() < x {
				inside = !inside
			}
		}
	}
	return inside
}

// extrusionLayer is one ring of the side wall: z and how far the outline is
// pushed outward.
type extrusionLayer struct {
	z      float32
	offset float32
}

// extrusionLayers lists the rings from the front cap to the back cap. The
// bevel follows a quarter circle on both sides of a single body step.
func extrusionLayers(opts TextOptions) []extrusionLayer {
	thickness, size, segments := opts.BevelThickness, opts.BevelSize, opts.BevelSegments
	if !opts.BevelEnabled {
		thickness, size, segments = 0, 0, 0
	}
	angle := func(b int) float32 {
		if segments == 0 {
			return 0
		}
		return float32(b) / float32(segments) * math32.Pi / 2
	}

	layers := make([]extrusionLayer, 0, 2*segments+2)
	for b := 0; b <= segments; b++ {
		a := angle(b)
		layers = append(layers, extrusionLayer{z: -thickness * math32.Cos(a), offset: size*math32.Sin(a) + opts.BevelOffset})
	}
	layers = append(layers, extrusionLayer{z: opts.Depth, offset: size + opts.BevelOffset})
	for b := segments - 1; b >= 0; b-- {
		a := angle(b)
		layers = append(layers, extrusionLayer{z: opts.Depth + thickness*math32.Cos(a), offset: size*math32.Sin(a) + opts.BevelOffset})
	}
	return layers
}

// miterVectors returns, per ring vertex, the outward shift that moves both
// adjacent edges by one unit. Outward is the right-hand side of travel, which
// holds for counter-clockwise outers and clockwise holes alike.
func miterVectors(ring []mgl32.Vec2) []mgl32.Vec2 {
	const maxMiter = 4
	n := len(ring)
	out := make([]mgl32.Vec2, n)
	for i := range ring {
		prev, p, next := ring[(i-1+n)%n], ring[i], ring[(i+1)%n]
		n1 := rightNormal(p.Sub(prev))
		n2 := rightNormal(next.Sub(p))
		denom := 1 + n1.Dot(n2)
		if denom < 1e-6 {
			out[i] = n1
			continue
		}
		m := n1.Add(n2).Mul(1 / denom)
		if l := m.Len(); l > maxMiter {
			m = m.Mul(maxMiter / l)
		}
		out[i] = m
	}
	return out
}

func rightNormal(d mgl32.Vec2) mgl32.Vec2 {
	l := d.Len()
	if l == 0 {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{d.Y() / l, -d.X() / l}
}

func extrudeShape(g *Geometry, s shape, opts TextOptions) {
	layers := extrusionLayers(opts)
	rings := append([][]mgl32.Vec2{s.outer}, s.holes...)
	miters := make([][]mgl32.Vec2, len(rings))
	for i, ring := range rings {
		miters[i] = miterVectors(ring)
	}

	at := func(ring, i int, l extrusionLayer) mgl32.Vec3 {
		p := rings[ring][i].Add(miters[ring][i].Mul(l.offset))
		return mgl32.Vec3{p.X(), p.Y(), l.z}
	}

	// Caps use the outline as it sits on the first and last layer.
	first, last := layers[0], layers[len(layers)-1]
	var capPoints []mgl32.Vec2
	for r, ring := range rings {
		for i := range ring {
			p := at(r, i, first)
			capPoints = append(capPoints, p.Vec2())
		}
	}
	tris := Triangulate(capPoints[:len(s.outer)], splitHoles(capPoints[len(s.outer):], s.holes))

	appendCap(g, capPoints, tris, first.z, false)
	if last.offset != first.offset {
		capPoints = capPoints[:0]
		for r, ring := range rings {
			for i := range ring {
				capPoints = append(capPoints, at(r, i, last).Vec2())
			}
		}
	}
	appendCap(g, capPoints, tris, last.z, true)

	for r, ring := range rings {
		n := len(ring)
		for k := 0; k+1 < len(layers); k++ {
			lo, hi := layers[k], layers[k+1]
			for i := 0; i < n; i++ {
				j := (i + 1) % n
				g.appendQuad(at(r, i, lo), at(r, j, lo), at(r, j, hi), at(r, i, hi))
			}
		}
	}
}

// splitHoles cuts a flat point list back into rings shaped like holes.
func splitHoles(points []mgl32.Vec2, holes [][]mgl32.Vec2) [][]mgl32.Vec2 {
	out := make([][]mgl32.Vec2, len(holes))
	for i, h := range holes {
		out[i] = points[:len(h)]
		points = points[len(h):]
	}
	return out
}

// appendCap adds a flat cap at z. Triangles come counter-clockwise in the
// xy plane; the front cap faces -z so its winding is flipped.
func appendCap(g *Geometry, points []mgl32.Vec2, tris []int, z float32, facesPositiveZ bool) {
	normal := [3]float32{0, 0, -1}
	if facesPositiveZ {
		normal = [3]float32{0, 0, 1}
	}
	base := uint32(len(g.Vertices))
	for _, p := range points {
		g.Vertices = append(g.Vertices, Vertex{Pos: [3]float32{p.X(), p.Y(), z}, Normal: normal})
	}
	for t := 0; t+2 < len(tris); t += 3 {
		a, b, c := uint32(tris[t]), uint32(tris[t+1]), uint32(tris[t+2])
		if facesPositiveZ {
			g.Indices = append(g.Indices, base+a, base+b, base+c)
		} else {
			g.Indices = append(g.Indices, base+a, base+c, base+b)
		}
	}
}
