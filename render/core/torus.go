package core

import (
	"fmt"

	"github.com/chewxy/math32"
)

type TorusOptions struct {
	Radius          float32 // centre of the torus to centre of the tube
	Tube            float32
	RadialSegments  int
	TubularSegments int
}

// NewTorusGeometry builds a torus lying in the XY plane, centred on the origin.
func NewTorusGeometry(opts TorusOptions) (*Geometry, error) {
	if opts.RadialSegments < 3 || opts.TubularSegments < 3 {
		return nil, fmt.Errorf("torus needs at least 3 radial and 3 tubular segments, got %d and %d",
			opts.RadialSegments, opts.TubularSegments)
	}
	if opts.Radius <= 0 || opts.Tube <= 0 {
		return nil, fmt.Errorf("torus radius and tube must be positive, got %g and %g", opts.Radius, opts.Tube)
	}

	radial, tubular := opts.RadialSegments, opts.TubularSegments
	g := &Geometry{
		Vertices: make([]Vertex, 0, (radial+1)*(tubular+1)),
		Indices:  make([]uint32, 0, radial*tubular*6),
	}

	for j := 0; j <= radial; j++ {
		v := float32(j) / float32(radial) * math32.Pi * 2
		for i := 0; i <= tubular; i++ {
			u := float32(i) / float32(tubular) * math32.Pi * 2

			x := (opts.Radius + opts.Tube*math32.Cos(v)) * math32.Cos(u)
			y := (opts.Radius + opts.Tube*math32.Cos(v)) * math32.Sin(u)
			z := opts.Tube * math32.Sin(v)

			// Normal points away from the tube's centre line.
			cx := opts.Radius * math32.Cos(u)
			cy := opts.Radius * math32.Sin(u)
			nx, ny, nz := x-cx, y-cy, z
			l := math32.Sqrt(nx*nx + ny*ny + nz*nz)

			g.Vertices = append(g.Vertices, Vertex{
				Pos:    [3]float32{x, y, z},
				Normal: [3]float32{nx / l, ny / l, nz / l},
			})
		}
	}

	stride := uint32(tubular + 1)
	for j := uint32(1); j <= uint32(radial); j++ {
		for i := uint32(1); i <= uint32(tubular); i++ {
			a := stride*j + i - 1
			b := stride*(j-1) + i - 1
			c := stride*(j-1) + i
			d := stride*j + i

			g.Indices = append(g.Indices, a, b, d, b, c, d)
		}
	}

	return g, nil
}
