package core

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

const (
	overlayAtlasMin = 512
	overlayAtlasMax = 4096
)

var errAtlasFull = errors.New("overlay atlas full")

type OverlayVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

// OverlayLine is a line of screen text anchored at its top-left corner, in pixels.
type OverlayLine struct {
	Text  string
	X, Y  float32
	Color [4]float32
}

type overlayGlyph struct {
	uvMin, uvMax [2]float32
	size, off    [2]float32
	advance      float32
}

// TextOverlay rasterises printable ASCII once into an alpha atlas and builds
// screen-space quads from it.
type TextOverlay struct {
	Atlas  *image.Alpha
	glyphs map[rune]overlayGlyph
	ascent float32
	height float32
}

func NewTextOverlay(f *sfnt.Font, sizePx float64) (*TextOverlay, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating overlay face: %w", err)
	}
	defer face.Close()

	var (
		atlas  *image.Alpha
		glyphs map[rune]overlayGlyph
	)
	for side := overlayAtlasMin; ; side *= 2 {
		atlas, glyphs, err = packOverlayGlyphs(face, side)
		if err == nil {
			break
		}
		if !errors.Is(err, errAtlasFull) || side >= overlayAtlasMax {
			return nil, fmt.Errorf("font size %g: %w", sizePx, err)
		}
	}

	metrics := face.Metrics()
	return &TextOverlay{
		Atlas:  atlas,
		glyphs: glyphs,
		ascent: float32(metrics.Ascent.Ceil()),
		height: float32(metrics.Height.Ceil()),
	}, nil
}

// packOverlayGlyphs rasterises printable ASCII into a side x side atlas,
// row by row.
func packOverlayGlyphs(face font.Face, side int) (*image.Alpha, map[rune]overlayGlyph, error) {
	atlas := image.NewAlpha(image.Rect(0, 0, side, side))
	glyphs := make(map[rune]overlayGlyph)
	size := float32(side)

	x, y, rowHeight := 2, 2, 0
	for r := rune(32); r < 127; r++ {
		bounds, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := bounds.Dx(), bounds.Dy()
		if x+w >= side {
			x, y = 2, y+rowHeight+4
			rowHeight = 0
		}
		if x+w >= side || y+h >= side {
			return nil, nil, fmt.Errorf("%w at %q in %dpx", errAtlasFull, r, side)
		}

		draw.Draw(atlas, image.Rect(x, y, x+w, y+h), mask, maskp, draw.Src)
		glyphs[r] = overlayGlyph{
			uvMin:   [2]float32{float32(x) / size, float32(y) / size},
			uvMax:   [2]float32{float32(x+w) / size, float32(y+h) / size},
			size:    [2]float32{float32(w), float32(h)},
			off:     [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			advance: fixedToFloat(adv),
		}

		x += w + 4
		rowHeight = max(rowHeight, h)
	}
	return atlas, glyphs, nil
}

func (t *TextOverlay) LineHeight() float32 {
	return t.height
}

// Vertices returns two triangles per visible glyph in clip space for a
// screen of width x height pixels.
func (t *TextOverlay) Vertices(lines []OverlayLine, width, height int) []OverlayVertex {
	if width <= 0 || height <= 0 {
		return nil
	}
	sw, sh := float32(width), float32(height)
	toClip := func(px, py float32) [2]float32 {
		return [2]float32{px/sw*2 - 1, 1 - py/sh*2}
	}

	vertices := make([]OverlayVertex, 0, 64*6)
	for _, line := range lines {
		penX := line.X
		baseline := line.Y + t.ascent
		for _, r := range line.Text {
			g, ok := t.glyphs[r]
			if !ok {
				continue
			}
			if g.size[0] > 0 && g.size[1] > 0 {
				p0 := toClip(penX+g.off[0], baseline+g.off[1])
				p1 := toClip(penX+g.off[0]+g.size[0], baseline+g.off[1]+g.size[1])
				tl := OverlayVertex{Pos: p0, UV: g.uvMin, Color: line.Color}
				tr := OverlayVertex{Pos: [2]float32{p1[0], p0[1]}, UV: [2]float32{g.uvMax[0], g.uvMin[1]}, Color: line.Color}
				bl := OverlayVertex{Pos: [2]float32{p0[0], p1[1]}, UV: [2]float32{g.uvMin[0], g.uvMax[1]}, Color: line.Color}
				br := OverlayVertex{Pos: p1, UV: g.uvMax, Color: line.Color}
				vertices = append(vertices, tl, bl, tr, tr, bl, br)
			}
			penX += g.advance
		}
	}
	return vertices
}

// Measure returns the pixel width of the widest line and the total height.
func (t *TextOverlay) Measure(lines []string) (float32, float32) {
	var widest float32
	for _, line := range lines {
		var w float32
		for _, r := range line {
			if g, ok := t.glyphs[r]; ok {
				w += g.advance
			}
		}
		widest = max(widest, w)
	}
	return widest, t.height * float32(len(lines))
}
