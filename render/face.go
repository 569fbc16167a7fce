/*
Package render paints instruction lists onto an RGBA canvas.

Glyphs are rasterised once per run from the Go Mono font into alpha masks,
one per ramp entry, and then stamped in the colour of each instruction.
The size of a rasterised glyph is also the sampling stride for the glyph
modes, so that neighbouring glyphs never overlap.
*/
package render

import (
	"errors"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var errSize = errors.New("render: glyph size must be at least one pixel")

// Face is a monospaced font face at a fixed pixel size
type Face struct {
	face   font.Face
	ascent int
	cell   image.Point
}

// NewFace loads Go Mono at size pixels per em
func NewFace(size float64) (*Face, error) {
	if size < 1 {
		return nil, errSize
	}

	f, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}

	m := face.Metrics()
	adv, ok := face.GlyphAdvance('M')
	if !ok {
		adv = fixed.I(int(size))
	}

	cell := image.Pt(adv.Ceil(), (m.Ascent + m.Descent).Ceil())
	if cell.X < 1 {
		cell.X = 1
	}
	if cell.Y < 1 {
		cell.Y = 1
	}

	return &Face{
		face:   face,
		ascent: m.Ascent.Ceil(),
		cell:   cell,
	}, nil
}

// Stride returns the footprint of one glyph cell in pixels
func (f *Face) Stride() image.Point {
	return f.cell
}

// Mask rasterises r into an alpha mask the size of one cell
func (f *Face) Mask(r rune) *image.Alpha {
	m := image.NewAlpha(image.Rectangle{Max: f.cell})
	d := font.Drawer{
		Dst:  m,
		Src:  image.Opaque,
		Face: f.face,
		Dot:  fixed.P(0, f.ascent),
	}
	d.DrawString(string(r))
	return m
}

// Masks rasterises every glyph of a ramp, in ramp order
func (f *Face) Masks(glyphs []rune) []*image.Alpha {
	masks := make([]*image.Alpha, len(glyphs))
	for i, r := range glyphs {
		masks[i] = f.Mask(r)
	}
	return masks
}

// Close releases the font face
func (f *Face) Close() error {
	return f.face.Close()
}
