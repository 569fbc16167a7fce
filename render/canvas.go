package render

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/bodgit/asciixel/convert"
)

var errNoGlyphs = errors.New("render: glyph output without glyph masks")

var (
	black = color.RGBA{0x00, 0x00, 0x00, 0xff}
	white = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// Canvas is a raster render target. Plain glyphs are drawn in a fixed
// foreground colour, white on black, or black on white when reversed.
type Canvas struct {
	img    *image.RGBA
	masks  []*image.Alpha
	bg, fg *image.Uniform
	ink    *image.Uniform
}

// NewCanvas returns a w by h canvas. masks holds one glyph mask per ramp
// index and may be nil when only colour blocks are drawn.
func NewCanvas(w, h int, masks []*image.Alpha, reverse bool) *Canvas {
	c := &Canvas{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		masks: masks,
		bg:    image.NewUniform(black),
		fg:    image.NewUniform(white),
		ink:   image.NewUniform(white),
	}
	if reverse {
		c.bg, c.fg = c.fg, c.bg
	}
	return c
}

// Image returns the canvas. It is overwritten by the next Draw.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Background returns the colour the canvas is cleared to
func (c *Canvas) Background() color.RGBA {
	return c.bg.C.(color.RGBA)
}

// Draw clears the canvas and paints every instruction of out. An
// instruction at cell p covers the pixels from p*stride.
func (c *Canvas) Draw(out *convert.Output) error {
	if out.Mode.Glyphs() && c.masks == nil {
		return errNoGlyphs
	}

	b := c.img.Bounds()
	draw.Draw(c.img, b, c.bg, image.Point{}, draw.Src)

	for _, in := range out.Instructions {
		p := image.Pt(in.Pos.X*out.Stride.X, in.Pos.Y*out.Stride.Y)

		switch out.Mode {
		case convert.Plain:
			m := c.masks[in.Glyph]
			draw.DrawMask(c.img, m.Rect.Add(p), c.fg, image.Point{}, m, image.Point{}, draw.Over)
		case convert.ColoredGlyph:
			m := c.masks[in.Glyph]
			c.ink.C = in.Color
			draw.DrawMask(c.img, m.Rect.Add(p), c.ink, image.Point{}, m, image.Point{}, draw.Over)
		case convert.ColorBlock:
			c.ink.C = in.Color
			draw.Draw(c.img, image.Rectangle{p, p.Add(out.Stride)}, c.ink, image.Point{}, draw.Src)
		}
	}

	return nil
}
