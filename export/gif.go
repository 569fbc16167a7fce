package export

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"math"
	"os"
	"path/filepath"

	"github.com/bodgit/asciixel/palette"
	"github.com/ericpauley/go-quantize/quantize"
)

const maxGIFColors = 256

// Animation collects frames and writes them as one looping animated GIF on
// Close
type Animation struct {
	file    string
	delay   int
	palette *palette.Palette
	colors  color.Palette
	size    image.Point
	anim    gif.GIF
	closed  bool
}

// NewGIF returns an exporter writing file at fps frames per second. When p
// is not nil and has no more than 256 colours every frame is indexed
// against it directly, which suits colour block output where each pixel is
// already a palette colour.
func NewGIF(file string, fps float64, p *palette.Palette) (*Animation, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, err
	}

	// Delays are in hundredths of a second
	delay := 10
	if fps > 0 {
		delay = int(math.Round(100 / fps))
		if delay < 1 {
			delay = 1
		}
	}

	a := &Animation{
		file:  file,
		delay: delay,
	}
	if p != nil && p.Len() <= maxGIFColors {
		a.palette = p
		a.colors = p.Colors()
	}

	return a, nil
}

// indexed maps m onto the fixed palette. It falls back to paletted if a
// pixel is not a palette colour.
func (g *Animation) indexed(m image.Image) *image.Paletted {
	b := m.Bounds()
	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), g.colors)

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.RGBAModel.Convert(m.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			i := g.palette.Index(c.R, c.G, c.B)
			if g.colors[i] != c {
				return paletted(m)
			}
			pm.Pix[y*pm.Stride+x] = uint8(i)
		}
	}

	return pm
}

// paletted reduces m to at most 256 colours. Images that already fit are
// converted exactly.
func paletted(m image.Image) *image.Paletted {
	b := m.Bounds()
	r := image.Rect(0, 0, b.Dx(), b.Dy())

	seen := make(map[color.RGBA]struct{})
	var p color.Palette
	for y := b.Min.Y; y < b.Max.Y && len(p) <= maxGIFColors; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(m.At(x, y)).(color.RGBA)
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				p = append(p, c)
				if len(p) > maxGIFColors {
					break
				}
			}
		}
	}

	if len(p) > maxGIFColors {
		q := quantize.MedianCutQuantizer{}
		p = q.Quantize(make(color.Palette, 0, maxGIFColors), m)
	}

	pm := image.NewPaletted(r, p)
	draw.Draw(pm, r, m, b.Min, draw.Src)

	return pm
}

// WriteFrame implements Exporter
func (g *Animation) WriteFrame(index int, m image.Image) error {
	if g.closed {
		return ErrClosed
	}

	size := m.Bounds().Size()
	if len(g.anim.Image) == 0 {
		g.size = size
	} else if size != g.size {
		return errSizeChanged
	}

	var pm *image.Paletted
	if g.palette != nil {
		pm = g.indexed(m)
	} else {
		pm = paletted(m)
	}

	g.anim.Image = append(g.anim.Image, pm)
	g.anim.Delay = append(g.anim.Delay, g.delay)

	return nil
}

// Frames returns the number of frames collected so far
func (g *Animation) Frames() int {
	return len(g.anim.Image)
}

// Close encodes the animation. Nothing is written when no frames were
// received.
func (g *Animation) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true

	if len(g.anim.Image) == 0 {
		return nil
	}

	f, err := os.Create(g.file)
	if err != nil {
		return err
	}

	if err := gif.EncodeAll(f, &g.anim); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
