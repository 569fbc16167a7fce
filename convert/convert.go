/*
Package convert implements the frame converter, the loop that samples a
frame on a fixed stride and emits a sparse list of draw instructions.

Sites are visited column by column: the outer loop walks x and the inner
loop walks y, so the order of the instructions is the same for every frame
of the same size. Sites that would draw nothing, the background glyph of
the ramp or a block that quantizes to black, are left out.
*/
package convert

import (
	"errors"
	"image"
	"sync"

	"github.com/bodgit/asciixel/frame"
	"github.com/bodgit/asciixel/palette"
	"github.com/bodgit/asciixel/ramp"
)

var (
	// ErrDimensionMismatch is returned when the colour and brightness
	// grids of a frame differ in size or a required grid is missing
	ErrDimensionMismatch = errors.New("convert: colour and brightness grids do not match")

	errStride  = errors.New("convert: stride must be at least one in both directions")
	errBlock   = errors.New("convert: colour block stride must be square")
	errMapper  = errors.New("convert: glyph modes need a density mapper")
	errPalette = errors.New("convert: colour modes need a palette")
)

// Config holds everything the converter needs. The mapper and palette are
// only read, never modified.
type Config struct {
	Mode     Mode
	Mapper   *ramp.Mapper
	Palette  *palette.Palette
	Stride   image.Point
	Suppress Suppress
	// Workers greater than one converts bands of columns concurrently
	Workers int
}

// Converter turns frames into instruction lists. It holds no per-frame
// state and is safe for concurrent use.
type Converter struct {
	cfg      Config
	index    [256]int
	sentinel int
}

// New validates the configuration and returns a converter
func New(cfg Config) (*Converter, error) {
	if cfg.Stride.X < 1 || cfg.Stride.Y < 1 {
		return nil, errStride
	}

	switch cfg.Mode {
	case Plain, ColoredGlyph, ColorBlock:
	default:
		return nil, errMode
	}

	if cfg.Mode == ColorBlock && cfg.Stride.X != cfg.Stride.Y {
		return nil, errBlock
	}
	if cfg.Mode.Glyphs() && cfg.Mapper == nil {
		return nil, errMapper
	}
	if cfg.Mode.Colors() && cfg.Palette == nil {
		return nil, errPalette
	}
	if cfg.Suppress != SuppressBlack && cfg.Suppress != SuppressSentinel {
		return nil, errSuppress
	}

	c := &Converter{cfg: cfg}
	if cfg.Mapper != nil {
		c.index = cfg.Mapper.Table()
		c.sentinel = cfg.Mapper.Sentinel()
	}

	return c, nil
}

// Mode returns the conversion mode
func (c *Converter) Mode() Mode {
	return c.cfg.Mode
}

// Stride returns the sampling stride
func (c *Converter) Stride() image.Point {
	return c.cfg.Stride
}

// GridSize returns the number of sampled cells for a frame of size r
func (c *Converter) GridSize(r image.Rectangle) image.Point {
	return image.Pt(
		(r.Dx()+c.cfg.Stride.X-1)/c.cfg.Stride.X,
		(r.Dy()+c.cfg.Stride.Y-1)/c.cfg.Stride.Y,
	)
}

func (c *Converter) check(f *frame.Frame) (image.Rectangle, error) {
	if f == nil {
		return image.Rectangle{}, ErrDimensionMismatch
	}

	var r image.Rectangle
	switch c.cfg.Mode {
	case Plain:
		if f.Gray == nil {
			return r, ErrDimensionMismatch
		}
		r = f.Gray.Rect
		if f.Color != nil && f.Color.Rect.Size() != r.Size() {
			return r, ErrDimensionMismatch
		}
	case ColoredGlyph:
		if f.Gray == nil || f.Color == nil || f.Gray.Rect.Size() != f.Color.Rect.Size() {
			return r, ErrDimensionMismatch
		}
		r = f.Gray.Rect
	case ColorBlock:
		if f.Color == nil {
			return r, ErrDimensionMismatch
		}
		r = f.Color.Rect
		if f.Gray != nil && f.Gray.Rect.Size() != r.Size() {
			return r, ErrDimensionMismatch
		}
	}

	return r, nil
}

// Convert samples f and replaces the instructions held by out. The backing
// storage of out is reused so steady-state conversion does not allocate.
// On error out is left empty.
func (c *Converter) Convert(f *frame.Frame, out *Output) error {
	out.Reset()
	out.Mode = c.cfg.Mode
	out.Stride = c.cfg.Stride

	r, err := c.check(f)
	if err != nil {
		return err
	}
	out.Size = c.GridSize(r)

	workers := c.cfg.Workers
	if workers > out.Size.X {
		workers = out.Size.X
	}

	if workers <= 1 {
		out.Instructions = c.columns(f, out.Size, 0, out.Size.X, out.Instructions)
		return nil
	}

	if cap(out.bands) < workers {
		out.bands = make([][]Instruction, workers)
	}
	out.bands = out.bands[:workers]

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			c0 := i * out.Size.X / workers
			c1 := (i + 1) * out.Size.X / workers
			out.bands[i] = c.columns(f, out.Size, c0, c1, out.bands[i][:0])
		}(i)
	}
	wg.Wait()

	for _, band := range out.bands {
		out.Instructions = append(out.Instructions, band...)
	}

	return nil
}

// columns converts the cells in columns [c0, c1) and appends them to dst
func (c *Converter) columns(f *frame.Frame, size image.Point, c0, c1 int, dst []Instruction) []Instruction {
	sx, sy := c.cfg.Stride.X, c.cfg.Stride.Y

	switch c.cfg.Mode {
	case Plain:
		g := f.Gray
		for cx := c0; cx < c1; cx++ {
			o := g.PixOffset(g.Rect.Min.X+cx*sx, g.Rect.Min.Y)
			for cy := 0; cy < size.Y; cy, o = cy+1, o+sy*g.Stride {
				idx := c.index[g.Pix[o]]
				if idx == c.sentinel {
					continue
				}
				dst = append(dst, Instruction{
					Pos:   image.Point{cx, cy},
					Glyph: idx,
				})
			}
		}
	case ColoredGlyph:
		g, m, p := f.Gray, f.Color, c.cfg.Palette
		black := c.cfg.Suppress == SuppressBlack
		for cx := c0; cx < c1; cx++ {
			o := g.PixOffset(g.Rect.Min.X+cx*sx, g.Rect.Min.Y)
			q := m.PixOffset(m.Rect.Min.X+cx*sx, m.Rect.Min.Y)
			for cy := 0; cy < size.Y; cy, o, q = cy+1, o+sy*g.Stride, q+sy*m.Stride {
				idx := c.index[g.Pix[o]]
				if idx == c.sentinel {
					continue
				}
				col := p.Quantize(m.Pix[q], m.Pix[q+1], m.Pix[q+2])
				if black && col.R|col.G|col.B == 0 {
					continue
				}
				dst = append(dst, Instruction{
					Pos:   image.Point{cx, cy},
					Glyph: idx,
					Color: col,
				})
			}
		}
	case ColorBlock:
		m, p := f.Color, c.cfg.Palette
		for cx := c0; cx < c1; cx++ {
			q := m.PixOffset(m.Rect.Min.X+cx*sx, m.Rect.Min.Y)
			for cy := 0; cy < size.Y; cy, q = cy+1, q+sy*m.Stride {
				col := p.Quantize(m.Pix[q], m.Pix[q+1], m.Pix[q+2])
				if col.R|col.G|col.B == 0 {
					continue
				}
				dst = append(dst, Instruction{
					Pos:   image.Point{cx, cy},
					Glyph: NoGlyph,
					Color: col,
				})
			}
		}
	}

	return dst
}
