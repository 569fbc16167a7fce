/*
Package terminal implements a live preview render target on a tcell screen.

Every instruction occupies one character cell. Glyphs are drawn as
themselves, colour blocks as a space with the block colour as background.
When the original frame is shown it takes the right half of the screen and
is drawn with upper half block characters, two source rows per cell.
*/
package terminal

import (
	"context"
	"errors"
	"image"

	"github.com/bodgit/asciixel/convert"
	"github.com/bodgit/asciixel/frame"
	"github.com/bodgit/asciixel/ramp"
	"github.com/disintegration/imaging"
	"github.com/gdamore/tcell/v2"
)

const upperHalfBlock = '▀'

var errNoMapper = errors.New("terminal: glyph output without a density mapper")

// Screen draws instruction lists on a terminal
type Screen struct {
	screen   tcell.Screen
	mapper   *ramp.Mapper
	style    tcell.Style
	original *image.NRGBA
	split    bool
	closed   bool
}

// New initialises s and returns a preview target drawing glyphs from m. m
// may be nil when only colour blocks are drawn. When split is true the
// right half of the screen is kept for the original frame.
func New(s tcell.Screen, m *ramp.Mapper, reverse, split bool) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	t := &Screen{
		screen: s,
		mapper: m,
		style:  tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite),
		split:  split,
	}
	if reverse {
		t.style = tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
	}

	return t, nil
}

// Size returns the number of cells available to the converted output
func (t *Screen) Size() image.Point {
	w, h := t.screen.Size()
	if t.split {
		w /= 2
	}
	return image.Pt(w, h)
}

// SetOriginal scales f to fit the right half of the screen. It is drawn
// by the next call to Draw.
func (t *Screen) SetOriginal(f *frame.Frame) {
	if !t.split || f == nil || f.Color == nil {
		return
	}
	w, h := t.screen.Size()
	w -= w / 2
	if w < 1 || h < 1 {
		t.original = nil
		return
	}
	t.original = imaging.Resize(f.Color, w, h*2, imaging.Box)
}

// Draw clears the screen, paints out and shows the result
func (t *Screen) Draw(out *convert.Output) error {
	if out.Mode.Glyphs() && t.mapper == nil {
		return errNoMapper
	}

	t.screen.Fill(' ', t.style)

	size := t.Size()
	for _, in := range out.Instructions {
		if in.Pos.X >= size.X || in.Pos.Y >= size.Y {
			continue
		}

		switch out.Mode {
		case convert.Plain:
			t.screen.SetContent(in.Pos.X, in.Pos.Y, t.mapper.Glyph(in.Glyph), nil, t.style)
		case convert.ColoredGlyph:
			c := tcell.NewRGBColor(int32(in.Color.R), int32(in.Color.G), int32(in.Color.B))
			t.screen.SetContent(in.Pos.X, in.Pos.Y, t.mapper.Glyph(in.Glyph), nil, t.style.Foreground(c))
		case convert.ColorBlock:
			c := tcell.NewRGBColor(int32(in.Color.R), int32(in.Color.G), int32(in.Color.B))
			t.screen.SetContent(in.Pos.X, in.Pos.Y, ' ', nil, t.style.Background(c))
		}
	}

	if t.original != nil {
		t.drawOriginal(size.X)
	}

	t.screen.Show()

	return nil
}

func (t *Screen) drawOriginal(x0 int) {
	b := t.original.Bounds()
	for y := 0; y+1 < b.Dy(); y += 2 {
		for x := 0; x < b.Dx(); x++ {
			top := t.original.PixOffset(x, y)
			bottom := t.original.PixOffset(x, y+1)
			p := t.original.Pix
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(p[top]), int32(p[top+1]), int32(p[top+2]))).
				Background(tcell.NewRGBColor(int32(p[bottom]), int32(p[bottom+1]), int32(p[bottom+2])))
			t.screen.SetContent(x0+x, y/2, upperHalfBlock, nil, style)
		}
	}
}

// WatchKeys calls cancel when Escape, q or Ctrl-C is pressed. It returns
// once the screen is closed.
func (t *Screen) WatchKeys(cancel context.CancelFunc) {
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				cancel()
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

// Close restores the terminal. It is safe to call more than once.
func (t *Screen) Close() error {
	if !t.closed {
		t.closed = true
		t.screen.Fini()
	}
	return nil
}
