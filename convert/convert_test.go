package convert

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/bodgit/asciixel/frame"
	"github.com/bodgit/asciixel/palette"
	"github.com/bodgit/asciixel/ramp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayFrame(t *testing.T, cols [][]uint8) *frame.Frame {
	t.Helper()
	f := &frame.Frame{Gray: image.NewGray(image.Rect(0, 0, len(cols), len(cols[0])))}
	for x, col := range cols {
		for y, v := range col {
			f.Gray.SetGray(x, y, color.Gray{v})
		}
	}
	return f
}

func randomFrame(w, h int, seed int64) *frame.Frame {
	rnd := rand.New(rand.NewSource(seed))
	f := frame.New(w, h)
	rnd.Read(f.Color.Pix)
	for i := 3; i < len(f.Color.Pix); i += 4 {
		f.Color.Pix[i] = 0xff
	}
	f.UpdateGray()
	return f
}

func newConverter(t *testing.T, cfg Config) *Converter {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestPlainScenario(t *testing.T) {
	m, err := ramp.NewMapper(" .*#", false)
	require.NoError(t, err)

	c := newConverter(t, Config{Mode: Plain, Mapper: m, Stride: image.Pt(1, 1)})

	// Indexed [x][y]
	f := grayFrame(t, [][]uint8{{0, 85}, {170, 255}})

	var out Output
	require.NoError(t, c.Convert(f, &out))

	assert.Equal(t, Plain, out.Mode)
	assert.Equal(t, image.Pt(2, 2), out.Size)
	assert.Equal(t, []Instruction{
		{Pos: image.Pt(0, 1), Glyph: 1},
		{Pos: image.Pt(1, 0), Glyph: 2},
		{Pos: image.Pt(1, 1), Glyph: 3},
	}, out.Instructions)
}

func TestReversedScenario(t *testing.T) {
	m, err := ramp.NewMapper(" .*#", true)
	require.NoError(t, err)
	require.Equal(t, 3, m.Sentinel())

	c := newConverter(t, Config{Mode: Plain, Mapper: m, Stride: image.Pt(1, 1)})
	f := grayFrame(t, [][]uint8{{0, 85}, {170, 255}})

	var out Output
	require.NoError(t, c.Convert(f, &out))

	assert.Equal(t, []Instruction{
		{Pos: image.Pt(0, 1), Glyph: 2},
		{Pos: image.Pt(1, 0), Glyph: 1},
		{Pos: image.Pt(1, 1), Glyph: 0},
	}, out.Instructions)
}

func TestStride(t *testing.T) {
	m, err := ramp.NewMapper(" #", false)
	require.NoError(t, err)

	c := newConverter(t, Config{Mode: Plain, Mapper: m, Stride: image.Pt(2, 3)})

	f := &frame.Frame{Gray: image.NewGray(image.Rect(0, 0, 5, 7))}
	for i := range f.Gray.Pix {
		f.Gray.Pix[i] = 255
	}
	// Not on a sampled site
	f.Gray.SetGray(0, 0, color.Gray{0})
	f.Gray.SetGray(1, 1, color.Gray{0})

	var out Output
	require.NoError(t, c.Convert(f, &out))

	assert.Equal(t, image.Pt(3, 3), out.Size)
	assert.Equal(t, image.Pt(2, 3), out.Stride)
	require.Len(t, out.Instructions, 8)
	assert.Equal(t, image.Pt(0, 1), out.Instructions[0].Pos)
	assert.Equal(t, image.Pt(2, 2), out.Instructions[7].Pos)
}

func TestSubImage(t *testing.T) {
	m, err := ramp.NewMapper(" #", false)
	require.NoError(t, err)
	c := newConverter(t, Config{Mode: Plain, Mapper: m, Stride: image.Pt(1, 1)})

	g := image.NewGray(image.Rect(0, 0, 4, 4))
	g.SetGray(2, 3, color.Gray{255})
	f := &frame.Frame{Gray: g.SubImage(image.Rect(2, 2, 4, 4)).(*image.Gray)}

	var out Output
	require.NoError(t, c.Convert(f, &out))
	assert.Equal(t, []Instruction{{Pos: image.Pt(0, 1), Glyph: 1}}, out.Instructions)
}

func TestColoredGlyphSuppression(t *testing.T) {
	m, err := ramp.NewMapper(" .*#", false)
	require.NoError(t, err)
	p, err := palette.New(2, palette.Round)
	require.NoError(t, err)

	f := frame.New(3, 1)
	// Bright enough for a glyph but every channel rounds down to 0
	f.Color.SetRGBA(0, 0, color.RGBA{120, 120, 120, 255})
	f.Gray.SetGray(0, 0, color.Gray{120})
	// Background glyph
	f.Color.SetRGBA(1, 0, color.RGBA{255, 0, 0, 255})
	f.Gray.SetGray(1, 0, color.Gray{10})
	// Drawn in both rules
	f.Color.SetRGBA(2, 0, color.RGBA{200, 10, 130, 255})
	f.Gray.SetGray(2, 0, color.Gray{255})

	var out Output

	c := newConverter(t, Config{Mode: ColoredGlyph, Mapper: m, Palette: p, Stride: image.Pt(1, 1), Suppress: SuppressBlack})
	require.NoError(t, c.Convert(f, &out))
	assert.Equal(t, []Instruction{
		{Pos: image.Pt(2, 0), Glyph: 3, Color: color.RGBA{255, 0, 255, 255}},
	}, out.Instructions)

	c = newConverter(t, Config{Mode: ColoredGlyph, Mapper: m, Palette: p, Stride: image.Pt(1, 1), Suppress: SuppressSentinel})
	require.NoError(t, c.Convert(f, &out))
	assert.Equal(t, []Instruction{
		{Pos: image.Pt(0, 0), Glyph: 1, Color: color.RGBA{0, 0, 0, 255}},
		{Pos: image.Pt(2, 0), Glyph: 3, Color: color.RGBA{255, 0, 255, 255}},
	}, out.Instructions)
}

func TestColoredGlyphRules(t *testing.T) {
	m, err := ramp.NewMapper(" #", false)
	require.NoError(t, err)

	f := frame.New(1, 1)
	f.Color.SetRGBA(0, 0, color.RGBA{212, 43, 84, 255})
	f.Gray.SetGray(0, 0, color.Gray{255})

	tables := []struct {
		rule palette.Rule
		want color.RGBA
	}{
		{palette.Round, color.RGBA{170, 85, 85, 255}},
		{palette.Floor, color.RGBA{170, 0, 0, 255}},
	}

	for _, table := range tables {
		p, err := palette.New(4, table.rule)
		require.NoError(t, err)

		c := newConverter(t, Config{Mode: ColoredGlyph, Mapper: m, Palette: p, Stride: image.Pt(1, 1), Suppress: SuppressSentinel})

		var out Output
		require.NoError(t, c.Convert(f, &out))
		require.Len(t, out.Instructions, 1)
		assert.Equal(t, table.want, out.Instructions[0].Color, table.rule.String())
	}
}

func TestColorBlockScenario(t *testing.T) {
	p, err := palette.New(2, palette.Round)
	require.NoError(t, err)

	c := newConverter(t, Config{Mode: ColorBlock, Palette: p, Stride: image.Pt(1, 1)})

	f := &frame.Frame{Color: image.NewRGBA(image.Rect(0, 0, 2, 1))}
	f.Color.SetRGBA(0, 0, color.RGBA{130, 10, 250, 255})
	f.Color.SetRGBA(1, 0, color.RGBA{127, 127, 127, 255})

	var out Output
	require.NoError(t, c.Convert(f, &out))
	assert.Equal(t, []Instruction{
		{Pos: image.Pt(0, 0), Glyph: NoGlyph, Color: color.RGBA{255, 0, 255, 255}},
	}, out.Instructions)
}

func TestColorBlockNeverBlack(t *testing.T) {
	for _, n := range []int{2, 3, 8} {
		p, err := palette.New(n, palette.Floor)
		require.NoError(t, err)

		c := newConverter(t, Config{Mode: ColorBlock, Palette: p, Stride: image.Pt(3, 3)})

		var out Output
		require.NoError(t, c.Convert(randomFrame(64, 48, int64(n)), &out))
		for _, in := range out.Instructions {
			assert.NotEqual(t, color.RGBA{0, 0, 0, 255}, in.Color)
			assert.Equal(t, NoGlyph, in.Glyph)
		}
	}
}

func TestDimensionMismatch(t *testing.T) {
	m, err := ramp.New(0, false)
	require.NoError(t, err)
	p, err := palette.New(4, palette.Round)
	require.NoError(t, err)

	f := &frame.Frame{
		Color: image.NewRGBA(image.Rect(0, 0, 4, 4)),
		Gray:  image.NewGray(image.Rect(0, 0, 4, 5)),
	}

	for _, mode := range []Mode{Plain, ColoredGlyph, ColorBlock} {
		c := newConverter(t, Config{Mode: mode, Mapper: m, Palette: p, Stride: image.Pt(1, 1)})

		out := Output{Instructions: []Instruction{{Glyph: 1}}}
		assert.ErrorIs(t, c.Convert(f, &out), ErrDimensionMismatch, mode.String())
		assert.Empty(t, out.Instructions)
	}

	c := newConverter(t, Config{Mode: ColoredGlyph, Mapper: m, Palette: p, Stride: image.Pt(1, 1)})
	var out Output
	assert.ErrorIs(t, c.Convert(&frame.Frame{Gray: image.NewGray(image.Rect(0, 0, 1, 1))}, &out), ErrDimensionMismatch)
	assert.ErrorIs(t, c.Convert(nil, &out), ErrDimensionMismatch)
}

func TestNewErrors(t *testing.T) {
	m, err := ramp.New(0, false)
	require.NoError(t, err)
	p, err := palette.New(4, palette.Round)
	require.NoError(t, err)

	tables := []Config{
		{Mode: Plain, Mapper: m, Stride: image.Pt(0, 1)},
		{Mode: Plain, Stride: image.Pt(1, 1)},
		{Mode: ColoredGlyph, Mapper: m, Stride: image.Pt(1, 1)},
		{Mode: ColorBlock, Palette: p, Stride: image.Pt(2, 3)},
		{Mode: Mode(7), Mapper: m, Palette: p, Stride: image.Pt(1, 1)},
		{Mode: Plain, Mapper: m, Stride: image.Pt(1, 1), Suppress: Suppress(5)},
	}
	for i, cfg := range tables {
		_, err := New(cfg)
		assert.Error(t, err, "config %d", i)
	}
}

func TestDeterministic(t *testing.T) {
	m, err := ramp.New(0, false)
	require.NoError(t, err)
	p, err := palette.New(6, palette.Round)
	require.NoError(t, err)

	f := randomFrame(97, 61, 42)

	for _, mode := range []Mode{Plain, ColoredGlyph, ColorBlock} {
		c := newConverter(t, Config{Mode: mode, Mapper: m, Palette: p, Stride: image.Pt(2, 2)})

		var a, b Output
		require.NoError(t, c.Convert(f, &a))
		require.NoError(t, c.Convert(f, &b))

		ab, err := a.MarshalBinary()
		require.NoError(t, err)
		bb, err := b.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, ab, bb, mode.String())
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	m, err := ramp.New(1, true)
	require.NoError(t, err)
	p, err := palette.New(5, palette.Floor)
	require.NoError(t, err)

	f := randomFrame(131, 77, 7)

	for _, mode := range []Mode{Plain, ColoredGlyph, ColorBlock} {
		serial := newConverter(t, Config{Mode: mode, Mapper: m, Palette: p, Stride: image.Pt(3, 3)})

		var want Output
		require.NoError(t, serial.Convert(f, &want))

		for _, workers := range []int{2, 3, 8, 1000} {
			parallel := newConverter(t, Config{Mode: mode, Mapper: m, Palette: p, Stride: image.Pt(3, 3), Workers: workers})

			var got Output
			require.NoError(t, parallel.Convert(f, &got))
			assert.Equal(t, want.Instructions, got.Instructions, "%s workers=%d", mode, workers)
			assert.Equal(t, want.Size, got.Size)
		}
	}
}

func TestReuseStorage(t *testing.T) {
	m, err := ramp.New(2, false)
	require.NoError(t, err)
	c := newConverter(t, Config{Mode: Plain, Mapper: m, Stride: image.Pt(1, 1)})

	f := randomFrame(32, 32, 1)

	var out Output
	require.NoError(t, c.Convert(f, &out))
	first := &out.Instructions[:1][0]

	require.NoError(t, c.Convert(f, &out))
	assert.Same(t, first, &out.Instructions[:1][0])
}

func TestMarshalBinary(t *testing.T) {
	m, err := ramp.New(0, false)
	require.NoError(t, err)
	p, err := palette.New(3, palette.Round)
	require.NoError(t, err)

	for _, mode := range []Mode{Plain, ColoredGlyph, ColorBlock} {
		c := newConverter(t, Config{Mode: mode, Mapper: m, Palette: p, Stride: image.Pt(4, 4)})

		var out Output
		require.NoError(t, c.Convert(randomFrame(40, 30, 3), &out))

		b, err := out.MarshalBinary()
		require.NoError(t, err)

		var dup Output
		require.NoError(t, dup.UnmarshalBinary(b))
		assert.Equal(t, out.Clone(), dup.Clone())
	}

	var o Output
	assert.Error(t, o.UnmarshalBinary([]byte{1, 2, 3}))
}

func BenchmarkConvert(b *testing.B) {
	m, _ := ramp.New(0, false)
	p, _ := palette.New(8, palette.Round)
	f := randomFrame(1280, 720, 1)

	for _, mode := range []Mode{Plain, ColoredGlyph, ColorBlock} {
		c, err := New(Config{Mode: mode, Mapper: m, Palette: p, Stride: image.Pt(2, 2)})
		if err != nil {
			b.Fatal(err)
		}
		b.Run(mode.String(), func(b *testing.B) {
			var out Output
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := c.Convert(f, &out); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
