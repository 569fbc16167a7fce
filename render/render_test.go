package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/bodgit/asciixel/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coverage(m *image.Alpha) int {
	n := 0
	for _, a := range m.Pix {
		if a != 0 {
			n++
		}
	}
	return n
}

func TestFace(t *testing.T) {
	_, err := NewFace(0)
	assert.Error(t, err)

	small, err := NewFace(8)
	require.NoError(t, err)
	defer small.Close()

	large, err := NewFace(24)
	require.NoError(t, err)
	defer large.Close()

	s, l := small.Stride(), large.Stride()
	assert.Positive(t, s.X)
	assert.Greater(t, s.Y, s.X, "glyph cells are taller than wide")
	assert.Greater(t, l.X, s.X)
	assert.Greater(t, l.Y, s.Y)
}

func TestMasks(t *testing.T) {
	f, err := NewFace(16)
	require.NoError(t, err)
	defer f.Close()

	masks := f.Masks([]rune(" .#"))
	require.Len(t, masks, 3)

	for _, m := range masks {
		assert.Equal(t, f.Stride(), m.Rect.Size())
	}
	assert.Zero(t, coverage(masks[0]))
	assert.Positive(t, coverage(masks[1]))
	assert.Greater(t, coverage(masks[2]), coverage(masks[1]))
}

func TestCanvasBlocks(t *testing.T) {
	c := NewCanvas(8, 8, nil, false)

	out := &convert.Output{
		Mode:   convert.ColorBlock,
		Size:   image.Pt(2, 2),
		Stride: image.Pt(4, 4),
		Instructions: []convert.Instruction{
			{Pos: image.Pt(1, 0), Glyph: convert.NoGlyph, Color: color.RGBA{255, 0, 255, 255}},
		},
	}
	require.NoError(t, c.Draw(out))

	img := c.Image()
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(3, 3))
	assert.Equal(t, color.RGBA{255, 0, 255, 255}, img.RGBAAt(4, 0))
	assert.Equal(t, color.RGBA{255, 0, 255, 255}, img.RGBAAt(7, 3))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(4, 4))

	// A redraw clears the previous frame
	out.Instructions = nil
	require.NoError(t, c.Draw(out))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(4, 0))
}

func TestCanvasGlyphs(t *testing.T) {
	f, err := NewFace(16)
	require.NoError(t, err)
	defer f.Close()

	stride := f.Stride()
	masks := f.Masks([]rune(" #"))

	for _, reverse := range []bool{false, true} {
		c := NewCanvas(stride.X*2, stride.Y, masks, reverse)

		out := &convert.Output{
			Mode:   convert.Plain,
			Size:   image.Pt(2, 1),
			Stride: stride,
			Instructions: []convert.Instruction{
				{Pos: image.Pt(1, 0), Glyph: 1},
			},
		}
		require.NoError(t, c.Draw(out))

		bg := c.Background()
		img := c.Image()

		var left, right int
		for y := 0; y < stride.Y; y++ {
			for x := 0; x < stride.X*2; x++ {
				if img.RGBAAt(x, y) != bg {
					if x < stride.X {
						left++
					} else {
						right++
					}
				}
			}
		}
		assert.Zero(t, left)
		assert.Positive(t, right)

		if reverse {
			assert.Equal(t, white, bg)
		} else {
			assert.Equal(t, black, bg)
		}
	}
}

func TestCanvasColoredGlyph(t *testing.T) {
	f, err := NewFace(32)
	require.NoError(t, err)
	defer f.Close()

	stride := f.Stride()
	c := NewCanvas(stride.X, stride.Y, f.Masks([]rune(" #")), false)

	red := color.RGBA{255, 0, 0, 255}
	require.NoError(t, c.Draw(&convert.Output{
		Mode:         convert.ColoredGlyph,
		Size:         image.Pt(1, 1),
		Stride:       stride,
		Instructions: []convert.Instruction{{Glyph: 1, Color: red}},
	}))

	found := false
	img := c.Image()
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] == 255 && img.Pix[i+1] == 0 && img.Pix[i+2] == 0 {
			found = true
			break
		}
	}
	assert.True(t, found, "no fully red pixel drawn")
}

func TestCanvasNeedsMasks(t *testing.T) {
	c := NewCanvas(4, 4, nil, false)
	assert.Error(t, c.Draw(&convert.Output{Mode: convert.Plain, Stride: image.Pt(1, 1)}))
}
