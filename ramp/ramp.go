/*
Package ramp implements the density mapping from brightness to glyph.

A ramp is an ordered run of glyphs from the sparsest, which is drawn as
background and never emitted, to the densest. Brightness values in the range
0 to 255 are spread evenly over the ramp. A reversed mapper flips the ramp
so that the sparsest glyph sits at the far end, which is then the background
sentinel.
*/
package ramp

import (
	"errors"
	"fmt"
	"strings"
)

const maxBrightness = 255

// Predefined ramps, sparsest glyph first
var Ramps = []string{
	" .'`^\",:;Il!i><~+_-?][}{1)(|\\/tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$",
	" _.,-=+:;cba!?0123456789$W#@Ñ",
	" ixzao*#MW&8%B@$",
	" .\",:;!~+-xmo*#W&8@",
	"  12345678#@",
	" _.,-=+:;cba!?0123456789$W#@Ñ" + strings.Repeat("Ñ", 10),
}

var (
	// ErrUnknown is returned for a ramp index outside Ramps
	ErrUnknown = errors.New("ramp: unknown ramp")
	// ErrShort is returned for a ramp with fewer than two glyphs
	ErrShort = errors.New("ramp: need at least two glyphs")
)

// Mapper converts brightness to an index into its glyph ramp. It is
// immutable once built.
type Mapper struct {
	glyphs   []rune
	reverse  bool
	sentinel int
}

// New returns the mapper for the predefined ramp at index
func New(index int, reverse bool) (*Mapper, error) {
	if index < 0 || index >= len(Ramps) {
		return nil, fmt.Errorf("%w: %d", ErrUnknown, index)
	}
	return NewMapper(Ramps[index], reverse)
}

// NewMapper returns a mapper for an arbitrary ramp ordered sparsest first
func NewMapper(glyphs string, reverse bool) (*Mapper, error) {
	r := []rune(glyphs)
	if len(r) < 2 {
		return nil, ErrShort
	}

	m := &Mapper{
		glyphs:  r,
		reverse: reverse,
	}

	if reverse {
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		m.sentinel = len(r) - 1
	}

	return m, nil
}

// Len returns the number of glyphs in the ramp
func (m *Mapper) Len() int {
	return len(m.glyphs)
}

// Glyphs returns a copy of the possibly reversed ramp
func (m *Mapper) Glyphs() []rune {
	return append([]rune(nil), m.glyphs...)
}

// Glyph returns the glyph at index i
func (m *Mapper) Glyph(i int) rune {
	return m.glyphs[i]
}

// Sentinel returns the background index that is never drawn
func (m *Mapper) Sentinel() int {
	return m.sentinel
}

// Coeff returns the brightness to index scale, (L-1)/255
func (m *Mapper) Coeff() float64 {
	return float64(len(m.glyphs)-1) / maxBrightness
}

// Index returns the ramp index for brightness b. Integer arithmetic keeps
// values that land exactly on a ramp boundary on the upper index.
func (m *Mapper) Index(b uint8) int {
	i := int(b) * (len(m.glyphs) - 1) / maxBrightness
	if m.reverse {
		return len(m.glyphs) - 1 - i
	}
	return i
}

// Table returns the index for every brightness value. The converter uses
// it to avoid the division in its inner loop.
func (m *Mapper) Table() [maxBrightness + 1]int {
	var t [maxBrightness + 1]int
	for b := range t {
		t[b] = m.Index(uint8(b))
	}
	return t
}
