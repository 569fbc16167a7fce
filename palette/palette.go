/*
Package palette implements the uniform colour palettes used by the coloured
glyph and colour block conversions.

A palette of level N splits every channel into N evenly spaced levels
spanning 0 to 255 inclusive, giving N*N*N colours in total. Raw channel
values are snapped to a level with one of two rules: Round picks the closest
level, Floor picks the closest level that is not brighter than the input.
The snapping is precomputed into a 256 entry table per palette so applying
it is a single lookup per channel.
*/
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
)

const (
	// MinLevels is the smallest usable number of levels per channel
	MinLevels = 2
	// MaxLevels is the largest number of levels that still yields
	// distinct 8-bit values for every level
	MaxLevels = 256

	maxChannel = 255
)

// ErrLevels is returned when the number of levels is outside the
// supported range
var ErrLevels = fmt.Errorf("palette: levels must be between %d and %d", MinLevels, MaxLevels)

var errRule = errors.New("palette: unknown quantization rule")

// Rule selects how a raw channel value is snapped to a level
type Rule int

const (
	// Round snaps to the nearest level
	Round Rule = iota
	// Floor snaps to the nearest level at or below the value
	Floor
)

func (r Rule) String() string {
	switch r {
	case Round:
		return "round"
	case Floor:
		return "floor"
	default:
		return fmt.Sprintf("Rule(%d)", int(r))
	}
}

// ParseRule returns the Rule named by s
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(s) {
	case "round", "":
		return Round, nil
	case "floor":
		return Floor, nil
	}
	return 0, fmt.Errorf("%w: %q", errRule, s)
}

// MarshalText implements encoding.TextMarshaler
func (r Rule) MarshalText() ([]byte, error) {
	if r != Round && r != Floor {
		return nil, errRule
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Rule) UnmarshalText(b []byte) error {
	v, err := ParseRule(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Palette is an immutable uniform colour palette
type Palette struct {
	n      int
	rule   Rule
	levels []uint8

	// bucket and value for every possible channel value
	bucket [maxChannel + 1]uint8
	value  [maxChannel + 1]uint8
}

// New builds the palette with n levels per channel using the given rule
func New(n int, rule Rule) (*Palette, error) {
	if n < MinLevels || n > MaxLevels {
		return nil, ErrLevels
	}
	if rule != Round && rule != Floor {
		return nil, errRule
	}

	p := &Palette{
		n:      n,
		rule:   rule,
		levels: make([]uint8, n),
	}

	for k := range p.levels {
		p.levels[k] = uint8(k * maxChannel / (n - 1))
	}

	k := 0
	for c := 0; c <= maxChannel; c++ {
		switch rule {
		case Round:
			// There is never an exact tie as 255 is odd
			k = (2*c*(n-1) + maxChannel) / (2 * maxChannel)
		case Floor:
			for k+1 < n && int(p.levels[k+1]) <= c {
				k++
			}
		}
		p.bucket[c] = uint8(k)
		p.value[c] = p.levels[k]
	}

	return p, nil
}

// Levels returns the number of levels per channel
func (p *Palette) Levels() int {
	return p.n
}

// Rule returns the quantization rule of the palette
func (p *Palette) Rule() Rule {
	return p.rule
}

// Values returns a copy of the channel levels in increasing order
func (p *Palette) Values() []uint8 {
	return append([]uint8(nil), p.levels...)
}

// Step returns the integer bucket width, 255/(N-1), never less than one
func (p *Palette) Step() int {
	if s := maxChannel / (p.n - 1); s > 0 {
		return s
	}
	return 1
}

// Len returns the number of colours in the palette
func (p *Palette) Len() int {
	return p.n * p.n * p.n
}

// Channel snaps a single channel value
func (p *Palette) Channel(c uint8) uint8 {
	return p.value[c]
}

// Quantize snaps each channel of the colour independently
func (p *Palette) Quantize(r, g, b uint8) color.RGBA {
	return color.RGBA{p.value[r], p.value[g], p.value[b], 0xff}
}

// Index returns the position within Colors of the quantized colour
func (p *Palette) Index(r, g, b uint8) int {
	return (int(p.bucket[r])*p.n+int(p.bucket[g]))*p.n + int(p.bucket[b])
}

// Colors returns every colour of the palette, red varying slowest
func (p *Palette) Colors() color.Palette {
	cp := make(color.Palette, 0, p.Len())
	for _, r := range p.levels {
		for _, g := range p.levels {
			for _, b := range p.levels {
				cp = append(cp, color.RGBA{r, g, b, 0xff})
			}
		}
	}
	return cp
}
