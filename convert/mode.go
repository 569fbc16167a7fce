package convert

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errMode     = errors.New("convert: unknown mode")
	errSuppress = errors.New("convert: unknown suppression rule")
)

// Mode selects what the converter emits for each sampled site
type Mode int

const (
	// Plain emits a glyph index per site
	Plain Mode = iota
	// ColoredGlyph emits a glyph index and a quantized colour per site
	ColoredGlyph
	// ColorBlock emits a quantized colour per site
	ColorBlock
)

var modeNames = map[Mode]string{
	Plain:        "plain",
	ColoredGlyph: "colored_glyph",
	ColorBlock:   "color_block",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Glyphs reports whether the mode draws glyphs from a ramp
func (m Mode) Glyphs() bool {
	return m == Plain || m == ColoredGlyph
}

// Colors reports whether the mode quantizes colours
func (m Mode) Colors() bool {
	return m == ColoredGlyph || m == ColorBlock
}

// ParseMode returns the Mode named by s. The output type names
// "ascii", "ascii_colour" and "pixel_art" used in output file names are
// accepted too.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "plain", "ascii", "":
		return Plain, nil
	case "colored_glyph", "colored", "ascii_colour", "ascii_color":
		return ColoredGlyph, nil
	case "color_block", "block", "pixel_art":
		return ColorBlock, nil
	}
	return 0, fmt.Errorf("%w: %q", errMode, s)
}

// MarshalText implements encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	s, ok := modeNames[m]
	if !ok {
		return nil, errMode
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Suppress selects when a coloured glyph is left out of the output
type Suppress int

const (
	// SuppressBlack drops sites on the background glyph and sites whose
	// quantized colour is black
	SuppressBlack Suppress = iota
	// SuppressSentinel drops sites on the background glyph only
	SuppressSentinel
)

func (s Suppress) String() string {
	switch s {
	case SuppressBlack:
		return "black"
	case SuppressSentinel:
		return "sentinel"
	}
	return fmt.Sprintf("Suppress(%d)", int(s))
}

// ParseSuppress returns the Suppress named by s
func ParseSuppress(s string) (Suppress, error) {
	switch strings.ToLower(s) {
	case "black", "":
		return SuppressBlack, nil
	case "sentinel":
		return SuppressSentinel, nil
	}
	return 0, fmt.Errorf("%w: %q", errSuppress, s)
}

// MarshalText implements encoding.TextMarshaler
func (s Suppress) MarshalText() ([]byte, error) {
	if s != SuppressBlack && s != SuppressSentinel {
		return nil, errSuppress
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Suppress) UnmarshalText(b []byte) error {
	v, err := ParseSuppress(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
