package asciixel

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/bodgit/asciixel/convert"
	"github.com/bodgit/asciixel/export"
	"github.com/bodgit/asciixel/palette"
	"github.com/bodgit/asciixel/ramp"
)

// Resolution is an optional frame size written as WIDTHxHEIGHT. The zero
// value keeps the source size.
type Resolution struct {
	Width, Height int
}

// Point returns the resolution as a point
func (r Resolution) Point() image.Point {
	return image.Pt(r.Width, r.Height)
}

// IsZero reports whether the source size is kept
func (r Resolution) IsZero() bool {
	return r.Width == 0 && r.Height == 0
}

func (r Resolution) String() string {
	if r.IsZero() {
		return ""
	}
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// ParseResolution parses WIDTHxHEIGHT. An empty string is the zero value.
func ParseResolution(s string) (Resolution, error) {
	if s == "" {
		return Resolution{}, nil
	}

	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return Resolution{}, fmt.Errorf("bad resolution %q", s)
	}

	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return Resolution{}, fmt.Errorf("bad resolution %q", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return Resolution{}, fmt.Errorf("bad resolution %q", s)
	}

	return Resolution{Width: w, Height: h}, nil
}

// MarshalText implements encoding.TextMarshaler
func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Resolution) UnmarshalText(b []byte) error {
	v, err := ParseResolution(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Config holds the settings of one run. It is read once when the runner is
// built.
type Config struct {
	// Source is the path of the video, image or image directory
	Source string `toml:"source"`
	// Ramp selects one of the predefined ramps
	Ramp int `toml:"ramp"`
	// Glyphs, when set, is a custom ramp used instead of Ramp
	Glyphs  string `toml:"glyphs"`
	Reverse bool   `toml:"reverse"`

	Mode     convert.Mode     `toml:"mode"`
	Levels   int              `toml:"levels"`
	Quantize palette.Rule     `toml:"quantize"`
	Suppress convert.Suppress `toml:"suppress"`
	// CellSize is the glyph font size in pixels or the block size
	CellSize int `toml:"cell_size"`
	Workers  int `toml:"workers"`

	DisplayOriginal bool       `toml:"display_original"`
	Resolution      Resolution `toml:"resolution"`

	Record    bool          `toml:"record"`
	Format    export.Format `toml:"format"`
	Output    string        `toml:"output"`
	FPS       float64       `toml:"fps"`
	KeepAudio bool          `toml:"keep_audio"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Ramp:     2,
		Mode:     convert.Plain,
		Levels:   8,
		Quantize: palette.Round,
		Suppress: convert.SuppressBlack,
		CellSize: 12,
		Format:   export.PNG,
		Output:   "outputs",
	}
}

// LoadConfig reads a TOML file over the defaults. Unknown keys are an
// error.
func LoadConfig(file string) (Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(file, &cfg)
	if err != nil {
		return Config{}, &ConfigError{Field: "file", Err: err}
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, &ConfigError{Field: undecoded[0].String(), Err: errors.New("unknown key")}
	}

	return cfg, nil
}

// Validate checks every setting and returns a *ConfigError for the first
// bad one
func (c Config) Validate() error {
	if c.Source == "" {
		return &ConfigError{Field: "source", Err: errors.New("empty path")}
	}

	if c.Glyphs != "" {
		if utf8.RuneCountInString(c.Glyphs) < 2 {
			return &ConfigError{Field: "glyphs", Err: ramp.ErrShort}
		}
	} else if c.Ramp < 0 || c.Ramp >= len(ramp.Ramps) {
		return &ConfigError{Field: "ramp", Err: ramp.ErrUnknown}
	}

	if _, err := convert.ParseMode(c.Mode.String()); err != nil {
		return &ConfigError{Field: "mode", Err: err}
	}
	if c.Levels < palette.MinLevels || c.Levels > palette.MaxLevels {
		return &ConfigError{Field: "levels", Err: palette.ErrLevels}
	}
	if _, err := palette.ParseRule(c.Quantize.String()); err != nil {
		return &ConfigError{Field: "quantize", Err: err}
	}
	if _, err := convert.ParseSuppress(c.Suppress.String()); err != nil {
		return &ConfigError{Field: "suppress", Err: err}
	}
	if c.CellSize < 1 {
		return &ConfigError{Field: "cell_size", Err: errors.New("must be at least 1")}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Err: errors.New("must not be negative")}
	}
	if c.Resolution.Width < 0 || c.Resolution.Height < 0 || (c.Resolution.Width == 0) != (c.Resolution.Height == 0) {
		return &ConfigError{Field: "resolution", Err: fmt.Errorf("bad resolution %dx%d", c.Resolution.Width, c.Resolution.Height)}
	}
	if _, err := export.ParseFormat(c.Format.String()); err != nil {
		return &ConfigError{Field: "format", Err: err}
	}
	if c.Record && c.Output == "" {
		return &ConfigError{Field: "output", Err: errors.New("empty directory")}
	}
	if c.FPS < 0 {
		return &ConfigError{Field: "fps", Err: errors.New("must not be negative")}
	}

	return nil
}

var outputModes = map[convert.Mode]string{
	convert.Plain:        "ASCII",
	convert.ColoredGlyph: "ASCII_COLOUR",
	convert.ColorBlock:   "PIXEL_ART",
}

// Name returns the base name for exported output, built from the source
// file name and the settings that change how frames look
func (c Config) Name() string {
	base := filepath.Base(c.Source)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	fmt.Fprintf(&b, "ASCIIXEL_%s_%s_elSize%d", base, outputModes[c.Mode], c.CellSize)
	if c.Mode.Glyphs() {
		if c.Glyphs != "" {
			b.WriteString("_asciiPalCustom")
		} else {
			fmt.Fprintf(&b, "_asciiPal%d", c.Ramp)
		}
	}
	if c.Mode.Colors() {
		fmt.Fprintf(&b, "_colourLvl%d", c.Levels)
	}

	return b.String()
}
