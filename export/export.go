/*
Package export writes rendered frames out as a numbered PNG sequence, an
animated GIF or a video encoded by ffmpeg.

Frames are passed to WriteFrame in order. Implementations copy what they
need before returning, so the caller may reuse the image for the next
frame. Close flushes anything pending and reports the first error seen.
*/
package export

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/bodgit/asciixel/palette"
)

var (
	// ErrClosed is returned when writing to a closed exporter
	ErrClosed = errors.New("export: exporter closed")

	errSizeChanged = errors.New("export: frame size changed")
)

// Exporter receives rendered frames
type Exporter interface {
	WriteFrame(index int, m image.Image) error
	Close() error
}

// Format selects the exporter built by New
type Format int

const (
	// PNG writes one file per frame
	PNG Format = iota
	// GIF writes a single animated image
	GIF
	// MP4 encodes a video with ffmpeg
	MP4
)

var formatNames = map[Format]string{
	PNG: "png",
	GIF: "gif",
	MP4: "mp4",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the format named s
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("export: unknown format %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Filename returns the path of frame index in a sequence called name
func Filename(dir, name string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%05d.png", name, index))
}

// Options configure New
type Options struct {
	// Dir is where output is written
	Dir string
	// Name is the base name of the output
	Name string
	// FPS is the frame rate of animated output
	FPS float64
	// Audio, when set, is a file whose audio track is copied into video
	// output
	Audio string
	// Workers is the number of PNG encoders, zero means one
	Workers int
	// Palette, when set, is used as the fixed colour table of GIF output
	Palette *palette.Palette
}

// New returns an exporter for format f. The output directory is created if
// needed.
func New(f Format, o Options) (Exporter, error) {
	var (
		e   Exporter
		err error
	)

	switch f {
	case PNG:
		e, err = NewSequence(o.Dir, o.Name, o.Workers)
	case GIF:
		e, err = NewGIF(filepath.Join(o.Dir, o.Name+".gif"), o.FPS, o.Palette)
	case MP4:
		e, err = NewVideo(filepath.Join(o.Dir, o.Name+".mp4"), o.FPS, o.Audio)
	default:
		return nil, fmt.Errorf("export: unknown format %v", f)
	}
	if err != nil {
		return nil, err
	}

	return e, nil
}

func cloneRGBA(m image.Image) *image.RGBA {
	b := m.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := m.(*image.RGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[i:i+b.Dx()*4])
		}
		return dst
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, m.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
