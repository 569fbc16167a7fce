package source

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bodgit/asciixel/frame"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Images decodes a list of image files, one frame per file
type Images struct {
	files      []string
	resolution image.Point
	next       int
}

// NewImages returns a source reading files in the given order
func NewImages(files []string, resolution image.Point) (*Images, error) {
	if len(files) == 0 {
		return nil, ErrNoFrames
	}
	return &Images{
		files:      append([]string(nil), files...),
		resolution: resolution,
	}, nil
}

// NewSequence reads every image in dir in name order
func NewSequence(dir string, resolution image.Point) (*Images, error) {
	d, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	names, err := d.Readdirnames(0)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var files []string
	for _, name := range names {
		// Ignore any hidden files
		if name[0] == '.' {
			continue
		}
		if hasExtension(name, ImageExtensions) {
			files = append(files, filepath.Join(dir, name))
		}
	}

	return NewImages(files, resolution)
}

func decodeFile(file string) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	return m, err
}

// Next implements Source
func (s *Images) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.files) {
		return nil, io.EOF
	}

	file := s.files[s.next]
	m, err := decodeFile(file)
	if err != nil {
		return nil, fmt.Errorf("source: decoding %s: %w", file, err)
	}
	s.next++

	if s.resolution.X > 0 && s.resolution.Y > 0 {
		m = imaging.Resize(m, s.resolution.X, s.resolution.Y, imaging.Box)
	}

	return frame.FromImage(m), nil
}

// Rewind implements Source
func (s *Images) Rewind() error {
	s.next = 0
	return nil
}

// Close implements Source
func (s *Images) Close() error {
	return nil
}
