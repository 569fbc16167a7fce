/*
Package source implements frame sources: video files decoded by ffmpeg,
still images and image sequences decoded in process, and an in-memory
source for tests and embedding.

Every source returns io.EOF from Next once it runs out of frames and can be
rewound to start again from its first frame.
*/
package source

import (
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/asciixel/frame"
)

// ErrNoFrames is returned when a source has nothing to read
var ErrNoFrames = errors.New("source: no frames")

// VideoExtensions are opened with the ffmpeg source
var VideoExtensions = []string{".mp4", ".mov", ".mkv", ".avi", ".webm", ".m4v"}

// ImageExtensions are decoded in process
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// Source yields frames until it returns io.EOF
type Source interface {
	Next(ctx context.Context) (*frame.Frame, error)
	Rewind() error
	Close() error
}

func hasExtension(file string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(file))
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// Open picks a source for path. A directory is read as an image sequence
// in name order, a video file is decoded with ffmpeg and anything else is
// treated as a single still image. A non-zero resolution resizes every
// frame.
func Open(path string, resolution image.Point) (Source, error) {
	if path == "" {
		return nil, errors.New("source: empty path")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var s Source
	switch {
	case info.IsDir():
		s, err = NewSequence(path, resolution)
	case hasExtension(path, VideoExtensions):
		s, err = NewVideo(path, resolution)
	default:
		s, err = NewImages([]string{path}, resolution)
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Slice is an in-memory source
type Slice struct {
	frames []*frame.Frame
	next   int
}

// NewSlice returns a source yielding frames in order
func NewSlice(frames ...*frame.Frame) *Slice {
	return &Slice{frames: frames}
}

// Next implements Source
func (s *Slice) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

// Rewind implements Source
func (s *Slice) Rewind() error {
	s.next = 0
	return nil
}

// Close implements Source
func (s *Slice) Close() error {
	return nil
}
