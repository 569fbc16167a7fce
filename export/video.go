package export

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const defaultFPS = 30

// Video pipes raw RGBA frames into ffmpeg, which encodes them with x264.
// ffmpeg is started by the first frame, once the size is known.
type Video struct {
	file  string
	fps   float64
	audio string

	size   image.Point
	w      *io.PipeWriter
	done   chan error
	row    []byte
	closed bool
}

// NewVideo returns an exporter encoding to file at fps frames per second.
// When audio is not empty its audio track, if it has one, is copied into
// the output.
func NewVideo(file string, fps float64, audio string) (*Video, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, err
	}
	if fps <= 0 {
		fps = defaultFPS
	}

	return &Video{
		file:  file,
		fps:   fps,
		audio: audio,
	}, nil
}

func (v *Video) stream(size image.Point) *ffmpeg.Stream {
	video := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", size.X, size.Y),
		"framerate": strconv.FormatFloat(v.fps, 'f', -1, 64),
	})

	args := ffmpeg.KwArgs{
		"vcodec":   "libx264",
		"pix_fmt":  "yuv420p",
		"crf":      "25",
		"loglevel": "error",
		// yuv420p needs even dimensions
		"vf": "pad=ceil(iw/2)*2:ceil(ih/2)*2",
	}

	if v.audio == "" {
		return video.Output(v.file, args).OverWriteOutput()
	}

	// The trailing ? makes the audio track optional
	audio := ffmpeg.Input(v.audio).Get("a?")
	args["acodec"] = "aac"

	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, v.file, args).OverWriteOutput()
}

func (v *Video) start(size image.Point) {
	r, w := io.Pipe()

	cmd := v.stream(size).WithInput(r)

	done := make(chan error, 1)
	go func() {
		err := cmd.Run()
		if err != nil {
			r.CloseWithError(fmt.Errorf("export: ffmpeg: %w", err))
		} else {
			r.CloseWithError(io.ErrClosedPipe)
		}
		done <- err
	}()

	v.size, v.w, v.done = size, w, done
	v.row = make([]byte, size.X*4)
}

// WriteFrame implements Exporter
func (v *Video) WriteFrame(index int, m image.Image) error {
	if v.closed {
		return ErrClosed
	}

	b := m.Bounds()
	if v.w == nil {
		v.start(b.Size())
	} else if b.Size() != v.size {
		return errSizeChanged
	}

	rgba, ok := m.(*image.RGBA)
	if !ok {
		rgba = cloneRGBA(m)
		b = rgba.Rect
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := rgba.PixOffset(b.Min.X, y)
		copy(v.row, rgba.Pix[i:i+len(v.row)])
		if _, err := v.w.Write(v.row); err != nil {
			return err
		}
	}

	return nil
}

// Close ends the input and waits for ffmpeg to finish the file
func (v *Video) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true

	if v.w == nil {
		return nil
	}
	v.w.Close()

	return <-v.done
}
