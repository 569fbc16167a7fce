package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"github.com/bodgit/asciixel/frame"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

var errNoVideoStream = errors.New("source: no video stream")

type probeResult struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
}

func parseRate(s string) float64 {
	parts := strings.Split(s, "/")
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return num
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}

// Info describes the first video stream of a file
type Info struct {
	Width  int
	Height int
	FPS    float64
}

// Probe asks ffprobe for the dimensions and frame rate of file
func Probe(file string) (Info, error) {
	s, err := ffmpeg.Probe(file)
	if err != nil {
		return Info{}, fmt.Errorf("source: probing %s: %w", file, err)
	}

	var p probeResult
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return Info{}, err
	}

	for _, stream := range p.Streams {
		if stream.CodecType != "video" {
			continue
		}
		info := Info{
			Width:  stream.Width,
			Height: stream.Height,
			FPS:    parseRate(stream.AvgFrameRate),
		}
		if info.FPS == 0 {
			info.FPS = parseRate(stream.RFrameRate)
		}
		if info.Width > 0 && info.Height > 0 {
			return info, nil
		}
	}

	return Info{}, errNoVideoStream
}

// Video decodes a video file with ffmpeg into raw RGB frames
type Video struct {
	file   string
	info   Info
	size   image.Point
	buf    []byte
	cancel context.CancelFunc
	r      *io.PipeReader
	done   chan error
}

// NewVideo probes file and returns a source for it. Decoding starts with
// the first call to Next. A non-zero resolution has ffmpeg scale every
// frame.
func NewVideo(file string, resolution image.Point) (*Video, error) {
	info, err := Probe(file)
	if err != nil {
		return nil, err
	}

	v := &Video{
		file: file,
		info: info,
		size: image.Pt(info.Width, info.Height),
	}
	if resolution.X > 0 && resolution.Y > 0 {
		v.size = resolution
	}
	v.buf = make([]byte, v.size.X*v.size.Y*3)

	return v, nil
}

// Info returns the probed stream details
func (v *Video) Info() Info {
	return v.info
}

// FPS returns the frame rate of the source, used when exporting
func (v *Video) FPS() float64 {
	return v.info.FPS
}

func (v *Video) start() {
	ctx, cancel := context.WithCancel(context.Background())
	r, w := io.Pipe()

	cmd := ffmpeg.Input(v.file).
		Output("pipe:1", ffmpeg.KwArgs{
			"format":   "rawvideo",
			"pix_fmt":  "rgb24",
			"s":        fmt.Sprintf("%dx%d", v.size.X, v.size.Y),
			"loglevel": "error",
		}).
		WithOutput(w)
	cmd.Context = ctx

	done := make(chan error, 1)
	go func() {
		err := cmd.Run()
		w.CloseWithError(err)
		done <- err
	}()

	v.cancel, v.r, v.done = cancel, r, done
}

func (v *Video) stop() error {
	if v.r == nil {
		return nil
	}
	v.cancel()
	v.r.Close()
	err := <-v.done
	v.cancel, v.r, v.done = nil, nil, nil
	return err
}

// Next implements Source. A short final frame is treated as the end of
// the stream.
func (v *Video) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v.r == nil {
		v.start()
	}

	if _, err := io.ReadFull(v.r, v.buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("source: decoding %s: %w", v.file, err)
	}

	f := frame.New(v.size.X, v.size.Y)
	pix := f.Color.Pix
	for i, j := 0, 0; i < len(v.buf); i, j = i+3, j+4 {
		pix[j] = v.buf[i]
		pix[j+1] = v.buf[i+1]
		pix[j+2] = v.buf[i+2]
		pix[j+3] = 0xff
	}
	f.UpdateGray()

	return f, nil
}

// Rewind implements Source by restarting ffmpeg
func (v *Video) Rewind() error {
	// ffmpeg is killed, its exit status is of no interest
	_ = v.stop()
	return nil
}

// Close implements Source
func (v *Video) Close() error {
	_ = v.stop()
	return nil
}
