/*
Package asciixel converts video frames into character density art, coloured
character art or coarse colour block pixel art.

A Runner pulls frames from a source, converts each one into a list of draw
instructions and hands the list to its render targets. When recording, the
instructions are also painted onto a raster canvas which is passed to an
exporter.
*/
package asciixel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"

	"github.com/bodgit/asciixel/convert"
	"github.com/bodgit/asciixel/frame"
	"github.com/bodgit/asciixel/palette"
	"github.com/bodgit/asciixel/ramp"
	"github.com/bodgit/asciixel/render"
)

const progressInterval = 100

// Source supplies frames and returns io.EOF once exhausted
type Source interface {
	Next(ctx context.Context) (*frame.Frame, error)
}

// Rewinder is a source that can start again from its first frame
type Rewinder interface {
	Rewind() error
}

// Target draws instruction lists
type Target interface {
	Draw(out *convert.Output) error
}

// OriginalTarget is a target that can also show the unconverted frame
type OriginalTarget interface {
	Target
	SetOriginal(f *frame.Frame)
}

// Exporter receives the rendered raster of every recorded frame
type Exporter interface {
	WriteFrame(index int, m image.Image) error
	Close() error
}

// Observer is told about every converted frame
type Observer interface {
	FrameDone(index int, out *convert.Output) error
}

// Option configures a Runner
type Option func(*Runner)

// WithTarget adds a render target
func WithTarget(t Target) Option {
	return func(r *Runner) {
		r.targets = append(r.targets, t)
	}
}

// WithExporter sets the exporter used while recording
func WithExporter(e Exporter) Option {
	return func(r *Runner) {
		r.exporter = e
	}
}

// WithObserver adds an observer
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observers = append(r.observers, o)
	}
}

// WithPalettes shares a palette cache between runners
func WithPalettes(c *palette.Cache) Option {
	return func(r *Runner) {
		r.palettes = c
	}
}

// Runner drives one conversion run
type Runner struct {
	cfg    Config
	src    Source
	logger *log.Logger

	targets   []Target
	exporter  Exporter
	observers []Observer
	palettes  *palette.Cache

	mapper    *ramp.Mapper
	palette   *palette.Palette
	masks     []*image.Alpha
	converter *convert.Converter
	canvas    *render.Canvas
	out       convert.Output

	record    bool
	frames    int
	finished  bool
	exportErr *ExportError
	closed    bool
}

// New validates cfg and builds everything the run needs up front: the
// density mapper, the palette, the glyph masks and the converter
func New(cfg Config, src Source, logger *log.Logger, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, &ConfigError{Field: "source", Err: errors.New("no frame source")}
	}

	r := &Runner{
		cfg:    cfg,
		src:    src,
		logger: logger,
		record: cfg.Record,
	}
	for _, o := range opts {
		o(r)
	}
	if r.palettes == nil {
		r.palettes = palette.NewCache()
	}

	var err error

	stride := image.Pt(cfg.CellSize, cfg.CellSize)

	if cfg.Mode.Glyphs() {
		if cfg.Glyphs != "" {
			r.mapper, err = ramp.NewMapper(cfg.Glyphs, cfg.Reverse)
		} else {
			r.mapper, err = ramp.New(cfg.Ramp, cfg.Reverse)
		}
		if err != nil {
			return nil, &ConfigError{Field: "ramp", Err: err}
		}

		face, err := render.NewFace(float64(cfg.CellSize))
		if err != nil {
			return nil, &ConfigError{Field: "cell_size", Err: err}
		}
		stride = face.Stride()
		r.masks = face.Masks(r.mapper.Glyphs())
		if err := face.Close(); err != nil {
			return nil, err
		}
	}

	if cfg.Mode.Colors() {
		if r.palette, err = r.palettes.Get(cfg.Levels, cfg.Quantize); err != nil {
			return nil, &ConfigError{Field: "levels", Err: err}
		}
	}

	if r.converter, err = convert.New(convert.Config{
		Mode:     cfg.Mode,
		Mapper:   r.mapper,
		Palette:  r.palette,
		Stride:   stride,
		Suppress: cfg.Suppress,
		Workers:  cfg.Workers,
	}); err != nil {
		return nil, &ConfigError{Field: "mode", Err: err}
	}

	r.logger.Printf("Converting %s as %s with a %dx%d stride\n", cfg.Source, cfg.Mode, stride.X, stride.Y)

	return r, nil
}

// Config returns the configuration the runner was built with
func (r *Runner) Config() Config {
	return r.cfg
}

// Mapper returns the density mapper, nil in colour block mode
func (r *Runner) Mapper() *ramp.Mapper {
	return r.mapper
}

// Palette returns the palette, nil in plain mode
func (r *Runner) Palette() *palette.Palette {
	return r.palette
}

// Stride returns the sampling stride in source pixels
func (r *Runner) Stride() image.Point {
	return r.converter.Stride()
}

// AddTarget adds a render target from the next step
func (r *Runner) AddTarget(t Target) {
	r.targets = append(r.targets, t)
}

// SetRecord turns exporting on or off from the next step
func (r *Runner) SetRecord(record bool) {
	r.record = record
}

// Recording reports whether steps are exported
func (r *Runner) Recording() bool {
	return r.record
}

// Frames returns the number of frames converted since the last reset
func (r *Runner) Frames() int {
	return r.frames
}

// Finished reports whether the source is exhausted
func (r *Runner) Finished() bool {
	return r.finished
}

// Output returns the instruction list of the last step. It is overwritten
// by the next step.
func (r *Runner) Output() *convert.Output {
	return &r.out
}

// Image returns the last recorded raster, nil if nothing has been recorded
func (r *Runner) Image() *image.RGBA {
	if r.canvas == nil {
		return nil
	}
	return r.canvas.Image()
}

// Step converts one frame. It returns nil without doing anything once the
// source is exhausted.
func (r *Runner) Step(ctx context.Context) error {
	if r.finished {
		return nil
	}

	f, err := r.src.Next(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			r.finished = true
			r.logger.Printf("Finished after %d frames\n", r.frames)
			return nil
		}
		return fmt.Errorf("asciixel: reading frame %d: %w", r.frames, err)
	}

	if err := r.converter.Convert(f, &r.out); err != nil {
		return err
	}

	for _, t := range r.targets {
		if ot, ok := t.(OriginalTarget); ok && r.cfg.DisplayOriginal {
			ot.SetOriginal(f)
		}
		if err := t.Draw(&r.out); err != nil {
			return fmt.Errorf("asciixel: drawing frame %d: %w", r.frames, err)
		}
	}

	if r.record && r.exporter != nil && r.exportErr == nil {
		r.export(f.Bounds().Size())
	}

	for _, o := range r.observers {
		if err := o.FrameDone(r.frames, &r.out); err != nil {
			return err
		}
	}

	r.frames++
	if r.frames%progressInterval == 0 {
		r.logger.Printf("Converted %d frames\n", r.frames)
	}

	return nil
}

func (r *Runner) export(size image.Point) {
	if r.canvas == nil || r.canvas.Image().Rect.Size() != size {
		r.canvas = render.NewCanvas(size.X, size.Y, r.masks, r.cfg.Reverse)
	}

	err := r.canvas.Draw(&r.out)
	if err == nil {
		err = r.exporter.WriteFrame(r.frames, r.canvas.Image())
	}
	if err != nil {
		r.exportErr = &ExportError{Frame: r.frames, Err: err}
		r.logger.Printf("Export stopped: %v\n", r.exportErr)
	}
}

// Run steps until the source is exhausted or ctx is cancelled. The
// context is only checked between steps. Once the source is exhausted the
// first export failure, if any, is returned. The exporter stays open so
// the runner can be reset and run again; Close finishes the output.
func (r *Runner) Run(ctx context.Context) error {
	for !r.finished {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Step(ctx); err != nil {
			return err
		}
	}

	if r.exportErr != nil {
		return r.exportErr
	}

	return nil
}

// Reset clears the frame counter, the finished flag and any export failure
// and rewinds the source if it can be rewound. The configuration is left as
// it is.
func (r *Runner) Reset() error {
	r.frames = 0
	r.finished = false
	r.exportErr = nil

	if rw, ok := r.src.(Rewinder); ok {
		if err := rw.Rewind(); err != nil {
			return fmt.Errorf("asciixel: rewinding: %w", err)
		}
	}

	return nil
}

// Close closes the exporter and returns the first export failure of the
// run as an *ExportError, including one from finishing the output
func (r *Runner) Close() error {
	if !r.closed && r.exporter != nil {
		r.closed = true
		if err := r.exporter.Close(); err != nil && r.exportErr == nil {
			r.exportErr = &ExportError{Frame: r.frames, Err: err}
			r.logger.Printf("Export failed: %v\n", r.exportErr)
		}
	}

	if r.exportErr != nil {
		return r.exportErr
	}

	return nil
}
