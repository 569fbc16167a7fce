package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/bodgit/asciixel"
	"github.com/bodgit/asciixel/catalog"
	"github.com/bodgit/asciixel/convert"
	"github.com/bodgit/asciixel/export"
	"github.com/bodgit/asciixel/palette"
	"github.com/bodgit/asciixel/ramp"
	"github.com/bodgit/asciixel/source"
	"github.com/bodgit/asciixel/terminal"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

const (
	defaultDB         = "asciixel.db"
	defaultPreviewFPS = 10
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		if isTerminal(os.Stderr) {
			logger.SetOutput(colorable.NewColorableStderr())
			logger.SetPrefix("\033[36masciixel\033[0m ")
		} else {
			logger.SetOutput(os.Stderr)
			logger.SetPrefix("asciixel ")
		}
	}
	return logger
}

func sourceFPS(cfg asciixel.Config, src source.Source) float64 {
	if cfg.FPS > 0 {
		return cfg.FPS
	}
	if v, ok := src.(*source.Video); ok {
		return v.FPS()
	}
	return 0
}

// newExporter builds the exporter for cfg. Colour block GIFs use the
// palette from palettes as their colour table, the runner is given the same
// cache so both share one palette.
func newExporter(cfg asciixel.Config, src source.Source, palettes *palette.Cache) (export.Exporter, error) {
	o := export.Options{
		Dir:  cfg.Output,
		Name: cfg.Name(),
		FPS:  sourceFPS(cfg, src),
	}
	if cfg.Format == export.GIF && cfg.Mode == convert.ColorBlock {
		p, err := palettes.Get(cfg.Levels, cfg.Quantize)
		if err != nil {
			return nil, &asciixel.ConfigError{Field: "levels", Err: err}
		}
		o.Palette = p
	}
	if cfg.Format == export.PNG {
		o.Dir = filepath.Join(cfg.Output, cfg.Name())
		o.Workers = cfg.Workers
	}
	if _, ok := src.(*source.Video); ok && cfg.KeepAudio {
		o.Audio = cfg.Source
	}
	return export.New(cfg.Format, o)
}

// startRecorder opens the catalog and starts a run in it. Both are nil when
// no database is configured.
func startRecorder(c *cli.Context, cfg asciixel.Config) (*catalog.Catalog, *catalog.Recorder, error) {
	file := c.String("db")
	if file == "" {
		return nil, nil, nil
	}

	db, err := catalog.Open(file)
	if err != nil {
		return nil, nil, err
	}

	rec, err := catalog.NewRecorder(db, catalog.Run{
		Name:     cfg.Name(),
		Source:   cfg.Source,
		Mode:     cfg.Mode.String(),
		Ramp:     cfg.Ramp,
		Levels:   cfg.Levels,
		CellSize: cfg.CellSize,
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, rec, nil
}

func convertAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	cfg.Record = true

	logger := newLogger(c)

	src, err := source.Open(cfg.Source, cfg.Resolution.Point())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer src.Close()

	palettes := palette.NewCache()

	exp, err := newExporter(cfg, src, palettes)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	opts := []asciixel.Option{asciixel.WithExporter(exp), asciixel.WithPalettes(palettes)}

	db, rec, err := startRecorder(c, cfg)
	if err != nil {
		exp.Close()
		return cli.NewExitError(err, 1)
	}
	if db != nil {
		defer db.Close()
		opts = append(opts, asciixel.WithObserver(rec))
	}

	r, err := asciixel.New(cfg, src, logger, opts...)
	if err != nil {
		exp.Close()
		return cli.NewExitError(err, 1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err = r.Run(ctx)
	if rec != nil {
		if rerr := rec.Close(); rerr != nil {
			logger.Printf("Unable to finish catalog run: %v\n", rerr)
		}
	}
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	logger.Printf("Exported %d frames to %s\n", r.Frames(), cfg.Output)

	return nil
}

func previewAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	if !isTerminal(os.Stdout) {
		return cli.NewExitError("preview needs a terminal", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if c.IsSet("original") {
		cfg.DisplayOriginal = c.Bool("original")
	}
	if c.IsSet("record") {
		cfg.Record = c.Bool("record")
	}

	// Recording starts over from the first frame once this many frames
	// have been previewed
	recordAfter := c.Int("record-after")
	if recordAfter > 0 {
		cfg.Record = false
	}

	logger := newLogger(c)

	src, err := source.Open(cfg.Source, cfg.Resolution.Point())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer src.Close()

	palettes := palette.NewCache()

	opts := []asciixel.Option{asciixel.WithPalettes(palettes)}
	if cfg.Record || recordAfter > 0 {
		exp, err := newExporter(cfg, src, palettes)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		opts = append(opts, asciixel.WithExporter(exp))
	}

	r, err := asciixel.New(cfg, src, logger, opts...)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer r.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	t, err := terminal.New(screen, r.Mapper(), cfg.Reverse, cfg.DisplayOriginal)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer t.Close()
	r.AddTarget(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go t.WatchKeys(cancel)

	fps := sourceFPS(cfg, src)
	if fps <= 0 {
		fps = defaultPreviewFPS
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for !r.Finished() {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if err := r.Step(ctx); err != nil {
			t.Close()
			return cli.NewExitError(err, 1)
		}

		if recordAfter > 0 && !r.Recording() && r.Frames() == recordAfter {
			if err := r.Reset(); err != nil {
				t.Close()
				return cli.NewExitError(err, 1)
			}
			r.SetRecord(true)
		}
	}

	if err := r.Close(); err != nil {
		t.Close()
		return cli.NewExitError(err, 1)
	}

	// Keep the last frame up until the user quits
	<-ctx.Done()

	return nil
}

func rampsAction(c *cli.Context) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, ' ', 0)
	fmt.Fprintln(w, "INDEX\tGLYPHS\tRAMP")
	for i, r := range ramp.Ramps {
		fmt.Fprintf(w, "%d\t%d\t%q\n", i, utf8.RuneCountInString(r), r)
	}
	return w.Flush()
}

func runsAction(c *cli.Context) error {
	db, err := catalog.Open(c.String("db"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer db.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, ' ', 0)

	if c.NArg() > 0 {
		id, err := strconv.ParseInt(c.Args().First(), 10, 64)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		frames, err := db.Frames(id)
		if err != nil {
			if errors.Is(err, catalog.ErrUnknownRun) {
				return cli.NewExitError(fmt.Sprintf("no run %d", id), 1)
			}
			return cli.NewExitError(err, 1)
		}

		fmt.Fprintln(w, "FRAME\tINSTRUCTIONS\tSHA1")
		for _, f := range frames {
			fmt.Fprintf(w, "%d\t%d\t%s\n", f.Index, f.Instructions, f.SHA1)
		}
		return w.Flush()
	}

	runs, err := db.Runs()
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	fmt.Fprintln(w, "ID\tSTARTED\tFRAMES\tNAME")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", r.ID, r.Started.Format(time.RFC3339), r.Frames, r.Name)
	}
	return w.Flush()
}

func main() {
	app := cli.NewApp()

	app.Name = "asciixel"
	app.Usage = "Convert video into ASCII, coloured ASCII or pixel art"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"ASCIIXEL_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to run catalog, empty to disable",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"ASCIIXEL_CONFIG"},
			Usage:   "TOML configuration file",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert a video or images and export the result",
			Description: "",
			ArgsUsage:   "SOURCE",
			Flags:       conversionFlags(),
			Action:      convertAction,
		},
		{
			Name:        "preview",
			Usage:       "Preview a conversion in the terminal",
			Description: "Press q, Escape or Ctrl-C to quit.",
			ArgsUsage:   "SOURCE",
			Flags: append(conversionFlags(),
				&cli.BoolFlag{
					Name:  "original",
					Usage: "show the original frame alongside",
				},
				&cli.BoolFlag{
					Name:  "record",
					Usage: "export while previewing",
				},
				&cli.IntFlag{
					Name:  "record-after",
					Usage: "restart and export from the first frame after this many frames",
				},
			),
			Action: previewAction,
		},
		{
			Name:   "ramps",
			Usage:  "List the predefined glyph ramps",
			Action: rampsAction,
		},
		{
			Name:      "runs",
			Usage:     "List recorded runs, or the frame digests of one run",
			ArgsUsage: "[ID]",
			Action:    runsAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
