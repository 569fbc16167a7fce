package main

import (
	"github.com/bodgit/asciixel"
	"github.com/urfave/cli/v2"
)

func conversionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "mode",
			Usage: "conversion mode: plain, colored_glyph or color_block",
		},
		&cli.IntFlag{
			Name:  "ramp",
			Usage: "predefined glyph ramp, see the ramps command",
		},
		&cli.StringFlag{
			Name:  "glyphs",
			Usage: "custom glyph ramp, sparsest first",
		},
		&cli.BoolFlag{
			Name:  "reverse",
			Usage: "reverse the ramp and draw dark on light",
		},
		&cli.IntFlag{
			Name:  "levels",
			Usage: "colour levels per channel",
		},
		&cli.StringFlag{
			Name:  "quantize",
			Usage: "quantization rule: round or floor",
		},
		&cli.StringFlag{
			Name:  "suppress",
			Usage: "coloured glyph suppression: black or sentinel",
		},
		&cli.IntFlag{
			Name:  "cell-size",
			Usage: "glyph font size or block size in pixels",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "convert bands of columns concurrently",
		},
		&cli.StringFlag{
			Name:  "resolution",
			Usage: "resize frames to WIDTHxHEIGHT",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "export format: png, gif or mp4",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "export directory",
		},
		&cli.Float64Flag{
			Name:  "fps",
			Usage: "frame rate of exported animation and preview",
		},
		&cli.BoolFlag{
			Name:  "keep-audio",
			Usage: "copy the source audio into mp4 output",
		},
	}
}

// loadConfig reads the optional config file and layers any flags that were
// set on top of it
func loadConfig(c *cli.Context) (asciixel.Config, error) {
	cfg := asciixel.DefaultConfig()
	if file := c.String("config"); file != "" {
		var err error
		if cfg, err = asciixel.LoadConfig(file); err != nil {
			return cfg, err
		}
	}

	if c.NArg() > 0 {
		cfg.Source = c.Args().First()
	}

	text := []struct {
		flag string
		dst  interface{ UnmarshalText([]byte) error }
	}{
		{"mode", &cfg.Mode},
		{"quantize", &cfg.Quantize},
		{"suppress", &cfg.Suppress},
		{"resolution", &cfg.Resolution},
		{"format", &cfg.Format},
	}
	for _, t := range text {
		if !c.IsSet(t.flag) {
			continue
		}
		if err := t.dst.UnmarshalText([]byte(c.String(t.flag))); err != nil {
			return cfg, &asciixel.ConfigError{Field: t.flag, Err: err}
		}
	}

	if c.IsSet("ramp") {
		cfg.Ramp = c.Int("ramp")
	}
	if c.IsSet("glyphs") {
		cfg.Glyphs = c.String("glyphs")
	}
	if c.IsSet("reverse") {
		cfg.Reverse = c.Bool("reverse")
	}
	if c.IsSet("levels") {
		cfg.Levels = c.Int("levels")
	}
	if c.IsSet("cell-size") {
		cfg.CellSize = c.Int("cell-size")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("keep-audio") {
		cfg.KeepAudio = c.Bool("keep-audio")
	}

	return cfg, cfg.Validate()
}
