package cmd

import (
	"errors"
	"time"

	"github.com/thijshberg/sig-raytracer/renderer"
	"github.com/thijshberg/sig-raytracer/scene/reader"
	"github.com/urfave/cli"
)

// Render the debug view image for a config without running a simulation.
func View(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 2 {
		err := errors.New("missing config and output image arguments")
		logger.Error(err)
		return err
	}

	cfg, err := reader.ReadConfig(ctx.Args().Get(0))
	if err != nil {
		logger.Error(err)
		return err
	}

	width, height := ctx.Int("width"), ctx.Int("height")
	start := time.Now()
	img := renderer.RenderView(cfg.Scene, cfg.Grid, cfg.Camera, width, height)
	logger.Noticef("rendered %dx%d view in %d ms", width, height, time.Since(start).Nanoseconds()/1000000)

	if err = writePng(ctx.Args().Get(1), img); err != nil {
		logger.Error(err)
		return err
	}

	return nil
}
