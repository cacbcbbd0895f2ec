package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/thijshberg/sig-raytracer/renderer"
	"github.com/thijshberg/sig-raytracer/scene/reader"
	"github.com/thijshberg/sig-raytracer/sigmap"
	"github.com/urfave/cli"
)

// Pixel dimensions for the view image written by simulate --view. The
// standalone view command exposes flags instead.
const (
	simulateViewWidth  = 512
	simulateViewHeight = 512
)

// Run a propagation simulation and write the map artifacts.
func Simulate(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 2 {
		err := errors.New("missing config and output path arguments")
		logger.Error(err)
		return err
	}
	configPath, outputBase := ctx.Args().Get(0), ctx.Args().Get(1)

	cfg, err := reader.ReadConfig(configPath)
	if err != nil {
		logger.Error(err)
		return err
	}

	gen, err := renderer.NewGenerator(cfg.Scene, cfg.Grid, cfg.Emitter, renderer.Options{
		Workers:   ctx.Int("workers"),
		BatchSize: int64(ctx.Int("batch")),
		Spreading: cfg.Spreading,
		Scale:     cfg.Scale,
	})
	if err != nil {
		logger.Error(err)
		return err
	}

	// Abort the run on ctrl-c instead of killing the process mid-write.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		logger.Warning("interrupt received; aborting run")
		gen.Abort()
	}()

	m, err := gen.Generate()
	if err != nil {
		logger.Error(err)
		return err
	}

	displayRunStats(gen.Stats())

	if err = writeChannel(m, outputBase+".data", sigmap.ChannelStrength); err != nil {
		logger.Error(err)
		return err
	}
	if ctx.Bool("angles") {
		if err = writeChannel(m, outputBase+".angles", sigmap.ChannelAngle); err != nil {
			logger.Error(err)
			return err
		}
	}
	if ctx.Bool("times") {
		if err = writeChannel(m, outputBase+".times", sigmap.ChannelTime); err != nil {
			logger.Error(err)
			return err
		}
	}
	if ctx.Bool("image") {
		if err = writePng(outputBase+".png", m.RenderImage(cfg.Scene.Primitives)); err != nil {
			logger.Error(err)
			return err
		}
	}
	if ctx.Bool("view") {
		img := renderer.RenderView(cfg.Scene, cfg.Grid, cfg.Camera, simulateViewWidth, simulateViewHeight)
		if err = writePng(outputBase+"_view.png", img); err != nil {
			logger.Error(err)
			return err
		}
	}

	return nil
}

func displayRunStats(stats renderer.RunStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Worker", "Rays", "Deposits", "Bounces", "Escaped", "Absorbed", "Anomalies", "Run time"})
	for _, stat := range stats.Workers {
		table.Append([]string{
			fmt.Sprintf("%d", stat.Id),
			fmt.Sprintf("%d", stat.Rays),
			fmt.Sprintf("%d", stat.Deposits),
			fmt.Sprintf("%d", stat.Bounces),
			fmt.Sprintf("%d", stat.Escaped),
			fmt.Sprintf("%d", stat.Absorbed),
			fmt.Sprintf("%d", stat.Anomalies),
			fmt.Sprintf("%s", stat.RunTime),
		})
	}
	totals := stats.Totals
	table.SetFooter([]string{
		"TOTAL",
		fmt.Sprintf("%d", totals.Rays),
		fmt.Sprintf("%d", totals.Deposits),
		fmt.Sprintf("%d", totals.Bounces),
		fmt.Sprintf("%d", totals.Escaped),
		fmt.Sprintf("%d", totals.Absorbed),
		fmt.Sprintf("%d", totals.Anomalies),
		fmt.Sprintf("%s", stats.RunTime),
	})

	table.Render()
	logger.Noticef("run statistics\n%s", buf.String())
}

// Encode one map channel into an artifact file.
func writeChannel(m *sigmap.Map, path string, channel sigmap.Channel) error {
	start := time.Now()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = m.EncodeChannel(f, channel); err != nil {
		return err
	}

	logger.Noticef("wrote %s in %d ms", path, time.Since(start).Nanoseconds()/1000000)
	return nil
}

func writePng(path string, img *image.RGBA) error {
	start := time.Now()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = png.Encode(f, img); err != nil {
		return err
	}

	logger.Noticef("wrote %s in %d ms", path, time.Since(start).Nanoseconds()/1000000)
	return nil
}
