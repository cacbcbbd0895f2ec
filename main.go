package main

import (
	"os"

	"github.com/thijshberg/sig-raytracer/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "sigtrace"
	app.Usage = "simulate directional signal propagation with ray tracing"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "simulate",
			Usage: "trace emitter rays through a scene and write signal map artifacts",
			Description: `
Load a run config, trace the configured number of rays through the scene and
accumulate receiver grid crossings into a signal strength map.

The finished map is always written to <output>.data; companion artifacts are
enabled with flags.`,
			ArgsUsage: "config.json output",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "angles",
					Usage: "write dominant arrival angles to <output>.angles",
				},
				cli.BoolFlag{
					Name:  "times",
					Usage: "write dominant arrival times to <output>.times",
				},
				cli.BoolFlag{
					Name:  "image",
					Usage: "write a strength heatmap to <output>.png",
				},
				cli.BoolFlag{
					Name:  "view",
					Usage: "write a debug view render to <output>_view.png",
				},
				cli.IntFlag{
					Name:  "workers",
					Value: 0,
					Usage: "worker goroutines; 0 selects one per cpu core",
				},
				cli.IntFlag{
					Name:  "batch",
					Value: 0,
					Usage: "rays per scheduled batch; 0 selects the default",
				},
			},
			Action: cmd.Simulate,
		},
		{
			Name:      "view",
			Usage:     "render only the debug view image for a config",
			ArgsUsage: "config.json view.png",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "view image width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "view image height",
				},
			},
			Action: cmd.View,
		},
		{
			Name:      "info",
			Usage:     "display a summary of a run config",
			ArgsUsage: "config.json",
			Action:    cmd.Info,
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
