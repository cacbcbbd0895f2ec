package cmd

import (
	"github.com/thijshberg/sig-raytracer/log"
	"github.com/urfave/cli"
)

var logger = log.New("sigtrace")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
