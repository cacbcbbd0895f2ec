package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/olekukonko/tablewriter"
	"github.com/thijshberg/sig-raytracer/scene"
	"github.com/thijshberg/sig-raytracer/scene/reader"
	"github.com/urfave/cli"
)

// Display a summary of a run config.
func Info(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		err := errors.New("missing config path argument")
		logger.Error(err)
		return err
	}

	cfg, err := reader.ReadConfig(ctx.Args().First())
	if err != nil {
		logger.Error(err)
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Property", "Value"})

	em := cfg.Emitter
	table.Append([]string{"emitter position", vecString(em.Position)})
	table.Append([]string{"emitter direction", vecString(em.Direction)})
	table.Append([]string{"emitter spread", fmt.Sprintf("%.1f deg", em.Spread*180/math32.Pi)})
	table.Append([]string{"rays", fmt.Sprintf("%d", em.Rays)})
	table.Append([]string{"beams", fmt.Sprintf("%d", em.Beams)})
	table.Append([]string{"amplitude", fmt.Sprintf("%g", em.Amplitude)})
	table.Append([]string{"min amplitude", fmt.Sprintf("%g", em.MinAmplitude)})
	table.Append([]string{"max bounces", fmt.Sprintf("%d", em.MaxBounces)})
	table.Append([]string{"propagation speed", fmt.Sprintf("%g", em.Speed)})
	table.Append([]string{"spreading model", cfg.Spreading.String()})

	grid := cfg.Grid
	table.Append([]string{"grid origin", vecString(grid.Origin)})
	table.Append([]string{"grid u axis", vecString(grid.U)})
	table.Append([]string{"grid v axis", vecString(grid.V)})
	table.Append([]string{"grid cells", fmt.Sprintf("%d x %d", grid.Nx, grid.Ny)})
	table.Append([]string{"grid cell size", fmt.Sprintf("%g", grid.CellSize)})
	table.Append([]string{"grid extent", fmt.Sprintf("%g x %g", float32(grid.Nx)*grid.CellSize, float32(grid.Ny)*grid.CellSize)})
	table.Append([]string{"output scale", cfg.Scale.String()})

	counts := make(map[scene.PrimitiveType]int)
	for _, prim := range cfg.Scene.Primitives {
		counts[prim.Type]++
	}
	for _, primType := range []scene.PrimitiveType{
		scene.SpherePrimitive,
		scene.PlanePrimitive,
		scene.TrianglePrimitive,
		scene.BoxPrimitive,
	} {
		table.Append([]string{primType.String() + " primitives", fmt.Sprintf("%d", counts[primType])})
	}

	for _, mat := range cfg.Materials {
		table.Append([]string{
			"material " + mat.Name,
			fmt.Sprintf("reflectivity %g, absorption %g", mat.Reflectivity, mat.Absorption),
		})
	}

	table.Render()
	logger.Noticef("run config %s\n%s", ctx.Args().First(), buf.String())

	return nil
}

func vecString(v [3]float32) string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}
