package renderer

import (
	"runtime"

	"github.com/thijshberg/sig-raytracer/sigmap"
	"github.com/thijshberg/sig-raytracer/tracer"
)

// Rays handed to a worker as one unit when no batch size is configured.
const defaultBatchSize = 1024

type Options struct {
	// Worker goroutines; 0 selects one per CPU core.
	Workers int

	// Rays dispatched to a worker as one unit.
	BatchSize int64

	// Geometric spreading model.
	Spreading tracer.Spreading

	// Output scaling applied to the finished strength channel.
	Scale sigmap.Scale
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
}
