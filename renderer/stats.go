package renderer

import (
	"time"

	"github.com/thijshberg/sig-raytracer/tracer"
)

type WorkerStat struct {
	// The worker index.
	Id int

	// Counters from the worker's tracer.
	tracer.Stats

	// Time the worker spent tracing its share of the rays.
	RunTime time.Duration
}

type RunStats struct {
	// Individual worker stats.
	Workers []WorkerStat

	// Counters folded over all workers.
	Totals tracer.Stats

	// Wall clock time for the entire run.
	RunTime time.Duration
}
