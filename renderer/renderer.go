package renderer

import (
	"sync"
	"time"

	"github.com/thijshberg/sig-raytracer/log"
	"github.com/thijshberg/sig-raytracer/scene"
	"github.com/thijshberg/sig-raytracer/sigmap"
	"github.com/thijshberg/sig-raytracer/tracer"
)

// Generator runs a simulation to completion and produces the finalized
// signal map.
type Generator interface {
	// Trace all emitter rays and fold the results into one map.
	Generate() (*sigmap.Map, error)

	// Stop a running generation; Generate returns ErrInterrupted. An
	// aborted generator cannot be reused.
	Abort()

	// Get statistics for the last Generate call.
	Stats() RunStats
}

type mapGenerator struct {
	logger log.Logger

	sc      *scene.Scene
	grid    *sigmap.Grid
	emitter *scene.Emitter
	opts    Options

	abortOnce sync.Once
	abort     chan struct{}

	stats RunStats
}

// Create a generator for the scene. The emitter is validated up front so
// worker setup cannot fail mid-run.
func NewGenerator(sc *scene.Scene, grid *sigmap.Grid, emitter *scene.Emitter, opts Options) (Generator, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if grid == nil {
		return nil, ErrGridNotDefined
	}
	if emitter == nil {
		return nil, ErrEmitterNotDefined
	}
	if err := emitter.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	return &mapGenerator{
		logger:  log.New("renderer"),
		sc:      sc,
		grid:    grid,
		emitter: emitter,
		opts:    opts,
		abort:   make(chan struct{}),
	}, nil
}

func (g *mapGenerator) Abort() {
	g.abortOnce.Do(func() { close(g.abort) })
}

func (g *mapGenerator) Stats() RunStats {
	return g.stats
}

// Trace all emitter rays and fold the results into one map. Batches are
// assigned to workers by a fixed stride so that repeated runs with the
// same worker count accumulate cell strengths in the same order and
// produce identical maps.
func (g *mapGenerator) Generate() (*sigmap.Map, error) {
	start := time.Now()
	totalRays := int64(g.emitter.Rays)

	// All rays share the emitter origin, so one containment query covers
	// the ray-starts-inside-a-primitive anomaly for the whole run.
	if prim, embedded := g.sc.Contains(g.emitter.Position); embedded {
		g.logger.Warningf("emitter position %v sits inside primitive %d; all rays absorbed at launch",
			g.emitter.Position, prim)
		g.stats = RunStats{
			Totals:  tracer.Stats{Rays: totalRays, Anomalies: totalRays},
			RunTime: time.Since(start),
		}
		result := sigmap.NewMap(g.grid)
		result.Finalize(g.opts.Scale)
		return result, nil
	}

	batches := tracer.NewFixedScheduler(g.opts.BatchSize).Schedule(totalRays)

	g.logger.Noticef("tracing %d rays on %d workers (%d batches)", totalRays, g.opts.Workers, len(batches))

	maps := make([]*sigmap.Map, g.opts.Workers)
	workerStats := make([]WorkerStat, g.opts.Workers)

	var wg sync.WaitGroup
	wg.Add(g.opts.Workers)
	for w := 0; w < g.opts.Workers; w++ {
		maps[w] = sigmap.NewMap(g.grid)

		go func(worker int) {
			defer wg.Done()

			workerStart := time.Now()
			tr := tracer.New(g.sc, g.grid, g.emitter, g.opts.Spreading)
			sampler := tracer.NewSampler(g.emitter)
			defer func() {
				workerStats[worker] = WorkerStat{
					Id:      worker,
					Stats:   tr.Stats(),
					RunTime: time.Since(workerStart),
				}
			}()

			for b := worker; b < len(batches); b += g.opts.Workers {
				select {
				case <-g.abort:
					return
				default:
				}

				batch := batches[b]
				for ray := batch.Start; ray < batch.Start+batch.Count; ray++ {
					dir := sampler.Direction(int(ray))
					tr.Trace(ray, dir, sampler.Amplitude(dir), maps[worker])
				}
			}
		}(w)
	}
	wg.Wait()

	select {
	case <-g.abort:
		g.stats = g.foldStats(workerStats, time.Since(start))
		return nil, ErrInterrupted
	default:
	}

	// Merge in worker order; together with the strided batch assignment
	// this keeps the result independent of goroutine scheduling.
	result := sigmap.NewMap(g.grid)
	for _, m := range maps {
		if err := result.Merge(m); err != nil {
			return nil, err
		}
	}
	result.Finalize(g.opts.Scale)

	g.stats = g.foldStats(workerStats, time.Since(start))
	g.logger.Noticef("traced %d rays in %d ms (%d deposits, %d escaped, %d absorbed)",
		g.stats.Totals.Rays, g.stats.RunTime.Nanoseconds()/1e6,
		g.stats.Totals.Deposits, g.stats.Totals.Escaped, g.stats.Totals.Absorbed)

	return result, nil
}

func (g *mapGenerator) foldStats(workerStats []WorkerStat, elapsed time.Duration) RunStats {
	stats := RunStats{
		Workers: workerStats,
		RunTime: elapsed,
	}
	for _, ws := range workerStats {
		stats.Totals.Rays += ws.Rays
		stats.Totals.Deposits += ws.Deposits
		stats.Totals.Bounces += ws.Bounces
		stats.Totals.Escaped += ws.Escaped
		stats.Totals.Absorbed += ws.Absorbed
		stats.Totals.Anomalies += ws.Anomalies
	}
	return stats
}
