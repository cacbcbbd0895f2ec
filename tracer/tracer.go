package tracer

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/thijshberg/sig-raytracer/log"
	"github.com/thijshberg/sig-raytracer/scene"
	"github.com/thijshberg/sig-raytracer/sigmap"
	"github.com/thijshberg/sig-raytracer/types"
)

// Geometric spreading model applied to amplitudes over path length.
type Spreading uint8

const (
	// Amplitude falls off as 1/d past the reference distance.
	SpreadInverse Spreading = iota

	// Amplitude falls off as 1/d^2 past the reference distance.
	SpreadInverseSquare
)

// Path length below which geometric spreading causes no loss.
const spreadRefDist float32 = 1

func (s Spreading) String() string {
	if s == SpreadInverseSquare {
		return "inverseSquare"
	}
	return "inverse"
}

// Parse a spreading model name from the config.
func ParseSpreading(name string) (Spreading, error) {
	switch name {
	case "", "inverse":
		return SpreadInverse, nil
	case "inverseSquare":
		return SpreadInverseSquare, nil
	}
	return SpreadInverse, fmt.Errorf("tracer: unknown spreading model %q", name)
}

// Per-tracer counters. Workers each own a tracer; the renderer folds the
// counters together after the run.
type Stats struct {
	Rays     int64
	Deposits int64
	Bounces  int64
	Escaped  int64
	Absorbed int64

	// Rays dropped because their state degenerated mid-flight.
	Anomalies int64
}

// Tracer follows emitter rays through a scene and records receiver
// crossings into an accumulation map. It is not safe for concurrent use;
// each worker owns one.
type Tracer struct {
	logger log.Logger

	scene     *scene.Scene
	grid      *sigmap.Grid
	emitter   *scene.Emitter
	spreading Spreading

	stats Stats
}

func New(sc *scene.Scene, grid *sigmap.Grid, emitter *scene.Emitter, spreading Spreading) *Tracer {
	return &Tracer{
		logger:    log.New("tracer"),
		scene:     sc,
		grid:      grid,
		emitter:   emitter,
		spreading: spreading,
	}
}

// Get the counters accumulated so far.
func (t *Tracer) Stats() Stats {
	return t.stats
}

// Trace follows one emitter ray until it deposits on the receiver, drops
// below the amplitude cutoff, runs out of bounces or escapes the scene.
// At most one contribution is deposited per ray.
func (t *Tracer) Trace(rayIndex int64, dir types.Vec3, amplitude float32, m *sigmap.Map) {
	t.stats.Rays++

	origin := t.emitter.Position
	pathLen := float32(0)
	amp := amplitude
	bounces := 0

	for {
		ray := scene.Ray{Origin: origin, Dir: dir}

		gridT, cell, gridHit := t.grid.Intersect(ray, scene.HitEpsilon)
		hit, sceneHit := t.scene.NearestHit(ray, scene.HitEpsilon, math32.MaxFloat32)

		// The receiver only records crossings strictly closer than any
		// primitive; exact ties go to the primitive.
		if gridHit && (!sceneHit || gridT < hit.T) {
			total := pathLen + gridT
			amp *= spreadFactor(t.spreading, pathLen, total)

			contribution := sigmap.Contribution{
				Amplitude: amp,
				Angle:     incidenceAngle(dir, t.grid.Normal),
				Time:      total / t.emitter.Speed,
				Ray:       rayIndex,
			}
			if !isFinite(contribution.Amplitude) || !isFinite(contribution.Time) {
				t.anomaly(rayIndex, "non-finite receiver contribution")
				return
			}

			m.Deposit(cell, contribution)
			t.stats.Deposits++
			return
		}

		if !sceneHit {
			t.stats.Escaped++
			return
		}

		// Attenuate across the travelled segment, then across the bounce.
		total := pathLen + hit.T
		amp *= spreadFactor(t.spreading, pathLen, total)
		amp = hit.Material.Attenuate(amp, hit.T)
		amp *= hit.Material.Reflectivity
		pathLen = total

		if !isFinite(amp) {
			t.anomaly(rayIndex, "non-finite amplitude after bounce")
			return
		}
		if amp <= 0 || amp < t.emitter.MinAmplitude {
			t.stats.Absorbed++
			return
		}
		if bounces >= t.emitter.MaxBounces {
			t.stats.Absorbed++
			return
		}
		bounces++
		t.stats.Bounces++

		dir = hit.Material.Reflect(dir, hit.Normal)
		if !isFinite(dir.LenSqr()) || dir.LenSqr() < types.Epsilon {
			t.anomaly(rayIndex, "degenerate reflection direction")
			return
		}

		// Restart just off the surface to avoid re-hitting it.
		origin = hit.Point.Add(dir.Mul(scene.HitEpsilon))
	}
}

func (t *Tracer) anomaly(rayIndex int64, reason string) {
	t.stats.Anomalies++
	t.logger.Debugf("dropping ray %d: %s", rayIndex, reason)
}

// Amplitude factor for extending a path from length from to length to.
// Factors compose so that a multi-segment path decays exactly like a
// single path of the same total length.
func spreadFactor(model Spreading, from, to float32) float32 {
	if to <= spreadRefDist {
		return 1
	}
	if from < spreadRefDist {
		from = spreadRefDist
	}

	ratio := from / to
	if model == SpreadInverseSquare {
		return ratio * ratio
	}
	return ratio
}

// Incidence angle between an arrival direction and the receiver normal,
// in [0, pi/2].
func incidenceAngle(dir, normal types.Vec3) float32 {
	cos := math32.Abs(dir.Dot(normal))
	if cos > 1 {
		cos = 1
	}
	return math32.Acos(cos)
}

func isFinite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
