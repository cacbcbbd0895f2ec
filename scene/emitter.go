package scene

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/thijshberg/sig-raytracer/types"
)

// A directional point source. All rays of a run start at Position and are
// distributed over a cone around Direction.
type Emitter struct {
	// World position all rays start from.
	Position types.Vec3

	// Main emission axis; unit length.
	Direction types.Vec3

	// Half-angle of the emission cone in radians. Values of Pi or more
	// emit over the full sphere.
	Spread float32

	// Number of rays to launch.
	Rays int

	// Number of azimuthal beam lobes shaping the launch amplitude.
	// 0 disables beam shaping and every ray launches at full amplitude.
	Beams int

	// Launch amplitude.
	Amplitude float32

	// Rays are absorbed once their amplitude drops below this cutoff.
	MinAmplitude float32

	// Max reflections per ray. A ray makes at most MaxBounces+1 scene
	// queries before it is dropped.
	MaxBounces int

	// Propagation speed used to derive arrival times from path lengths.
	Speed float32
}

// Check emitter parameter ranges and normalize the emission axis.
func (e *Emitter) Validate() error {
	if e.Direction.Len() < types.Epsilon {
		return fmt.Errorf("scene: emitter direction must be non-zero")
	}
	e.Direction = e.Direction.Normalize()

	if e.Spread < 0 || math32.IsNaN(e.Spread) {
		return fmt.Errorf("scene: emitter spread must be >= 0; got %g", e.Spread)
	}
	if e.Rays <= 0 {
		return fmt.Errorf("scene: emitter ray count must be > 0; got %d", e.Rays)
	}
	if e.Beams < 0 {
		return fmt.Errorf("scene: emitter beam count must be >= 0; got %d", e.Beams)
	}
	if e.Amplitude <= 0 {
		return fmt.Errorf("scene: emitter amplitude must be > 0; got %g", e.Amplitude)
	}
	if e.MinAmplitude < 0 {
		return fmt.Errorf("scene: emitter min amplitude must be >= 0; got %g", e.MinAmplitude)
	}
	if e.MaxBounces < 0 {
		return fmt.Errorf("scene: emitter max bounces must be >= 0; got %d", e.MaxBounces)
	}
	if e.Speed <= 0 {
		return fmt.Errorf("scene: emitter propagation speed must be > 0; got %g", e.Speed)
	}
	return nil
}
