package scene

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/thijshberg/sig-raytracer/types"
)

// A surface material for signal interaction. Bounces are purely specular;
// the two coefficients control how much signal survives a bounce and how
// fast it decays while travelling between bounces.
type Material struct {
	// The material name as referenced by the scene config.
	Name string

	// Fraction of the incident amplitude that survives a bounce. Valid
	// range is [0, 1]; 0 kills the ray at the first hit.
	Reflectivity float32

	// Exponential decay rate per unit of distance travelled.
	Absorption float32

	// Surface tint used by the debug view render only.
	Diffuse types.Vec3
}

// Apply exponential absorption decay over a travelled segment.
func (m *Material) Attenuate(amplitude, segmentDist float32) float32 {
	if m.Absorption == 0 {
		return amplitude
	}
	return amplitude * math32.Exp(-m.Absorption*segmentDist)
}

// Mirror-reflect an incoming direction about a unit surface normal.
func (m *Material) Reflect(dir, normal types.Vec3) types.Vec3 {
	return dir.Reflect(normal)
}

// Check material coefficient ranges.
func (m *Material) Validate() error {
	if m.Reflectivity < 0 || m.Reflectivity > 1 {
		return fmt.Errorf("scene: material %q reflectivity must be in [0, 1]; got %g", m.Name, m.Reflectivity)
	}
	if m.Absorption < 0 {
		return fmt.Errorf("scene: material %q absorption must be >= 0; got %g", m.Name, m.Absorption)
	}
	return nil
}
