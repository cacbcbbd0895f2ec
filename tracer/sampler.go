package tracer

import (
	"github.com/chewxy/math32"
	"github.com/thijshberg/sig-raytracer/scene"
	"github.com/thijshberg/sig-raytracer/types"
)

// Exponent of the beam lobe falloff applied when beam shaping is enabled.
const beamFalloff float32 = 50

// The golden angle in radians; successive lattice points rotate by this
// around the emission axis.
var goldenAngle = math32.Pi * (3 - math32.Sqrt(5))

// Sampler generates the deterministic launch direction set for an emitter.
// Directions form a spherical Fibonacci lattice over the emission cone, so
// the direction for a ray index is a pure function of the emitter settings
// and the index; workers can sample any index range independently.
type Sampler struct {
	emitter *scene.Emitter

	// Orthonormal basis with w along the emission axis.
	u, v, w types.Vec3

	// Cosine of the cap half-angle; -1 covers the full sphere.
	cosSpread float32
}

// Create a sampler for the emitter. The emitter must be validated first.
func NewSampler(emitter *scene.Emitter) *Sampler {
	s := &Sampler{
		emitter:   emitter,
		w:         emitter.Direction,
		cosSpread: -1,
	}
	if emitter.Spread < math32.Pi {
		s.cosSpread = math32.Cos(emitter.Spread)
	}

	// Build the tangent frame off the least aligned world axis.
	ref := types.XYZ(1, 0, 0)
	if math32.Abs(s.w[0]) > 0.9 {
		ref = types.XYZ(0, 1, 0)
	}
	s.u = ref.Cross(s.w).Normalize()
	s.v = s.w.Cross(s.u)
	return s
}

// The unit launch direction for ray index of the emitter's ray count.
func (s *Sampler) Direction(index int) types.Vec3 {
	n := s.emitter.Rays

	// Even z strata over the cap paired with golden angle rotation.
	z := 1 - (float32(index)+0.5)/float32(n)*(1-s.cosSpread)
	r := math32.Sqrt(1 - z*z)
	theta := goldenAngle * float32(index)

	x := r * math32.Cos(theta)
	y := r * math32.Sin(theta)
	return s.u.Mul(x).Add(s.v.Mul(y)).Add(s.w.Mul(z)).Normalize()
}

// The launch amplitude for a direction. With beam shaping disabled every
// ray launches at the emitter amplitude; otherwise the amplitude follows
// a lobed azimuthal pattern with Beams peaks around the emission axis.
func (s *Sampler) Amplitude(dir types.Vec3) float32 {
	if s.emitter.Beams <= 0 {
		return s.emitter.Amplitude
	}

	azimuth := math32.Atan2(dir.Dot(s.v), dir.Dot(s.u))
	lobe := math32.Abs(math32.Cos(float32(s.emitter.Beams) * azimuth / 2))
	return s.emitter.Amplitude * math32.Pow(lobe, beamFalloff)
}
