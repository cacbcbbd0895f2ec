package scene

import (
	"github.com/chewxy/math32"
	"github.com/thijshberg/sig-raytracer/types"
)

// The camera type controls the debug view point of view. It is a simple
// look-at pinhole model; propagation runs never consult it.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Vertical field of view in degrees.
	FOV float32

	// Derived viewport frame.
	lowerLeft  types.Vec3
	horizontal types.Vec3
	vertical   types.Vec3
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
	}
}

// Set up the camera viewport for the target aspect ratio. Must be called
// before generating rays and again whenever the camera moves.
func (c *Camera) SetupProjection(aspect float32) {
	theta := c.FOV * math32.Pi / 180.0
	halfH := math32.Tan(theta / 2.0)
	halfW := aspect * halfH

	w := c.Position.Sub(c.LookAt).Normalize()
	u := c.Up.Cross(w)
	if u.Len() < types.Epsilon {
		// Up is parallel to the view axis; fall back to world references.
		u = types.XYZ(0, 0, 1).Cross(w)
		if u.Len() < types.Epsilon {
			u = types.XYZ(1, 0, 0).Cross(w)
		}
	}
	u = u.Normalize()
	v := w.Cross(u)

	c.lowerLeft = c.Position.Sub(u.Mul(halfW)).Sub(v.Mul(halfH)).Sub(w)
	c.horizontal = u.Mul(2 * halfW)
	c.vertical = v.Mul(2 * halfH)
}

// Generate the primary ray through pixel (x, y) of a width x height frame.
// Pixel (0, 0) is the top-left corner.
func (c *Camera) PrimaryRay(x, y, width, height int) Ray {
	s := (float32(x) + 0.5) / float32(width)
	t := 1.0 - (float32(y)+0.5)/float32(height)

	target := c.lowerLeft.Add(c.horizontal.Mul(s)).Add(c.vertical.Mul(t))
	return Ray{
		Origin: c.Position,
		Dir:    target.Sub(c.Position).Normalize(),
	}
}
