package scene

import (
	"errors"
	"fmt"

	"github.com/thijshberg/sig-raytracer/types"
)

// Geometry that cannot form a valid surface is rejected at construction.
var ErrDegenerateGeometry = errors.New("scene: degenerate geometry")

type PrimitiveType uint32

const (
	SpherePrimitive PrimitiveType = iota
	PlanePrimitive
	TrianglePrimitive
	BoxPrimitive
)

func (t PrimitiveType) String() string {
	switch t {
	case SpherePrimitive:
		return "sphere"
	case PlanePrimitive:
		return "plane"
	case TrianglePrimitive:
		return "triangle"
	case BoxPrimitive:
		return "box"
	}
	return "unknown"
}

// Defines a scene primitive. The set of populated fields varies with the
// primitive type; use the New* constructors which also validate geometry.
type Primitive struct {
	// The primitive type.
	Type PrimitiveType

	// Sphere center, plane anchor point or box min corner.
	Origin types.Vec3

	// Box max corner.
	Corner types.Vec3

	// Sphere radius.
	Radius float32

	// Unit plane normal. Triangles cache their face normal here.
	Normal types.Vec3

	// Triangle vertices and the two edge vectors rooted at V[0].
	V      [3]types.Vec3
	E1, E2 types.Vec3

	// The primitive material.
	Material *Material
}

// Create a new sphere primitive.
func NewSphere(center types.Vec3, radius float32, material *Material) (*Primitive, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("%w: sphere radius must be > 0; got %g", ErrDegenerateGeometry, radius)
	}
	return &Primitive{
		Type:     SpherePrimitive,
		Origin:   center,
		Radius:   radius,
		Material: material,
	}, nil
}

// Create a new infinite plane primitive through a point.
func NewPlane(point, normal types.Vec3, material *Material) (*Primitive, error) {
	if normal.Len() < types.Epsilon {
		return nil, fmt.Errorf("%w: plane normal must be non-zero", ErrDegenerateGeometry)
	}
	return &Primitive{
		Type:     PlanePrimitive,
		Origin:   point,
		Normal:   normal.Normalize(),
		Material: material,
	}, nil
}

// Create a new triangle primitive. Vertex winding does not matter; hit
// normals are flipped to face the incoming ray.
func NewTriangle(v0, v1, v2 types.Vec3, material *Material) (*Primitive, error) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	normal := e1.Cross(e2)
	if normal.Len() < types.Epsilon {
		return nil, fmt.Errorf("%w: triangle vertices are collinear", ErrDegenerateGeometry)
	}
	return &Primitive{
		Type:     TrianglePrimitive,
		V:        [3]types.Vec3{v0, v1, v2},
		E1:       e1,
		E2:       e2,
		Normal:   normal.Normalize(),
		Material: material,
	}, nil
}

// Create a new axis-aligned box primitive.
func NewBox(min, max types.Vec3, material *Material) (*Primitive, error) {
	if min[0] >= max[0] || min[1] >= max[1] || min[2] >= max[2] {
		return nil, fmt.Errorf("%w: box min corner must be strictly below max corner", ErrDegenerateGeometry)
	}
	return &Primitive{
		Type:     BoxPrimitive,
		Origin:   min,
		Corner:   max,
		Material: material,
	}, nil
}

// Report whether the primitive occupies a bounded region. Unbounded
// primitives are excluded from the BVH and always scanned linearly.
func (p *Primitive) Bounded() bool {
	return p.Type != PlanePrimitive
}

// The axis-aligned bounding box of a bounded primitive.
func (p *Primitive) BBox() [2]types.Vec3 {
	switch p.Type {
	case SpherePrimitive:
		r := types.XYZ(p.Radius, p.Radius, p.Radius)
		return [2]types.Vec3{p.Origin.Sub(r), p.Origin.Add(r)}
	case TrianglePrimitive:
		min := types.MinVec3(p.V[0], types.MinVec3(p.V[1], p.V[2]))
		max := types.MaxVec3(p.V[0], types.MaxVec3(p.V[1], p.V[2]))
		return [2]types.Vec3{min, max}
	case BoxPrimitive:
		return [2]types.Vec3{p.Origin, p.Corner}
	}
	return [2]types.Vec3{}
}

// The centroid used for BVH partitioning.
func (p *Primitive) Center() types.Vec3 {
	switch p.Type {
	case SpherePrimitive:
		return p.Origin
	case TrianglePrimitive:
		return p.V[0].Add(p.V[1]).Add(p.V[2]).Mul(1.0 / 3.0)
	case BoxPrimitive:
		return p.Origin.Add(p.Corner).Mul(0.5)
	}
	return p.Origin
}

// Report whether a point lies inside (or on) the primitive volume. Planes
// and triangles have no interior and always report false.
func (p *Primitive) Contains(point types.Vec3) bool {
	switch p.Type {
	case SpherePrimitive:
		return point.Sub(p.Origin).LenSqr() <= p.Radius*p.Radius
	case BoxPrimitive:
		return point[0] >= p.Origin[0] && point[0] <= p.Corner[0] &&
			point[1] >= p.Origin[1] && point[1] <= p.Corner[1] &&
			point[2] >= p.Origin[2] && point[2] <= p.Corner[2]
	}
	return false
}
