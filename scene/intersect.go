package scene

import (
	"github.com/chewxy/math32"
	"github.com/thijshberg/sig-raytracer/types"
)

const (
	// HitEpsilon is the minimum hit distance used when a ray restarts from
	// a surface; closer hits are treated as self-intersections.
	HitEpsilon float32 = 1e-3

	// Determinant cutoff for the triangle intersector.
	triangleEpsilon float32 = 1e-8
)

// A geometric ray. Dir is expected to be unit length.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
}

// The point at parameter t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Describes a ray/primitive intersection. The normal is unit length and
// always faces the side the ray arrived from.
type HitRecord struct {
	T      float32
	Point  types.Vec3
	Normal types.Vec3

	Material *Material

	// Index of the primitive inside the scene list; -1 outside a scene.
	Prim int32
}

// Intersect tests the ray against the primitive within the open range
// (tMin, tMax). On a hit the record is populated and true is returned.
func (p *Primitive) Intersect(ray Ray, tMin, tMax float32, hit *HitRecord) bool {
	switch p.Type {
	case SpherePrimitive:
		return p.intersectSphere(ray, tMin, tMax, hit)
	case PlanePrimitive:
		return p.intersectPlane(ray, tMin, tMax, hit)
	case TrianglePrimitive:
		return p.intersectTriangle(ray, tMin, tMax, hit)
	case BoxPrimitive:
		return p.intersectBox(ray, tMin, tMax, hit)
	}
	return false
}

func (p *Primitive) intersectSphere(ray Ray, tMin, tMax float32, hit *HitRecord) bool {
	oc := ray.Origin.Sub(p.Origin)
	a := ray.Dir.LenSqr()
	halfB := oc.Dot(ray.Dir)
	c := oc.LenSqr() - p.Radius*p.Radius

	disc := halfB*halfB - a*c
	if disc < 0 {
		return false
	}

	// Prefer the near root; fall back to the far one when the ray starts
	// inside the sphere.
	sqrtDisc := math32.Sqrt(disc)
	root := (-halfB - sqrtDisc) / a
	if root <= tMin || root >= tMax {
		root = (-halfB + sqrtDisc) / a
		if root <= tMin || root >= tMax {
			return false
		}
	}

	hit.T = root
	hit.Point = ray.At(root)
	hit.Material = p.Material

	outward := hit.Point.Sub(p.Origin).Mul(1.0 / p.Radius)
	if ray.Dir.Dot(outward) > 0 {
		outward = outward.Mul(-1)
	}
	hit.Normal = outward
	return true
}

func (p *Primitive) intersectPlane(ray Ray, tMin, tMax float32, hit *HitRecord) bool {
	denom := ray.Dir.Dot(p.Normal)
	if math32.Abs(denom) < types.Epsilon {
		// Ray travels parallel to the plane.
		return false
	}

	t := p.Origin.Sub(ray.Origin).Dot(p.Normal) / denom
	if t <= tMin || t >= tMax {
		return false
	}

	hit.T = t
	hit.Point = ray.At(t)
	hit.Material = p.Material
	if denom > 0 {
		hit.Normal = p.Normal.Mul(-1)
	} else {
		hit.Normal = p.Normal
	}
	return true
}

// Moeller-Trumbore intersection test.
func (p *Primitive) intersectTriangle(ray Ray, tMin, tMax float32, hit *HitRecord) bool {
	pvec := ray.Dir.Cross(p.E2)
	det := p.E1.Dot(pvec)
	if math32.Abs(det) < triangleEpsilon {
		// Ray is parallel to the triangle plane.
		return false
	}

	invDet := 1.0 / det
	tvec := ray.Origin.Sub(p.V[0])
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return false
	}

	qvec := tvec.Cross(p.E1)
	v := ray.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return false
	}

	t := p.E2.Dot(qvec) * invDet
	if t <= tMin || t >= tMax {
		return false
	}

	hit.T = t
	hit.Point = ray.At(t)
	hit.Material = p.Material
	if ray.Dir.Dot(p.Normal) > 0 {
		hit.Normal = p.Normal.Mul(-1)
	} else {
		hit.Normal = p.Normal
	}
	return true
}

// Slab intersection test.
func (p *Primitive) intersectBox(ray Ray, tMin, tMax float32, hit *HitRecord) bool {
	tNear := float32(-math32.MaxFloat32)
	tFar := float32(math32.MaxFloat32)
	nearAxis := -1
	farAxis := -1

	for axis := 0; axis < 3; axis++ {
		if math32.Abs(ray.Dir[axis]) < types.Epsilon {
			if ray.Origin[axis] < p.Origin[axis] || ray.Origin[axis] > p.Corner[axis] {
				return false
			}
			continue
		}

		inv := 1.0 / ray.Dir[axis]
		t0 := (p.Origin[axis] - ray.Origin[axis]) * inv
		t1 := (p.Corner[axis] - ray.Origin[axis]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
			nearAxis = axis
		}
		if t1 < tFar {
			tFar = t1
			farAxis = axis
		}
		if tNear > tFar {
			return false
		}
	}

	// Rays starting inside the box hit the exit face instead.
	t := tNear
	axis := nearAxis
	if t <= tMin {
		t = tFar
		axis = farAxis
	}
	if t <= tMin || t >= tMax || axis < 0 {
		return false
	}

	hit.T = t
	hit.Point = ray.At(t)
	hit.Material = p.Material
	hit.Normal = types.Vec3{}
	if ray.Dir[axis] > 0 {
		hit.Normal[axis] = -1
	} else {
		hit.Normal[axis] = 1
	}
	return true
}
