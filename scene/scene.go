package scene

import (
	"github.com/thijshberg/sig-raytracer/types"
)

// Scenes with at least this many bounded primitives get a BVH index.
const bvhMinPrimitives = 8

// An immutable collection of primitives. Primitive indices are stable for
// the scene lifetime and identify hits across queries.
type Scene struct {
	Primitives []*Primitive

	// Primitive indices scanned linearly on every query. Holds all
	// primitives when no index was built, otherwise only unbounded ones.
	linear []int32

	index *bvhIndex
}

// Create a scene over the primitive list. The list is not copied; callers
// must not mutate it afterwards.
func New(primitives []*Primitive) *Scene {
	return newScene(primitives, true)
}

func newScene(primitives []*Primitive, allowIndex bool) *Scene {
	s := &Scene{Primitives: primitives}

	bounded := make([]int32, 0, len(primitives))
	for idx, prim := range primitives {
		if prim.Bounded() {
			bounded = append(bounded, int32(idx))
		} else {
			s.linear = append(s.linear, int32(idx))
		}
	}

	if allowIndex && len(bounded) >= bvhMinPrimitives {
		s.index = buildBVH(primitives, bounded)
	} else {
		s.linear = append(s.linear, bounded...)
	}
	return s
}

// Find the nearest primitive intersection within (tMin, tMax). When two
// primitives intersect the ray at exactly the same distance the one with
// the lowest index wins, independent of traversal order.
func (s *Scene) NearestHit(ray Ray, tMin, tMax float32) (HitRecord, bool) {
	best := HitRecord{Prim: -1}
	found := false

	var hit HitRecord
	for _, idx := range s.linear {
		if !s.Primitives[idx].Intersect(ray, tMin, tMax, &hit) {
			continue
		}
		hit.Prim = idx
		if !found || hit.T < best.T || (hit.T == best.T && hit.Prim < best.Prim) {
			best = hit
			found = true
		}
	}

	if s.index != nil {
		s.index.nearestHit(s.Primitives, ray, tMin, tMax, &best, &found)
	}
	return best, found
}

// Report whether the point lies inside any primitive volume, returning the
// index of the first one that contains it.
func (s *Scene) Contains(point types.Vec3) (int32, bool) {
	for idx, prim := range s.Primitives {
		if prim.Contains(point) {
			return int32(idx), true
		}
	}
	return -1, false
}
