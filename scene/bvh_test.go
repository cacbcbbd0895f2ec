package scene

import (
	"testing"

	"github.com/thijshberg/sig-raytracer/types"
)

func TestBVHSingleLeaf(t *testing.T) {
	prims := []*Primitive{
		mustBox(t, types.Vec3{-2, 0, -2}, types.Vec3{-1, 1, -1}),
		mustBox(t, types.Vec3{1, 0, -2}, types.Vec3{2, 1, -1}),
		mustBox(t, types.Vec3{-2, 0, 1}, types.Vec3{-1, 1, 2}),
		mustBox(t, types.Vec3{1, 0, 1}, types.Vec3{2, 1, 2}),
	}

	// Work lists at or below the leaf size are packed into a single leaf.
	index := buildBVH(prims, []int32{0, 1, 2, 3})
	if len(index.nodes) != 1 {
		t.Fatalf("expected a single bvh node; got %d", len(index.nodes))
	}
	root := index.nodes[0]
	if root.itemCount != 4 {
		t.Fatalf("expected leaf to hold 4 items; got %d", root.itemCount)
	}
	if !vecNear(root.min, types.Vec3{-2, 0, -2}, testTolerance) || !vecNear(root.max, types.Vec3{2, 1, 2}, testTolerance) {
		t.Fatalf("unexpected root bounds: min=%v max=%v", root.min, root.max)
	}
}

func TestBVHPartitioning(t *testing.T) {
	// A well separated grid of spheres always profits from splitting.
	prims := make([]*Primitive, 0, 16)
	indices := make([]int32, 0, 16)
	for x := 0; x < 4; x++ {
		for z := 0; z < 4; z++ {
			center := types.XYZ(float32(x)*10, 0, float32(z)*10)
			prims = append(prims, mustSphere(t, center, 1))
			indices = append(indices, int32(len(prims)-1))
		}
	}

	index := buildBVH(prims, indices)
	if len(index.nodes) < 3 {
		t.Fatalf("expected the builder to split the work list; got %d nodes", len(index.nodes))
	}

	// Every input primitive must land in exactly one leaf and leaf bounds
	// must contain their primitives.
	seen := make(map[int32]int)
	for _, node := range index.nodes {
		if node.itemCount == 0 {
			continue
		}
		for _, itemIndex := range index.items[node.firstItem : node.firstItem+node.itemCount] {
			seen[itemIndex]++

			bbox := prims[itemIndex].BBox()
			if bbox[0][0] < node.min[0]-testTolerance || bbox[1][0] > node.max[0]+testTolerance ||
				bbox[0][1] < node.min[1]-testTolerance || bbox[1][1] > node.max[1]+testTolerance ||
				bbox[0][2] < node.min[2]-testTolerance || bbox[1][2] > node.max[2]+testTolerance {
				t.Fatalf("primitive %d escapes its leaf bounds", itemIndex)
			}
		}
	}
	if len(seen) != len(indices) {
		t.Fatalf("expected %d partitioned primitives; got %d", len(indices), len(seen))
	}
	for itemIndex, count := range seen {
		if count != 1 {
			t.Fatalf("expected primitive %d to appear in exactly one leaf; got %d", itemIndex, count)
		}
	}
}

func TestRayBoxRange(t *testing.T) {
	min := types.Vec3{-1, -1, -1}
	max := types.Vec3{1, 1, 1}

	type spec struct {
		origin   types.Vec3
		dir      types.Vec3
		expHit   bool
		expEntry float32
		expExit  float32
	}
	specs := []spec{
		{types.Vec3{-5, 0, 0}, types.Vec3{1, 0, 0}, true, 4, 6},
		// Origin inside gives a negative entry.
		{types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}, true, -1, 1},
		// Parallel ray outside a slab.
		{types.Vec3{-5, 5, 0}, types.Vec3{1, 0, 0}, false, 0, 0},
		{types.Vec3{0, -5, 0}, types.Vec3{0, 1, 0}, true, 4, 6},
	}

	for idx, s := range specs {
		entry, exit, ok := rayBoxRange(Ray{Origin: s.origin, Dir: s.dir}, min, max)
		if ok != s.expHit {
			t.Fatalf("[spec %d] expected overlap to be %t; got %t", idx, s.expHit, ok)
		}
		if !s.expHit {
			continue
		}
		if absDiff32(entry, s.expEntry) > testTolerance || absDiff32(exit, s.expExit) > testTolerance {
			t.Fatalf("[spec %d] expected range [%f, %f]; got [%f, %f]", idx, s.expEntry, s.expExit, entry, exit)
		}
	}
}
