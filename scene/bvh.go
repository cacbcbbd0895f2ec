package scene

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/thijshberg/sig-raytracer/log"
	"github.com/thijshberg/sig-raytracer/types"
)

const (
	// The BVH builder will not attempt to calculate split candidates
	// if the node bbox along an axis is less than this threshold.
	minSideLength float32 = 1e-3

	// If the split step (calculated as side length / (1024 / depth+1))
	// is less than this threshold the BVH builder will not evaluate
	// split candidates.
	minSplitStep float32 = 1e-5

	// Max primitives per leaf.
	bvhLeafSize = 4
)

// Bvh node definition. Leaf nodes have itemCount > 0 and reference a range
// inside the index item list; inner nodes reference their children.
type bvhNode struct {
	min, max types.Vec3

	left, right int32

	firstItem int32
	itemCount int32
}

// A BVH over the bounded primitives of a scene. Queries return exactly the
// same results as a linear scan over the same primitive set.
type bvhIndex struct {
	nodes []bvhNode
	items []int32
}

type bvhSplitCandidate struct {
	axis                  int
	splitPoint            float32
	leftCount, rightCount int
	score                 float32
}

type bvhStats struct {
	nodes    int
	leafs    int
	maxDepth int
}

type bvhBuilder struct {
	logger log.Logger

	prims []*Primitive

	// Bvh nodes stored as a contiguous list.
	nodes []bvhNode

	// Leaf primitive indices stored as a contiguous list.
	items []int32

	// Score result chan.
	scoreChan chan bvhSplitCandidate

	stats bvhStats
}

// Construct a BVH over the primitives selected by indices.
//
// The builder uses SAH for scoring splits:
// score = item count * node bbox face area.
func buildBVH(prims []*Primitive, indices []int32) *bvhIndex {
	builder := &bvhBuilder{
		logger:    log.New("bvh"),
		prims:     prims,
		nodes:     make([]bvhNode, 0, 2*len(indices)),
		items:     make([]int32, 0, len(indices)),
		scoreChan: make(chan bvhSplitCandidate),
	}

	start := time.Now()
	builder.partition(indices, 0)
	builder.logger.Debugf(
		"indexed %d primitives in %d ms; maxDepth: %d, nodes: %d, leafs: %d",
		len(indices), time.Since(start).Nanoseconds()/1e6,
		builder.stats.maxDepth, builder.stats.nodes, builder.stats.leafs,
	)
	return &bvhIndex{nodes: builder.nodes, items: builder.items}
}

// Partition worklist and return node index.
func (b *bvhBuilder) partition(workList []int32, depth int) int32 {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	node := bvhNode{
		min: types.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		max: types.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}

	// Calculate bounding box for node
	for _, itemIndex := range workList {
		itemBBox := b.prims[itemIndex].BBox()
		node.min = types.MinVec3(node.min, itemBBox[0])
		node.max = types.MaxVec3(node.max, itemBBox[1])
	}

	// Do we have enough items for partitioning? If not create a leaf
	if len(workList) <= bvhLeafSize {
		return b.createLeaf(&node, workList)
	}

	// Calc current node score
	side := node.max.Sub(node.min)
	var bestScore = float32(len(workList)) * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
	var bestSplit *bvhSplitCandidate

	// Run axis split tests in parallel
	pendingScores := 0
	for axis := 0; axis < 3; axis++ {
		// Skip axis if bbox dimension is too small
		if side[axis] < minSideLength {
			continue
		}

		// We want the split steps to become more granular the deeper we go
		splitStep := side[axis] / (1024.0 / float32(depth+1))
		if splitStep < minSplitStep {
			continue
		}

		for splitPoint := node.min[axis]; splitPoint < node.max[axis]; splitPoint += splitStep {
			candidate := bvhSplitCandidate{
				axis:       axis,
				splitPoint: splitPoint,
			}
			pendingScores++
			go candidate.scoreSplit(b.prims, workList, b.scoreChan)
		}
	}

	// Process all scores and pick the best split
	for ; pendingScores > 0; pendingScores-- {
		candidate := <-b.scoreChan
		if candidate.score < bestScore {
			bestScore = candidate.score
			bestSplit = &candidate
		}
	}

	// If we can't find a split that improves the current node score create a leaf
	if bestSplit == nil {
		return b.createLeaf(&node, workList)
	}

	// Split work list into two sets
	leftWorkList := make([]int32, 0, bestSplit.leftCount)
	rightWorkList := make([]int32, 0, bestSplit.rightCount)
	for _, itemIndex := range workList {
		center := b.prims[itemIndex].Center()
		if center[bestSplit.axis] < bestSplit.splitPoint {
			leftWorkList = append(leftWorkList, itemIndex)
		} else {
			rightWorkList = append(rightWorkList, itemIndex)
		}
	}

	// Add node to list
	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, node)
	b.stats.nodes++

	// Partition children and update node indices
	leftNodeIndex := b.partition(leftWorkList, depth+1)
	rightNodeIndex := b.partition(rightWorkList, depth+1)
	b.nodes[nodeIndex].left = leftNodeIndex
	b.nodes[nodeIndex].right = rightNodeIndex

	return nodeIndex
}

// Calculate the score for splitting the workList with this split candidate
// and report the result to the supplied channel.
func (c bvhSplitCandidate) scoreSplit(prims []*Primitive, workList []int32, resChan chan<- bvhSplitCandidate) {
	lmin := types.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	rmin := types.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	lmax := types.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
	rmax := types.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}

	for _, itemIndex := range workList {
		center := prims[itemIndex].Center()
		itemBBox := prims[itemIndex].BBox()
		if center[c.axis] < c.splitPoint {
			c.leftCount++
			lmin = types.MinVec3(lmin, itemBBox[0])
			lmax = types.MaxVec3(lmax, itemBBox[1])
		} else {
			c.rightCount++
			rmin = types.MinVec3(rmin, itemBBox[0])
			rmax = types.MaxVec3(rmax, itemBBox[1])
		}
	}

	// Make sure that we got enough items on each side of the split
	minItemsOnEachSide := 2
	if len(workList) == 2 {
		minItemsOnEachSide = 1
	}
	if c.leftCount < minItemsOnEachSide || c.rightCount < minItemsOnEachSide {
		c.score = math32.MaxFloat32
		resChan <- c
		return
	}

	lside := lmax.Sub(lmin)
	rside := rmax.Sub(rmin)
	c.score = (float32(c.leftCount) * (lside[0]*lside[1] + lside[1]*lside[2] + lside[0]*lside[2])) +
		(float32(c.rightCount) * (rside[0]*rside[1] + rside[1]*rside[2] + rside[0]*rside[2]))
	resChan <- c
}

// Set up the given node as a leaf containing all items in the work list.
// Returns the index of the node in the bvh node array.
func (b *bvhBuilder) createLeaf(node *bvhNode, workList []int32) int32 {
	node.firstItem = int32(len(b.items))
	node.itemCount = int32(len(workList))
	b.items = append(b.items, workList...)

	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, *node)

	b.stats.leafs++
	return nodeIndex
}

// Find the nearest primitive hit along the ray, folding results into the
// caller's running best hit with the same tie rules as the linear scan.
func (bi *bvhIndex) nearestHit(prims []*Primitive, ray Ray, tMin, tMax float32, best *HitRecord, found *bool) {
	if len(bi.nodes) == 0 {
		return
	}

	stack := make([]int32, 1, 64)
	stack[0] = 0

	var hit HitRecord
	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &bi.nodes[nodeIndex]

		// Prune nodes that cannot contain a hit at least as close as the
		// current best. Equal-distance candidates must stay reachable for
		// the index tie-break, so the comparison is strict.
		limit := tMax
		if *found && best.T < limit {
			limit = best.T
		}
		entry, exit, ok := rayBoxRange(ray, node.min, node.max)
		if !ok || exit < tMin || entry > limit {
			continue
		}

		if node.itemCount > 0 {
			for _, itemIndex := range bi.items[node.firstItem : node.firstItem+node.itemCount] {
				if !prims[itemIndex].Intersect(ray, tMin, tMax, &hit) {
					continue
				}
				hit.Prim = itemIndex
				if !*found || hit.T < best.T || (hit.T == best.T && hit.Prim < best.Prim) {
					*best = hit
					*found = true
				}
			}
			continue
		}

		stack = append(stack, node.left, node.right)
	}
}

// Slab test returning the parametric range where the ray overlaps the box.
func rayBoxRange(ray Ray, min, max types.Vec3) (float32, float32, bool) {
	tNear := float32(-math32.MaxFloat32)
	tFar := float32(math32.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		if math32.Abs(ray.Dir[axis]) < types.Epsilon {
			if ray.Origin[axis] < min[axis] || ray.Origin[axis] > max[axis] {
				return 0, 0, false
			}
			continue
		}

		inv := 1.0 / ray.Dir[axis]
		t0 := (min[axis] - ray.Origin[axis]) * inv
		t1 := (max[axis] - ray.Origin[axis]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return 0, 0, false
		}
	}
	return tNear, tFar, true
}
