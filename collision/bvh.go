package collision

import (
	"sort"

	"go.viam.com/narrowphase/spatialmath"
)

// bvhWidth is the number of children per node.
const bvhWidth = 4

// bvhNode holds up to four child bounds. A child is either another node or a leaf.
type bvhNode struct {
	bounds   [bvhWidth]spatialmath.AABB
	children [bvhWidth]int
	isLeaf   [bvhWidth]bool
	count    int
}

// bvh is a four-wide bounding volume hierarchy over leaf indices.
type bvh struct {
	nodes  []bvhNode
	bounds spatialmath.AABB
}

type bvhItem struct {
	index    int
	bounds   spatialmath.AABB
	centroid [3]float64
}

// buildBVH builds a hierarchy over the given leaf bounds. Leaf i keeps index i.
func buildBVH(leafBounds []spatialmath.AABB) *bvh {
	if len(leafBounds) == 0 {
		return nil
	}
	items := make([]bvhItem, len(leafBounds))
	tree := &bvh{bounds: spatialmath.EmptyAABB()}
	for i, b := range leafBounds {
		c := b.Center()
		items[i] = bvhItem{index: i, bounds: b, centroid: [3]float64{c.X, c.Y, c.Z}}
		tree.bounds = tree.bounds.Union(b)
	}
	tree.build(items)
	return tree
}

// build creates the node for items and returns its index.
func (t *bvh) build(items []bvhItem) int {
	nodeIdx := len(t.nodes)
	t.nodes = append(t.nodes, bvhNode{})

	var groups [][]bvhItem
	if len(items) <= bvhWidth {
		for i := range items {
			groups = append(groups, items[i:i+1])
		}
	} else {
		left, right := splitItems(items)
		l0, l1 := splitItems(left)
		r0, r1 := splitItems(right)
		groups = [][]bvhItem{l0, l1, r0, r1}
	}

	var node bvhNode
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		slot := node.count
		node.count++
		if len(g) == 1 {
			node.bounds[slot] = g[0].bounds
			node.children[slot] = g[0].index
			node.isLeaf[slot] = true
			continue
		}
		bounds := spatialmath.EmptyAABB()
		for _, it := range g {
			bounds = bounds.Union(it.bounds)
		}
		node.bounds[slot] = bounds
		node.children[slot] = t.build(g)
	}
	t.nodes[nodeIdx] = node
	return nodeIdx
}

// splitItems sorts along the widest centroid axis and splits at the median.
func splitItems(items []bvhItem) ([]bvhItem, []bvhItem) {
	if len(items) <= 1 {
		return items, nil
	}
	var lo, hi [3]float64
	for axis := 0; axis < 3; axis++ {
		lo[axis], hi[axis] = items[0].centroid[axis], items[0].centroid[axis]
	}
	for _, it := range items[1:] {
		for axis := 0; axis < 3; axis++ {
			if it.centroid[axis] < lo[axis] {
				lo[axis] = it.centroid[axis]
			}
			if it.centroid[axis] > hi[axis] {
				hi[axis] = it.centroid[axis]
			}
		}
	}
	axis := 0
	for i := 1; i < 3; i++ {
		if hi[i]-lo[i] > hi[axis]-lo[axis] {
			axis = i
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].centroid[axis] < items[j].centroid[axis]
	})
	mid := len(items) / 2
	return items[:mid], items[mid:]
}

// traverse visits every leaf whose bounds pass overlap, using an explicit stack.
// Returning false from visit stops the traversal.
func (t *bvh) traverse(overlap func(spatialmath.AABB) bool, visit func(leaf int) bool) {
	if t == nil || len(t.nodes) == 0 {
		return
	}
	stack := make([]int, 1, 32)
	for len(stack) > 0 {
		nodeIdx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &t.nodes[nodeIdx]
		for i := 0; i < node.count; i++ {
			if !overlap(node.bounds[i]) {
				continue
			}
			if !node.isLeaf[i] {
				stack = append(stack, node.children[i])
				continue
			}
			if !visit(node.children[i]) {
				return
			}
		}
	}
}
