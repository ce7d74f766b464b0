package collision

import (
	"math"

	"github.com/golang/geo/r3"
)

// satEdgeBias keeps face axes preferred over edge axes with nearly the same gap, which keeps
// the normal on a face for resting contact.
const satEdgeBias = 1e-5

// satAxis is the candidate with the largest gap found by a separating axis pass.
// normal points from A toward B.
type satAxis struct {
	normal r3.Vector
	gap    float64
}

// axisGap returns the separation of the cores along axis, oriented so the result points from
// A toward B. Positive gaps mean the axis separates the cores.
func axisGap(a, b *placedConvex, axis r3.Vector) (r3.Vector, float64) {
	loA, hiA := a.projection(axis)
	loB, hiB := b.projection(axis)
	forward := loB - hiA
	backward := loA - hiB
	if forward >= backward {
		return axis, forward
	}
	return axis.Mul(-1), backward
}

// penetrationAxis runs the separating axis test over both hulls' face normals and the cross
// products of their edges. It is only used when the cores overlap or touch.
func penetrationAxis(a, b *placedConvex) satAxis {
	best := satAxis{gap: math.Inf(-1)}
	consider := func(axis r3.Vector, bias float64) {
		n2 := axis.Norm2()
		if n2 < 1e-12 {
			return
		}
		n, gap := axisGap(a, b, axis.Mul(1/math.Sqrt(n2)))
		if gap > best.gap+bias {
			best = satAxis{normal: n, gap: gap}
		}
	}

	for _, p := range a.planes {
		consider(p.Normal, 0)
	}
	for _, p := range b.planes {
		consider(p.Normal, 1e-9)
	}
	for _, side := range [2]*placedConvex{a, b} {
		if side.typ() != TypePolygon || len(side.planes) == 0 {
			continue
		}
		n := side.planes[0].Normal
		for _, e := range side.hull.Edges() {
			consider(side.vertices[e[1]].Sub(side.vertices[e[0]]).Cross(n), satEdgeBias)
		}
	}
	for _, ea := range a.hull.Edges() {
		da := a.vertices[ea[1]].Sub(a.vertices[ea[0]])
		for _, eb := range b.hull.Edges() {
			consider(da.Cross(b.vertices[eb[1]].Sub(b.vertices[eb[0]])), satEdgeBias)
		}
	}

	if math.IsInf(best.gap, -1) {
		// Only reachable for point and segment cores, which the closed forms handle first.
		n, gap := axisGap(a, b, r3.Vector{X: 1})
		best = satAxis{normal: n, gap: gap}
	}
	return best
}

// penetrationDistance builds the distance result for overlapping cores.
func penetrationDistance(a, b *placedConvex) DistanceResult {
	axis := penetrationAxis(a, b)
	gap := math.Min(axis.gap, 0)
	deepestB := b.support(axis.normal.Mul(-1))
	pointA := deepestB.Sub(axis.normal.Mul(gap))
	return DistanceResult{
		PositionOnA: pointA.Add(axis.normal.Mul(a.radius)),
		Normal:      axis.normal,
		Distance:    gap - a.radius - b.radius,
	}
}
