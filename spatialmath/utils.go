package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/narrowphase/utils"
)

// floatEpsilon is the tolerance used for geometric degeneracy checks.
const floatEpsilon = 1e-9

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}

// PlaneNormal returns the unit normal of the plane through three points using the right-hand rule.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	if n.Norm2() < floatEpsilon*floatEpsilon {
		return r3.Vector{}
	}
	return n.Normalize()
}

// AnyPerpendicular returns a unit vector perpendicular to v.
func AnyPerpendicular(v r3.Vector) r3.Vector {
	if math.Abs(v.X) > math.Abs(v.Z) {
		return r3.Vector{X: -v.Y, Y: v.X}.Normalize()
	}
	return r3.Vector{Y: -v.Z, Z: v.Y}.Normalize()
}

// ClosestPointSegmentPoint takes a line segment and a point, and returns the point on the segment closest to the query point.
func ClosestPointSegmentPoint(segA, segB, pt r3.Vector) r3.Vector {
	ab := segB.Sub(segA)
	denom := ab.Norm2()
	if denom < floatEpsilon*floatEpsilon {
		return segA
	}
	t := pt.Sub(segA).Dot(ab) / denom
	return segA.Add(ab.Mul(clamp01(t)))
}

// DistToLineSegment takes a line segment and a point, and returns the distance between them.
func DistToLineSegment(segA, segB, pt r3.Vector) float64 {
	return pt.Sub(ClosestPointSegmentPoint(segA, segB, pt)).Norm()
}

// ClosestPointsSegmentSegment returns the closest points between segments p1-q1 and p2-q2.
// When the segments are parallel the first endpoint of the shorter overlap is used.
// Ericson, Real-Time Collision Detection, 5.1.9.
func ClosestPointsSegmentSegment(p1, q1, p2, q2 r3.Vector) (r3.Vector, r3.Vector) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Norm2()
	e := d2.Norm2()
	f := d2.Dot(r)

	var s, t float64
	switch {
	case a <= floatEpsilon && e <= floatEpsilon:
		return p1, p2
	case a <= floatEpsilon:
		t = clamp01(f / e)
	default:
		c := d1.Dot(r)
		if e <= floatEpsilon {
			s = clamp01(-c / a)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom > floatEpsilon {
				s = clamp01((b*f - c*e) / denom)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = clamp01((b - c) / a)
			}
		}
	}
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

// SegmentDistanceToSegment returns the minimum distance between two line segments.
func SegmentDistanceToSegment(ap1, ap2, bp1, bp2 r3.Vector) float64 {
	a, b := ClosestPointsSegmentSegment(ap1, ap2, bp1, bp2)
	return a.Sub(b).Norm()
}

func clamp01(v float64) float64 {
	return utils.Clamp(v, 0, 1)
}
