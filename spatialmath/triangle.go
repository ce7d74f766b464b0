package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Triangle is three points with a cached right-hand normal.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a triangle. Degenerate triangles get a zero normal.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the triangle's vertices in winding order.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Plane returns the supporting plane.
func (t *Triangle) Plane() Plane {
	return Plane{Normal: t.normal, Distance: -t.normal.Dot(t.p0)}
}

// Area returns the triangle's area.
func (t *Triangle) Area() float64 {
	return t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm() / 2
}

// Centroid returns the average of the vertices.
func (t *Triangle) Centroid() r3.Vector {
	return t.p0.Add(t.p1).Add(t.p2).Mul(1. / 3.)
}

// Transform maps every vertex through tf.
func (t *Triangle) Transform(tf Transform) *Triangle {
	return NewTriangle(tf.Apply(t.p0), tf.Apply(t.p1), tf.Apply(t.p2))
}

// ClosestPointToCoplanarPoint takes a point, and returns the closest point on the triangle to the given point
// The given point *MUST* be coplanar with the triangle. If it is known ahead of time that the point is coplanar, this is faster.
func (t *Triangle) ClosestPointToCoplanarPoint(pt r3.Vector) r3.Vector {
	c0 := pt.Sub(t.p0).Cross(t.p1.Sub(t.p0))
	c1 := pt.Sub(t.p1).Cross(t.p2.Sub(t.p1))
	c2 := pt.Sub(t.p2).Cross(t.p0.Sub(t.p2))
	if c0.Dot(t.normal) <= 0 && c1.Dot(t.normal) <= 0 && c2.Dot(t.normal) <= 0 {
		return pt
	}
	return t.closestEdgePoint(pt)
}

// ClosestPointToPoint takes a point, and returns the closest point on the triangle to the given point.
// This is slower than ClosestPointToCoplanarPoint.
func (t *Triangle) ClosestPointToPoint(point r3.Vector) r3.Vector {
	if closest, inside := t.ClosestInsidePoint(point); inside {
		return closest
	}
	return t.closestEdgePoint(point)
}

// closestEdgePoint checks each edge and keeps the nearest candidate.
func (t *Triangle) closestEdgePoint(point r3.Vector) r3.Vector {
	closestPt := ClosestPointSegmentPoint(t.p0, t.p1, point)
	bestDist := point.Sub(closestPt).Norm2()

	if newPt := ClosestPointSegmentPoint(t.p1, t.p2, point); point.Sub(newPt).Norm2() < bestDist {
		closestPt = newPt
		bestDist = point.Sub(newPt).Norm2()
	}
	if newPt := ClosestPointSegmentPoint(t.p2, t.p0, point); point.Sub(newPt).Norm2() < bestDist {
		return newPt
	}
	return closestPt
}

// ClosestInsidePoint returns the closest point on a triangle IF AND ONLY IF the query point's projection overlaps the triangle.
// Otherwise it will return the projection onto the triangle's plane along with false.
func (t *Triangle) ClosestInsidePoint(point r3.Vector) (r3.Vector, bool) {
	eps := 1e-6

	// Parametrize the triangle s.t. a point inside the triangle is
	// Q = p0 + u * e0 + v * e1, when 0 <= u <= 1, 0 <= v <= 1, and
	// 0 <= u + v <= 1. Let e0 = (p1 - p0) and e1 = (p2 - p0).
	e0 := t.p1.Sub(t.p0)
	e1 := t.p2.Sub(t.p0)
	a := e0.Norm2()
	b := e0.Dot(e1)
	c := e1.Norm2()
	d := point.Sub(t.p0)
	det := a*c - b*b
	if det < floatEpsilon {
		return point, false
	}
	u := (c*e0.Dot(d) - b*e1.Dot(d)) / det
	v := (-b*e0.Dot(d) + a*e1.Dot(d)) / det
	inside := (0 <= u+eps) && (u <= 1+eps) && (0 <= v+eps) && (v <= 1+eps) && (u+v <= 1+eps)
	return t.p0.Add(e0.Mul(u)).Add(e1.Mul(v)), inside
}

// IntersectsPlane determines if the triangle intersects with a plane.
// Returns true if the triangle intersects with or lies on the plane.
func (t *Triangle) IntersectsPlane(plane Plane) bool {
	d0 := plane.SignedDistance(t.p0)
	d1 := plane.SignedDistance(t.p1)
	d2 := plane.SignedDistance(t.p2)
	if (d0 > floatEpsilon && d1 > floatEpsilon && d2 > floatEpsilon) ||
		(d0 < -floatEpsilon && d1 < -floatEpsilon && d2 < -floatEpsilon) {
		return false
	}
	return true
}
