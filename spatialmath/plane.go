package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Plane is the set of points x with Normal·x + Distance = 0. Normal is unit length.
type Plane struct {
	Normal   r3.Vector `json:"normal"`
	Distance float64   `json:"distance"`
}

// NewPlaneFromPointNormal builds a plane through point with the given normal. The normal is normalized.
func NewPlaneFromPointNormal(point, normal r3.Vector) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, Distance: -n.Dot(point)}
}

// NewPlaneFromPoints builds the plane through three points, facing by the right-hand rule.
func NewPlaneFromPoints(p0, p1, p2 r3.Vector) Plane {
	return NewPlaneFromPointNormal(p0, PlaneNormal(p0, p1, p2))
}

// SignedDistance returns the distance from p to the plane, positive on the side the normal faces.
func (p Plane) SignedDistance(pt r3.Vector) float64 {
	return p.Normal.Dot(pt) + p.Distance
}

// Project returns the orthogonal projection of pt onto the plane.
func (p Plane) Project(pt r3.Vector) r3.Vector {
	return pt.Sub(p.Normal.Mul(p.SignedDistance(pt)))
}

// Point returns the point of the plane closest to the origin.
func (p Plane) Point() r3.Vector {
	return p.Normal.Mul(-p.Distance)
}

// Offset returns the plane pushed out along its normal by d.
func (p Plane) Offset(d float64) Plane {
	return Plane{Normal: p.Normal, Distance: p.Distance - d}
}

// Flip returns the same plane facing the other way.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Mul(-1), Distance: -p.Distance}
}

// Transform maps the plane through t.
func (p Plane) Transform(t Transform) Plane {
	n := t.ApplyNormal(p.Normal)
	return Plane{Normal: n, Distance: t.Scale*p.Distance - n.Dot(t.Translation)}
}

// IntersectSegment returns the fraction along a->b where the segment crosses the plane.
func (p Plane) IntersectSegment(a, b r3.Vector) (float64, bool) {
	da := p.SignedDistance(a)
	db := p.SignedDistance(b)
	if da*db > 0 || da == db {
		return 0, false
	}
	return da / (da - db), true
}
