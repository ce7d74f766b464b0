package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/narrowphase/spatialmath"
)

// RaycastInput is a finite ray from Start to End.
type RaycastInput struct {
	Start  r3.Vector
	End    r3.Vector
	Filter Filter
}

// Displacement is End - Start.
func (in RaycastInput) Displacement() r3.Vector {
	return in.End.Sub(in.Start)
}

// ray is a ray in some collider's local frame. Fractions are shared with the world ray.
type ray struct {
	origin       r3.Vector
	displacement r3.Vector
}

func (r ray) at(fraction float64) r3.Vector {
	return r.origin.Add(r.displacement.Mul(fraction))
}

func (r ray) transformInto(localFromParent spatialmath.Transform) ray {
	return ray{origin: localFromParent.Apply(r.origin), displacement: localFromParent.ApplyVector(r.displacement)}
}

// insideNormal is reported when a ray starts inside a solid.
func (r ray) insideNormal() r3.Vector {
	if r.displacement.Norm2() < 1e-24 {
		return r3.Vector{Z: 1}
	}
	return r.displacement.Normalize().Mul(-1)
}

// raySphere returns the entry fraction and outward normal of a ray against a sphere.
func raySphere(r ray, center r3.Vector, radius, maxFraction float64) (float64, r3.Vector, bool) {
	m := r.origin.Sub(center)
	c := m.Norm2() - radius*radius
	if c <= 0 {
		return 0, r.insideNormal(), true
	}
	a := r.displacement.Norm2()
	b := m.Dot(r.displacement)
	if a < 1e-24 || b >= 0 {
		return 0, r3.Vector{}, false
	}
	disc := b*b - a*c
	if disc < 0 {
		return 0, r3.Vector{}, false
	}
	t := (-b - math.Sqrt(disc)) / a
	if t < 0 || t > maxFraction {
		return 0, r3.Vector{}, false
	}
	return t, r.at(t).Sub(center).Mul(1 / radius), true
}

// rayCapsule tests the infinite cylinder gated to the segment, then both end caps.
func rayCapsule(r ray, v0, v1 r3.Vector, radius, maxFraction float64) (float64, r3.Vector, bool) {
	if spatialmath.DistToLineSegment(v0, v1, r.origin) <= radius {
		return 0, r.insideNormal(), true
	}

	bestT := math.Inf(1)
	var bestN r3.Vector
	axis := v1.Sub(v0)
	length := axis.Norm()
	if length > 1e-12 {
		dir := axis.Mul(1 / length)
		m := r.origin.Sub(v0)
		mPerp := m.Sub(dir.Mul(m.Dot(dir)))
		dPerp := r.displacement.Sub(dir.Mul(r.displacement.Dot(dir)))
		a := dPerp.Norm2()
		b := mPerp.Dot(dPerp)
		c := mPerp.Norm2() - radius*radius
		if disc := b*b - a*c; a > 1e-24 && disc >= 0 {
			t := (-b - math.Sqrt(disc)) / a
			if t >= 0 && t <= maxFraction {
				along := r.at(t).Sub(v0).Dot(dir)
				if along >= 0 && along <= length {
					bestT = t
					bestN = mPerp.Add(dPerp.Mul(t)).Mul(1 / radius)
				}
			}
		}
	}
	for _, end := range [2]r3.Vector{v0, v1} {
		if t, n, ok := raySphere(r, end, radius, math.Min(maxFraction, bestT)); ok && t < bestT {
			bestT, bestN = t, n
		}
	}
	if math.IsInf(bestT, 1) {
		return 0, r3.Vector{}, false
	}
	return bestT, bestN, true
}

// rayPolygon uses edge-function parity: the ray line passes through the face iff the signed
// volumes against every edge share one sign. The normal faces the ray.
func rayPolygon(r ray, verts []r3.Vector, plane spatialmath.Plane, maxFraction float64) (float64, r3.Vector, bool) {
	n := len(verts)
	var sign float64
	for i := 0; i < n; i++ {
		a := verts[i].Sub(r.origin)
		b := verts[(i+1)%n].Sub(r.origin)
		s := r.displacement.Dot(a.Cross(b))
		if s == 0 {
			continue
		}
		if sign == 0 {
			sign = s
		} else if (s > 0) != (sign > 0) {
			return 0, r3.Vector{}, false
		}
	}

	denom := plane.Normal.Dot(r.displacement)
	if math.Abs(denom) < 1e-20 {
		return 0, r3.Vector{}, false
	}
	t := -plane.SignedDistance(r.origin) / denom
	if t < 0 || t > maxFraction {
		return 0, r3.Vector{}, false
	}
	normal := plane.Normal
	if denom > 0 {
		normal = normal.Mul(-1)
	}
	return t, normal, true
}

// rayHull clips the ray against every face plane pushed out by the convex radius.
func rayHull(r ray, hull *ConvexHull, maxFraction float64) (float64, r3.Vector, bool) {
	enter, exit := 0.0, maxFraction
	var normal r3.Vector
	outside := false
	for _, f := range hull.Faces {
		plane := f.Plane.Offset(hull.ConvexRadius)
		dist := plane.SignedDistance(r.origin)
		if dist > 0 {
			outside = true
		}
		denom := plane.Normal.Dot(r.displacement)
		if math.Abs(denom) < 1e-20 {
			if dist > 0 {
				return 0, r3.Vector{}, false
			}
			continue
		}
		t := -dist / denom
		if denom < 0 {
			if t > enter {
				enter = t
				normal = plane.Normal
			}
		} else if t < exit {
			exit = t
		}
		if enter > exit {
			return 0, r3.Vector{}, false
		}
	}
	if !outside {
		return 0, r.insideNormal(), true
	}
	return enter, normal, true
}

// raycastConvex runs the local-frame test for a convex leaf.
func raycastConvex(c Convex, r ray, maxFraction float64) (float64, r3.Vector, bool) {
	switch shape := c.(type) {
	case *SphereCollider:
		return raySphere(r, shape.Center, shape.Radius, maxFraction)
	case *CapsuleCollider:
		return rayCapsule(r, shape.Vertex0, shape.Vertex1, shape.Radius, maxFraction)
	case *PolygonCollider:
		return rayPolygon(r, shape.Vertices[:shape.NumVertices], shape.Plane, maxFraction)
	default:
		return rayHull(r, c.Hull(), maxFraction)
	}
}
