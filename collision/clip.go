package collision

import (
	"github.com/golang/geo/r3"

	"go.viam.com/narrowphase/spatialmath"
)

const (
	// manifoldFaceCosine is the smallest cosine between a face normal and the contact
	// normal for the face to be clipped against.
	manifoldFaceCosine = 0.05
	// manifoldGuardTolerance is how much farther than the closest distance every clipped
	// contact may be before the closest point is added back.
	manifoldGuardTolerance = 1e-4
)

// convexManifold fills m with the contacts between two placed convex shapes. It returns
// false when the shapes are farther apart than maxDistance.
func convexManifold(a, b *placedConvex, maxDistance float64, m *Manifold) bool {
	res := convexDistance(a, b)
	if res.Distance > maxDistance {
		return false
	}
	n := res.Normal
	m.Normal = n

	switch {
	case len(a.vertices) == 1 || len(b.vertices) == 1:
	case len(a.planes) == 0 && len(b.planes) == 0:
		capsuleCapsuleContacts(a, b, n, maxDistance, m)
	case len(a.planes) == 0:
		if face, cos := b.supportingFace(n.Mul(-1)); cos >= manifoldFaceCosine {
			if p0, p1, ok := clipSegmentToFace(a.vertices[0], a.vertices[1], b.faceVertices(face), b.planes[face].Normal); ok {
				addAgainstB(m, []r3.Vector{p0, p1}, b.planes[face], n, a.radius, b.radius, maxDistance)
			}
		}
	case len(b.planes) == 0:
		if face, cos := a.supportingFace(n); cos >= manifoldFaceCosine {
			if p0, p1, ok := clipSegmentToFace(b.vertices[0], b.vertices[1], a.faceVertices(face), a.planes[face].Normal); ok {
				addAgainstA(m, []r3.Vector{p0, p1}, a.planes[face], n, a.radius, b.radius, maxDistance)
			}
		}
	default:
		faceA, cosA := a.supportingFace(n)
		faceB, cosB := b.supportingFace(n.Mul(-1))
		switch {
		case cosA >= manifoldFaceCosine:
			pts := clipPolygonToFace(b.faceVertices(faceB), a.faceVertices(faceA), a.planes[faceA].Normal)
			addAgainstA(m, pts, a.planes[faceA], n, a.radius, b.radius, maxDistance)
		case cosB >= manifoldFaceCosine:
			pts := clipPolygonToFace(a.faceVertices(faceA), b.faceVertices(faceB), b.planes[faceB].Normal)
			addAgainstB(m, pts, b.planes[faceB], n, a.radius, b.radius, maxDistance)
		}
	}

	if !hasContactWithin(m, res.Distance+manifoldGuardTolerance) {
		m.Add(ContactPoint{Position: res.PositionOnB(), Distance: res.Distance})
	}
	return true
}

func hasContactWithin(m *Manifold, distance float64) bool {
	for _, c := range m.Contacts() {
		if c.Distance <= distance {
			return true
		}
	}
	return false
}

// addAgainstA adds contacts for points on B's core measured against A's reference face.
func addAgainstA(m *Manifold, pts []r3.Vector, planeA spatialmath.Plane, n r3.Vector, radiusA, radiusB, maxDistance float64) {
	denom := planeA.Normal.Dot(n)
	for _, p := range pts {
		t := planeA.SignedDistance(p) / denom
		if d := t - radiusA - radiusB; d < maxDistance {
			m.Add(ContactPoint{Position: p.Sub(n.Mul(radiusB)), Distance: d})
		}
	}
}

// addAgainstB adds contacts for points on A's core measured against B's reference face.
func addAgainstB(m *Manifold, pts []r3.Vector, planeB spatialmath.Plane, n r3.Vector, radiusA, radiusB, maxDistance float64) {
	denom := planeB.Normal.Dot(n)
	for _, p := range pts {
		t := -planeB.SignedDistance(p) / denom
		if d := t - radiusA - radiusB; d < maxDistance {
			m.Add(ContactPoint{Position: p.Add(n.Mul(t - radiusB)), Distance: d})
		}
	}
}

// capsuleCapsuleContacts adds the ends of the overlapping range when the axes are parallel.
func capsuleCapsuleContacts(a, b *placedConvex, n r3.Vector, maxDistance float64, m *Manifold) {
	da := a.vertices[1].Sub(a.vertices[0])
	db := b.vertices[1].Sub(b.vertices[0])
	if da.Norm2() < 1e-12 || db.Norm2() < 1e-12 || da.Normalize().Cross(db.Normalize()).Norm2() > 1e-6 {
		return
	}
	add := func(onA, onB r3.Vector) {
		if d := onB.Sub(onA).Dot(n) - a.radius - b.radius; d < maxDistance {
			m.Add(ContactPoint{Position: onB.Sub(n.Mul(b.radius)), Distance: d})
		}
	}
	for _, p := range b.vertices[:2] {
		onA := spatialmath.ClosestPointSegmentPoint(a.vertices[0], a.vertices[1], p)
		if spatialmath.R3VectorAlmostEqual(spatialmath.ClosestPointSegmentPoint(b.vertices[0], b.vertices[1], onA), p, 1e-9) {
			add(onA, p)
		}
	}
	for _, p := range a.vertices[:2] {
		onB := spatialmath.ClosestPointSegmentPoint(b.vertices[0], b.vertices[1], p)
		if spatialmath.R3VectorAlmostEqual(spatialmath.ClosestPointSegmentPoint(a.vertices[0], a.vertices[1], onB), p, 1e-9) {
			add(p, onB)
		}
	}
}

// sidePlanes returns the planes through each edge of a face, facing outward.
func sidePlanes(face []r3.Vector, normal r3.Vector) []spatialmath.Plane {
	planes := make([]spatialmath.Plane, 0, len(face))
	for i, v := range face {
		edge := face[(i+1)%len(face)].Sub(v)
		out := edge.Cross(normal)
		if out.Norm2() < 1e-24 {
			continue
		}
		planes = append(planes, spatialmath.NewPlaneFromPointNormal(v, out))
	}
	return planes
}

// clipPolygonToFace clips a polygon against the side planes of a reference face
// (Sutherland-Hodgman). The result stays in the incident polygon's plane.
func clipPolygonToFace(incident, reference []r3.Vector, normal r3.Vector) []r3.Vector {
	out := append([]r3.Vector(nil), incident...)
	for _, plane := range sidePlanes(reference, normal) {
		if len(out) == 0 {
			break
		}
		in := out
		out = make([]r3.Vector, 0, len(in)+1)
		prev := in[len(in)-1]
		prevDist := plane.SignedDistance(prev)
		for _, cur := range in {
			curDist := plane.SignedDistance(cur)
			if (prevDist > 0) != (curDist > 0) {
				t := prevDist / (prevDist - curDist)
				out = append(out, prev.Add(cur.Sub(prev).Mul(t)))
			}
			if curDist <= 0 {
				out = append(out, cur)
			}
			prev, prevDist = cur, curDist
		}
	}
	return out
}

// clipSegmentToFace clips a segment against the side planes of a face. ok is false when
// nothing of the segment lies over the face.
func clipSegmentToFace(p0, p1 r3.Vector, face []r3.Vector, normal r3.Vector) (r3.Vector, r3.Vector, bool) {
	lo, hi := 0.0, 1.0
	dir := p1.Sub(p0)
	for _, plane := range sidePlanes(face, normal) {
		d0 := plane.SignedDistance(p0)
		rate := plane.Normal.Dot(dir)
		if rate == 0 {
			if d0 > 0 {
				return p0, p1, false
			}
			continue
		}
		t := -d0 / rate
		if rate > 0 {
			if t < hi {
				hi = t
			}
		} else if t > lo {
			lo = t
		}
		if lo > hi {
			return p0, p1, false
		}
	}
	return p0.Add(dir.Mul(lo)), p0.Add(dir.Mul(hi)), true
}
