package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/narrowphase/spatialmath"
)

// DistanceResult is the closest approach between two convex shapes. Normal is unit length
// and points from A toward B. A negative Distance is a penetration depth.
type DistanceResult struct {
	PositionOnA r3.Vector
	Normal      r3.Vector
	Distance    float64
}

// PositionOnB is the matching point on B's surface.
func (r DistanceResult) PositionOnB() r3.Vector {
	return r.PositionOnA.Add(r.Normal.Mul(r.Distance))
}

// Flip swaps the roles of A and B.
func (r DistanceResult) Flip() DistanceResult {
	return DistanceResult{PositionOnA: r.PositionOnB(), Normal: r.Normal.Mul(-1), Distance: r.Distance}
}

// Transform maps the result through t. Distances scale with t.Scale.
func (r DistanceResult) Transform(t spatialmath.Transform) DistanceResult {
	return DistanceResult{
		PositionOnA: t.Apply(r.PositionOnA),
		Normal:      t.ApplyNormal(r.Normal),
		Distance:    r.Distance * math.Abs(t.Scale),
	}
}

// ConvexDistance returns the closest approach between two convex colliders placed in a
// common frame. Composite colliders are rejected.
func ConvexDistance(a Collider, aTransform spatialmath.Transform, b Collider, bTransform spatialmath.Transform) (DistanceResult, error) {
	ca, okA := a.(Convex)
	cb, okB := b.(Convex)
	if !okA || !okB {
		return DistanceResult{}, newCollisionTypeUnsupportedError(a.Type(), b.Type())
	}
	pa := place(ca, aTransform)
	pb := place(cb, bTransform)
	return convexDistance(&pa, &pb), nil
}

// convexDistance dispatches on the type pair. Every convex pair is handled; pairs without a
// closed form fall through to GJK.
func convexDistance(a, b *placedConvex) DistanceResult {
	switch a.typ() {
	case TypeSphere:
		switch b.typ() {
		case TypeSphere:
			return pointPointDistance(a.vertices[0], a.radius, b.vertices[0], b.radius)
		case TypeCapsule:
			return capsuleSphereDistance(b, a.vertices[0], a.radius).Flip()
		case TypeBox:
			return boxSphereDistance(b, a.vertices[0], a.radius).Flip()
		case TypePolygon:
			return polygonSphereDistance(b, a.vertices[0], a.radius).Flip()
		}
	case TypeCapsule:
		switch b.typ() {
		case TypeSphere:
			return capsuleSphereDistance(a, b.vertices[0], b.radius)
		case TypeCapsule:
			return capsuleCapsuleDistance(a, b)
		}
	case TypeBox:
		if b.typ() == TypeSphere {
			return boxSphereDistance(a, b.vertices[0], b.radius)
		}
	case TypePolygon:
		if b.typ() == TypeSphere {
			return polygonSphereDistance(a, b.vertices[0], b.radius)
		}
	}
	return hullHullDistance(a, b)
}

// pointPointDistance treats each side as a point inflated by a radius.
func pointPointDistance(pa r3.Vector, ra float64, pb r3.Vector, rb float64) DistanceResult {
	diff := pb.Sub(pa)
	length := diff.Norm()
	normal := r3.Vector{X: 1}
	if length > 1e-12 {
		normal = diff.Mul(1 / length)
	}
	return DistanceResult{
		PositionOnA: pa.Add(normal.Mul(ra)),
		Normal:      normal,
		Distance:    length - ra - rb,
	}
}

func capsuleSphereDistance(capsule *placedConvex, center r3.Vector, radius float64) DistanceResult {
	onAxis := spatialmath.ClosestPointSegmentPoint(capsule.vertices[0], capsule.vertices[1], center)
	return pointPointDistance(onAxis, capsule.radius, center, radius)
}

func capsuleCapsuleDistance(a, b *placedConvex) DistanceResult {
	pa, pb := spatialmath.ClosestPointsSegmentSegment(a.vertices[0], a.vertices[1], b.vertices[0], b.vertices[1])
	diff := pb.Sub(pa)
	length := diff.Norm()
	var normal r3.Vector
	if length > 1e-9 {
		normal = diff.Mul(1 / length)
	} else {
		// The axes touch; take a direction perpendicular to both, or to A's axis when parallel.
		da := a.vertices[1].Sub(a.vertices[0])
		db := b.vertices[1].Sub(b.vertices[0])
		normal = da.Cross(db)
		if normal.Norm2() < 1e-12 {
			if da.Norm2() < 1e-12 {
				da = db
			}
			if da.Norm2() < 1e-12 {
				normal = r3.Vector{X: 1}
			} else {
				normal = spatialmath.AnyPerpendicular(da)
			}
		}
		normal = normal.Normalize()
	}
	return DistanceResult{
		PositionOnA: pa.Add(normal.Mul(a.radius)),
		Normal:      normal,
		Distance:    length - a.radius - b.radius,
	}
}

// boxSphereDistance clamps the sphere center into the box. A center inside the core pushes
// out through the nearest face.
func boxSphereDistance(box *placedConvex, center r3.Vector, radius float64) DistanceResult {
	boxCenter, axes, half := box.boxFrame()
	local := axes.TransposeMul(center.Sub(boxCenter))
	clamped := r3.Vector{
		X: math.Max(-half.X, math.Min(half.X, local.X)),
		Y: math.Max(-half.Y, math.Min(half.Y, local.Y)),
		Z: math.Max(-half.Z, math.Min(half.Z, local.Z)),
	}

	diff := local.Sub(clamped)
	if length := diff.Norm(); length > 1e-12 {
		normal := diff.Mul(1 / length)
		return DistanceResult{
			PositionOnA: boxCenter.Add(axes.Mul(clamped.Add(normal.Mul(box.radius)))),
			Normal:      axes.Mul(normal),
			Distance:    length - box.radius - radius,
		}
	}

	// Inside the core: leave through the face with the least penetration.
	l := [3]float64{local.X, local.Y, local.Z}
	h := [3]float64{half.X, half.Y, half.Z}
	axis := 0
	depth := math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := h[i] - math.Abs(l[i]); d < depth {
			depth = d
			axis = i
		}
	}
	sign := 1.0
	if l[axis] < 0 {
		sign = -1
	}
	var normal r3.Vector
	surface := local
	switch axis {
	case 0:
		normal = r3.Vector{X: sign}
		surface.X = sign * h[0]
	case 1:
		normal = r3.Vector{Y: sign}
		surface.Y = sign * h[1]
	default:
		normal = r3.Vector{Z: sign}
		surface.Z = sign * h[2]
	}
	return DistanceResult{
		PositionOnA: boxCenter.Add(axes.Mul(surface.Add(normal.Mul(box.radius)))),
		Normal:      axes.Mul(normal),
		Distance:    -depth - box.radius - radius,
	}
}

// polygonSphereDistance finds the closest point of the face to the center. When the center
// projects outside the face the closest of the clamped edge projections wins.
func polygonSphereDistance(poly *placedConvex, center r3.Vector, radius float64) DistanceResult {
	plane := poly.planes[0]
	verts := poly.vertices
	n := len(verts)

	inside := true
	for i := 0; i < n; i++ {
		edge := verts[(i+1)%n].Sub(verts[i])
		if edge.Cross(center.Sub(verts[i])).Dot(plane.Normal) < 0 {
			inside = false
			break
		}
	}

	var closest r3.Vector
	if inside {
		closest = plane.Project(center)
	} else {
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			p := spatialmath.ClosestPointSegmentPoint(verts[i], verts[(i+1)%n], center)
			if d := p.Sub(center).Norm2(); d < best {
				best = d
				closest = p
			}
		}
	}

	diff := center.Sub(closest)
	length := diff.Norm()
	var normal r3.Vector
	switch {
	case length > 1e-9:
		normal = diff.Mul(1 / length)
	case plane.SignedDistance(center) < 0:
		normal = plane.Normal.Mul(-1)
	default:
		normal = plane.Normal
	}
	return DistanceResult{
		PositionOnA: closest.Add(normal.Mul(poly.radius)),
		Normal:      normal,
		Distance:    length - poly.radius - radius,
	}
}

// hullHullDistance is the general routine: GJK on the cores, then the radii are subtracted.
// Overlapping cores take their normal and depth from the separating axis pass.
func hullHullDistance(a, b *placedConvex) DistanceResult {
	res := gjkClosest(a, b)
	if res.intersecting {
		return penetrationDistance(a, b)
	}
	normal := res.pointB.Sub(res.pointA).Mul(1 / res.distance)
	return DistanceResult{
		PositionOnA: res.pointA.Add(normal.Mul(a.radius)),
		Normal:      normal,
		Distance:    res.distance - a.radius - b.radius,
	}
}
