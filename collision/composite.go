package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/narrowphase/spatialmath"
)

// ColliderDistanceInput places a query collider in the world. The collector's MaxFraction is
// the largest world distance reported.
type ColliderDistanceInput struct {
	Collider  Collider
	Transform spatialmath.Transform
}

// PointDistanceInput is a world point. The collector's MaxFraction bounds the distance.
type PointDistanceInput struct {
	Position r3.Vector
	Filter   Filter
}

// OverlapAABBInput is a world-space box.
type OverlapAABBInput struct {
	AABB   spatialmath.AABB
	Filter Filter
}

// queryShape is a query collider placed in the current target's local frame.
type queryShape struct {
	collider Collider
	inTarget spatialmath.Transform
}

func (q queryShape) bounds() spatialmath.AABB {
	return q.collider.LocalAABB().Transform(q.inTarget)
}

// descend places q in the frame of a leaf of the current target.
func (q queryShape) descend(leaf leafRef) queryShape {
	return queryShape{collider: q.collider, inTarget: leaf.parentFromLeaf.Inverse().Compose(q.inTarget)}
}

// CastRay casts a world-space ray against target, which ctx places in the world.
// It reports whether the collector holds a hit afterwards.
func CastRay(input RaycastInput, target Collider, ctx QueryContext, collector Collector[RaycastHit]) bool {
	r := ray{
		origin:       ctx.WorldFromLocal.InverseApply(input.Start),
		displacement: ctx.WorldFromLocal.InverseApplyVector(input.Displacement()),
	}
	raycastTarget(r, input.Filter, target, ctx, collector)
	return collector.NumHits() > 0
}

func raycastTarget(r ray, filter Filter, target Collider, ctx QueryContext, c Collector[RaycastHit]) {
	if !IsCollisionEnabled(filter, target.Filter()) {
		return
	}
	switch t := target.(type) {
	case Convex:
		fraction, normal, ok := raycastConvex(t, r, c.MaxFraction())
		if !ok {
			return
		}
		c.AddHit(RaycastHit{
			Fraction:       fraction,
			Position:       ctx.WorldFromLocal.Apply(r.at(fraction)),
			SurfaceNormal:  ctx.WorldFromLocal.ApplyNormal(normal).Normalize(),
			ColliderKey:    ctx.ColliderKey.Key(),
			RigidBodyIndex: ctx.RigidBodyIndex,
			Material:       t.Material(),
			Entity:         ctx.Entity,
		})
	case composite:
		t.walkLeaves(
			func(b spatialmath.AABB) bool {
				if done(c) {
					return false
				}
				_, ok := b.RayIntersect(r.origin, r.displacement, c.MaxFraction())
				return ok
			},
			func(leaf leafRef) bool {
				childCtx := ctx.child(leaf.numBits, leaf.subKey, leaf.parentFromLeaf)
				raycastTarget(r.transformInto(leaf.parentFromLeaf.Inverse()), filter, leaf.collider, childCtx, c)
				return !done(c)
			},
		)
	}
}

// CalculateDistance finds the closest approach between a placed query collider and target.
// Hits are reported against target leaves; see DistanceHit for the conventions.
func CalculateDistance(input ColliderDistanceInput, target Collider, ctx QueryContext, collector Collector[DistanceHit]) bool {
	q := queryShape{collider: input.Collider, inTarget: ctx.WorldFromLocal.Inverse().Compose(input.Transform)}
	distanceTarget(q, target, ctx, collector)
	return collector.NumHits() > 0
}

// PointDistance finds the closest point of target to a world point.
func PointDistance(input PointDistanceInput, target Collider, ctx QueryContext, collector Collector[DistanceHit]) bool {
	point := newSphere(r3.Vector{}, 0, input.Filter, DefaultMaterial)
	return CalculateDistance(ColliderDistanceInput{Collider: point, Transform: spatialmath.NewTranslation(input.Position)}, target, ctx, collector)
}

func distanceTarget(q queryShape, target Collider, ctx QueryContext, c Collector[DistanceHit]) {
	if !IsCollisionEnabled(q.collider.Filter(), target.Filter()) {
		return
	}
	switch t := target.(type) {
	case Convex:
		switch query := q.collider.(type) {
		case Convex:
			distanceConvexConvex(t, query, q.inTarget, ctx, c)
		case composite:
			flipped := ctx.flipped(q.inTarget)
			fc := newFlipCollector(c, r3.Vector{}, ctx.identity(t.Material()))
			distanceTarget(queryShape{collider: t, inTarget: q.inTarget.Inverse()}, query, flipped, fc)
		}
	case composite:
		qb := q.bounds()
		t.walkLeaves(
			func(b spatialmath.AABB) bool {
				return !done(c) && b.Distance(qb) <= c.MaxFraction()*ctx.InvTargetScale
			},
			func(leaf leafRef) bool {
				childCtx := ctx.child(leaf.numBits, leaf.subKey, leaf.parentFromLeaf)
				distanceTarget(q.descend(leaf), leaf.collider, childCtx, c)
				return !done(c)
			},
		)
	}
}

func distanceConvexConvex(target, query Convex, inTarget spatialmath.Transform, ctx QueryContext, c Collector[DistanceHit]) {
	pt := place(target, spatialmath.NewIdentityTransform())
	pq := place(query, inTarget)
	res := convexDistance(&pt, &pq)
	distance := res.Distance * math.Abs(ctx.WorldFromLocal.Scale)
	if distance > c.MaxFraction() {
		return
	}
	c.AddHit(DistanceHit{
		Distance:         distance,
		Position:         ctx.WorldFromLocal.Apply(res.PositionOnA),
		SurfaceNormal:    ctx.WorldFromLocal.ApplyNormal(res.Normal),
		ColliderKey:      ctx.ColliderKey.Key(),
		QueryColliderKey: ctx.QueryColliderKey.Key(),
		RigidBodyIndex:   ctx.RigidBodyIndex,
		Material:         target.Material(),
		Entity:           ctx.Entity,
	})
}

// OverlapAABB reports every leaf of target whose geometry intersects a world-space box.
func OverlapAABB(input OverlapAABBInput, target Collider, ctx QueryContext, collector Collector[OverlapHit]) bool {
	half := input.AABB.HalfExtents()
	box := &BoxCollider{
		convexBase: convexBase{
			hull:     boxHull(r3.Vector{}, spatialmath.NewIdentityRotation(), half, 0),
			filter:   input.Filter,
			material: DefaultMaterial,
		},
		Orientation: spatialmath.NewIdentityRotation(),
		HalfExtents: half,
	}
	q := queryShape{
		collider: box,
		inTarget: ctx.WorldFromLocal.Inverse().Compose(spatialmath.NewTranslation(input.AABB.Center())),
	}
	overlapTarget(q, target, ctx, collector)
	return collector.NumHits() > 0
}

func overlapTarget(q queryShape, target Collider, ctx QueryContext, c Collector[OverlapHit]) {
	if !IsCollisionEnabled(q.collider.Filter(), target.Filter()) {
		return
	}
	switch t := target.(type) {
	case Convex:
		pt := place(t, spatialmath.NewIdentityTransform())
		pq := place(q.collider.(Convex), q.inTarget)
		if convexDistance(&pt, &pq).Distance > 0 {
			return
		}
		c.AddHit(OverlapHit{
			ColliderKey:    ctx.ColliderKey.Key(),
			RigidBodyIndex: ctx.RigidBodyIndex,
			Material:       t.Material(),
			Entity:         ctx.Entity,
		})
	case composite:
		qb := q.bounds()
		t.walkLeaves(
			func(b spatialmath.AABB) bool {
				return !done(c) && b.Overlaps(qb)
			},
			func(leaf leafRef) bool {
				childCtx := ctx.child(leaf.numBits, leaf.subKey, leaf.parentFromLeaf)
				overlapTarget(q.descend(leaf), leaf.collider, childCtx, c)
				return !done(c)
			},
		)
	}
}
