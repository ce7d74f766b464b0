package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/narrowphase/spatialmath"
)

const (
	castMaxIterations = 10
	castTolerance     = 1e-3
	castKeepDistance  = 1e-4
)

// ColliderCastInput sweeps a collider from Start to End without rotating it. End is the
// world position the collider's origin reaches at fraction 1.
type ColliderCastInput struct {
	Collider Collider
	Start    spatialmath.Transform
	End      r3.Vector
}

// Displacement is the world translation over the whole cast.
func (in ColliderCastInput) Displacement() r3.Vector {
	return in.End.Sub(in.Start.Translation)
}

// CastCollider sweeps a collider against target and reports where it first touches.
// Fractions above 1 are never reported.
func CastCollider(input ColliderCastInput, target Collider, ctx QueryContext, collector Collector[ColliderCastHit]) bool {
	q := queryShape{collider: input.Collider, inTarget: ctx.WorldFromLocal.Inverse().Compose(input.Start)}
	castTarget(q, ctx.WorldFromLocal.InverseApplyVector(input.Displacement()), target, ctx, collector)
	return collector.NumHits() > 0
}

// castTarget runs the cast in target-local space; displacement is in the same frame.
func castTarget(q queryShape, displacement r3.Vector, target Collider, ctx QueryContext, c Collector[ColliderCastHit]) {
	if !IsCollisionEnabled(q.collider.Filter(), target.Filter()) {
		return
	}
	switch t := target.(type) {
	case Convex:
		switch query := q.collider.(type) {
		case Convex:
			castConvexConvex(t, query, q.inTarget, displacement, ctx, c)
		case composite:
			flipped := ctx.flipped(q.inTarget)
			fc := newFlipCollector(c, ctx.WorldFromLocal.ApplyVector(displacement), ctx.identity(t.Material()))
			back := q.inTarget.Inverse()
			castTarget(queryShape{collider: t, inTarget: back}, back.ApplyVector(displacement.Mul(-1)), query, flipped, fc)
		}
	case composite:
		qb := q.bounds()
		t.walkLeaves(
			func(b spatialmath.AABB) bool {
				if done(c) {
					return false
				}
				return b.Overlaps(qb.Sweep(displacement.Mul(math.Min(c.MaxFraction(), 1))))
			},
			func(leaf leafRef) bool {
				childCtx := ctx.child(leaf.numBits, leaf.subKey, leaf.parentFromLeaf)
				castTarget(q.descend(leaf), leaf.parentFromLeaf.InverseApplyVector(displacement), leaf.collider, childCtx, c)
				return !done(c)
			},
		)
	}
}

// castState is the outcome of conservative advancement.
type castState int

const (
	castAdvancing castState = iota
	castHit
	castMiss
)

// conservativeAdvance moves the query along displacement in steps that can never skip past
// the target: each step covers the current gap divided by the closing speed along the
// separating normal. It returns the fraction and the distance result at that fraction.
func conservativeAdvance(
	target, query Convex,
	inTarget spatialmath.Transform,
	displacement r3.Vector,
	maxFraction, invTargetScale float64,
) (castState, float64, DistanceResult) {
	tolerance := castTolerance * invTargetScale
	keepDistance := castKeepDistance * invTargetScale
	pt := place(target, spatialmath.NewIdentityTransform())

	fraction := 0.0
	state := castAdvancing
	var res DistanceResult
	for iter := 0; state == castAdvancing; iter++ {
		tf := inTarget
		tf.Translation = tf.Translation.Add(displacement.Mul(fraction))
		pq := place(query, tf)
		res = convexDistance(&pt, &pq)

		if res.Distance < tolerance || iter == castMaxIterations-1 {
			state = castHit
			break
		}
		closing := -res.Normal.Dot(displacement)
		if closing <= 0 {
			state = castMiss
			break
		}
		fraction += (res.Distance - keepDistance) / closing
		if fraction >= maxFraction {
			state = castMiss
		}
	}
	return state, fraction, res
}

func castConvexConvex(
	target, query Convex,
	inTarget spatialmath.Transform,
	displacement r3.Vector,
	ctx QueryContext,
	c Collector[ColliderCastHit],
) {
	maxFraction := math.Min(c.MaxFraction(), 1)
	state, fraction, res := conservativeAdvance(target, query, inTarget, displacement, maxFraction, ctx.InvTargetScale)
	if state != castHit {
		return
	}
	c.AddHit(ColliderCastHit{
		Fraction:         fraction,
		Position:         ctx.WorldFromLocal.Apply(res.PositionOnA),
		SurfaceNormal:    ctx.WorldFromLocal.ApplyNormal(res.Normal),
		ColliderKey:      ctx.ColliderKey.Key(),
		QueryColliderKey: ctx.QueryColliderKey.Key(),
		RigidBodyIndex:   ctx.RigidBodyIndex,
		Material:         target.Material(),
		Entity:           ctx.Entity,
	})
}
