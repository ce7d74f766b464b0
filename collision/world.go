package collision

import (
	"go.viam.com/narrowphase/spatialmath"
)

// Body is a collider placed in the world.
type Body struct {
	Collider   Collider
	Transform  spatialmath.Transform
	Entity     Entity
	Index      int
	CustomTags uint8
}

// QueryContext returns the context for queries against the body.
func (b Body) QueryContext() QueryContext {
	return NewQueryContext(b.Transform, b.Index, b.Entity)
}

// WorldAABB bounds the body in the world.
func (b Body) WorldAABB() spatialmath.AABB {
	return b.Collider.LocalAABB().Transform(b.Transform)
}

// World runs queries against every body in turn. It does no broad phase pruning beyond a
// bounds check per body.
type World struct {
	bodies []Body
}

// NewWorld copies the bodies and numbers them by position.
func NewWorld(bodies []Body) *World {
	w := &World{bodies: make([]Body, len(bodies))}
	for i, b := range bodies {
		b.Index = i
		w.bodies[i] = b
	}
	return w
}

// Bodies returns the world's bodies.
func (w *World) Bodies() []Body {
	return w.bodies
}

// Body returns the body at index.
func (w *World) Body(index int) (Body, bool) {
	if index < 0 || index >= len(w.bodies) {
		return Body{}, false
	}
	return w.bodies[index], true
}

// CastRay casts a ray against every body.
func (w *World) CastRay(input RaycastInput, collector Collector[RaycastHit]) bool {
	for _, b := range w.bodies {
		if done(collector) {
			break
		}
		if _, ok := b.WorldAABB().RayIntersect(input.Start, input.Displacement(), collector.MaxFraction()); !ok {
			continue
		}
		CastRay(input, b.Collider, b.QueryContext(), collector)
	}
	return collector.NumHits() > 0
}

// CalculateDistance measures the distance from a placed collider to every body.
func (w *World) CalculateDistance(input ColliderDistanceInput, collector Collector[DistanceHit]) bool {
	bounds := input.Collider.LocalAABB().Transform(input.Transform)
	for _, b := range w.bodies {
		if done(collector) {
			break
		}
		if b.WorldAABB().Distance(bounds) > collector.MaxFraction() {
			continue
		}
		CalculateDistance(input, b.Collider, b.QueryContext(), collector)
	}
	return collector.NumHits() > 0
}

// PointDistance measures the distance from a point to every body.
func (w *World) PointDistance(input PointDistanceInput, collector Collector[DistanceHit]) bool {
	for _, b := range w.bodies {
		if done(collector) {
			break
		}
		if b.WorldAABB().DistanceToPoint(input.Position) > collector.MaxFraction() {
			continue
		}
		PointDistance(input, b.Collider, b.QueryContext(), collector)
	}
	return collector.NumHits() > 0
}

// CastCollider sweeps a collider against every body.
func (w *World) CastCollider(input ColliderCastInput, collector Collector[ColliderCastHit]) bool {
	swept := input.Collider.LocalAABB().Transform(input.Start).Sweep(input.Displacement())
	for _, b := range w.bodies {
		if done(collector) {
			break
		}
		if !b.WorldAABB().Overlaps(swept) {
			continue
		}
		CastCollider(input, b.Collider, b.QueryContext(), collector)
	}
	return collector.NumHits() > 0
}

// OverlapAABB reports every leaf of every body intersecting a box.
func (w *World) OverlapAABB(input OverlapAABBInput, collector Collector[OverlapHit]) bool {
	for _, b := range w.bodies {
		if done(collector) {
			break
		}
		if !b.WorldAABB().Overlaps(input.AABB) {
			continue
		}
		OverlapAABB(input, b.Collider, b.QueryContext(), collector)
	}
	return collector.NumHits() > 0
}

// AllPairs returns every pair of distinct bodies whose bounds come within maxDistance.
func (w *World) AllPairs(maxDistance float64) []BodyIndexPair {
	var pairs []BodyIndexPair
	for i := range w.bodies {
		bi := w.bodies[i].WorldAABB()
		for j := i + 1; j < len(w.bodies); j++ {
			if bi.Distance(w.bodies[j].WorldAABB()) <= maxDistance {
				pairs = append(pairs, BodyIndexPair{BodyIndexA: i, BodyIndexB: j})
			}
		}
	}
	return pairs
}
