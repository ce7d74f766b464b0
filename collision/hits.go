package collision

import (
	"github.com/golang/geo/r3"
)

// Hit is the constraint every hit record satisfies. The unexported method lets the flip
// adapter rewrite a hit produced with query and target swapped.
type Hit[T any] interface {
	// HitFraction is the fraction along a ray or cast, or the distance for distance hits.
	HitFraction() float64
	HitMaterial() Material
	HitEntity() Entity

	flipped(displacement r3.Vector, target hitIdentity) T
}

type hitIdentity struct {
	RigidBodyIndex int
	Entity         Entity
	Material       Material
}

// RaycastHit is a ray entering a collider.
type RaycastHit struct {
	Fraction       float64
	Position       r3.Vector
	SurfaceNormal  r3.Vector
	ColliderKey    ColliderKey
	RigidBodyIndex int
	Material       Material
	Entity         Entity
}

// HitFraction returns the fraction along the ray.
func (h RaycastHit) HitFraction() float64 { return h.Fraction }

// HitMaterial returns the material of the leaf that was hit.
func (h RaycastHit) HitMaterial() Material { return h.Material }

// HitEntity returns the entity that was hit.
func (h RaycastHit) HitEntity() Entity { return h.Entity }

// Rays are never composite so their hits never need flipping.
func (h RaycastHit) flipped(r3.Vector, hitIdentity) RaycastHit { return h }

// DistanceHit is the closest approach between a query and a target leaf. Position is on the
// target surface and SurfaceNormal points from the target toward the query.
type DistanceHit struct {
	Distance         float64
	Position         r3.Vector
	SurfaceNormal    r3.Vector
	ColliderKey      ColliderKey
	QueryColliderKey ColliderKey
	RigidBodyIndex   int
	Material         Material
	Entity           Entity
}

// HitFraction returns the distance.
func (h DistanceHit) HitFraction() float64 { return h.Distance }

// HitMaterial returns the material of the target leaf.
func (h DistanceHit) HitMaterial() Material { return h.Material }

// HitEntity returns the target entity.
func (h DistanceHit) HitEntity() Entity { return h.Entity }

// QueryPosition is the matching point on the query surface.
func (h DistanceHit) QueryPosition() r3.Vector {
	return h.Position.Add(h.SurfaceNormal.Mul(h.Distance))
}

func (h DistanceHit) flipped(_ r3.Vector, target hitIdentity) DistanceHit {
	h.Position = h.QueryPosition()
	h.SurfaceNormal = h.SurfaceNormal.Mul(-1)
	h.ColliderKey, h.QueryColliderKey = h.QueryColliderKey, h.ColliderKey
	h.RigidBodyIndex = target.RigidBodyIndex
	h.Entity = target.Entity
	h.Material = target.Material
	return h
}

// ColliderCastHit is where a swept collider first touches a target. Position is on the target
// surface at the moment of contact and SurfaceNormal points from the target toward the query.
type ColliderCastHit struct {
	Fraction         float64
	Position         r3.Vector
	SurfaceNormal    r3.Vector
	ColliderKey      ColliderKey
	QueryColliderKey ColliderKey
	RigidBodyIndex   int
	Material         Material
	Entity           Entity
}

// HitFraction returns the fraction of the displacement travelled.
func (h ColliderCastHit) HitFraction() float64 { return h.Fraction }

// HitMaterial returns the material of the target leaf.
func (h ColliderCastHit) HitMaterial() Material { return h.Material }

// HitEntity returns the target entity.
func (h ColliderCastHit) HitEntity() Entity { return h.Entity }

func (h ColliderCastHit) flipped(displacement r3.Vector, target hitIdentity) ColliderCastHit {
	h.Position = h.Position.Add(displacement.Mul(h.Fraction))
	h.SurfaceNormal = h.SurfaceNormal.Mul(-1)
	h.ColliderKey, h.QueryColliderKey = h.QueryColliderKey, h.ColliderKey
	h.RigidBodyIndex = target.RigidBodyIndex
	h.Entity = target.Entity
	h.Material = target.Material
	return h
}

// OverlapHit reports a leaf whose geometry intersects the query box.
type OverlapHit struct {
	ColliderKey    ColliderKey
	RigidBodyIndex int
	Material       Material
	Entity         Entity
}

// HitFraction is always zero.
func (h OverlapHit) HitFraction() float64 { return 0 }

// HitMaterial returns the material of the overlapping leaf.
func (h OverlapHit) HitMaterial() Material { return h.Material }

// HitEntity returns the overlapping entity.
func (h OverlapHit) HitEntity() Entity { return h.Entity }

func (h OverlapHit) flipped(r3.Vector, hitIdentity) OverlapHit { return h }
