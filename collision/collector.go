package collision

import (
	"math"

	"github.com/golang/geo/r3"
)

// Collector accumulates hits during a query. MaxFraction bounds every test the query runs;
// for closest-hit collection it shrinks as hits arrive so later candidates are pruned.
type Collector[T Hit[T]] interface {
	EarlyOutOnFirstHit() bool
	MaxFraction() float64
	NumHits() int
	// AddHit offers a hit and reports whether it was accepted.
	AddHit(hit T) bool
}

// AnyHitCollector accepts the first hit and asks the query to stop.
type AnyHitCollector[T Hit[T]] struct {
	maxFraction float64
	hit         T
	numHits     int
}

// NewAnyHitCollector returns a collector that stops at the first hit within maxFraction.
func NewAnyHitCollector[T Hit[T]](maxFraction float64) *AnyHitCollector[T] {
	return &AnyHitCollector[T]{maxFraction: maxFraction}
}

// EarlyOutOnFirstHit returns true.
func (c *AnyHitCollector[T]) EarlyOutOnFirstHit() bool { return true }

// MaxFraction never changes.
func (c *AnyHitCollector[T]) MaxFraction() float64 { return c.maxFraction }

// NumHits is 0 or 1.
func (c *AnyHitCollector[T]) NumHits() int { return c.numHits }

// AddHit keeps the first hit.
func (c *AnyHitCollector[T]) AddHit(hit T) bool {
	if hit.HitFraction() > c.maxFraction {
		return false
	}
	if c.numHits == 0 {
		c.hit = hit
		c.numHits = 1
	}
	return true
}

// Hit returns the accepted hit, if any.
func (c *AnyHitCollector[T]) Hit() (T, bool) {
	return c.hit, c.numHits > 0
}

// ClosestHitCollector keeps the lowest-fraction hit.
type ClosestHitCollector[T Hit[T]] struct {
	maxFraction float64
	hit         T
	numHits     int
}

// NewClosestHitCollector returns a collector for the closest hit within maxFraction.
func NewClosestHitCollector[T Hit[T]](maxFraction float64) *ClosestHitCollector[T] {
	return &ClosestHitCollector[T]{maxFraction: maxFraction}
}

// EarlyOutOnFirstHit returns false.
func (c *ClosestHitCollector[T]) EarlyOutOnFirstHit() bool { return false }

// MaxFraction is the fraction of the closest hit so far.
func (c *ClosestHitCollector[T]) MaxFraction() float64 { return c.maxFraction }

// NumHits is 0 or 1.
func (c *ClosestHitCollector[T]) NumHits() int { return c.numHits }

// AddHit replaces the stored hit when the new one is at least as close.
func (c *ClosestHitCollector[T]) AddHit(hit T) bool {
	if hit.HitFraction() > c.maxFraction {
		return false
	}
	c.maxFraction = hit.HitFraction()
	c.hit = hit
	c.numHits = 1
	return true
}

// Hit returns the closest hit, if any.
func (c *ClosestHitCollector[T]) Hit() (T, bool) {
	return c.hit, c.numHits > 0
}

// AllHitsCollector keeps every hit within a fixed maxFraction.
type AllHitsCollector[T Hit[T]] struct {
	maxFraction float64
	hits        []T
}

// NewAllHitsCollector returns a collector for every hit within maxFraction.
func NewAllHitsCollector[T Hit[T]](maxFraction float64) *AllHitsCollector[T] {
	return &AllHitsCollector[T]{maxFraction: maxFraction}
}

// EarlyOutOnFirstHit returns false.
func (c *AllHitsCollector[T]) EarlyOutOnFirstHit() bool { return false }

// MaxFraction never changes.
func (c *AllHitsCollector[T]) MaxFraction() float64 { return c.maxFraction }

// NumHits is the number of hits kept.
func (c *AllHitsCollector[T]) NumHits() int { return len(c.hits) }

// AddHit appends the hit.
func (c *AllHitsCollector[T]) AddHit(hit T) bool {
	if hit.HitFraction() > c.maxFraction {
		return false
	}
	c.hits = append(c.hits, hit)
	return true
}

// Hits returns every hit in the order they were found.
func (c *AllHitsCollector[T]) Hits() []T {
	return c.hits
}

// interactionFilterCollector drops trigger hits and hits on one ignored entity.
type interactionFilterCollector[T Hit[T]] struct {
	inner        Collector[T]
	ignoreEntity Entity
}

// NewInteractionFilterCollector wraps inner so that trigger-material hits and hits on
// ignoreEntity are rejected. Pass EntityNull to keep hits on every entity.
func NewInteractionFilterCollector[T Hit[T]](inner Collector[T], ignoreEntity Entity) Collector[T] {
	return &interactionFilterCollector[T]{inner: inner, ignoreEntity: ignoreEntity}
}

func (c *interactionFilterCollector[T]) EarlyOutOnFirstHit() bool { return c.inner.EarlyOutOnFirstHit() }
func (c *interactionFilterCollector[T]) MaxFraction() float64     { return c.inner.MaxFraction() }
func (c *interactionFilterCollector[T]) NumHits() int             { return c.inner.NumHits() }

func (c *interactionFilterCollector[T]) AddHit(hit T) bool {
	if hit.HitMaterial().IsTrigger() {
		return false
	}
	if c.ignoreEntity != EntityNull && hit.HitEntity() == c.ignoreEntity {
		return false
	}
	return c.inner.AddHit(hit)
}

// flipCollector rewrites hits produced with query and target swapped back into the caller's frame.
type flipCollector[T Hit[T]] struct {
	inner        Collector[T]
	displacement r3.Vector
	target       hitIdentity
}

func newFlipCollector[T Hit[T]](inner Collector[T], displacement r3.Vector, target hitIdentity) *flipCollector[T] {
	return &flipCollector[T]{inner: inner, displacement: displacement, target: target}
}

func (c *flipCollector[T]) EarlyOutOnFirstHit() bool { return c.inner.EarlyOutOnFirstHit() }
func (c *flipCollector[T]) MaxFraction() float64     { return c.inner.MaxFraction() }
func (c *flipCollector[T]) NumHits() int             { return c.inner.NumHits() }

func (c *flipCollector[T]) AddHit(hit T) bool {
	return c.inner.AddHit(hit.flipped(c.displacement, c.target))
}

// done reports whether a query should stop descending.
func done[T Hit[T]](c Collector[T]) bool {
	return c.EarlyOutOnFirstHit() && c.NumHits() > 0
}

// noLimit is a MaxFraction for distance collectors with no distance bound.
var noLimit = math.Inf(1)
