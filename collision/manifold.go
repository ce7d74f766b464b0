package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/narrowphase/spatialmath"
)

// MaxContacts is the capacity of a Manifold.
const MaxContacts = 32

// ContactPoint is one contact of a manifold. Position is on B's surface; the matching point
// on A is Position - Normal*Distance. A negative Distance is a penetration.
type ContactPoint struct {
	Position r3.Vector
	Distance float64
}

// Manifold is a set of contacts sharing one normal, pointing from A toward B.
type Manifold struct {
	BodyPair     BodyIndexPair
	CustomTags   CustomTagsPair
	Flags        ContactFlags
	ColliderKeys ColliderKeyPair
	Normal       r3.Vector
	Friction     float64
	Restitution  float64

	contacts    [MaxContacts]ContactPoint
	numContacts int
}

// Add appends a contact. A full manifold drops it and returns false.
func (m *Manifold) Add(p ContactPoint) bool {
	if m.numContacts == MaxContacts {
		return false
	}
	m.contacts[m.numContacts] = p
	m.numContacts++
	return true
}

// NumContacts returns how many contacts are stored.
func (m *Manifold) NumContacts() int {
	return m.numContacts
}

// Contacts returns the stored contacts. The slice aliases the manifold.
func (m *Manifold) Contacts() []ContactPoint {
	return m.contacts[:m.numContacts]
}

// Flip swaps the roles of A and B.
func (m *Manifold) Flip() {
	for i := range m.contacts[:m.numContacts] {
		c := &m.contacts[i]
		c.Position = c.Position.Sub(m.Normal.Mul(c.Distance))
	}
	m.Normal = m.Normal.Mul(-1)
	m.ColliderKeys = ColliderKeyPair{ColliderKeyA: m.ColliderKeys.ColliderKeyB, ColliderKeyB: m.ColliderKeys.ColliderKeyA}
	m.BodyPair = BodyIndexPair{BodyIndexA: m.BodyPair.BodyIndexB, BodyIndexB: m.BodyPair.BodyIndexA}
	m.CustomTags = CustomTagsPair{CustomTagsA: m.CustomTags.CustomTagsB, CustomTagsB: m.CustomTags.CustomTagsA}
}

// transform maps the contacts and normal through t.
func (m *Manifold) transform(t spatialmath.Transform) {
	scale := math.Abs(t.Scale)
	for i := range m.contacts[:m.numContacts] {
		c := &m.contacts[i]
		c.Position = t.Apply(c.Position)
		c.Distance *= scale
	}
	m.Normal = t.ApplyNormal(m.Normal)
}

// GenerateManifolds emits every manifold between two bodies whose contacts lie within
// maxDistance. Composite bodies are descended leaf by leaf, so one pair can emit many
// manifolds. emit must not retain the manifold.
func GenerateManifolds(a, b Body, maxDistance float64, emit func(*Manifold)) {
	if a.Collider == nil || b.Collider == nil {
		return
	}
	g := manifoldGenerator{bodyA: a, bodyB: b, maxDistance: maxDistance, emit: emit}
	g.pair(
		manifoldSide{collider: a.Collider, world: a.Transform},
		manifoldSide{collider: b.Collider, world: b.Transform},
	)
}

// manifoldSide is one collider of a pair, placed in the world.
type manifoldSide struct {
	collider Collider
	world    spatialmath.Transform
	key      ColliderKeyPath
}

type manifoldGenerator struct {
	bodyA, bodyB Body
	maxDistance  float64
	emit         func(*Manifold)
}

func (g *manifoldGenerator) pair(a, b manifoldSide) {
	if !IsCollisionEnabled(a.collider.Filter(), b.collider.Filter()) {
		return
	}
	switch ca := a.collider.(type) {
	case Convex:
		switch cb := b.collider.(type) {
		case Convex:
			g.convexPair(ca, a, cb, b)
		case *TerrainCollider:
			g.terrainPair(ca, a, cb, b, false)
		case composite:
			g.descend(cb, b, a, false)
		}
	case *TerrainCollider:
		if cb, ok := b.collider.(Convex); ok {
			g.terrainPair(cb, b, ca, a, true)
			return
		}
		g.descend(ca, a, b, true)
	case composite:
		g.descend(ca, a, b, true)
	}
}

// descend walks the leaves of side that come within maxDistance of other.
func (g *manifoldGenerator) descend(c composite, side, other manifoldSide, sideIsA bool) {
	localFromOther := side.world.Inverse().Compose(other.world)
	otherBounds := other.collider.LocalAABB().Transform(localFromOther).Expand(g.maxDistance / math.Abs(side.world.Scale))
	c.walkLeaves(
		func(b spatialmath.AABB) bool { return b.Overlaps(otherBounds) },
		func(leaf leafRef) bool {
			child := manifoldSide{
				collider: leaf.collider,
				world:    side.world.Compose(leaf.parentFromLeaf),
				key:      side.key,
			}
			child.key.Push(leaf.numBits, leaf.subKey)
			if sideIsA {
				g.pair(child, other)
			} else {
				g.pair(other, child)
			}
			return true
		},
	)
}

func (g *manifoldGenerator) convexPair(ca Convex, a manifoldSide, cb Convex, b manifoldSide) {
	if ca.Material().CollisionResponse == ResponseNone || cb.Material().CollisionResponse == ResponseNone {
		return
	}
	pa := place(ca, a.world)
	pb := place(cb, b.world)
	var m Manifold
	if !convexManifold(&pa, &pb, g.maxDistance, &m) {
		return
	}
	m.ColliderKeys = ColliderKeyPair{ColliderKeyA: a.key.Key(), ColliderKeyB: b.key.Key()}
	g.finish(&m, ca.Material(), cb.Material())
}

// finish fills in the pair data and hands the manifold to emit.
func (g *manifoldGenerator) finish(m *Manifold, matA, matB Material) {
	m.BodyPair = BodyIndexPair{BodyIndexA: g.bodyA.Index, BodyIndexB: g.bodyB.Index}
	m.CustomTags = CustomTagsPair{CustomTagsA: g.bodyA.CustomTags | matA.CustomTags, CustomTagsB: g.bodyB.CustomTags | matB.CustomTags}
	m.Friction = CombineFriction(matA, matB)
	m.Restitution = CombineRestitution(matA, matB)
	m.Flags = contactFlags(matA, matB)
	g.emit(m)
}
