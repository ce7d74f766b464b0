package collision

import (
	"github.com/pkg/errors"

	"go.viam.com/narrowphase/spatialmath"
	"go.viam.com/narrowphase/utils"
)

// leafRef is one child reached while walking a composite.
type leafRef struct {
	collider Collider
	// parentFromLeaf places the leaf in the composite's frame.
	parentFromLeaf spatialmath.Transform
	numBits        int
	subKey         uint32
}

// composite is implemented by compound, mesh and terrain colliders.
type composite interface {
	Collider
	// walkLeaves calls visit for every direct leaf whose bounds pass overlap, in the
	// composite's local frame. Returning false from visit stops the walk.
	walkLeaves(overlap func(spatialmath.AABB) bool, visit func(leafRef) bool)
	// leafByIndex resolves one sub-key.
	leafByIndex(subKey uint32) (leafRef, bool)
	// ownKeyBits is the number of bits this level pushes.
	ownKeyBits() int
}

// CompoundChild is one child of a compound collider.
type CompoundChild struct {
	Transform spatialmath.Transform
	Collider  Collider
}

// CompoundCollider groups children at fixed offsets. Children may themselves be composites.
type CompoundCollider struct {
	children []CompoundChild
	tree     *bvh
	filter   Filter
	keyBits  int
	bitsHere int
}

// NewCompoundCollider builds a compound from its children. It fails if addressing every
// leaf would need more bits than a ColliderKey holds.
func NewCompoundCollider(children []CompoundChild) (*CompoundCollider, error) {
	if len(children) == 0 {
		return nil, newBadGeometryError(TypeCompound, "needs at least one child")
	}
	c := &CompoundCollider{
		children: children,
		filter:   ZeroFilter,
		bitsHere: utils.IndexBits(len(children)),
	}
	bounds := make([]spatialmath.AABB, len(children))
	maxChildBits := 0
	for i, child := range children {
		if child.Collider == nil {
			return nil, errors.Errorf("compound child %d has no collider", i)
		}
		if child.Transform.Scale <= 0 {
			return nil, errors.Errorf("compound child %d has non-positive scale %v", i, child.Transform.Scale)
		}
		bounds[i] = child.Collider.LocalAABB().Transform(child.Transform)
		maxChildBits = utils.MaxInt(maxChildBits, child.Collider.NumColliderKeyBits())
		c.filter = c.filter.Union(child.Collider.Filter())
	}
	c.keyBits = c.bitsHere + maxChildBits
	if c.keyBits > colliderKeyBits {
		return nil, newColliderKeyOverflowError(TypeCompound, c.keyBits)
	}
	c.tree = buildBVH(bounds)
	return c, nil
}

// Type returns TypeCompound.
func (c *CompoundCollider) Type() Type { return TypeCompound }

// Filter returns the union of the children's filters.
func (c *CompoundCollider) Filter() Filter { return c.filter }

// LocalAABB bounds every child.
func (c *CompoundCollider) LocalAABB() spatialmath.AABB { return c.tree.bounds }

// NumColliderKeyBits is the bits for the child index plus the deepest child's bits.
func (c *CompoundCollider) NumColliderKeyBits() int { return c.keyBits }

// Children returns the compound's children.
func (c *CompoundCollider) Children() []CompoundChild { return c.children }

func (c *CompoundCollider) sealed() {}

func (c *CompoundCollider) ownKeyBits() int { return c.bitsHere }

func (c *CompoundCollider) walkLeaves(overlap func(spatialmath.AABB) bool, visit func(leafRef) bool) {
	c.tree.traverse(overlap, func(i int) bool {
		return visit(c.leaf(i))
	})
}

func (c *CompoundCollider) leaf(i int) leafRef {
	return leafRef{
		collider:       c.children[i].Collider,
		parentFromLeaf: c.children[i].Transform,
		numBits:        c.bitsHere,
		subKey:         uint32(i),
	}
}

func (c *CompoundCollider) leafByIndex(subKey uint32) (leafRef, bool) {
	if int(subKey) >= len(c.children) {
		return leafRef{}, false
	}
	return c.leaf(int(subKey)), true
}

// LeafByKey resolves a key produced by a query back to the convex leaf it addresses and the
// transform placing that leaf in the root collider's frame.
func LeafByKey(root Collider, key ColliderKey) (Convex, spatialmath.Transform, bool) {
	tf := spatialmath.NewIdentityTransform()
	current := root
	for {
		switch c := current.(type) {
		case Convex:
			return c, tf, true
		case composite:
			subKey, rest, ok := key.PopSubKey(c.ownKeyBits())
			if !ok {
				return nil, tf, false
			}
			leaf, ok := c.leafByIndex(subKey)
			if !ok {
				return nil, tf, false
			}
			tf = tf.Compose(leaf.parentFromLeaf)
			current = leaf.collider
			key = rest
		default:
			return nil, tf, false
		}
	}
}
