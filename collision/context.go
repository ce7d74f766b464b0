package collision

import (
	"go.viam.com/narrowphase/spatialmath"
)

// Entity identifies the owner of a body. EntityNull means no owner.
type Entity uint32

// EntityNull is the zero entity.
const EntityNull Entity = 0

// QueryContext is the per-query state threaded through recursive descent. It is a value:
// a child context is a modified copy, so returning from a child restores the parent.
type QueryContext struct {
	// WorldFromLocal maps the current target's local frame into the world.
	WorldFromLocal spatialmath.Transform
	// InvTargetScale is 1/WorldFromLocal.Scale, composed multiplicatively as descent proceeds.
	InvTargetScale   float64
	ColliderKey      ColliderKeyPath
	QueryColliderKey ColliderKeyPath
	RigidBodyIndex   int
	Entity           Entity
	// IsFlipped is set while the query and target roles are swapped.
	IsFlipped bool
}

// NewQueryContext returns the context for a query against a body placed at worldFromBody.
func NewQueryContext(worldFromBody spatialmath.Transform, rigidBodyIndex int, entity Entity) QueryContext {
	return QueryContext{
		WorldFromLocal: worldFromBody,
		InvTargetScale: 1 / worldFromBody.Scale,
		RigidBodyIndex: rigidBodyIndex,
		Entity:         entity,
	}
}

// child returns the context for the leaf at index using numBits key bits, placed by parentFromChild.
func (ctx QueryContext) child(numBits int, index uint32, parentFromChild spatialmath.Transform) QueryContext {
	out := ctx
	out.ColliderKey.Push(numBits, index)
	out.WorldFromLocal = ctx.WorldFromLocal.Compose(parentFromChild)
	out.InvTargetScale = ctx.InvTargetScale / parentFromChild.Scale
	return out
}

// queryChild returns the context after descending into a leaf of the query shape.
func (ctx QueryContext) queryChild(numBits int, index uint32) QueryContext {
	out := ctx
	out.QueryColliderKey.Push(numBits, index)
	return out
}

// flipped swaps the query and target roles. targetFromQuery places the query in the current target frame.
func (ctx QueryContext) flipped(targetFromQuery spatialmath.Transform) QueryContext {
	out := ctx
	out.WorldFromLocal = ctx.WorldFromLocal.Compose(targetFromQuery)
	out.InvTargetScale = ctx.InvTargetScale / targetFromQuery.Scale
	out.ColliderKey, out.QueryColliderKey = ctx.QueryColliderKey, ctx.ColliderKey
	out.IsFlipped = !ctx.IsFlipped
	return out
}

// identity captures who a hit belongs to, restored by the flip adapter.
func (ctx QueryContext) identity(material Material) hitIdentity {
	return hitIdentity{RigidBodyIndex: ctx.RigidBodyIndex, Entity: ctx.Entity, Material: material}
}
