package collision

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/narrowphase/spatialmath"
)

// Type enumerates the closed set of collider variants.
type Type uint8

const (
	// TypeSphere is a point inflated by a radius.
	TypeSphere Type = iota
	// TypeCapsule is a segment inflated by a radius.
	TypeCapsule
	// TypePolygon is a triangle or quad.
	TypePolygon
	// TypeBox is an oriented box with optional beveled edges.
	TypeBox
	// TypeConvex is a general convex hull.
	TypeConvex
	// TypeCompound holds child colliders at rigid offsets.
	TypeCompound
	// TypeMesh is a triangle and quad soup.
	TypeMesh
	// TypeTerrain is a height field.
	TypeTerrain
)

func (t Type) String() string {
	switch t {
	case TypeSphere:
		return "sphere"
	case TypeCapsule:
		return "capsule"
	case TypePolygon:
		return "polygon"
	case TypeBox:
		return "box"
	case TypeConvex:
		return "convex"
	case TypeCompound:
		return "compound"
	case TypeMesh:
		return "mesh"
	case TypeTerrain:
		return "terrain"
	default:
		return "unknown"
	}
}

// IsConvex reports whether colliders of this type are single convex shapes.
func (t Type) IsConvex() bool {
	return t <= TypeConvex
}

// Collider is the sealed interface over every collider variant. Colliders are immutable
// after construction and safe to share between goroutines.
type Collider interface {
	Type() Type
	// Filter returns the collider's filter. Composites return the union of their leaves.
	Filter() Filter
	// LocalAABB bounds the collider in its own frame.
	LocalAABB() spatialmath.AABB
	// NumColliderKeyBits is the number of key bits needed to address any leaf, 0 for convex shapes.
	NumColliderKeyBits() int

	sealed()
}

// Convex is implemented by every convex collider.
type Convex interface {
	Collider
	Hull() *ConvexHull
	Material() Material
}

type convexBase struct {
	hull     *ConvexHull
	filter   Filter
	material Material
}

func (c *convexBase) Hull() *ConvexHull           { return c.hull }
func (c *convexBase) Filter() Filter              { return c.filter }
func (c *convexBase) Material() Material          { return c.material }
func (c *convexBase) LocalAABB() spatialmath.AABB { return c.hull.AABB() }
func (c *convexBase) NumColliderKeyBits() int     { return 0 }
func (c *convexBase) sealed()                     {}

// SphereCollider is a ball.
type SphereCollider struct {
	convexBase
	Center r3.Vector
	Radius float64
}

// NewSphereCollider creates a sphere. The radius must be positive.
func NewSphereCollider(center r3.Vector, radius float64, filter Filter, material Material) (*SphereCollider, error) {
	if radius <= 0 || math.IsNaN(radius) {
		return nil, newBadGeometryError(TypeSphere, "radius %v must be positive", radius)
	}
	return newSphere(center, radius, filter, material), nil
}

func newSphere(center r3.Vector, radius float64, filter Filter, material Material) *SphereCollider {
	return &SphereCollider{
		convexBase: convexBase{
			hull:     &ConvexHull{Vertices: []r3.Vector{center}, ConvexRadius: radius},
			filter:   filter,
			material: material,
		},
		Center: center,
		Radius: radius,
	}
}

// Type returns TypeSphere.
func (s *SphereCollider) Type() Type { return TypeSphere }

// CapsuleCollider is a segment inflated by a radius.
type CapsuleCollider struct {
	convexBase
	Vertex0 r3.Vector
	Vertex1 r3.Vector
	Radius  float64
}

// NewCapsuleCollider creates a capsule. Coincident vertices make a sphere-shaped capsule.
func NewCapsuleCollider(vertex0, vertex1 r3.Vector, radius float64, filter Filter, material Material) (*CapsuleCollider, error) {
	if radius <= 0 || math.IsNaN(radius) {
		return nil, newBadGeometryError(TypeCapsule, "radius %v must be positive", radius)
	}
	hull := &ConvexHull{Vertices: []r3.Vector{vertex0, vertex1}, ConvexRadius: radius}
	hull.edges = deriveEdges(hull)
	return &CapsuleCollider{
		convexBase: convexBase{hull: hull, filter: filter, material: material},
		Vertex0:    vertex0,
		Vertex1:    vertex1,
		Radius:     radius,
	}, nil
}

// Type returns TypeCapsule.
func (c *CapsuleCollider) Type() Type { return TypeCapsule }

// PolygonCollider is a flat triangle or quad with zero thickness. Its hull has a front face
// and a back face sharing the same vertices.
type PolygonCollider struct {
	convexBase
	Vertices    [4]r3.Vector
	NumVertices int
	Plane       spatialmath.Plane
}

// NewTriangleCollider creates a triangle wound counter-clockwise around its normal.
func NewTriangleCollider(v0, v1, v2 r3.Vector, filter Filter, material Material) (*PolygonCollider, error) {
	return newPolygon([]r3.Vector{v0, v1, v2}, filter, material)
}

// NewQuadCollider creates a planar convex quad wound counter-clockwise around its normal.
func NewQuadCollider(v0, v1, v2, v3 r3.Vector, filter Filter, material Material) (*PolygonCollider, error) {
	return newPolygon([]r3.Vector{v0, v1, v2, v3}, filter, material)
}

func newPolygon(verts []r3.Vector, filter Filter, material Material) (*PolygonCollider, error) {
	front := make([]int, len(verts))
	back := make([]int, len(verts))
	for i := range verts {
		front[i] = i
		back[i] = len(verts) - 1 - i
	}
	hull, err := NewConvexHull(verts, [][]int{front, back}, 0)
	if err != nil {
		return nil, errors.Wrap(err, "polygon")
	}
	p := &PolygonCollider{
		convexBase:  convexBase{hull: hull, filter: filter, material: material},
		NumVertices: len(verts),
		Plane:       hull.Faces[0].Plane,
	}
	copy(p.Vertices[:], verts)
	return p, nil
}

// Type returns TypePolygon.
func (p *PolygonCollider) Type() Type { return TypePolygon }

// IsTriangle reports whether the polygon has three vertices.
func (p *PolygonCollider) IsTriangle() bool { return p.NumVertices == 3 }

// BoxCollider is an oriented box whose edges are rounded by BevelRadius.
type BoxCollider struct {
	convexBase
	Center      r3.Vector
	Orientation spatialmath.RotationMatrix
	HalfExtents r3.Vector
	BevelRadius float64
}

// NewBoxCollider creates a box. The bevel radius may not exceed the smallest half extent.
func NewBoxCollider(
	center r3.Vector,
	orientation spatialmath.RotationMatrix,
	halfExtents r3.Vector,
	bevelRadius float64,
	filter Filter,
	material Material,
) (*BoxCollider, error) {
	if halfExtents.X <= 0 || halfExtents.Y <= 0 || halfExtents.Z <= 0 {
		return nil, newBadGeometryError(TypeBox, "half extents %v must be positive", halfExtents)
	}
	minHalf := math.Min(halfExtents.X, math.Min(halfExtents.Y, halfExtents.Z))
	if bevelRadius < 0 || bevelRadius > minHalf {
		return nil, newBadGeometryError(TypeBox, "bevel radius %v must be in [0, %v]", bevelRadius, minHalf)
	}
	core := halfExtents.Sub(r3.Vector{X: bevelRadius, Y: bevelRadius, Z: bevelRadius})
	return &BoxCollider{
		convexBase:  convexBase{hull: boxHull(center, orientation, core, bevelRadius), filter: filter, material: material},
		Center:      center,
		Orientation: orientation,
		HalfExtents: halfExtents,
		BevelRadius: bevelRadius,
	}, nil
}

// Type returns TypeBox.
func (b *BoxCollider) Type() Type { return TypeBox }

// coreHalfExtents is the box shrunk by its bevel radius.
func (b *BoxCollider) coreHalfExtents() r3.Vector {
	return b.HalfExtents.Sub(r3.Vector{X: b.BevelRadius, Y: b.BevelRadius, Z: b.BevelRadius})
}

// ConvexCollider is a general convex hull.
type ConvexCollider struct {
	convexBase
}

// NewConvexCollider wraps an already-valid hull. Convexity and winding are assumed, not checked.
func NewConvexCollider(hull *ConvexHull, filter Filter, material Material) (*ConvexCollider, error) {
	if hull == nil || len(hull.Vertices) < 4 || len(hull.Faces) < 4 {
		return nil, newBadGeometryError(TypeConvex, "hull needs at least 4 vertices and 4 faces")
	}
	return &ConvexCollider{convexBase{hull: hull, filter: filter, material: material}}, nil
}

// Type returns TypeConvex.
func (c *ConvexCollider) Type() Type { return TypeConvex }
