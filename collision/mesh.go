package collision

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/narrowphase/spatialmath"
	"go.viam.com/narrowphase/utils"
)

// MeshPrimitive is a triangle or quad of a mesh with its own filter and material.
type MeshPrimitive struct {
	Indices       [4]int
	NumVertices   int
	FilterIndex   int
	MaterialIndex int
}

// MeshCollider is a soup of triangles and quads. Leaves are synthesized as PolygonColliders
// when a query reaches them.
type MeshCollider struct {
	vertices   []r3.Vector
	primitives []MeshPrimitive
	planes     []spatialmath.Plane
	filters    []Filter
	materials  []Material
	filter     Filter
	tree       *bvh
	keyBits    int
}

// NewMeshCollider validates the primitives and builds the hierarchy over them.
func NewMeshCollider(vertices []r3.Vector, primitives []MeshPrimitive, filters []Filter, materials []Material) (*MeshCollider, error) {
	if len(primitives) == 0 {
		return nil, newBadGeometryError(TypeMesh, "needs at least one primitive")
	}
	if len(filters) == 0 || len(materials) == 0 {
		return nil, newBadGeometryError(TypeMesh, "needs at least one filter and one material")
	}
	m := &MeshCollider{
		vertices:   vertices,
		primitives: primitives,
		planes:     make([]spatialmath.Plane, len(primitives)),
		filters:    filters,
		materials:  materials,
		filter:     ZeroFilter,
		keyBits:    utils.IndexBits(len(primitives)),
	}
	if m.keyBits > colliderKeyBits {
		return nil, newColliderKeyOverflowError(TypeMesh, m.keyBits)
	}
	bounds := make([]spatialmath.AABB, len(primitives))
	for i, p := range primitives {
		if p.NumVertices != 3 && p.NumVertices != 4 {
			return nil, errors.Errorf("mesh primitive %d has %d vertices, need 3 or 4", i, p.NumVertices)
		}
		if p.FilterIndex < 0 || p.FilterIndex >= len(filters) || p.MaterialIndex < 0 || p.MaterialIndex >= len(materials) {
			return nil, errors.Errorf("mesh primitive %d references a missing filter or material", i)
		}
		pts := make([]r3.Vector, p.NumVertices)
		for j := 0; j < p.NumVertices; j++ {
			idx := p.Indices[j]
			if idx < 0 || idx >= len(vertices) {
				return nil, errors.Errorf("mesh primitive %d references vertex %d of %d", i, idx, len(vertices))
			}
			pts[j] = vertices[idx]
		}
		plane, err := newellPlane(pts, []int{0, 1, 2, 3}[:p.NumVertices])
		if err != nil {
			return nil, errors.Wrapf(err, "mesh primitive %d", i)
		}
		m.planes[i] = plane
		bounds[i] = spatialmath.NewAABBFromPoints(pts...)
		m.filter = m.filter.Union(filters[p.FilterIndex])
	}
	m.tree = buildBVH(bounds)
	return m, nil
}

// NewTriangleMeshCollider builds a mesh where every triangle shares one filter and material.
func NewTriangleMeshCollider(vertices []r3.Vector, triangles [][3]int, filter Filter, material Material) (*MeshCollider, error) {
	prims := make([]MeshPrimitive, len(triangles))
	for i, tri := range triangles {
		prims[i] = MeshPrimitive{Indices: [4]int{tri[0], tri[1], tri[2]}, NumVertices: 3}
	}
	return NewMeshCollider(vertices, prims, []Filter{filter}, []Material{material})
}

// Type returns TypeMesh.
func (m *MeshCollider) Type() Type { return TypeMesh }

// Filter returns the union of every primitive's filter.
func (m *MeshCollider) Filter() Filter { return m.filter }

// LocalAABB bounds every primitive.
func (m *MeshCollider) LocalAABB() spatialmath.AABB { return m.tree.bounds }

// NumColliderKeyBits is enough bits to index every primitive.
func (m *MeshCollider) NumColliderKeyBits() int { return m.keyBits }

// NumPrimitives returns the number of triangles and quads.
func (m *MeshCollider) NumPrimitives() int { return len(m.primitives) }

// Primitive synthesizes the polygon for primitive i.
func (m *MeshCollider) Primitive(i int) *PolygonCollider {
	p := m.primitives[i]
	verts := make([]r3.Vector, p.NumVertices)
	for j := range verts {
		verts[j] = m.vertices[p.Indices[j]]
	}
	return syntheticPolygon(verts, m.planes[i], m.filters[p.FilterIndex], m.materials[p.MaterialIndex])
}

func (m *MeshCollider) sealed() {}

func (m *MeshCollider) ownKeyBits() int { return m.keyBits }

func (m *MeshCollider) walkLeaves(overlap func(spatialmath.AABB) bool, visit func(leafRef) bool) {
	m.tree.traverse(overlap, func(i int) bool {
		return visit(m.leaf(i))
	})
}

func (m *MeshCollider) leaf(i int) leafRef {
	return leafRef{
		collider:       m.Primitive(i),
		parentFromLeaf: spatialmath.NewIdentityTransform(),
		numBits:        m.keyBits,
		subKey:         uint32(i),
	}
}

func (m *MeshCollider) leafByIndex(subKey uint32) (leafRef, bool) {
	if int(subKey) >= len(m.primitives) {
		return leafRef{}, false
	}
	return m.leaf(int(subKey)), true
}

// syntheticPolygon builds a polygon leaf from already-validated data without refitting its plane.
func syntheticPolygon(verts []r3.Vector, plane spatialmath.Plane, filter Filter, material Material) *PolygonCollider {
	n := len(verts)
	hull := &ConvexHull{
		Vertices: verts,
		Faces: []Face{
			{Plane: plane, FirstIndex: 0, NumVertices: n},
			{Plane: plane.Flip(), FirstIndex: n, NumVertices: n},
		},
		FaceVertexIndices: make([]int, 2*n),
	}
	for i := 0; i < n; i++ {
		hull.FaceVertexIndices[i] = i
		hull.FaceVertexIndices[n+i] = n - 1 - i
	}
	hull.edges = make([][2]int, n)
	for i := 0; i < n; i++ {
		hull.edges[i] = [2]int{i, (i + 1) % n}
	}
	p := &PolygonCollider{
		convexBase:  convexBase{hull: hull, filter: filter, material: material},
		NumVertices: n,
		Plane:       plane,
	}
	copy(p.Vertices[:], verts)
	return p
}
