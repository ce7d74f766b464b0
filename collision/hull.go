package collision

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/narrowphase/spatialmath"
)

// Face is one planar face of a hull. Its vertices are FaceVertexIndices[FirstIndex:FirstIndex+NumVertices]
// wound counter-clockwise when seen from outside.
type Face struct {
	Plane       spatialmath.Plane
	FirstIndex  int
	NumVertices int
}

// ConvexHull is the core shape of every convex collider. The collider surface is the hull
// inflated by ConvexRadius. Spheres have one vertex and capsules two; neither has faces.
type ConvexHull struct {
	Vertices          []r3.Vector
	Faces             []Face
	FaceVertexIndices []int
	ConvexRadius      float64

	edges [][2]int
}

// NewConvexHull builds a hull from vertices and per-face vertex index lists. Faces must be
// convex and wound counter-clockwise from outside; planes are fitted with Newell's method.
func NewConvexHull(vertices []r3.Vector, faces [][]int, convexRadius float64) (*ConvexHull, error) {
	if len(vertices) == 0 {
		return nil, errors.New("convex hull needs at least one vertex")
	}
	if convexRadius < 0 || math.IsNaN(convexRadius) {
		return nil, errors.Errorf("convex radius must be non-negative, got %v", convexRadius)
	}
	hull := &ConvexHull{Vertices: vertices, ConvexRadius: convexRadius}
	for i, face := range faces {
		if len(face) < 3 {
			return nil, errors.Errorf("face %d has %d vertices, need at least 3", i, len(face))
		}
		for _, idx := range face {
			if idx < 0 || idx >= len(vertices) {
				return nil, errors.Errorf("face %d references vertex %d of %d", i, idx, len(vertices))
			}
		}
		plane, err := newellPlane(vertices, face)
		if err != nil {
			return nil, errors.Wrapf(err, "face %d", i)
		}
		hull.Faces = append(hull.Faces, Face{Plane: plane, FirstIndex: len(hull.FaceVertexIndices), NumVertices: len(face)})
		hull.FaceVertexIndices = append(hull.FaceVertexIndices, face...)
	}
	hull.edges = deriveEdges(hull)
	return hull, nil
}

func newellPlane(vertices []r3.Vector, face []int) (spatialmath.Plane, error) {
	var normal, centroid r3.Vector
	for i, idx := range face {
		cur := vertices[idx]
		next := vertices[face[(i+1)%len(face)]]
		normal.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		normal.Y += (cur.Z - next.Z) * (cur.X + next.X)
		normal.Z += (cur.X - next.X) * (cur.Y + next.Y)
		centroid = centroid.Add(cur)
	}
	if normal.Norm2() < 1e-20 {
		return spatialmath.Plane{}, errors.New("degenerate face")
	}
	return spatialmath.NewPlaneFromPointNormal(centroid.Mul(1/float64(len(face))), normal), nil
}

// deriveEdges collects each undirected edge once. Two-vertex hulls have their segment as the only edge.
func deriveEdges(h *ConvexHull) [][2]int {
	if len(h.Faces) == 0 {
		if len(h.Vertices) == 2 {
			return [][2]int{{0, 1}}
		}
		return nil
	}
	seen := map[[2]int]bool{}
	var edges [][2]int
	for fi := range h.Faces {
		idx := h.FaceIndices(fi)
		for i := range idx {
			a, b := idx[i], idx[(i+1)%len(idx)]
			if a > b {
				a, b = b, a
			}
			if !seen[[2]int{a, b}] {
				seen[[2]int{a, b}] = true
				edges = append(edges, [2]int{a, b})
			}
		}
	}
	return edges
}

// FaceIndices returns the vertex indices of face i.
func (h *ConvexHull) FaceIndices(i int) []int {
	f := h.Faces[i]
	return h.FaceVertexIndices[f.FirstIndex : f.FirstIndex+f.NumVertices]
}

// Edges returns each undirected edge as a vertex index pair.
func (h *ConvexHull) Edges() [][2]int {
	return h.edges
}

// AABB returns the bounds of the hull including its convex radius.
func (h *ConvexHull) AABB() spatialmath.AABB {
	return spatialmath.NewAABBFromPoints(h.Vertices...).Expand(h.ConvexRadius)
}

// SupportingVertex returns the index of the vertex furthest along dir.
func (h *ConvexHull) SupportingVertex(dir r3.Vector) int {
	best := 0
	bestDot := math.Inf(-1)
	for i, v := range h.Vertices {
		if d := v.Dot(dir); d > bestDot {
			bestDot = d
			best = i
		}
	}
	return best
}

// SupportingFace returns the face whose normal is most aligned with dir, or -1 for hulls without faces.
func (h *ConvexHull) SupportingFace(dir r3.Vector) int {
	best := -1
	bestDot := math.Inf(-1)
	for i, f := range h.Faces {
		if d := f.Plane.Normal.Dot(dir); d > bestDot {
			bestDot = d
			best = i
		}
	}
	return best
}

// boxHull builds the hull of an oriented box core.
func boxHull(center r3.Vector, orientation spatialmath.RotationMatrix, half r3.Vector, radius float64) *ConvexHull {
	verts := make([]r3.Vector, 8)
	for i, corner := range boxCorners {
		local := r3.Vector{X: corner.X * half.X, Y: corner.Y * half.Y, Z: corner.Z * half.Z}
		verts[i] = center.Add(orientation.Mul(local))
	}
	hull := &ConvexHull{Vertices: verts, ConvexRadius: radius}
	for i, face := range boxFaces {
		n := orientation.Mul(boxNormals[i])
		d := half.X*math.Abs(boxNormals[i].X) + half.Y*math.Abs(boxNormals[i].Y) + half.Z*math.Abs(boxNormals[i].Z)
		hull.Faces = append(hull.Faces, Face{
			Plane:       spatialmath.Plane{Normal: n, Distance: -n.Dot(center) - d},
			FirstIndex:  len(hull.FaceVertexIndices),
			NumVertices: 4,
		})
		hull.FaceVertexIndices = append(hull.FaceVertexIndices, face[:]...)
	}
	hull.edges = deriveEdges(hull)
	return hull
}

// boxCorners are the unit box vertices, indexed by bit pattern (x, y, z) -> (bit0, bit1, bit2).
var boxCorners = [8]r3.Vector{
	{X: -1, Y: -1, Z: -1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: -1},
	{X: 1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: 1},
	{X: -1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: 1},
}

// boxNormals are the outward face normals, in the same order as boxFaces.
var boxNormals = [6]r3.Vector{
	{X: 1},
	{X: -1},
	{Y: 1},
	{Y: -1},
	{Z: 1},
	{Z: -1},
}

// boxFaces wind counter-clockwise seen from outside.
var boxFaces = [6][4]int{
	{1, 3, 7, 5}, // +x
	{0, 4, 6, 2}, // -x
	{2, 6, 7, 3}, // +y
	{0, 1, 5, 4}, // -y
	{4, 5, 7, 6}, // +z
	{0, 2, 3, 1}, // -z
}
