package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/narrowphase/spatialmath"
)

// placedConvex is a convex collider mapped into a query frame. Vertices, planes and radius are
// already scaled, so routines downstream never see the transform's scale.
type placedConvex struct {
	collider Convex
	hull     *ConvexHull
	tf       spatialmath.Transform
	vertices []r3.Vector
	planes   []spatialmath.Plane
	radius   float64
}

func place(c Convex, tf spatialmath.Transform) placedConvex {
	hull := c.Hull()
	p := placedConvex{
		collider: c,
		hull:     hull,
		tf:       tf,
		radius:   hull.ConvexRadius * math.Abs(tf.Scale),
	}
	if tf.IsIdentity() {
		p.vertices = hull.Vertices
		p.planes = make([]spatialmath.Plane, len(hull.Faces))
		for i, f := range hull.Faces {
			p.planes[i] = f.Plane
		}
		return p
	}
	p.vertices = make([]r3.Vector, len(hull.Vertices))
	for i, v := range hull.Vertices {
		p.vertices[i] = tf.Apply(v)
	}
	p.planes = make([]spatialmath.Plane, len(hull.Faces))
	for i, f := range hull.Faces {
		p.planes[i] = f.Plane.Transform(tf)
	}
	return p
}

func (p *placedConvex) typ() Type {
	return p.collider.Type()
}

// support returns the core vertex furthest along dir.
func (p *placedConvex) support(dir r3.Vector) r3.Vector {
	best := p.vertices[0]
	bestDot := best.Dot(dir)
	for _, v := range p.vertices[1:] {
		if d := v.Dot(dir); d > bestDot {
			bestDot = d
			best = v
		}
	}
	return best
}

// projection returns the range of the core vertices along axis.
func (p *placedConvex) projection(axis r3.Vector) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range p.vertices {
		d := v.Dot(axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

func (p *placedConvex) faceVertices(face int) []r3.Vector {
	idx := p.hull.FaceIndices(face)
	out := make([]r3.Vector, len(idx))
	for i, vi := range idx {
		out[i] = p.vertices[vi]
	}
	return out
}

// supportingFace returns the face most aligned with dir and its cosine, or -1 without faces.
func (p *placedConvex) supportingFace(dir r3.Vector) (int, float64) {
	best, bestDot := -1, math.Inf(-1)
	for i, plane := range p.planes {
		if d := plane.Normal.Dot(dir); d > bestDot {
			best, bestDot = i, d
		}
	}
	return best, bestDot
}

// boxFrame returns the placed box's center, axes and core half extents.
func (p *placedConvex) boxFrame() (r3.Vector, spatialmath.RotationMatrix, r3.Vector) {
	box := p.collider.(*BoxCollider)
	return p.tf.Apply(box.Center), p.tf.Rotation.Compose(box.Orientation), box.coreHalfExtents().Mul(math.Abs(p.tf.Scale))
}

func (p *placedConvex) aabb() spatialmath.AABB {
	return spatialmath.NewAABBFromPoints(p.vertices...).Expand(p.radius)
}
