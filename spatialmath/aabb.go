package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min r3.Vector `json:"min"`
	Max r3.Vector `json:"max"`
}

// NewAABBFromPoints returns the smallest box containing every point. It returns an empty box for no points.
func NewAABBFromPoints(pts ...r3.Vector) AABB {
	box := EmptyAABB()
	for _, p := range pts {
		box = box.AddPoint(p)
	}
	return box
}

// EmptyAABB returns a box that contains nothing and unions to its argument.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: r3.Vector{X: inf, Y: inf, Z: inf},
		Max: r3.Vector{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b AABB) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Center returns the box's midpoint.
func (b AABB) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// HalfExtents returns half of the box's size along each axis.
func (b AABB) HalfExtents() r3.Vector {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// AddPoint grows the box to include p.
func (b AABB) AddPoint(p r3.Vector) AABB {
	return AABB{
		Min: r3.Vector{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vector{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(other AABB) AABB {
	return b.AddPoint(other.Min).AddPoint(other.Max)
}

// Expand grows the box by r along every axis.
func (b AABB) Expand(r float64) AABB {
	d := r3.Vector{X: r, Y: r, Z: r}
	return AABB{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// Translate offsets the box.
func (b AABB) Translate(v r3.Vector) AABB {
	return AABB{Min: b.Min.Add(v), Max: b.Max.Add(v)}
}

// Sweep grows the box to cover every position along displacement.
func (b AABB) Sweep(displacement r3.Vector) AABB {
	return b.Union(b.Translate(displacement))
}

// Overlaps reports whether the boxes intersect. Touching faces count as overlapping.
func (b AABB) Overlaps(other AABB) bool {
	return b.Min.X <= other.Max.X && b.Max.X >= other.Min.X &&
		b.Min.Y <= other.Max.Y && b.Max.Y >= other.Min.Y &&
		b.Min.Z <= other.Max.Z && b.Max.Z >= other.Min.Z
}

// Contains reports whether p lies inside or on the box.
func (b AABB) Contains(p r3.Vector) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ClosestPoint returns the point of the box closest to p.
func (b AABB) ClosestPoint(p r3.Vector) r3.Vector {
	return r3.Vector{
		X: math.Max(b.Min.X, math.Min(p.X, b.Max.X)),
		Y: math.Max(b.Min.Y, math.Min(p.Y, b.Max.Y)),
		Z: math.Max(b.Min.Z, math.Min(p.Z, b.Max.Z)),
	}
}

// DistanceToPoint returns the distance from p to the box, zero inside.
func (b AABB) DistanceToPoint(p r3.Vector) float64 {
	return b.ClosestPoint(p).Sub(p).Norm()
}

// Distance returns the minimum gap between two boxes, zero when they overlap.
func (b AABB) Distance(other AABB) float64 {
	dx := math.Max(0, math.Max(b.Min.X-other.Max.X, other.Min.X-b.Max.X))
	dy := math.Max(0, math.Max(b.Min.Y-other.Max.Y, other.Min.Y-b.Max.Y))
	dz := math.Max(0, math.Max(b.Min.Z-other.Max.Z, other.Min.Z-b.Max.Z))
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Transform returns the axis-aligned bounds of the box after it is mapped through t.
func (b AABB) Transform(t Transform) AABB {
	if b.IsEmpty() {
		return b
	}
	center := t.Apply(b.Center())
	half := t.Rotation.AbsMul(b.HalfExtents().Mul(math.Abs(t.Scale)))
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// RayIntersect runs a slab test of the segment origin + f*displacement for f in [0, maxFraction].
// It returns the entry fraction, which is 0 when the origin starts inside the box.
func (b AABB) RayIntersect(origin, displacement r3.Vector, maxFraction float64) (float64, bool) {
	tmin, tmax := 0.0, maxFraction
	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{displacement.X, displacement.Y, displacement.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / d[i]
		t1 := (lo[i] - o[i]) * inv
		t2 := (hi[i] - o[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
