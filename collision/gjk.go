package collision

import (
	"math"

	"github.com/golang/geo/r3"
)

const (
	gjkMaxIterations = 64
	gjkEpsilon       = 1e-10
	// gjkIntersectEpsilon is the core distance below which the cores are treated as touching
	// and the separating axis pass takes over.
	gjkIntersectEpsilon = 1e-6
)

// simplexVertex is one vertex of the Minkowski difference A - B with the hull points that made it.
type simplexVertex struct {
	w, a, b r3.Vector
	weight  float64
}

type simplex struct {
	verts [4]simplexVertex
	n     int
}

func (s *simplex) add(v simplexVertex) {
	s.verts[s.n] = v
	s.n++
}

// closestPoints recovers the points on A and B from the barycentric weights.
func (s *simplex) closestPoints() (r3.Vector, r3.Vector) {
	var pa, pb r3.Vector
	for _, v := range s.verts[:s.n] {
		pa = pa.Add(v.a.Mul(v.weight))
		pb = pb.Add(v.b.Mul(v.weight))
	}
	return pa, pb
}

func minkowskiSupport(a, b *placedConvex, d r3.Vector) simplexVertex {
	pa := a.support(d)
	pb := b.support(d.Mul(-1))
	return simplexVertex{w: pa.Sub(pb), a: pa, b: pb}
}

// gjkResult is the closest pair between the two cores.
type gjkResult struct {
	pointA, pointB r3.Vector
	distance       float64
	intersecting   bool
}

// gjkClosest runs GJK on the cores of a and b. The radii are not considered.
func gjkClosest(a, b *placedConvex) gjkResult {
	d := b.vertices[0].Sub(a.vertices[0])
	if d.Norm2() < gjkEpsilon {
		d = r3.Vector{X: 1}
	}

	var s simplex
	first := minkowskiSupport(a, b, d.Mul(-1))
	first.weight = 1
	s.add(first)
	v := first.w

	for iter := 0; iter < gjkMaxIterations; iter++ {
		vv := v.Norm2()
		if vv < 1e-20 {
			pa, pb := s.closestPoints()
			return gjkResult{pointA: pa, pointB: pb, intersecting: true}
		}

		w := minkowskiSupport(a, b, v.Mul(-1))
		if vv-v.Dot(w.w) <= gjkEpsilon*vv || s.contains(w.w) {
			break
		}

		s.add(w)
		switch s.n {
		case 2:
			v = closestOnSegment(&s)
		case 3:
			v = closestOnTriangle(&s)
		case 4:
			v = closestOnTetrahedron(&s)
		}
	}

	pa, pb := s.closestPoints()
	dist := v.Norm()
	return gjkResult{pointA: pa, pointB: pb, distance: dist, intersecting: dist < gjkIntersectEpsilon}
}

func (s *simplex) contains(w r3.Vector) bool {
	for _, v := range s.verts[:s.n] {
		if v.w.Sub(w).Norm2() < 1e-24 {
			return true
		}
	}
	return false
}

type weighted struct {
	idx int
	wt  float64
}

// reduce keeps only the listed vertices with their new barycentric weights.
func (s *simplex) reduce(weights ...weighted) {
	var out [4]simplexVertex
	for i, w := range weights {
		out[i] = s.verts[w.idx]
		out[i].weight = w.wt
	}
	s.verts = out
	s.n = len(weights)
}

// closestOnSegment reduces s to the feature of segment [0,1] closest to the origin.
func closestOnSegment(s *simplex) r3.Vector {
	a, b := s.verts[0].w, s.verts[1].w
	ab := b.Sub(a)
	denom := ab.Norm2()
	if denom < 1e-30 {
		s.reduce(weighted{0, 1})
		return a
	}
	t := a.Mul(-1).Dot(ab) / denom
	if t <= 0 {
		s.reduce(weighted{0, 1})
		return a
	}
	if t >= 1 {
		s.reduce(weighted{1, 1})
		return b
	}
	s.reduce(weighted{0, 1 - t}, weighted{1, t})
	return a.Add(ab.Mul(t))
}

// closestOnTriangle reduces s to the feature of triangle [0,1,2] closest to the origin.
// Uses Ericson's Voronoi region method from "Real-Time Collision Detection".
func closestOnTriangle(s *simplex) r3.Vector {
	a, b, c := s.verts[0].w, s.verts[1].w, s.verts[2].w
	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	d1 := ab.Dot(ao)
	d2 := ac.Dot(ao)
	if d1 <= 0 && d2 <= 0 {
		s.reduce(weighted{0, 1})
		return a
	}

	bo := b.Mul(-1)
	d3 := ab.Dot(bo)
	d4 := ac.Dot(bo)
	if d3 >= 0 && d4 <= d3 {
		s.reduce(weighted{1, 1})
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		s.reduce(weighted{0, 1 - v}, weighted{1, v})
		return a.Add(ab.Mul(v))
	}

	co := c.Mul(-1)
	d5 := ab.Dot(co)
	d6 := ac.Dot(co)
	if d6 >= 0 && d5 <= d6 {
		s.reduce(weighted{2, 1})
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		s.reduce(weighted{0, 1 - w}, weighted{2, w})
		return a.Add(ac.Mul(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		s.reduce(weighted{1, 1 - w}, weighted{2, w})
		return b.Add(c.Sub(b).Mul(w))
	}

	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	s.reduce(weighted{0, 1 - v - w}, weighted{1, v}, weighted{2, w})
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

// closestOnTetrahedron reduces s to the closest face, or keeps all four vertices when the
// origin is enclosed and returns the zero vector.
func closestOnTetrahedron(s *simplex) r3.Vector {
	pts := [4]r3.Vector{s.verts[0].w, s.verts[1].w, s.verts[2].w, s.verts[3].w}
	if bary, inside := originBarycentric(pts); inside {
		for i := range s.verts {
			s.verts[i].weight = bary[i]
		}
		return r3.Vector{}
	}

	faces := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	best := math.Inf(1)
	var bestV r3.Vector
	var bestS simplex
	for _, f := range faces {
		trial := simplex{n: 3}
		for i, idx := range f {
			trial.verts[i] = s.verts[idx]
		}
		v := closestOnTriangle(&trial)
		if d := v.Norm2(); d < best {
			best = d
			bestV = v
			bestS = trial
		}
	}
	*s = bestS
	return bestV
}

// originBarycentric returns the barycentric coordinates of the origin in the tetrahedron and
// whether the origin lies inside it.
func originBarycentric(pts [4]r3.Vector) ([4]float64, bool) {
	vol := func(a, b, c, d r3.Vector) float64 {
		return b.Sub(a).Cross(c.Sub(a)).Dot(d.Sub(a))
	}
	var o r3.Vector
	total := vol(pts[0], pts[1], pts[2], pts[3])
	if math.Abs(total) < 1e-30 {
		return [4]float64{}, false
	}
	bary := [4]float64{
		vol(o, pts[1], pts[2], pts[3]) / total,
		vol(pts[0], o, pts[2], pts[3]) / total,
		vol(pts[0], pts[1], o, pts[3]) / total,
		vol(pts[0], pts[1], pts[2], o) / total,
	}
	for _, b := range bary {
		if b < -1e-12 {
			return bary, false
		}
	}
	return bary, true
}
