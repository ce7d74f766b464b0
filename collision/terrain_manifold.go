package collision

import (
	"math"

	"github.com/golang/geo/r3"
)

// terrainNormalCosine is the smallest cosine between two terrain normals that still share a manifold.
const terrainNormalCosine = 0.999

// terrainPair samples the terrain under every core vertex of the convex shape and emits one
// manifold per run of matching surface normals. Shapes that touch the terrain only between
// vertices fall back to the triangle leaves.
func (g *manifoldGenerator) terrainPair(conv Convex, cs manifoldSide, terrain *TerrainCollider, ts manifoldSide, terrainIsA bool) {
	matC, matT := conv.Material(), terrain.Material()
	if matC.CollisionResponse == ResponseNone || matT.CollisionResponse == ResponseNone {
		return
	}
	pc := place(conv, ts.world.Inverse().Compose(cs.world))
	localMax := g.maxDistance / math.Abs(ts.world.Scale)

	var m *Manifold
	var runNormal r3.Vector
	emitted := false
	flush := func() {
		if m == nil {
			return
		}
		m.transform(ts.world)
		if terrainIsA {
			m.Flip()
			g.finish(m, matT, matC)
		} else {
			g.finish(m, matC, matT)
		}
		m = nil
		emitted = true
	}

	for _, v := range pc.vertices {
		s, ok := terrain.sample(v.X, v.Y)
		if !ok {
			continue
		}
		// Signed distance of the core vertex from the local surface plane.
		planeDist := s.normal.Z * (v.Z - s.height)
		d := planeDist - pc.radius
		if d >= localMax {
			continue
		}
		if m != nil && (s.normal.Dot(runNormal) < terrainNormalCosine || m.NumContacts() == MaxContacts) {
			flush()
		}
		if m == nil {
			runNormal = s.normal
			terrainKey := ts.key
			terrainKey.Push(terrain.NumColliderKeyBits(), s.subKey)
			m = &Manifold{
				Normal:       s.normal.Mul(-1),
				ColliderKeys: ColliderKeyPair{ColliderKeyA: cs.key.Key(), ColliderKeyB: terrainKey.Key()},
			}
		}
		m.Add(ContactPoint{Position: v.Sub(s.normal.Mul(planeDist)), Distance: d})
	}
	flush()

	if !emitted {
		g.descend(terrain, ts, cs, terrainIsA)
	}
}
