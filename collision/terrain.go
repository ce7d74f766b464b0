package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/narrowphase/spatialmath"
	"go.viam.com/narrowphase/utils"
)

// TerrainCollider is a height field over a regular X/Y grid with Z up. Sample (x, y) sits at
// local (x*Scale.X, y*Scale.Y, height*Scale.Z). Every cell splits into two triangles.
type TerrainCollider struct {
	heights  []float64
	sizeX    int
	sizeY    int
	scale    r3.Vector
	filter   Filter
	material Material

	// pyramid[0] holds per-cell height ranges; each level above halves both dimensions.
	pyramid []terrainLevel
	bounds  spatialmath.AABB
	bitsX   int
	bitsY   int
}

type terrainLevel struct {
	width, height int
	minZ, maxZ    []float64
}

// NewTerrainCollider builds a terrain from sizeX*sizeY heights stored row by row (x fastest).
func NewTerrainCollider(heights []float64, sizeX, sizeY int, scale r3.Vector, filter Filter, material Material) (*TerrainCollider, error) {
	if sizeX < 2 || sizeY < 2 {
		return nil, newBadGeometryError(TypeTerrain, "grid %dx%d must be at least 2x2", sizeX, sizeY)
	}
	if len(heights) != sizeX*sizeY {
		return nil, newBadGeometryError(TypeTerrain, "got %d heights for a %dx%d grid", len(heights), sizeX, sizeY)
	}
	if scale.X <= 0 || scale.Y <= 0 || scale.Z <= 0 {
		return nil, newBadGeometryError(TypeTerrain, "scale %v must be positive", scale)
	}
	t := &TerrainCollider{
		heights:  heights,
		sizeX:    sizeX,
		sizeY:    sizeY,
		scale:    scale,
		filter:   filter,
		material: material,
		bitsX:    utils.IndexBits(sizeX - 1),
		bitsY:    utils.IndexBits(sizeY - 1),
	}
	if bits := t.NumColliderKeyBits(); bits > colliderKeyBits {
		return nil, newColliderKeyOverflowError(TypeTerrain, bits)
	}
	t.buildPyramid()
	top := t.pyramid[len(t.pyramid)-1]
	t.bounds = spatialmath.AABB{
		Min: r3.Vector{Z: top.minZ[0] * scale.Z},
		Max: r3.Vector{X: float64(sizeX-1) * scale.X, Y: float64(sizeY-1) * scale.Y, Z: top.maxZ[0] * scale.Z},
	}
	return t, nil
}

func (t *TerrainCollider) buildPyramid() {
	base := terrainLevel{width: t.sizeX - 1, height: t.sizeY - 1}
	base.minZ = make([]float64, base.width*base.height)
	base.maxZ = make([]float64, base.width*base.height)
	for y := 0; y < base.height; y++ {
		for x := 0; x < base.width; x++ {
			h := [4]float64{t.height(x, y), t.height(x+1, y), t.height(x, y+1), t.height(x+1, y+1)}
			base.minZ[y*base.width+x] = math.Min(math.Min(h[0], h[1]), math.Min(h[2], h[3]))
			base.maxZ[y*base.width+x] = math.Max(math.Max(h[0], h[1]), math.Max(h[2], h[3]))
		}
	}
	t.pyramid = []terrainLevel{base}
	for cur := base; cur.width > 1 || cur.height > 1; {
		next := terrainLevel{width: (cur.width + 1) / 2, height: (cur.height + 1) / 2}
		next.minZ = make([]float64, next.width*next.height)
		next.maxZ = make([]float64, next.width*next.height)
		for y := 0; y < next.height; y++ {
			for x := 0; x < next.width; x++ {
				lo, hi := math.Inf(1), math.Inf(-1)
				for dy := 0; dy < 2; dy++ {
					for dx := 0; dx < 2; dx++ {
						cx, cy := 2*x+dx, 2*y+dy
						if cx >= cur.width || cy >= cur.height {
							continue
						}
						lo = math.Min(lo, cur.minZ[cy*cur.width+cx])
						hi = math.Max(hi, cur.maxZ[cy*cur.width+cx])
					}
				}
				next.minZ[y*next.width+x] = lo
				next.maxZ[y*next.width+x] = hi
			}
		}
		t.pyramid = append(t.pyramid, next)
		cur = next
	}
}

// Type returns TypeTerrain.
func (t *TerrainCollider) Type() Type { return TypeTerrain }

// Filter returns the terrain's filter.
func (t *TerrainCollider) Filter() Filter { return t.filter }

// Material returns the terrain's material.
func (t *TerrainCollider) Material() Material { return t.material }

// LocalAABB bounds the whole height field.
func (t *TerrainCollider) LocalAABB() spatialmath.AABB { return t.bounds }

// NumColliderKeyBits is the bits for the cell x, the cell y and the triangle within the cell.
func (t *TerrainCollider) NumColliderKeyBits() int { return t.bitsX + t.bitsY + 1 }

func (t *TerrainCollider) sealed() {}

func (t *TerrainCollider) ownKeyBits() int { return t.NumColliderKeyBits() }

func (t *TerrainCollider) height(x, y int) float64 {
	return t.heights[y*t.sizeX+x]
}

func (t *TerrainCollider) vertex(x, y int) r3.Vector {
	return r3.Vector{X: float64(x) * t.scale.X, Y: float64(y) * t.scale.Y, Z: t.height(x, y) * t.scale.Z}
}

// cellTriangle returns the vertices of triangle tri (0 or 1) of cell (x, y), wound so the normal faces +Z.
func (t *TerrainCollider) cellTriangle(x, y, tri int) [3]r3.Vector {
	if tri == 0 {
		return [3]r3.Vector{t.vertex(x, y), t.vertex(x+1, y), t.vertex(x+1, y+1)}
	}
	return [3]r3.Vector{t.vertex(x, y), t.vertex(x+1, y+1), t.vertex(x, y+1)}
}

func (t *TerrainCollider) triangleLeaf(x, y, tri int) leafRef {
	v := t.cellTriangle(x, y, tri)
	plane := spatialmath.NewPlaneFromPoints(v[0], v[1], v[2])
	return leafRef{
		collider:       syntheticPolygon(v[:], plane, t.filter, t.material),
		parentFromLeaf: spatialmath.NewIdentityTransform(),
		numBits:        t.NumColliderKeyBits(),
		subKey:         t.subKey(x, y, tri),
	}
}

func (t *TerrainCollider) subKey(x, y, tri int) uint32 {
	return uint32(x)<<uint(t.bitsY+1) | uint32(y)<<1 | uint32(tri)
}

func (t *TerrainCollider) leafByIndex(subKey uint32) (leafRef, bool) {
	tri := int(subKey & 1)
	y := int(subKey>>1) & (1<<uint(t.bitsY) - 1)
	x := int(subKey >> uint(t.bitsY+1))
	if x >= t.sizeX-1 || y >= t.sizeY-1 {
		return leafRef{}, false
	}
	return t.triangleLeaf(x, y, tri), true
}

// nodeBounds returns the local bounds of pyramid node (x, y) at level.
func (t *TerrainCollider) nodeBounds(level, x, y int) spatialmath.AABB {
	span := 1 << uint(level)
	lvl := t.pyramid[level]
	x1 := utils.MinInt((x+1)*span, t.sizeX-1)
	y1 := utils.MinInt((y+1)*span, t.sizeY-1)
	return spatialmath.AABB{
		Min: r3.Vector{X: float64(x*span) * t.scale.X, Y: float64(y*span) * t.scale.Y, Z: lvl.minZ[y*lvl.width+x] * t.scale.Z},
		Max: r3.Vector{X: float64(x1) * t.scale.X, Y: float64(y1) * t.scale.Y, Z: lvl.maxZ[y*lvl.width+x] * t.scale.Z},
	}
}

// walkLeaves descends the quad-tree from the top level and visits both triangles of every cell that passes.
func (t *TerrainCollider) walkLeaves(overlap func(spatialmath.AABB) bool, visit func(leafRef) bool) {
	type node struct{ level, x, y int }
	stack := []node{{level: len(t.pyramid) - 1}}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !overlap(t.nodeBounds(n.level, n.x, n.y)) {
			continue
		}
		if n.level == 0 {
			for tri := 0; tri < 2; tri++ {
				if !visit(t.triangleLeaf(n.x, n.y, tri)) {
					return
				}
			}
			continue
		}
		below := t.pyramid[n.level-1]
		for dy := 1; dy >= 0; dy-- {
			for dx := 1; dx >= 0; dx-- {
				cx, cy := 2*n.x+dx, 2*n.y+dy
				if cx < below.width && cy < below.height {
					stack = append(stack, node{level: n.level - 1, x: cx, y: cy})
				}
			}
		}
	}
}

// terrainSample is the surface under a local (x, y) position.
type terrainSample struct {
	height float64
	normal r3.Vector
	subKey uint32
}

// sample returns the terrain surface under local (x, y), or false outside the grid.
func (t *TerrainCollider) sample(x, y float64) (terrainSample, bool) {
	u := x / t.scale.X
	v := y / t.scale.Y
	if u < 0 || v < 0 || u > float64(t.sizeX-1) || v > float64(t.sizeY-1) {
		return terrainSample{}, false
	}
	cx := utils.MinInt(int(u), t.sizeX-2)
	cy := utils.MinInt(int(v), t.sizeY-2)
	tri := 1
	if u-float64(cx) >= v-float64(cy) {
		tri = 0
	}
	verts := t.cellTriangle(cx, cy, tri)
	plane := spatialmath.NewPlaneFromPoints(verts[0], verts[1], verts[2])
	s := terrainSample{
		height: verts[0].Z,
		normal: plane.Normal,
		subKey: t.subKey(cx, cy, tri),
	}
	if math.Abs(plane.Normal.Z) > 1e-12 {
		s.height = -(plane.Normal.X*x + plane.Normal.Y*y + plane.Distance) / plane.Normal.Z
	}
	return s, true
}

// HeightAt returns the terrain height under local (x, y), or false outside the grid.
func (t *TerrainCollider) HeightAt(x, y float64) (float64, bool) {
	s, ok := t.sample(x, y)
	return s.height, ok
}
