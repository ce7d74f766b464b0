package collision

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/narrowphase/spatialmath"
)

func translation(x, y, z float64) spatialmath.Transform {
	return spatialmath.NewTranslation(r3.Vector{X: x, Y: y, Z: z})
}

func makeSphere(t *testing.T, radius float64) *SphereCollider {
	t.Helper()
	s, err := NewSphereCollider(r3.Vector{}, radius, DefaultFilter, DefaultMaterial)
	test.That(t, err, test.ShouldBeNil)
	return s
}

func makeBox(t *testing.T, half r3.Vector) *BoxCollider {
	t.Helper()
	b, err := NewBoxCollider(r3.Vector{}, spatialmath.NewIdentityRotation(), half, 0, DefaultFilter, DefaultMaterial)
	test.That(t, err, test.ShouldBeNil)
	return b
}

func makeCapsule(t *testing.T, v0, v1 r3.Vector, radius float64) *CapsuleCollider {
	t.Helper()
	c, err := NewCapsuleCollider(v0, v1, radius, DefaultFilter, DefaultMaterial)
	test.That(t, err, test.ShouldBeNil)
	return c
}

func makeCompound(t *testing.T, children ...CompoundChild) *CompoundCollider {
	t.Helper()
	c, err := NewCompoundCollider(children)
	test.That(t, err, test.ShouldBeNil)
	return c
}

// makeCubeHull builds a cube hull through NewConvexHull so that it takes the general convex path.
func makeCubeHull(t *testing.T, half float64) *ConvexCollider {
	t.Helper()
	verts := make([]r3.Vector, len(boxCorners))
	for i, c := range boxCorners {
		verts[i] = c.Mul(half)
	}
	faces := make([][]int, len(boxFaces))
	for i, f := range boxFaces {
		faces[i] = f[:]
	}
	hull, err := NewConvexHull(verts, faces, 0)
	test.That(t, err, test.ShouldBeNil)
	c, err := NewConvexCollider(hull, DefaultFilter, DefaultMaterial)
	test.That(t, err, test.ShouldBeNil)
	return c
}

// makeFlatTerrain builds a size x size terrain at height h with unit spacing.
func makeFlatTerrain(t *testing.T, size int, h float64) *TerrainCollider {
	t.Helper()
	heights := make([]float64, size*size)
	for i := range heights {
		heights[i] = h
	}
	terrain, err := NewTerrainCollider(heights, size, size, r3.Vector{X: 1, Y: 1, Z: 1}, DefaultFilter, DefaultMaterial)
	test.That(t, err, test.ShouldBeNil)
	return terrain
}

func assertVector(t *testing.T, got, want r3.Vector, epsilon float64) {
	t.Helper()
	test.That(t, got.X, test.ShouldAlmostEqual, want.X, epsilon)
	test.That(t, got.Y, test.ShouldAlmostEqual, want.Y, epsilon)
	test.That(t, got.Z, test.ShouldAlmostEqual, want.Z, epsilon)
}
