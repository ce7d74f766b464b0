package collision

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/narrowphase/spatialmath"
)

func castClosest(t *testing.T, input RaycastInput, target Collider, ctx QueryContext) (RaycastHit, bool) {
	t.Helper()
	c := NewClosestHitCollector[RaycastHit](1)
	found := CastRay(input, target, ctx, c)
	hit, ok := c.Hit()
	test.That(t, found, test.ShouldEqual, ok)
	return hit, ok
}

func TestRaycastSphere(t *testing.T) {
	sphere := makeSphere(t, 1)
	ctx := NewQueryContext(spatialmath.NewIdentityTransform(), 3, 11)

	hit, ok := castClosest(t, RaycastInput{Start: r3.Vector{Z: -5}, End: r3.Vector{}, Filter: DefaultFilter}, sphere, ctx)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, hit.Fraction, test.ShouldAlmostEqual, 0.8, 1e-12)
	assertVector(t, hit.Position, r3.Vector{Z: -1}, 1e-12)
	assertVector(t, hit.SurfaceNormal, r3.Vector{Z: -1}, 1e-12)
	test.That(t, hit.RigidBodyIndex, test.ShouldEqual, 3)
	test.That(t, hit.Entity, test.ShouldEqual, Entity(11))
	test.That(t, hit.ColliderKey, test.ShouldEqual, ColliderKeyEmpty)

	hit, ok = castClosest(t, RaycastInput{Start: r3.Vector{Z: -5}, End: r3.Vector{Z: 1}, Filter: DefaultFilter}, sphere, ctx)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, hit.Fraction, test.ShouldAlmostEqual, 4./6., 1e-12)

	t.Run("too short", func(t *testing.T) {
		_, ok := castClosest(t, RaycastInput{Start: r3.Vector{Z: -5}, End: r3.Vector{Z: -2}, Filter: DefaultFilter}, sphere, ctx)
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("pointing away", func(t *testing.T) {
		_, ok := castClosest(t, RaycastInput{Start: r3.Vector{Z: -5}, End: r3.Vector{Z: -10}, Filter: DefaultFilter}, sphere, ctx)
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("starting inside", func(t *testing.T) {
		hit, ok := castClosest(t, RaycastInput{Start: r3.Vector{X: 0.2}, End: r3.Vector{X: 5}, Filter: DefaultFilter}, sphere, ctx)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.Fraction, test.ShouldEqual, 0.0)
		assertVector(t, hit.SurfaceNormal, r3.Vector{X: -1}, 1e-12)
	})

	t.Run("filtered out", func(t *testing.T) {
		_, ok := castClosest(t, RaycastInput{Start: r3.Vector{Z: -5}, End: r3.Vector{}, Filter: ZeroFilter}, sphere, ctx)
		test.That(t, ok, test.ShouldBeFalse)
	})
}

func TestRaycastShapes(t *testing.T) {
	identity := NewQueryContext(spatialmath.NewIdentityTransform(), 0, EntityNull)
	rising := RaycastInput{Start: r3.Vector{Z: -5}, End: r3.Vector{Z: 5}, Filter: DefaultFilter}

	t.Run("capsule side", func(t *testing.T) {
		capsule := makeCapsule(t, r3.Vector{X: -1}, r3.Vector{X: 1}, 0.5)
		hit, ok := castClosest(t, rising, capsule, identity)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.Fraction, test.ShouldAlmostEqual, 0.45, 1e-9)
		assertVector(t, hit.SurfaceNormal, r3.Vector{Z: -1}, 1e-9)
	})

	t.Run("capsule cap", func(t *testing.T) {
		capsule := makeCapsule(t, r3.Vector{Z: -1}, r3.Vector{Z: 1}, 0.5)
		hit, ok := castClosest(t, rising, capsule, identity)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.Fraction, test.ShouldAlmostEqual, 0.35, 1e-9)
		assertVector(t, hit.Position, r3.Vector{Z: -1.5}, 1e-9)
	})

	t.Run("triangle both sides", func(t *testing.T) {
		tri, err := NewTriangleCollider(r3.Vector{X: -1, Y: -1}, r3.Vector{X: 1, Y: -1}, r3.Vector{Y: 1}, DefaultFilter, DefaultMaterial)
		test.That(t, err, test.ShouldBeNil)
		hit, ok := castClosest(t, rising, tri, identity)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.Fraction, test.ShouldAlmostEqual, 0.5, 1e-12)
		assertVector(t, hit.SurfaceNormal, r3.Vector{Z: -1}, 1e-12)

		falling := RaycastInput{Start: r3.Vector{Z: 5}, End: r3.Vector{Z: -5}, Filter: DefaultFilter}
		hit, ok = castClosest(t, falling, tri, identity)
		test.That(t, ok, test.ShouldBeTrue)
		assertVector(t, hit.SurfaceNormal, r3.Vector{Z: 1}, 1e-12)

		beside := RaycastInput{Start: r3.Vector{X: 3, Z: 5}, End: r3.Vector{X: 3, Z: -5}, Filter: DefaultFilter}
		_, ok = castClosest(t, beside, tri, identity)
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("scaled box", func(t *testing.T) {
		box := makeBox(t, r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})
		ctx := NewQueryContext(translation(0, 0, 10).WithScale(2), 0, EntityNull)
		hit, ok := castClosest(t, RaycastInput{End: r3.Vector{Z: 20}, Filter: DefaultFilter}, box, ctx)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.Fraction, test.ShouldAlmostEqual, 0.45, 1e-9)
		assertVector(t, hit.Position, r3.Vector{Z: 9}, 1e-9)
		assertVector(t, hit.SurfaceNormal, r3.Vector{Z: -1}, 1e-9)
	})

	t.Run("parallel to a face outside", func(t *testing.T) {
		box := makeBox(t, r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})
		_, ok := castClosest(t, RaycastInput{Start: r3.Vector{X: -5, Z: 1}, End: r3.Vector{X: 5, Z: 1}, Filter: DefaultFilter}, box, identity)
		test.That(t, ok, test.ShouldBeFalse)
	})
}

// A longer ray along the same line reports the same point at a proportionally smaller
// fraction, and a ray stopping short of the surface misses.
func TestRaycastMonotonic(t *testing.T) {
	rotated := spatialmath.NewTransform(r3.Vector{X: 0.1, Y: -0.2}, spatialmath.NewRotationFromAxisAngle(r3.Vector{X: 1, Y: 2, Z: 3}.Normalize(), 0.7))
	targets := map[string]Collider{
		"sphere":  makeSphere(t, 0.8),
		"capsule": makeCapsule(t, r3.Vector{Y: -0.5}, r3.Vector{Y: 0.5}, 0.5),
		"box":     makeBox(t, r3.Vector{X: 0.4, Y: 0.6, Z: 0.5}),
		"hull":    makeCubeHull(t, 0.5),
	}
	start := r3.Vector{X: -5, Y: 0.1, Z: 0.05}
	dir := r3.Vector{X: 1}

	for name, target := range targets {
		t.Run(name, func(t *testing.T) {
			ctx := NewQueryContext(rotated, 0, EntityNull)
			short, ok := castClosest(t, RaycastInput{Start: start, End: start.Add(dir.Mul(10)), Filter: DefaultFilter}, target, ctx)
			test.That(t, ok, test.ShouldBeTrue)
			long, ok := castClosest(t, RaycastInput{Start: start, End: start.Add(dir.Mul(20)), Filter: DefaultFilter}, target, ctx)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, long.Fraction, test.ShouldAlmostEqual, short.Fraction/2, 1e-9)
			assertVector(t, long.Position, short.Position, 1e-9)
			test.That(t, long.SurfaceNormal.Dot(dir), test.ShouldBeLessThanOrEqualTo, 0)

			stop := short.Fraction * 10 * 0.99
			_, ok = castClosest(t, RaycastInput{Start: start, End: start.Add(dir.Mul(stop)), Filter: DefaultFilter}, target, ctx)
			test.That(t, ok, test.ShouldBeFalse)
		})
	}
}
