package collision

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/narrowphase/spatialmath"
)

func twoSphereCompound(t *testing.T, offset float64) *CompoundCollider {
	t.Helper()
	sphere := makeSphere(t, 0.5)
	return makeCompound(t,
		CompoundChild{Transform: translation(-offset, 0, 0), Collider: sphere},
		CompoundChild{Transform: translation(offset, 0, 0), Collider: sphere},
	)
}

func childKey(c Collider, index uint32) ColliderKey {
	var p ColliderKeyPath
	p.Push(c.(composite).ownKeyBits(), index)
	return p.Key()
}

func TestOverlapAABB(t *testing.T) {
	compound := twoSphereCompound(t, 2)
	ctx := NewQueryContext(spatialmath.NewIdentityTransform(), 1, 4)

	c := NewAllHitsCollector[OverlapHit](0)
	box := spatialmath.AABB{Min: r3.Vector{X: 1.5, Y: -0.5, Z: -0.5}, Max: r3.Vector{X: 2.5, Y: 0.5, Z: 0.5}}
	test.That(t, OverlapAABB(OverlapAABBInput{AABB: box, Filter: DefaultFilter}, compound, ctx, c), test.ShouldBeTrue)
	test.That(t, c.NumHits(), test.ShouldEqual, 1)
	test.That(t, c.Hits()[0].ColliderKey, test.ShouldEqual, childKey(compound, 1))
	test.That(t, c.Hits()[0].RigidBodyIndex, test.ShouldEqual, 1)
	test.That(t, c.Hits()[0].Entity, test.ShouldEqual, Entity(4))

	t.Run("box between the children", func(t *testing.T) {
		c := NewAllHitsCollector[OverlapHit](0)
		between := spatialmath.AABB{Min: r3.Vector{X: -1, Y: -1, Z: -1}, Max: r3.Vector{X: 1, Y: 1, Z: 1}}
		test.That(t, OverlapAABB(OverlapAABBInput{AABB: between, Filter: DefaultFilter}, compound, ctx, c), test.ShouldBeFalse)
	})

	t.Run("corner outside the sphere", func(t *testing.T) {
		sphere := makeSphere(t, 1)
		c := NewAllHitsCollector[OverlapHit](0)
		corner := spatialmath.AABB{Min: r3.Vector{X: 0.8, Y: 0.8, Z: 0.8}, Max: r3.Vector{X: 2, Y: 2, Z: 2}}
		test.That(t, OverlapAABB(OverlapAABBInput{AABB: corner, Filter: DefaultFilter}, sphere, ctx, c), test.ShouldBeFalse)
	})

	t.Run("both children", func(t *testing.T) {
		c := NewAllHitsCollector[OverlapHit](0)
		wide := spatialmath.AABB{Min: r3.Vector{X: -3, Y: -1, Z: -1}, Max: r3.Vector{X: 3, Y: 1, Z: 1}}
		OverlapAABB(OverlapAABBInput{AABB: wide, Filter: DefaultFilter}, compound, ctx, c)
		test.That(t, c.NumHits(), test.ShouldEqual, 2)
	})

	t.Run("moved body", func(t *testing.T) {
		moved := NewQueryContext(translation(10, 0, 0), 0, EntityNull)
		c := NewAllHitsCollector[OverlapHit](0)
		test.That(t, OverlapAABB(OverlapAABBInput{AABB: box, Filter: DefaultFilter}, compound, moved, c), test.ShouldBeFalse)
		shifted := spatialmath.AABB{Min: box.Min.Add(r3.Vector{X: 10}), Max: box.Max.Add(r3.Vector{X: 10})}
		test.That(t, OverlapAABB(OverlapAABBInput{AABB: shifted, Filter: DefaultFilter}, compound, moved, c), test.ShouldBeTrue)
	})
}

func TestCalculateDistance(t *testing.T) {
	sphere := makeSphere(t, 0.5)
	ctx := NewQueryContext(spatialmath.NewIdentityTransform(), 0, EntityNull)

	t.Run("spheres", func(t *testing.T) {
		target := makeSphere(t, 1)
		c := NewClosestHitCollector[DistanceHit](noLimit)
		test.That(t, CalculateDistance(ColliderDistanceInput{Collider: makeSphere(t, 1), Transform: translation(1.5, 0, 0)}, target, ctx, c), test.ShouldBeTrue)
		hit, _ := c.Hit()
		test.That(t, hit.Distance, test.ShouldAlmostEqual, -0.5, 1e-12)
		assertVector(t, hit.Position, r3.Vector{X: 1}, 1e-12)
		assertVector(t, hit.SurfaceNormal, r3.Vector{X: 1}, 1e-12)
		assertVector(t, hit.QueryPosition(), r3.Vector{X: 0.5}, 1e-12)
	})

	t.Run("compound target", func(t *testing.T) {
		compound := twoSphereCompound(t, 2)
		all := NewAllHitsCollector[DistanceHit](noLimit)
		CalculateDistance(ColliderDistanceInput{Collider: sphere, Transform: spatialmath.NewIdentityTransform()}, compound, ctx, all)
		test.That(t, all.NumHits(), test.ShouldEqual, 2)
		for _, hit := range all.Hits() {
			test.That(t, hit.Distance, test.ShouldAlmostEqual, 1, 1e-12)
			test.That(t, hit.QueryColliderKey, test.ShouldEqual, ColliderKeyEmpty)
		}

		bounded := NewAllHitsCollector[DistanceHit](0.5)
		test.That(t, CalculateDistance(ColliderDistanceInput{Collider: sphere, Transform: spatialmath.NewIdentityTransform()}, compound, ctx, bounded), test.ShouldBeFalse)

		closest := NewClosestHitCollector[DistanceHit](noLimit)
		CalculateDistance(ColliderDistanceInput{Collider: sphere, Transform: translation(-0.5, 0, 0)}, compound, ctx, closest)
		hit, _ := closest.Hit()
		test.That(t, hit.Distance, test.ShouldAlmostEqual, 0.5, 1e-12)
		test.That(t, hit.ColliderKey, test.ShouldEqual, childKey(compound, 0))
		assertVector(t, hit.Position, r3.Vector{X: -1.5}, 1e-12)
		assertVector(t, hit.SurfaceNormal, r3.Vector{X: 1}, 1e-12)
	})

	t.Run("compound query", func(t *testing.T) {
		query := makeCompound(t,
			CompoundChild{Transform: translation(0, -1, 0), Collider: sphere},
			CompoundChild{Transform: translation(0, 1, 0), Collider: sphere},
		)
		target := makeSphere(t, 0.5)
		bodyCtx := NewQueryContext(spatialmath.NewIdentityTransform(), 6, 2)
		c := NewClosestHitCollector[DistanceHit](noLimit)
		CalculateDistance(ColliderDistanceInput{Collider: query, Transform: translation(0, 5, 0)}, target, bodyCtx, c)
		hit, ok := c.Hit()
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.Distance, test.ShouldAlmostEqual, 3, 1e-12)
		assertVector(t, hit.Position, r3.Vector{Y: 0.5}, 1e-12)
		assertVector(t, hit.SurfaceNormal, r3.Vector{Y: 1}, 1e-12)
		test.That(t, hit.ColliderKey, test.ShouldEqual, ColliderKeyEmpty)
		test.That(t, hit.QueryColliderKey, test.ShouldEqual, childKey(query, 0))
		test.That(t, hit.RigidBodyIndex, test.ShouldEqual, 6)
		test.That(t, hit.Entity, test.ShouldEqual, Entity(2))
	})

	t.Run("scaled target", func(t *testing.T) {
		scaled := NewQueryContext(translation(0, 0, 0).WithScale(3), 0, EntityNull)
		c := NewClosestHitCollector[DistanceHit](noLimit)
		CalculateDistance(ColliderDistanceInput{Collider: sphere, Transform: translation(5, 0, 0)}, sphere, scaled, c)
		hit, _ := c.Hit()
		test.That(t, hit.Distance, test.ShouldAlmostEqual, 3, 1e-12)
		assertVector(t, hit.Position, r3.Vector{X: 1.5}, 1e-12)
	})

	t.Run("filtered out", func(t *testing.T) {
		noisy, err := NewSphereCollider(r3.Vector{}, 0.5, Filter{BelongsTo: 2, CollidesWith: 2}, DefaultMaterial)
		test.That(t, err, test.ShouldBeNil)
		other, err := NewSphereCollider(r3.Vector{}, 0.5, Filter{BelongsTo: 1, CollidesWith: 1}, DefaultMaterial)
		test.That(t, err, test.ShouldBeNil)
		c := NewClosestHitCollector[DistanceHit](noLimit)
		test.That(t, CalculateDistance(ColliderDistanceInput{Collider: noisy, Transform: translation(2, 0, 0)}, other, ctx, c), test.ShouldBeFalse)
	})
}

func TestPointDistance(t *testing.T) {
	box := makeBox(t, r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})
	ctx := NewQueryContext(spatialmath.NewIdentityTransform(), 0, EntityNull)

	c := NewClosestHitCollector[DistanceHit](noLimit)
	test.That(t, PointDistance(PointDistanceInput{Position: r3.Vector{X: 2}, Filter: DefaultFilter}, box, ctx, c), test.ShouldBeTrue)
	hit, _ := c.Hit()
	test.That(t, hit.Distance, test.ShouldAlmostEqual, 1.5, 1e-12)
	assertVector(t, hit.Position, r3.Vector{X: 0.5}, 1e-12)
	assertVector(t, hit.SurfaceNormal, r3.Vector{X: 1}, 1e-12)

	c = NewClosestHitCollector[DistanceHit](noLimit)
	PointDistance(PointDistanceInput{Position: r3.Vector{X: 0.25}, Filter: DefaultFilter}, box, ctx, c)
	hit, _ = c.Hit()
	test.That(t, hit.Distance, test.ShouldAlmostEqual, -0.25, 1e-12)
	assertVector(t, hit.Position, r3.Vector{X: 0.5}, 1e-12)

	bounded := NewClosestHitCollector[DistanceHit](1)
	test.That(t, PointDistance(PointDistanceInput{Position: r3.Vector{X: 2}, Filter: DefaultFilter}, box, ctx, bounded), test.ShouldBeFalse)
}

func TestMeshQueries(t *testing.T) {
	verts := []r3.Vector{{}, {X: 2}, {X: 2, Y: 2}, {Y: 2}}
	mesh, err := NewTriangleMeshCollider(verts, [][3]int{{0, 1, 2}, {0, 2, 3}}, DefaultFilter, DefaultMaterial)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mesh.NumPrimitives(), test.ShouldEqual, 2)
	test.That(t, mesh.NumColliderKeyBits(), test.ShouldEqual, 2)
	ctx := NewQueryContext(spatialmath.NewIdentityTransform(), 0, EntityNull)

	t.Run("raycast", func(t *testing.T) {
		hit, ok := castClosest(t, RaycastInput{Start: r3.Vector{X: 1.5, Y: 0.5, Z: 5}, End: r3.Vector{X: 1.5, Y: 0.5, Z: -5}, Filter: DefaultFilter}, mesh, ctx)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.Fraction, test.ShouldAlmostEqual, 0.5, 1e-12)
		assertVector(t, hit.SurfaceNormal, r3.Vector{Z: 1}, 1e-12)
		test.That(t, hit.ColliderKey, test.ShouldEqual, childKey(mesh, 0))

		hit, ok = castClosest(t, RaycastInput{Start: r3.Vector{X: 0.5, Y: 1.5, Z: 5}, End: r3.Vector{X: 0.5, Y: 1.5, Z: -5}, Filter: DefaultFilter}, mesh, ctx)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.ColliderKey, test.ShouldEqual, childKey(mesh, 1))

		leaf, _, ok := LeafByKey(mesh, hit.ColliderKey)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, leaf.(*PolygonCollider).IsTriangle(), test.ShouldBeTrue)
	})

	t.Run("distance", func(t *testing.T) {
		c := NewClosestHitCollector[DistanceHit](noLimit)
		CalculateDistance(ColliderDistanceInput{Collider: makeSphere(t, 0.5), Transform: translation(1, 1, 2)}, mesh, ctx, c)
		hit, ok := c.Hit()
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.Distance, test.ShouldAlmostEqual, 1.5, 1e-9)
		assertVector(t, hit.SurfaceNormal, r3.Vector{Z: 1}, 1e-9)
	})

	t.Run("bad primitives", func(t *testing.T) {
		_, err := NewTriangleMeshCollider(verts, [][3]int{{0, 1, 7}}, DefaultFilter, DefaultMaterial)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = NewTriangleMeshCollider(verts, [][3]int{{0, 1, 1}}, DefaultFilter, DefaultMaterial)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = NewTriangleMeshCollider(verts, nil, DefaultFilter, DefaultMaterial)
		test.That(t, err, test.ShouldNotBeNil)
	})
}
