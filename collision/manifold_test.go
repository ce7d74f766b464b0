package collision

import (
	"fmt"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/narrowphase/spatialmath"
	"go.viam.com/narrowphase/utils"
)

func collectManifolds(a, b Body, maxDistance float64) []Manifold {
	var out []Manifold
	GenerateManifolds(a, b, maxDistance, func(m *Manifold) {
		out = append(out, *m)
	})
	return out
}

func unitBox(t *testing.T) *BoxCollider {
	t.Helper()
	return makeBox(t, r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})
}

func TestBoxBoxManifold(t *testing.T) {
	a := Body{Collider: unitBox(t), Transform: spatialmath.NewIdentityTransform(), Index: 0}
	b := Body{Collider: unitBox(t), Transform: translation(0.8, 0, 0), Index: 1}

	manifolds := collectManifolds(a, b, 0.01)
	test.That(t, len(manifolds), test.ShouldEqual, 1)
	m := manifolds[0]
	test.That(t, m.NumContacts(), test.ShouldEqual, 4)
	assertVector(t, m.Normal, r3.Vector{X: 1}, 1e-9)
	test.That(t, m.BodyPair, test.ShouldResemble, BodyIndexPair{BodyIndexA: 0, BodyIndexB: 1})
	test.That(t, m.ColliderKeys, test.ShouldResemble, ColliderKeyPair{ColliderKeyA: ColliderKeyEmpty, ColliderKeyB: ColliderKeyEmpty})
	test.That(t, m.Friction, test.ShouldAlmostEqual, 0.5, 1e-12)
	for _, c := range m.Contacts() {
		test.That(t, c.Distance, test.ShouldAlmostEqual, -0.2, 1e-9)
		test.That(t, c.Position.X, test.ShouldAlmostEqual, 0.3, 1e-9)
		test.That(t, c.Position.Sub(m.Normal.Mul(c.Distance)).X, test.ShouldAlmostEqual, 0.5, 1e-9)
		test.That(t, math.Abs(c.Position.Y), test.ShouldAlmostEqual, 0.5, 1e-9)
		test.That(t, math.Abs(c.Position.Z), test.ShouldAlmostEqual, 0.5, 1e-9)
	}

	t.Run("flip", func(t *testing.T) {
		flipped := m
		flipped.Flip()
		assertVector(t, flipped.Normal, r3.Vector{X: -1}, 1e-9)
		test.That(t, flipped.BodyPair, test.ShouldResemble, BodyIndexPair{BodyIndexA: 1, BodyIndexB: 0})
		for _, c := range flipped.Contacts() {
			test.That(t, c.Distance, test.ShouldAlmostEqual, -0.2, 1e-9)
			test.That(t, c.Position.X, test.ShouldAlmostEqual, 0.5, 1e-9)
		}
	})

	t.Run("reversed roles", func(t *testing.T) {
		reversed := collectManifolds(b, a, 0.01)
		test.That(t, len(reversed), test.ShouldEqual, 1)
		test.That(t, reversed[0].NumContacts(), test.ShouldEqual, 4)
		assertVector(t, reversed[0].Normal, r3.Vector{X: -1}, 1e-9)
		test.That(t, reversed[0].BodyPair, test.ShouldResemble, BodyIndexPair{BodyIndexA: 1, BodyIndexB: 0})
		for _, c := range reversed[0].Contacts() {
			test.That(t, c.Distance, test.ShouldAlmostEqual, -0.2, 1e-9)
			test.That(t, c.Position.X, test.ShouldAlmostEqual, 0.5, 1e-9)
		}
	})

	t.Run("moved together", func(t *testing.T) {
		tf := spatialmath.NewTransform(r3.Vector{X: 10, Y: -3, Z: 2}, spatialmath.NewRotationFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2))
		moved := collectManifolds(
			Body{Collider: a.Collider, Transform: tf.Compose(a.Transform)},
			Body{Collider: b.Collider, Transform: tf.Compose(b.Transform)},
			0.01,
		)
		test.That(t, len(moved), test.ShouldEqual, 1)
		test.That(t, moved[0].NumContacts(), test.ShouldBeGreaterThanOrEqualTo, 4)
		assertVector(t, moved[0].Normal, tf.ApplyNormal(r3.Vector{X: 1}), 1e-9)
		for _, c := range moved[0].Contacts() {
			test.That(t, c.Distance, test.ShouldAlmostEqual, -0.2, 1e-9)
			local := tf.InverseApply(c.Position)
			test.That(t, local.X, test.ShouldAlmostEqual, 0.3, 1e-9)
		}
	})

	t.Run("too far", func(t *testing.T) {
		far := Body{Collider: unitBox(t), Transform: translation(1.5, 0, 0), Index: 1}
		test.That(t, collectManifolds(a, far, 0.4), test.ShouldBeEmpty)
		test.That(t, collectManifolds(a, far, 0.6), test.ShouldHaveLength, 1)
	})
}

func TestConvexManifolds(t *testing.T) {
	ground := Body{Collider: unitBox(t), Transform: spatialmath.NewIdentityTransform(), Index: 0}

	t.Run("sphere on box", func(t *testing.T) {
		sphere := Body{Collider: makeSphere(t, 0.5), Transform: translation(0, 0, 1.2), Index: 1}
		manifolds := collectManifolds(ground, sphere, 0.5)
		test.That(t, len(manifolds), test.ShouldEqual, 1)
		m := manifolds[0]
		test.That(t, m.NumContacts(), test.ShouldEqual, 1)
		assertVector(t, m.Normal, r3.Vector{Z: 1}, 1e-9)
		test.That(t, m.Contacts()[0].Distance, test.ShouldAlmostEqual, 0.2, 1e-9)
		assertVector(t, m.Contacts()[0].Position, r3.Vector{Z: 0.7}, 1e-9)

		test.That(t, collectManifolds(ground, sphere, 0.1), test.ShouldBeEmpty)
	})

	t.Run("capsule lying on box", func(t *testing.T) {
		capsule := Body{Collider: makeCapsule(t, r3.Vector{X: -0.5}, r3.Vector{X: 0.5}, 0.25), Transform: translation(0, 0, 0.8), Index: 1}
		manifolds := collectManifolds(ground, capsule, 0.1)
		test.That(t, len(manifolds), test.ShouldEqual, 1)
		m := manifolds[0]
		assertVector(t, m.Normal, r3.Vector{Z: 1}, 1e-6)
		test.That(t, m.NumContacts(), test.ShouldEqual, 2)
		xs := []float64{}
		for _, c := range m.Contacts() {
			test.That(t, c.Distance, test.ShouldAlmostEqual, 0.05, 1e-6)
			test.That(t, c.Position.Z, test.ShouldAlmostEqual, 0.55, 1e-6)
			xs = append(xs, c.Position.X)
		}
		test.That(t, math.Abs(xs[0]-xs[1]), test.ShouldAlmostEqual, 1, 1e-6)
	})

	t.Run("segment past the face edge", func(t *testing.T) {
		capsule := Body{Collider: makeCapsule(t, r3.Vector{X: 0.7}, r3.Vector{X: 1.7}, 0.25), Transform: translation(0, 0, 0.6), Index: 1}
		manifolds := collectManifolds(ground, capsule, 0.1)
		test.That(t, len(manifolds), test.ShouldEqual, 1)
		m := manifolds[0]
		test.That(t, m.NumContacts(), test.ShouldEqual, 1)
		test.That(t, m.Contacts()[0].Distance, test.ShouldAlmostEqual, math.Sqrt(0.05)-0.25, 1e-6)
		assertVector(t, m.Normal, r3.Vector{X: 0.2, Z: 0.1}.Normalize(), 1e-6)
	})

	t.Run("parallel capsules", func(t *testing.T) {
		a := Body{Collider: makeCapsule(t, r3.Vector{X: -1}, r3.Vector{X: 1}, 0.25), Transform: spatialmath.NewIdentityTransform()}
		b := Body{Collider: makeCapsule(t, r3.Vector{}, r3.Vector{X: 2}, 0.25), Transform: translation(0, 0, 0.4), Index: 1}
		manifolds := collectManifolds(a, b, 0.1)
		test.That(t, len(manifolds), test.ShouldEqual, 1)
		m := manifolds[0]
		assertVector(t, m.Normal, r3.Vector{Z: 1}, 1e-9)
		test.That(t, m.NumContacts(), test.ShouldEqual, 2)
		for _, c := range m.Contacts() {
			test.That(t, c.Distance, test.ShouldAlmostEqual, -0.1, 1e-9)
			test.That(t, c.Position.Z, test.ShouldAlmostEqual, 0.15, 1e-9)
		}
		test.That(t, m.Contacts()[0].Position.X+m.Contacts()[1].Position.X, test.ShouldAlmostEqual, 1, 1e-9)
	})

	t.Run("tilted box keeps the closest point", func(t *testing.T) {
		tilt := spatialmath.NewRotationFromAxisAngle(r3.Vector{Y: 1}, math.Pi/6)
		lowest := 0.5*math.Cos(math.Pi/6) + 0.5*math.Sin(math.Pi/6)
		box := Body{Collider: unitBox(t), Transform: spatialmath.NewTransform(r3.Vector{Z: 0.55 + lowest}, tilt), Index: 1}
		manifolds := collectManifolds(ground, box, 1)
		test.That(t, len(manifolds), test.ShouldEqual, 1)
		m := manifolds[0]
		assertVector(t, m.Normal, r3.Vector{Z: 1}, 1e-6)
		closest := math.Inf(1)
		for _, c := range m.Contacts() {
			test.That(t, c.Distance, test.ShouldBeGreaterThanOrEqualTo, 0.05-1e-6)
			test.That(t, c.Position.Sub(m.Normal.Mul(c.Distance)).Z, test.ShouldAlmostEqual, 0.5, 1e-6)
			closest = math.Min(closest, c.Distance)
		}
		test.That(t, closest, test.ShouldAlmostEqual, 0.05, 1e-6)
	})

	t.Run("no response", func(t *testing.T) {
		ghost, err := NewSphereCollider(r3.Vector{}, 0.5, DefaultFilter, Material{CollisionResponse: ResponseNone})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, collectManifolds(ground, Body{Collider: ghost, Transform: translation(0, 0, 1)}, 0.1), test.ShouldBeEmpty)
	})

	t.Run("filtered", func(t *testing.T) {
		other, err := NewSphereCollider(r3.Vector{}, 0.5, Filter{BelongsTo: 1, CollidesWith: 2}, DefaultMaterial)
		test.That(t, err, test.ShouldBeNil)
		lonely, err := NewSphereCollider(r3.Vector{}, 0.5, Filter{BelongsTo: 1, CollidesWith: 2}, DefaultMaterial)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, collectManifolds(
			Body{Collider: other, Transform: spatialmath.NewIdentityTransform()},
			Body{Collider: lonely, Transform: translation(0, 0, 0.5)},
			0.1,
		), test.ShouldBeEmpty)
	})
}

func TestManifoldReferenceFaceSweep(t *testing.T) {
	quad, err := NewQuadCollider(
		r3.Vector{X: -0.3, Y: -0.5}, r3.Vector{X: 0.3, Y: -0.5}, r3.Vector{X: 0.3, Y: 0.5}, r3.Vector{X: -0.3, Y: 0.5},
		DefaultFilter, DefaultMaterial,
	)
	test.That(t, err, test.ShouldBeNil)
	ground := Body{Collider: unitBox(t), Transform: spatialmath.NewIdentityTransform(), Index: 1}

	// A nearly vertical quad stands on its lower edge 0.05 above the box. Tilting it by
	// beta makes its face cosine against the contact normal sin(beta), which crosses
	// manifoldFaceCosine near 2.87 degrees.
	for deg := 0.5; deg <= 8; deg += 0.5 {
		beta := utils.DegToRad(deg)
		t.Run(fmt.Sprintf("tilt %.1f", deg), func(t *testing.T) {
			rot := spatialmath.NewRotationFromAxisAngle(r3.Vector{X: 1}, math.Pi/2-beta)
			center := r3.Vector{Y: 0.5 * math.Sin(beta), Z: 0.55 + 0.5*math.Cos(beta)}
			placed := spatialmath.NewTransform(center, rot)
			standing := Body{Collider: quad, Transform: placed, Index: 0}

			res, err := ConvexDistance(quad, placed, ground.Collider, ground.Transform)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, res.Distance, test.ShouldAlmostEqual, 0.05, 1e-6)

			manifolds := collectManifolds(standing, ground, 0.1)
			test.That(t, len(manifolds), test.ShouldEqual, 1)
			m := manifolds[0]
			test.That(t, m.Normal.Norm(), test.ShouldAlmostEqual, 1, 1e-9)
			assertVector(t, m.Normal, r3.Vector{Z: -1}, 1e-6)

			quadNormal := rot.Mul(r3.Vector{Z: 1})
			closest := false
			for _, c := range m.Contacts() {
				test.That(t, c.Distance, test.ShouldBeGreaterThanOrEqualTo, res.Distance-1e-6)
				test.That(t, c.Distance, test.ShouldBeLessThan, 0.1)
				if math.Abs(c.Distance-res.Distance) <= manifoldGuardTolerance {
					closest = true
				}
				// B side on the box top, A side in the quad plane.
				test.That(t, c.Position.Z, test.ShouldAlmostEqual, 0.5, 1e-6)
				onA := c.Position.Sub(m.Normal.Mul(c.Distance))
				test.That(t, quadNormal.Dot(onA.Sub(center)), test.ShouldAlmostEqual, 0, 1e-6)
			}
			test.That(t, closest, test.ShouldBeTrue)

			if math.Sin(beta) < manifoldFaceCosine {
				// Box face is the reference: both lower corners of the quad.
				test.That(t, m.NumContacts(), test.ShouldEqual, 2)
			} else {
				// Quad face is the reference and clips nothing near, so only the closest point remains.
				test.That(t, m.NumContacts(), test.ShouldEqual, 1)
			}
		})
	}
}

func TestManifoldMaterials(t *testing.T) {
	matA := Material{Friction: 0.2, FrictionCombine: CombineMaximum, CollisionResponse: ResponseTrigger, CustomTags: 2}
	matB := Material{Friction: 0.8, Restitution: 0.4, Flags: FlagEnableSurfaceVelocity}
	a, err := NewSphereCollider(r3.Vector{}, 0.5, DefaultFilter, matA)
	test.That(t, err, test.ShouldBeNil)
	b, err := NewSphereCollider(r3.Vector{}, 0.5, DefaultFilter, matB)
	test.That(t, err, test.ShouldBeNil)

	manifolds := collectManifolds(
		Body{Collider: a, Transform: spatialmath.NewIdentityTransform(), Index: 3, CustomTags: 1},
		Body{Collider: b, Transform: translation(0.9, 0, 0), Index: 4, CustomTags: 8},
		0,
	)
	test.That(t, len(manifolds), test.ShouldEqual, 1)
	m := manifolds[0]
	test.That(t, m.Friction, test.ShouldAlmostEqual, 0.8, 1e-12)
	test.That(t, m.Restitution, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, m.Flags, test.ShouldEqual, ContactFlagTrigger|ContactFlagEnableSurfaceVelocity)
	test.That(t, m.CustomTags, test.ShouldResemble, CustomTagsPair{CustomTagsA: 3, CustomTagsB: 8})
	test.That(t, m.BodyPair, test.ShouldResemble, BodyIndexPair{BodyIndexA: 3, BodyIndexB: 4})
}

func TestCombinePolicies(t *testing.T) {
	for _, tc := range []struct {
		policy CombinePolicy
		want   float64
	}{
		{CombineGeometricMean, 0.4},
		{CombineMinimum, 0.2},
		{CombineMaximum, 0.8},
		{CombineArithmeticMean, 0.5},
	} {
		a := Material{Friction: 0.2, FrictionCombine: tc.policy}
		b := Material{Friction: 0.8}
		test.That(t, CombineFriction(a, b), test.ShouldAlmostEqual, tc.want, 1e-12)
		test.That(t, CombineFriction(b, a), test.ShouldAlmostEqual, tc.want, 1e-12)
	}

	policy, err := ParseCombinePolicy("max")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, policy, test.ShouldEqual, CombineMaximum)
	_, err = ParseCombinePolicy("median")
	test.That(t, err, test.ShouldNotBeNil)
	response, err := ParseCollisionResponse("trigger")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, response.String(), test.ShouldEqual, "trigger")
}

func TestCompoundManifolds(t *testing.T) {
	box := unitBox(t)
	pair := makeCompound(t,
		CompoundChild{Transform: translation(-2, 0, 0), Collider: box},
		CompoundChild{Transform: translation(2, 0, 0), Collider: box},
	)
	floor := makeBox(t, r3.Vector{X: 5, Y: 5, Z: 0.5})
	manifolds := collectManifolds(
		Body{Collider: pair, Transform: translation(0, 0, 1.05), Index: 0},
		Body{Collider: floor, Transform: spatialmath.NewIdentityTransform(), Index: 1},
		0.1,
	)
	test.That(t, len(manifolds), test.ShouldEqual, 2)
	keys := map[ColliderKey]bool{}
	for _, m := range manifolds {
		assertVector(t, m.Normal, r3.Vector{Z: -1}, 1e-9)
		test.That(t, m.NumContacts(), test.ShouldBeGreaterThanOrEqualTo, 4)
		test.That(t, m.ColliderKeys.ColliderKeyB, test.ShouldEqual, ColliderKeyEmpty)
		keys[m.ColliderKeys.ColliderKeyA] = true
		for _, c := range m.Contacts() {
			test.That(t, c.Distance, test.ShouldAlmostEqual, 0.05, 1e-9)
			test.That(t, c.Position.Z, test.ShouldAlmostEqual, 0.5, 1e-9)
		}
	}
	test.That(t, keys[childKey(pair, 0)], test.ShouldBeTrue)
	test.That(t, keys[childKey(pair, 1)], test.ShouldBeTrue)
}

func TestManifoldCapacity(t *testing.T) {
	var m Manifold
	for i := 0; i < MaxContacts; i++ {
		test.That(t, m.Add(ContactPoint{Distance: float64(i)}), test.ShouldBeTrue)
	}
	test.That(t, m.Add(ContactPoint{}), test.ShouldBeFalse)
	test.That(t, m.NumContacts(), test.ShouldEqual, MaxContacts)
	test.That(t, m.Contacts()[MaxContacts-1].Distance, test.ShouldEqual, float64(MaxContacts-1))
}
