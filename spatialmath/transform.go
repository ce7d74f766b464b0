package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Transform is a rigid transform with a uniform scale. A point p maps to Translation + Rotation*(Scale*p).
type Transform struct {
	Rotation    RotationMatrix
	Translation r3.Vector
	Scale       float64
}

// NewIdentityTransform returns the transform which leaves every point in place.
func NewIdentityTransform() Transform {
	return Transform{Rotation: NewIdentityRotation(), Scale: 1}
}

// NewTransform returns an unscaled transform with the given translation and rotation.
func NewTransform(translation r3.Vector, rotation RotationMatrix) Transform {
	return Transform{Rotation: rotation, Translation: translation, Scale: 1}
}

// NewTranslation returns an unscaled, unrotated transform.
func NewTranslation(translation r3.Vector) Transform {
	return NewTransform(translation, NewIdentityRotation())
}

// WithScale returns a copy of the transform with its scale replaced.
func (t Transform) WithScale(scale float64) Transform {
	t.Scale = scale
	return t
}

// Apply maps a point through the transform.
func (t Transform) Apply(p r3.Vector) r3.Vector {
	return t.Translation.Add(t.Rotation.Mul(p.Mul(t.Scale)))
}

// ApplyVector maps a displacement through the transform, ignoring translation.
func (t Transform) ApplyVector(v r3.Vector) r3.Vector {
	return t.Rotation.Mul(v.Mul(t.Scale))
}

// ApplyNormal rotates a direction. Uniform scale does not change directions.
func (t Transform) ApplyNormal(n r3.Vector) r3.Vector {
	return t.Rotation.Mul(n)
}

// InverseApply maps a point from the transform's parent frame back into its local frame.
func (t Transform) InverseApply(p r3.Vector) r3.Vector {
	return t.Rotation.TransposeMul(p.Sub(t.Translation)).Mul(1 / t.Scale)
}

// InverseApplyVector maps a displacement from the parent frame back into the local frame.
func (t Transform) InverseApplyVector(v r3.Vector) r3.Vector {
	return t.Rotation.TransposeMul(v).Mul(1 / t.Scale)
}

// Compose returns t * other, the transform that applies other first and then t.
func (t Transform) Compose(other Transform) Transform {
	return Transform{
		Rotation:    t.Rotation.Compose(other.Rotation),
		Translation: t.Apply(other.Translation),
		Scale:       t.Scale * other.Scale,
	}
}

// Inverse returns the transform that undoes t. The scale must be nonzero.
func (t Transform) Inverse() Transform {
	inv := t.Rotation.Transpose()
	s := 1 / t.Scale
	return Transform{
		Rotation:    inv,
		Translation: inv.Mul(t.Translation).Mul(-s),
		Scale:       s,
	}
}

// IsIdentity reports whether the transform leaves points unchanged.
func (t Transform) IsIdentity() bool {
	return TransformAlmostEqual(t, NewIdentityTransform(), floatEpsilon)
}

func (t Transform) String() string {
	return fmt.Sprintf("Transform{T:%v, Q:%v, S:%.4g}", t.Translation, t.Rotation.Quaternion(), t.Scale)
}

// TransformAlmostEqual compares two transforms within epsilon.
func TransformAlmostEqual(a, b Transform, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Translation, b.Translation, epsilon) &&
		RotationAlmostEqual(a.Rotation, b.Rotation, epsilon) &&
		math.Abs(a.Scale-b.Scale) <= epsilon
}
