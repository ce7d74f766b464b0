// Package spatialmath defines the vector, rotation and transform math the collision queries run on.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 rotation stored row-major. Its columns are the rotated basis vectors,
// so Mul takes a vector from the rotated (local) frame into the parent frame.
type RotationMatrix struct {
	mat [9]float64
}

// NewIdentityRotation returns the rotation which signifies no rotation.
func NewIdentityRotation() RotationMatrix {
	return RotationMatrix{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// NewRotationMatrixFromColumns builds a rotation from three orthonormal basis vectors.
// No orthonormality check is performed.
func NewRotationMatrixFromColumns(x, y, z r3.Vector) RotationMatrix {
	return RotationMatrix{[9]float64{
		x.X, y.X, z.X,
		x.Y, y.Y, z.Y,
		x.Z, y.Z, z.Z,
	}}
}

// NewRotationFromAxisAngle returns a rotation of theta radians about axis.
func NewRotationFromAxisAngle(axis r3.Vector, theta float64) RotationMatrix {
	return (&R4AA{Theta: theta, RX: axis.X, RY: axis.Y, RZ: axis.Z}).RotationMatrix()
}

// QuatToRotationMatrix converts a quaternion into a rotation matrix. The quaternion is normalized first.
// https://en.wikipedia.org/wiki/Quaternions_and_spatial_rotation#Quaternion-derived_rotation_matrix
func QuatToRotationMatrix(q quat.Number) RotationMatrix {
	n := quat.Abs(q)
	if n == 0 {
		return NewIdentityRotation()
	}
	q = quat.Scale(1/n, q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return RotationMatrix{[9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	}}
}

// Quaternion returns the unit quaternion equivalent to this rotation.
// Reference: http://www.euclideanspace.com/maths/geometry/rotations/conversions/matrixToQuaternion/
func (rm RotationMatrix) Quaternion() quat.Number {
	m := rm.mat
	trace := m[0] + m[4] + m[8]
	var q quat.Number
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{Real: 0.25 / s, Imag: (m[7] - m[5]) * s, Jmag: (m[2] - m[6]) * s, Kmag: (m[3] - m[1]) * s}
	case m[0] > m[4] && m[0] > m[8]:
		s := 2 * math.Sqrt(1+m[0]-m[4]-m[8])
		q = quat.Number{Real: (m[7] - m[5]) / s, Imag: 0.25 * s, Jmag: (m[1] + m[3]) / s, Kmag: (m[2] + m[6]) / s}
	case m[4] > m[8]:
		s := 2 * math.Sqrt(1+m[4]-m[0]-m[8])
		q = quat.Number{Real: (m[2] - m[6]) / s, Imag: (m[1] + m[3]) / s, Jmag: 0.25 * s, Kmag: (m[5] + m[7]) / s}
	default:
		s := 2 * math.Sqrt(1+m[8]-m[0]-m[4])
		q = quat.Number{Real: (m[3] - m[1]) / s, Imag: (m[2] + m[6]) / s, Jmag: (m[5] + m[7]) / s, Kmag: 0.25 * s}
	}
	return quat.Scale(1/quat.Abs(q), q)
}

// Row returns the row of the matrix at the given index.
func (rm RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns the column of the matrix at the given index, i.e. the rotated basis vector.
func (rm RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[col+3], Z: rm.mat[col+6]}
}

// At returns the element at the given row and column.
func (rm RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Mul rotates v.
func (rm RotationMatrix) Mul(v r3.Vector) r3.Vector {
	m := rm.mat
	return r3.Vector{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// TransposeMul rotates v by the inverse rotation.
func (rm RotationMatrix) TransposeMul(v r3.Vector) r3.Vector {
	m := rm.mat
	return r3.Vector{
		X: m[0]*v.X + m[3]*v.Y + m[6]*v.Z,
		Y: m[1]*v.X + m[4]*v.Y + m[7]*v.Z,
		Z: m[2]*v.X + m[5]*v.Y + m[8]*v.Z,
	}
}

// Transpose returns the inverse rotation.
func (rm RotationMatrix) Transpose() RotationMatrix {
	m := rm.mat
	return RotationMatrix{[9]float64{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}}
}

// Compose returns the rotation rm * other, which applies other first.
func (rm RotationMatrix) Compose(other RotationMatrix) RotationMatrix {
	var out RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.mat[3*i+j] = rm.mat[3*i]*other.mat[j] + rm.mat[3*i+1]*other.mat[3+j] + rm.mat[3*i+2]*other.mat[6+j]
		}
	}
	return out
}

// AbsMul multiplies v by the element-wise absolute value of the matrix. Used to rotate box extents.
func (rm RotationMatrix) AbsMul(v r3.Vector) r3.Vector {
	m := rm.mat
	return r3.Vector{
		X: math.Abs(m[0])*v.X + math.Abs(m[1])*v.Y + math.Abs(m[2])*v.Z,
		Y: math.Abs(m[3])*v.X + math.Abs(m[4])*v.Y + math.Abs(m[5])*v.Z,
		Z: math.Abs(m[6])*v.X + math.Abs(m[7])*v.Y + math.Abs(m[8])*v.Z,
	}
}

// RotationAlmostEqual compares two rotations element-wise within epsilon.
func RotationAlmostEqual(a, b RotationMatrix, epsilon float64) bool {
	for i := range a.mat {
		if math.Abs(a.mat[i]-b.mat[i]) > epsilon {
			return false
		}
	}
	return true
}
