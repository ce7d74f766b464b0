// Package utils contains small numeric, error and parallelism helpers shared by the collision packages.
package utils

import (
	"math"
	"math/bits"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Clamp returns value bounded to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// MaxInt returns the larger of a and b.
func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// MinInt returns the smaller of a and b.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// IndexBits returns the number of bits needed to store the index n, never less than 1.
// Indices below n never set every bit.
func IndexBits(n int) int {
	if n < 1 {
		return 1
	}
	return bits.Len(uint(n))
}
