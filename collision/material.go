package collision

import (
	"math"

	"github.com/pkg/errors"
)

// CollisionResponse describes what the solver should do with a contact.
type CollisionResponse uint8

const (
	// ResponseCollide produces solid contacts.
	ResponseCollide CollisionResponse = iota
	// ResponseTrigger reports overlap events without a physical response.
	ResponseTrigger
	// ResponseNone ignores the collider entirely for contact generation.
	ResponseNone
)

func (r CollisionResponse) String() string {
	switch r {
	case ResponseCollide:
		return "collide"
	case ResponseTrigger:
		return "trigger"
	case ResponseNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseCollisionResponse converts a config name into a CollisionResponse.
func ParseCollisionResponse(name string) (CollisionResponse, error) {
	switch name {
	case "", "collide":
		return ResponseCollide, nil
	case "trigger":
		return ResponseTrigger, nil
	case "none":
		return ResponseNone, nil
	}
	return ResponseCollide, errors.Errorf("unknown collision response %q", name)
}

// CombinePolicy chooses how the friction or restitution of two materials merge.
// When two materials disagree the higher-numbered policy wins.
type CombinePolicy uint8

const (
	// CombineGeometricMean is sqrt(a*b).
	CombineGeometricMean CombinePolicy = iota
	// CombineMinimum is min(a, b).
	CombineMinimum
	// CombineMaximum is max(a, b).
	CombineMaximum
	// CombineArithmeticMean is (a+b)/2.
	CombineArithmeticMean
)

// ParseCombinePolicy converts a config name into a CombinePolicy.
func ParseCombinePolicy(name string) (CombinePolicy, error) {
	switch name {
	case "", "geometric_mean":
		return CombineGeometricMean, nil
	case "min":
		return CombineMinimum, nil
	case "max":
		return CombineMaximum, nil
	case "arithmetic_mean":
		return CombineArithmeticMean, nil
	}
	return CombineGeometricMean, errors.Errorf("unknown combine policy %q", name)
}

// MaterialFlags toggle optional solver features for a collider.
type MaterialFlags uint8

const (
	// FlagEnableMassFactors lets the solver override inverse mass per contact.
	FlagEnableMassFactors MaterialFlags = 1 << iota
	// FlagEnableSurfaceVelocity lets the solver apply a surface velocity per contact.
	FlagEnableSurfaceVelocity
)

// Material holds the per-leaf surface properties read by contact generation.
type Material struct {
	CollisionResponse  CollisionResponse
	Friction           float64
	Restitution        float64
	FrictionCombine    CombinePolicy
	RestitutionCombine CombinePolicy
	Flags              MaterialFlags
	CustomTags         uint8
}

// DefaultMaterial is a solid surface with friction 0.5 and no bounce.
var DefaultMaterial = Material{Friction: 0.5}

// IsTrigger reports whether the material only raises events.
func (m Material) IsTrigger() bool {
	return m.CollisionResponse == ResponseTrigger
}

func combine(a, b float64, policy CombinePolicy) float64 {
	switch policy {
	case CombineMinimum:
		return math.Min(a, b)
	case CombineMaximum:
		return math.Max(a, b)
	case CombineArithmeticMean:
		return (a + b) / 2
	default:
		return math.Sqrt(a * b)
	}
}

// CombineFriction merges the friction of two materials.
func CombineFriction(a, b Material) float64 {
	return combine(a.Friction, b.Friction, combinePolicy(a.FrictionCombine, b.FrictionCombine))
}

// CombineRestitution merges the restitution of two materials.
func CombineRestitution(a, b Material) float64 {
	return combine(a.Restitution, b.Restitution, combinePolicy(a.RestitutionCombine, b.RestitutionCombine))
}

func combinePolicy(a, b CombinePolicy) CombinePolicy {
	if a > b {
		return a
	}
	return b
}
