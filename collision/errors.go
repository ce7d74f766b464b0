package collision

import (
	"fmt"

	"github.com/pkg/errors"
)

// newCollisionTypeUnsupportedError is returned for collider pairs no routine handles.
func newCollisionTypeUnsupportedError(a, b Type) error {
	return errors.Errorf("collisions between %s and %s are not supported", a, b)
}

// newBadGeometryError is returned when a collider is constructed from invalid parameters.
func newBadGeometryError(t Type, format string, args ...interface{}) error {
	return errors.Errorf("invalid %s: %s", t, fmt.Sprintf(format, args...))
}

// newColliderKeyOverflowError is returned when a composite needs more key bits than a ColliderKey holds.
func newColliderKeyOverflowError(t Type, bits int) error {
	return errors.Errorf("%s needs %d collider key bits, at most %d are available", t, bits, colliderKeyBits)
}
