package utils

import (
	"github.com/pkg/errors"
)

// NewOutOfRangeError is used when an index or count falls outside its allowed range.
func NewOutOfRangeError(name string, value, limit int) error {
	return errors.Errorf("%s %d out of range (limit %d)", name, value, limit)
}
