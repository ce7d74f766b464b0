package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestNewOutOfRangeError(t *testing.T) {
	err := NewOutOfRangeError("key bits", 40, 32)
	test.That(t, err.Error(), test.ShouldEqual, "key bits 40 out of range (limit 32)")
}
