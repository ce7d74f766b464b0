package collision

import (
	"fmt"
)

// colliderKeyBits is the fixed width of a ColliderKey.
const colliderKeyBits = 32

// ColliderKey addresses a leaf inside nested composite colliders. Sub-keys are packed
// most significant first and the unused low bits are all ones.
type ColliderKey uint32

// ColliderKeyEmpty addresses the root collider itself.
const ColliderKeyEmpty ColliderKey = ^ColliderKey(0)

// IsEmpty reports whether the key addresses the root collider.
func (k ColliderKey) IsEmpty() bool {
	return k == ColliderKeyEmpty
}

// PopSubKey reads the top numBits of the key and returns them along with the key that
// remains for the child. ok is false if numBits is out of range.
func (k ColliderKey) PopSubKey(numBits int) (subKey uint32, rest ColliderKey, ok bool) {
	if numBits <= 0 || numBits > colliderKeyBits {
		return 0, k, false
	}
	subKey = uint32(k) >> (colliderKeyBits - numBits)
	if numBits == colliderKeyBits {
		return subKey, ColliderKeyEmpty, true
	}
	rest = ColliderKey(uint32(k)<<numBits | (uint32(1)<<numBits - 1))
	return subKey, rest, true
}

func (k ColliderKey) String() string {
	if k.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%#08x", uint32(k))
}

// ColliderKeyPath builds a ColliderKey while descending into composites. Push before
// recursing into a child and Pop after returning; depth-matched pairs are lossless.
type ColliderKeyPath struct {
	key     uint64
	numBits int
}

// NewColliderKeyPath starts a path from an existing key prefix of numBits bits.
func NewColliderKeyPath(key ColliderKey, numBits int) ColliderKeyPath {
	if numBits <= 0 {
		return ColliderKeyPath{}
	}
	return ColliderKeyPath{key: uint64(uint32(key) >> (colliderKeyBits - numBits)), numBits: numBits}
}

// Push appends subKey using numBits bits.
func (p *ColliderKeyPath) Push(numBits int, subKey uint32) {
	p.key = p.key<<uint(numBits) | uint64(subKey&(uint32(1)<<uint(numBits)-1))
	p.numBits += numBits
}

// Pop removes the last numBits bits pushed.
func (p *ColliderKeyPath) Pop(numBits int) {
	p.key >>= uint(numBits)
	p.numBits -= numBits
}

// NumBits returns how many bits have been pushed.
func (p ColliderKeyPath) NumBits() int {
	return p.numBits
}

// Key returns the packed ColliderKey for the current path.
func (p ColliderKeyPath) Key() ColliderKey {
	if p.numBits == 0 {
		return ColliderKeyEmpty
	}
	shift := uint(colliderKeyBits - p.numBits)
	return ColliderKey(uint32(p.key<<shift) | uint32(uint64(1)<<shift-1))
}

// ColliderKeyPair holds the keys of both leaves in a contact.
type ColliderKeyPair struct {
	ColliderKeyA ColliderKey
	ColliderKeyB ColliderKey
}
