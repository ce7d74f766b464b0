package collision

import (
	"github.com/golang/geo/r3"
)

// BodyIndexPair identifies the two bodies of a manifold.
type BodyIndexPair struct {
	BodyIndexA int
	BodyIndexB int
}

// CustomTagsPair carries the custom tag bits of both sides of a manifold.
type CustomTagsPair struct {
	CustomTagsA uint8
	CustomTagsB uint8
}

// ContactFlags mark solver features requested by either material of a manifold.
type ContactFlags uint8

const (
	// ContactFlagTrigger is set when either side is a trigger.
	ContactFlagTrigger ContactFlags = 1 << iota
	// ContactFlagEnableMassFactors is set when either side enables mass factors.
	ContactFlagEnableMassFactors
	// ContactFlagEnableSurfaceVelocity is set when either side enables surface velocity.
	ContactFlagEnableSurfaceVelocity
)

func contactFlags(a, b Material) ContactFlags {
	var flags ContactFlags
	if a.IsTrigger() || b.IsTrigger() {
		flags |= ContactFlagTrigger
	}
	if (a.Flags|b.Flags)&FlagEnableMassFactors != 0 {
		flags |= ContactFlagEnableMassFactors
	}
	if (a.Flags|b.Flags)&FlagEnableSurfaceVelocity != 0 {
		flags |= ContactFlagEnableSurfaceVelocity
	}
	return flags
}

// ContactHeader precedes NumContacts ContactPoints in a ContactStream.
type ContactHeader struct {
	BodyPair     BodyIndexPair
	CustomTags   CustomTagsPair
	Flags        ContactFlags
	NumContacts  int
	Normal       r3.Vector
	Friction     float64
	Restitution  float64
	ColliderKeys ColliderKeyPair
}

type contactShard struct {
	headers  []ContactHeader
	contacts []ContactPoint
}

// ContactStream collects manifolds written by many workers. Each worker owns one shard and
// writes through its own ContactWriter, so writers never contend.
type ContactStream struct {
	shards []contactShard
}

// NewContactStream returns a stream with numShards shards, at least one.
func NewContactStream(numShards int) *ContactStream {
	if numShards < 1 {
		numShards = 1
	}
	return &ContactStream{shards: make([]contactShard, numShards)}
}

// NumShards returns the number of shards.
func (s *ContactStream) NumShards() int {
	return len(s.shards)
}

// Writer returns the writer for one shard. A writer must only be used by one goroutine.
func (s *ContactStream) Writer(shard int) *ContactWriter {
	return &ContactWriter{shard: &s.shards[shard]}
}

// NumManifolds returns the number of manifolds across every shard.
func (s *ContactStream) NumManifolds() int {
	n := 0
	for i := range s.shards {
		n += len(s.shards[i].headers)
	}
	return n
}

// ForEach visits every manifold, shard by shard, with its contacts in stream order.
// Returning false from fn stops the iteration. Only call it once writers are finished.
func (s *ContactStream) ForEach(fn func(ContactHeader, []ContactPoint) bool) {
	for i := range s.shards {
		shard := &s.shards[i]
		offset := 0
		for _, h := range shard.headers {
			if !fn(h, shard.contacts[offset:offset+h.NumContacts]) {
				return
			}
			offset += h.NumContacts
		}
	}
}

// ContactWriter appends manifolds to one shard of a ContactStream.
type ContactWriter struct {
	shard *contactShard
}

// Write appends a header and the manifold's contacts in grouped order.
func (w *ContactWriter) Write(m *Manifold) {
	n := m.NumContacts()
	if n == 0 {
		return
	}
	w.shard.headers = append(w.shard.headers, ContactHeader{
		BodyPair:     m.BodyPair,
		CustomTags:   m.CustomTags,
		Flags:        m.Flags,
		NumContacts:  n,
		Normal:       m.Normal,
		Friction:     m.Friction,
		Restitution:  m.Restitution,
		ColliderKeys: m.ColliderKeys,
	})
	contacts := m.Contacts()
	for _, i := range contactOrder(n) {
		w.shard.contacts = append(w.shard.contacts, contacts[i])
	}
}

// contactOrder interleaves n contacts into groups so that consecutive contacts are spread
// across the manifold: stride max(n/2, 1) below six contacts, ceil(n/3) from six up.
func contactOrder(n int) []int {
	stride := n / 2
	if n >= 6 {
		stride = (n + 2) / 3
	}
	if stride < 1 {
		stride = 1
	}
	order := make([]int, 0, n)
	for start := 0; start < stride; start++ {
		for i := start; i < n; i += stride {
			order = append(order, i)
		}
	}
	return order
}
