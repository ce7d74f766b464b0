package collision

// Filter decides which colliders may interact. Two filters interact when each one's
// BelongsTo overlaps the other's CollidesWith, unless a shared nonzero GroupIndex overrides it.
type Filter struct {
	BelongsTo    uint32 `json:"belongs_to"`
	CollidesWith uint32 `json:"collides_with"`
	GroupIndex   int32  `json:"group_index"`
}

// DefaultFilter collides with everything.
var DefaultFilter = Filter{BelongsTo: ^uint32(0), CollidesWith: ^uint32(0)}

// ZeroFilter collides with nothing.
var ZeroFilter = Filter{}

// IsEmpty reports whether the filter can never interact with anything.
func (f Filter) IsEmpty() bool {
	return f.BelongsTo == 0 || f.CollidesWith == 0
}

// Union returns a filter that interacts with anything either filter interacts with.
// Composite colliders report the union of their leaf filters.
func (f Filter) Union(other Filter) Filter {
	out := Filter{
		BelongsTo:    f.BelongsTo | other.BelongsTo,
		CollidesWith: f.CollidesWith | other.CollidesWith,
	}
	if f.GroupIndex == other.GroupIndex {
		out.GroupIndex = f.GroupIndex
	}
	return out
}

// IsCollisionEnabled is the symmetric interaction test between two filters.
// A shared positive group always collides, a shared negative group never does.
func IsCollisionEnabled(a, b Filter) bool {
	if a.GroupIndex > 0 && a.GroupIndex == b.GroupIndex {
		return true
	}
	if a.GroupIndex < 0 && a.GroupIndex == b.GroupIndex {
		return false
	}
	return a.BelongsTo&b.CollidesWith != 0 && b.BelongsTo&a.CollidesWith != 0
}
