package graph

import (
	"maps"
	"slices"
)

// Set is a set of node IDs. The zero value is an empty, read-only set; use
// NewSet or make(Set) before calling Add.
type Set map[string]struct{}

// NewSet returns a set containing ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into the set.
func (s Set) Add(id string) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of IDs in the set.
func (s Set) Len() int { return len(s) }

// Union adds every ID of other to s and returns s.
func (s Set) Union(other Set) Set {
	for id := range other {
		s[id] = struct{}{}
	}
	return s
}

// Sorted returns the IDs in ascending order.
func (s Set) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Equal reports whether both sets contain the same IDs.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}
