// Package stringset implements a small case-insensitive set of string
// identifiers, used for playlist membership.
//
// A Set is a plain []string so it encodes as a JSON array. The empty set is
// always represented as nil: paired with `json:",omitempty"` the attribute
// disappears from the stored document instead of being written as [], which
// record stores with typed set attributes refuse.
//
// Comparison uses Unicode case folding (golang.org/x/text/cases) so that
// "V_ABC" and "v_abc" are the same member. The first spelling added is the
// one kept.
package stringset

import (
	"strings"

	"golang.org/x/text/cases"
)

// Set is an unordered, case-insensitively deduplicated collection.
// The zero value (nil) is the empty set.
type Set []string

// Fold returns the case-folded form of s used for membership comparison.
// A fresh Caser is created per call; Casers carry state and must not be
// shared between goroutines.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// EqualFold reports whether a and b are equal under Unicode case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// New builds a Set from values: entries are trimmed, blanks are dropped and
// case-insensitive duplicates collapse into the first spelling. It returns
// nil when nothing remains.
func New(values ...string) Set {
	var s Set
	for _, v := range values {
		s, _ = s.Add(v)
	}
	return s
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s)
}

// Contains reports whether v is a member, ignoring case.
func (s Set) Contains(v string) bool {
	return s.index(Fold(strings.TrimSpace(v))) >= 0
}

// Add inserts v. It returns the resulting set and whether it changed;
// adding an existing member (in any case) or a blank value is a no-op.
func (s Set) Add(v string) (Set, bool) {
	v = strings.TrimSpace(v)
	if v == "" || s.index(Fold(v)) >= 0 {
		return s, false
	}
	out := make(Set, len(s), len(s)+1)
	copy(out, s)
	return append(out, v), true
}

// Remove deletes every member case-insensitively equal to v. It returns the
// resulting set and whether it changed. When the last member goes, the
// result is nil, never an empty non-nil slice. Removing a non-member is a
// successful no-op.
func (s Set) Remove(v string) (Set, bool) {
	target := Fold(strings.TrimSpace(v))
	var out Set
	removed := false
	for _, m := range s {
		if Fold(m) == target {
			removed = true
			continue
		}
		out = append(out, m)
	}
	if !removed {
		return s, false
	}
	if len(out) == 0 {
		return nil, true
	}
	return out, true
}

// List returns the members as a new slice. An empty or absent set yields an
// empty, non-nil slice so that callers serialize it as [].
func (s Set) List() []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func (s Set) index(folded string) int {
	for i, m := range s {
		if Fold(m) == folded {
			return i
		}
	}
	return -1
}
