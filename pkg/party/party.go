// Package party defines participant identifiers used throughout the protocol.
package party

import (
	"sort"

	"github.com/mpc-go/threshold/pkg/curve"
)

// ID uniquely identifies a participant within a single protocol session.
// IDs are compared lexicographically and must be unique and non-empty.
type ID string

// Scalar maps this ID into the scalar field: its bytes are read as a
// big-endian integer, one is added (so the empty ID does not map to zero),
// and the result is reduced modulo the group order. The ID is not hashed;
// IDs whose integer values are congruent modulo the order map to the same
// scalar.
func (id ID) Scalar(group curve.Curve) curve.Scalar {
	return group.NewScalar().SetBytes([]byte(id))
}

// IDSlice is a sortable collection of IDs. NewIDSlice sorts but does not
// remove duplicates; Valid reports whether any are present.
type IDSlice []ID

// NewIDSlice returns a sorted copy of ids.
func NewIDSlice(ids []ID) IDSlice {
	out := make(IDSlice, len(ids))
	copy(out, ids)
	sort.Sort(out)
	return out
}

func (p IDSlice) Len() int           { return len(p) }
func (p IDSlice) Less(i, j int) bool { return p[i] < p[j] }
func (p IDSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// Contains reports whether id is present in the slice.
func (p IDSlice) Contains(id ID) bool {
	for _, q := range p {
		if q == id {
			return true
		}
	}
	return false
}

// Valid reports whether the slice contains no duplicate IDs and is sorted.
func (p IDSlice) Valid() bool {
	for i := 1; i < len(p); i++ {
		if p[i-1] >= p[i] {
			return false
		}
	}
	return true
}

// Remove returns a copy of the slice with id removed.
func (p IDSlice) Remove(id ID) IDSlice {
	out := make(IDSlice, 0, len(p))
	for _, q := range p {
		if q != id {
			out = append(out, q)
		}
	}
	return out
}

// Without returns a copy of the slice excluding self, preserving order.
func (p IDSlice) Without(self ID) IDSlice {
	return p.Remove(self)
}
