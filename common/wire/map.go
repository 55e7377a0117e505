package wire

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// entry is one key/value pair of a Map.
type entry struct {
	Key   Value
	Value Value
}

// Map backs both Dictionary and HashTable. Go map keys must be
// comparable, and Value (which can embed slices and other Maps) is not,
// so Map keeps entries in a slice and indexes them by Value.Hash() for
// average O(1) lookup — the Go counterpart of the original's
// HashableHashmap<Value, Value> (spec.md §9, DESIGN.md OQ-3).
//
// Entries preserve wire order for deterministic iteration/printing, but
// equality and hashing (spec.md §3.1, §8 invariant 4) are order
// independent: two Maps built from permutations of the same entries
// compare and hash equal.
type Map struct {
	entries []entry
	index   map[uint64][]int // Value.Hash() -> indices into entries
}

// NewMap returns an empty Map ready for Set.
func NewMap() *Map {
	return &Map{index: make(map[uint64][]int)}
}

// Set inserts or overwrites the entry for key, duplicate keys silently
// overwrite the earlier entry's value (spec.md §4.1 "Ordering and
// tie-breaks").
func (m *Map) Set(key, value Value) {
	h := key.Hash()
	for _, idx := range m.index[h] {
		if m.entries[idx].Key.Equal(key) {
			m.entries[idx].Value = value
			return
		}
	}
	idx := len(m.entries)
	m.entries = append(m.entries, entry{Key: key, Value: value})
	m.index[h] = append(m.index[h], idx)
}

// Get looks up the value for key.
func (m *Map) Get(key Value) (Value, bool) {
	h := key.Hash()
	for _, idx := range m.index[h] {
		if m.entries[idx].Key.Equal(key) {
			return m.entries[idx].Value, true
		}
	}
	return Value{}, false
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.entries) }

// Entries returns the entries in wire/insertion order. Callers must not
// mutate the returned slice's Values.
func (m *Map) Entries() []struct{ Key, Value Value } {
	out := make([]struct{ Key, Value Value }, len(m.entries))
	for i, e := range m.entries {
		out[i] = struct{ Key, Value Value }{e.Key, e.Value}
	}
	return out
}

// Equal is order-independent multiset equality over entries (spec.md §8
// invariant 4).
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	for _, e := range m.entries {
		v, ok := other.Get(e.Key)
		if !ok || !v.Equal(e.Value) {
			return false
		}
	}
	return true
}

// hash combines per-entry hashes order-independently (XOR), matching
// Value.Hash's treatment of Dictionary/HashTable.
func (m *Map) hash() uint64 {
	var acc uint64
	for _, e := range m.entries {
		h := xxhash.New()
		e.Key.hashInto(h)
		e.Value.hashInto(h)
		acc ^= h.Sum64()
	}
	return acc
}

func (m *Map) String() string {
	parts := make([]string, len(m.entries))
	for i, e := range m.entries {
		parts[i] = e.Key.String() + ": " + e.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
