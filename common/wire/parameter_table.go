package wire

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ParameterTable maps a one-byte parameter key to a Value (spec.md §3.1).
// Unlike Dictionary/HashTable keys, a ParameterTable key is already a Go
// byte, so the entries live in a plain map; Keys() returns them sorted
// for deterministic iteration (wire order is not meaningful here since
// parameter keys, unlike dictionary/array entries, are not positional).
type ParameterTable struct {
	entries map[byte]Value
}

// NewParameterTable returns an empty ParameterTable.
func NewParameterTable() *ParameterTable {
	return &ParameterTable{entries: make(map[byte]Value)}
}

// Set inserts or overwrites the value for key (duplicate keys silently
// overwrite, per spec.md §4.1).
func (p *ParameterTable) Set(key byte, value Value) {
	p.entries[key] = value
}

// Get looks up the value for key.
func (p *ParameterTable) Get(key byte) (Value, bool) {
	v, ok := p.entries[key]
	return v, ok
}

// Len returns the number of entries.
func (p *ParameterTable) Len() int { return len(p.entries) }

// Keys returns the parameter keys in ascending order.
func (p *ParameterTable) Keys() []byte {
	keys := make([]byte, 0, len(p.entries))
	for k := range p.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Equal is order-independent (it's backed by a Go map already).
func (p *ParameterTable) Equal(other *ParameterTable) bool {
	if p.Len() != other.Len() {
		return false
	}
	for k, v := range p.entries {
		ov, ok := other.entries[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (p *ParameterTable) hash() uint64 {
	var acc uint64
	for k, v := range p.entries {
		h := xxhash.New()
		h.Write([]byte{k})
		v.hashInto(h)
		acc ^= h.Sum64()
	}
	return acc
}

func (p *ParameterTable) String() string {
	keys := p.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%#x: %s", k, p.entries[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
