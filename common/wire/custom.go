package wire

// CustomType is a registered application-defined value kind: a
// length-prefixed byte blob decoded/encoded by the given callbacks
// (spec.md §3.3).
type CustomType struct {
	Decode func(buf []byte) (Value, error)
	Encode func(v Value) ([]byte, error)
}

// Registry is a process- or decoder-instance-scoped mapping from custom
// type code to its codec, built once before decoding begins and never
// mutated afterward (spec.md §3.4). It is passed explicitly into Decoder
// rather than kept as package-global state, per spec.md §9's "Custom-type
// registry" design note, so tests stay hermetic.
type Registry struct {
	types map[byte]CustomType
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[byte]CustomType)}
}

// Register adds (or replaces) the codec for custom type code.
func (r *Registry) Register(code byte, t CustomType) {
	r.types[code] = t
}

func (r *Registry) lookup(code byte) (CustomType, bool) {
	if r == nil {
		return CustomType{}, false
	}
	t, ok := r.types[code]
	return t, ok
}
