package wire

import (
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"

	"rcsniff2/common/opcode"
)

// Kind identifies which variant of the value model a Value holds.
// Unlike TypeCode, Kind is an internal enumeration over the Go
// representation, not the wire byte (several wire shapes, e.g. a
// Dictionary decoded with Unknown-typed entries, still produce the same
// Kind).
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindByteArray
	KindIntegerArray
	KindStringArray
	KindArray
	KindObjectArray
	KindDictionary
	KindHashTable
	KindEventData
	KindOperationRequest
	KindOperationResponse
)

// Value is a tagged union over every decodable wire value. Values are
// immutable once constructed and are owned exclusively by whatever
// contains them (spec.md §3.4) — callers must not mutate slices/maps
// reachable from a Value after construction.
type Value struct {
	kind Kind

	b      byte
	bl     bool
	i16    int16
	i32    int32
	i64    int64
	f32    float32
	f64    float64
	str    string
	bytes  []byte
	ints   []int32
	strs   []string
	arr    []Value
	dict   *Map
	event  *EventData
	opReq  *OperationRequest
	opResp *OperationResponse
}

func (v Value) Kind() Kind { return v.kind }

// Null is the singular Value representing the wire Null type and the
// tolerant fallback for unrecognized top-level type codes.
var Null = Value{kind: KindNull}

func Bool(b bool) Value    { return Value{kind: KindBool, bl: b} }
func Byte(b byte) Value    { return Value{kind: KindByte, b: b} }
func Short(i int16) Value  { return Value{kind: KindShort, i16: i} }
func Int(i int32) Value    { return Value{kind: KindInt, i32: i} }
func Long(i int64) Value   { return Value{kind: KindLong, i64: i} }
func Float(f float32) Value { return Value{kind: KindFloat, f32: f} }
func Double(f float64) Value { return Value{kind: KindDouble, f64: f} }
func String(s string) Value { return Value{kind: KindString, str: s} }

// ByteArray takes ownership of b.
func ByteArray(b []byte) Value { return Value{kind: KindByteArray, bytes: b} }

// IntegerArray takes ownership of ints.
func IntegerArray(ints []int32) Value { return Value{kind: KindIntegerArray, ints: ints} }

// StringArray takes ownership of strs.
func StringArray(strs []string) Value { return Value{kind: KindStringArray, strs: strs} }

// Array is a homogeneous sequence; ObjectArray is heterogeneous. Both
// are represented identically in Go (a []Value) — the distinction only
// matters on the wire (one shared element type byte vs. one per
// element) and is preserved here only via Kind so re-encoding picks the
// right wire shape.
func Array(elems []Value) Value       { return Value{kind: KindArray, arr: elems} }
func ObjectArray(elems []Value) Value { return Value{kind: KindObjectArray, arr: elems} }

func Dictionary(m *Map) Value { return Value{kind: KindDictionary, dict: m} }
func HashTable(m *Map) Value  { return Value{kind: KindHashTable, dict: m} }

func Event(e *EventData) Value               { return Value{kind: KindEventData, event: e} }
func Request(r *OperationRequest) Value       { return Value{kind: KindOperationRequest, opReq: r} }
func Response(r *OperationResponse) Value     { return Value{kind: KindOperationResponse, opResp: r} }

// Accessors. Each returns (zero, false) if v is not of the matching Kind.

func (v Value) AsBool() (bool, bool)    { return v.bl, v.kind == KindBool }
func (v Value) AsByte() (byte, bool)    { return v.b, v.kind == KindByte }
func (v Value) AsShort() (int16, bool)  { return v.i16, v.kind == KindShort }
func (v Value) AsInt() (int32, bool)    { return v.i32, v.kind == KindInt }
func (v Value) AsLong() (int64, bool)   { return v.i64, v.kind == KindLong }
func (v Value) AsFloat() (float32, bool) { return v.f32, v.kind == KindFloat }
func (v Value) AsDouble() (float64, bool) { return v.f64, v.kind == KindDouble }
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }
func (v Value) AsByteArray() ([]byte, bool)    { return v.bytes, v.kind == KindByteArray }
func (v Value) AsIntegerArray() ([]int32, bool) { return v.ints, v.kind == KindIntegerArray }
func (v Value) AsStringArray() ([]string, bool) { return v.strs, v.kind == KindStringArray }
func (v Value) AsArray() ([]Value, bool) {
	return v.arr, v.kind == KindArray || v.kind == KindObjectArray
}
func (v Value) AsMap() (*Map, bool) {
	return v.dict, v.kind == KindDictionary || v.kind == KindHashTable
}
func (v Value) AsEvent() (*EventData, bool)             { return v.event, v.kind == KindEventData }
func (v Value) AsRequest() (*OperationRequest, bool)    { return v.opReq, v.kind == KindOperationRequest }
func (v Value) AsResponse() (*OperationResponse, bool)  { return v.opResp, v.kind == KindOperationResponse }

// EventData is the record carried by a decoded Event message.
type EventData struct {
	EventCode byte
	Params    *ParameterTable
}

// OperationRequest is the record carried by a decoded operation request.
type OperationRequest struct {
	Opcode byte
	Params *ParameterTable
}

// OperationResponse is the record carried by a decoded operation response.
type OperationResponse struct {
	Opcode       byte
	ReturnCode   int16
	DebugMessage Value
	Params       *ParameterTable
}

// Hash returns an order-independent hash of v, suitable for using v as
// a key in a Map. Floats hash by raw IEEE bit pattern (spec.md §3.1),
// so NaN hashes consistently with itself and -0.0/+0.0 hash
// differently.
func (v Value) Hash() uint64 {
	h := xxhash.New()
	v.hashInto(h)
	return h.Sum64()
}

func (v Value) hashInto(h *xxhash.Digest) {
	var tag [1]byte
	tag[0] = byte(v.kind)
	h.Write(tag[:])
	switch v.kind {
	case KindNull:
	case KindBool:
		if v.bl {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case KindByte:
		h.Write([]byte{v.b})
	case KindShort:
		writeUint64(h, uint64(uint16(v.i16)))
	case KindInt:
		writeUint64(h, uint64(uint32(v.i32)))
	case KindLong:
		writeUint64(h, uint64(v.i64))
	case KindFloat:
		writeUint64(h, uint64(math.Float32bits(v.f32)))
	case KindDouble:
		writeUint64(h, math.Float64bits(v.f64))
	case KindString:
		h.WriteString(v.str)
	case KindByteArray:
		h.Write(v.bytes)
	case KindIntegerArray:
		for _, i := range v.ints {
			writeUint64(h, uint64(uint32(i)))
		}
	case KindStringArray:
		for _, s := range v.strs {
			h.WriteString(s)
		}
	case KindArray, KindObjectArray:
		for _, e := range v.arr {
			e.hashInto(h)
		}
	case KindDictionary, KindHashTable:
		// Order-independent: XOR the per-entry hash combine instead of
		// feeding entries into h in map-iteration order.
		var acc uint64
		for _, e := range v.dict.entries {
			eh := xxhash.New()
			e.Key.hashInto(eh)
			e.Value.hashInto(eh)
			acc ^= eh.Sum64()
		}
		writeUint64(h, acc)
	case KindEventData:
		h.Write([]byte{v.event.EventCode})
		writeUint64(h, v.event.Params.hash())
	case KindOperationRequest:
		h.Write([]byte{v.opReq.Opcode})
		writeUint64(h, v.opReq.Params.hash())
	case KindOperationResponse:
		h.Write([]byte{v.opResp.Opcode})
		writeUint64(h, uint64(uint16(v.opResp.ReturnCode)))
		v.opResp.DebugMessage.hashInto(h)
		writeUint64(h, v.opResp.Params.hash())
	}
}

func writeUint64(h *xxhash.Digest, x uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(x >> (56 - 8*i))
	}
	h.Write(buf[:])
}

// Equal reports whether v and other represent the same value, with the
// same float/map semantics as Hash (bit-pattern floats, order-independent
// maps).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.bl == other.bl
	case KindByte:
		return v.b == other.b
	case KindShort:
		return v.i16 == other.i16
	case KindInt:
		return v.i32 == other.i32
	case KindLong:
		return v.i64 == other.i64
	case KindFloat:
		return math.Float32bits(v.f32) == math.Float32bits(other.f32)
	case KindDouble:
		return math.Float64bits(v.f64) == math.Float64bits(other.f64)
	case KindString:
		return v.str == other.str
	case KindByteArray:
		return bytesEqual(v.bytes, other.bytes)
	case KindIntegerArray:
		if len(v.ints) != len(other.ints) {
			return false
		}
		for i := range v.ints {
			if v.ints[i] != other.ints[i] {
				return false
			}
		}
		return true
	case KindStringArray:
		if len(v.strs) != len(other.strs) {
			return false
		}
		for i := range v.strs {
			if v.strs[i] != other.strs[i] {
				return false
			}
		}
		return true
	case KindArray, KindObjectArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindDictionary, KindHashTable:
		return v.dict.Equal(other.dict)
	case KindEventData:
		return v.event.EventCode == other.event.EventCode && v.event.Params.Equal(other.event.Params)
	case KindOperationRequest:
		return v.opReq.Opcode == other.opReq.Opcode && v.opReq.Params.Equal(other.opReq.Params)
	case KindOperationResponse:
		return v.opResp.Opcode == other.opResp.Opcode &&
			v.opResp.ReturnCode == other.opResp.ReturnCode &&
			v.opResp.DebugMessage.Equal(other.opResp.DebugMessage) &&
			v.opResp.Params.Equal(other.opResp.Params)
	}
	return false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders v in a form resembling the original Rust Debug impl
// (serialization.rs): "Kind(payload)" for scalars, Go-ish container
// syntax otherwise.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("Bool(%v)", v.bl)
	case KindByte:
		return fmt.Sprintf("Byte(%d)", v.b)
	case KindShort:
		return fmt.Sprintf("Short(%d)", v.i16)
	case KindInt:
		return fmt.Sprintf("Int(%d)", v.i32)
	case KindLong:
		return fmt.Sprintf("Long(%d)", v.i64)
	case KindFloat:
		return fmt.Sprintf("Float(%v)", v.f32)
	case KindDouble:
		return fmt.Sprintf("Double(%v)", v.f64)
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindByteArray:
		return fmt.Sprintf("%x", v.bytes)
	case KindIntegerArray:
		return fmt.Sprintf("%v", v.ints)
	case KindStringArray:
		return fmt.Sprintf("%q", v.strs)
	case KindArray, KindObjectArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindDictionary, KindHashTable:
		return v.dict.String()
	case KindEventData:
		return fmt.Sprintf("EventData { event_code: %#x, params: %s }", v.event.EventCode, v.event.Params)
	case KindOperationRequest:
		return fmt.Sprintf("OperationRequest { opcode: %s, params: %s }", opcode.Name(v.opReq.Opcode), v.opReq.Params)
	case KindOperationResponse:
		return fmt.Sprintf("OperationResponse { opcode: %s, return_code: %d, debug_message: %s, params: %s }",
			opcode.Name(v.opResp.Opcode), v.opResp.ReturnCode, v.opResp.DebugMessage, v.opResp.Params)
	}
	return "?"
}
