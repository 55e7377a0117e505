package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip encodes v, decodes it back, and returns the result
// (spec.md §8 invariant 1: decode(encode(v)) == v).
func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	e := NewEncoder(nil)
	require.NoError(t, e.EncodeValue(v))
	encoded := e.Bytes()
	d := NewDecoder(encoded[1:], nil)
	got, err := d.DeserializeValue(encoded[0])
	require.NoError(t, err)
	return got
}

func TestRoundTripScalars(t *testing.T) {
	cases := []Value{
		Null,
		Bool(true),
		Bool(false),
		Byte(0xFE),
		Short(-1),
		Int(123456),
		Long(-9_000_000_000),
		Float(3.5),
		Double(-2.25),
		String(""),
		String("hello, world"),
	}
	for _, v := range cases {
		got := roundTrip(t, v)
		assert.True(t, v.Equal(got), "expected %v, got %v", v, got)
	}
}

func TestRoundTripFloatNaNByBits(t *testing.T) {
	nan := Float(float32(math.NaN()))
	got := roundTrip(t, nan)
	f, ok := got.AsFloat()
	require.True(t, ok)
	assert.True(t, math.IsNaN(float64(f)))
	assert.True(t, nan.Equal(got))
}

func TestNegativeZeroVersusPositiveZeroByBits(t *testing.T) {
	neg := Double(math.Copysign(0, -1))
	pos := Double(0)
	assert.False(t, neg.Equal(pos), "-0.0 and +0.0 must hash/compare distinctly by bit pattern")
	assert.False(t, neg.Hash() == pos.Hash())
}

func TestRoundTripArrays(t *testing.T) {
	arr := Array([]Value{Int(1), Int(2), Int(3)})
	got := roundTrip(t, arr)
	assert.True(t, arr.Equal(got))
}

func TestRoundTripNestedArray(t *testing.T) {
	inner := Array([]Value{Int(1), Int(2)})
	outer := Array([]Value{inner, Array([]Value{Int(3)})})
	got := roundTrip(t, outer)
	assert.True(t, outer.Equal(got))
}

func TestRoundTripObjectArray(t *testing.T) {
	mixed := ObjectArray([]Value{Int(1), String("two"), Bool(true)})
	got := roundTrip(t, mixed)
	assert.True(t, mixed.Equal(got))
}

func TestRoundTripByteArrayElements(t *testing.T) {
	arr := Array([]Value{ByteArray([]byte{1, 2}), ByteArray([]byte{3})})
	got := roundTrip(t, arr)
	assert.True(t, arr.Equal(got))
}

func TestRoundTripDictionary(t *testing.T) {
	m := NewMap()
	m.Set(String("a"), Int(1))
	m.Set(String("b"), Int(2))
	got := roundTrip(t, Dictionary(m))
	assert.True(t, Dictionary(m).Equal(got))
}

func TestRoundTripHashtable(t *testing.T) {
	m := NewMap()
	m.Set(Int(1), String("one"))
	m.Set(Int(2), String("two"))
	got := roundTrip(t, HashTable(m))
	assert.True(t, HashTable(m).Equal(got))
}

func TestRoundTripEventData(t *testing.T) {
	p := NewParameterTable()
	p.Set(1, String("value"))
	ev := Event(&EventData{EventCode: 5, Params: p})
	got := roundTrip(t, ev)
	assert.True(t, ev.Equal(got))
}

func TestRoundTripOperationRequest(t *testing.T) {
	p := NewParameterTable()
	p.Set(1, Int(99))
	req := Request(&OperationRequest{Opcode: 0x2A, Params: p})
	got := roundTrip(t, req)
	assert.True(t, req.Equal(got))
}

func TestRoundTripOperationResponse(t *testing.T) {
	p := NewParameterTable()
	p.Set(1, Bool(false))
	resp := Response(&OperationResponse{
		Opcode:       0x2A,
		ReturnCode:   0,
		DebugMessage: String("ok"),
		Params:       p,
	})
	got := roundTrip(t, resp)
	assert.True(t, resp.Equal(got))
}

// spec.md §8 invariant 4: map equality/hashing is order independent.
func TestMapOrderIndependence(t *testing.T) {
	m1 := NewMap()
	m1.Set(String("a"), Int(1))
	m1.Set(String("b"), Int(2))
	m1.Set(String("c"), Int(3))

	m2 := NewMap()
	m2.Set(String("c"), Int(3))
	m2.Set(String("a"), Int(1))
	m2.Set(String("b"), Int(2))

	assert.True(t, m1.Equal(m2))
	assert.Equal(t, m1.hash(), m2.hash())
	assert.Equal(t, Dictionary(m1).Hash(), Dictionary(m2).Hash())
}

func TestMapSetOverwritesDuplicateKey(t *testing.T) {
	m := NewMap()
	m.Set(String("k"), Int(1))
	m.Set(String("k"), Int(2))
	assert.Equal(t, 1, m.Len())
	v, ok := m.Get(String("k"))
	require.True(t, ok)
	i, _ := v.AsInt()
	assert.EqualValues(t, 2, i)
}
