package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1 from spec.md §8: a bare Short.
func TestDecodeShort(t *testing.T) {
	buf := []byte{byte(CodeShort), 0x00, 0x2A}
	d := NewDecoder(buf[1:], nil)
	v, err := d.DeserializeValue(buf[0])
	require.NoError(t, err)
	s, ok := v.AsShort()
	require.True(t, ok)
	assert.EqualValues(t, 42, s)
	assert.EqualValues(t, 2, d.Offset())
}

// S2 from spec.md §8: a String.
func TestDecodeString(t *testing.T) {
	payload := append([]byte{0x00, 0x05}, []byte("hello")...)
	d := NewDecoder(payload, nil)
	v, err := d.DeserializeValue(byte(CodeString))
	require.NoError(t, err)
	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "hello", s)
}

func TestDecodeStringInvalidUTF8(t *testing.T) {
	payload := append([]byte{0x00, 0x02}, 0xFF, 0xFE)
	d := NewDecoder(payload, nil)
	_, err := d.DeserializeValue(byte(CodeString))
	require.Error(t, err)
	assert.True(t, IsDecodeErrorKind(err, KindUTF8))
}

// S3 from spec.md §8: an IntegerArray.
func TestDecodeIntegerArray(t *testing.T) {
	payload := []byte{
		0x00, 0x00, 0x00, 0x03, // count = 3
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x03,
	}
	d := NewDecoder(payload, nil)
	v, err := d.DeserializeValue(byte(CodeIntegerArray))
	require.NoError(t, err)
	ints, ok := v.AsIntegerArray()
	require.True(t, ok)
	assert.Equal(t, []int32{1, 2, 3}, ints)
}

// A negative count (e.g. 0x80000000 as an IntegerArray length) must not
// reach a bare make([]T, n) and panic; it has to surface as an ordinary
// KindTruncation *DecodeError so the classifier goroutine survives a
// corrupt frame (spec.md §7).
func TestDecodeIntegerArrayNegativeLengthIsTruncationNotPanic(t *testing.T) {
	payload := []byte{0x80, 0x00, 0x00, 0x00} // count = -2147483648
	d := NewDecoder(payload, nil)
	_, err := d.DeserializeValue(byte(CodeIntegerArray))
	require.Error(t, err)
	assert.True(t, IsDecodeErrorKind(err, KindTruncation))
}

func TestDecodeStringNegativeLengthIsTruncationNotPanic(t *testing.T) {
	payload := []byte{0xFF, 0xFF} // count = -1
	d := NewDecoder(payload, nil)
	_, err := d.DeserializeValue(byte(CodeString))
	require.Error(t, err)
	assert.True(t, IsDecodeErrorKind(err, KindTruncation))
}

// A positive count wildly larger than the bytes actually left in the
// frame must also fail cleanly instead of attempting a huge allocation.
func TestDecodeObjectArrayOversizedCountIsTruncation(t *testing.T) {
	payload := []byte{0x7F, 0xFF} // count = 32767, zero bytes follow
	d := NewDecoder(payload, nil)
	_, err := d.DeserializeValue(byte(CodeObjectArray))
	require.Error(t, err)
	assert.True(t, IsDecodeErrorKind(err, KindTruncation))
}

func TestDecodeEmptyByteArray(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x00}
	d := NewDecoder(payload, nil)
	v, err := d.DeserializeValue(byte(CodeByteArray))
	require.NoError(t, err)
	bs, ok := v.AsByteArray()
	require.True(t, ok)
	assert.Empty(t, bs)
}

func TestDecodeEmptyStringArray(t *testing.T) {
	payload := []byte{0x00, 0x00}
	d := NewDecoder(payload, nil)
	v, err := d.DeserializeValue(byte(CodeStringArray))
	require.NoError(t, err)
	strs, ok := v.AsStringArray()
	require.True(t, ok)
	assert.Empty(t, strs)
}

// Top-level dispatch tolerates an unrecognized code (lenient, DESIGN.md OQ-1).
func TestDeserializeValueUnknownCodeIsLenientAtTopLevel(t *testing.T) {
	d := NewDecoder([]byte{}, nil)
	v, err := d.DeserializeValue(0xAB)
	require.NoError(t, err)
	assert.Equal(t, KindNull, v.Kind())
	assert.EqualValues(t, 0, d.Offset())
}

// An unrecognized type code inside a counted container is strict
// (DESIGN.md OQ-1): an ObjectArray element tag must be well-formed.
func TestObjectArrayUnknownElementTypeIsStrict(t *testing.T) {
	payload := []byte{
		0x00, 0x01, // count = 1
		0xAB, // bogus element type tag
	}
	d := NewDecoder(payload, nil)
	_, err := d.DeserializeValue(byte(CodeObjectArray))
	require.Error(t, err)
	assert.True(t, IsDecodeErrorKind(err, KindTruncation))
}

// S4 from spec.md §8: a ParameterTable used inside an OperationRequest.
func TestDecodeOperationRequest(t *testing.T) {
	payload := []byte{
		0x2A,       // opcode
		0x00, 0x01, // one parameter
		0x01,             // parameter key
		byte(CodeByte), 7, // Byte(7)
	}
	d := NewDecoder(payload, nil)
	req, err := d.DeserializeOperationRequest()
	require.NoError(t, err)
	assert.EqualValues(t, 0x2A, req.Opcode)
	v, ok := req.Params.Get(0x01)
	require.True(t, ok)
	b, ok := v.AsByte()
	require.True(t, ok)
	assert.EqualValues(t, 7, b)
}

func TestDecodeTruncatedShortIsTruncationError(t *testing.T) {
	d := NewDecoder([]byte{0x00}, nil)
	_, err := d.DeserializeValue(byte(CodeShort))
	require.Error(t, err)
	assert.True(t, IsDecodeErrorKind(err, KindTruncation))
}

func TestDecodeUnknownCustomType(t *testing.T) {
	payload := []byte{
		0x7F,       // custom type code, unregistered
		0x00, 0x00, // zero-length body
	}
	d := NewDecoder(payload, NewRegistry())
	_, err := d.DeserializeValue(byte(CodeCustom))
	require.Error(t, err)
	assert.True(t, IsDecodeErrorKind(err, KindUnknownCustomType))
}

func TestDecodeRegisteredCustomType(t *testing.T) {
	registry := NewRegistry()
	registry.Register(0x7F, CustomType{
		Decode: func(buf []byte) (Value, error) { return ByteArray(append([]byte{}, buf...)), nil },
	})
	payload := []byte{
		0x7F,
		0x00, 0x02,
		0xDE, 0xAD,
	}
	d := NewDecoder(payload, registry)
	v, err := d.DeserializeValue(byte(CodeCustom))
	require.NoError(t, err)
	bs, ok := v.AsByteArray()
	require.True(t, ok)
	assert.Equal(t, []byte{0xDE, 0xAD}, bs)
}

// HashTable entries each carry their own key/value type tags.
func TestDecodeHashtable(t *testing.T) {
	payload := []byte{
		0x00, 0x01, // one entry
		byte(CodeString), 0x00, 0x03, 'k', 'e', 'y',
		byte(CodeInteger), 0x00, 0x00, 0x00, 0x07,
	}
	d := NewDecoder(payload, nil)
	v, err := d.DeserializeValue(byte(CodeHashtable))
	require.NoError(t, err)
	m, ok := v.AsMap()
	require.True(t, ok)
	got, ok := m.Get(String("key"))
	require.True(t, ok)
	i, ok := got.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 7, i)
}

// Dictionary entries share one declared key/value type.
func TestDecodeDictionary(t *testing.T) {
	payload := []byte{
		byte(CodeString), byte(CodeInteger), // declared key/value types
		0x00, 0x02, // two entries
		0x00, 0x03, 'o', 'n', 'e', 0x00, 0x00, 0x00, 0x01,
		0x00, 0x03, 't', 'w', 'o', 0x00, 0x00, 0x00, 0x02,
	}
	d := NewDecoder(payload, nil)
	v, err := d.DeserializeValue(byte(CodeDictionary))
	require.NoError(t, err)
	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, 2, m.Len())
	got, ok := m.Get(String("two"))
	require.True(t, ok)
	i, _ := got.AsInt()
	assert.EqualValues(t, 2, i)
}
