package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Decoder consumes a byte cursor and produces Values via a type-code
// dispatch table, calling back into itself for nested containers
// (spec.md §4.1, ported method-for-method from
// original_source/serialization.rs's StreamDeserializer). All
// multi-byte integers and floats are big-endian.
type Decoder struct {
	r        *bytes.Reader
	registry *Registry
}

// NewDecoder returns a Decoder over buf using registry for Custom type
// lookups. registry may be nil if the stream contains no custom types.
func NewDecoder(buf []byte, registry *Registry) *Decoder {
	return &Decoder{r: bytes.NewReader(buf), registry: registry}
}

// Offset returns the current cursor position, primarily for tests that
// assert the cursor didn't move (spec.md §8 invariant 3).
func (d *Decoder) Offset() int64 {
	off, _ := d.r.Seek(0, io.SeekCurrent)
	return off
}

func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, wrapf(KindTruncation, err, "reading byte")
	}
	return b, nil
}

func (d *Decoder) readN(n int) ([]byte, error) {
	if n < 0 {
		return nil, newDecodeError(KindTruncation, errors.Errorf("negative length %d", n))
	}
	if int64(n) > int64(d.r.Len()) {
		return nil, newDecodeError(KindTruncation, errors.Errorf("length %d exceeds %d remaining bytes", n, d.r.Len()))
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, wrapf(KindTruncation, err, "reading %d bytes", n)
	}
	return buf, nil
}

func (d *Decoder) readInt16() (int16, error) {
	buf, err := d.readN(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(buf)), nil
}

func (d *Decoder) readInt32() (int32, error) {
	buf, err := d.readN(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf)), nil
}

func (d *Decoder) readInt64() (int64, error) {
	buf, err := d.readN(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf)), nil
}

// readCount16 reads a signed int16 element count and rejects it before
// any caller allocates a slice sized by it. A corrupt or adversarial
// frame can carry a negative count (e.g. 0xFFFF = -1) or a count wildly
// larger than the bytes actually remaining in the frame; either one
// would otherwise reach a bare make([]T, n) and either panic or attempt
// a huge allocation, instead of failing the frame with an ordinary
// *DecodeError (spec.md §7's "a frame-level decode failure MUST NOT
// terminate the classifier"). minPerElem is the minimum number
// of wire bytes each element must occupy, used as a cheap upper bound
// check against the bytes actually left to read.
func (d *Decoder) readCount16(minPerElem int) (int16, error) {
	n, err := d.readInt16()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, newDecodeError(KindTruncation, errors.Errorf("negative count %d", n))
	}
	if minPerElem > 0 && int64(n)*int64(minPerElem) > int64(d.r.Len()) {
		return 0, newDecodeError(KindTruncation, errors.Errorf("count %d exceeds %d remaining bytes", n, d.r.Len()))
	}
	return n, nil
}

// readCount32 is readCount16's int32 counterpart, used for the
// IntegerArray count. A ByteArray's int32 length goes straight to readN,
// which applies the same negative and remaining-bytes checks.
func (d *Decoder) readCount32(minPerElem int) (int32, error) {
	n, err := d.readInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, newDecodeError(KindTruncation, errors.Errorf("negative count %d", n))
	}
	if minPerElem > 0 && int64(n)*int64(minPerElem) > int64(d.r.Len()) {
		return 0, newDecodeError(KindTruncation, errors.Errorf("count %d exceeds %d remaining bytes", n, d.r.Len()))
	}
	return n, nil
}

// readTypeCode reads one type-code byte and requires it to be a
// recognized TypeCode, unlike DeserializeValue's top-level dispatch
// which tolerates unknown codes. This is the "stricter interpretation"
// from DESIGN.md OQ-1: a type-code byte read while already committed to
// decoding a specific element (an array entry, a map key/value, an
// ObjectArray tag) must be well-formed, or the cursor is desynchronized
// for every value that follows.
func (d *Decoder) readTypeCode() (TypeCode, error) {
	b, err := d.readByte()
	if err != nil {
		return 0, err
	}
	code := TypeCode(b)
	if !code.known() {
		return 0, newDecodeError(KindTruncation, errors.Errorf("unrecognized type code %#x while a specific element type was expected", b))
	}
	return code, nil
}

// DeserializeValue decodes one value whose wire type code is code. This
// is a total function over TypeCode: an unrecognized code yields Null
// without consuming further bytes (spec.md §4.1 "Dispatch table";
// entering here, the cursor sits at a message boundary, not inside a
// counted loop, so the lenient behavior is safe).
func (d *Decoder) DeserializeValue(code byte) (Value, error) {
	tc := TypeCode(code)
	if !tc.known() {
		return Null, nil
	}
	switch tc {
	case CodeNull, CodeUnknown:
		return Null, nil
	case CodeBoolean:
		b, err := d.readByte()
		if err != nil {
			return Null, err
		}
		return Bool(b != 0), nil
	case CodeByte:
		b, err := d.readByte()
		if err != nil {
			return Null, err
		}
		return Byte(b), nil
	case CodeShort:
		i, err := d.readInt16()
		if err != nil {
			return Null, err
		}
		return Short(i), nil
	case CodeInteger:
		i, err := d.readInt32()
		if err != nil {
			return Null, err
		}
		return Int(i), nil
	case CodeLong:
		i, err := d.readInt64()
		if err != nil {
			return Null, err
		}
		return Long(i), nil
	case CodeFloat:
		i, err := d.readInt32()
		if err != nil {
			return Null, err
		}
		return Float(math.Float32frombits(uint32(i))), nil
	case CodeDouble:
		i, err := d.readInt64()
		if err != nil {
			return Null, err
		}
		return Double(math.Float64frombits(uint64(i))), nil
	case CodeString:
		s, err := d.deserializeString()
		if err != nil {
			return Null, err
		}
		return String(s), nil
	case CodeArray:
		elems, err := d.deserializeArray()
		if err != nil {
			return Null, err
		}
		return Array(elems), nil
	case CodeCustom:
		return d.deserializeCustom()
	case CodeHashtable:
		m, err := d.deserializeHashtable()
		if err != nil {
			return Null, err
		}
		return HashTable(m), nil
	case CodeDictionary:
		m, err := d.deserializeDictionary()
		if err != nil {
			return Null, err
		}
		return Dictionary(m), nil
	case CodeObjectArray:
		elems, err := d.deserializeObjectArray()
		if err != nil {
			return Null, err
		}
		return ObjectArray(elems), nil
	case CodeStringArray:
		strs, err := d.deserializeStringArray()
		if err != nil {
			return Null, err
		}
		return StringArray(strs), nil
	case CodeIntegerArray:
		ints, err := d.deserializeIntArray()
		if err != nil {
			return Null, err
		}
		return IntegerArray(ints), nil
	case CodeByteArray:
		bs, err := d.deserializeByteArray()
		if err != nil {
			return Null, err
		}
		return ByteArray(bs), nil
	case CodeOperationRequest:
		r, err := d.DeserializeOperationRequest()
		if err != nil {
			return Null, err
		}
		return Request(r), nil
	case CodeOperationResponse:
		r, err := d.DeserializeOperationResponse()
		if err != nil {
			return Null, err
		}
		return Response(r), nil
	case CodeEventData:
		e, err := d.DeserializeEventData()
		if err != nil {
			return Null, err
		}
		return Event(e), nil
	}
	return Null, nil
}

func (d *Decoder) deserializeString() (string, error) {
	n, err := d.readInt16()
	if err != nil {
		return "", err
	}
	buf, err := d.readN(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", newDecodeError(KindUTF8, errors.New("invalid UTF-8 in string"))
	}
	return string(buf), nil
}

func (d *Decoder) deserializeByteArray() ([]byte, error) {
	n, err := d.readInt32()
	if err != nil {
		return nil, err
	}
	return d.readN(int(n))
}

func (d *Decoder) deserializeIntArray() ([]int32, error) {
	n, err := d.readCount32(4)
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		v, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (d *Decoder) deserializeStringArray() ([]string, error) {
	n, err := d.readCount16(2)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := d.deserializeString()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (d *Decoder) deserializeObjectArray() ([]Value, error) {
	n, err := d.readCount16(1)
	if err != nil {
		return nil, err
	}
	out := make([]Value, n)
	for i := range out {
		code, err := d.readTypeCode()
		if err != nil {
			return nil, err
		}
		v, err := d.DeserializeValue(byte(code))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (d *Decoder) deserializeCustom() (Value, error) {
	customCode, err := d.readByte()
	if err != nil {
		return Null, err
	}
	n, err := d.readInt16()
	if err != nil {
		return Null, err
	}
	buf, err := d.readN(int(n))
	if err != nil {
		return Null, err
	}
	t, ok := d.registry.lookup(customCode)
	if !ok {
		return Null, newDecodeError(KindUnknownCustomType, errors.Wrapf(ErrUnknownCustomType, "custom type %#x", customCode))
	}
	return t.Decode(buf)
}

// deserializeArray implements spec.md §4.1's homogeneous-array rules:
// a shared element-type byte, with special nested handling for Array,
// ByteArray, Custom, and Dictionary element types.
func (d *Decoder) deserializeArray() ([]Value, error) {
	n, err := d.readCount16(1)
	if err != nil {
		return nil, err
	}
	itemType, err := d.readTypeCode()
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, n)
	switch itemType {
	case CodeArray:
		for i := int16(0); i < n; i++ {
			elems, err := d.deserializeArray()
			if err != nil {
				return nil, err
			}
			out = append(out, Array(elems))
		}
	case CodeByteArray:
		for i := int16(0); i < n; i++ {
			bs, err := d.deserializeByteArray()
			if err != nil {
				return nil, err
			}
			out = append(out, ByteArray(bs))
		}
	case CodeCustom:
		customCode, err := d.readByte()
		if err != nil {
			return nil, err
		}
		t, ok := d.registry.lookup(customCode)
		if !ok {
			return nil, newDecodeError(KindUnknownCustomType, errors.Wrapf(ErrUnknownCustomType, "custom type %#x", customCode))
		}
		for i := int16(0); i < n; i++ {
			elemLen, err := d.readInt16()
			if err != nil {
				return nil, err
			}
			buf, err := d.readN(int(elemLen))
			if err != nil {
				return nil, err
			}
			v, err := t.Decode(buf)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	case CodeDictionary:
		maps, err := d.deserializeDictArray(n)
		if err != nil {
			return nil, err
		}
		for _, m := range maps {
			out = append(out, Dictionary(m))
		}
	default:
		for i := int16(0); i < n; i++ {
			v, err := d.DeserializeValue(byte(itemType))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (d *Decoder) deserializeDictionaryTypes() (TypeCode, TypeCode, error) {
	keyType, err := d.readTypeCode()
	if err != nil {
		return 0, 0, err
	}
	valType, err := d.readTypeCode()
	if err != nil {
		return 0, 0, err
	}
	return keyType, valType, nil
}

// deserializeDictArray decodes `size` dictionaries sharing one key/value
// type declaration (spec.md §4.1's "dictionary-array decoder").
func (d *Decoder) deserializeDictArray(size int16) ([]*Map, error) {
	keyType, valType, err := d.deserializeDictionaryTypes()
	if err != nil {
		return nil, err
	}
	out := make([]*Map, size)
	for i := int16(0); i < size; i++ {
		m, err := d.deserializeDictionaryBody(keyType, valType)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// deserializeMaybeTyped decodes one value of the declared code, unless
// code is CodeUnknown, in which case the value is self-describing and
// carries its own type-code byte first (spec.md §3.1, §4.1).
func (d *Decoder) deserializeMaybeTyped(code TypeCode) (Value, error) {
	if code == CodeUnknown {
		actual, err := d.readTypeCode()
		if err != nil {
			return Null, err
		}
		code = actual
	}
	return d.DeserializeValue(byte(code))
}

func (d *Decoder) deserializeDictionaryBody(keyType, valType TypeCode) (*Map, error) {
	n, err := d.readCount16(1)
	if err != nil {
		return nil, err
	}
	m := NewMap()
	for i := int16(0); i < n; i++ {
		key, err := d.deserializeMaybeTyped(keyType)
		if err != nil {
			return nil, err
		}
		val, err := d.deserializeMaybeTyped(valType)
		if err != nil {
			return nil, err
		}
		m.Set(key, val)
	}
	return m, nil
}

func (d *Decoder) deserializeDictionary() (*Map, error) {
	keyType, valType, err := d.deserializeDictionaryTypes()
	if err != nil {
		return nil, err
	}
	return d.deserializeDictionaryBody(keyType, valType)
}

// deserializeHashtable decodes a HashTable, where every entry carries
// its own key and value type tags (spec.md §4.1).
func (d *Decoder) deserializeHashtable() (*Map, error) {
	n, err := d.readCount16(1)
	if err != nil {
		return nil, err
	}
	m := NewMap()
	for i := int16(0); i < n; i++ {
		keyType, err := d.readTypeCode()
		if err != nil {
			return nil, err
		}
		key, err := d.DeserializeValue(byte(keyType))
		if err != nil {
			return nil, err
		}
		valType, err := d.readTypeCode()
		if err != nil {
			return nil, err
		}
		val, err := d.DeserializeValue(byte(valType))
		if err != nil {
			return nil, err
		}
		m.Set(key, val)
	}
	return m, nil
}

// DeserializeParameterTable reads a signed int16 count N, then N entries
// of {key: u8, value_type: type_code, value} (spec.md §4.1).
func (d *Decoder) DeserializeParameterTable() (*ParameterTable, error) {
	n, err := d.readCount16(2)
	if err != nil {
		return nil, err
	}
	p := NewParameterTable()
	for i := int16(0); i < n; i++ {
		key, err := d.readByte()
		if err != nil {
			return nil, err
		}
		valType, err := d.readTypeCode()
		if err != nil {
			return nil, err
		}
		val, err := d.DeserializeValue(byte(valType))
		if err != nil {
			return nil, err
		}
		p.Set(key, val)
	}
	return p, nil
}

// DeserializeEventData reads one byte (event code) then one parameter
// table (spec.md §4.1).
func (d *Decoder) DeserializeEventData() (*EventData, error) {
	code, err := d.readByte()
	if err != nil {
		return nil, err
	}
	params, err := d.DeserializeParameterTable()
	if err != nil {
		return nil, err
	}
	return &EventData{EventCode: code, Params: params}, nil
}

// DeserializeOperationRequest reads one byte (opcode) then one
// parameter table (spec.md §4.1).
func (d *Decoder) DeserializeOperationRequest() (*OperationRequest, error) {
	opcode, err := d.readByte()
	if err != nil {
		return nil, err
	}
	params, err := d.DeserializeParameterTable()
	if err != nil {
		return nil, err
	}
	return &OperationRequest{Opcode: opcode, Params: params}, nil
}

// DeserializeOperationResponse reads one byte (opcode), one int16
// (return code), one type code + value (debug message), then one
// parameter table (spec.md §4.1).
func (d *Decoder) DeserializeOperationResponse() (*OperationResponse, error) {
	opcode, err := d.readByte()
	if err != nil {
		return nil, err
	}
	returnCode, err := d.readInt16()
	if err != nil {
		return nil, err
	}
	dbgType, err := d.readTypeCode()
	if err != nil {
		return nil, err
	}
	dbgMsg, err := d.DeserializeValue(byte(dbgType))
	if err != nil {
		return nil, err
	}
	params, err := d.DeserializeParameterTable()
	if err != nil {
		return nil, err
	}
	return &OperationResponse{
		Opcode:       opcode,
		ReturnCode:   returnCode,
		DebugMessage: dbgMsg,
		Params:       params,
	}, nil
}
