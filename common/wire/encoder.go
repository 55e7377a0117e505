package wire

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Encoder serializes Values back to the wire format. It exists to make
// the round-trip property (spec.md §8.1, decode(encode(v)) == v)
// testable; the protocol itself only requires decoding (spec.md §1
// Non-goals: "lossless round-trip re-serialization"), but spec.md §1
// flags encode as a testable inverse, so it is implemented here as the
// mirror image of Decoder, in the same error-handling idiom.
type Encoder struct {
	buf      bytes.Buffer
	registry *Registry
}

// NewEncoder returns an Encoder using registry for Custom type lookups.
func NewEncoder(registry *Registry) *Encoder {
	return &Encoder{registry: registry}
}

// Bytes returns the bytes written so far.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

func (e *Encoder) writeByte(b byte)   { e.buf.WriteByte(b) }
func (e *Encoder) writeBytes(b []byte) { e.buf.Write(b) }

func (e *Encoder) writeInt16(i int16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(i))
	e.buf.Write(buf[:])
}

func (e *Encoder) writeInt32(i int32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(i))
	e.buf.Write(buf[:])
}

func (e *Encoder) writeInt64(i int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(i))
	e.buf.Write(buf[:])
}

// EncodeValue appends v's type-code byte and payload.
func (e *Encoder) EncodeValue(v Value) error {
	switch v.Kind() {
	case KindNull:
		e.writeByte(byte(CodeNull))
	case KindBool:
		e.writeByte(byte(CodeBoolean))
		b, _ := v.AsBool()
		if b {
			e.writeByte(1)
		} else {
			e.writeByte(0)
		}
	case KindByte:
		e.writeByte(byte(CodeByte))
		b, _ := v.AsByte()
		e.writeByte(b)
	case KindShort:
		e.writeByte(byte(CodeShort))
		s, _ := v.AsShort()
		e.writeInt16(s)
	case KindInt:
		e.writeByte(byte(CodeInteger))
		i, _ := v.AsInt()
		e.writeInt32(i)
	case KindLong:
		e.writeByte(byte(CodeLong))
		l, _ := v.AsLong()
		e.writeInt64(l)
	case KindFloat:
		e.writeByte(byte(CodeFloat))
		f, _ := v.AsFloat()
		e.writeInt32(int32(math.Float32bits(f)))
	case KindDouble:
		e.writeByte(byte(CodeDouble))
		f, _ := v.AsDouble()
		e.writeInt64(int64(math.Float64bits(f)))
	case KindString:
		e.writeByte(byte(CodeString))
		s, _ := v.AsString()
		e.encodeStringBody(s)
	case KindByteArray:
		e.writeByte(byte(CodeByteArray))
		bs, _ := v.AsByteArray()
		e.encodeByteArrayBody(bs)
	case KindIntegerArray:
		e.writeByte(byte(CodeIntegerArray))
		ints, _ := v.AsIntegerArray()
		e.writeInt32(int32(len(ints)))
		for _, i := range ints {
			e.writeInt32(i)
		}
	case KindStringArray:
		e.writeByte(byte(CodeStringArray))
		strs, _ := v.AsStringArray()
		e.writeInt16(int16(len(strs)))
		for _, s := range strs {
			e.encodeStringBody(s)
		}
	case KindArray:
		e.writeByte(byte(CodeArray))
		elems, _ := v.AsArray()
		return e.encodeArrayBody(elems)
	case KindObjectArray:
		e.writeByte(byte(CodeObjectArray))
		elems, _ := v.AsArray()
		e.writeInt16(int16(len(elems)))
		for _, el := range elems {
			if err := e.EncodeValue(el); err != nil {
				return err
			}
		}
	case KindDictionary:
		e.writeByte(byte(CodeDictionary))
		m, _ := v.AsMap()
		return e.encodeDictionaryBody(m)
	case KindHashTable:
		e.writeByte(byte(CodeHashtable))
		m, _ := v.AsMap()
		e.writeInt16(int16(m.Len()))
		for _, ent := range m.Entries() {
			if err := e.EncodeValue(ent.Key); err != nil {
				return err
			}
			if err := e.EncodeValue(ent.Value); err != nil {
				return err
			}
		}
	case KindEventData:
		e.writeByte(byte(CodeEventData))
		ev, _ := v.AsEvent()
		e.writeByte(ev.EventCode)
		e.encodeParameterTable(ev.Params)
	case KindOperationRequest:
		e.writeByte(byte(CodeOperationRequest))
		r, _ := v.AsRequest()
		e.writeByte(r.Opcode)
		e.encodeParameterTable(r.Params)
	case KindOperationResponse:
		e.writeByte(byte(CodeOperationResponse))
		r, _ := v.AsResponse()
		e.writeByte(r.Opcode)
		e.writeInt16(r.ReturnCode)
		if err := e.EncodeValue(r.DebugMessage); err != nil {
			return err
		}
		e.encodeParameterTable(r.Params)
	default:
		return errors.Errorf("encode: unhandled value kind %v", v.Kind())
	}
	return nil
}

func (e *Encoder) encodeStringBody(s string) {
	e.writeInt16(int16(len(s)))
	e.writeBytes([]byte(s))
}

func (e *Encoder) encodeByteArrayBody(bs []byte) {
	e.writeInt32(int32(len(bs)))
	e.writeBytes(bs)
}

// encodeArrayBody writes a homogeneous Array: length, one element-type
// byte, then elements with no repeated type tag (spec.md §4.1). Elements
// are assumed uniform in Kind; the element type byte is taken from the
// first element (Unknown for an empty array, the wire's "untyped"
// code).
func (e *Encoder) encodeArrayBody(elems []Value) error {
	e.writeInt16(int16(len(elems)))
	if len(elems) == 0 {
		e.writeByte(byte(CodeUnknown))
		return nil
	}
	itemCode := kindTypeCode(elems[0].Kind())
	e.writeByte(byte(itemCode))
	switch itemCode {
	case CodeArray:
		for _, el := range elems {
			sub, _ := el.AsArray()
			if err := e.encodeArrayBody(sub); err != nil {
				return err
			}
		}
	case CodeByteArray:
		for _, el := range elems {
			bs, _ := el.AsByteArray()
			e.encodeByteArrayBody(bs)
		}
	case CodeDictionary:
		maps := make([]*Map, len(elems))
		for i, el := range elems {
			m, _ := el.AsMap()
			maps[i] = m
		}
		return e.encodeDictArrayBody(maps)
	default:
		for _, el := range elems {
			if err := e.encodeValueBody(el); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Encoder) encodeDictionaryBody(m *Map) error {
	entries := m.Entries()
	var keyCode, valCode TypeCode = CodeUnknown, CodeUnknown
	if len(entries) > 0 {
		keyCode = kindTypeCode(entries[0].Key.Kind())
		valCode = kindTypeCode(entries[0].Value.Kind())
	}
	e.writeByte(byte(keyCode))
	e.writeByte(byte(valCode))
	e.writeInt16(int16(len(entries)))
	for _, ent := range entries {
		if err := e.encodeMaybeTyped(keyCode, ent.Key); err != nil {
			return err
		}
		if err := e.encodeMaybeTyped(valCode, ent.Value); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeMaybeTyped(declared TypeCode, v Value) error {
	if declared == CodeUnknown {
		e.writeByte(byte(kindTypeCode(v.Kind())))
	}
	return e.encodeValueBody(v)
}

// encodeValueBody writes v's payload without its leading type-code byte,
// used wherever the wire format has already emitted (or deliberately
// omitted) the type tag out of band (array elements, dictionary entries
// under a declared type).
func (e *Encoder) encodeValueBody(v Value) error {
	before := e.buf.Len()
	if err := e.EncodeValue(v); err != nil {
		return err
	}
	// Remove the single leading type-code byte EncodeValue just wrote.
	full := e.buf.Bytes()
	payload := append([]byte{}, full[before+1:]...)
	e.buf.Truncate(before)
	e.buf.Write(payload)
	return nil
}

func (e *Encoder) encodeDictArrayBody(maps []*Map) error {
	var keyCode, valCode TypeCode = CodeUnknown, CodeUnknown
	if len(maps) > 0 && maps[0].Len() > 0 {
		first := maps[0].Entries()[0]
		keyCode = kindTypeCode(first.Key.Kind())
		valCode = kindTypeCode(first.Value.Kind())
	}
	e.writeByte(byte(keyCode))
	e.writeByte(byte(valCode))
	for _, m := range maps {
		entries := m.Entries()
		e.writeInt16(int16(len(entries)))
		for _, ent := range entries {
			if err := e.encodeMaybeTyped(keyCode, ent.Key); err != nil {
				return err
			}
			if err := e.encodeMaybeTyped(valCode, ent.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Encoder) encodeParameterTable(p *ParameterTable) {
	keys := p.Keys()
	e.writeInt16(int16(len(keys)))
	for _, k := range keys {
		v, _ := p.Get(k)
		e.writeByte(k)
		_ = e.EncodeValue(v)
	}
}

// kindTypeCode maps a Value.Kind back to the TypeCode used to encode it.
func kindTypeCode(k Kind) TypeCode {
	switch k {
	case KindNull:
		return CodeNull
	case KindBool:
		return CodeBoolean
	case KindByte:
		return CodeByte
	case KindShort:
		return CodeShort
	case KindInt:
		return CodeInteger
	case KindLong:
		return CodeLong
	case KindFloat:
		return CodeFloat
	case KindDouble:
		return CodeDouble
	case KindString:
		return CodeString
	case KindByteArray:
		return CodeByteArray
	case KindIntegerArray:
		return CodeIntegerArray
	case KindStringArray:
		return CodeStringArray
	case KindArray:
		return CodeArray
	case KindObjectArray:
		return CodeObjectArray
	case KindDictionary:
		return CodeDictionary
	case KindHashTable:
		return CodeHashtable
	case KindEventData:
		return CodeEventData
	case KindOperationRequest:
		return CodeOperationRequest
	case KindOperationResponse:
		return CodeOperationResponse
	}
	return CodeUnknown
}

// Encode is a convenience wrapper returning the encoded bytes for v.
func Encode(v Value, registry *Registry) ([]byte, error) {
	e := NewEncoder(registry)
	if err := e.EncodeValue(v); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}
