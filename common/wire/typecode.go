package wire

// TypeCode identifies the wire representation of a Value. Values match
// the protocol exactly; they are not sequential and must not be
// reordered.
type TypeCode byte

const (
	CodeNull              TypeCode = 42
	CodeUnknown           TypeCode = 0
	CodeBoolean           TypeCode = 111
	CodeByte              TypeCode = 98
	CodeShort             TypeCode = 107
	CodeInteger           TypeCode = 105
	CodeLong              TypeCode = 108
	CodeDouble            TypeCode = 100
	CodeFloat             TypeCode = 102
	CodeString            TypeCode = 115
	CodeCustom            TypeCode = 99
	CodeHashtable         TypeCode = 104
	CodeDictionary        TypeCode = 68
	CodeArray             TypeCode = 121
	CodeObjectArray       TypeCode = 122
	CodeStringArray       TypeCode = 97
	CodeIntegerArray      TypeCode = 110
	CodeByteArray         TypeCode = 120
	CodeEventData         TypeCode = 101
	CodeOperationResponse TypeCode = 112
	CodeOperationRequest  TypeCode = 113
)

// known reports whether c is one of the type codes above.
func (c TypeCode) known() bool {
	switch c {
	case CodeNull, CodeUnknown, CodeBoolean, CodeByte, CodeShort, CodeInteger,
		CodeLong, CodeDouble, CodeFloat, CodeString, CodeCustom, CodeHashtable,
		CodeDictionary, CodeArray, CodeObjectArray, CodeStringArray,
		CodeIntegerArray, CodeByteArray, CodeEventData, CodeOperationResponse,
		CodeOperationRequest:
		return true
	}
	return false
}

func (c TypeCode) String() string {
	switch c {
	case CodeNull:
		return "Null"
	case CodeUnknown:
		return "Unknown"
	case CodeBoolean:
		return "Boolean"
	case CodeByte:
		return "Byte"
	case CodeShort:
		return "Short"
	case CodeInteger:
		return "Integer"
	case CodeLong:
		return "Long"
	case CodeDouble:
		return "Double"
	case CodeFloat:
		return "Float"
	case CodeString:
		return "String"
	case CodeCustom:
		return "Custom"
	case CodeHashtable:
		return "Hashtable"
	case CodeDictionary:
		return "Dictionary"
	case CodeArray:
		return "Array"
	case CodeObjectArray:
		return "ObjectArray"
	case CodeStringArray:
		return "StringArray"
	case CodeIntegerArray:
		return "IntegerArray"
	case CodeByteArray:
		return "ByteArray"
	case CodeEventData:
		return "EventData"
	case CodeOperationResponse:
		return "OperationResponse"
	case CodeOperationRequest:
		return "OperationRequest"
	default:
		return "TypeCode(?)"
	}
}
