package wire

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a decode-time failure per the error taxonomy of
// the protocol spec: some kinds are fatal to the whole frame direction,
// others only abort the current frame.
type ErrorKind int

const (
	// KindTruncation: the cursor ran out of bytes mid-value, or an
	// unrecognized type code was seen where a specific element count
	// was expected (see the "stricter interpretation" decision in
	// DESIGN.md).
	KindTruncation ErrorKind = iota
	// KindUnknownCustomType: a Custom type code was not registered.
	KindUnknownCustomType
	// KindUTF8: string bytes were not valid UTF-8.
	KindUTF8
	// KindFraming: a frame length below the header size, a short read
	// mid-frame, or a frame over the buffered-byte cap in the
	// reassembler. Direction-fatal. (A bad magic byte is not an error:
	// the reassembler skips that header.)
	KindFraming
)

func (k ErrorKind) String() string {
	switch k {
	case KindTruncation:
		return "truncation"
	case KindUnknownCustomType:
		return "unknown-custom-type"
	case KindUTF8:
		return "utf8"
	case KindFraming:
		return "framing"
	default:
		return "unknown"
	}
}

// DecodeError is a classified, context-wrapped decode failure. Callers
// branch on Kind without string matching; Error() still carries the
// pkg/errors-wrapped breadcrumb trail for logging.
type DecodeError struct {
	Kind  ErrorKind
	cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.cause)
}

func (e *DecodeError) Unwrap() error { return e.cause }

func newDecodeError(kind ErrorKind, cause error) *DecodeError {
	return &DecodeError{Kind: kind, cause: cause}
}

func wrapf(kind ErrorKind, err error, format string, args ...interface{}) error {
	return newDecodeError(kind, errors.Wrapf(err, format, args...))
}

// IsDecodeErrorKind reports whether err is a *DecodeError of the given kind.
func IsDecodeErrorKind(err error, kind ErrorKind) bool {
	var de *DecodeError
	if !errors.As(err, &de) {
		return false
	}
	return de.Kind == kind
}

// ErrUnknownCustomType is returned (wrapped in a *DecodeError) when a
// Custom type code is encountered with no registered decoder.
var ErrUnknownCustomType = errors.New("no decoder registered for custom type")

// NewFramingError wraps cause as a direction-fatal KindFraming
// *DecodeError (spec.md §7).
func NewFramingError(cause error) error {
	return newDecodeError(KindFraming, cause)
}
