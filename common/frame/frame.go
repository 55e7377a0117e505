// Package frame implements the two framing dialects that carry message
// payloads over the incoming and outgoing directional byte streams
// (spec.md §4.2). Incoming and Outgoing are kept as two distinct state
// machines sharing only the magic-byte and length-decode helpers below —
// spec.md §9 explicitly warns against over-abstracting the two dialects,
// since they differ in both header length (9 vs 5 bytes) and payload
// offset.
package frame

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"rcsniff2/common/wire"
)

// Magic is the leading byte of every frame header, on both directions.
const Magic byte = 0xFB

// DefaultMaxBuffered is the per-direction buffered-byte cap applied when
// no override is configured (spec.md §5 "Backpressure").
const DefaultMaxBuffered = 16 * 1024 * 1024

// readExact fills buf entirely or returns an error. A zero-byte read at
// EOF (clean stream end, no bytes consumed) is reported as io.EOF; any
// partial read before EOF is a framing-fatal error (spec.md §7
// "Truncation" / "short read before end-of-stream").
func readExact(r io.Reader, buf []byte) error {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF && n == 0 {
		return io.EOF
	}
	if err != nil {
		return wire.NewFramingError(errors.Wrapf(err, "short read: got %d of %d bytes", n, len(buf)))
	}
	return nil
}

func beInt32(b []byte) int32 {
	return int32(binary.BigEndian.Uint32(b))
}

// newBufReader wraps r in a *bufio.Reader if it isn't already one,
// matching kryptco-kr/socket.go's bufio.NewReader usage for buffered
// stream reads.
func newBufReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}
