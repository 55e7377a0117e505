package frame

import (
	"bufio"
	"io"

	"github.com/pkg/errors"

	"rcsniff2/common/wire"
)

// Incoming reassembles frames off the directional stream carrying
// traffic from the remote service (source port 4533). Header layout
// (spec.md §4.2):
//
//	H[0]    magic, must be 0xFB
//	H[1..5] total frame length, signed int32 big-endian
//	H[5..7] opaque (spec.md §9 Open Question — unused)
//	H[7..9] first two bytes of the payload
//	...     remaining payload bytes (total-9 of them)
type Incoming struct {
	r           *bufio.Reader
	maxBuffered int64
	buffered    int64
}

// NewIncoming returns an Incoming reassembler reading from r, fatal once
// more than maxBuffered bytes have been consumed without a successful
// frame emission (spec.md §5 "Backpressure"). maxBuffered <= 0 selects
// DefaultMaxBuffered.
func NewIncoming(r io.Reader, maxBuffered int64) *Incoming {
	if maxBuffered <= 0 {
		maxBuffered = DefaultMaxBuffered
	}
	return &Incoming{r: newBufReader(r), maxBuffered: maxBuffered}
}

// Next reads and emits the payload of the next well-formed frame. It
// returns io.EOF when the stream ends cleanly between frames (spec.md
// §4.2 "End-of-stream terminates cleanly"), or a direction-fatal
// *wire.DecodeError (KindFraming) on a malformed length or buffer
// overrun.
func (in *Incoming) Next() ([]byte, error) {
	for {
		header := make([]byte, 9)
		if err := readExact(in.r, header); err != nil {
			return nil, err
		}
		if header[0] != Magic {
			// "this frame is undefined" (spec.md §4.2 step 2): the
			// original implementation does not attempt to resync
			// byte-by-byte, it simply re-reads the next 9 bytes as a
			// fresh header attempt.
			continue
		}
		total := beInt32(header[1:5])
		if total < 9 {
			return nil, wire.NewFramingError(errors.Errorf("incoming frame length %d smaller than header size 9", total))
		}
		remainder := total - 9
		in.buffered += int64(remainder)
		if in.buffered > in.maxBuffered {
			return nil, wire.NewFramingError(errors.Errorf("incoming direction exceeded buffered-byte cap of %d", in.maxBuffered))
		}
		rest := make([]byte, remainder)
		if err := readExact(in.r, rest); err != nil {
			if err == io.EOF {
				return nil, wire.NewFramingError(errors.New("stream ended mid-frame"))
			}
			return nil, err
		}
		in.buffered = 0
		payload := make([]byte, 0, 2+len(rest))
		payload = append(payload, header[7:9]...)
		payload = append(payload, rest...)
		return payload, nil
	}
}
