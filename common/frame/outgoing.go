package frame

import (
	"bufio"
	"io"

	"github.com/pkg/errors"

	"rcsniff2/common/wire"
)

// Outgoing reassembles frames off the directional stream carrying
// traffic toward the remote service (destination port 4533). Header
// layout (spec.md §4.2):
//
//	H[0]   magic, must be 0xFB
//	H[1:5] total frame length, signed int32 big-endian
//	...    remaining payload bytes (total-5 of them), of which the
//	       first two are opaque (spec.md §9 Open Question — unused)
//	       and the rest is the emitted payload.
type Outgoing struct {
	r           *bufio.Reader
	maxBuffered int64
	buffered    int64
}

// NewOutgoing returns an Outgoing reassembler reading from r, fatal once
// more than maxBuffered bytes have been consumed without a successful
// frame emission (spec.md §5 "Backpressure"). maxBuffered <= 0 selects
// DefaultMaxBuffered.
func NewOutgoing(r io.Reader, maxBuffered int64) *Outgoing {
	if maxBuffered <= 0 {
		maxBuffered = DefaultMaxBuffered
	}
	return &Outgoing{r: newBufReader(r), maxBuffered: maxBuffered}
}

// Next reads and emits the payload of the next well-formed frame. It
// returns io.EOF when the stream ends cleanly between frames, or a
// direction-fatal *wire.DecodeError (KindFraming) on a malformed
// length, short body, or buffer overrun.
func (out *Outgoing) Next() ([]byte, error) {
	for {
		header := make([]byte, 5)
		if err := readExact(out.r, header); err != nil {
			return nil, err
		}
		if header[0] != Magic {
			continue
		}
		total := beInt32(header[1:5])
		if total < 5+2 {
			return nil, wire.NewFramingError(errors.Errorf("outgoing frame length %d too small for header and opaque prefix", total))
		}
		remainder := total - 5
		out.buffered += int64(remainder)
		if out.buffered > out.maxBuffered {
			return nil, wire.NewFramingError(errors.Errorf("outgoing direction exceeded buffered-byte cap of %d", out.maxBuffered))
		}
		body := make([]byte, remainder)
		if err := readExact(out.r, body); err != nil {
			if err == io.EOF {
				return nil, wire.NewFramingError(errors.New("stream ended mid-frame"))
			}
			return nil, err
		}
		out.buffered = 0
		payload := make([]byte, len(body)-2)
		copy(payload, body[2:])
		return payload, nil
	}
}
