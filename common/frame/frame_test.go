package frame

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcsniff2/common/wire"
)

// S5 from spec.md §8: one incoming frame reassembles to
// header[7:9] ++ remainder.
func TestIncomingNext(t *testing.T) {
	header := []byte{Magic, 0, 0, 0, 14, 0xAA, 0xBB, 0xCC, 0xDD}
	remainder := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	stream := append(append([]byte{}, header...), remainder...)

	in := NewIncoming(bytes.NewReader(stream), 0)
	payload, err := in.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCC, 0xDD, 0x01, 0x02, 0x03, 0x04, 0x05}, payload)
}

// spec.md §4.2: an incoming header with a mismatched magic byte is
// skipped, not treated as fatal; the next well-formed header still
// reassembles.
func TestIncomingSkipsBadMagic(t *testing.T) {
	bad := []byte{0x00, 0, 0, 0, 9, 0, 0, 0, 0}
	good := []byte{Magic, 0, 0, 0, 11, 0xAA, 0xBB, 0x01, 0x02, 0x03, 0x04}
	stream := append(append([]byte{}, bad...), good...)

	in := NewIncoming(bytes.NewReader(stream), 0)
	payload, err := in.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, payload)
}

func TestIncomingCleanEOFBetweenFrames(t *testing.T) {
	in := NewIncoming(bytes.NewReader(nil), 0)
	_, err := in.Next()
	assert.Equal(t, io.EOF, err)
}

func TestIncomingShortReadMidFrameIsFraming(t *testing.T) {
	header := []byte{Magic, 0, 0, 0, 20, 0, 0, 0, 0}
	stream := append(append([]byte{}, header...), 0x01, 0x02) // far short of remainder=11
	in := NewIncoming(bytes.NewReader(stream), 0)
	_, err := in.Next()
	require.Error(t, err)
	assert.True(t, wire.IsDecodeErrorKind(err, wire.KindFraming))
}

func TestIncomingOversizedLengthHitsBufferCap(t *testing.T) {
	header := []byte{Magic, 0, 0, 0, 9, 0, 0, 0, 0} // remainder=0, fits cap trivially
	in := NewIncoming(bytes.NewReader(header), 0)
	_, err := in.Next()
	require.NoError(t, err)

	// Now force the cap directly with a remainder bigger than maxBuffered.
	big := []byte{Magic, 0, 0, 0, 109, 0, 0, 0, 0}
	big = append(big, make([]byte, 100)...)
	in2 := NewIncoming(bytes.NewReader(big), 10)
	_, err = in2.Next()
	require.Error(t, err)
	assert.True(t, wire.IsDecodeErrorKind(err, wire.KindFraming))
}

func TestIncomingNegativeLengthIsFraming(t *testing.T) {
	header := []byte{Magic, 0xFF, 0xFF, 0xFF, 0xF0, 0, 0, 0, 0} // encodes a length < 9
	in := NewIncoming(bytes.NewReader(header), 0)
	_, err := in.Next()
	require.Error(t, err)
	assert.True(t, wire.IsDecodeErrorKind(err, wire.KindFraming))
}

// S6 from spec.md §8: one outgoing frame reassembles to body[2:].
func TestOutgoingNext(t *testing.T) {
	header := []byte{Magic, 0, 0, 0, 10}
	body := []byte{0xAA, 0xBB, 0x01, 0x02, 0x03}
	stream := append(append([]byte{}, header...), body...)

	out := NewOutgoing(bytes.NewReader(stream), 0)
	payload, err := out.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, payload)
}

func TestOutgoingSkipsBadMagic(t *testing.T) {
	bad := []byte{0x00, 0, 0, 0, 7}
	good := []byte{Magic, 0, 0, 0, 7, 0xAA, 0xBB}
	stream := append(append([]byte{}, bad...), good...)

	out := NewOutgoing(bytes.NewReader(stream), 0)
	payload, err := out.Next()
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestOutgoingCleanEOFBetweenFrames(t *testing.T) {
	out := NewOutgoing(bytes.NewReader(nil), 0)
	_, err := out.Next()
	assert.Equal(t, io.EOF, err)
}

func TestOutgoingMinimalFrameIsEmptyPayload(t *testing.T) {
	header := []byte{Magic, 0, 0, 0, 7, 0x00, 0x00}
	out := NewOutgoing(bytes.NewReader(header), 0)
	payload, err := out.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{}, payload)
}
