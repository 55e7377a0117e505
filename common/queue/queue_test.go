package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadsFIFOOrder(t *testing.T) {
	q := NewPayloads()
	go func() {
		q.Send([]byte{1})
		q.Send([]byte{2})
		q.Send([]byte{3})
		q.Close()
	}()

	var got [][]byte
	for {
		v, ok := q.Recv()
		if !ok {
			break
		}
		got = append(got, v)
	}
	require.Len(t, got, 3)
	assert.Equal(t, []byte{1}, got[0])
	assert.Equal(t, []byte{2}, got[1])
	assert.Equal(t, []byte{3}, got[2])
}

func TestPayloadsDrainsBufferedItemsAfterClose(t *testing.T) {
	q := NewPayloads()
	q.Send([]byte{0xAA})
	q.Close()

	v, ok := q.Recv()
	require.True(t, ok)
	assert.Equal(t, []byte{0xAA}, v)

	_, ok = q.Recv()
	assert.False(t, ok)
}
