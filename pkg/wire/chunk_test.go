package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patterned(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		// never produce sentinel values so leaked sentinels are detectable
		b[i] = byte('A' + i%26)
	}
	return b
}

func TestFrameChunksBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		payload int
		pad     bool
		sizes   []int
	}{
		{name: "empty", payload: 0, sizes: []int{1}},
		{name: "empty padded", payload: 0, pad: true, sizes: []int{PacketSize}},
		{name: "one full chunk", payload: ChunkPayloadSize, sizes: []int{PacketSize}},
		{name: "one byte over", payload: ChunkPayloadSize + 1, sizes: []int{PacketSize, 2}},
		{name: "three chunks", payload: 2*ChunkPayloadSize + 10, sizes: []int{PacketSize, PacketSize, 11}},
		{name: "three chunks padded", payload: 2*ChunkPayloadSize + 10, pad: true, sizes: []int{PacketSize, PacketSize, PacketSize}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chunks := FrameChunks(patterned(tc.payload), tc.pad)
			require.Len(t, chunks, len(tc.sizes))
			for i, chunk := range chunks {
				assert.Len(t, chunk, tc.sizes[i], "chunk %d", i)
				want := SentinelMore
				if i == len(chunks)-1 {
					want = SentinelEnd
				}
				assert.Equal(t, want, chunk[len(chunk)-1], "sentinel of chunk %d", i)
			}
		})
	}
}

func TestReadChunkedReassemblesThreeChunks(t *testing.T) {
	payload := patterned(2*PacketSize - 2*SentinelSize + 10)

	var stream bytes.Buffer
	require.NoError(t, WriteChunked(&stream, payload, false))
	require.Equal(t, 2*PacketSize+11, stream.Len())

	got, err := ReadChunked(&stream, NewBuffer(0))
	require.NoError(t, err)
	assert.Len(t, got, len(payload))
	assert.Equal(t, payload, got)
	assert.NotContains(t, string(got), string([]byte{SentinelMore}))
	assert.NotContains(t, string(got), string([]byte{SentinelEnd}))
}

func TestReadChunkedPaddedFinalChunk(t *testing.T) {
	payload := patterned(ChunkPayloadSize + 100)

	var stream bytes.Buffer
	require.NoError(t, WriteChunked(&stream, payload, true))
	// a second response queued behind the first must not be consumed
	require.NoError(t, WriteChunked(&stream, []byte("next"), true))

	buf := NewBuffer(0)
	got, err := ReadChunked(&stream, buf)
	require.NoError(t, err)
	require.Len(t, got, 2*ChunkPayloadSize)
	assert.Equal(t, payload, got[:len(payload)])
	assert.Equal(t, make([]byte, len(got)-len(payload)), got[len(payload):])

	next, err := ReadChunked(&stream, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("next"), next[:4])
}

func TestReadChunkedOneByteReads(t *testing.T) {
	payload := patterned(3*ChunkPayloadSize + 1)
	var stream bytes.Buffer
	require.NoError(t, WriteChunked(&stream, payload, true))

	got, err := ReadChunked(iotest.OneByteReader(&stream), NewBuffer(0))
	require.NoError(t, err)
	assert.Equal(t, payload, got[:len(payload)])
}

func TestReadChunkedZeroLengthReadIsConnectionLoss(t *testing.T) {
	_, err := ReadChunked(bytes.NewReader(nil), NewBuffer(0))
	assert.True(t, errors.Is(err, ErrConnectionClosed), "got %v", err)
}

func TestReadChunkedEOFAfterContinuationEndsResponse(t *testing.T) {
	chunk := make([]byte, PacketSize)
	copy(chunk, "abc")
	chunk[PacketSize-1] = SentinelMore

	got, err := ReadChunked(bytes.NewReader(chunk), NewBuffer(0))
	require.NoError(t, err)
	assert.Len(t, got, ChunkPayloadSize)
	assert.Equal(t, "abc", string(got[:3]))
}

func TestReadChunkedRespectsCapacity(t *testing.T) {
	var stream bytes.Buffer
	require.NoError(t, WriteChunked(&stream, patterned(3*ChunkPayloadSize), true))

	_, err := ReadChunked(&stream, NewBuffer(2*PacketSize))
	assert.ErrorIs(t, err, ErrBufferOverflow)
}

func TestReadChunkedPropagatesReadErrors(t *testing.T) {
	boom := errors.New("reset by peer")
	r := io.MultiReader(bytes.NewReader(make([]byte, 10)), iotest.ErrReader(boom))

	_, err := ReadChunked(r, NewBuffer(0))
	assert.ErrorIs(t, err, boom)
}

func TestBufferResetClearsPreviousResponse(t *testing.T) {
	buf := NewBuffer(0)
	var stream bytes.Buffer
	require.NoError(t, WriteChunked(&stream, []byte("first response"), true))
	require.NoError(t, WriteChunked(&stream, []byte("2nd"), true))

	_, err := ReadChunked(&stream, buf)
	require.NoError(t, err)
	got, err := ReadChunked(&stream, buf)
	require.NoError(t, err)
	assert.Equal(t, "2nd", string(got[:3]))
	assert.Equal(t, make([]byte, len(got)-3), got[3:])
}
