package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorReadsWriterOutput(t *testing.T) {
	w := NewWriter()
	w.PutHeader(Header{Status: StatusRendering, Type: MessageStatus})
	w.PutInt32(-7)
	w.PutUint64(1 << 40)
	w.PutFloat32(1.5)
	w.PutFloat64(-2.25)
	w.PutString("arm/link_1")

	c := NewCursor(w.Bytes())
	h, err := ReadHeader(c)
	require.NoError(t, err)
	assert.Equal(t, StatusRendering, h.Status)
	assert.Equal(t, MessageStatus, h.Type)

	i, err := c.Int32("i")
	require.NoError(t, err)
	assert.Equal(t, int32(-7), i)
	u, err := c.Uint64("u")
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), u)
	f, err := c.Float32("f")
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f)
	d, err := c.Float64("d")
	require.NoError(t, err)
	assert.Equal(t, -2.25, d)
	s, err := c.String("s")
	require.NoError(t, err)
	assert.Equal(t, "arm/link_1", s)
	assert.Zero(t, c.Remaining())
}

func TestTerminatingHeaderHasNoType(t *testing.T) {
	w := NewWriter()
	w.PutHeader(Header{Status: StatusTerminating, Type: MessageContactInfoUpdate})
	assert.Equal(t, 4, w.Len())

	h, err := ReadHeader(NewCursor(w.Bytes()))
	require.NoError(t, err)
	assert.True(t, h.Terminating())
}

func TestCursorExhaustion(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})
	_, err := c.Uint64("config_number")
	require.Error(t, err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "config_number", de.Field)
	assert.Equal(t, 0, de.Offset)
	assert.ErrorIs(t, err, ErrBufferExhausted)
	assert.Equal(t, 3, c.Remaining(), "failed read must not consume")
}

func TestCursorMalformedString(t *testing.T) {
	w := NewWriter()
	w.PutUint64(1000)
	w.PutRaw([]byte("short"))

	c := NewCursor(w.Bytes())
	_, err := c.String("name")
	assert.ErrorIs(t, err, ErrMalformedString)
	assert.Equal(t, 0, c.Offset())
}

func TestCursorImplausibleCount(t *testing.T) {
	w := NewWriter()
	w.PutUint64(1 << 50)
	w.PutFloat64(1)

	_, err := NewCursor(w.Bytes()).Count("object_count", 8)
	assert.ErrorIs(t, err, ErrImplausibleCount)

	w = NewWriter()
	w.PutUint64(2)
	w.PutFloat64(1)
	w.PutFloat64(2)
	n, err := NewCursor(w.Bytes()).Count("object_count", 8)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRequestOpcodes(t *testing.T) {
	for op := RequestObjectPosition; op <= RequestConfigXML; op++ {
		b := EncodeRequest(op)
		require.Len(t, b, OpcodeSize)
		got, err := DecodeRequest(b)
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}

	_, err := DecodeRequest(EncodeRequest(ClientMessageType(42)))
	assert.Error(t, err)
	_, err = DecodeRequest([]byte{0})
	assert.Error(t, err)
}
