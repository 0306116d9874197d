package wire

import "math"

// Cursor decodes typed fields sequentially from a logical payload. Every read
// is bounds checked; there is no backtracking.
type Cursor struct {
	buf []byte
	off int
}

func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// Offset is the number of bytes consumed so far.
func (c *Cursor) Offset() int { return c.off }

// Remaining is the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

func (c *Cursor) take(field string, n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, NewDecodeError(field, c.off, ErrBufferExhausted)
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *Cursor) Int32(field string) (int32, error) {
	b, err := c.take(field, 4)
	if err != nil {
		return 0, err
	}
	return int32(ByteOrder.Uint32(b)), nil
}

func (c *Cursor) Uint64(field string) (uint64, error) {
	b, err := c.take(field, 8)
	if err != nil {
		return 0, err
	}
	return ByteOrder.Uint64(b), nil
}

func (c *Cursor) Float32(field string) (float32, error) {
	b, err := c.take(field, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(ByteOrder.Uint32(b)), nil
}

func (c *Cursor) Float64(field string) (float64, error) {
	b, err := c.take(field, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(ByteOrder.Uint64(b)), nil
}

// Float32s reads n consecutive float32 values.
func (c *Cursor) Float32s(field string, n int) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		v, err := c.Float32(field)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Float64s reads n consecutive float64 values.
func (c *Cursor) Float64s(field string, n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		v, err := c.Float64(field)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// String reads a uint64 length followed by that many bytes.
func (c *Cursor) String(field string) (string, error) {
	start := c.off
	n, err := c.Uint64(field)
	if err != nil {
		return "", err
	}
	if n > uint64(c.Remaining()) {
		c.off = start
		return "", NewDecodeError(field, start, ErrMalformedString)
	}
	b, _ := c.take(field, int(n))
	return string(b), nil
}

// Count reads a uint64 element count and rejects counts that cannot fit in
// the rest of the payload given each element needs at least minSize bytes.
func (c *Cursor) Count(field string, minSize int) (int, error) {
	start := c.off
	n, err := c.Uint64(field)
	if err != nil {
		return 0, err
	}
	if minSize < 1 {
		minSize = 1
	}
	if n > uint64(c.Remaining()/minSize) {
		return 0, NewDecodeError(field, start, ErrImplausibleCount)
	}
	return int(n), nil
}
