package wire

// Buffer is the reusable receive arena owned by one session. It grows on
// demand up to its capacity bound and is cleared before every response.
type Buffer struct {
	data []byte
	n    int
	max  int
}

// NewBuffer returns a buffer bounded at max bytes. A non-positive max uses MaxBufferSize.
func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = MaxBufferSize
	}
	initial := 4 * PacketSize
	if initial > max {
		initial = max
	}
	return &Buffer{data: make([]byte, initial), max: max}
}

// Reset zeroes the used prefix and empties the buffer.
func (b *Buffer) Reset() {
	clear(b.data[:b.n])
	b.n = 0
}

// Len is the number of logical bytes held.
func (b *Buffer) Len() int { return b.n }

// Cap is the capacity bound.
func (b *Buffer) Cap() int { return b.max }

// Bytes returns the logical payload. The slice is only valid until the next Reset.
func (b *Buffer) Bytes() []byte { return b.data[:b.n] }

// slot returns n writable bytes after the logical end, growing the backing array.
func (b *Buffer) slot(n int) ([]byte, error) {
	need := b.n + n
	if need > b.max {
		return nil, ErrBufferOverflow
	}
	if need > len(b.data) {
		size := len(b.data) * 2
		for size < need {
			size *= 2
		}
		if size > b.max {
			size = b.max
		}
		grown := make([]byte, size)
		copy(grown, b.data[:b.n])
		b.data = grown
	}
	return b.data[b.n:need], nil
}

// commit advances the logical end by n bytes written into the last slot.
func (b *Buffer) commit(n int) {
	b.n += n
}
