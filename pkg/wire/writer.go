package wire

import "math"

// Writer builds a logical response payload. The client never sends one; the
// scripted server and the tests do.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// Bytes returns the encoded payload.
func (w *Writer) Bytes() []byte { return w.buf }

// Len is the number of encoded bytes.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) PutInt32(v int32) {
	w.buf = ByteOrder.AppendUint32(w.buf, uint32(v))
}

func (w *Writer) PutUint64(v uint64) {
	w.buf = ByteOrder.AppendUint64(w.buf, v)
}

func (w *Writer) PutFloat32(v float32) {
	w.buf = ByteOrder.AppendUint32(w.buf, math.Float32bits(v))
}

func (w *Writer) PutFloat64(v float64) {
	w.buf = ByteOrder.AppendUint64(w.buf, math.Float64bits(v))
}

func (w *Writer) PutString(s string) {
	w.PutUint64(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// PutRaw appends b unchanged.
func (w *Writer) PutRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

// PutHeader writes a response header. A terminating header carries no message type.
func (w *Writer) PutHeader(h Header) {
	w.PutInt32(int32(h.Status))
	if h.Terminating() {
		return
	}
	w.PutInt32(int32(h.Type))
}
