package wire

import (
	"errors"
	"io"
)

// FrameChunks splits a logical payload into wire chunks. Every chunk but the
// last carries ChunkPayloadSize bytes and SentinelMore. The last chunk ends in
// SentinelEnd and is zero-padded to PacketSize when pad is set.
func FrameChunks(payload []byte, pad bool) [][]byte {
	var chunks [][]byte
	for {
		n := len(payload)
		last := n <= ChunkPayloadSize
		if !last {
			n = ChunkPayloadSize
		}
		size := n + SentinelSize
		if last && pad {
			size = PacketSize
		}
		chunk := make([]byte, size)
		copy(chunk, payload[:n])
		if last {
			chunk[size-1] = SentinelEnd
			return append(chunks, chunk)
		}
		chunk[size-1] = SentinelMore
		chunks = append(chunks, chunk)
		payload = payload[n:]
	}
}

// WriteChunked frames payload and writes every chunk to w.
func WriteChunked(w io.Writer, payload []byte, pad bool) error {
	for _, chunk := range FrameChunks(payload, pad) {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// ReadChunked reassembles one response from r into buf and returns the
// logical payload with every sentinel byte excised.
//
// Each chunk is read in full. A chunk cut short by end of stream is the final
// chunk. A zero-length read before any data is ErrConnectionClosed; after a
// SentinelMore chunk it ends the response.
func ReadChunked(r io.Reader, buf *Buffer) ([]byte, error) {
	buf.Reset()
	first := true
	for {
		slot, err := buf.slot(PacketSize)
		if err != nil {
			return nil, err
		}
		n, err := io.ReadFull(r, slot)
		if n == 0 {
			if errors.Is(err, io.EOF) {
				if first {
					return nil, ErrConnectionClosed
				}
				return buf.Bytes(), nil
			}
			return nil, err
		}
		if n < PacketSize && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, err
		}
		sentinel := slot[n-1]
		slot[n-1] = 0
		buf.commit(n - SentinelSize)
		first = false
		if n < PacketSize || sentinel != SentinelMore {
			return buf.Bytes(), nil
		}
	}
}
