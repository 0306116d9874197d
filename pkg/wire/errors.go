package wire

import (
	"errors"
	"fmt"
)

var (
	ErrBufferExhausted    = errors.New("wire: read past end of buffer")
	ErrMalformedString    = errors.New("wire: malformed string length")
	ErrImplausibleCount   = errors.New("wire: count exceeds remaining payload")
	ErrParamCountMismatch = errors.New("wire: shape parameter count mismatch")
	ErrUnknownKind        = errors.New("wire: unknown kind tag")
	ErrBufferOverflow     = errors.New("wire: response exceeds receive buffer capacity")
	ErrConnectionClosed   = errors.New("wire: connection closed before any data")
)

// DecodeError reports where in the logical payload decoding stopped.
type DecodeError struct {
	Field  string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: decode %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError wraps err with the field being decoded at offset.
func NewDecodeError(field string, offset int, err error) error {
	return &DecodeError{Field: field, Offset: offset, Err: err}
}
