package session

import (
	"errors"
	"fmt"

	"github.com/open-teleop/simviz/pkg/wire"
)

var (
	ErrNotConnected     = errors.New("session: not connected")
	ErrAlreadyConnected = errors.New("session: already connected")
	ErrTimeout          = errors.New("session: timed out waiting for server")
	ErrConnectionLost   = errors.New("session: connection lost")
	ErrTerminating      = errors.New("session: server is terminating")
)

// ConnectionError is fatal to the session. The caller may reconnect.
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("session: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ProtocolMismatchError reports a response whose message type does not answer the request.
type ProtocolMismatchError struct {
	Request wire.ClientMessageType
	Want    wire.ServerMessageType
	Got     wire.ServerMessageType
}

func (e *ProtocolMismatchError) Error() string {
	return fmt.Sprintf("session: %s answered with %s, want %s", e.Request, e.Got, e.Want)
}
