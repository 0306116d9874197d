package session

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/open-teleop/simviz/pkg/wire"
)

// connection is the Byte Stream Reader: one socket and the receive buffer it
// reassembles responses into.
type connection struct {
	nc           net.Conn
	addr         string
	buf          *wire.Buffer
	readTimeout  time.Duration
	writeTimeout time.Duration
	closeOnce    sync.Once
}

func newConnection(nc net.Conn, cfg Config) *connection {
	return &connection{
		nc:           nc,
		addr:         cfg.Address,
		buf:          wire.NewBuffer(cfg.MaxBufferSize),
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}
}

// exchange sends one request and reassembles its response. Every error it
// returns leaves the stream unusable.
func (c *connection) exchange(ctx context.Context, op wire.ClientMessageType) (*wire.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Cancellation unblocks any pending read or write.
	stop := context.AfterFunc(ctx, func() {
		_ = c.nc.SetDeadline(time.Now())
	})
	defer stop()

	if err := c.nc.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return nil, c.classify(ctx, "write", err)
	}
	if _, err := c.nc.Write(wire.EncodeRequest(op)); err != nil {
		return nil, c.classify(ctx, "write", err)
	}

	if err := c.nc.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return nil, c.classify(ctx, "read", err)
	}
	payload, err := wire.ReadChunked(c.nc, c.buf)
	if err != nil {
		return nil, c.classify(ctx, "read", err)
	}
	return wire.NewCursor(payload), nil
}

func (c *connection) classify(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var ne net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &ConnectionError{Op: op, Addr: c.addr, Err: ErrTimeout}
	}
	if errors.Is(err, wire.ErrConnectionClosed) || errors.Is(err, net.ErrClosed) {
		return &ConnectionError{Op: op, Addr: c.addr, Err: ErrConnectionLost}
	}
	return &ConnectionError{Op: op, Addr: c.addr, Err: err}
}

func (c *connection) close() (closed bool) {
	c.closeOnce.Do(func() {
		_ = c.nc.Close()
		closed = true
	})
	return closed
}
