// Package simserver is a scripted simulation server speaking the same wire
// protocol as the real one. It backs cmd/simserver and the session tests.
package simserver

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/wire"
)

var (
	// ErrNoReply makes the server read the next request without answering.
	ErrNoReply = errors.New("simserver: no reply")
	// ErrDrop makes the server close the connection instead of answering.
	ErrDrop = errors.New("simserver: drop connection")
)

// Responder builds the logical payload answering one request.
type Responder interface {
	Respond(op wire.ClientMessageType) ([]byte, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(op wire.ClientMessageType) ([]byte, error)

func (f ResponderFunc) Respond(op wire.ClientMessageType) ([]byte, error) {
	return f(op)
}

// Server accepts client connections and answers every request through a Responder.
type Server struct {
	logger    customlog.Logger
	responder Responder
	// Unpadded final chunks only work when the client reads up to EOF.
	pad bool

	ln       net.Listener
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	requests []wire.ClientMessageType
	wg       sync.WaitGroup
}

// New creates a server that pads every final chunk to the full packet size.
func New(responder Responder, logger customlog.Logger) *Server {
	return &Server{
		logger:    logger,
		responder: responder,
		pad:       true,
		conns:     make(map[net.Conn]struct{}),
	}
}

// Start listens on addr and serves in the background until Close.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Infof("Simulation server listening on %s", ln.Addr())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.serve(ln)
	}()
	return nil
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.Start(addr); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Close()
}

// Addr is the listening address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) serve(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Errorf("Accept failed: %v", err)
			}
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.logger.Infof("Client connected from %s", conn.RemoteAddr())
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.forget(conn)

	opcode := make([]byte, wire.OpcodeSize)
	for {
		if _, err := io.ReadFull(conn, opcode); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debugf("Read from %s failed: %v", conn.RemoteAddr(), err)
			}
			return
		}
		op, err := wire.DecodeRequest(opcode)
		if err != nil {
			s.logger.Warnf("Bad request from %s: %v", conn.RemoteAddr(), err)
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, op)
		s.mu.Unlock()

		payload, err := s.responder.Respond(op)
		switch {
		case errors.Is(err, ErrNoReply):
			continue
		case errors.Is(err, ErrDrop):
			s.logger.Infof("Dropping %s on %s", conn.RemoteAddr(), op)
			return
		case err != nil:
			s.logger.Errorf("Responder failed on %s: %v", op, err)
			return
		}
		if err := wire.WriteChunked(conn, payload, s.pad); err != nil {
			s.logger.Debugf("Write to %s failed: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *Server) forget(conn net.Conn) {
	_ = conn.Close()
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// Requests returns every opcode received so far, in order.
func (s *Server) Requests() []wire.ClientMessageType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]wire.ClientMessageType(nil), s.requests...)
}

// DropConnections closes every client connection.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

// Close stops accepting, drops every client and waits for the handlers.
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.DropConnections()
	s.wg.Wait()
	return err
}
