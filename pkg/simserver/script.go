package simserver

import (
	"sync"

	"github.com/open-teleop/simviz/pkg/wire"
)

type scripted struct {
	payload []byte
	err     error
}

// Script answers each opcode from a queue, then from a fixed default.
// Opcodes with neither get a NoMessage response.
type Script struct {
	mu       sync.Mutex
	queues   map[wire.ClientMessageType][]scripted
	defaults map[wire.ClientMessageType]scripted
}

func NewScript() *Script {
	return &Script{
		queues:   make(map[wire.ClientMessageType][]scripted),
		defaults: make(map[wire.ClientMessageType]scripted),
	}
}

// Push queues a one-shot payload for op.
func (s *Script) Push(op wire.ClientMessageType, payload []byte) *Script {
	return s.push(op, scripted{payload: payload})
}

// PushError queues a one-shot ErrNoReply or ErrDrop for op.
func (s *Script) PushError(op wire.ClientMessageType, err error) *Script {
	return s.push(op, scripted{err: err})
}

func (s *Script) push(op wire.ClientMessageType, r scripted) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[op] = append(s.queues[op], r)
	return s
}

// Set answers op with payload once its queue is empty.
func (s *Script) Set(op wire.ClientMessageType, payload []byte) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[op] = scripted{payload: payload}
	return s
}

func (s *Script) Respond(op wire.ClientMessageType) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q := s.queues[op]; len(q) > 0 {
		s.queues[op] = q[1:]
		return q[0].payload, q[0].err
	}
	if d, ok := s.defaults[op]; ok {
		return d.payload, d.err
	}
	return NoMessage(wire.StatusRendering), nil
}
