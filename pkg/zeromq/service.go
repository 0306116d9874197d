package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/open-teleop/simviz/pkg/config"
	customlog "github.com/open-teleop/simviz/pkg/log"
)

// Common errors
var (
	ErrServiceClosed      = errors.New("zeromq service is closed")
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Message types
const (
	MsgTypeStatusRequest  = "STATUS_REQUEST"
	MsgTypeStatusResponse = "STATUS_RESPONSE"
	MsgTypePauseRequest   = "PAUSE_REQUEST"
	MsgTypeResumeRequest  = "RESUME_REQUEST"
	MsgTypeDisplayRequest = "DISPLAY_REQUEST"
	MsgTypeDisplayUpdate  = "DISPLAY_UPDATE"
	MsgTypeDisplayChanged = "DISPLAY_CHANGED"
	MsgTypeAck            = "ACK"
	MsgTypeError          = "ERROR"
)

// ZeroMQMessage represents a generic message structure for ZeroMQ communication
type ZeroMQMessage struct {
	Type      string          `json:"type"`
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ErrorResponse represents an error response message
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MessageHandler defines the interface for handlers that process specific message types
type MessageHandler interface {
	HandleMessage(msg *ZeroMQMessage) (interface{}, error)
}

// HandlerFunc is a function type that implements MessageHandler
type HandlerFunc func(msg *ZeroMQMessage) (interface{}, error)

// HandleMessage calls the function
func (f HandlerFunc) HandleMessage(msg *ZeroMQMessage) (interface{}, error) {
	return f(msg)
}

// newMessage wraps data in the JSON envelope
func newMessage(messageType string, data interface{}) ([]byte, error) {
	msg := struct {
		Type      string      `json:"type"`
		Timestamp float64     `json:"timestamp"`
		Data      interface{} `json:"data,omitempty"`
	}{
		Type:      messageType,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		Data:      data,
	}
	return json.Marshal(msg)
}

// MessageReceiver answers control requests on a REP socket
type MessageReceiver struct {
	socket       *zmq4.Socket
	dispatcher   *MessageDispatcher
	poller       *zmq4.Poller
	pollInterval time.Duration
	endpoint     string
	logger       customlog.Logger
	started      atomic.Bool
	running      atomic.Bool
	wg           *sync.WaitGroup
}

// newMessageReceiver creates a new MessageReceiver
func newMessageReceiver(ctx *zmq4.Context, cfg config.ZeroMQBootstrap, dispatcher *MessageDispatcher, logger customlog.Logger, wg *sync.WaitGroup) (*MessageReceiver, error) {
	socket, err := ctx.NewSocket(zmq4.REP)
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	// Set send timeout to prevent indefinite blocking during shutdown
	if err := socket.SetSndtimeo(time.Second); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set send timeout: %w", err)
	}

	if err := socket.Bind(cfg.ControlBindAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", cfg.ControlBindAddress, err)
	}

	// Create poller for non-blocking receives
	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	pollInterval := time.Duration(cfg.ControlPollIntervalMs) * time.Millisecond
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}

	endpoint, _ := socket.GetLastEndpoint()
	logger.Infof("MessageReceiver initialized on %s", endpoint)

	return &MessageReceiver{
		socket:       socket,
		dispatcher:   dispatcher,
		poller:       poller,
		pollInterval: pollInterval,
		endpoint:     endpoint,
		logger:       logger,
		wg:           wg,
	}, nil
}

// Endpoint returns the address the socket is bound to
func (r *MessageReceiver) Endpoint() string {
	return r.endpoint
}

// Start begins the message receiving loop. The loop owns the socket and
// closes it on exit.
func (r *MessageReceiver) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	r.running.Store(true)
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer r.socket.Close()
		r.logger.Infof("MessageReceiver started")

		for r.running.Load() {
			// Poll with timeout to allow for clean shutdown
			sockets, err := r.poller.Poll(r.pollInterval)
			if err != nil {
				if r.running.Load() {
					r.logger.Errorf("Error polling socket: %v", err)
				}
				continue
			}
			if len(sockets) == 0 {
				continue
			}

			msg, err := r.socket.RecvBytes(0)
			if err != nil {
				if r.running.Load() {
					r.logger.Errorf("Error receiving message: %v", err)
				}
				continue
			}
			r.logger.Debugf("Received control message (%d bytes)", len(msg))

			response, err := r.dispatcher.Dispatch(msg)
			if err != nil {
				r.logger.Warnf("Error dispatching message: %v", err)
				code := 500
				if errors.Is(err, ErrInvalidMessage) || errors.Is(err, ErrUnknownMessageType) {
					code = 400
				}
				response, _ = newMessage(MsgTypeError, ErrorResponse{Message: err.Error(), Code: code})
			}

			// REP sockets must answer every request before receiving the next one
			if _, err := r.socket.SendBytes(response, 0); err != nil && r.running.Load() {
				r.logger.Errorf("Error sending response: %v", err)
			}
		}
		r.logger.Infof("MessageReceiver stopped")
	}()
}

// Stop halts the message receiving loop after the current poll. A receiver
// that never started closes its socket here.
func (r *MessageReceiver) Stop() {
	r.running.Store(false)
	if r.started.CompareAndSwap(false, true) {
		r.socket.Close()
	}
}

// MessageSender publishes frames on a PUB socket
type MessageSender struct {
	socket   *zmq4.Socket
	endpoint string
	logger   customlog.Logger
	running  bool
	mu       sync.Mutex
}

// newMessageSender creates a new MessageSender
func newMessageSender(ctx *zmq4.Context, cfg config.ZeroMQBootstrap, logger customlog.Logger) (*MessageSender, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	pubAddress := cfg.PublishBindAddress
	if err := socket.Bind(pubAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", pubAddress, err)
	}

	endpoint, _ := socket.GetLastEndpoint()
	logger.Infof("MessageSender initialized on %s", endpoint)

	return &MessageSender{
		socket:   socket,
		endpoint: endpoint,
		logger:   logger,
		running:  true,
	}, nil
}

// PublishMessage sends a message with the given topic
func (s *MessageSender) PublishMessage(topic string, message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServiceClosed
	}

	// Send two frames in sequence (topic first, then message)
	if _, err := s.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := s.socket.SendBytes(message, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Endpoint returns the address the socket is bound to
func (s *MessageSender) Endpoint() string {
	return s.endpoint
}

// Close cleans up resources
func (s *MessageSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.socket != nil {
		s.socket.Close()
		s.socket = nil
	}
}

// MessageDispatcher routes messages to the appropriate handlers
type MessageDispatcher struct {
	handlers map[string]MessageHandler
	logger   customlog.Logger
	mu       sync.RWMutex
}

// NewMessageDispatcher creates a new message dispatcher
func NewMessageDispatcher(logger customlog.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// RegisterHandler adds a handler for a specific message type
func (d *MessageDispatcher) RegisterHandler(messageType string, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[messageType] = handler
	d.logger.Debugf("Registered handler for message type: %s", messageType)
}

// Dispatch parses a JSON request, runs its handler and encodes the reply.
// Handlers return the response envelope's data; a nil result is acknowledged.
func (d *MessageDispatcher) Dispatch(data []byte) ([]byte, error) {
	var msg ZeroMQMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}

	d.mu.RLock()
	handler, exists := d.handlers[msg.Type]
	d.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}

	d.logger.Debugf("Dispatching message of type: %s", msg.Type)
	result, err := handler.HandleMessage(&msg)
	if err != nil {
		return nil, err
	}
	if reply, ok := result.(*Reply); ok {
		return newMessage(reply.Type, reply.Data)
	}
	return newMessage(MsgTypeAck, result)
}

// Reply lets a handler choose the response type.
type Reply struct {
	Type string
	Data interface{}
}

// ZeroMQService coordinates the frame feed and the optional control endpoint
type ZeroMQService struct {
	config     config.ZeroMQBootstrap
	ctx        *zmq4.Context
	receiver   *MessageReceiver
	sender     *MessageSender
	dispatcher *MessageDispatcher
	logger     customlog.Logger
	running    atomic.Bool
	stopped    atomic.Bool
	wg         sync.WaitGroup
}

// NewZeroMQService creates a new ZeroMQ service. The control endpoint is only
// bound when cfg.ControlBindAddress is set.
func NewZeroMQService(cfg config.ZeroMQBootstrap, logger customlog.Logger) (*ZeroMQService, error) {
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	s := &ZeroMQService{
		config:     cfg,
		ctx:        ctx,
		dispatcher: NewMessageDispatcher(logger),
		logger:     logger,
	}

	s.sender, err = newMessageSender(ctx, cfg, logger)
	if err != nil {
		ctx.Term()
		return nil, err
	}

	if cfg.ControlBindAddress != "" {
		s.receiver, err = newMessageReceiver(ctx, cfg, s.dispatcher, logger, &s.wg)
		if err != nil {
			s.sender.Close()
			ctx.Term()
			return nil, err
		}
	}
	return s, nil
}

// RegisterHandler adds a handler for a specific message type
func (s *ZeroMQService) RegisterHandler(messageType string, handler MessageHandler) {
	s.dispatcher.RegisterHandler(messageType, handler)
}

// RegisterHandlerFunc adds a handler function for a specific message type
func (s *ZeroMQService) RegisterHandlerFunc(messageType string, handler func(*ZeroMQMessage) (interface{}, error)) {
	s.dispatcher.RegisterHandler(messageType, HandlerFunc(handler))
}

// Start begins the ZeroMQ service
func (s *ZeroMQService) Start() error {
	if s.stopped.Load() {
		return ErrServiceClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Infof("Starting ZeroMQ service")
	if s.receiver != nil {
		s.receiver.Start()
	}
	return nil
}

// Stop halts the ZeroMQ service and releases its sockets. It may be called
// without Start.
func (s *ZeroMQService) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.running.Store(false)
	s.logger.Infof("Stopping ZeroMQ service")

	if s.receiver != nil {
		s.receiver.Stop()
	}
	s.sender.Close()

	s.wg.Wait()

	if err := s.ctx.Term(); err != nil {
		s.logger.Warnf("Error terminating ZMQ context: %v", err)
	}
	s.logger.Infof("ZeroMQ service stopped")
}

// PublishEndpoint is the bound address of the frame feed
func (s *ZeroMQService) PublishEndpoint() string {
	return s.sender.Endpoint()
}

// ControlEndpoint is the bound address of the control endpoint, or ""
func (s *ZeroMQService) ControlEndpoint() string {
	if s.receiver == nil {
		return ""
	}
	return s.receiver.Endpoint()
}

// PublishMessage sends a message with the given topic
func (s *ZeroMQService) PublishMessage(topic string, message []byte) error {
	if !s.running.Load() {
		return ErrServiceClosed
	}
	return s.sender.PublishMessage(topic, message)
}

// PublishJSON publishes a JSON-serializable message with the given topic
func (s *ZeroMQService) PublishJSON(topic string, messageType string, data interface{}) error {
	msgData, err := newMessage(messageType, data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return s.PublishMessage(topic, msgData)
}
