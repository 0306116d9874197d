// Package session drives the request/response protocol against one
// simulation server and keeps a scene target synchronized with it.
package session

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/scene"
	"github.com/open-teleop/simviz/pkg/wire"
)

// AppearanceParser turns the server's appearance document into a resolver.
type AppearanceParser func(doc string) (scene.Resolver, error)

// DisplaySource supplies the current display toggles.
type DisplaySource interface {
	DisplayFlags() scene.DisplayFlags
}

// FrameSink receives a frame after every successful exchange. It must not block.
type FrameSink interface {
	SubmitFrame(frame *scene.Frame) bool
}

// Dialer opens the stream socket.
type Dialer func(ctx context.Context, network, address string) (net.Conn, error)

// Stats counts what happened across every connection of a Session.
type Stats struct {
	Connects           int64 `json:"connects"`
	Disconnects        int64 `json:"disconnects"`
	Ticks              int64 `json:"ticks"`
	SoftFailures       int64 `json:"soft_failures"`
	DecodeErrors       int64 `json:"decode_errors"`
	ProtocolMismatches int64 `json:"protocol_mismatches"`
	TerminatingTicks   int64 `json:"terminating_ticks"`
	MissingNodes       int64 `json:"missing_nodes"`
	StaleFrames        int64 `json:"stale_frames"`
}

// Status is a snapshot of the session for external readers.
type Status struct {
	State               State              `json:"state"`
	SessionID           string             `json:"session_id,omitempty"`
	Address             string             `json:"address"`
	ServerStatus        string             `json:"server_status,omitempty"`
	LastMessage         string             `json:"last_message,omitempty"`
	ConfigurationNumber uint64             `json:"configuration_number"`
	Objects             int                `json:"objects"`
	Appearance          bool               `json:"appearance"`
	ConnectedAt         time.Time          `json:"connected_at,omitempty"`
	LastError           string             `json:"last_error,omitempty"`
	Stats               Stats              `json:"stats"`
	Display             scene.DisplayFlags `json:"display"`
}

// TickReport describes one Running tick. Soft failures are reported here and
// never returned as errors.
type TickReport struct {
	ConfigurationNumber uint64
	Poses               int
	MissingNodes        []string
	Contacts            int
	Markers             int
	Stale               bool
	// Terminating is set when the server answered with a terminating status.
	Terminating bool
	// Err is the decode or protocol error that abandoned the tick.
	Err error
}

// Session is one client connection to a simulation server. The zero value is
// not usable; see New.
type Session struct {
	cfg    Config
	logger customlog.Logger
	target scene.Target
	dial   Dialer

	parseAppearance AppearanceParser
	display         DisplaySource
	sink            FrameSink

	// exchangeMu is held for every request/response exchange.
	exchangeMu sync.Mutex
	// applyMu serializes changes to target with teardown.
	applyMu sync.Mutex

	mu                sync.RWMutex
	conn              *connection
	state             State
	id                string
	connectedAt       time.Time
	serverStatus      wire.ServerStatus
	lastMessage       wire.ServerMessageType
	resolve           scene.Resolver
	objects           []scene.ObjectDescriptor
	configNumber      uint64
	lastPoseConfig    uint64
	lastContactConfig uint64
	havePoseConfig    bool
	haveContactConfig bool
	lastErr           error
	stats             Stats
}

// New creates a disconnected session that drives target.
func New(cfg Config, target scene.Target, logger customlog.Logger) *Session {
	dialer := &net.Dialer{}
	return &Session{
		cfg:    cfg.withDefaults(),
		logger: logger,
		target: target,
		dial:   dialer.DialContext,
		state:  StateDisconnected,
	}
}

// SetAppearanceParser sets the parser used for the appearance document.
func (s *Session) SetAppearanceParser(p AppearanceParser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parseAppearance = p
}

// SetDisplaySource sets where display toggles are read from.
func (s *Session) SetDisplaySource(d DisplaySource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = d
}

// SetFrameSink sets the consumer of synchronized frames.
func (s *Session) SetFrameSink(sink FrameSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// SetDialer replaces the socket dialer.
func (s *Session) SetDialer(d Dialer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dial = d
}

// Address is the configured server address.
func (s *Session) Address() string {
	return s.cfg.Address
}

// Connect opens the socket, reads the appearance document and the initial
// scene. A terminating server leaves the session disconnected without error.
func (s *Session) Connect(ctx context.Context) error {
	s.exchangeMu.Lock()
	defer s.exchangeMu.Unlock()

	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.state = StateConnecting
	dial := s.dial
	s.mu.Unlock()

	s.logger.Infof("Connecting to simulation server at %s", s.cfg.Address)

	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	nc, err := dial(dialCtx, "tcp", s.cfg.Address)
	cancel()
	if err != nil {
		connErr := &ConnectionError{Op: "dial", Addr: s.cfg.Address, Err: err}
		s.mu.Lock()
		s.state = StateDisconnected
		s.lastErr = connErr
		s.mu.Unlock()
		s.logger.Errorf("Failed to connect: %v", err)
		return connErr
	}

	c := newConnection(nc, s.cfg)
	id := ksuid.New().String()

	s.mu.Lock()
	s.conn = c
	s.id = id
	s.connectedAt = time.Now()
	s.lastErr = nil
	s.resolve = nil
	s.havePoseConfig = false
	s.haveContactConfig = false
	s.stats.Connects++
	s.mu.Unlock()
	s.advance(c, StateReadingConfig)

	if done, err := s.readConfig(ctx, c); done || err != nil {
		return err
	}
	if !s.advance(c, StateInitializing) {
		return ErrConnectionLost
	}
	if done, err := s.initialize(ctx, c); done || err != nil {
		return err
	}
	if !s.advance(c, StateRunning) {
		return ErrConnectionLost
	}
	return nil
}

// readConfig performs the appearance exchange. done reports that the
// session was torn down.
func (s *Session) readConfig(ctx context.Context, c *connection) (done bool, err error) {
	cur, h, err := s.request(ctx, c, wire.RequestConfigXML)
	if err != nil {
		return true, s.failConnect(c, err)
	}
	if h.Terminating() {
		s.terminate(c)
		return true, nil
	}

	// An absent document is handed to the parser as "" so local material
	// tables still apply. Any other message type carries the document.
	var doc string
	if h.Type == wire.MessageNoMessage {
		s.logger.Infof("Server sent no appearance document")
	} else {
		if h.Type != wire.MessageConfigXML {
			s.logger.Warnf("Appearance reply has message type %s, reading it as a document", h.Type)
		}
		doc, err = cur.String("config_xml")
		if err != nil {
			return true, s.failConnect(c, err)
		}
	}

	s.mu.RLock()
	parse := s.parseAppearance
	s.mu.RUnlock()
	if parse == nil {
		s.logger.Debugf("No appearance parser set, ignoring %d byte document", len(doc))
		return false, nil
	}
	resolve, err := parse(doc)
	if err != nil {
		if doc == "" {
			s.logger.Debugf("No appearance resolver without a document: %v", err)
		} else {
			s.logger.Warnf("Failed to parse appearance document: %v", err)
		}
		return false, nil
	}
	s.mu.Lock()
	s.resolve = resolve
	s.mu.Unlock()
	return false, nil
}

// initialize requests the full scene and rebuilds the target from it.
func (s *Session) initialize(ctx context.Context, c *connection) (done bool, err error) {
	cur, h, err := s.request(ctx, c, wire.RequestInitialization)
	if err != nil {
		return true, s.failConnect(c, err)
	}
	if h.Terminating() {
		s.terminate(c)
		return true, nil
	}
	if h.Type != wire.MessageInitialization {
		return true, s.failConnect(c, &ProtocolMismatchError{
			Request: wire.RequestInitialization, Want: wire.MessageInitialization, Got: h.Type,
		})
	}

	init, err := scene.DecodeInitialization(cur)
	if err != nil {
		return true, s.failConnect(c, err)
	}

	s.mu.RLock()
	resolve := s.resolve
	s.mu.RUnlock()
	scene.AssignMaterials(init.Objects, resolve)

	var created int
	var failed map[string]error
	live := s.apply(c, func() {
		created, failed = scene.BuildScene(s.target, init.Objects)
		s.mu.Lock()
		s.objects = init.Objects
		s.configNumber = init.ConfigurationNumber
		s.mu.Unlock()
	})
	if !live {
		return true, ErrConnectionLost
	}
	for name, err := range failed {
		s.logger.Warnf("Failed to create node %q: %v", name, err)
	}

	s.logger.Infof("Initialized scene: %d objects, %d nodes (configuration %d)",
		len(init.Objects), created, init.ConfigurationNumber)

	s.emit(&scene.Frame{
		Kind:                scene.FrameScene,
		ConfigurationNumber: init.ConfigurationNumber,
		Objects:             init.Objects,
	})
	return false, nil
}

// Reinitialize requests the full scene again while Running.
func (s *Session) Reinitialize(ctx context.Context) error {
	s.exchangeMu.Lock()
	defer s.exchangeMu.Unlock()

	c, err := s.running()
	if err != nil {
		return err
	}
	s.advance(c, StateInitializing)
	if done, err := s.initialize(ctx, c); done || err != nil {
		return err
	}
	if !s.advance(c, StateRunning) {
		return ErrConnectionLost
	}
	return nil
}

// Tick runs one position exchange and one contact exchange. Only
// connection-level failures are returned; they leave the session
// disconnected.
func (s *Session) Tick(ctx context.Context) (TickReport, error) {
	s.exchangeMu.Lock()
	defer s.exchangeMu.Unlock()

	var report TickReport
	c, err := s.running()
	if err != nil {
		return report, err
	}

	s.mu.Lock()
	s.stats.Ticks++
	s.mu.Unlock()

	if ok, err := s.tickPositions(ctx, c, &report); !ok || err != nil {
		return report, err
	}
	_, err = s.tickContacts(ctx, c, &report)
	return report, err
}

func (s *Session) tickPositions(ctx context.Context, c *connection, report *TickReport) (bool, error) {
	cur, h, err := s.request(ctx, c, wire.RequestObjectPosition)
	if err != nil {
		return false, s.tickError(report, err)
	}
	if !s.acceptTick(h, wire.RequestObjectPosition, wire.MessageObjectPositionUpdate, report) {
		return false, nil
	}

	update, err := scene.DecodePositions(cur)
	if err != nil {
		s.softFailure(report, err)
		return false, nil
	}
	report.ConfigurationNumber = update.ConfigurationNumber
	report.Poses = len(update.Poses)

	if s.stale(update.ConfigurationNumber, &s.lastPoseConfig, &s.havePoseConfig) {
		report.Stale = true
		if s.cfg.DropStaleFrames {
			return true, nil
		}
	}

	if !s.apply(c, func() { report.MissingNodes = scene.ApplyPoses(s.target, update.Poses) }) {
		return false, nil
	}
	if n := len(report.MissingNodes); n > 0 {
		s.mu.Lock()
		s.stats.MissingNodes += int64(n)
		s.mu.Unlock()
		for _, name := range report.MissingNodes {
			s.logger.Debugf("No scene node for pose target %q", name)
		}
	}

	s.emit(&scene.Frame{
		Kind:                scene.FramePoses,
		ConfigurationNumber: update.ConfigurationNumber,
		Poses:               update.Poses,
	})
	return true, nil
}

func (s *Session) tickContacts(ctx context.Context, c *connection, report *TickReport) (bool, error) {
	cur, h, err := s.request(ctx, c, wire.RequestContactInfos)
	if err != nil {
		return false, s.tickError(report, err)
	}
	if !s.acceptTick(h, wire.RequestContactInfos, wire.MessageContactInfoUpdate, report) {
		return false, nil
	}

	// Markers of the previous tick go before decoding, so a malformed list
	// leaves none behind.
	if !s.apply(c, s.target.ClearContacts) {
		return false, nil
	}
	update, err := scene.DecodeContacts(cur)
	if err != nil {
		s.softFailure(report, err)
		return false, nil
	}
	report.Contacts = len(update.Contacts)

	if s.stale(update.ConfigurationNumber, &s.lastContactConfig, &s.haveContactConfig) {
		report.Stale = true
		if s.cfg.DropStaleFrames {
			return true, nil
		}
	}

	flags := s.displayFlags()
	if !s.apply(c, func() { report.Markers = scene.ReplaceContacts(s.target, update.Contacts, flags) }) {
		return false, nil
	}
	s.emit(&scene.Frame{
		Kind:                scene.FrameContacts,
		ConfigurationNumber: update.ConfigurationNumber,
		Contacts:            update.Contacts,
	})
	return true, nil
}

// acceptTick checks the header of a tick response and records soft failures.
func (s *Session) acceptTick(h wire.Header, req wire.ClientMessageType, want wire.ServerMessageType, report *TickReport) bool {
	if h.Terminating() {
		report.Terminating = true
		s.mu.Lock()
		s.stats.TerminatingTicks++
		s.mu.Unlock()
		s.logger.Warnf("Server is terminating, %s skipped", req)
		return false
	}
	if h.Type != want {
		s.softFailure(report, &ProtocolMismatchError{Request: req, Want: want, Got: h.Type})
		return false
	}
	return true
}

// tickError contains decode errors as soft failures and passes connection
// errors through.
func (s *Session) tickError(report *TickReport, err error) error {
	var de *wire.DecodeError
	if errors.As(err, &de) {
		s.softFailure(report, err)
		return nil
	}
	return err
}

func (s *Session) softFailure(report *TickReport, err error) {
	report.Err = err

	s.mu.Lock()
	s.stats.SoftFailures++
	var mismatch *ProtocolMismatchError
	if errors.As(err, &mismatch) {
		s.stats.ProtocolMismatches++
	} else {
		s.stats.DecodeErrors++
	}
	s.lastErr = err
	s.mu.Unlock()

	s.logger.Warnf("Tick abandoned: %v", err)
}

// stale tracks the last configuration number of one message type.
func (s *Session) stale(n uint64, last *uint64, have *bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	stale := *have && n <= *last
	if stale {
		s.stats.StaleFrames++
		s.logger.Debugf("Non-increasing configuration number %d (last %d)", n, *last)
	} else {
		*last = n
		*have = true
	}
	return stale
}

// Pause asks the server to pause the simulation.
func (s *Session) Pause(ctx context.Context) error {
	return s.control(ctx, wire.RequestPause)
}

// Resume asks the server to resume the simulation.
func (s *Session) Resume(ctx context.Context) error {
	return s.control(ctx, wire.RequestResume)
}

// control sends a request whose response only carries a status.
func (s *Session) control(ctx context.Context, op wire.ClientMessageType) error {
	s.exchangeMu.Lock()
	defer s.exchangeMu.Unlock()

	c, err := s.running()
	if err != nil {
		return err
	}
	_, h, err := s.request(ctx, c, op)
	if err != nil {
		return err
	}
	if h.Terminating() {
		s.terminate(c)
		return nil
	}
	s.logger.Infof("Sent %s, server is %s", op, h.Status)
	return nil
}

// Disconnect closes the connection. It is safe to call at any time,
// including while another call is blocked on the socket.
func (s *Session) Disconnect() {
	s.mu.RLock()
	c := s.conn
	s.mu.RUnlock()
	if c == nil {
		return
	}
	s.logger.Infof("Disconnect requested")
	s.teardown(c, nil)
}

// request performs one exchange and decodes its header. Transport failures
// tear the connection down; a header decode failure is returned as is.
func (s *Session) request(ctx context.Context, c *connection, op wire.ClientMessageType) (*wire.Cursor, wire.Header, error) {
	cur, err := c.exchange(ctx, op)
	if err != nil {
		s.teardown(c, err)
		return nil, wire.Header{}, err
	}
	h, err := wire.ReadHeader(cur)
	if err != nil {
		return nil, h, err
	}

	s.mu.Lock()
	s.serverStatus = h.Status
	if !h.Terminating() {
		s.lastMessage = h.Type
	}
	s.mu.Unlock()
	return cur, h, nil
}

// failConnect tears down a connection whose setup failed and returns err.
func (s *Session) failConnect(c *connection, err error) error {
	s.logger.Errorf("Connection setup failed: %v", err)
	s.teardown(c, err)
	return err
}

// terminate handles a server-initiated shutdown outside of a tick.
func (s *Session) terminate(c *connection) {
	s.advance(c, StateTerminating)
	s.teardown(c, nil)
}

// teardown closes c, clears the scene and marks the session disconnected.
// Only the first call for a connection has any effect.
func (s *Session) teardown(c *connection, cause error) {
	if !c.close() {
		return
	}

	s.applyMu.Lock()
	s.target.ClearScene()
	s.mu.Lock()
	if s.conn == c {
		s.conn = nil
		s.state = StateDisconnected
		s.objects = nil
		s.resolve = nil
		s.stats.Disconnects++
		if cause != nil {
			s.lastErr = cause
		}
	}
	s.mu.Unlock()
	s.applyMu.Unlock()

	if cause != nil {
		s.logger.Errorf("Connection to %s lost: %v", c.addr, cause)
	} else {
		s.logger.Infof("Disconnected from %s", c.addr)
	}
}

// apply runs fn against the target only while c is the live connection. A
// teardown either completes before fn starts or waits until it returns.
func (s *Session) apply(c *connection, fn func()) bool {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.RLock()
	live := s.conn == c
	s.mu.RUnlock()
	if !live {
		s.logger.Debugf("Connection closed, discarding update")
		return false
	}
	fn()
	return true
}

func (s *Session) running() (*connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.conn == nil || s.state != StateRunning {
		return nil, ErrNotConnected
	}
	return s.conn, nil
}

// advance moves the session to state unless c has been torn down.
func (s *Session) advance(c *connection, state State) bool {
	s.mu.Lock()
	if s.conn != c {
		s.mu.Unlock()
		return false
	}
	prev := s.state
	s.state = state
	s.mu.Unlock()

	if prev != state {
		s.logger.Infof("Session state %s -> %s", prev, state)
	}
	return true
}

func (s *Session) displayFlags() scene.DisplayFlags {
	s.mu.RLock()
	d := s.display
	s.mu.RUnlock()
	if d == nil {
		return scene.DefaultDisplayFlags()
	}
	return d.DisplayFlags()
}

func (s *Session) emit(frame *scene.Frame) {
	s.mu.RLock()
	sink := s.sink
	frame.SessionID = s.id
	s.mu.RUnlock()
	if sink == nil {
		return
	}
	frame.Timestamp = time.Now()
	if !sink.SubmitFrame(frame) {
		s.logger.Debugf("Frame sink rejected %s frame", frame.Kind)
	}
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Objects returns the descriptors of the most recent initialization.
func (s *Session) Objects() []scene.ObjectDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]scene.ObjectDescriptor(nil), s.objects...)
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	display := s.displayFlags()

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:               s.state,
		Address:             s.cfg.Address,
		ConfigurationNumber: s.configNumber,
		Objects:             len(s.objects),
		Appearance:          s.resolve != nil,
		Stats:               s.stats,
		Display:             display,
	}
	if s.conn != nil {
		st.SessionID = s.id
		st.ConnectedAt = s.connectedAt
		st.ServerStatus = s.serverStatus.String()
		st.LastMessage = s.lastMessage.String()
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
