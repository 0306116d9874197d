package scene

import (
	"errors"
	"fmt"
	"sync"
	"time"

	customlog "github.com/open-teleop/simviz/pkg/log"
)

// ErrDuplicateNode is returned when a node name is already in the scene.
var ErrDuplicateNode = errors.New("scene: duplicate node name")

// NodeState is a resident node and its latest pose.
type NodeState struct {
	NodeSpec
	Position    Vec3  `json:"position"`
	Orientation Quat  `json:"orientation"`
	UpdateCount int64 `json:"update_count"`
	LastUpdated int64 `json:"last_updated"`
}

// MarkerKind distinguishes contact point markers from force markers.
type MarkerKind uint8

const (
	MarkerPoint MarkerKind = 1
	MarkerForce MarkerKind = 2
)

func (k MarkerKind) String() string {
	if k == MarkerForce {
		return "force"
	}
	return "point"
}

// MarshalText renders the kind by name in JSON.
func (k MarkerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Marker is one materialized contact marker.
type Marker struct {
	Kind     MarkerKind `json:"kind"`
	Position Vec3       `json:"position"`
	Force    Vec3       `json:"force"`
}

// StoreStats summarizes the resident scene.
type StoreStats struct {
	Nodes        int   `json:"nodes"`
	Markers      int   `json:"markers"`
	Clears       int64 `json:"clears"`
	PosesApplied int64 `json:"poses_applied"`
}

// Store is the in-memory resident scene. It implements Target and is the
// scene read by the HTTP API.
type Store struct {
	logger       customlog.Logger
	nodes        map[string]*NodeState
	order        []string
	markers      []Marker
	clears       int64
	posesApplied int64
	mu           sync.RWMutex
}

var _ Target = (*Store)(nil)

// NewStore creates an empty scene store
func NewStore(logger customlog.Logger) *Store {
	return &Store{
		logger: logger,
		nodes:  make(map[string]*NodeState),
	}
}

// ClearScene destroys every node and marker.
func (s *Store) ClearScene() {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.nodes)
	s.nodes = make(map[string]*NodeState)
	s.order = nil
	s.markers = nil
	s.clears++

	s.logger.Debugf("Cleared scene (%d nodes)", removed)
}

// CreateNode adds a node at the origin.
func (s *Store) CreateNode(spec NodeSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[spec.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, spec.Name)
	}
	s.nodes[spec.Name] = &NodeState{
		NodeSpec:    spec,
		Orientation: IdentityQuat(),
	}
	s.order = append(s.order, spec.Name)
	return nil
}

// LookupNode returns a handle to a resident node.
func (s *Store) LookupNode(name string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[name]; !exists {
		return nil, false
	}
	return &nodeHandle{store: s, name: name}, true
}

func (s *Store) ClearContacts() {
	s.mu.Lock()
	s.markers = nil
	s.mu.Unlock()
}

func (s *Store) AddContactPoint(position Vec3) {
	s.mu.Lock()
	s.markers = append(s.markers, Marker{Kind: MarkerPoint, Position: position})
	s.mu.Unlock()
}

func (s *Store) AddContactForce(position, force Vec3) {
	s.mu.Lock()
	s.markers = append(s.markers, Marker{Kind: MarkerForce, Position: position, Force: force})
	s.mu.Unlock()
}

// Nodes returns a copy of every node in creation order.
func (s *Store) Nodes() []NodeState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]NodeState, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, *s.nodes[name])
	}
	return out
}

// Node returns a copy of one node.
func (s *Store) Node(name string) (NodeState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, exists := s.nodes[name]
	if !exists {
		return NodeState{}, false
	}
	return *n, true
}

// Markers returns a copy of the current contact markers.
func (s *Store) Markers() []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]Marker(nil), s.markers...)
}

// Stats returns the current counters.
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreStats{
		Nodes:        len(s.nodes),
		Markers:      len(s.markers),
		Clears:       s.clears,
		PosesApplied: s.posesApplied,
	}
}

type nodeHandle struct {
	store *Store
	name  string
}

func (h *nodeHandle) SetPose(position Vec3, orientation Quat) {
	s := h.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// The scene may have been cleared since the lookup.
	n, exists := s.nodes[h.name]
	if !exists {
		return
	}
	n.Position = position
	n.Orientation = orientation
	n.UpdateCount++
	n.LastUpdated = time.Now().UnixNano()
	s.posesApplied++
}
