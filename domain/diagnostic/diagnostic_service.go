package diagnostic

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/simviz/pkg/processing"
	"github.com/open-teleop/simviz/pkg/scene"
	"github.com/open-teleop/simviz/pkg/session"
)

// SessionSource reports the session status.
type SessionSource interface {
	Status() session.Status
}

// SceneSource reports the resident scene counters.
type SceneSource interface {
	Stats() scene.StoreStats
}

// PoolSource reports frame pool metrics.
type PoolSource interface {
	GetMetrics() processing.PoolMetrics
	GetQueueLength() int
	GetQueueCapacity() int
}

// PoolMetrics is a pool snapshot with its queue occupancy.
type PoolMetrics struct {
	processing.PoolMetrics
	QueueLength   int `json:"queue_length"`
	QueueCapacity int `json:"queue_capacity"`
}

// SystemMetrics represents the client diagnostics
type SystemMetrics struct {
	Timestamp    time.Time              `json:"timestamp"`
	Uptime       string                 `json:"uptime"`
	Session      session.Status         `json:"session"`
	TickRate     float64                `json:"tick_rate"` // ticks per second since the previous snapshot
	SoftFailures int64                  `json:"soft_failures"`
	Scene        *scene.StoreStats      `json:"scene,omitempty"`
	Pool         *PoolMetrics           `json:"pool,omitempty"`
	Feeds        map[string]interface{} `json:"feeds,omitempty"`
}

// DiagnosticService collects diagnostics from the running components
type DiagnosticService struct {
	mu      sync.Mutex
	started time.Time
	now     func() time.Time

	session SessionSource
	scene   SceneSource
	pool    PoolSource
	feeds   map[string]func() interface{}

	lastAt    time.Time
	lastTicks int64
}

// NewDiagnosticService creates a new diagnostic service instance
func NewDiagnosticService(sess SessionSource) *DiagnosticService {
	return newDiagnosticService(sess, time.Now)
}

func newDiagnosticService(sess SessionSource, now func() time.Time) *DiagnosticService {
	return &DiagnosticService{
		started: now(),
		now:     now,
		session: sess,
		feeds:   make(map[string]func() interface{}),
	}
}

// SetScene adds the resident scene counters to the report
func (s *DiagnosticService) SetScene(src SceneSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene = src
}

// SetPool adds frame pool metrics to the report
func (s *DiagnosticService) SetPool(src PoolSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = src
}

// AddFeed adds a named feed whose stats func is called for every report
func (s *DiagnosticService) AddFeed(name string, stats func() interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[name] = stats
}

// GetMetrics builds a snapshot
func (s *DiagnosticService) GetMetrics() SystemMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	status := s.session.Status()
	m := SystemMetrics{
		Timestamp:    now,
		Uptime:       now.Sub(s.started).Truncate(time.Second).String(),
		Session:      status,
		SoftFailures: status.Stats.SoftFailures,
	}

	if !s.lastAt.IsZero() {
		if elapsed := now.Sub(s.lastAt).Seconds(); elapsed > 0 {
			m.TickRate = float64(status.Stats.Ticks-s.lastTicks) / elapsed
		}
	}
	s.lastAt = now
	s.lastTicks = status.Stats.Ticks

	if s.scene != nil {
		stats := s.scene.Stats()
		m.Scene = &stats
	}
	if s.pool != nil {
		m.Pool = &PoolMetrics{
			PoolMetrics:   s.pool.GetMetrics(),
			QueueLength:   s.pool.GetQueueLength(),
			QueueCapacity: s.pool.GetQueueCapacity(),
		}
	}
	if len(s.feeds) > 0 {
		m.Feeds = make(map[string]interface{}, len(s.feeds))
		for name, stats := range s.feeds {
			m.Feeds[name] = stats()
		}
	}
	return m
}

// GetMetricsHandler handles API requests for client diagnostics
func (s *DiagnosticService) GetMetricsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"metrics": s.GetMetrics(),
	})
}
