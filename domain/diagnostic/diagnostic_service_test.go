package diagnostic

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/simviz/pkg/processing"
	"github.com/open-teleop/simviz/pkg/scene"
	"github.com/open-teleop/simviz/pkg/session"
)

type fakeSession struct {
	ticks int64
}

func (f *fakeSession) Status() session.Status {
	return session.Status{
		State: session.StateRunning,
		Stats: session.Stats{Ticks: f.ticks, SoftFailures: 2},
	}
}

type fakeScene struct{}

func (fakeScene) Stats() scene.StoreStats { return scene.StoreStats{Nodes: 4, Markers: 6} }

type fakePool struct{}

func (fakePool) GetMetrics() processing.PoolMetrics {
	return processing.PoolMetrics{ProcessedCount: 10, DroppedCount: 1}
}
func (fakePool) GetQueueLength() int   { return 3 }
func (fakePool) GetQueueCapacity() int { return 8 }

func TestGetMetrics(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	sess := &fakeSession{ticks: 100}
	svc := newDiagnosticService(sess, func() time.Time { return now })

	now = start.Add(90 * time.Second)
	m := svc.GetMetrics()
	assert.Equal(t, "1m30s", m.Uptime)
	assert.Zero(t, m.TickRate, "no rate before a second snapshot")
	assert.Equal(t, int64(2), m.SoftFailures)
	assert.Nil(t, m.Scene)
	assert.Nil(t, m.Pool)

	svc.SetScene(fakeScene{})
	svc.SetPool(fakePool{})
	svc.AddFeed("websocket", func() interface{} { return map[string]int{"clients": 2} })

	sess.ticks = 150
	now = now.Add(time.Second)
	m = svc.GetMetrics()
	assert.InDelta(t, 50.0, m.TickRate, 1e-9)
	require.NotNil(t, m.Scene)
	assert.Equal(t, 4, m.Scene.Nodes)
	require.NotNil(t, m.Pool)
	assert.Equal(t, int64(10), m.Pool.ProcessedCount)
	assert.Equal(t, 3, m.Pool.QueueLength)
	assert.Equal(t, map[string]int{"clients": 2}, m.Feeds["websocket"])
}

func TestGetMetricsHandler(t *testing.T) {
	svc := NewDiagnosticService(&fakeSession{})
	svc.SetPool(fakePool{})

	app := fiber.New()
	app.Get("/api/diagnostics", svc.GetMetricsHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/diagnostics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out struct {
		Status  string `json:"status"`
		Metrics struct {
			Session struct {
				State string `json:"state"`
			} `json:"session"`
			Pool struct {
				DroppedCount  int64 `json:"dropped_count"`
				QueueCapacity int   `json:"queue_capacity"`
			} `json:"pool"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, "running", out.Metrics.Session.State)
	assert.Equal(t, int64(1), out.Metrics.Pool.DroppedCount)
	assert.Equal(t, 8, out.Metrics.Pool.QueueCapacity)
}
