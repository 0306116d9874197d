package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/scene"
	"github.com/open-teleop/simviz/pkg/session"
	"github.com/open-teleop/simviz/services"
)

type fakeSession struct {
	state      session.State
	connectErr error
	controlErr error
	calls      []string
	objects    []scene.ObjectDescriptor
}

func (f *fakeSession) Status() session.Status {
	return session.Status{State: f.state, Address: "sim:8080", ConfigurationNumber: 12, SessionID: "abc"}
}

func (f *fakeSession) Objects() []scene.ObjectDescriptor { return f.objects }

func (f *fakeSession) Connect(ctx context.Context) error {
	f.calls = append(f.calls, "connect")
	if f.connectErr != nil {
		return f.connectErr
	}
	f.state = session.StateRunning
	return nil
}

func (f *fakeSession) Disconnect() {
	f.calls = append(f.calls, "disconnect")
	f.state = session.StateDisconnected
}

func (f *fakeSession) Pause(ctx context.Context) error {
	f.calls = append(f.calls, "pause")
	return f.controlErr
}

func (f *fakeSession) Resume(ctx context.Context) error {
	f.calls = append(f.calls, "resume")
	return f.controlErr
}

func newTestApp(t *testing.T, sess *fakeSession, store SceneReader) (*fiber.App, services.DisplayService) {
	t.Helper()
	logger := customlog.Discard()
	display, err := services.NewDisplayService(scene.DefaultDisplayFlags(), "", logger)
	require.NoError(t, err)

	app := fiber.New()
	RegisterSessionRoutes(app, NewSessionHandler(sess, store, time.Second, logger))
	RegisterDisplayRoutes(app, display, logger)
	RegisterWebSocketRoutes(app, NewFrameHub(4, logger), logger)
	return app, display
}

func do(t *testing.T, app *fiber.App, method, path, contentType, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestSessionRoutes(t *testing.T) {
	sess := &fakeSession{}
	app, _ := newTestApp(t, sess, scene.NewStore(customlog.Discard()))

	code, body := do(t, app, "GET", "/api/session", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"state":"disconnected"`)

	code, body = do(t, app, "POST", "/api/session/connect", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"state":"running"`)

	code, _ = do(t, app, "POST", "/api/session/pause", "", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, app, "POST", "/api/session/resume", "", "")
	assert.Equal(t, http.StatusOK, code)

	code, body = do(t, app, "POST", "/api/session/disconnect", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"state":"disconnected"`)

	assert.Equal(t, []string{"connect", "pause", "resume", "disconnect"}, sess.calls)
}

func TestSessionRouteErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"already connected", session.ErrAlreadyConnected, http.StatusConflict},
		{"refused", &session.ConnectionError{Op: "dial", Addr: "sim:8080", Err: io.EOF}, http.StatusBadGateway},
		{"timeout", &session.ConnectionError{Op: "read", Addr: "sim:8080", Err: session.ErrTimeout}, http.StatusGatewayTimeout},
		{"other", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t, &fakeSession{connectErr: tt.err}, nil)
			code, body := do(t, app, "POST", "/api/session/connect", "", "")
			assert.Equal(t, tt.wantCode, code)

			var e ErrorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			assert.Equal(t, tt.err.Error(), e.Error)
		})
	}

	app, _ := newTestApp(t, &fakeSession{controlErr: session.ErrNotConnected}, nil)
	code, _ := do(t, app, "POST", "/api/session/pause", "", "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestSceneAndContactRoutes(t *testing.T) {
	store := scene.NewStore(customlog.Discard())
	objects := []scene.ObjectDescriptor{
		{Index: 0, Name: "ball", Geometry: scene.Sphere{Radius: 0.2}, Material: scene.FallbackMaterial(0)},
		{Index: 1, Name: "crate", Geometry: scene.Box{X: 1, Y: 1, Z: 1}, Material: scene.FallbackMaterial(1)},
	}
	created, failed := scene.BuildScene(store, objects)
	require.Equal(t, 2, created)
	require.Empty(t, failed)
	missing := scene.ApplyPoses(store, []scene.PoseUpdate{
		{Name: "ball", Position: scene.Vec3{Z: 1.5}, Orientation: scene.IdentityQuat()},
	})
	require.Empty(t, missing)
	scene.ReplaceContacts(store, []scene.ContactEvent{{Force: scene.Vec3{Z: 9.81}}}, scene.DefaultDisplayFlags())

	app, _ := newTestApp(t, &fakeSession{state: session.StateRunning, objects: objects}, store)

	code, body := do(t, app, "GET", "/api/scene", "", "")
	require.Equal(t, http.StatusOK, code)
	var sc struct {
		ConfigurationNumber uint64 `json:"configuration_number"`
		Objects             []struct {
			Name     string `json:"name"`
			Geometry struct {
				Radius float64 `json:"radius"`
			} `json:"geometry"`
		} `json:"objects"`
		Nodes []SceneNode `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(body, &sc))
	assert.Equal(t, uint64(12), sc.ConfigurationNumber)
	require.Len(t, sc.Objects, 2)
	assert.InDelta(t, 0.2, sc.Objects[0].Geometry.Radius, 1e-6)
	require.Len(t, sc.Nodes, 2)
	assert.Equal(t, "ball", sc.Nodes[0].Name)
	assert.Equal(t, "sphere", sc.Nodes[0].Kind)
	assert.Equal(t, 1.5, sc.Nodes[0].Position.Z)
	assert.Equal(t, int64(1), sc.Nodes[0].UpdateCount)
	assert.NotNil(t, sc.Nodes[0].LastUpdated)
	assert.Nil(t, sc.Nodes[1].LastUpdated)

	code, body = do(t, app, "GET", "/api/contacts", "", "")
	require.Equal(t, http.StatusOK, code)
	var contacts ContactsResponse
	require.NoError(t, json.Unmarshal(body, &contacts))
	assert.Equal(t, 1, contacts.Points)
	assert.Equal(t, 1, contacts.Forces)
}

func TestEmptySceneRoutes(t *testing.T) {
	app, _ := newTestApp(t, &fakeSession{}, nil)

	_, body := do(t, app, "GET", "/api/scene", "", "")
	assert.Contains(t, string(body), `"objects":[]`)
	assert.Contains(t, string(body), `"nodes":[]`)

	_, body = do(t, app, "GET", "/api/contacts", "", "")
	assert.Contains(t, string(body), `"markers":[]`)
}

func TestDisplayRoutes(t *testing.T) {
	app, display := newTestApp(t, &fakeSession{}, nil)

	code, body := do(t, app, "GET", "/api/display", "", "")
	assert.Equal(t, http.StatusOK, code)
	var flags scene.DisplayFlags
	require.NoError(t, json.Unmarshal(body, &flags))
	assert.Equal(t, scene.DefaultDisplayFlags(), flags)

	code, _ = do(t, app, "PUT", "/api/display", fiber.MIMEApplicationJSON, `{"collision": true, "visual": false}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, scene.DisplayFlags{Collision: true, ContactPoints: true, ContactForces: true}, display.DisplayFlags())

	code, _ = do(t, app, "PUT", "/api/display", "application/x-yaml", "contact_points: false\n")
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, display.DisplayFlags().ContactPoints)

	code, body = do(t, app, "GET", "/api/display?format=yaml", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "contact_points: false")

	code, _ = do(t, app, "PUT", "/api/display", fiber.MIMEApplicationJSON, `{"visual": `)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, app, "PUT", "/api/display", "text/yaml", "visual: [")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, app, "PUT", "/api/display", fiber.MIMEApplicationJSON, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWebSocketRouteRequiresUpgrade(t *testing.T) {
	app, _ := newTestApp(t, &fakeSession{}, nil)
	code, _ := do(t, app, "GET", "/ws/frames", "", "")
	assert.Equal(t, fiber.StatusUpgradeRequired, code)
}

func TestFrameHub(t *testing.T) {
	hub := NewFrameHub(2, customlog.Discard())

	all, err := hub.subscribe()
	require.NoError(t, err)
	poses, err := hub.subscribe("simviz.pose")
	require.NoError(t, err)

	require.NoError(t, hub.PublishMessage("simviz.scene", []byte("scene")))
	require.NoError(t, hub.PublishMessage("simviz.pose", []byte("pose-1")))
	// all is full now, so the next pose frame is dropped for it
	require.NoError(t, hub.PublishMessage("simviz.pose", []byte("pose-2")))

	assert.Equal(t, []byte("scene"), <-all.send)
	assert.Equal(t, []byte("pose-1"), <-all.send)
	assert.Equal(t, []byte("pose-1"), <-poses.send)
	assert.Equal(t, []byte("pose-2"), <-poses.send)

	stats := hub.Stats()
	assert.Equal(t, HubStats{Clients: 2, Sent: 4, Dropped: 1}, stats)

	hub.unsubscribe(poses)
	_, open := <-poses.send
	assert.False(t, open)
	hub.unsubscribe(poses)

	hub.Close()
	_, open = <-all.send
	assert.False(t, open)
	assert.ErrorIs(t, hub.PublishMessage("simviz.pose", nil), ErrHubClosed)
	_, err = hub.subscribe()
	assert.ErrorIs(t, err, ErrHubClosed)
	hub.Close()
}
