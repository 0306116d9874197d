package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/scene"
	"github.com/open-teleop/simviz/pkg/session"
)

// SessionAPI is the part of a session the HTTP routes drive.
type SessionAPI interface {
	Status() session.Status
	Objects() []scene.ObjectDescriptor
	Connect(ctx context.Context) error
	Disconnect()
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}

// SceneReader is the resident scene.
type SceneReader interface {
	Nodes() []scene.NodeState
	Markers() []scene.Marker
}

// SessionHandler holds dependencies for session and scene endpoints.
type SessionHandler struct {
	session SessionAPI
	scene   SceneReader
	timeout time.Duration
	logger  customlog.Logger
}

// NewSessionHandler creates a new handler. Connect, pause and resume give up after timeout.
func NewSessionHandler(sess SessionAPI, sc SceneReader, timeout time.Duration, logger customlog.Logger) *SessionHandler {
	if sess == nil {
		panic("Session cannot be nil in NewSessionHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewSessionHandler")
	}
	return &SessionHandler{
		session: sess,
		scene:   sc,
		timeout: timeout,
		logger:  logger,
	}
}

// RegisterSessionRoutes registers the session and scene endpoints with the Fiber app.
func RegisterSessionRoutes(app *fiber.App, h *SessionHandler) {
	apiGroup := app.Group("/api")

	sessionGroup := apiGroup.Group("/session")
	sessionGroup.Get("/", h.handleGetSession)
	sessionGroup.Post("/connect", h.handleConnect)
	sessionGroup.Post("/disconnect", h.handleDisconnect)
	sessionGroup.Post("/pause", h.handleControl("pause", h.session.Pause))
	sessionGroup.Post("/resume", h.handleControl("resume", h.session.Resume))

	apiGroup.Get("/scene", h.handleGetScene)
	apiGroup.Get("/contacts", h.handleGetContacts)

	h.logger.Infof("Registered session API endpoints under /api")
}

// statusFor maps session errors to HTTP status codes.
func statusFor(err error) int {
	var connErr *session.ConnectionError
	switch {
	case errors.Is(err, session.ErrAlreadyConnected), errors.Is(err, session.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, session.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &connErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *SessionHandler) fail(c *fiber.Ctx, op string, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Errorf("Session %s failed: %v", op, err)
	} else {
		h.logger.Warnf("Session %s rejected: %v", op, err)
	}
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}

func (h *SessionHandler) handleGetSession(c *fiber.Ctx) error {
	return c.JSON(h.session.Status())
}

func (h *SessionHandler) handleConnect(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.session.Connect(ctx); err != nil {
		return h.fail(c, "connect", err)
	}
	return c.JSON(h.session.Status())
}

func (h *SessionHandler) handleDisconnect(c *fiber.Ctx) error {
	h.session.Disconnect()
	return c.JSON(h.session.Status())
}

func (h *SessionHandler) handleControl(op string, fn func(context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			return h.fail(c, op, err)
		}
		return c.JSON(h.session.Status())
	}
}

func (h *SessionHandler) handleGetScene(c *fiber.Ctx) error {
	status := h.session.Status()
	resp := SceneResponse{
		SessionID:           status.SessionID,
		ConfigurationNumber: status.ConfigurationNumber,
		Objects:             h.session.Objects(),
		Nodes:               []SceneNode{},
	}
	if resp.Objects == nil {
		resp.Objects = []scene.ObjectDescriptor{}
	}
	if h.scene != nil {
		for _, n := range h.scene.Nodes() {
			resp.Nodes = append(resp.Nodes, sceneNode(n))
		}
	}
	return c.JSON(resp)
}

func (h *SessionHandler) handleGetContacts(c *fiber.Ctx) error {
	resp := ContactsResponse{Markers: []scene.Marker{}}
	if h.scene != nil {
		for _, m := range h.scene.Markers() {
			if m.Kind == scene.MarkerForce {
				resp.Forces++
			} else {
				resp.Points++
			}
			resp.Markers = append(resp.Markers, m)
		}
	}
	return c.JSON(resp)
}
