package zeromq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/scene"
	"github.com/open-teleop/simviz/pkg/session"
)

// SessionController is the part of a session the control endpoint drives
type SessionController interface {
	Status() session.Status
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}

// DisplayController reads and changes the display toggles
type DisplayController interface {
	DisplayFlags() scene.DisplayFlags
	UpdateFlags(flags scene.DisplayFlags) error
}

// ControlHandler answers control requests against one session
type ControlHandler struct {
	session SessionController
	display DisplayController
	timeout time.Duration
	logger  customlog.Logger
}

// NewControlHandler creates a handler. Pause and resume requests give up after timeout.
func NewControlHandler(sess SessionController, display DisplayController, timeout time.Duration, logger customlog.Logger) *ControlHandler {
	return &ControlHandler{
		session: sess,
		display: display,
		timeout: timeout,
		logger:  logger,
	}
}

// HandleMessage processes one control request
func (h *ControlHandler) HandleMessage(msg *ZeroMQMessage) (interface{}, error) {
	switch msg.Type {
	case MsgTypeStatusRequest:
		return &Reply{Type: MsgTypeStatusResponse, Data: h.session.Status()}, nil

	case MsgTypePauseRequest, MsgTypeResumeRequest:
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		op := h.session.Pause
		if msg.Type == MsgTypeResumeRequest {
			op = h.session.Resume
		}
		if err := op(ctx); err != nil {
			return nil, fmt.Errorf("%s failed: %w", msg.Type, err)
		}
		h.logger.Infof("Processed %s", msg.Type)
		return map[string]string{"status": "OK", "request": msg.Type}, nil

	case MsgTypeDisplayRequest:
		return &Reply{Type: MsgTypeDisplayChanged, Data: h.display.DisplayFlags()}, nil

	case MsgTypeDisplayUpdate:
		flags := h.display.DisplayFlags()
		if len(msg.Data) == 0 {
			return nil, fmt.Errorf("%w: %s without data", ErrInvalidMessage, msg.Type)
		}
		if err := json.Unmarshal(msg.Data, &flags); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		if err := h.display.UpdateFlags(flags); err != nil {
			return nil, err
		}
		return &Reply{Type: MsgTypeDisplayChanged, Data: flags}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}
}

// RegisterControlHandlers registers the session and display requests
func RegisterControlHandlers(service *ZeroMQService, handler *ControlHandler) {
	for _, t := range []string{
		MsgTypeStatusRequest,
		MsgTypePauseRequest,
		MsgTypeResumeRequest,
		MsgTypeDisplayRequest,
		MsgTypeDisplayUpdate,
	} {
		service.RegisterHandler(t, handler)
	}
	handler.logger.Infof("Registered control handlers")
}
