package zeromq

import (
	"context"
	"time"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/scene"
	"github.com/open-teleop/simviz/pkg/session"
)

// Topics of the JSON notifications published next to the frame feed
const (
	TopicStatus  = "simviz.status"
	TopicDisplay = "simviz.display"
)

// MsgTypeSessionStatus is the envelope type of periodic status notifications
const MsgTypeSessionStatus = "SESSION_STATUS"

// jsonPublisher is the part of ZeroMQService the StatusPublisher needs
type jsonPublisher interface {
	PublishJSON(topic string, messageType string, data interface{}) error
}

// StatusPublisher publishes session status and display changes to subscribers
type StatusPublisher struct {
	service jsonPublisher
	status  func() session.Status
	logger  customlog.Logger
}

// NewStatusPublisher creates a new publisher for status notifications
func NewStatusPublisher(service jsonPublisher, status func() session.Status, logger customlog.Logger) *StatusPublisher {
	return &StatusPublisher{
		service: service,
		status:  status,
		logger:  logger,
	}
}

// PublishStatus publishes the current session status
func (p *StatusPublisher) PublishStatus() error {
	return p.service.PublishJSON(TopicStatus, MsgTypeSessionStatus, p.status())
}

// PublishDisplayChanged publishes new display toggles
func (p *StatusPublisher) PublishDisplayChanged(flags scene.DisplayFlags) error {
	p.logger.Debugf("Publishing display change notification")
	return p.service.PublishJSON(TopicDisplay, MsgTypeDisplayChanged, flags)
}

// Run publishes the status every interval until ctx is done
func (p *StatusPublisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.PublishStatus(); err != nil {
				p.logger.Warnf("Failed to publish session status: %v", err)
			}
		}
	}
}
