package processing

import (
	"sync"

	customlog "github.com/open-teleop/simviz/pkg/log"
)

// MessagePublisher defines the interface for publishing messages
type MessagePublisher interface {
	PublishMessage(topic string, data []byte) error
}

// Encoding selects which encoding of a frame a publisher receives.
type Encoding int

const (
	EncodingFlatbuffer Encoding = iota
	EncodingJSON
)

type publisherEntry struct {
	name      string
	publisher MessagePublisher
	encoding  Encoding
}

// PublishingResultHandler logs processing results and publishes them to every
// registered feed
type PublishingResultHandler struct {
	logger     customlog.Logger
	publishers []publisherEntry
	failures   map[string]int64
	mu         sync.Mutex
}

// NewPublishingResultHandler creates a handler with no publishers
func NewPublishingResultHandler(logger customlog.Logger) *PublishingResultHandler {
	return &PublishingResultHandler{
		logger:   logger,
		failures: make(map[string]int64),
	}
}

// AddPublisher registers a feed under name
func (h *PublishingResultHandler) AddPublisher(name string, publisher MessagePublisher, encoding Encoding) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publishers = append(h.publishers, publisherEntry{name: name, publisher: publisher, encoding: encoding})
	h.logger.Infof("Registered %s frame publisher", name)
}

// HandleResult handles a processed frame result
func (h *PublishingResultHandler) HandleResult(result *ProcessResult) {
	if result.Error != nil {
		h.logger.Errorf("Error processing frame for topic '%s': %v", result.Topic, result.Error)
		return
	}

	h.mu.Lock()
	publishers := append([]publisherEntry(nil), h.publishers...)
	h.mu.Unlock()

	for _, entry := range publishers {
		data := result.Flatbuffer
		if entry.encoding == EncodingJSON {
			data = result.JSON
		}
		if data == nil {
			continue
		}
		if err := entry.publisher.PublishMessage(result.Topic, data); err != nil {
			h.mu.Lock()
			h.failures[entry.name]++
			h.mu.Unlock()
			h.logger.Errorf("Failed to publish frame to %s for topic '%s': %v", entry.name, result.Topic, err)
			continue
		}
		h.logger.Debugf("Published %d bytes to %s for topic '%s'", len(data), entry.name, result.Topic)
	}
}

// Failures returns the publish failure count per publisher
func (h *PublishingResultHandler) Failures() map[string]int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]int64, len(h.failures))
	for name, n := range h.failures {
		out[name] = n
	}
	return out
}

// CreateHandlerFunc creates a ResultHandler function for the ProcessingPool
func (h *PublishingResultHandler) CreateHandlerFunc() ResultHandler {
	return func(processResult *ProcessResult) {
		if processResult == nil {
			h.logger.Errorf("Received nil ProcessResult")
			return
		}
		h.HandleResult(processResult)
	}
}
