package api

import (
	"errors"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/simviz/pkg/log"
)

// ErrHubClosed is returned when publishing to a closed hub.
var ErrHubClosed = errors.New("frame hub closed")

// FrameHub broadcasts flatbuffer frames to websocket clients. It implements
// processing.MessagePublisher.
type FrameHub struct {
	logger     customlog.Logger
	bufferSize int

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	closed  bool

	sent    atomic.Int64
	dropped atomic.Int64
}

// hubClient is one subscriber. send is closed by the hub.
type hubClient struct {
	topics map[string]bool
	send   chan []byte
}

func (c *hubClient) wants(topic string) bool {
	return len(c.topics) == 0 || c.topics[topic]
}

// HubStats counts broadcast frames.
type HubStats struct {
	Clients int   `json:"clients"`
	Sent    int64 `json:"sent"`
	Dropped int64 `json:"dropped"`
}

// NewFrameHub creates a hub. Each client buffers up to bufferSize frames;
// frames for a client whose buffer is full are dropped.
func NewFrameHub(bufferSize int, logger customlog.Logger) *FrameHub {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &FrameHub{
		logger:     logger,
		bufferSize: bufferSize,
		clients:    make(map[*hubClient]struct{}),
	}
}

func (h *FrameHub) subscribe(topics ...string) (*hubClient, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	c := &hubClient{topics: make(map[string]bool), send: make(chan []byte, h.bufferSize)}
	for _, t := range topics {
		if t != "" {
			c.topics[t] = true
		}
	}
	h.clients[c] = struct{}{}
	return c, nil
}

func (h *FrameHub) unsubscribe(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// PublishMessage queues data for every client subscribed to topic.
func (h *FrameHub) PublishMessage(topic string, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}
	for c := range h.clients {
		if !c.wants(topic) {
			continue
		}
		select {
		case c.send <- data:
			h.sent.Add(1)
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Stats returns the broadcast counters.
func (h *FrameHub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{Clients: len(h.clients), Sent: h.sent.Load(), Dropped: h.dropped.Load()}
}

// Close disconnects every client.
func (h *FrameHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// RegisterWebSocketRoutes registers GET /ws/frames. Clients may pass
// ?topic=simviz.pose (repeatable) to filter the stream.
func RegisterWebSocketRoutes(app *fiber.App, hub *FrameHub, logger customlog.Logger) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("topics", queryTopics(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/frames", websocket.New(func(conn *websocket.Conn) {
		topics, _ := conn.Locals("topics").([]string)
		FrameWebSocketHandler(conn, hub, topics, logger)
	}))
	logger.Infof("Registered frame websocket endpoint at /ws/frames")
}

func queryTopics(c *fiber.Ctx) []string {
	var topics []string
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		if string(key) == "topic" {
			topics = append(topics, string(value))
		}
	})
	return topics
}

// FrameWebSocketHandler streams hub frames to one websocket connection as
// binary messages until either side closes.
func FrameWebSocketHandler(conn *websocket.Conn, hub *FrameHub, topics []string, logger customlog.Logger) {
	client, err := hub.subscribe(topics...)
	if err != nil {
		logger.Warnf("Frame WS rejected %s: %v", conn.RemoteAddr(), err)
		return
	}
	logger.Infof("Frame WebSocket connected: %s (topics %v)", conn.RemoteAddr(), topics)

	// The reader only watches for the peer closing.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
					!errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
					logger.Warnf("Frame WS read error: %v", err)
				}
				return
			}
		}
	}()

loop:
	for {
		select {
		case data, ok := <-client.send:
			if !ok {
				break loop
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				logger.Infof("Frame WS write failed: %v", err)
				break loop
			}
		case <-readerDone:
			break loop
		}
	}

	hub.unsubscribe(client)
	conn.Close()
	<-readerDone
	logger.Infof("Frame WebSocket disconnected: %s", conn.RemoteAddr())
}
