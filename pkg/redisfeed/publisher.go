// Package redisfeed publishes JSON frames on Redis pub/sub channels.
package redisfeed

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/open-teleop/simviz/pkg/config"
	customlog "github.com/open-teleop/simviz/pkg/log"
)

// DefaultPublishTimeout bounds a single PUBLISH round trip.
const DefaultPublishTimeout = time.Second

var (
	ErrNoAddress = errors.New("redisfeed: no address")
	ErrNoChannel = errors.New("redisfeed: no channel")
	ErrClosed    = errors.New("redisfeed: publisher closed")
)

// Publisher sends each message to "<channel>:<topic>".
type Publisher struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	logger  customlog.Logger

	published   atomic.Int64
	subscribers atomic.Int64
	closed      atomic.Bool
}

// NewPublisher creates a publisher for cfg. It does not contact the server.
func NewPublisher(cfg config.RedisConfig, logger customlog.Logger) (*Publisher, error) {
	if cfg.Address == "" {
		return nil, ErrNoAddress
	}
	if cfg.Channel == "" {
		return nil, ErrNoChannel
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Publisher{
		client:  client,
		channel: cfg.Channel,
		timeout: DefaultPublishTimeout,
		logger:  logger.WithField("redis", cfg.Address),
	}, nil
}

// Ping checks that the server answers.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redisfeed: ping: %w", err)
	}
	return nil
}

// ChannelFor is the channel a topic is published on.
func (p *Publisher) ChannelFor(topic string) string {
	return p.channel + ":" + topic
}

// Pattern matches every channel of this publisher, for PSUBSCRIBE.
func (p *Publisher) Pattern() string {
	return p.channel + ":*"
}

// PublishMessage publishes data on the topic's channel.
func (p *Publisher) PublishMessage(topic string, data []byte) error {
	if p.closed.Load() {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	receivers, err := p.client.Publish(ctx, p.ChannelFor(topic), data).Result()
	if err != nil {
		return fmt.Errorf("redisfeed: publish %s: %w", topic, err)
	}
	p.published.Add(1)
	p.subscribers.Store(receivers)
	p.logger.Debugf("Published %d bytes on %s to %d subscribers", len(data), p.ChannelFor(topic), receivers)
	return nil
}

// Stats reports published messages and the receiver count of the last one.
func (p *Publisher) Stats() (published, lastSubscribers int64) {
	return p.published.Load(), p.subscribers.Load()
}

// Close releases the connection pool.
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.client.Close()
}
