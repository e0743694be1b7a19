package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/trakkr/pkg/logger"
)

// RedisBroadcaster delivers messages across processes over Redis pub/sub.
// Payloads travel as JSON.
type RedisBroadcaster[T any] struct {
	client     redis.UniversalClient
	prefix     string
	bufferSize int
	logger     *slog.Logger

	mu     sync.Mutex
	closed bool
	subs   map[*subscriber[T]]*redis.PubSub
}

// RedisOption configures a RedisBroadcaster.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix     string
	bufferSize int
	logger     *slog.Logger
}

// WithChannelPrefix namespaces pub/sub channels. Default "broadcast:".
func WithChannelPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}

// WithBufferSize sets the per-subscriber buffer. Default 16.
func WithBufferSize(n int) RedisOption {
	return func(o *redisOptions) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithLogger sets the logger for undecodable messages.
func WithLogger(l *slog.Logger) RedisOption {
	return func(o *redisOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewRedisBroadcaster creates a broadcaster on top of client.
func NewRedisBroadcaster[T any](client redis.UniversalClient, opts ...RedisOption) *RedisBroadcaster[T] {
	o := redisOptions{prefix: "broadcast:", bufferSize: 16, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisBroadcaster[T]{
		client:     client,
		prefix:     o.prefix,
		bufferSize: o.bufferSize,
		logger:     o.logger,
		subs:       make(map[*subscriber[T]]*redis.PubSub),
	}
}

// Subscribe waits for Redis to confirm the subscription, so messages
// published after it returns are delivered.
func (b *RedisBroadcaster[T]) Subscribe(ctx context.Context, topic string) (Subscriber[T], error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	ps := b.client.Subscribe(ctx, b.prefix+topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %q: %w", topic, err)
	}

	sub := newSubscriber[T](b.bufferSize)
	sub.onClose = func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
		_ = ps.Close()
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = ps.Close()
		return nil, ErrClosed
	}
	b.subs[sub] = ps
	b.mu.Unlock()

	go b.forward(ctx, topic, ps, sub)
	return sub, nil
}

func (b *RedisBroadcaster[T]) forward(ctx context.Context, topic string, ps *redis.PubSub, sub *subscriber[T]) {
	defer func() { _ = sub.Close() }()

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var data T
			if err := json.Unmarshal([]byte(m.Payload), &data); err != nil {
				b.logger.WarnContext(ctx, "dropping undecodable broadcast message",
					slog.String("topic", topic), logger.Error(err))
				continue
			}
			sub.send(Message[T]{Topic: topic, Data: data})
		}
	}
}

func (b *RedisBroadcaster[T]) Publish(ctx context.Context, topic string, data T) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode broadcast message: %w", err)
	}
	return b.client.Publish(ctx, b.prefix+topic, payload).Err()
}

// Close ends every subscription. The Redis client stays open.
func (b *RedisBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*subscriber[T], 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	return nil
}
