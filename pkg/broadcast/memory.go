package broadcast

import (
	"context"
	"sync"
)

// MemoryBroadcaster delivers messages within the process.
type MemoryBroadcaster[T any] struct {
	topics     map[string]map[*subscriber[T]]struct{}
	bufferSize int
	closed     bool
	mu         sync.RWMutex
}

// NewMemoryBroadcaster creates a broadcaster whose subscribers buffer up to
// bufferSize messages (at least 1).
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	return &MemoryBroadcaster[T]{
		topics:     make(map[string]map[*subscriber[T]]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context, topic string) (Subscriber[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := newSubscriber[T](b.bufferSize)
	sub.onClose = func() { b.remove(topic, sub) }
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[*subscriber[T]]struct{})
	}
	b.topics[topic][sub] = struct{}{}

	context.AfterFunc(ctx, func() { _ = sub.Close() })
	return sub, nil
}

// Publish drops the message for subscribers whose buffer is full.
func (b *MemoryBroadcaster[T]) Publish(_ context.Context, topic string, data T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}
	msg := Message[T]{Topic: topic, Data: data}
	for sub := range b.topics[topic] {
		sub.send(msg)
	}
	return nil
}

// Close closes every subscriber. It is safe to call more than once.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var subs []*subscriber[T]
	for _, set := range b.topics {
		for sub := range set {
			subs = append(subs, sub)
		}
	}
	clear(b.topics)
	b.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	return nil
}

// Subscribers returns the number of live subscribers on topic.
func (b *MemoryBroadcaster[T]) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

func (b *MemoryBroadcaster[T]) remove(topic string, sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.topics[topic], sub)
	if len(b.topics[topic]) == 0 {
		delete(b.topics, topic)
	}
}
