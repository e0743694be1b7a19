package broadcast

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Subscribe and Publish after Close.
var ErrClosed = errors.New("broadcast: closed")

// Message is a payload delivered on a topic.
type Message[T any] struct {
	Topic string
	Data  T
}

// Subscriber receives messages published to one topic.
type Subscriber[T any] interface {
	// Receive returns the delivery channel. It is closed when the
	// subscriber is closed or its context is done.
	Receive() <-chan Message[T]

	// Close is idempotent.
	Close() error
}

// Broadcaster fans messages out to every subscriber of a topic.
// Slow subscribers lose messages rather than block publishers.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber for topic. The subscription ends when
	// ctx is done or the subscriber is closed.
	Subscribe(ctx context.Context, topic string) (Subscriber[T], error)

	// Publish delivers data to the current subscribers of topic.
	Publish(ctx context.Context, topic string, data T) error

	Close() error
}

type subscriber[T any] struct {
	ch      chan Message[T]
	closed  bool
	mu      sync.RWMutex
	onClose func()
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{ch: make(chan Message[T], max(bufferSize, 1))}
}

func (s *subscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	onClose := s.onClose
	s.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return nil
}

// send never blocks; it reports false when the buffer is full or the
// subscriber is closed.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
