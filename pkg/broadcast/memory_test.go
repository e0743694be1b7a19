package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trakkr/pkg/broadcast"
)

func receive[T any](t *testing.T, sub broadcast.Subscriber[T]) broadcast.Message[T] {
	t.Helper()
	select {
	case msg, ok := <-sub.Receive():
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return broadcast.Message[T]{}
}

func TestMemoryBroadcaster(t *testing.T) {
	t.Parallel()

	t.Run("delivers by topic", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		b := broadcast.NewMemoryBroadcaster[string](4)
		defer b.Close()

		alice, err := b.Subscribe(ctx, "alice")
		require.NoError(t, err)
		bob, err := b.Subscribe(ctx, "bob")
		require.NoError(t, err)

		require.NoError(t, b.Publish(ctx, "alice", "hello"))
		msg := receive(t, alice)
		assert.Equal(t, "alice", msg.Topic)
		assert.Equal(t, "hello", msg.Data)

		select {
		case <-bob.Receive():
			t.Fatal("bob received alice's message")
		default:
		}
	})

	t.Run("drops for full buffers", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		sub, err := b.Subscribe(ctx, "t")
		require.NoError(t, err)
		require.NoError(t, b.Publish(ctx, "t", 1))
		require.NoError(t, b.Publish(ctx, "t", 2))

		assert.Equal(t, 1, receive(t, sub).Data)
		require.NoError(t, b.Publish(ctx, "t", 3))
		assert.Equal(t, 3, receive(t, sub).Data)
	})

	t.Run("context ends the subscription", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub, err := b.Subscribe(ctx, "t")
		require.NoError(t, err)
		assert.Equal(t, 1, b.Subscribers("t"))

		cancel()
		assert.Eventually(t, func() bool { return b.Subscribers("t") == 0 }, time.Second, 5*time.Millisecond)
		_, ok := <-sub.Receive()
		assert.False(t, ok)
		assert.NoError(t, sub.Close())
	})

	t.Run("close", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		b := broadcast.NewMemoryBroadcaster[int](1)

		sub, err := b.Subscribe(ctx, "t")
		require.NoError(t, err)
		require.NoError(t, b.Close())
		require.NoError(t, b.Close())

		_, ok := <-sub.Receive()
		assert.False(t, ok)
		_, err = b.Subscribe(ctx, "t")
		assert.ErrorIs(t, err, broadcast.ErrClosed)
		assert.ErrorIs(t, b.Publish(ctx, "t", 1), broadcast.ErrClosed)
	})
}
