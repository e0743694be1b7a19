package queue_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trakkr/pkg/queue"
)

func TestServiceRunsPeriodicAndDelayedTasks(t *testing.T) {
	t.Parallel()
	storage := queue.NewMemoryStorage()
	cfg := queue.Config{
		PollInterval:       5 * time.Millisecond,
		LockTimeout:        time.Second,
		CheckInterval:      5 * time.Millisecond,
		MaxConcurrentTasks: 2,
		Queues:             []string{"workout"},
	}
	svc, err := queue.NewServiceFromConfig(cfg, storage, nil)
	require.NoError(t, err)

	var sweeps, expiries atomic.Int32
	require.NoError(t, svc.RegisterHandlers(
		queue.NewPeriodicTaskHandler("sweep", func(context.Context) error {
			sweeps.Add(1)
			return nil
		}),
		queue.NewTaskHandler(func(context.Context, recomputeMax) error {
			expiries.Add(1)
			return nil
		}),
	))
	require.NoError(t, svc.AddScheduledTask("sweep", queue.EveryInterval(10*time.Millisecond), queue.WithTaskQueue("workout")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	cancelled := uuid.New()
	require.NoError(t, svc.EnqueueAt(ctx, recomputeMax{}, time.Now().Add(time.Hour), queue.WithQueue("workout"), queue.WithTaskID(cancelled)))
	require.NoError(t, svc.CancelTask(ctx, cancelled))
	require.NoError(t, svc.EnqueueAt(ctx, recomputeMax{}, time.Now().Add(20*time.Millisecond), queue.WithQueue("workout")))

	assert.Eventually(t, func() bool { return sweeps.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return expiries.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestServiceWithNothingRegistered(t *testing.T) {
	t.Parallel()

	_, err := queue.NewService(nil)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)

	svc, err := queue.NewService(queue.NewMemoryStorage())
	require.NoError(t, err)
	assert.NoError(t, svc.Run(context.Background()))
}
