package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trakkr/pkg/queue"
)

// runWorker starts w in the background and stops it on cleanup.
func runWorker(t *testing.T, w *queue.Worker) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
}

func newWorker(t *testing.T, storage *queue.MemoryStorage, handlers ...queue.Handler) *queue.Worker {
	t.Helper()
	w, err := queue.NewWorker(storage,
		queue.WithQueues("workout"),
		queue.WithPullInterval(5*time.Millisecond),
		queue.WithMaxConcurrentTasks(2),
	)
	require.NoError(t, err)
	require.NoError(t, w.RegisterHandlers(handlers...))
	return w
}

func TestWorkerWithoutHandlers(t *testing.T) {
	t.Parallel()

	_, err := queue.NewWorker(nil)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)

	w, err := queue.NewWorker(queue.NewMemoryStorage())
	require.NoError(t, err)
	assert.ErrorIs(t, w.Run(context.Background()), queue.ErrNoHandlers)
}

func TestWorkerCompletesTasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := queue.NewMemoryStorage()
	e, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	var handled atomic.Int32
	w := newWorker(t, storage, queue.NewTaskHandler(func(_ context.Context, p recomputeMax) error {
		if p.UserID == "u1" {
			handled.Add(1)
		}
		return nil
	}))

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, e.Enqueue(ctx, recomputeMax{UserID: "u1"}, queue.WithQueue("workout"), queue.WithTaskID(id)))
	}
	ignored := uuid.New()
	require.NoError(t, e.Enqueue(ctx, recomputeMax{UserID: "u1"}, queue.WithQueue("analysis"), queue.WithTaskID(ignored)))

	runWorker(t, w)

	assert.Eventually(t, func() bool {
		for _, id := range ids {
			task, err := storage.GetTask(ctx, id)
			if err != nil || task.Status != queue.TaskStatusCompleted || task.ProcessedAt == nil {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), handled.Load())
	task, err := storage.GetTask(ctx, ignored)
	require.NoError(t, err)
	assert.Equal(t, queue.TaskStatusPending, task.Status, "other queues are not served")
}

func TestWorkerRetriesThenDeadLetters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := queue.NewMemoryStorage()
	e, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	w := newWorker(t, storage, queue.NewTaskHandler(func(context.Context, recomputeMax) error {
		return errors.New("postgres unavailable")
	}))

	retried, dead := uuid.New(), uuid.New()
	require.NoError(t, e.Enqueue(ctx, recomputeMax{}, queue.WithQueue("workout"), queue.WithTaskID(retried), queue.WithMaxRetries(3)))
	require.NoError(t, e.Enqueue(ctx, recomputeMax{}, queue.WithQueue("workout"), queue.WithTaskID(dead), queue.WithMaxRetries(1)))

	runWorker(t, w)

	assert.Eventually(t, func() bool {
		task, err := storage.GetTask(ctx, retried)
		return err == nil && task.RetryCount == 1 && task.Status == queue.TaskStatusPending
	}, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(storage.DeadTasks()) == 1 }, 2*time.Second, 5*time.Millisecond)

	got := storage.DeadTasks()[0]
	assert.Equal(t, dead, got.TaskID)
	assert.Equal(t, "postgres unavailable", got.Error)
}

func TestWorkerDeadLettersUnknownTasksAndPanics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := queue.NewMemoryStorage()
	e, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)

	w := newWorker(t, storage, queue.NewPeriodicTaskHandler("explode", func(context.Context) error {
		panic("nil session")
	}))

	require.NoError(t, e.Enqueue(ctx, recomputeMax{}, queue.WithQueue("workout"), queue.WithTaskName("nobody.handles")))
	require.NoError(t, e.Enqueue(ctx, recomputeMax{}, queue.WithQueue("workout"), queue.WithTaskName("explode"), queue.WithMaxRetries(1)))

	runWorker(t, w)

	assert.Eventually(t, func() bool { return len(storage.DeadTasks()) == 2 }, 2*time.Second, 5*time.Millisecond)
	byName := map[string]string{}
	for _, d := range storage.DeadTasks() {
		byName[d.Name] = d.Error
	}
	assert.Contains(t, byName["nobody.handles"], queue.ErrHandlerNotFound.Error())
	assert.Contains(t, byName["explode"], "handler panic: nil session")
}
