package workout_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trakkr/pkg/queue"
	"github.com/dmitrymomot/trakkr/svc/workout"
)

func newQueueService(t *testing.T, opts ...queue.ServiceOption) (*queue.Service, *queue.MemoryStorage) {
	t.Helper()
	storage := queue.NewMemoryStorage()
	svc, err := queue.NewService(storage, opts...)
	require.NoError(t, err)
	return svc, storage
}

func TestQueueExpiryScheduler(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, storage := newQueueService(t)
	sched := workout.NewQueueExpiryScheduler(svc, "workout")

	at := time.Now().Add(4 * time.Hour)
	id, err := sched.ScheduleExpiry(ctx, workout.ExpireSession{UserID: "u", StartTime: 42}, at)
	require.NoError(t, err)

	taskID, err := uuid.Parse(id)
	require.NoError(t, err)
	task, err := storage.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, "workout", task.Queue)
	assert.Equal(t, "workout.ExpireSession", task.Name)
	assert.True(t, task.ScheduledAt.Equal(at))
	assert.JSONEq(t, `{"user_id":"u","start_time":42}`, string(task.Payload))

	require.NoError(t, sched.CancelExpiry(ctx, id))
	_, err = storage.GetTask(ctx, taskID)
	assert.ErrorIs(t, err, queue.ErrTaskNotFound)

	require.NoError(t, sched.CancelExpiry(ctx, id), "cancelling a missing task is fine")
	assert.Error(t, sched.CancelExpiry(ctx, "not-a-uuid"))
}

func TestTaskHandlers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, workout.WithSessionTimeout(time.Hour))

	handlers := f.manager.TaskHandlers()
	require.Len(t, handlers, 2)
	expire, sweep := handlers[0], handlers[1]
	assert.Equal(t, "workout.ExpireSession", expire.Name())
	assert.Equal(t, workout.SweepTaskName, sweep.Name())

	s, err := f.manager.Start(ctx, "u", "w")
	require.NoError(t, err)
	payload, err := json.Marshal(workout.ExpireSession{UserID: "u", StartTime: s.StartTime + 1})
	require.NoError(t, err)
	require.NoError(t, expire.Handle(ctx, payload))
	_, ok, err := f.manager.GetCurrent(ctx, "u")
	require.NoError(t, err)
	assert.True(t, ok, "expiry for another start time is ignored")

	payload, err = json.Marshal(workout.ExpireSession{UserID: "u", StartTime: s.StartTime})
	require.NoError(t, err)
	require.NoError(t, expire.Handle(ctx, payload))
	_, ok, err = f.manager.GetCurrent(ctx, "u")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.manager.Start(ctx, "v", "w")
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)
	require.NoError(t, sweep.Handle(ctx, nil))
	ids, err := f.store.UserIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestExpiryThroughWorker(t *testing.T) {
	t.Parallel()

	svc, _ := newQueueService(t, queue.WithWorkerOptions(
		queue.WithQueues("workout"),
		queue.WithPullInterval(10*time.Millisecond),
	))
	store := workout.NewMemoryStore()
	m := workout.NewManager(store, workout.NewMemoryRepository(),
		workout.WithSessionTimeout(50*time.Millisecond),
		workout.WithExpiryScheduler(workout.NewQueueExpiryScheduler(svc, "workout")),
	)
	require.NoError(t, svc.RegisterHandlers(m.TaskHandlers()...))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	_, err := m.Start(ctx, "u", "w")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		s, err := store.Get(context.Background(), "u")
		return err == nil && s == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFinishHooksEnqueue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := &fakeQueue{}
	f := newFixture(t, workout.WithFinishHooks(
		workout.EnqueueAnalysis(q, "analysis"),
		workout.EnqueueNotification(q, "notifications"),
	))

	_, err := f.manager.Start(ctx, "u", "w")
	require.NoError(t, err)
	_, err = f.manager.RecordSet(ctx, "u", "bench", 5, 100)
	require.NoError(t, err)
	id, err := f.manager.Finish(ctx, "u")
	require.NoError(t, err)

	require.Len(t, q.payloads, 2)
	assert.Equal(t, workout.AnalyzeWorkout{UserID: "u", WorkoutID: "w", WorkoutLogID: id}, q.payloads[0])
	note, ok := q.payloads[1].(workout.SendNotification)
	require.True(t, ok)
	assert.Equal(t, "u", note.UserID)
	assert.Equal(t, id, note.WorkoutLogID)
	assert.NotEmpty(t, note.Message)

	q.err = errors.New("broker down")
	_, err = f.manager.Start(ctx, "u", "w")
	require.NoError(t, err)
	_, err = f.manager.RecordSet(ctx, "u", "bench", 5, 100)
	require.NoError(t, err)
	_, err = f.manager.Finish(ctx, "u")
	assert.NoError(t, err, "hook failures do not fail finish")
}
