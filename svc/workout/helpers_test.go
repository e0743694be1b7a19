package workout_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/trakkr/pkg/queue"
	"github.com/dmitrymomot/trakkr/svc/workout"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	manager *workout.Manager
	store   *workout.MemoryStore
	repo    *workout.MemoryRepository
	clock   *clock
}

func newFixture(t *testing.T, opts ...workout.Option) *fixture {
	t.Helper()
	f := &fixture{
		store: workout.NewMemoryStore(),
		repo:  workout.NewMemoryRepository(),
		clock: newClock(),
	}
	var seq atomic.Int64
	base := []workout.Option{
		workout.WithClock(f.clock.Now),
		// durable set ids are uuids in production; any unique string works in memory
		workout.WithIDGenerator(func() string { return fmt.Sprintf("detail-%d", seq.Add(1)) }),
	}
	f.manager = workout.NewManager(f.store, f.repo, append(base, opts...)...)
	return f
}

// fakeScheduler records scheduled and cancelled expiry tasks.
type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []scheduledExpiry
	cancelled []string
	err       error
}

type scheduledExpiry struct {
	id   string
	task workout.ExpireSession
	at   time.Time
}

func (f *fakeScheduler) ScheduleExpiry(_ context.Context, task workout.ExpireSession, at time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	id := fmt.Sprintf("task-%d", len(f.scheduled)+1)
	f.scheduled = append(f.scheduled, scheduledExpiry{id: id, task: task, at: at})
	return id, nil
}

func (f *fakeScheduler) CancelExpiry(_ context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, taskID)
	return nil
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) EnsureWorkoutLog(ctx context.Context, userID, workoutID string) (string, error) {
	args := m.Called(ctx, userID, workoutID)
	return args.String(0), args.Error(1)
}

func (m *mockRepository) EnsureExerciseLog(ctx context.Context, userID, exerciseID, workoutLogID string) (string, error) {
	args := m.Called(ctx, userID, exerciseID, workoutLogID)
	return args.String(0), args.Error(1)
}

func (m *mockRepository) FlushWorkout(ctx context.Context, s *workout.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockRepository) DiscardWorkout(ctx context.Context, userID, workoutID, workoutLogID string) error {
	return m.Called(ctx, userID, workoutID, workoutLogID).Error(0)
}

// fakeQueue captures enqueued payloads.
type fakeQueue struct {
	mu       sync.Mutex
	payloads []any
	err      error
}

func (q *fakeQueue) Enqueue(_ context.Context, payload any, _ ...queue.EnqueueOption) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, payload)
	return nil
}

func (q *fakeQueue) CancelTask(context.Context, uuid.UUID) error {
	return nil
}
