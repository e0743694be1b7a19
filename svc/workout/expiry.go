package workout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/trakkr/pkg/queue"
)

// SweepTaskName names the periodic task that discards overdue sessions
// missed by their deferred expiry.
const SweepTaskName = "workout.sweep_expired_sessions"

// ExpireSession is the payload of the deferred expiry task. StartTime pins
// the task to one session so it cannot discard a newer one.
type ExpireSession struct {
	UserID    string `json:"user_id"`
	StartTime int64  `json:"start_time"`
}

// ExpiryScheduler defers session expiry. Implementations must survive
// process restarts for the timeout to be honored without the sweep.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, task ExpireSession, at time.Time) (string, error)
	CancelExpiry(ctx context.Context, taskID string) error
}

// TaskQueue is the part of queue.Service the workout package uses.
type TaskQueue interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) error
	CancelTask(ctx context.Context, taskID uuid.UUID) error
}

// QueueExpiryScheduler stores expiry tasks in the durable task queue.
type QueueExpiryScheduler struct {
	q         TaskQueue
	queueName string
}

// NewQueueExpiryScheduler creates a scheduler that enqueues onto queueName.
func NewQueueExpiryScheduler(q TaskQueue, queueName string) *QueueExpiryScheduler {
	return &QueueExpiryScheduler{q: q, queueName: queueName}
}

func (s *QueueExpiryScheduler) ScheduleExpiry(ctx context.Context, task ExpireSession, at time.Time) (string, error) {
	id := uuid.New()
	err := s.q.Enqueue(ctx, task,
		queue.WithTaskID(id),
		queue.WithQueue(s.queueName),
		queue.WithScheduledAt(at),
		queue.WithPriority(queue.PriorityHigh),
	)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// CancelExpiry removes a pending expiry task. Tasks already gone or running
// are left alone.
func (s *QueueExpiryScheduler) CancelExpiry(ctx context.Context, taskID string) error {
	id, err := uuid.Parse(taskID)
	if err != nil {
		return err
	}
	err = s.q.CancelTask(ctx, id)
	if errors.Is(err, queue.ErrTaskNotFound) || errors.Is(err, queue.ErrTaskNotCancelable) {
		return nil
	}
	return err
}

// TaskHandlers returns the queue handlers for deferred expiry and the sweep.
func (m *Manager) TaskHandlers() []queue.Handler {
	return []queue.Handler{
		queue.NewTaskHandler(func(ctx context.Context, task ExpireSession) error {
			return m.Expire(ctx, task.UserID, task.StartTime)
		}),
		queue.NewPeriodicTaskHandler(SweepTaskName, func(ctx context.Context) error {
			_, err := m.SweepExpired(ctx)
			return err
		}),
	}
}
