package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnqueuerRepository persists new tasks.
type EnqueuerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
}

// Canceler drops a task that has not been claimed yet.
type Canceler interface {
	CancelTask(ctx context.Context, taskID uuid.UUID) error
}

// Enqueuer turns payloads into one-time tasks.
type Enqueuer struct {
	repo EnqueuerRepository
	now  func() time.Time
}

// NewEnqueuer creates an Enqueuer writing to repo.
func NewEnqueuer(repo EnqueuerRepository) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	return &Enqueuer{repo: repo, now: time.Now}, nil
}

// Enqueue stores payload as a pending task. The payload is JSON encoded and
// the task is named after its type unless WithTaskName says otherwise.
func (e *Enqueuer) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) error {
	if payload == nil {
		return ErrPayloadNil
	}

	now := e.now()
	o := enqueueOptions{
		queue:       DefaultQueueName,
		priority:    PriorityDefault,
		maxRetries:  3,
		scheduledAt: now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.priority.Valid() {
		return ErrInvalidPriority
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %T payload: %w", payload, err)
	}
	if o.name == "" {
		o.name = TaskName(payload)
	}
	if o.id == uuid.Nil {
		o.id = uuid.New()
	}

	task := &Task{
		ID:          o.id,
		Queue:       o.queue,
		Kind:        KindOneTime,
		Name:        o.name,
		Payload:     data,
		Status:      TaskStatusPending,
		Priority:    o.priority,
		MaxRetries:  o.maxRetries,
		ScheduledAt: o.scheduledAt,
		CreatedAt:   now,
	}
	if err := e.repo.CreateTask(ctx, task); err != nil {
		if errors.Is(err, ErrTaskCreate) {
			return err
		}
		return errors.Join(ErrTaskCreate, fmt.Errorf("task %q on queue %q: %w", task.Name, task.Queue, err))
	}
	return nil
}
