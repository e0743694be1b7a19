package queue

import (
	"time"

	"github.com/google/uuid"
)

// DefaultQueueName is used when a task or worker names no queue.
const DefaultQueueName = "default"

// TaskKind tells one-time tasks apart from scheduler-created ones.
type TaskKind string

const (
	KindOneTime  TaskKind = "one-time"
	KindPeriodic TaskKind = "periodic"
)

// TaskStatus is the lifecycle state of a stored task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Priority orders due tasks within a claim. Higher runs first.
type Priority int8

const (
	PriorityLow     Priority = 25
	PriorityDefault Priority = 50
	PriorityHigh    Priority = 75
	PriorityMax     Priority = 100
)

// Valid reports whether p is within 0..100.
func (p Priority) Valid() bool {
	return p >= 0 && p <= PriorityMax
}

// Task is a unit of work stored by a Storage backend.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Queue       string     `json:"queue"`
	Kind        TaskKind   `json:"kind"`
	Name        string     `json:"name"`
	Payload     []byte     `json:"payload,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	RetryCount  int8       `json:"retry_count"`
	MaxRetries  int8       `json:"max_retries"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	LockedBy    *uuid.UUID `json:"locked_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// exhausted reports whether the task has no retries left.
func (t *Task) exhausted() bool {
	return t.RetryCount >= t.MaxRetries
}

// DeadTask is a task that ran out of retries or had no handler.
type DeadTask struct {
	ID         uuid.UUID `json:"id"`
	TaskID     uuid.UUID `json:"task_id"`
	Queue      string    `json:"queue"`
	Kind       TaskKind  `json:"kind"`
	Name       string    `json:"name"`
	Payload    []byte    `json:"payload,omitempty"`
	Priority   Priority  `json:"priority"`
	Error      string    `json:"error"`
	RetryCount int8      `json:"retry_count"`
	FailedAt   time.Time `json:"failed_at"`
}
