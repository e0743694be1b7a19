package queue

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is a process-local Storage for tests and single-node
// development. Locks of crashed claims are reclaimed lazily on the next
// ClaimTask.
type MemoryStorage struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*Task
	dead  []DeadTask
	now   func() time.Time
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tasks: make(map[uuid.UUID]*Task),
		now:   time.Now,
	}
}

func (ms *MemoryStorage) CreateTask(_ context.Context, task *Task) error {
	if task == nil {
		return errors.New("queue: task cannot be nil")
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.tasks[task.ID]; ok {
		return fmt.Errorf("queue: task %s already exists", task.ID)
	}
	t := *task
	ms.tasks[t.ID] = &t
	return nil
}

// ClaimTask picks the highest priority due task, earliest first within a
// priority.
func (ms *MemoryStorage) ClaimTask(_ context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	var best *Task
	for _, t := range ms.tasks {
		if t.Status == TaskStatusProcessing && t.LockedUntil != nil && t.LockedUntil.Before(now) {
			t.Status, t.LockedUntil, t.LockedBy = TaskStatusPending, nil, nil
		}
		if t.Status != TaskStatusPending || t.ScheduledAt.After(now) || !slices.Contains(queues, t.Queue) {
			continue
		}
		if best == nil || claimOrder(t, best) < 0 {
			best = t
		}
	}
	if best == nil {
		return nil, ErrNoTaskToClaim
	}

	until := now.Add(lockDuration)
	best.Status = TaskStatusProcessing
	best.LockedUntil = &until
	best.LockedBy = &workerID
	t := *best
	return &t, nil
}

func claimOrder(a, b *Task) int {
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	return a.ScheduledAt.Compare(b.ScheduledAt)
}

func (ms *MemoryStorage) CompleteTask(_ context.Context, taskID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	t, err := ms.processing(taskID)
	if err != nil {
		return err
	}
	now := ms.now()
	t.Status = TaskStatusCompleted
	t.ProcessedAt = &now
	t.LockedUntil, t.LockedBy = nil, nil
	return nil
}

// FailTask retries with a linear 30s backoff per attempt.
func (ms *MemoryStorage) FailTask(_ context.Context, taskID uuid.UUID, errorMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	t, err := ms.processing(taskID)
	if err != nil {
		return err
	}
	t.RetryCount++
	t.Error = &errorMsg
	t.LockedUntil, t.LockedBy = nil, nil
	if t.exhausted() {
		t.Status = TaskStatusFailed
		return nil
	}
	t.Status = TaskStatusPending
	t.ScheduledAt = ms.now().Add(time.Duration(t.RetryCount) * 30 * time.Second)
	return nil
}

func (ms *MemoryStorage) MoveToDLQ(_ context.Context, taskID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	t, ok := ms.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	dead := DeadTask{
		ID:         uuid.New(),
		TaskID:     t.ID,
		Queue:      t.Queue,
		Kind:       t.Kind,
		Name:       t.Name,
		Payload:    t.Payload,
		Priority:   t.Priority,
		RetryCount: t.RetryCount,
		FailedAt:   ms.now(),
	}
	if t.Error != nil {
		dead.Error = *t.Error
	}
	ms.dead = append(ms.dead, dead)
	delete(ms.tasks, taskID)
	return nil
}

// GetPendingTaskByName returns a pending task named taskName, or one that
// is processing under a live lock.
func (ms *MemoryStorage) GetPendingTaskByName(_ context.Context, taskName string) (*Task, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	now := ms.now()
	for _, t := range ms.tasks {
		if t.Name != taskName {
			continue
		}
		live := t.Status == TaskStatusProcessing && (t.LockedUntil == nil || !t.LockedUntil.Before(now))
		if t.Status == TaskStatusPending || live {
			c := *t
			return &c, nil
		}
	}
	return nil, ErrTaskNotFound
}

// CancelTask deletes a pending task.
func (ms *MemoryStorage) CancelTask(_ context.Context, taskID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	t, ok := ms.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status != TaskStatusPending {
		return ErrTaskNotCancelable
	}
	delete(ms.tasks, taskID)
	return nil
}

// GetTask returns a copy of the task with taskID.
func (ms *MemoryStorage) GetTask(_ context.Context, taskID uuid.UUID) (*Task, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	t, ok := ms.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	c := *t
	return &c, nil
}

// DeadTasks returns a copy of the dead letter queue.
func (ms *MemoryStorage) DeadTasks() []DeadTask {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return slices.Clone(ms.dead)
}

func (ms *MemoryStorage) processing(taskID uuid.UUID) (*Task, error) {
	t, ok := ms.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if t.Status != TaskStatusProcessing {
		return nil, ErrTaskNotProcessing
	}
	return t, nil
}
