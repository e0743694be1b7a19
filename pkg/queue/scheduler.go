package queue

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SchedulerRepository is the storage side of periodic scheduling.
type SchedulerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
	// GetPendingTaskByName returns a not yet finished task named taskName,
	// or ErrTaskNotFound.
	GetPendingTaskByName(ctx context.Context, taskName string) (*Task, error)
}

// Scheduler materializes periodic tasks into storage. At most one pending
// instance of each periodic task exists at a time, so several processes
// may run schedulers over the same storage.
type Scheduler struct {
	repo     SchedulerRepository
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	tasks map[string]*periodicTask
}

type periodicTask struct {
	name     string
	schedule Schedule
	queue    string
	priority Priority
	next     time.Time
}

// NewScheduler creates a scheduler that checks for due tasks every 30s
// unless WithCheckInterval says otherwise.
func NewScheduler(repo SchedulerRepository, opts ...SchedulerOption) (*Scheduler, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	s := &Scheduler{
		repo:     repo,
		interval: 30 * time.Second,
		logger:   slog.Default(),
		now:      time.Now,
		tasks:    make(map[string]*periodicTask),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddTask registers a periodic task. Its handler must be registered with a
// worker under the same name.
func (s *Scheduler) AddTask(name string, schedule Schedule, opts ...SchedulerTaskOption) error {
	t := &periodicTask{
		name:     name,
		schedule: schedule,
		queue:    DefaultQueueName,
		priority: PriorityDefault,
	}
	for _, opt := range opts {
		opt(t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[name]; ok {
		return ErrTaskAlreadyRegistered
	}
	s.tasks[name] = t
	s.logger.Info("periodic task registered",
		slog.String("task_name", name),
		slog.String("schedule", schedule.String()),
		slog.String("queue", t.queue))
	return nil
}

// ListTasks returns the registered periodic task names in sorted order.
func (s *Scheduler) ListTasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Start checks for due tasks right away and then on every interval until
// ctx is done. It returns ctx.Err().
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.ListTasks()) == 0 {
		return ErrSchedulerNotConfigured
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	due := make([]*periodicTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.next.IsZero() || !t.next.After(now) {
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		next, err := s.materialize(ctx, t, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to schedule periodic task",
				slog.String("task_name", t.name),
				slog.String("error", err.Error()))
			continue
		}
		s.mu.Lock()
		t.next = next
		s.mu.Unlock()
	}
}

// materialize ensures an unfinished instance of t exists and returns its run
// time. A new instance is due one schedule step after now.
func (s *Scheduler) materialize(ctx context.Context, t *periodicTask, now time.Time) (time.Time, error) {
	existing, err := s.repo.GetPendingTaskByName(ctx, t.name)
	switch {
	case err == nil && existing != nil:
		return existing.ScheduledAt, nil
	case err != nil && !errors.Is(err, ErrTaskNotFound):
		return time.Time{}, err
	}

	at := t.schedule.Next(now)
	err = s.repo.CreateTask(ctx, &Task{
		ID:          uuid.New(),
		Queue:       t.queue,
		Kind:        KindPeriodic,
		Name:        t.name,
		Status:      TaskStatusPending,
		Priority:    t.priority,
		MaxRetries:  3,
		ScheduledAt: at,
		CreatedAt:   now,
	})
	if err != nil {
		return time.Time{}, err
	}
	s.logger.DebugContext(ctx, "periodic task scheduled",
		slog.String("task_name", t.name),
		slog.Time("scheduled_at", at))
	return at, nil
}
