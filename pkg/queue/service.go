package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Service bundles Enqueuer, Worker and Scheduler around one Storage and
// runs the worker and scheduler with a shared lifecycle.
type Service struct {
	storage   Storage
	enqueuer  *Enqueuer
	worker    *Worker
	scheduler *Scheduler
	logger    *slog.Logger
}

// ServiceOption configures a Service instance.
type ServiceOption func(*Service) error

// NewService creates a queue service with default components backed by storage.
func NewService(storage Storage, opts ...ServiceOption) (*Service, error) {
	if storage == nil {
		return nil, ErrRepositoryNil
	}

	s := &Service{
		storage: storage,
		logger:  slog.Default(),
	}

	var err error
	if s.enqueuer, err = NewEnqueuer(storage); err != nil {
		return nil, fmt.Errorf("failed to create enqueuer: %w", err)
	}
	if s.worker, err = NewWorker(storage); err != nil {
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}
	if s.scheduler, err = NewScheduler(storage); err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply service option: %w", err)
		}
	}

	return s, nil
}

// NewServiceFromConfig applies cfg to every component. Extra options win over cfg.
func NewServiceFromConfig(cfg Config, storage Storage, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	serviceOpts := append([]ServiceOption{
		WithServiceLogger(logger),
		WithWorkerOptions(
			WithPullInterval(cfg.PollInterval),
			WithLockTimeout(cfg.LockTimeout),
			WithMaxConcurrentTasks(cfg.MaxConcurrentTasks),
			WithQueues(cfg.Queues...),
			WithWorkerLogger(logger),
		),
		WithSchedulerOptions(
			WithCheckInterval(cfg.CheckInterval),
			WithSchedulerLogger(logger),
		),
	}, opts...)

	return NewService(storage, serviceOpts...)
}

// WithServiceLogger sets the service logger. Nil is ignored.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// WithWorkerOptions rebuilds the worker with the given options.
func WithWorkerOptions(opts ...WorkerOption) ServiceOption {
	return func(s *Service) error {
		worker, err := NewWorker(s.storage, opts...)
		if err != nil {
			return err
		}
		s.worker = worker
		return nil
	}
}

// WithSchedulerOptions rebuilds the scheduler with the given options.
func WithSchedulerOptions(opts ...SchedulerOption) ServiceOption {
	return func(s *Service) error {
		scheduler, err := NewScheduler(s.storage, opts...)
		if err != nil {
			return err
		}
		s.scheduler = scheduler
		return nil
	}
}

// Run starts the worker and the scheduler and blocks until ctx is done.
// Components without handlers or tasks are skipped.
func (s *Service) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		err := s.worker.Run(ctx)
		if errors.Is(err, ErrNoHandlers) {
			s.logger.InfoContext(ctx, "no task handlers registered, worker will not start")
			return nil
		}
		return err
	})

	eg.Go(func() error {
		if len(s.scheduler.ListTasks()) == 0 {
			s.logger.InfoContext(ctx, "no periodic tasks registered, scheduler will not start")
			return nil
		}
		err := s.scheduler.Start(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return eg.Wait()
}

// RegisterHandlers registers task handlers with the worker.
func (s *Service) RegisterHandlers(handlers ...Handler) error {
	return s.worker.RegisterHandlers(handlers...)
}

// AddScheduledTask registers a periodic task with the scheduler.
func (s *Service) AddScheduledTask(name string, schedule Schedule, opts ...SchedulerTaskOption) error {
	return s.scheduler.AddTask(name, schedule, opts...)
}

// Enqueue adds a one-time task.
func (s *Service) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) error {
	return s.enqueuer.Enqueue(ctx, payload, opts...)
}

// EnqueueAt adds a one-time task that becomes claimable at the given time.
func (s *Service) EnqueueAt(ctx context.Context, payload any, at time.Time, opts ...EnqueueOption) error {
	return s.enqueuer.Enqueue(ctx, payload, append([]EnqueueOption{WithScheduledAt(at)}, opts...)...)
}

// CancelTask removes a pending task.
func (s *Service) CancelTask(ctx context.Context, taskID uuid.UUID) error {
	return s.storage.CancelTask(ctx, taskID)
}

// Enqueuer returns the service enqueuer.
func (s *Service) Enqueuer() *Enqueuer {
	return s.enqueuer
}

// Worker returns the service worker.
func (s *Service) Worker() *Worker {
	return s.worker
}

// Scheduler returns the service scheduler.
func (s *Service) Scheduler() *Scheduler {
	return s.scheduler
}
