package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// WorkerRepository is the storage side of task processing.
type WorkerRepository interface {
	// ClaimTask locks the most urgent due task of queues for lockDuration.
	// It returns ErrNoTaskToClaim when nothing is due.
	ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error)
	CompleteTask(ctx context.Context, taskID uuid.UUID) error
	// FailTask records errorMsg, bumps the retry count and either reschedules
	// the task with backoff or marks it failed once retries are exhausted.
	FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error
	MoveToDLQ(ctx context.Context, taskID uuid.UUID) error
}

// ErrWorkerRunning is returned by Run on a worker that is already running.
var ErrWorkerRunning = errors.New("queue: worker already running")

// Worker polls storage and dispatches claimed tasks to handlers.
type Worker struct {
	repo         WorkerRepository
	id           uuid.UUID
	queues       []string
	pullInterval time.Duration
	lockTimeout  time.Duration
	concurrency  int
	logger       *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	running  atomic.Bool
}

// NewWorker creates a worker over repo. By default it serves the default
// queue, polls every 5s, runs one task at a time and locks tasks for 5m.
func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	w := &Worker{
		repo:         repo,
		id:           uuid.New(),
		queues:       []string{DefaultQueueName},
		pullInterval: 5 * time.Second,
		lockTimeout:  5 * time.Minute,
		concurrency:  1,
		logger:       slog.Default(),
		handlers:     make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// RegisterHandlers adds handlers keyed by their names. Nil handlers are
// skipped and a later handler replaces an earlier one with the same name.
func (w *Worker) RegisterHandlers(handlers ...Handler) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			w.handlers[h.Name()] = h
		}
	}
	return nil
}

// Run processes tasks until ctx is done, then waits for in-flight tasks.
// Running handlers are not cancelled with ctx; they are bounded by the
// lock timeout instead.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.RLock()
	n := len(w.handlers)
	w.mu.RUnlock()
	if n == 0 {
		return ErrNoHandlers
	}
	if !w.running.CompareAndSwap(false, true) {
		return ErrWorkerRunning
	}
	defer w.running.Store(false)

	log := w.logger.With(slog.String("worker_id", w.id.String()))
	log.InfoContext(ctx, "worker started",
		slog.Any("queues", w.queues),
		slog.Int("concurrency", w.concurrency))

	slots := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			log.Info("worker stopped")
			return nil
		case <-ticker.C:
			w.dispatch(ctx, log, slots, &wg)
		}
	}
}

// dispatch claims tasks while there are free slots and due tasks.
func (w *Worker) dispatch(ctx context.Context, log *slog.Logger, slots chan struct{}, wg *sync.WaitGroup) {
	for {
		select {
		case slots <- struct{}{}:
		default:
			return
		}

		task, err := w.repo.ClaimTask(ctx, w.id, w.queues, w.lockTimeout)
		if err != nil {
			<-slots
			if !errors.Is(err, ErrNoTaskToClaim) && ctx.Err() == nil {
				log.ErrorContext(ctx, "failed to claim task", slog.String("error", err.Error()))
			}
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-slots }()
			w.process(context.WithoutCancel(ctx), log, task)
		}()
	}
}

func (w *Worker) process(ctx context.Context, log *slog.Logger, task *Task) {
	log = log.With(
		slog.String("task_id", task.ID.String()),
		slog.String("task_name", task.Name),
		slog.String("queue", task.Queue),
	)

	w.mu.RLock()
	h, ok := w.handlers[task.Name]
	w.mu.RUnlock()
	if !ok {
		// Retrying cannot help a task nobody handles.
		log.ErrorContext(ctx, "no handler registered for task")
		if err := w.bury(ctx, task, ErrHandlerNotFound.Error()+": "+task.Name); err != nil {
			log.ErrorContext(ctx, "failed to dead-letter task", slog.String("error", err.Error()))
		}
		return
	}

	start := time.Now()
	runErr := w.invoke(ctx, h, task)
	elapsed := time.Since(start)

	if runErr == nil {
		if err := w.repo.CompleteTask(ctx, task.ID); err != nil {
			log.ErrorContext(ctx, "failed to complete task", slog.String("error", err.Error()))
			return
		}
		log.InfoContext(ctx, "task completed", slog.Duration("duration", elapsed))
		return
	}

	log.ErrorContext(ctx, "task failed",
		slog.String("error", runErr.Error()),
		slog.Int("attempt", int(task.RetryCount)+1),
		slog.Int("max_retries", int(task.MaxRetries)),
		slog.Duration("duration", elapsed))

	if err := w.repo.FailTask(ctx, task.ID, runErr.Error()); err != nil {
		log.ErrorContext(ctx, "failed to record task failure", slog.String("error", err.Error()))
		return
	}
	task.RetryCount++
	if task.exhausted() {
		if err := w.repo.MoveToDLQ(ctx, task.ID); err != nil {
			log.ErrorContext(ctx, "failed to dead-letter task", slog.String("error", err.Error()))
			return
		}
		log.WarnContext(ctx, "task moved to dead letter queue")
	}
}

// invoke runs the handler under the lock timeout and turns panics into errors.
func (w *Worker) invoke(ctx context.Context, h Handler, task *Task) (err error) {
	ctx, cancel := context.WithTimeout(ctx, w.lockTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, task.Payload)
}

func (w *Worker) bury(ctx context.Context, task *Task, reason string) error {
	if err := w.repo.FailTask(ctx, task.ID, reason); err != nil {
		return err
	}
	return w.repo.MoveToDLQ(ctx, task.ID)
}
