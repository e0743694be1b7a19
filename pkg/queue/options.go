package queue

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EnqueueOption adjusts a single Enqueue call.
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	id          uuid.UUID
	name        string
	queue       string
	priority    Priority
	maxRetries  int8
	scheduledAt time.Time
}

// WithTaskID sets the task id so the caller can cancel it later.
// uuid.Nil is ignored.
func WithTaskID(id uuid.UUID) EnqueueOption {
	return func(o *enqueueOptions) {
		if id != uuid.Nil {
			o.id = id
		}
	}
}

// WithTaskName overrides the name derived from the payload type.
func WithTaskName(name string) EnqueueOption {
	return func(o *enqueueOptions) {
		if name != "" {
			o.name = name
		}
	}
}

func WithQueue(queue string) EnqueueOption {
	return func(o *enqueueOptions) {
		if queue != "" {
			o.queue = queue
		}
	}
}

// WithPriority sets the task priority. Out of range values fail Enqueue.
func WithPriority(p Priority) EnqueueOption {
	return func(o *enqueueOptions) {
		o.priority = p
	}
}

// WithMaxRetries caps failed attempts before the task is dead-lettered.
// Values outside 0..10 are ignored.
func WithMaxRetries(n int8) EnqueueOption {
	return func(o *enqueueOptions) {
		if n >= 0 && n <= 10 {
			o.maxRetries = n
		}
	}
}

// WithDelay makes the task claimable d from now.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if d > 0 {
			o.scheduledAt = time.Now().Add(d)
		}
	}
}

// WithScheduledAt makes the task claimable at t.
func WithScheduledAt(t time.Time) EnqueueOption {
	return func(o *enqueueOptions) {
		o.scheduledAt = t
	}
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithQueues limits the worker to the named queues.
func WithQueues(queues ...string) WorkerOption {
	return func(w *Worker) {
		if len(queues) > 0 {
			w.queues = queues
		}
	}
}

// WithPullInterval sets how often an idle worker polls storage.
func WithPullInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.pullInterval = d
		}
	}
}

// WithLockTimeout sets how long a claimed task stays locked. It also bounds
// handler execution.
func WithLockTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.lockTimeout = d
		}
	}
}

func WithMaxConcurrentTasks(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithCheckInterval sets how often the scheduler looks for due periodic tasks.
func WithCheckInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// SchedulerTaskOption configures one periodic task.
type SchedulerTaskOption func(*periodicTask)

// WithTaskQueue routes the periodic task to queue.
func WithTaskQueue(queue string) SchedulerTaskOption {
	return func(t *periodicTask) {
		if queue != "" {
			t.queue = queue
		}
	}
}

func WithTaskPriority(p Priority) SchedulerTaskOption {
	return func(t *periodicTask) {
		if p.Valid() {
			t.priority = p
		}
	}
}
