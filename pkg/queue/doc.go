// Package queue is a small durable task queue for one-time, delayed and
// periodic work.
//
// An Enqueuer stores JSON payloads as tasks named after the payload type.
// A Worker claims due tasks from the queues it serves and dispatches them to
// the Handler registered under the task name. A Scheduler keeps one pending
// instance of every periodic task in storage. Service ties the three to a
// single Storage and runs the worker and the scheduler together.
//
// Two storages are provided: MemoryStorage for tests and PGStorage, which
// keeps tasks in PostgreSQL and lets several processes share them.
// Delayed tasks in PGStorage survive restarts, so they double as durable
// timers:
//
//	svc, _ := queue.NewService(queue.NewPGStorage(pool))
//	_ = svc.RegisterHandlers(queue.NewTaskHandler(func(ctx context.Context, p ExpireSession) error {
//		return expire(ctx, p)
//	}))
//	_ = svc.EnqueueAt(ctx, ExpireSession{UserID: id}, deadline, queue.WithTaskID(taskID))
//	// later, if the deadline no longer applies
//	_ = svc.CancelTask(ctx, taskID)
//
// Failed tasks are retried with a linear backoff and moved to the dead
// letter queue once MaxRetries is reached. Tasks without a handler go there
// immediately.
package queue
