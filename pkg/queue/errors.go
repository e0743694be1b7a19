package queue

import "errors"

var (
	ErrRepositoryNil          = errors.New("queue: storage cannot be nil")
	ErrPayloadNil             = errors.New("queue: payload cannot be nil")
	ErrInvalidPriority        = errors.New("queue: priority must be between 0 and 100")
	ErrTaskCreate             = errors.New("queue: failed to create task")
	ErrHandlerNotFound        = errors.New("queue: no handler registered for task")
	ErrNoHandlers             = errors.New("queue: no task handlers registered")
	ErrTaskAlreadyRegistered  = errors.New("queue: periodic task already registered")
	ErrSchedulerNotConfigured = errors.New("queue: scheduler has no periodic tasks")
	ErrNoTaskToClaim          = errors.New("queue: no task to claim")
	ErrTaskNotFound           = errors.New("queue: task not found")
	ErrTaskNotCancelable      = errors.New("queue: task is not pending")
	ErrTaskNotProcessing      = errors.New("queue: task is not processing")
	ErrFailedToGetNextTask    = errors.New("queue: failed to claim next task")
	ErrFailedToUpdateTask     = errors.New("queue: failed to update task status")
	ErrFailedToMoveToDLQ      = errors.New("queue: failed to move task to dead letter queue")
)
