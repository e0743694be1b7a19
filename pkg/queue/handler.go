package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Handler processes tasks registered under Name.
type Handler interface {
	Name() string
	Handle(ctx context.Context, payload json.RawMessage) error
}

// TaskHandlerFunc handles a decoded one-time task payload.
type TaskHandlerFunc[T any] func(ctx context.Context, payload T) error

// PeriodicTaskHandlerFunc handles a scheduler-created task. Periodic tasks
// carry no payload.
type PeriodicTaskHandlerFunc func(ctx context.Context) error

// NewTaskHandler binds fn to the task name derived from T, the same name
// Enqueue assigns to a T payload.
func NewTaskHandler[T any](fn TaskHandlerFunc[T]) Handler {
	var zero T
	return typedHandler[T]{name: TaskName(zero), fn: fn}
}

// NewPeriodicTaskHandler binds fn to the name a periodic task was added under.
func NewPeriodicTaskHandler(name string, fn PeriodicTaskHandlerFunc) Handler {
	return periodicHandler{name: name, fn: fn}
}

// TaskName returns the package-qualified type name of payload with pointer
// markers stripped, e.g. "workout.ExpireSession".
func TaskName(payload any) string {
	return strings.TrimLeft(fmt.Sprintf("%T", payload), "*")
}

type typedHandler[T any] struct {
	name string
	fn   TaskHandlerFunc[T]
}

func (h typedHandler[T]) Name() string { return h.name }

func (h typedHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return fmt.Errorf("decode %s payload: %w", h.name, err)
	}
	return h.fn(ctx, v)
}

type periodicHandler struct {
	name string
	fn   PeriodicTaskHandlerFunc
}

func (h periodicHandler) Name() string { return h.name }

func (h periodicHandler) Handle(ctx context.Context, _ json.RawMessage) error {
	return h.fn(ctx)
}
