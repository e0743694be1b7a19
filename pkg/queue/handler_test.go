package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trakkr/pkg/queue"
)

type recomputeMax struct {
	UserID     string `json:"user_id"`
	ExerciseID string `json:"exercise_id"`
}

func TestTaskName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "queue_test.recomputeMax", queue.TaskName(recomputeMax{}))
	assert.Equal(t, "queue_test.recomputeMax", queue.TaskName(&recomputeMax{}))
	assert.Equal(t, "string", queue.TaskName("x"))
}

func TestNewTaskHandler(t *testing.T) {
	t.Parallel()

	var got recomputeMax
	h := queue.NewTaskHandler(func(_ context.Context, p recomputeMax) error {
		got = p
		return nil
	})
	assert.Equal(t, queue.TaskName(recomputeMax{}), h.Name())

	require.NoError(t, h.Handle(context.Background(), json.RawMessage(`{"user_id":"u1","exercise_id":"bench"}`)))
	assert.Equal(t, recomputeMax{UserID: "u1", ExerciseID: "bench"}, got)

	err := h.Handle(context.Background(), json.RawMessage(`{"user_id":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode queue_test.recomputeMax payload")
}

func TestNewPeriodicTaskHandler(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	h := queue.NewPeriodicTaskHandler("sweep", func(context.Context) error {
		calls++
		return boom
	})
	assert.Equal(t, "sweep", h.Name())
	assert.ErrorIs(t, h.Handle(context.Background(), nil), boom)
	assert.Equal(t, 1, calls)
}
