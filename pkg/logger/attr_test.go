package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/trakkr/pkg/logger"
)

func TestErrorAttrs(t *testing.T) {
	t.Parallel()

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.Equal(t, "error", logger.Error(errors.New("boom")).Key)

	assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))
	attr := logger.Errors(nil, errors.New("a"), errors.New("b"))
	assert.Equal(t, "errors", attr.Key)
	group := attr.Value.Group()
	if assert.Len(t, group, 2) {
		assert.Equal(t, "1", group[0].Key)
		assert.Equal(t, "2", group[1].Key)
	}
}

func TestIdentifierAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(string) slog.Attr
		key  string
	}{
		{"user", logger.UserID, "user_id"},
		{"workout", logger.WorkoutID, "workout_id"},
		{"workout log", logger.WorkoutLogID, "workout_log_id"},
		{"exercise", logger.ExerciseID, "exercise_id"},
		{"request", logger.RequestID, "request_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.fn("").Equal(slog.Attr{}))
			attr := tt.fn("abc")
			assert.Equal(t, tt.key, attr.Key)
			assert.Equal(t, "abc", attr.Value.String())
		})
	}
}

func TestMiscAttrs(t *testing.T) {
	t.Parallel()

	assert.True(t, logger.TaskID(nil).Equal(slog.Attr{}))
	assert.Equal(t, "task_id", logger.TaskID("t1").Key)
	assert.Equal(t, int64(3), logger.Count(3).Value.Int64())
	assert.Equal(t, "workout", logger.Queue("workout").Value.String())
	assert.Equal(t, "api", logger.Component("api").Value.String())

	g := logger.Group("g", slog.Int("a", 1))
	assert.Equal(t, slog.KindGroup, g.Value.Kind())
}
