package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups non-nil errors under "errors". All-nil input yields an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under "error". A nil err yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under "user_id".
func UserID(id string) slog.Attr {
	return optionalString("user_id", id)
}

// WorkoutID records the workout template identifier under "workout_id".
func WorkoutID(id string) slog.Attr {
	return optionalString("workout_id", id)
}

// WorkoutLogID records the durable workout log identifier under "workout_log_id".
func WorkoutLogID(id string) slog.Attr {
	return optionalString("workout_log_id", id)
}

// ExerciseID records the exercise identifier under "exercise_id".
func ExerciseID(id string) slog.Attr {
	return optionalString("exercise_id", id)
}

// TaskID records a background task identifier under "task_id".
func TaskID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("task_id", id)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	return optionalString("request_id", id)
}

// Queue records a queue name under "queue".
func Queue(name string) slog.Attr {
	return slog.String("queue", name)
}

// Count records a number of processed items under "count".
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Duration records a duration under "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records a lifecycle event name under "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func optionalString(key, v string) slog.Attr {
	if v == "" {
		return slog.Attr{}
	}
	return slog.String(key, v)
}
