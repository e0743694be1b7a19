package workout

import (
	"context"
	"time"

	"github.com/dmitrymomot/trakkr/pkg/queue"
)

// FinishedWorkout describes a workout that has been flushed.
type FinishedWorkout struct {
	UserID       string
	WorkoutID    string
	WorkoutLogID string
	StartedAt    time.Time
	EndedAt      time.Time
	Active       time.Duration
	Paused       time.Duration
	Exercises    int
	Sets         int
}

// FinishHook runs after a successful Finish. Its error is logged and
// does not affect the result of Finish.
type FinishHook func(ctx context.Context, w FinishedWorkout) error

func newFinishedWorkout(s *Session) FinishedWorkout {
	fw := FinishedWorkout{
		UserID:       s.UserID,
		WorkoutID:    s.WorkoutID,
		WorkoutLogID: s.WorkoutLogID,
		StartedAt:    s.StartedAt(),
		Paused:       time.Duration(s.PauseTime) * time.Millisecond,
		Exercises:    len(s.Exercises),
		Sets:         s.SetCount(),
	}
	if s.EndTime != nil {
		fw.EndedAt = time.UnixMilli(*s.EndTime)
		fw.Active = s.ActiveDuration(fw.EndedAt)
	}
	return fw
}

// AnalyzeWorkout asks the analysis consumer to review a finished workout.
type AnalyzeWorkout struct {
	UserID       string `json:"user_id"`
	WorkoutID    string `json:"workout_id"`
	WorkoutLogID string `json:"workout_log_id"`
}

// SendNotification asks the notification consumer to message a user.
type SendNotification struct {
	UserID       string `json:"user_id"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	WorkoutLogID string `json:"workout_log_id,omitempty"`
}

// EnqueueAnalysis returns a hook that queues AnalyzeWorkout on queueName.
func EnqueueAnalysis(q TaskQueue, queueName string) FinishHook {
	return func(ctx context.Context, w FinishedWorkout) error {
		return q.Enqueue(ctx, AnalyzeWorkout{
			UserID:       w.UserID,
			WorkoutID:    w.WorkoutID,
			WorkoutLogID: w.WorkoutLogID,
		}, queue.WithQueue(queueName))
	}
}

// EnqueueNotification returns a hook that queues a "workout complete"
// notification on queueName.
func EnqueueNotification(q TaskQueue, queueName string) FinishHook {
	return func(ctx context.Context, w FinishedWorkout) error {
		return q.Enqueue(ctx, SendNotification{
			UserID:       w.UserID,
			Title:        "Workout complete",
			Message:      "Your workout has been saved. Analysis will be ready shortly.",
			WorkoutLogID: w.WorkoutLogID,
		}, queue.WithQueue(queueName), queue.WithPriority(queue.PriorityLow))
	}
}
