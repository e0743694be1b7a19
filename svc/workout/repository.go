package workout

import (
	"context"
	"time"
)

// Repository is the durable workout history. Every method must be safe to
// retry after a failure.
type Repository interface {
	// EnsureWorkoutLog returns the in-progress workout log of userID for
	// workoutID, creating one if none exists.
	EnsureWorkoutLog(ctx context.Context, userID, workoutID string) (string, error)

	// EnsureExerciseLog returns the exercise log for exerciseID under
	// workoutLogID, creating one if none exists.
	EnsureExerciseLog(ctx context.Context, userID, exerciseID, workoutLogID string) (string, error)

	// FlushWorkout writes the finished session in one atomic step: closes the
	// workout log, updates exercise logs and inserts sets. Flushing a log that
	// is already closed succeeds without changes.
	FlushWorkout(ctx context.Context, s *Session) error

	// DiscardWorkout removes in-progress rows belonging to the session:
	// workoutLogID when set, plus any in-progress log of userID for workoutID.
	DiscardWorkout(ctx context.Context, userID, workoutID, workoutLogID string) error
}

// WorkoutLog is a durable workout row.
type WorkoutLog struct {
	ID         string
	UserID     string
	WorkoutID  string
	InProgress bool
	StartTime  *time.Time
	EndTime    *time.Time
	PauseTime  *float64 // seconds
	CreatedAt  time.Time
}

// ExerciseLog is a durable per-exercise row.
type ExerciseLog struct {
	ID           string
	UserID       string
	ExerciseID   string
	WorkoutLogID string
	OneRepMax    *float64
	Duration     *int64
}

// SetRecord is a durable set row.
type SetRecord struct {
	ID            string
	ExerciseID    string
	ExerciseLogID string
	Reps          int
	WeightLifted  float64
}

// pauseSeconds converts the session's accumulated pause to seconds.
func pauseSeconds(s *Session) float64 {
	return float64(s.PauseTime) / 1000
}
