package workout

import "errors"

// Error kinds. Every error returned by Manager matches exactly one of these
// with errors.Is; the message doubles as a stable machine-readable tag.
var (
	// ErrNotFound indicates there is no session for the user (or nothing to flush)
	ErrNotFound = errors.New("workout.session_not_found")

	// ErrConflict indicates a session is already in progress for the user
	ErrConflict = errors.New("workout.session_exists")

	// ErrInvalidState indicates the operation is not allowed in the current session state
	ErrInvalidState = errors.New("workout.invalid_state")

	// ErrInvalidInput indicates malformed identifiers, reps or weight
	ErrInvalidInput = errors.New("workout.invalid_input")

	// ErrStoreUnavailable indicates the session store could not be reached; safe to retry
	ErrStoreUnavailable = errors.New("workout.store_unavailable")

	// ErrDurableWrite indicates a durable store write failed; the session is kept for retry
	ErrDurableWrite = errors.New("workout.durable_write_failed")
)

// Details joined to the kinds above.
var (
	ErrNothingLogged      = errors.New("no sets were logged in this workout")
	ErrEmptyUserID        = errors.New("user id is required")
	ErrEmptyWorkoutID     = errors.New("workout id is required")
	ErrEmptyExerciseID    = errors.New("exercise id is required")
	ErrRepsOutOfRange     = errors.New("reps must be between 1 and 36")
	ErrWeightOutOfRange   = errors.New("weight must be a finite number >= 0")
	ErrUnsupportedSchema  = errors.New("session schema version is not supported")
	ErrWorkoutLogMissing  = errors.New("workout log row does not exist")
	ErrExerciseLogMissing = errors.New("exercise log row does not exist")
	ErrInvalidDurableID   = errors.New("durable row id is malformed")
	ErrNegativeDuration   = errors.New("exercise duration cannot be negative")
	ErrUnknownExercise    = errors.New("exercise is not part of the session")
)

var kinds = []error{
	ErrNotFound,
	ErrConflict,
	ErrInvalidState,
	ErrInvalidInput,
	ErrStoreUnavailable,
	ErrDurableWrite,
}

// ErrorKind returns the stable tag of err's kind, or "workout.internal" when
// err does not carry one. Nil yields "".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "workout.internal"
}

// IsRetryable reports whether the caller may retry the same call unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrDurableWrite)
}
