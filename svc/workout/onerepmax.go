package workout

import (
	"errors"
	"math"
)

// MaxReps is the largest rep count the estimate is defined for:
// at 37 reps the denominator reaches zero.
const MaxReps = 36

const (
	oneRepMaxIntercept = 1.0278
	oneRepMaxSlope     = 0.0278
)

// ValidateSet checks reps and weight of a single set.
func ValidateSet(reps int, weight float64) error {
	if reps < 1 || reps > MaxReps {
		return errors.Join(ErrInvalidInput, ErrRepsOutOfRange)
	}
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return errors.Join(ErrInvalidInput, ErrWeightOutOfRange)
	}
	return nil
}

// EstimateOneRepMax returns weight / (1.0278 - 0.0278*reps).
func EstimateOneRepMax(reps int, weight float64) (float64, error) {
	if err := ValidateSet(reps, weight); err != nil {
		return 0, err
	}
	return weight / (oneRepMaxIntercept - oneRepMaxSlope*float64(reps)), nil
}

// recomputeOneRepMax sets OneRepMax to the best estimate over the current details.
func (e *ExerciseProgress) recomputeOneRepMax() {
	best := 0.0
	for _, d := range e.Details {
		if est, err := EstimateOneRepMax(d.Reps, d.Weight); err == nil && est > best {
			best = est
		}
	}
	e.OneRepMax = best
}
