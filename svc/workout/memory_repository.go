package workout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository for tests and local runs.
type MemoryRepository struct {
	mu           sync.RWMutex
	workoutLogs  map[string]*WorkoutLog
	exerciseLogs map[string]*ExerciseLog
	sets         map[string]*SetRecord
	now          func() time.Time
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		workoutLogs:  make(map[string]*WorkoutLog),
		exerciseLogs: make(map[string]*ExerciseLog),
		sets:         make(map[string]*SetRecord),
		now:          time.Now,
	}
}

func (r *MemoryRepository) EnsureWorkoutLog(_ context.Context, userID, workoutID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *WorkoutLog
	for _, wl := range r.workoutLogs {
		if wl.InProgress && wl.UserID == userID && wl.WorkoutID == workoutID {
			if found == nil || wl.CreatedAt.After(found.CreatedAt) {
				found = wl
			}
		}
	}
	if found != nil {
		return found.ID, nil
	}

	wl := &WorkoutLog{
		ID:         uuid.NewString(),
		UserID:     userID,
		WorkoutID:  workoutID,
		InProgress: true,
		CreatedAt:  r.now(),
	}
	r.workoutLogs[wl.ID] = wl
	return wl.ID, nil
}

func (r *MemoryRepository) EnsureExerciseLog(_ context.Context, userID, exerciseID, workoutLogID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.workoutLogs[workoutLogID]; !ok {
		return "", ErrWorkoutLogMissing
	}
	for _, el := range r.exerciseLogs {
		if el.WorkoutLogID == workoutLogID && el.ExerciseID == exerciseID {
			return el.ID, nil
		}
	}
	el := &ExerciseLog{
		ID:           uuid.NewString(),
		UserID:       userID,
		ExerciseID:   exerciseID,
		WorkoutLogID: workoutLogID,
	}
	r.exerciseLogs[el.ID] = el
	return el.ID, nil
}

func (r *MemoryRepository) FlushWorkout(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wl, ok := r.workoutLogs[s.WorkoutLogID]
	if !ok {
		return ErrWorkoutLogMissing
	}
	if !wl.InProgress {
		return nil
	}
	keep := make(map[string]bool, len(s.Exercises))
	for _, ex := range s.Exercises {
		if _, ok := r.exerciseLogs[ex.ExerciseLogID]; !ok {
			return errors.Join(ErrExerciseLogMissing, errors.New(ex.ExerciseLogID))
		}
		keep[ex.ExerciseLogID] = true
	}

	// validated, apply all-or-nothing
	start := s.StartedAt()
	pause := pauseSeconds(s)
	wl.InProgress = false
	wl.StartTime = &start
	wl.PauseTime = &pause
	if s.EndTime != nil {
		end := time.UnixMilli(*s.EndTime)
		wl.EndTime = &end
	}

	for _, ex := range s.Exercises {
		el := r.exerciseLogs[ex.ExerciseLogID]
		orm := ex.OneRepMax
		el.OneRepMax = &orm
		el.Duration = clonePtr(ex.Duration)
		for _, d := range ex.Details {
			r.sets[d.DetailID] = &SetRecord{
				ID:            d.DetailID,
				ExerciseID:    ex.ExerciseID,
				ExerciseLogID: ex.ExerciseLogID,
				Reps:          d.Reps,
				WeightLifted:  d.Weight,
			}
		}
	}
	for id, el := range r.exerciseLogs {
		if el.WorkoutLogID == wl.ID && !keep[id] {
			r.deleteExerciseLog(id)
		}
	}
	return nil
}

func (r *MemoryRepository) DiscardWorkout(_ context.Context, userID, workoutID, workoutLogID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, wl := range r.workoutLogs {
		if !wl.InProgress || wl.UserID != userID {
			continue
		}
		if id == workoutLogID || wl.WorkoutID == workoutID {
			for elID, el := range r.exerciseLogs {
				if el.WorkoutLogID == id {
					r.deleteExerciseLog(elID)
				}
			}
			delete(r.workoutLogs, id)
		}
	}
	return nil
}

func (r *MemoryRepository) deleteExerciseLog(id string) {
	for setID, set := range r.sets {
		if set.ExerciseLogID == id {
			delete(r.sets, setID)
		}
	}
	delete(r.exerciseLogs, id)
}

// WorkoutLog returns a copy of the workout log row, if present.
func (r *MemoryRepository) WorkoutLog(id string) (WorkoutLog, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wl, ok := r.workoutLogs[id]
	if !ok {
		return WorkoutLog{}, false
	}
	return *wl, true
}

// ExerciseLogs returns copies of the exercise log rows under workoutLogID.
func (r *MemoryRepository) ExerciseLogs(workoutLogID string) []ExerciseLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ExerciseLog
	for _, el := range r.exerciseLogs {
		if el.WorkoutLogID == workoutLogID {
			out = append(out, *el)
		}
	}
	return out
}

// Sets returns copies of the set rows under exerciseLogID.
func (r *MemoryRepository) Sets(exerciseLogID string) []SetRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []SetRecord
	for _, set := range r.sets {
		if set.ExerciseLogID == exerciseLogID {
			out = append(out, *set)
		}
	}
	return out
}

// WorkoutLogCount returns the number of workout log rows.
func (r *MemoryRepository) WorkoutLogCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workoutLogs)
}
