package workout

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SchemaVersion is written into every stored session record.
// Records without a version predate versioning and are read as version 1.
const SchemaVersion = 1

// SetEntry is a single logged set.
type SetEntry struct {
	DetailID string  `json:"detailId"`
	Reps     int     `json:"reps"`
	Weight   float64 `json:"weight"`
}

// ExerciseProgress holds the sets logged for one exercise in the session.
type ExerciseProgress struct {
	ExerciseID    string     `json:"exerciseId"`
	ExerciseLogID string     `json:"exerciseLogId"`
	Details       []SetEntry `json:"details"`
	OneRepMax     float64    `json:"oneRepMax"`

	// Duration is the time spent on the exercise in seconds, supplied on finish.
	Duration *int64 `json:"duration,omitempty"`
}

// Session is the in-progress workout of a single user.
// All timestamps are epoch milliseconds.
type Session struct {
	Version      int                `json:"version"`
	UserID       string             `json:"userId"`
	WorkoutID    string             `json:"workoutId"`
	WorkoutLogID string             `json:"workoutLogId,omitempty"`
	StartTime    int64              `json:"startTime"`
	PausedAt     *int64             `json:"pausedAt,omitempty"`
	PauseTime    int64              `json:"pauseTime"`
	EndTime      *int64             `json:"endTime,omitempty"`
	ExpiryTaskID string             `json:"expiryTaskId,omitempty"`
	Exercises    []ExerciseProgress `json:"exercises"`
}

// IsPaused reports whether the session is currently paused.
func (s *Session) IsPaused() bool {
	return s.PausedAt != nil
}

// StartedAt returns the session start as time.Time.
func (s *Session) StartedAt() time.Time {
	return time.UnixMilli(s.StartTime)
}

// Deadline is the moment the session becomes eligible for expiry.
func (s *Session) Deadline(timeout time.Duration) time.Time {
	return s.StartedAt().Add(timeout)
}

// Overdue reports whether the session outlived the timeout at now.
func (s *Session) Overdue(now time.Time, timeout time.Duration) bool {
	return !now.Before(s.Deadline(timeout))
}

// ActiveDuration is the elapsed time excluding pauses, the open pause included.
func (s *Session) ActiveDuration(now time.Time) time.Duration {
	end := now.UnixMilli()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	paused := s.PauseTime
	if s.PausedAt != nil && s.EndTime == nil {
		paused += max(end-*s.PausedAt, 0)
	}
	return time.Duration(max(end-s.StartTime-paused, 0)) * time.Millisecond
}

// SetCount returns the number of sets across all exercises.
func (s *Session) SetCount() int {
	n := 0
	for _, e := range s.Exercises {
		n += len(e.Details)
	}
	return n
}

// Exercise returns the progress entry for exerciseID, or nil.
func (s *Session) Exercise(exerciseID string) *ExerciseProgress {
	for i := range s.Exercises {
		if s.Exercises[i].ExerciseID == exerciseID {
			return &s.Exercises[i]
		}
	}
	return nil
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.PausedAt = clonePtr(s.PausedAt)
	c.EndTime = clonePtr(s.EndTime)
	c.Exercises = make([]ExerciseProgress, len(s.Exercises))
	for i, e := range s.Exercises {
		e.Details = append([]SetEntry(nil), e.Details...)
		if e.Details == nil {
			e.Details = []SetEntry{}
		}
		e.Duration = clonePtr(e.Duration)
		c.Exercises[i] = e
	}
	return &c
}

// removeSet drops the set with detailID and, when it was the last set of
// its exercise, the exercise itself. Reports whether anything was removed.
func (s *Session) removeSet(detailID string) bool {
	for i := range s.Exercises {
		ex := &s.Exercises[i]
		for j, d := range ex.Details {
			if d.DetailID != detailID {
				continue
			}
			ex.Details = append(ex.Details[:j], ex.Details[j+1:]...)
			if len(ex.Details) == 0 {
				s.Exercises = append(s.Exercises[:i], s.Exercises[i+1:]...)
			} else {
				ex.recomputeOneRepMax()
			}
			if len(s.Exercises) == 0 {
				s.WorkoutLogID = ""
			}
			return true
		}
	}
	return false
}

func (s *Session) pause(now int64) {
	s.PausedAt = &now
}

func (s *Session) resume(now int64) {
	if s.PausedAt == nil {
		return
	}
	s.PauseTime += max(now-*s.PausedAt, 0)
	s.PausedAt = nil
}

// finalize closes an open pause and stamps the end time.
func (s *Session) finalize(now int64) {
	s.resume(now)
	s.EndTime = &now
}

func encodeSession(s *Session) ([]byte, error) {
	if s.Version == 0 {
		s.Version = SchemaVersion
	}
	if s.Exercises == nil {
		s.Exercises = []ExerciseProgress{}
	}
	return json.Marshal(s)
}

func decodeSession(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Version == 0 {
		s.Version = SchemaVersion
	}
	if s.Version > SchemaVersion {
		return nil, errors.Join(ErrUnsupportedSchema, fmt.Errorf("version %d", s.Version))
	}
	if s.Exercises == nil {
		s.Exercises = []ExerciseProgress{}
	}
	for i := range s.Exercises {
		if s.Exercises[i].Details == nil {
			s.Exercises[i].Details = []SetEntry{}
		}
	}
	return &s, nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
