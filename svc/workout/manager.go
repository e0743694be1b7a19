package workout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/trakkr/pkg/logger"
	"github.com/dmitrymomot/trakkr/pkg/statemachine"
)

// Manager runs the session lifecycle for all users. Every operation on a user
// holds that user's lock for its whole read-modify-write cycle, so concurrent
// calls for the same user never lose updates.
type Manager struct {
	store    Store
	repo     Repository
	locker   Locker
	expiry   ExpiryScheduler
	events   EventPublisher
	hooks    []FinishHook
	timeout  time.Duration
	lockWait time.Duration
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
}

// NewManager creates a Manager. Without options it uses an in-process lock,
// no expiry scheduler (only read-time and sweep expiry) and a 4h timeout.
func NewManager(store Store, repo Repository, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		repo:     repo,
		locker:   NewMemoryLocker(),
		timeout:  DefaultSessionTimeout,
		lockWait: DefaultLockWait,
		now:      time.Now,
		newID:    defaultIDGenerator,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("workout"))
	return m
}

// SessionTimeout returns the configured session lifetime.
func (m *Manager) SessionTimeout() time.Duration {
	return m.timeout
}

// Start opens a new session for userID. It fails with ErrConflict when a
// live session exists; an overdue one is discarded first.
func (m *Manager) Start(ctx context.Context, userID, workoutID string) (*Session, error) {
	if workoutID == "" {
		return nil, errors.Join(ErrInvalidInput, ErrEmptyWorkoutID)
	}

	var started *Session
	err := m.withLock(ctx, userID, func(ctx context.Context) error {
		cur, err := m.store.Get(ctx, userID)
		if err != nil {
			return err
		}
		now := m.now()
		if cur != nil && cur.Overdue(now, m.timeout) {
			if err := m.discard(ctx, cur, EventExpire); err != nil {
				return err
			}
			cur = nil
		}
		if _, err := transition(ctx, cur, EventStart); err != nil {
			return err
		}

		s := &Session{
			Version:   SchemaVersion,
			UserID:    userID,
			WorkoutID: workoutID,
			StartTime: now.UnixMilli(),
			Exercises: []ExerciseProgress{},
		}
		if m.expiry != nil {
			taskID, err := m.expiry.ScheduleExpiry(ctx, ExpireSession{UserID: userID, StartTime: s.StartTime}, s.Deadline(m.timeout))
			if err != nil {
				// the sweep still catches the session
				m.logger.WarnContext(ctx, "failed to schedule session expiry",
					logger.UserID(userID), logger.Error(err))
			}
			s.ExpiryTaskID = taskID
		}
		if err := m.store.Put(ctx, s); err != nil {
			m.cancelExpiry(ctx, s)
			return err
		}

		m.logger.InfoContext(ctx, "workout started",
			logger.UserID(userID), logger.WorkoutID(workoutID), logger.TaskID(s.ExpiryTaskID))
		m.publish(ctx, EventStart.Name(), userID, s, "")
		started = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

// RecordSet appends a set to exerciseID, creating durable workout and
// exercise log rows on first use, and raises the exercise's one-rep max if
// the new set beats it.
func (m *Manager) RecordSet(ctx context.Context, userID, exerciseID string, reps int, weight float64) (*Session, error) {
	if exerciseID == "" {
		return nil, errors.Join(ErrInvalidInput, ErrEmptyExerciseID)
	}
	estimate, err := EstimateOneRepMax(reps, weight)
	if err != nil {
		return nil, err
	}

	var updated *Session
	err = m.withLock(ctx, userID, func(ctx context.Context) error {
		s, err := m.store.Get(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := transition(ctx, s, EventRecordSet); err != nil {
			return err
		}

		if s.WorkoutLogID == "" {
			id, err := m.repo.EnsureWorkoutLog(ctx, userID, s.WorkoutID)
			if err != nil {
				return errors.Join(ErrDurableWrite, err)
			}
			s.WorkoutLogID = id
		}

		ex := s.Exercise(exerciseID)
		if ex == nil {
			id, err := m.repo.EnsureExerciseLog(ctx, userID, exerciseID, s.WorkoutLogID)
			if err != nil {
				return errors.Join(ErrDurableWrite, err)
			}
			s.Exercises = append(s.Exercises, ExerciseProgress{
				ExerciseID:    exerciseID,
				ExerciseLogID: id,
				Details:       []SetEntry{},
			})
			ex = &s.Exercises[len(s.Exercises)-1]
		}

		ex.Details = append(ex.Details, SetEntry{DetailID: m.newID(), Reps: reps, Weight: weight})
		ex.OneRepMax = max(ex.OneRepMax, estimate)

		if err := m.store.Put(ctx, s); err != nil {
			return err
		}
		m.publish(ctx, EventRecordSet.Name(), userID, s, s.WorkoutLogID)
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSet removes the set with detailID. Unknown ids are a no-op. When the
// last set of an exercise goes, the exercise goes too; when no exercises are
// left, the session forgets its workout log.
func (m *Manager) DeleteSet(ctx context.Context, userID, detailID string) (*Session, error) {
	var updated *Session
	err := m.withLock(ctx, userID, func(ctx context.Context) error {
		s, err := m.store.Get(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := transition(ctx, s, EventDeleteSet); err != nil {
			return err
		}
		updated = s
		if !s.removeSet(detailID) {
			return nil
		}
		if err := m.store.Put(ctx, s); err != nil {
			return err
		}
		m.publish(ctx, EventDeleteSet.Name(), userID, s, s.WorkoutLogID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Pause stops the active clock.
func (m *Manager) Pause(ctx context.Context, userID string) (*Session, error) {
	return m.update(ctx, userID, EventPause, func(s *Session, now int64) {
		s.pause(now)
	})
}

// Resume restarts the clock and adds the pause to the accumulated pause time.
func (m *Manager) Resume(ctx context.Context, userID string) (*Session, error) {
	return m.update(ctx, userID, EventResume, func(s *Session, now int64) {
		s.resume(now)
	})
}

// FinishOption customizes Finish.
type FinishOption func(*finishOptions)

type finishOptions struct {
	durations map[string]int64
}

// WithExerciseDurations records seconds spent per exercise id.
func WithExerciseDurations(durations map[string]int64) FinishOption {
	return func(o *finishOptions) {
		o.durations = durations
	}
}

// Finish closes the session, writes it to the durable store and removes it.
// A paused session has its open pause counted first. If the durable write
// fails the session stays in place and Finish may be retried.
func (m *Manager) Finish(ctx context.Context, userID string, opts ...FinishOption) (string, error) {
	var o finishOptions
	for _, opt := range opts {
		opt(&o)
	}

	var finished *Session
	err := m.withLock(ctx, userID, func(ctx context.Context) error {
		s, err := m.store.Get(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := transition(ctx, s, EventFinish); err != nil {
			return err
		}

		final := s.Clone()
		if err := applyDurations(final, o.durations); err != nil {
			return err
		}
		final.finalize(m.now().UnixMilli())

		if err := m.repo.FlushWorkout(ctx, final); err != nil {
			m.logger.ErrorContext(ctx, "failed to flush workout",
				logger.UserID(userID), logger.WorkoutLogID(final.WorkoutLogID), logger.Error(err))
			return errors.Join(ErrDurableWrite, err)
		}
		if err := m.store.Delete(ctx, userID); err != nil {
			return err
		}
		m.cancelExpiry(ctx, s)
		m.publish(ctx, EventFinish.Name(), userID, nil, final.WorkoutLogID)
		finished = final
		return nil
	})
	if err != nil {
		return "", err
	}

	m.logger.InfoContext(ctx, "workout finished",
		logger.UserID(userID),
		logger.WorkoutLogID(finished.WorkoutLogID),
		logger.Duration(finished.ActiveDuration(m.now())))
	m.runHooks(ctx, finished)
	return finished.WorkoutLogID, nil
}

// Discard drops the session and its in-progress durable rows. Discarding
// when no session exists is a no-op.
func (m *Manager) Discard(ctx context.Context, userID string) error {
	return m.withLock(ctx, userID, func(ctx context.Context) error {
		s, err := m.store.Get(ctx, userID)
		if err != nil {
			return err
		}
		return m.discard(ctx, s, EventDiscard)
	})
}

// GetCurrent returns the user's session. An overdue session is discarded on
// read and reported as absent.
func (m *Manager) GetCurrent(ctx context.Context, userID string) (*Session, bool, error) {
	if userID == "" {
		return nil, false, errors.Join(ErrInvalidInput, ErrEmptyUserID)
	}
	s, err := m.store.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if s == nil {
		return nil, false, nil
	}
	if !s.Overdue(m.now(), m.timeout) {
		return s, true, nil
	}

	err = m.withLock(ctx, userID, func(ctx context.Context) error {
		cur, err := m.store.Get(ctx, userID)
		if err != nil || cur == nil {
			return err
		}
		if !cur.Overdue(m.now(), m.timeout) {
			s = cur
			return nil
		}
		s = nil
		return m.discard(ctx, cur, EventExpire)
	})
	if err != nil {
		return nil, false, err
	}
	return s, s != nil, nil
}

// Expire discards the user's session if it is the one that started at
// startTime. Firing for a finished, discarded or replaced session is a no-op.
func (m *Manager) Expire(ctx context.Context, userID string, startTime int64) error {
	return m.withLock(ctx, userID, func(ctx context.Context) error {
		s, err := m.store.Get(ctx, userID)
		if err != nil {
			return err
		}
		if s == nil || s.StartTime != startTime {
			m.logger.DebugContext(ctx, "stale session expiry ignored", logger.UserID(userID))
			return nil
		}
		return m.discard(ctx, s, EventExpire)
	})
}

// SweepExpired discards every overdue session and returns how many went.
// Errors for single users are logged and joined; the sweep keeps going.
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	ids, err := m.store.UserIDs(ctx)
	if err != nil {
		return 0, err
	}

	var (
		swept int
		errs  []error
	)
	for _, userID := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		err := m.withLock(ctx, userID, func(ctx context.Context) error {
			s, err := m.store.Get(ctx, userID)
			if err != nil || s == nil || !s.Overdue(m.now(), m.timeout) {
				return err
			}
			if err := m.discard(ctx, s, EventExpire); err != nil {
				return err
			}
			swept++
			return nil
		})
		if err != nil {
			m.logger.WarnContext(ctx, "failed to sweep session", logger.UserID(userID), logger.Error(err))
			errs = append(errs, err)
		}
	}
	if swept > 0 {
		m.logger.InfoContext(ctx, "expired sessions swept", logger.Count(swept))
	}
	return swept, errors.Join(errs...)
}

func (m *Manager) update(ctx context.Context, userID string, event statemachine.StringEvent, apply func(s *Session, now int64)) (*Session, error) {
	var updated *Session
	err := m.withLock(ctx, userID, func(ctx context.Context) error {
		s, err := m.store.Get(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := transition(ctx, s, event); err != nil {
			return err
		}
		apply(s, m.now().UnixMilli())
		if err := m.store.Put(ctx, s); err != nil {
			return err
		}
		m.publish(ctx, event.Name(), userID, s, s.WorkoutLogID)
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// discard must be called with the user's lock held. A nil session is a no-op.
func (m *Manager) discard(ctx context.Context, s *Session, event statemachine.StringEvent) error {
	if _, err := transition(ctx, s, event); err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	if err := m.repo.DiscardWorkout(ctx, s.UserID, s.WorkoutID, s.WorkoutLogID); err != nil {
		return errors.Join(ErrDurableWrite, err)
	}
	if err := m.store.Delete(ctx, s.UserID); err != nil {
		return err
	}
	m.cancelExpiry(ctx, s)
	m.logger.InfoContext(ctx, "workout discarded",
		logger.UserID(s.UserID), logger.WorkoutLogID(s.WorkoutLogID), logger.Event(event.Name()))
	m.publish(ctx, event.Name(), s.UserID, nil, s.WorkoutLogID)
	return nil
}

func (m *Manager) cancelExpiry(ctx context.Context, s *Session) {
	if m.expiry == nil || s.ExpiryTaskID == "" {
		return
	}
	if err := m.expiry.CancelExpiry(ctx, s.ExpiryTaskID); err != nil {
		m.logger.WarnContext(ctx, "failed to cancel session expiry",
			logger.UserID(s.UserID), logger.TaskID(s.ExpiryTaskID), logger.Error(err))
	}
}

func (m *Manager) runHooks(ctx context.Context, s *Session) {
	if len(m.hooks) == 0 {
		return
	}
	fw := newFinishedWorkout(s)
	for _, hook := range m.hooks {
		if err := hook(ctx, fw); err != nil {
			m.logger.WarnContext(ctx, "finish hook failed",
				logger.UserID(s.UserID), logger.WorkoutLogID(s.WorkoutLogID), logger.Error(err))
		}
	}
}

func (m *Manager) withLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	if userID == "" {
		return errors.Join(ErrInvalidInput, ErrEmptyUserID)
	}

	lockCtx, cancel := context.WithTimeout(ctx, m.lockWait)
	unlock, err := m.locker.Lock(lockCtx, lockKey(userID))
	cancel()
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			m.logger.WarnContext(ctx, "failed to release session lock", logger.UserID(userID), logger.Error(err))
		}
	}()
	return fn(ctx)
}

func applyDurations(s *Session, durations map[string]int64) error {
	for exerciseID, secs := range durations {
		if secs < 0 {
			return errors.Join(ErrInvalidInput, ErrNegativeDuration)
		}
		ex := s.Exercise(exerciseID)
		if ex == nil {
			return errors.Join(ErrInvalidInput, ErrUnknownExercise)
		}
		ex.Duration = &secs
	}
	return nil
}
