package workout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/trakkr/pkg/pg"
)

// pgConn is the subset of *pgxpool.Pool used by PGRepository.
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGRepository implements Repository on the workout_logs, exercise_logs
// and sets tables.
type PGRepository struct {
	db pgConn
}

// NewPGRepository creates a Postgres backed repository.
func NewPGRepository(db pgConn) *PGRepository {
	return &PGRepository{db: db}
}

func (r *PGRepository) EnsureWorkoutLog(ctx context.Context, userID, workoutID string) (string, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		SELECT id FROM workout_logs
		WHERE user_id = $1 AND workout_id = $2 AND in_progress
		ORDER BY created_at DESC
		LIMIT 1`, userID, workoutID).Scan(&id)
	if err == nil {
		return id.String(), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("find workout log: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO workout_logs (id, user_id, workout_id, in_progress)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id`, uuid.New(), userID, workoutID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create workout log: %w", err)
	}
	return id.String(), nil
}

func (r *PGRepository) EnsureExerciseLog(ctx context.Context, userID, exerciseID, workoutLogID string) (string, error) {
	wlID, err := parseID(workoutLogID)
	if err != nil {
		return "", err
	}

	var id uuid.UUID
	err = r.db.QueryRow(ctx, `
		INSERT INTO exercise_logs (id, user_id, exercise_id, workout_log_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workout_log_id, exercise_id) DO UPDATE SET updated_at = now()
		RETURNING id`, uuid.New(), userID, exerciseID, wlID).Scan(&id)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return "", errors.Join(ErrWorkoutLogMissing, err)
		}
		return "", fmt.Errorf("ensure exercise log: %w", err)
	}
	return id.String(), nil
}

func (r *PGRepository) FlushWorkout(ctx context.Context, s *Session) error {
	wlID, err := parseID(s.WorkoutLogID)
	if err != nil {
		return err
	}

	return pg.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var inProgress bool
		err := tx.QueryRow(ctx, `
			SELECT in_progress FROM workout_logs
			WHERE id = $1 AND user_id = $2
			FOR UPDATE`, wlID, s.UserID).Scan(&inProgress)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWorkoutLogMissing
		}
		if err != nil {
			return fmt.Errorf("lock workout log: %w", err)
		}
		if !inProgress {
			return nil
		}

		var end any
		if s.EndTime != nil {
			end = pgTime(*s.EndTime)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE workout_logs
			SET in_progress = FALSE, start_time = $2, end_time = $3, pause_time = $4, updated_at = now()
			WHERE id = $1`, wlID, pgTime(s.StartTime), end, pauseSeconds(s)); err != nil {
			return fmt.Errorf("close workout log: %w", err)
		}

		keep := make([]uuid.UUID, 0, len(s.Exercises))
		var rows [][]any
		for _, ex := range s.Exercises {
			elID, err := parseID(ex.ExerciseLogID)
			if err != nil {
				return err
			}
			tag, err := tx.Exec(ctx, `
				UPDATE exercise_logs
				SET one_rep_max = $2, duration = $3, updated_at = now()
				WHERE id = $1 AND workout_log_id = $4`, elID, ex.OneRepMax, ex.Duration, wlID)
			if err != nil {
				return fmt.Errorf("update exercise log: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return errors.Join(ErrExerciseLogMissing, errors.New(ex.ExerciseLogID))
			}
			keep = append(keep, elID)

			for _, d := range ex.Details {
				setID, err := parseID(d.DetailID)
				if err != nil {
					return err
				}
				rows = append(rows, []any{setID, ex.ExerciseID, elID, d.Reps, d.Weight})
			}
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM exercise_logs
			WHERE workout_log_id = $1 AND NOT (id = ANY($2))`, wlID, keep); err != nil {
			return fmt.Errorf("delete stale exercise logs: %w", err)
		}

		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"sets"},
			[]string{"id", "exercise_id", "exercise_log_id", "reps", "weight_lifted"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("insert sets: %w", err)
		}
		return nil
	})
}

func (r *PGRepository) DiscardWorkout(ctx context.Context, userID, workoutID, workoutLogID string) error {
	var wlID uuid.NullUUID
	if workoutLogID != "" {
		id, err := parseID(workoutLogID)
		if err != nil {
			return err
		}
		wlID = uuid.NullUUID{UUID: id, Valid: true}
	}

	// exercise logs and sets go with the workout log through ON DELETE CASCADE
	if _, err := r.db.Exec(ctx, `
		DELETE FROM workout_logs
		WHERE in_progress AND user_id = $1 AND (workout_id = $2 OR id = $3)`,
		userID, workoutID, wlID); err != nil {
		return fmt.Errorf("discard workout log: %w", err)
	}
	return nil
}

func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, errors.Join(ErrInvalidDurableID, fmt.Errorf("%q: %w", id, err))
	}
	return u, nil
}

func pgTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
