package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgConn is the subset of *pgxpool.Pool used by PGStorage.
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGStorage implements Storage on top of PostgreSQL.
// Tasks survive process restarts, which makes delayed one-time tasks usable
// as durable timers. Claiming relies on FOR UPDATE SKIP LOCKED so several
// workers can share the same tables.
type PGStorage struct {
	db pgConn
}

// NewPGStorage creates a Postgres backed queue storage.
// Tables are created by the queue migration (queue_tasks, queue_tasks_dlq).
func NewPGStorage(db pgConn) *PGStorage {
	return &PGStorage{db: db}
}

const taskColumns = `id, queue, task_type, task_name, payload, status, priority, retry_count,
	max_retries, scheduled_at, locked_until, locked_by, processed_at, error, created_at`

// CreateTask implements EnqueuerRepository and SchedulerRepository
func (s *PGStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	_, err := s.db.Exec(ctx, `INSERT INTO queue_tasks
		(id, queue, task_type, task_name, payload, status, priority, retry_count, max_retries, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		task.ID, task.Queue, string(task.Kind), task.Name, nullablePayload(task.Payload),
		string(task.Status), int16(task.Priority), int16(task.RetryCount), int16(task.MaxRetries),
		task.ScheduledAt, task.CreatedAt,
	)
	if err != nil {
		return errors.Join(ErrTaskCreate, err)
	}
	return nil
}

// ClaimTask implements WorkerRepository.
// Processing tasks whose lock expired belong to a crashed worker and are
// claimed again.
func (s *PGStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	now := time.Now()
	row := s.db.QueryRow(ctx, `UPDATE queue_tasks
		SET status = 'processing', locked_until = $3, locked_by = $4
		WHERE id = (
			SELECT id FROM queue_tasks
			WHERE queue = ANY($1)
				AND (
					(status = 'pending' AND scheduled_at <= $2 AND (locked_until IS NULL OR locked_until < $2))
					OR (status = 'processing' AND locked_until < $2)
				)
			ORDER BY priority DESC, scheduled_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+taskColumns,
		queues, now, now.Add(lockDuration), workerID,
	)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoTaskToClaim
		}
		return nil, errors.Join(ErrFailedToGetNextTask, err)
	}
	return task, nil
}

// CompleteTask implements WorkerRepository
func (s *PGStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `UPDATE queue_tasks
		SET status = 'completed', processed_at = now(), locked_until = NULL, locked_by = NULL
		WHERE id = $1 AND status = 'processing'`, taskID)
	if err != nil {
		return errors.Join(ErrFailedToUpdateTask, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotProcessing
	}
	return nil
}

// FailTask implements WorkerRepository.
// Retries back off linearly by 30s per attempt.
func (s *PGStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error {
	tag, err := s.db.Exec(ctx, `UPDATE queue_tasks
		SET retry_count = retry_count + 1,
			error = $2,
			locked_until = NULL,
			locked_by = NULL,
			status = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END,
			scheduled_at = CASE WHEN retry_count + 1 >= max_retries THEN scheduled_at
				ELSE now() + make_interval(secs => (retry_count + 1) * 30) END
		WHERE id = $1 AND status = 'processing'`, taskID, errorMsg)
	if err != nil {
		return errors.Join(ErrFailedToUpdateTask, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotProcessing
	}
	return nil
}

// MoveToDLQ implements WorkerRepository
func (s *PGStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.Join(ErrFailedToMoveToDLQ, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `INSERT INTO queue_tasks_dlq
		(id, task_id, queue, task_type, task_name, payload, priority, error, retry_count, failed_at, created_at)
		SELECT $2, id, queue, task_type, task_name, payload, priority, COALESCE(error, ''), retry_count, now(), now()
		FROM queue_tasks WHERE id = $1`, taskID, uuid.New())
	if err != nil {
		return errors.Join(ErrFailedToMoveToDLQ, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM queue_tasks WHERE id = $1`, taskID); err != nil {
		return errors.Join(ErrFailedToMoveToDLQ, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrFailedToMoveToDLQ, err)
	}
	return nil
}

// GetPendingTaskByName implements SchedulerRepository.
// A processing task with an expired lock does not count as unfinished.
func (s *PGStorage) GetPendingTaskByName(ctx context.Context, taskName string) (*Task, error) {
	row := s.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM queue_tasks
		WHERE task_name = $1
			AND (status = 'pending' OR (status = 'processing' AND locked_until >= $2))
		ORDER BY scheduled_at ASC LIMIT 1`, taskName, time.Now())

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// CancelTask implements Canceler. Only pending tasks can be canceled.
func (s *PGStorage) CancelTask(ctx context.Context, taskID uuid.UUID) error {
	var status string
	err := s.db.QueryRow(ctx, `WITH target AS (
			SELECT id, status FROM queue_tasks WHERE id = $1
		), deleted AS (
			DELETE FROM queue_tasks q USING target t
			WHERE q.id = t.id AND t.status = 'pending'
			RETURNING q.id
		)
		SELECT status FROM target`, taskID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTaskNotFound
		}
		return err
	}
	if TaskStatus(status) != TaskStatusPending {
		return ErrTaskNotCancelable
	}
	return nil
}

func scanTask(row pgx.Row) (*Task, error) {
	var (
		task                             Task
		kind, status                     string
		priority, retryCount, maxRetries int16
		lockedBy                         uuid.NullUUID
	)

	if err := row.Scan(
		&task.ID, &task.Queue, &kind, &task.Name, &task.Payload, &status,
		&priority, &retryCount, &maxRetries, &task.ScheduledAt, &task.LockedUntil,
		&lockedBy, &task.ProcessedAt, &task.Error, &task.CreatedAt,
	); err != nil {
		return nil, err
	}

	task.Kind = TaskKind(kind)
	task.Status = TaskStatus(status)
	task.Priority = Priority(priority)
	task.RetryCount = int8(retryCount)
	task.MaxRetries = int8(maxRetries)
	if lockedBy.Valid {
		task.LockedBy = &lockedBy.UUID
	}

	return &task, nil
}

func nullablePayload(p []byte) any {
	if len(p) == 0 {
		return nil
	}
	return p
}
