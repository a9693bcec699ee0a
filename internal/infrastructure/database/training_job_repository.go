package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// TrainingJobRepository is the PostgreSQL implementation of domain.TrainingJobRepository.
type TrainingJobRepository struct {
	pool *pgxpool.Pool
}

var _ domain.TrainingJobRepository = (*TrainingJobRepository)(nil)

func NewTrainingJobRepository(pool *pgxpool.Pool) *TrainingJobRepository {
	return &TrainingJobRepository{pool: pool}
}

const trainingJobColumns = `id, pipeline_id, user_id, dataset_id, snapshot, status,
	progress, current_step, started_at, completed_at, heartbeat_at,
	duration_seconds, task_id, priority, error_message, created_at, updated_at`

func scanTrainingJob(row pgx.Row) (*entity.TrainingJob, error) {
	var (
		j           entity.TrainingJob
		snapshotRaw []byte
		taskID      *string
	)
	err := row.Scan(
		&j.ID, &j.PipelineID, &j.UserID, &j.DatasetID, &snapshotRaw, &j.Status,
		&j.Progress, &j.CurrentStep, &j.StartedAt, &j.CompletedAt, &j.HeartbeatAt,
		&j.DurationSeconds, &taskID, &j.Priority, &j.ErrorMessage,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if taskID != nil {
		j.TaskID = *taskID
	}
	if err := unmarshalJSON(snapshotRaw, &j.Snapshot); err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *TrainingJobRepository) Create(ctx context.Context, j *entity.TrainingJob) error {
	snapshotJSON, err := marshalJSON(j.Snapshot)
	if err != nil {
		return wrapErr("training job", err)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO training_jobs (pipeline_id, user_id, dataset_id, snapshot,
			status, priority, task_id)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING id, created_at, updated_at`,
		j.PipelineID, j.UserID, j.DatasetID, snapshotJSON,
		j.Status, j.Priority, j.TaskID,
	)
	if err := row.Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return wrapErr("training job", err)
	}
	return nil
}

func (r *TrainingJobRepository) GetByID(ctx context.Context, id string) (*entity.TrainingJob, error) {
	j, err := scanTrainingJob(r.pool.QueryRow(ctx,
		`SELECT `+trainingJobColumns+` FROM training_jobs WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("training job", err)
	}
	return j, nil
}

func (r *TrainingJobRepository) Update(ctx context.Context, j *entity.TrainingJob) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE training_jobs SET
			status = $2, progress = $3, current_step = $4, started_at = $5,
			completed_at = $6, heartbeat_at = $7, duration_seconds = $8,
			task_id = NULLIF($9, ''), error_message = $10, updated_at = now()
		WHERE id = $1`,
		j.ID, j.Status, j.Progress, j.CurrentStep, j.StartedAt,
		j.CompletedAt, j.HeartbeatAt, j.DurationSeconds,
		j.TaskID, j.ErrorMessage,
	)
	if err != nil {
		return wrapErr("training job", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("training job", j.ID)
	}
	return nil
}

// UpdateProgress advances progress monotonically. A stale writer reporting a
// lower value than what is stored is silently ignored.
func (r *TrainingJobRepository) UpdateProgress(ctx context.Context, id string, progress int, step string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE training_jobs SET
			progress = GREATEST(progress, $2), current_step = $3,
			heartbeat_at = $4, updated_at = now()
		WHERE id = $1 AND status = 'running'`,
		id, progress, step, at)
	return wrapErr("training job", err)
}

func (r *TrainingJobRepository) List(ctx context.Context, f domain.TrainingJobFilter) ([]*entity.TrainingJob, int64, error) {
	where := []string{"TRUE"}
	args := []any{}
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.PipelineID != "" {
		args = append(args, f.PipelineID)
		where = append(where, fmt.Sprintf("pipeline_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM training_jobs WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("training job", err)
	}

	args = append(args, f.Offset, f.Limit)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM training_jobs WHERE %s ORDER BY created_at DESC OFFSET $%d LIMIT $%d`,
		trainingJobColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, wrapErr("training job", err)
	}
	defer rows.Close()

	var out []*entity.TrainingJob
	for rows.Next() {
		j, err := scanTrainingJob(rows)
		if err != nil {
			return nil, 0, wrapErr("training job", err)
		}
		out = append(out, j)
	}
	return out, total, wrapErr("training job", rows.Err())
}

// ListStale finds running jobs whose worker stopped heartbeating.
func (r *TrainingJobRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*entity.TrainingJob, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+trainingJobColumns+` FROM training_jobs
		 WHERE status = 'running' AND (heartbeat_at IS NULL OR heartbeat_at < $1)`, cutoff)
	if err != nil {
		return nil, wrapErr("training job", err)
	}
	defer rows.Close()

	var out []*entity.TrainingJob
	for rows.Next() {
		j, err := scanTrainingJob(rows)
		if err != nil {
			return nil, wrapErr("training job", err)
		}
		out = append(out, j)
	}
	return out, wrapErr("training job", rows.Err())
}
