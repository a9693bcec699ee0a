package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// ExperimentRunRepository is the PostgreSQL implementation of domain.ExperimentRunRepository.
type ExperimentRunRepository struct {
	pool *pgxpool.Pool
}

var _ domain.ExperimentRunRepository = (*ExperimentRunRepository)(nil)

func NewExperimentRunRepository(pool *pgxpool.Pool) *ExperimentRunRepository {
	return &ExperimentRunRepository{pool: pool}
}

const runColumns = `id, training_job_id, user_id, run_number, hyperparameters,
	metrics, training_seconds, status, created_at, updated_at`

// insertRunSQL records a run in full. Workers write runs once, after the
// training attempt finishes, so metrics and timing land with the insert.
const insertRunSQL = `
	INSERT INTO experiment_runs (training_job_id, user_id, run_number,
		hyperparameters, metrics, training_seconds, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at`

func scanRun(row pgx.Row) (*entity.ExperimentRun, error) {
	var (
		er                    entity.ExperimentRun
		paramsRaw, metricsRaw []byte
	)
	err := row.Scan(
		&er.ID, &er.TrainingJobID, &er.UserID, &er.RunNumber, &paramsRaw,
		&metricsRaw, &er.TrainingSeconds, &er.Status, &er.CreatedAt, &er.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(paramsRaw, &er.Hyperparameters); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(metricsRaw, &er.Metrics); err != nil {
		return nil, err
	}
	return &er, nil
}

func (r *ExperimentRunRepository) Create(ctx context.Context, er *entity.ExperimentRun) error {
	paramsJSON, err := marshalJSON(er.Hyperparameters)
	if err != nil {
		return wrapErr("experiment run", err)
	}
	metricsJSON, err := marshalJSON(er.Metrics)
	if err != nil {
		return wrapErr("experiment run", err)
	}
	row := r.pool.QueryRow(ctx, insertRunSQL,
		er.TrainingJobID, er.UserID, er.RunNumber, paramsJSON,
		metricsJSON, er.TrainingSeconds, er.Status,
	)
	if err := row.Scan(&er.ID, &er.CreatedAt, &er.UpdatedAt); err != nil {
		return wrapErr("experiment run", err)
	}
	return nil
}

func (r *ExperimentRunRepository) Update(ctx context.Context, er *entity.ExperimentRun) error {
	metricsJSON, err := marshalJSON(er.Metrics)
	if err != nil {
		return wrapErr("experiment run", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE experiment_runs SET
			metrics = $2, training_seconds = $3, status = $4, updated_at = now()
		WHERE id = $1`,
		er.ID, metricsJSON, er.TrainingSeconds, er.Status,
	)
	if err != nil {
		return wrapErr("experiment run", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("experiment run", er.ID)
	}
	return nil
}

func (r *ExperimentRunRepository) ListByJob(ctx context.Context, trainingJobID string) ([]*entity.ExperimentRun, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+runColumns+` FROM experiment_runs
		 WHERE training_job_id = $1 ORDER BY run_number`, trainingJobID)
	if err != nil {
		return nil, wrapErr("experiment run", err)
	}
	defer rows.Close()

	var out []*entity.ExperimentRun
	for rows.Next() {
		er, err := scanRun(rows)
		if err != nil {
			return nil, wrapErr("experiment run", err)
		}
		out = append(out, er)
	}
	return out, wrapErr("experiment run", rows.Err())
}
