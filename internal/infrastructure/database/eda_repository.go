package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// EDARepository is the PostgreSQL implementation of domain.EDARepository.
type EDARepository struct {
	pool *pgxpool.Pool
}

var _ domain.EDARepository = (*EDARepository)(nil)

func NewEDARepository(pool *pgxpool.Pool) *EDARepository {
	return &EDARepository{pool: pool}
}

const edaColumns = `id, dataset_id, user_id, summary, report_size_bytes,
	storage_location, full_report, s3_bucket, s3_key, report_version,
	generation_seconds, status, error_message, task_id, created_at, updated_at`

func scanEDAReport(row pgx.Row) (*entity.EDAReport, error) {
	var (
		rep                   entity.EDAReport
		summaryRaw, reportRaw []byte
		bucket, key, taskID   *string
	)
	err := row.Scan(
		&rep.ID, &rep.DatasetID, &rep.UserID, &summaryRaw, &rep.ReportSizeBytes,
		&rep.StorageLocation, &reportRaw, &bucket, &key, &rep.ReportVersion,
		&rep.GenerationSeconds, &rep.Status, &rep.ErrorMessage, &taskID,
		&rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if bucket != nil {
		rep.S3Bucket = *bucket
	}
	if key != nil {
		rep.S3Key = *key
	}
	if taskID != nil {
		rep.TaskID = *taskID
	}
	if len(summaryRaw) > 0 {
		rep.Summary = &entity.EDASummary{}
		if err := unmarshalJSON(summaryRaw, rep.Summary); err != nil {
			return nil, err
		}
	}
	if len(reportRaw) > 0 {
		rep.FullReport = &entity.EDAFullReport{}
		if err := unmarshalJSON(reportRaw, rep.FullReport); err != nil {
			return nil, err
		}
	}
	return &rep, nil
}

func (r *EDARepository) Create(ctx context.Context, rep *entity.EDAReport) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO eda_reports (dataset_id, user_id, status, report_version, task_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, created_at, updated_at`,
		rep.DatasetID, rep.UserID, rep.Status, rep.ReportVersion, rep.TaskID,
	)
	if err := row.Scan(&rep.ID, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
		return wrapErr("eda report", err)
	}
	return nil
}

func (r *EDARepository) GetByID(ctx context.Context, id string) (*entity.EDAReport, error) {
	rep, err := scanEDAReport(r.pool.QueryRow(ctx,
		`SELECT `+edaColumns+` FROM eda_reports WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("eda report", err)
	}
	return rep, nil
}

func (r *EDARepository) GetLatestByDataset(ctx context.Context, datasetID string) (*entity.EDAReport, error) {
	rep, err := scanEDAReport(r.pool.QueryRow(ctx,
		`SELECT `+edaColumns+` FROM eda_reports
		 WHERE dataset_id = $1 ORDER BY created_at DESC LIMIT 1`, datasetID))
	if err != nil {
		return nil, wrapErr("eda report", err)
	}
	return rep, nil
}

func (r *EDARepository) Update(ctx context.Context, rep *entity.EDAReport) error {
	summaryJSON, err := marshalJSON(rep.Summary)
	if err != nil {
		return wrapErr("eda report", err)
	}
	reportJSON, err := marshalJSON(rep.FullReport)
	if err != nil {
		return wrapErr("eda report", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE eda_reports SET
			summary = $2, report_size_bytes = $3, storage_location = $4,
			full_report = $5, s3_bucket = NULLIF($6, ''), s3_key = NULLIF($7, ''),
			generation_seconds = $8, status = $9, error_message = $10,
			task_id = NULLIF($11, ''), updated_at = now()
		WHERE id = $1`,
		rep.ID, summaryJSON, rep.ReportSizeBytes, rep.StorageLocation,
		reportJSON, rep.S3Bucket, rep.S3Key,
		rep.GenerationSeconds, rep.Status, rep.ErrorMessage, rep.TaskID,
	)
	if err != nil {
		return wrapErr("eda report", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("eda report", rep.ID)
	}
	return nil
}

func (r *EDARepository) ListByDataset(ctx context.Context, datasetID string, offset, limit int) ([]*entity.EDAReport, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM eda_reports WHERE dataset_id = $1`, datasetID).Scan(&total); err != nil {
		return nil, 0, wrapErr("eda report", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+edaColumns+` FROM eda_reports
		 WHERE dataset_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`,
		datasetID, offset, limit)
	if err != nil {
		return nil, 0, wrapErr("eda report", err)
	}
	defer rows.Close()

	var out []*entity.EDAReport
	for rows.Next() {
		rep, err := scanEDAReport(rows)
		if err != nil {
			return nil, 0, wrapErr("eda report", err)
		}
		out = append(out, rep)
	}
	return out, total, wrapErr("eda report", rows.Err())
}
