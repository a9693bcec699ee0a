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

// DatasetRepository is the PostgreSQL implementation of domain.DatasetRepository.
type DatasetRepository struct {
	pool *pgxpool.Pool
}

var _ domain.DatasetRepository = (*DatasetRepository)(nil)

func NewDatasetRepository(pool *pgxpool.Pool) *DatasetRepository {
	return &DatasetRepository{pool: pool}
}

const datasetColumns = `id, user_id, name, description, s3_bucket, s3_key_raw,
	s3_key_processed, file_size_bytes, file_hash_sha256, content_type,
	num_rows, num_columns, column_names, status, validation_error,
	created_at, updated_at, deleted_at`

func scanDataset(row pgx.Row) (*entity.Dataset, error) {
	var (
		d                  entity.Dataset
		keyProcessed, hash *string
		columnsRaw         []byte
		validationRaw      []byte
	)
	err := row.Scan(
		&d.ID, &d.UserID, &d.Name, &d.Description, &d.S3Bucket, &d.S3KeyRaw,
		&keyProcessed, &d.FileSizeBytes, &hash, &d.ContentType,
		&d.NumRows, &d.NumColumns, &columnsRaw, &d.Status, &validationRaw,
		&d.CreatedAt, &d.UpdatedAt, &d.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if keyProcessed != nil {
		d.S3KeyProcessed = *keyProcessed
	}
	if hash != nil {
		d.FileHashSHA256 = *hash
	}
	if err := unmarshalJSON(columnsRaw, &d.ColumnNames); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(validationRaw, &d.ValidationError); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DatasetRepository) Create(ctx context.Context, d *entity.Dataset) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO datasets (user_id, name, description, s3_bucket, s3_key_raw,
			file_size_bytes, content_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		d.UserID, d.Name, d.Description, d.S3Bucket, d.S3KeyRaw,
		d.FileSizeBytes, d.ContentType, d.Status,
	)
	if err := row.Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return wrapErr("dataset", err)
	}
	return nil
}

func (r *DatasetRepository) GetByID(ctx context.Context, id string) (*entity.Dataset, error) {
	d, err := scanDataset(r.pool.QueryRow(ctx,
		`SELECT `+datasetColumns+` FROM datasets WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		return nil, wrapErr("dataset", err)
	}
	return d, nil
}

func (r *DatasetRepository) Update(ctx context.Context, d *entity.Dataset) error {
	columnsJSON, err := marshalJSON(d.ColumnNames)
	if err != nil {
		return wrapErr("dataset", err)
	}
	var validationJSON any
	if len(d.ValidationError) > 0 {
		if validationJSON, err = marshalJSON(d.ValidationError); err != nil {
			return wrapErr("dataset", err)
		}
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE datasets SET
			name = $2, description = $3, s3_key_processed = NULLIF($4, ''),
			file_size_bytes = $5, file_hash_sha256 = NULLIF($6, ''),
			num_rows = $7, num_columns = $8, column_names = $9,
			status = $10, validation_error = $11, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		d.ID, d.Name, d.Description, d.S3KeyProcessed,
		d.FileSizeBytes, d.FileHashSHA256,
		d.NumRows, d.NumColumns, columnsJSON,
		d.Status, validationJSON,
	)
	if err != nil {
		return wrapErr("dataset", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("dataset", d.ID)
	}
	return nil
}

// UpdateStatus moves status only when the current value matches, so two
// writers cannot race a dataset into an illegal transition.
func (r *DatasetRepository) UpdateStatus(ctx context.Context, id string, from, to entity.DatasetStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE datasets SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL`, id, from, to)
	if err != nil {
		return wrapErr("dataset", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewConflictError(
			fmt.Sprintf("dataset is not in status %q", from))
	}
	return nil
}

func (r *DatasetRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE datasets SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return wrapErr("dataset", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("dataset", id)
	}
	return nil
}

func (r *DatasetRepository) List(ctx context.Context, f domain.DatasetFilter) ([]*entity.Dataset, int64, error) {
	where := []string{"deleted_at IS NULL"}
	args := []any{}
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM datasets WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("dataset", err)
	}

	args = append(args, f.Offset, f.Limit)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM datasets WHERE %s ORDER BY created_at DESC OFFSET $%d LIMIT $%d`,
		datasetColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, wrapErr("dataset", err)
	}
	defer rows.Close()

	var out []*entity.Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, 0, wrapErr("dataset", err)
		}
		out = append(out, d)
	}
	return out, total, wrapErr("dataset", rows.Err())
}
