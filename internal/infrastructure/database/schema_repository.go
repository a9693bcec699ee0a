package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// SchemaRepository is the PostgreSQL implementation of domain.SchemaRepository.
type SchemaRepository struct {
	pool *pgxpool.Pool
}

var _ domain.SchemaRepository = (*SchemaRepository)(nil)

func NewSchemaRepository(pool *pgxpool.Pool) *SchemaRepository {
	return &SchemaRepository{pool: pool}
}

const schemaColumns = `id, dataset_id, user_id, proposed_schema, column_metadata,
	status, confidence_score, agent_version, rejection_reason, created_at, updated_at`

func scanSchema(row pgx.Row) (*entity.SchemaDeduction, error) {
	var (
		sd          entity.SchemaDeduction
		schemaRaw   []byte
		metadataRaw []byte
	)
	err := row.Scan(
		&sd.ID, &sd.DatasetID, &sd.UserID, &schemaRaw, &metadataRaw,
		&sd.Status, &sd.ConfidenceScore, &sd.AgentVersion, &sd.RejectionReason,
		&sd.CreatedAt, &sd.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(schemaRaw, &sd.ProposedSchema); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(metadataRaw, &sd.ColumnMetadata); err != nil {
		return nil, err
	}
	return &sd, nil
}

func (r *SchemaRepository) Create(ctx context.Context, sd *entity.SchemaDeduction) error {
	schemaJSON, err := marshalJSON(sd.ProposedSchema)
	if err != nil {
		return wrapErr("schema deduction", err)
	}
	metadataJSON, err := marshalJSON(sd.ColumnMetadata)
	if err != nil {
		return wrapErr("schema deduction", err)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO schema_deductions (dataset_id, user_id, proposed_schema,
			column_metadata, status, confidence_score, agent_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		sd.DatasetID, sd.UserID, schemaJSON, metadataJSON,
		sd.Status, sd.ConfidenceScore, sd.AgentVersion,
	)
	if err := row.Scan(&sd.ID, &sd.CreatedAt, &sd.UpdatedAt); err != nil {
		return wrapErr("schema deduction", err)
	}
	return nil
}

func (r *SchemaRepository) GetByID(ctx context.Context, id string) (*entity.SchemaDeduction, error) {
	sd, err := scanSchema(r.pool.QueryRow(ctx,
		`SELECT `+schemaColumns+` FROM schema_deductions WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("schema deduction", err)
	}
	return sd, nil
}

func (r *SchemaRepository) GetLatestByDataset(ctx context.Context, datasetID string) (*entity.SchemaDeduction, error) {
	sd, err := scanSchema(r.pool.QueryRow(ctx,
		`SELECT `+schemaColumns+` FROM schema_deductions
		 WHERE dataset_id = $1 ORDER BY created_at DESC LIMIT 1`, datasetID))
	if err != nil {
		return nil, wrapErr("schema deduction", err)
	}
	return sd, nil
}

func (r *SchemaRepository) Update(ctx context.Context, sd *entity.SchemaDeduction) error {
	schemaJSON, err := marshalJSON(sd.ProposedSchema)
	if err != nil {
		return wrapErr("schema deduction", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE schema_deductions SET
			proposed_schema = $2, status = $3, confidence_score = $4,
			rejection_reason = $5, updated_at = now()
		WHERE id = $1`,
		sd.ID, schemaJSON, sd.Status, sd.ConfidenceScore, sd.RejectionReason,
	)
	if err != nil {
		return wrapErr("schema deduction", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("schema deduction", sd.ID)
	}
	return nil
}

// supersedeByDatasetSQL retires the previously accepted deduction of a
// dataset so at most one accepted schema exists per dataset at a time.
const supersedeByDatasetSQL = `
	UPDATE schema_deductions SET status = 'superseded', updated_at = now()
	WHERE dataset_id = $1 AND status = 'accepted'`

// SupersedeByDataset marks the dataset's accepted deductions as superseded.
func (r *SchemaRepository) SupersedeByDataset(ctx context.Context, datasetID string) error {
	_, err := r.pool.Exec(ctx, supersedeByDatasetSQL, datasetID)
	return wrapErr("schema deduction", err)
}

func (r *SchemaRepository) ListByDataset(ctx context.Context, datasetID string, offset, limit int) ([]*entity.SchemaDeduction, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM schema_deductions WHERE dataset_id = $1`, datasetID).Scan(&total); err != nil {
		return nil, 0, wrapErr("schema deduction", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+schemaColumns+` FROM schema_deductions
		 WHERE dataset_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`,
		datasetID, offset, limit)
	if err != nil {
		return nil, 0, wrapErr("schema deduction", err)
	}
	defer rows.Close()

	var out []*entity.SchemaDeduction
	for rows.Next() {
		sd, err := scanSchema(rows)
		if err != nil {
			return nil, 0, wrapErr("schema deduction", err)
		}
		out = append(out, sd)
	}
	return out, total, wrapErr("schema deduction", rows.Err())
}
