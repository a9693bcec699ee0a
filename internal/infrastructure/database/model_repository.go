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

// ModelRepository is the PostgreSQL implementation of domain.ModelRepository.
type ModelRepository struct {
	pool *pgxpool.Pool
}

var _ domain.ModelRepository = (*ModelRepository)(nil)

func NewModelRepository(pool *pgxpool.Pool) *ModelRepository {
	return &ModelRepository{pool: pool}
}

const modelColumns = `id, training_job_id, pipeline_id, user_id, name, model_type,
	framework_version, s3_bucket, s3_key_artifact, s3_key_config, s3_key_metadata,
	artifact_size_bytes, artifact_checksum, metrics, version, is_production,
	deployed_at, created_at, updated_at`

func scanModel(row pgx.Row) (*entity.Model, error) {
	var (
		m                            entity.Model
		keyConfig, keyMeta, checksum *string
		metricsRaw                   []byte
	)
	err := row.Scan(
		&m.ID, &m.TrainingJobID, &m.PipelineID, &m.UserID, &m.Name, &m.ModelType,
		&m.FrameworkVersion, &m.S3Bucket, &m.S3KeyArtifact, &keyConfig, &keyMeta,
		&m.ArtifactSizeBytes, &checksum, &metricsRaw, &m.Version, &m.IsProduction,
		&m.DeployedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if keyConfig != nil {
		m.S3KeyConfig = *keyConfig
	}
	if keyMeta != nil {
		m.S3KeyMetadata = *keyMeta
	}
	if checksum != nil {
		m.ArtifactChecksum = *checksum
	}
	if err := unmarshalJSON(metricsRaw, &m.Metrics); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ModelRepository) Create(ctx context.Context, m *entity.Model) error {
	metricsJSON, err := marshalJSON(m.Metrics)
	if err != nil {
		return wrapErr("model", err)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO models (training_job_id, pipeline_id, user_id, name, model_type,
			framework_version, s3_bucket, s3_key_artifact, s3_key_config,
			s3_key_metadata, artifact_size_bytes, artifact_checksum, metrics, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''),
			$11, NULLIF($12, ''), $13, $14)
		RETURNING id, created_at, updated_at`,
		m.TrainingJobID, m.PipelineID, m.UserID, m.Name, m.ModelType,
		m.FrameworkVersion, m.S3Bucket, m.S3KeyArtifact, m.S3KeyConfig,
		m.S3KeyMetadata, m.ArtifactSizeBytes, m.ArtifactChecksum, metricsJSON, m.Version,
	)
	if err := row.Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return wrapErr("model", err)
	}
	return nil
}

func (r *ModelRepository) GetByID(ctx context.Context, id string) (*entity.Model, error) {
	m, err := scanModel(r.pool.QueryRow(ctx,
		`SELECT `+modelColumns+` FROM models WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("model", err)
	}
	return m, nil
}

func (r *ModelRepository) Update(ctx context.Context, m *entity.Model) error {
	metricsJSON, err := marshalJSON(m.Metrics)
	if err != nil {
		return wrapErr("model", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE models SET
			name = $2, metrics = $3, is_production = $4, deployed_at = $5,
			updated_at = now()
		WHERE id = $1`,
		m.ID, m.Name, metricsJSON, m.IsProduction, m.DeployedAt,
	)
	if err != nil {
		return wrapErr("model", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("model", m.ID)
	}
	return nil
}

func (r *ModelRepository) NextVersion(ctx context.Context, pipelineID string) (int, error) {
	var next int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM models WHERE pipeline_id = $1`,
		pipelineID).Scan(&next)
	if err != nil {
		return 0, wrapErr("model", err)
	}
	return next, nil
}

// PromoteProduction demotes the pipeline's current production model and
// promotes the given one inside a single transaction.
func (r *ModelRepository) PromoteProduction(ctx context.Context, pipelineID, modelID string, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapErr("model", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE models SET is_production = FALSE, updated_at = now()
		WHERE pipeline_id = $1 AND is_production AND id <> $2`,
		pipelineID, modelID); err != nil {
		return wrapErr("model", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE models SET is_production = TRUE, deployed_at = $3, updated_at = now()
		WHERE id = $2 AND pipeline_id = $1`,
		pipelineID, modelID, at)
	if err != nil {
		return wrapErr("model", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("model", modelID)
	}

	return wrapErr("model", tx.Commit(ctx))
}

func (r *ModelRepository) List(ctx context.Context, f domain.ModelFilter) ([]*entity.Model, int64, error) {
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
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM models WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("model", err)
	}

	args = append(args, f.Offset, f.Limit)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM models WHERE %s ORDER BY created_at DESC OFFSET $%d LIMIT $%d`,
		modelColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, wrapErr("model", err)
	}
	defer rows.Close()

	var out []*entity.Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, 0, wrapErr("model", err)
		}
		out = append(out, m)
	}
	return out, total, wrapErr("model", rows.Err())
}
