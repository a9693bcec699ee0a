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

// PipelineRepository is the PostgreSQL implementation of domain.PipelineRepository.
type PipelineRepository struct {
	pool *pgxpool.Pool
}

var _ domain.PipelineRepository = (*PipelineRepository)(nil)

func NewPipelineRepository(pool *pgxpool.Pool) *PipelineRepository {
	return &PipelineRepository{pool: pool}
}

const pipelineColumns = `id, user_id, dataset_id, name, description, config,
	node_registry, version, status, validated_at, created_at, updated_at, deleted_at`

func scanPipeline(row pgx.Row) (*entity.Pipeline, error) {
	var (
		p           entity.Pipeline
		configRaw   []byte
		registryRaw []byte
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.DatasetID, &p.Name, &p.Description, &configRaw,
		&registryRaw, &p.Version, &p.Status, &p.ValidatedAt,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(configRaw, &p.Config); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(registryRaw, &p.NodeRegistry); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PipelineRepository) Create(ctx context.Context, p *entity.Pipeline) error {
	configJSON, err := marshalJSON(p.Config)
	if err != nil {
		return wrapErr("pipeline", err)
	}
	registryJSON, err := marshalJSON(p.NodeRegistry)
	if err != nil {
		return wrapErr("pipeline", err)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO pipelines (user_id, dataset_id, name, description, config,
			node_registry, version, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		p.UserID, p.DatasetID, p.Name, p.Description, configJSON,
		registryJSON, p.Version, p.Status,
	)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return wrapErr("pipeline", err)
	}
	return nil
}

func (r *PipelineRepository) GetByID(ctx context.Context, id string) (*entity.Pipeline, error) {
	p, err := scanPipeline(r.pool.QueryRow(ctx,
		`SELECT `+pipelineColumns+` FROM pipelines WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		return nil, wrapErr("pipeline", err)
	}
	return p, nil
}

func (r *PipelineRepository) Update(ctx context.Context, p *entity.Pipeline) error {
	configJSON, err := marshalJSON(p.Config)
	if err != nil {
		return wrapErr("pipeline", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE pipelines SET
			name = $2, description = $3, config = $4, version = $5,
			status = $6, validated_at = $7, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.Name, p.Description, configJSON, p.Version,
		p.Status, p.ValidatedAt,
	)
	if err != nil {
		return wrapErr("pipeline", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("pipeline", p.ID)
	}
	return nil
}

func (r *PipelineRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE pipelines SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return wrapErr("pipeline", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("pipeline", id)
	}
	return nil
}

func (r *PipelineRepository) List(ctx context.Context, f domain.PipelineFilter) ([]*entity.Pipeline, int64, error) {
	where := []string{"deleted_at IS NULL"}
	args := []any{}
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.DatasetID != "" {
		args = append(args, f.DatasetID)
		where = append(where, fmt.Sprintf("dataset_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM pipelines WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("pipeline", err)
	}

	args = append(args, f.Offset, f.Limit)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM pipelines WHERE %s ORDER BY created_at DESC OFFSET $%d LIMIT $%d`,
		pipelineColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, wrapErr("pipeline", err)
	}
	defer rows.Close()

	var out []*entity.Pipeline
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			return nil, 0, wrapErr("pipeline", err)
		}
		out = append(out, p)
	}
	return out, total, wrapErr("pipeline", rows.Err())
}
