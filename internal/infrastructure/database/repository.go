// Package database implements the domain repositories on PostgreSQL via pgx.
package database

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/h19overflow/PipeWeave/internal/domain"
)

// Repositories bundles every repository over one shared pool.
type Repositories struct {
	Users          *UserRepository
	Datasets       *DatasetRepository
	Schemas        *SchemaRepository
	EDAReports     *EDARepository
	Pipelines      *PipelineRepository
	TrainingJobs   *TrainingJobRepository
	Models         *ModelRepository
	ExperimentRuns *ExperimentRunRepository
}

// NewRepositories constructs all repositories over the given pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:          NewUserRepository(pool),
		Datasets:       NewDatasetRepository(pool),
		Schemas:        NewSchemaRepository(pool),
		EDAReports:     NewEDARepository(pool),
		Pipelines:      NewPipelineRepository(pool),
		TrainingJobs:   NewTrainingJobRepository(pool),
		Models:         NewModelRepository(pool),
		ExperimentRuns: NewExperimentRunRepository(pool),
	}
}

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// wrapErr maps driver errors onto domain errors for a given resource name.
func wrapErr(resource string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WrapNotFoundError(resource, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.WrapAlreadyExistsError(resource, err)
	}
	return domain.NewInternalError(fmt.Errorf("%s query failed: %w", resource, err))
}

// marshalJSON serializes a JSONB column value, mapping nil to SQL NULL.
func marshalJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jsonb value: %w", err)
	}
	return b, nil
}

// unmarshalJSON deserializes a JSONB column into dst, tolerating NULL.
func unmarshalJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode jsonb value: %w", err)
	}
	return nil
}
