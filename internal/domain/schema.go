package domain

import (
	"context"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// SchemaRepository is the persistence contract for schema deductions.
type SchemaRepository interface {
	Create(ctx context.Context, sd *entity.SchemaDeduction) error
	GetByID(ctx context.Context, id string) (*entity.SchemaDeduction, error)
	GetLatestByDataset(ctx context.Context, datasetID string) (*entity.SchemaDeduction, error)
	Update(ctx context.Context, sd *entity.SchemaDeduction) error
	SupersedeByDataset(ctx context.Context, datasetID string) error
	ListByDataset(ctx context.Context, datasetID string, offset, limit int) ([]*entity.SchemaDeduction, int64, error)
}

// SchemaOverride lets a reviewer change one column's type before accepting.
type SchemaOverride struct {
	Column string
	Type   string
}

// SchemaUsecase is the schema deduction business logic.
type SchemaUsecase interface {
	Propose(ctx context.Context, userID, datasetID string) (*entity.SchemaDeduction, error)
	GetByID(ctx context.Context, userID, id string) (*entity.SchemaDeduction, error)
	Latest(ctx context.Context, userID, datasetID string) (*entity.SchemaDeduction, error)
	Accept(ctx context.Context, userID, id string, overrides []SchemaOverride) (*entity.SchemaDeduction, error)
	Reject(ctx context.Context, userID, id, reason string) (*entity.SchemaDeduction, error)
	History(ctx context.Context, userID, datasetID string, offset, limit int) ([]*entity.SchemaDeduction, int64, error)
}
