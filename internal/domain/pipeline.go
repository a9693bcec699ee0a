package domain

import (
	"context"
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// PipelineFilter narrows pipeline listings.
type PipelineFilter struct {
	UserID    string
	DatasetID string
	Status    entity.PipelineStatus
	Offset    int
	Limit     int
}

// PipelineRepository is the persistence contract for pipelines.
type PipelineRepository interface {
	Create(ctx context.Context, p *entity.Pipeline) error
	GetByID(ctx context.Context, id string) (*entity.Pipeline, error)
	Update(ctx context.Context, p *entity.Pipeline) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, f PipelineFilter) ([]*entity.Pipeline, int64, error)
}

// CreatePipelineInput creates a pipeline, either from a recommendation or by hand.
type CreatePipelineInput struct {
	UserID      string
	DatasetID   string
	Name        string
	Description string
	Config      entity.PipelineConfig
}

// UpdatePipelineInput mutates a draft pipeline. Nil means unchanged.
type UpdatePipelineInput struct {
	Name        *string
	Description *string
	Config      *entity.PipelineConfig
}

// PipelineUsecase is the pipeline business logic.
type PipelineUsecase interface {
	Recommend(ctx context.Context, userID, datasetID, targetColumn string) (*entity.Pipeline, error)
	Create(ctx context.Context, in CreatePipelineInput) (*entity.Pipeline, error)
	GetByID(ctx context.Context, userID, id string) (*entity.Pipeline, error)
	Update(ctx context.Context, userID, id string, in UpdatePipelineInput) (*entity.Pipeline, error)
	Validate(ctx context.Context, userID, id string) (*entity.Pipeline, error)
	Archive(ctx context.Context, userID, id string) error
	List(ctx context.Context, f PipelineFilter) ([]*entity.Pipeline, int64, error)
}
