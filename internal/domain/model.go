package domain

import (
	"context"
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// ModelFilter narrows model listings.
type ModelFilter struct {
	UserID     string
	PipelineID string
	Offset     int
	Limit      int
}

// ModelRepository is the persistence contract for trained models.
type ModelRepository interface {
	Create(ctx context.Context, m *entity.Model) error
	GetByID(ctx context.Context, id string) (*entity.Model, error)
	Update(ctx context.Context, m *entity.Model) error
	// NextVersion returns max(version)+1 among models of the pipeline.
	NextVersion(ctx context.Context, pipelineID string) (int, error)
	// PromoteProduction atomically clears is_production on the pipeline's
	// other models and sets it on the given one.
	PromoteProduction(ctx context.Context, pipelineID, modelID string, at time.Time) error
	List(ctx context.Context, f ModelFilter) ([]*entity.Model, int64, error)
}

// ExperimentRunRepository is the persistence contract for experiment runs.
type ExperimentRunRepository interface {
	Create(ctx context.Context, r *entity.ExperimentRun) error
	Update(ctx context.Context, r *entity.ExperimentRun) error
	ListByJob(ctx context.Context, trainingJobID string) ([]*entity.ExperimentRun, error)
}

// ModelUsecase is the trained-model business logic.
type ModelUsecase interface {
	GetByID(ctx context.Context, userID, id string) (*entity.Model, error)
	List(ctx context.Context, f ModelFilter) ([]*entity.Model, int64, error)
	DownloadURL(ctx context.Context, userID, id string) (string, time.Duration, error)
	Promote(ctx context.Context, userID, id string) (*entity.Model, error)
	Runs(ctx context.Context, userID, trainingJobID string) ([]*entity.ExperimentRun, error)
}
