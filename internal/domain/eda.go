package domain

import (
	"context"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// EDARepository is the persistence contract for EDA reports.
type EDARepository interface {
	Create(ctx context.Context, r *entity.EDAReport) error
	GetByID(ctx context.Context, id string) (*entity.EDAReport, error)
	GetLatestByDataset(ctx context.Context, datasetID string) (*entity.EDAReport, error)
	Update(ctx context.Context, r *entity.EDAReport) error
	ListByDataset(ctx context.Context, datasetID string, offset, limit int) ([]*entity.EDAReport, int64, error)
}

// EDAUsecase is the profiling business logic.
type EDAUsecase interface {
	Generate(ctx context.Context, userID, datasetID string) (*entity.EDAReport, error)
	GetByID(ctx context.Context, userID, id string) (*entity.EDAReport, error)
	Latest(ctx context.Context, userID, datasetID string) (*entity.EDAReport, error)
	// FullReport resolves the body regardless of where it is stored.
	FullReport(ctx context.Context, userID, id string) (*entity.EDAFullReport, error)
}
