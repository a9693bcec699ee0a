package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

type modelUsecase struct {
	modelRepo domain.ModelRepository
	runRepo   domain.ExperimentRunRepository
	jobRepo   domain.TrainingJobRepository
	store     domain.ObjectStore
	logger    *slog.Logger
}

// NewModelUsecase creates the trained-model business logic.
func NewModelUsecase(
	modelRepo domain.ModelRepository,
	runRepo domain.ExperimentRunRepository,
	jobRepo domain.TrainingJobRepository,
	store domain.ObjectStore,
	logger *slog.Logger,
) domain.ModelUsecase {
	return &modelUsecase{
		modelRepo: modelRepo,
		runRepo:   runRepo,
		jobRepo:   jobRepo,
		store:     store,
		logger:    logger,
	}
}

// GetByID returns a model owned by the user.
func (u *modelUsecase) GetByID(ctx context.Context, userID, id string) (*entity.Model, error) {
	return u.getOwned(ctx, userID, id)
}

// List returns the user's models.
func (u *modelUsecase) List(ctx context.Context, f domain.ModelFilter) ([]*entity.Model, int64, error) {
	return u.modelRepo.List(ctx, f)
}

// DownloadURL presigns a GET for the serialized model artifact.
func (u *modelUsecase) DownloadURL(ctx context.Context, userID, id string) (string, time.Duration, error) {
	m, err := u.getOwned(ctx, userID, id)
	if err != nil {
		return "", 0, err
	}
	url, err := u.store.PresignedGet(ctx, m.S3KeyArtifact, downloadURLExpiry)
	if err != nil {
		return "", 0, fmt.Errorf("failed to presign download: %w", err)
	}
	return url, downloadURLExpiry, nil
}

// Promote marks the model as the pipeline's production model, demoting any
// previous one in the same transaction.
func (u *modelUsecase) Promote(ctx context.Context, userID, id string) (*entity.Model, error) {
	m, err := u.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if m.IsProduction {
		return m, nil
	}

	if err := u.modelRepo.PromoteProduction(ctx, m.PipelineID, m.ID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to promote model: %w", err)
	}

	m, err = u.modelRepo.GetByID(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	u.logger.Info("model promoted", "model_id", m.ID, "pipeline_id", m.PipelineID, "version", m.Version)
	return m, nil
}

// Runs returns the experiment runs recorded under a training job.
func (u *modelUsecase) Runs(ctx context.Context, userID, trainingJobID string) ([]*entity.ExperimentRun, error) {
	job, err := u.jobRepo.GetByID(ctx, trainingJobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, domain.NewNotFoundError("training job", trainingJobID)
	}
	return u.runRepo.ListByJob(ctx, trainingJobID)
}

func (u *modelUsecase) getOwned(ctx context.Context, userID, id string) (*entity.Model, error) {
	m, err := u.modelRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.UserID != userID {
		return nil, domain.NewNotFoundError("model", id)
	}
	return m, nil
}
