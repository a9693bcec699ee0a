package domain

import (
	"context"
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// TrainingJobFilter narrows job listings.
type TrainingJobFilter struct {
	UserID     string
	PipelineID string
	Status     entity.JobStatus
	Offset     int
	Limit      int
}

// TrainingJobRepository is the persistence contract for training jobs.
type TrainingJobRepository interface {
	Create(ctx context.Context, j *entity.TrainingJob) error
	GetByID(ctx context.Context, id string) (*entity.TrainingJob, error)
	Update(ctx context.Context, j *entity.TrainingJob) error
	// UpdateProgress only moves progress forward and refreshes the heartbeat.
	UpdateProgress(ctx context.Context, id string, progress int, step string, at time.Time) error
	List(ctx context.Context, f TrainingJobFilter) ([]*entity.TrainingJob, int64, error)
	// ListStale finds running jobs whose heartbeat is older than cutoff.
	ListStale(ctx context.Context, cutoff time.Time) ([]*entity.TrainingJob, error)
}

// SubmitTrainingInput queues a training run for a validated pipeline.
type SubmitTrainingInput struct {
	UserID          string
	PipelineID      string
	Hyperparameters *entity.Hyperparameters
	Priority        int
}

// TrainingUsecase is the training-job business logic.
type TrainingUsecase interface {
	Submit(ctx context.Context, in SubmitTrainingInput) (*entity.TrainingJob, error)
	GetByID(ctx context.Context, userID, id string) (*entity.TrainingJob, error)
	Cancel(ctx context.Context, userID, id string) (*entity.TrainingJob, error)
	List(ctx context.Context, f TrainingJobFilter) ([]*entity.TrainingJob, int64, error)
}
