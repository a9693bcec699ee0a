package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// maxEstimators caps forest size so one job cannot monopolize a worker.
const maxEstimators = 1000

type trainingUsecase struct {
	jobRepo      domain.TrainingJobRepository
	pipelineRepo domain.PipelineRepository
	datasetRepo  domain.DatasetRepository
	queue        domain.TaskQueue
	logger       *slog.Logger
}

// NewTrainingUsecase creates the training-job business logic.
func NewTrainingUsecase(
	jobRepo domain.TrainingJobRepository,
	pipelineRepo domain.PipelineRepository,
	datasetRepo domain.DatasetRepository,
	queue domain.TaskQueue,
	logger *slog.Logger,
) domain.TrainingUsecase {
	return &trainingUsecase{
		jobRepo:      jobRepo,
		pipelineRepo: pipelineRepo,
		datasetRepo:  datasetRepo,
		queue:        queue,
		logger:       logger,
	}
}

// Submit snapshots a validated pipeline and queues a training run.
func (u *trainingUsecase) Submit(ctx context.Context, in domain.SubmitTrainingInput) (*entity.TrainingJob, error) {
	p, err := u.pipelineRepo.GetByID(ctx, in.PipelineID)
	if err != nil {
		return nil, err
	}
	if p.UserID != in.UserID {
		return nil, domain.NewNotFoundError("pipeline", in.PipelineID)
	}
	if p.Status != entity.PipelineValidated {
		return nil, domain.NewConflictError(fmt.Sprintf("pipeline is %s, training requires validated", p.Status))
	}

	ds, err := u.datasetRepo.GetByID(ctx, p.DatasetID)
	if err != nil {
		return nil, err
	}
	if ds.Status != entity.DatasetValidated {
		return nil, domain.NewConflictError(fmt.Sprintf("dataset is %s, training requires validated", ds.Status))
	}

	hp := entity.DefaultHyperparameters()
	if in.Hyperparameters != nil {
		hp = *in.Hyperparameters
	}
	if err := validateHyperparameters(hp); err != nil {
		return nil, err
	}

	job := &entity.TrainingJob{
		PipelineID: p.ID,
		UserID:     in.UserID,
		DatasetID:  p.DatasetID,
		Snapshot: entity.PipelineSnapshot{
			Config:          p.Config,
			Hyperparameters: hp,
		},
		Status:   entity.JobQueued,
		Priority: in.Priority,
	}
	if err := u.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create training job: %w", err)
	}

	taskID, err := u.queue.EnqueueTraining(ctx, job.ID, in.Priority)
	if err != nil {
		return nil, fmt.Errorf("failed to queue training: %w", err)
	}
	job.TaskID = taskID
	if err := u.jobRepo.Update(ctx, job); err != nil {
		u.logger.Error("failed to record task id", "error", err, "job_id", job.ID)
	}

	u.logger.Info("training job queued", "job_id", job.ID, "pipeline_id", p.ID,
		"priority", in.Priority, "task_id", taskID)
	return job, nil
}

// GetByID returns a job owned by the user.
func (u *trainingUsecase) GetByID(ctx context.Context, userID, id string) (*entity.TrainingJob, error) {
	return u.getOwned(ctx, userID, id)
}

// Cancel stops a queued or running job. A queued task is dropped from the
// queue; a running one is cancelled cooperatively by the worker, which
// checks the job status between progress checkpoints.
func (u *trainingUsecase) Cancel(ctx context.Context, userID, id string) (*entity.TrainingJob, error) {
	job, err := u.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if job.IsTerminal() {
		return nil, domain.NewConflictError(fmt.Sprintf("job is already %s", job.Status))
	}

	if job.Status == entity.JobQueued && job.TaskID != "" {
		if err := u.queue.CancelTask(ctx, job.TaskID); err != nil {
			u.logger.Error("failed to drop queued task", "error", err, "job_id", job.ID)
		}
	}

	job.Status = entity.JobCancelled
	if err := u.jobRepo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to cancel job: %w", err)
	}

	u.logger.Info("training job cancelled", "job_id", job.ID)
	return job, nil
}

// List returns the user's jobs.
func (u *trainingUsecase) List(ctx context.Context, f domain.TrainingJobFilter) ([]*entity.TrainingJob, int64, error) {
	return u.jobRepo.List(ctx, f)
}

func (u *trainingUsecase) getOwned(ctx context.Context, userID, id string) (*entity.TrainingJob, error) {
	job, err := u.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, domain.NewNotFoundError("training job", id)
	}
	return job, nil
}

func validateHyperparameters(hp entity.Hyperparameters) error {
	if hp.NEstimators < 1 || hp.NEstimators > maxEstimators {
		return domain.NewInvalidInputError(fmt.Sprintf("n_estimators must be between 1 and %d", maxEstimators))
	}
	if hp.MaxDepth < 0 {
		return domain.NewInvalidInputError("max_depth must be zero (unlimited) or positive")
	}
	if hp.MinSamplesSplit < 2 {
		return domain.NewInvalidInputError("min_samples_split must be at least 2")
	}
	if hp.MinSamplesLeaf < 1 {
		return domain.NewInvalidInputError("min_samples_leaf must be at least 1")
	}
	if hp.TestSize <= 0 || hp.TestSize >= 0.5 {
		return domain.NewInvalidInputError("test_size must be in (0, 0.5)")
	}
	return nil
}
