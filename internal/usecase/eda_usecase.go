package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bytedance/sonic"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

type edaUsecase struct {
	edaRepo     domain.EDARepository
	datasetRepo domain.DatasetRepository
	store       domain.ObjectStore
	queue       domain.TaskQueue
	logger      *slog.Logger
}

// NewEDAUsecase creates the profiling business logic.
func NewEDAUsecase(
	edaRepo domain.EDARepository,
	datasetRepo domain.DatasetRepository,
	store domain.ObjectStore,
	queue domain.TaskQueue,
	logger *slog.Logger,
) domain.EDAUsecase {
	return &edaUsecase{
		edaRepo:     edaRepo,
		datasetRepo: datasetRepo,
		store:       store,
		queue:       queue,
		logger:      logger,
	}
}

// Generate queues a profiling run for a validated dataset.
func (u *edaUsecase) Generate(ctx context.Context, userID, datasetID string) (*entity.EDAReport, error) {
	ds, err := u.datasetRepo.GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if ds.UserID != userID {
		return nil, domain.NewNotFoundError("dataset", datasetID)
	}
	if ds.Status != entity.DatasetValidated {
		return nil, domain.NewConflictError(fmt.Sprintf("dataset is %s, profiling requires validated", ds.Status))
	}

	report := &entity.EDAReport{
		DatasetID:       ds.ID,
		UserID:          userID,
		Status:          entity.EDAQueued,
		StorageLocation: entity.StoragePostgres,
	}
	if err := u.edaRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	taskID, err := u.queue.EnqueueEDAGeneration(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to queue report generation: %w", err)
	}
	report.TaskID = taskID
	if err := u.edaRepo.Update(ctx, report); err != nil {
		u.logger.Error("failed to record task id", "error", err, "report_id", report.ID)
	}

	u.logger.Info("profiling queued", "report_id", report.ID, "dataset_id", ds.ID, "task_id", taskID)
	return report, nil
}

// GetByID returns a report owned by the user.
func (u *edaUsecase) GetByID(ctx context.Context, userID, id string) (*entity.EDAReport, error) {
	return u.getOwned(ctx, userID, id)
}

// Latest returns the most recent report for a dataset.
func (u *edaUsecase) Latest(ctx context.Context, userID, datasetID string) (*entity.EDAReport, error) {
	report, err := u.edaRepo.GetLatestByDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if report.UserID != userID {
		return nil, domain.NewNotFoundError("eda report", datasetID)
	}
	return report, nil
}

// FullReport resolves the report body from wherever it was stored. Small
// reports live inline in Postgres, large ones in object storage.
func (u *edaUsecase) FullReport(ctx context.Context, userID, id string) (*entity.EDAFullReport, error) {
	report, err := u.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if report.Status != entity.EDACompleted {
		return nil, domain.NewConflictError(fmt.Sprintf("report is %s, expected completed", report.Status))
	}

	switch report.StorageLocation {
	case entity.StoragePostgres:
		if report.FullReport == nil {
			return nil, domain.NewInternalError(fmt.Errorf("completed report %s has no inline body", report.ID))
		}
		return report.FullReport, nil
	case entity.StorageS3:
		body, err := u.store.Get(ctx, report.S3Key)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch report body: %w", err)
		}
		defer body.Close()

		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("failed to read report body: %w", err)
		}
		var full entity.EDAFullReport
		if err := sonic.Unmarshal(raw, &full); err != nil {
			return nil, fmt.Errorf("failed to decode report body: %w", err)
		}
		return &full, nil
	default:
		return nil, domain.NewInternalError(fmt.Errorf("unknown storage location %q", report.StorageLocation))
	}
}

func (u *edaUsecase) getOwned(ctx context.Context, userID, id string) (*entity.EDAReport, error) {
	report, err := u.edaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.UserID != userID {
		return nil, domain.NewNotFoundError("eda report", id)
	}
	return report, nil
}
