package worker

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/hibiken/asynq"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/infrastructure/queue"
	"github.com/h19overflow/PipeWeave/pkg/dataframe"
)

// HandleDatasetValidate downloads the uploaded CSV, parses it, and records
// the row/column shape. Structural problems mark the dataset failed with
// machine-readable issues rather than erroring the task.
func (w *Worker) HandleDatasetValidate(ctx context.Context, t *asynq.Task) error {
	var payload queue.DatasetValidatePayload
	if err := sonic.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	ds, err := w.datasetRepo.GetByID(ctx, payload.DatasetID)
	if err != nil {
		if domain.IsNotFound(err) {
			w.logger.Warn("validation task for missing dataset", "dataset_id", payload.DatasetID)
			return nil
		}
		return err
	}

	switch ds.Status {
	case entity.DatasetUploaded:
		if err := w.datasetRepo.UpdateStatus(ctx, ds.ID, entity.DatasetUploaded, entity.DatasetValidating); err != nil {
			return err
		}
		ds.Status = entity.DatasetValidating
	case entity.DatasetValidating:
		// Retried task, keep going.
	default:
		w.logger.Warn("skipping validation", "dataset_id", ds.ID, "status", ds.Status)
		return nil
	}

	body, err := w.store.Get(ctx, ds.S3KeyRaw)
	if err != nil {
		return fmt.Errorf("failed to fetch dataset %s: %w", ds.ID, err)
	}
	defer body.Close()

	df, err := dataframe.ReadCSV(body)
	if err != nil {
		return w.failValidation(ctx, ds, entity.ValidationIssue{
			Code:    "parse_error",
			Message: err.Error(),
		})
	}
	if df.NumRows() == 0 {
		return w.failValidation(ctx, ds, entity.ValidationIssue{
			Code:    "empty_dataset",
			Message: "csv contains a header but no data rows",
		})
	}

	numRows := int64(df.NumRows())
	numCols := df.NumColumns()
	ds.NumRows = &numRows
	ds.NumColumns = &numCols
	ds.ColumnNames = df.Columns()
	ds.Status = entity.DatasetValidated
	ds.ValidationError = nil
	if err := w.datasetRepo.Update(ctx, ds); err != nil {
		return fmt.Errorf("failed to record validation result: %w", err)
	}

	w.logger.Info("dataset validated", "dataset_id", ds.ID, "rows", numRows, "columns", numCols)
	return nil
}

// failValidation is terminal: structural CSV problems do not improve on retry.
func (w *Worker) failValidation(ctx context.Context, ds *entity.Dataset, issues ...entity.ValidationIssue) error {
	ds.Status = entity.DatasetFailed
	ds.ValidationError = issues
	if err := w.datasetRepo.Update(ctx, ds); err != nil {
		return fmt.Errorf("failed to record validation failure: %w", err)
	}
	w.logger.Warn("dataset validation failed", "dataset_id", ds.ID, "issues", len(issues))
	return nil
}
