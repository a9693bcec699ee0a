package worker

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hibiken/asynq"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/infrastructure/queue"
	"github.com/h19overflow/PipeWeave/pkg/dataframe"
)

// HandleEDAGenerate profiles the dataset and stores the full report: inline
// in Postgres when it fits under the threshold, otherwise in object storage
// with only the summary kept inline.
func (w *Worker) HandleEDAGenerate(ctx context.Context, t *asynq.Task) error {
	var payload queue.EDAGeneratePayload
	if err := sonic.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	report, err := w.edaRepo.GetByID(ctx, payload.ReportID)
	if err != nil {
		if domain.IsNotFound(err) {
			w.logger.Warn("profiling task for missing report", "report_id", payload.ReportID)
			return nil
		}
		return err
	}
	if report.Status != entity.EDAQueued && report.Status != entity.EDARunning {
		w.logger.Warn("skipping profiling", "report_id", report.ID, "status", report.Status)
		return nil
	}

	report.Status = entity.EDARunning
	if err := w.edaRepo.Update(ctx, report); err != nil {
		return err
	}
	started := time.Now()

	ds, err := w.datasetRepo.GetByID(ctx, report.DatasetID)
	if err != nil {
		return err
	}

	body, err := w.store.Get(ctx, ds.S3KeyRaw)
	if err != nil {
		return fmt.Errorf("failed to fetch dataset %s: %w", ds.ID, err)
	}
	defer body.Close()

	df, err := dataframe.ReadCSV(body)
	if err != nil {
		return w.failProfiling(ctx, report, fmt.Sprintf("dataset is not parseable: %v", err))
	}

	full, err := buildFullReport(df)
	if err != nil {
		return w.failProfiling(ctx, report, err.Error())
	}

	// Optional LLM phrasing of the summary; the findings stay as computed.
	if summary, err := w.insights.SummarizeInsights(ctx, full.Insights); err == nil && summary != "" {
		full.SummaryRecommendation = summary
	}

	encoded, err := sonic.Marshal(full)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	report.Summary = &full.Summary
	report.ReportSizeBytes = int64(len(encoded))
	report.ReportVersion = full.ReportVersion
	if report.ReportSizeBytes <= w.cfg.EDAReportThresholdBytes {
		report.StorageLocation = entity.StoragePostgres
		report.FullReport = full
	} else {
		key := domain.EDAReportKey(report.UserID, report.ID)
		if err := w.store.Put(ctx, key, bytes.NewReader(encoded), report.ReportSizeBytes, "application/json"); err != nil {
			return fmt.Errorf("failed to store report body: %w", err)
		}
		report.StorageLocation = entity.StorageS3
		report.S3Bucket = w.cfg.Bucket
		report.S3Key = key
		report.FullReport = nil
	}

	elapsed := time.Since(started).Seconds()
	report.GenerationSeconds = &elapsed
	report.Status = entity.EDACompleted
	report.ErrorMessage = ""
	if err := w.edaRepo.Update(ctx, report); err != nil {
		return fmt.Errorf("failed to record report: %w", err)
	}

	w.logger.Info("eda report generated", "report_id", report.ID, "dataset_id", ds.ID,
		"size_bytes", report.ReportSizeBytes, "location", report.StorageLocation,
		"seconds", elapsed)
	return nil
}

// failProfiling is terminal: a dataset that cannot be parsed will not parse
// on retry either.
func (w *Worker) failProfiling(ctx context.Context, report *entity.EDAReport, msg string) error {
	report.Status = entity.EDAFailed
	report.ErrorMessage = msg
	if err := w.edaRepo.Update(ctx, report); err != nil {
		return fmt.Errorf("failed to record profiling failure: %w", err)
	}
	w.logger.Warn("eda generation failed", "report_id", report.ID, "error", msg)
	return nil
}
