// Package queue defines the background task types shared by the API server
// (producer) and the worker (consumer), plus the asynq-backed queue client.
package queue

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/hibiken/asynq"
)

// Task type names. The prefix doubles as the queue name.
const (
	TypeDatasetValidate = "datasets:validate"
	TypeEDAGenerate     = "eda:generate"
	TypeTrainingRun     = "training:train"
)

// Queue names, ordered by weight in the worker.
const (
	QueueDatasets     = "datasets"
	QueueEDA          = "eda"
	QueueTraining     = "training"
	QueueTrainingHigh = "training_high"
)

// DatasetValidatePayload asks the worker to validate an uploaded CSV.
type DatasetValidatePayload struct {
	DatasetID string `json:"dataset_id"`
}

// EDAGeneratePayload asks the worker to build a profiling report.
type EDAGeneratePayload struct {
	ReportID string `json:"report_id"`
}

// TrainingRunPayload asks the worker to execute a training job.
type TrainingRunPayload struct {
	JobID string `json:"job_id"`
}

// NewDatasetValidateTask builds the validation task for a dataset.
func NewDatasetValidateTask(datasetID string) (*asynq.Task, error) {
	payload, err := sonic.Marshal(DatasetValidatePayload{DatasetID: datasetID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode task payload: %w", err)
	}
	return asynq.NewTask(TypeDatasetValidate, payload, asynq.Queue(QueueDatasets)), nil
}

// NewEDAGenerateTask builds the profiling task for a report record.
func NewEDAGenerateTask(reportID string) (*asynq.Task, error) {
	payload, err := sonic.Marshal(EDAGeneratePayload{ReportID: reportID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode task payload: %w", err)
	}
	return asynq.NewTask(TypeEDAGenerate, payload,
		asynq.Queue(QueueEDA), asynq.MaxRetry(3)), nil
}

// NewTrainingRunTask builds the training task for a job record.
func NewTrainingRunTask(jobID string) (*asynq.Task, error) {
	payload, err := sonic.Marshal(TrainingRunPayload{JobID: jobID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode task payload: %w", err)
	}
	return asynq.NewTask(TypeTrainingRun, payload,
		asynq.Queue(QueueTraining), asynq.MaxRetry(2)), nil
}
