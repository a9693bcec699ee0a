// Package worker consumes the background task queues: CSV validation,
// profiling report generation, and Random-Forest training.
package worker

import (
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/h19overflow/PipeWeave/internal/config"
	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/infrastructure/queue"
)

// Worker holds the handlers for every task type.
type Worker struct {
	datasetRepo domain.DatasetRepository
	edaRepo     domain.EDARepository
	jobRepo     domain.TrainingJobRepository
	modelRepo   domain.ModelRepository
	runRepo     domain.ExperimentRunRepository
	store       domain.ObjectStore
	insights    domain.InsightAgent
	cfg         config.StorageConfig
	logger      *slog.Logger
}

// New wires the task handlers.
func New(
	datasetRepo domain.DatasetRepository,
	edaRepo domain.EDARepository,
	jobRepo domain.TrainingJobRepository,
	modelRepo domain.ModelRepository,
	runRepo domain.ExperimentRunRepository,
	store domain.ObjectStore,
	insights domain.InsightAgent,
	cfg config.StorageConfig,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		datasetRepo: datasetRepo,
		edaRepo:     edaRepo,
		jobRepo:     jobRepo,
		modelRepo:   modelRepo,
		runRepo:     runRepo,
		store:       store,
		insights:    insights,
		cfg:         cfg,
		logger:      logger,
	}
}

// Register attaches every handler to the mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(queue.TypeDatasetValidate, w.HandleDatasetValidate)
	mux.HandleFunc(queue.TypeEDAGenerate, w.HandleEDAGenerate)
	mux.HandleFunc(queue.TypeTrainingRun, w.HandleTrainingRun)
}

// QueueWeights returns the asynq queue priority map. High-priority training
// outranks everything else.
func QueueWeights() map[string]int {
	return map[string]int{
		queue.QueueTrainingHigh: 6,
		queue.QueueTraining:     3,
		queue.QueueEDA:          2,
		queue.QueueDatasets:     2,
	}
}
