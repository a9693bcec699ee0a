package worker

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hibiken/asynq"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/infrastructure/queue"
	"github.com/h19overflow/PipeWeave/pkg/dataframe"
	"github.com/h19overflow/PipeWeave/pkg/forest"
	"github.com/h19overflow/PipeWeave/pkg/metrics"
	"github.com/h19overflow/PipeWeave/pkg/preprocess"
)

const frameworkVersion = "pipeweave-forest/1.0"

// errCancelled aborts a run when the job was cancelled between checkpoints.
var errCancelled = errors.New("job cancelled")

// modelMetadata is the evaluation sidecar stored next to the artifact.
type modelMetadata struct {
	TaskType     string             `json:"task_type"`
	FeatureNames []string           `json:"feature_names"`
	Importances  []float64          `json:"importances"`
	ClassNames   []string           `json:"class_names,omitempty"`
	Metrics      map[string]float64 `json:"metrics"`
}

// HandleTrainingRun executes one training job end to end, writing progress
// checkpoints to the job row. Cancellation is cooperative: the status is
// re-read at every checkpoint.
func (w *Worker) HandleTrainingRun(ctx context.Context, t *asynq.Task) error {
	var payload queue.TrainingRunPayload
	if err := sonic.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	job, err := w.jobRepo.GetByID(ctx, payload.JobID)
	if err != nil {
		if domain.IsNotFound(err) {
			w.logger.Warn("training task for missing job", "job_id", payload.JobID)
			return nil
		}
		return err
	}
	if job.IsTerminal() {
		w.logger.Info("skipping terminal job", "job_id", job.ID, "status", job.Status)
		return nil
	}

	now := time.Now()
	job.Status = entity.JobRunning
	job.StartedAt = &now
	job.HeartbeatAt = &now
	if err := w.jobRepo.Update(ctx, job); err != nil {
		return err
	}

	if err := w.runTraining(ctx, job); err != nil {
		if errors.Is(err, errCancelled) {
			w.logger.Info("training cancelled", "job_id", job.ID)
			return nil
		}
		return w.failTraining(ctx, job, err)
	}
	return nil
}

func (w *Worker) runTraining(ctx context.Context, job *entity.TrainingJob) error {
	hp := job.Snapshot.Hyperparameters
	cfg := job.Snapshot.Config
	classification := cfg.TaskType == "classification"

	if err := w.checkpoint(ctx, job, 5, "downloading dataset"); err != nil {
		return err
	}
	ds, err := w.datasetRepo.GetByID(ctx, job.DatasetID)
	if err != nil {
		return err
	}
	body, err := w.store.Get(ctx, ds.S3KeyRaw)
	if err != nil {
		return fmt.Errorf("failed to fetch dataset: %w", err)
	}
	df, err := dataframe.ReadCSV(body)
	body.Close()
	if err != nil {
		return fmt.Errorf("dataset is not parseable: %w", err)
	}

	if err := w.checkpoint(ctx, job, 10, "preprocessing features"); err != nil {
		return err
	}
	prep, err := preprocess.Fit(df, cfg.TargetColumn)
	if err != nil {
		return fmt.Errorf("preprocessing failed: %w", err)
	}
	X, err := prep.Transform(df)
	if err != nil {
		return fmt.Errorf("feature transform failed: %w", err)
	}
	y, classNames, err := preprocess.TargetVector(df, cfg.TargetColumn, classification)
	if err != nil {
		return fmt.Errorf("target extraction failed: %w", err)
	}

	if err := w.checkpoint(ctx, job, 20, "splitting train/test"); err != nil {
		return err
	}
	XTrain, XTest, yTrain, yTest, err := metrics.TrainTestSplit(X, y, hp.TestSize, hp.RandomState, classification)
	if err != nil {
		return fmt.Errorf("train/test split failed: %w", err)
	}

	if err := w.checkpoint(ctx, job, 40, "training forest"); err != nil {
		return err
	}
	task := forest.Regression
	if classification {
		task = forest.Classification
	}
	model := forest.NewForest(task,
		forest.WithNEstimators(hp.NEstimators),
		forest.WithForestMaxDepth(hp.MaxDepth),
		forest.WithForestMinSamplesSplit(hp.MinSamplesSplit),
		forest.WithForestMinSamplesLeaf(hp.MinSamplesLeaf),
		forest.WithSeed(hp.RandomState),
		forest.WithFeatureNames(prep.FeatureNames()),
	)
	trainStart := time.Now()
	if err := model.Fit(XTrain, yTrain); err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	trainSeconds := time.Since(trainStart).Seconds()

	if err := w.checkpoint(ctx, job, 70, "predicting test set"); err != nil {
		return err
	}
	preds := model.Predict(XTest)

	if err := w.checkpoint(ctx, job, 80, "computing metrics"); err != nil {
		return err
	}
	scores := evaluate(model, XTest, yTest, preds, classification, len(classNames))

	if err := w.checkpoint(ctx, job, 90, "extracting feature importances"); err != nil {
		return err
	}
	meta := modelMetadata{
		TaskType:     cfg.TaskType,
		FeatureNames: prep.FeatureNames(),
		Importances:  model.FeatureImportances(),
		ClassNames:   classNames,
		Metrics:      scores,
	}

	if err := w.checkpoint(ctx, job, 95, "saving artifact"); err != nil {
		return err
	}
	artifact, checksum, err := w.saveArtifacts(ctx, job, model, meta)
	if err != nil {
		return err
	}

	if err := w.checkpoint(ctx, job, 100, "done"); err != nil {
		return err
	}
	return w.recordResult(ctx, job, classification, scores, trainSeconds, artifact, checksum)
}

// checkpoint re-reads the job for cooperative cancellation, then advances
// progress and refreshes the heartbeat.
func (w *Worker) checkpoint(ctx context.Context, job *entity.TrainingJob, progress int, step string) error {
	current, err := w.jobRepo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if current.Status == entity.JobCancelled {
		return errCancelled
	}
	job.Progress = progress
	job.CurrentStep = step
	return w.jobRepo.UpdateProgress(ctx, job.ID, progress, step, time.Now())
}

func evaluate(model *forest.Forest, XTest [][]float64, yTest, preds []float64, classification bool, numClasses int) map[string]float64 {
	scores := map[string]float64{}
	if classification {
		scores["accuracy"] = metrics.Accuracy(yTest, preds)
		precision, recall, f1 := metrics.PrecisionRecallF1(yTest, preds)
		scores["precision"] = precision
		scores["recall"] = recall
		scores["f1"] = f1
		if numClasses == 2 {
			if proba := model.PredictProba(XTest); proba != nil {
				positive := make([]float64, len(proba))
				classes := model.Classes()
				for ci, c := range classes {
					if c == 1 {
						for i := range proba {
							positive[i] = proba[i][ci]
						}
						break
					}
				}
				scores["roc_auc"] = metrics.ROCAUC(yTest, positive)
			}
		}
		return scores
	}

	scores["mae"] = metrics.MAE(yTest, preds)
	scores["mse"] = metrics.MSE(yTest, preds)
	scores["rmse"] = metrics.RMSE(yTest, preds)
	scores["r2"] = metrics.R2(yTest, preds)
	if mape, ok := metrics.MAPE(yTest, preds); ok {
		scores["mape"] = mape
	}
	return scores
}

// saveArtifacts uploads the gob-encoded forest plus its config and metadata
// sidecars, returning the artifact size and sha256 checksum.
func (w *Worker) saveArtifacts(ctx context.Context, job *entity.TrainingJob, model *forest.Forest, meta modelMetadata) (int64, string, error) {
	encoded, err := model.Encode()
	if err != nil {
		return 0, "", fmt.Errorf("failed to serialize model: %w", err)
	}
	sum := sha256.Sum256(encoded)
	checksum := hex.EncodeToString(sum[:])

	artifactKey := domain.ModelArtifactKey(job.UserID, job.ID)
	if err := w.store.Put(ctx, artifactKey, bytes.NewReader(encoded), int64(len(encoded)), "application/octet-stream"); err != nil {
		return 0, "", fmt.Errorf("failed to upload artifact: %w", err)
	}

	configJSON, err := sonic.Marshal(job.Snapshot)
	if err != nil {
		return 0, "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := w.store.Put(ctx, domain.ModelConfigKey(job.UserID, job.ID),
		bytes.NewReader(configJSON), int64(len(configJSON)), "application/json"); err != nil {
		return 0, "", fmt.Errorf("failed to upload config: %w", err)
	}

	metaJSON, err := sonic.Marshal(meta)
	if err != nil {
		return 0, "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := w.store.Put(ctx, domain.ModelMetadataKey(job.UserID, job.ID),
		bytes.NewReader(metaJSON), int64(len(metaJSON)), "application/json"); err != nil {
		return 0, "", fmt.Errorf("failed to upload metadata: %w", err)
	}

	return int64(len(encoded)), checksum, nil
}

// recordResult inserts the model and experiment-run rows and completes the job.
func (w *Worker) recordResult(ctx context.Context, job *entity.TrainingJob, classification bool, scores map[string]float64, trainSeconds float64, artifactSize int64, checksum string) error {
	modelType := "random_forest_regressor"
	if classification {
		modelType = "random_forest_classifier"
	}

	version, err := w.modelRepo.NextVersion(ctx, job.PipelineID)
	if err != nil {
		return fmt.Errorf("failed to allocate model version: %w", err)
	}

	m := &entity.Model{
		TrainingJobID:     job.ID,
		PipelineID:        job.PipelineID,
		UserID:            job.UserID,
		Name:              fmt.Sprintf("%s v%d", modelType, version),
		ModelType:         modelType,
		FrameworkVersion:  frameworkVersion,
		S3Bucket:          w.cfg.Bucket,
		S3KeyArtifact:     domain.ModelArtifactKey(job.UserID, job.ID),
		S3KeyConfig:       domain.ModelConfigKey(job.UserID, job.ID),
		S3KeyMetadata:     domain.ModelMetadataKey(job.UserID, job.ID),
		ArtifactSizeBytes: artifactSize,
		ArtifactChecksum:  checksum,
		Metrics:           scores,
		Version:           version,
	}
	if err := w.modelRepo.Create(ctx, m); err != nil {
		return fmt.Errorf("failed to record model: %w", err)
	}

	// Retried deliveries of the same job append a new run rather than
	// colliding with the run a partially failed attempt already wrote.
	prior, err := w.runRepo.ListByJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to list prior runs: %w", err)
	}
	runNumber := 1
	for _, p := range prior {
		if p.RunNumber >= runNumber {
			runNumber = p.RunNumber + 1
		}
	}

	run := &entity.ExperimentRun{
		TrainingJobID:   job.ID,
		UserID:          job.UserID,
		RunNumber:       runNumber,
		Hyperparameters: job.Snapshot.Hyperparameters,
		Metrics:         scores,
		TrainingSeconds: trainSeconds,
		Status:          entity.RunCompleted,
	}
	if err := w.runRepo.Create(ctx, run); err != nil {
		return fmt.Errorf("failed to record experiment run: %w", err)
	}

	now := time.Now()
	job.Status = entity.JobCompleted
	job.CompletedAt = &now
	if job.StartedAt != nil {
		duration := now.Sub(*job.StartedAt).Seconds()
		job.DurationSeconds = &duration
	}
	job.Progress = 100
	job.CurrentStep = "done"
	job.ErrorMessage = ""
	if err := w.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	w.logger.Info("training completed", "job_id", job.ID, "model_id", m.ID,
		"version", version, "train_seconds", trainSeconds)
	return nil
}

// failTraining marks the job failed on the final delivery attempt; earlier
// attempts leave it running so the retry can pick it up.
func (w *Worker) failTraining(ctx context.Context, job *entity.TrainingJob, cause error) error {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried < maxRetry {
		w.logger.Warn("training attempt failed, will retry", "job_id", job.ID,
			"attempt", retried+1, "error", cause)
		return cause
	}

	now := time.Now()
	job.Status = entity.JobFailed
	job.CompletedAt = &now
	if job.StartedAt != nil {
		duration := now.Sub(*job.StartedAt).Seconds()
		job.DurationSeconds = &duration
	}
	job.ErrorMessage = cause.Error()
	if err := w.jobRepo.Update(ctx, job); err != nil {
		w.logger.Error("failed to record job failure", "job_id", job.ID, "error", err)
	}
	w.logger.Error("training failed", "job_id", job.ID, "error", cause)
	return cause
}
