package usecase

import (
	"context"
	"testing"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

type trainingFixture struct {
	uc       domain.TrainingUsecase
	jobRepo  *fakeJobRepo
	queue    *fakeQueue
	pipeline *entity.Pipeline
	dataset  *entity.Dataset
}

func newTrainingFixture(t *testing.T) *trainingFixture {
	t.Helper()
	f := &trainingFixture{
		jobRepo: newFakeJobRepo(),
		queue:   newFakeQueue(),
	}
	datasetRepo := newFakeDatasetRepo()
	pipelineRepo := newFakePipelineRepo()
	f.uc = NewTrainingUsecase(f.jobRepo, pipelineRepo, datasetRepo, f.queue, testLogger())

	f.dataset = seedValidatedDataset(datasetRepo, nil, "u1")
	f.pipeline = &entity.Pipeline{
		UserID:    "u1",
		DatasetID: f.dataset.ID,
		Name:      "plan",
		Config:    validConfig(),
		Status:    entity.PipelineValidated,
	}
	pipelineRepo.Create(context.Background(), f.pipeline)
	return f
}

func TestSubmitTraining(t *testing.T) {
	f := newTrainingFixture(t)

	job, err := f.uc.Submit(context.Background(), domain.SubmitTrainingInput{
		UserID:     "u1",
		PipelineID: f.pipeline.ID,
		Priority:   7,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.Status != entity.JobQueued {
		t.Errorf("status = %s, want queued", job.Status)
	}
	if job.TaskID == "" {
		t.Error("task id not recorded")
	}
	if job.DatasetID != f.dataset.ID {
		t.Errorf("dataset = %s, want %s", job.DatasetID, f.dataset.ID)
	}

	// Defaults applied when no hyperparameters given.
	if job.Snapshot.Hyperparameters != entity.DefaultHyperparameters() {
		t.Errorf("hyperparameters = %+v", job.Snapshot.Hyperparameters)
	}
	if job.Snapshot.Config.TargetColumn != "label" {
		t.Errorf("snapshot config = %+v", job.Snapshot.Config)
	}
	if len(f.queue.trained) != 1 || f.queue.priorities[0] != 7 {
		t.Errorf("enqueued %v with priorities %v", f.queue.trained, f.queue.priorities)
	}
}

func TestSubmitTrainingGuards(t *testing.T) {
	f := newTrainingFixture(t)

	// Draft pipeline.
	f.pipeline.Status = entity.PipelineDraft
	if _, err := f.uc.Submit(context.Background(), domain.SubmitTrainingInput{
		UserID: "u1", PipelineID: f.pipeline.ID,
	}); !domain.IsConflict(err) {
		t.Errorf("draft pipeline = %v, want conflict", err)
	}
	f.pipeline.Status = entity.PipelineValidated

	// Unvalidated dataset.
	f.dataset.Status = entity.DatasetUploaded
	if _, err := f.uc.Submit(context.Background(), domain.SubmitTrainingInput{
		UserID: "u1", PipelineID: f.pipeline.ID,
	}); !domain.IsConflict(err) {
		t.Errorf("unvalidated dataset = %v, want conflict", err)
	}
	f.dataset.Status = entity.DatasetValidated

	// Someone else's pipeline.
	if _, err := f.uc.Submit(context.Background(), domain.SubmitTrainingInput{
		UserID: "u2", PipelineID: f.pipeline.ID,
	}); !domain.IsNotFound(err) {
		t.Errorf("cross-user submit = %v, want not found", err)
	}
}

func TestSubmitTrainingHyperparameterValidation(t *testing.T) {
	f := newTrainingFixture(t)

	tests := []struct {
		name string
		hp   entity.Hyperparameters
	}{
		{"zero estimators", entity.Hyperparameters{NEstimators: 0, MinSamplesSplit: 2, MinSamplesLeaf: 1, TestSize: 0.2}},
		{"too many estimators", entity.Hyperparameters{NEstimators: 5000, MinSamplesSplit: 2, MinSamplesLeaf: 1, TestSize: 0.2}},
		{"bad split", entity.Hyperparameters{NEstimators: 10, MinSamplesSplit: 1, MinSamplesLeaf: 1, TestSize: 0.2}},
		{"bad test size", entity.Hyperparameters{NEstimators: 10, MinSamplesSplit: 2, MinSamplesLeaf: 1, TestSize: 0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp := tt.hp
			if _, err := f.uc.Submit(context.Background(), domain.SubmitTrainingInput{
				UserID: "u1", PipelineID: f.pipeline.ID, Hyperparameters: &hp,
			}); !domain.IsInvalidInput(err) {
				t.Errorf("Submit = %v, want invalid input", err)
			}
		})
	}
}

func TestCancelTraining(t *testing.T) {
	f := newTrainingFixture(t)

	job, err := f.uc.Submit(context.Background(), domain.SubmitTrainingInput{
		UserID: "u1", PipelineID: f.pipeline.ID,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	cancelled, err := f.uc.Cancel(context.Background(), "u1", job.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != entity.JobCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if len(f.queue.cancelled) != 1 || f.queue.cancelled[0] != job.TaskID {
		t.Errorf("queue cancellations = %v, want [%s]", f.queue.cancelled, job.TaskID)
	}

	if _, err := f.uc.Cancel(context.Background(), "u1", job.ID); !domain.IsConflict(err) {
		t.Errorf("double cancel = %v, want conflict", err)
	}
}

func TestCancelRunningTrainingIsCooperative(t *testing.T) {
	f := newTrainingFixture(t)

	job, err := f.uc.Submit(context.Background(), domain.SubmitTrainingInput{
		UserID: "u1", PipelineID: f.pipeline.ID,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	job.Status = entity.JobRunning

	cancelled, err := f.uc.Cancel(context.Background(), "u1", job.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != entity.JobCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	// Running jobs are not dropped from the queue; the worker observes the
	// status between checkpoints.
	if len(f.queue.cancelled) != 0 {
		t.Errorf("queue cancellations = %v, want none", f.queue.cancelled)
	}
}
