package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/h19overflow/PipeWeave/internal/config"
	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/infrastructure/queue"
	"github.com/h19overflow/PipeWeave/internal/rules"
)

// ---- in-memory fakes ----

type fakeDatasetRepo struct {
	datasets map[string]*entity.Dataset
}

func (r *fakeDatasetRepo) Create(ctx context.Context, ds *entity.Dataset) error {
	r.datasets[ds.ID] = ds
	return nil
}

func (r *fakeDatasetRepo) GetByID(ctx context.Context, id string) (*entity.Dataset, error) {
	ds, ok := r.datasets[id]
	if !ok || ds.IsDeleted() {
		return nil, domain.NewNotFoundError("dataset", id)
	}
	copied := *ds
	return &copied, nil
}

func (r *fakeDatasetRepo) Update(ctx context.Context, ds *entity.Dataset) error {
	r.datasets[ds.ID] = ds
	return nil
}

func (r *fakeDatasetRepo) UpdateStatus(ctx context.Context, id string, from, to entity.DatasetStatus) error {
	ds, ok := r.datasets[id]
	if !ok {
		return domain.NewNotFoundError("dataset", id)
	}
	if ds.Status != from {
		return domain.NewConflictError(fmt.Sprintf("dataset is %s, expected %s", ds.Status, from))
	}
	ds.Status = to
	return nil
}

func (r *fakeDatasetRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	r.datasets[id].DeletedAt = &at
	return nil
}

func (r *fakeDatasetRepo) List(ctx context.Context, f domain.DatasetFilter) ([]*entity.Dataset, int64, error) {
	return nil, 0, nil
}

type fakeEDARepo struct {
	reports map[string]*entity.EDAReport
}

func (r *fakeEDARepo) Create(ctx context.Context, rep *entity.EDAReport) error {
	r.reports[rep.ID] = rep
	return nil
}

func (r *fakeEDARepo) GetByID(ctx context.Context, id string) (*entity.EDAReport, error) {
	rep, ok := r.reports[id]
	if !ok {
		return nil, domain.NewNotFoundError("eda report", id)
	}
	copied := *rep
	return &copied, nil
}

func (r *fakeEDARepo) GetLatestByDataset(ctx context.Context, datasetID string) (*entity.EDAReport, error) {
	return nil, domain.NewNotFoundError("eda report", datasetID)
}

func (r *fakeEDARepo) Update(ctx context.Context, rep *entity.EDAReport) error {
	r.reports[rep.ID] = rep
	return nil
}

func (r *fakeEDARepo) ListByDataset(ctx context.Context, datasetID string, offset, limit int) ([]*entity.EDAReport, int64, error) {
	return nil, 0, nil
}

type fakeJobRepo struct {
	jobs map[string]*entity.TrainingJob
}

func (r *fakeJobRepo) Create(ctx context.Context, j *entity.TrainingJob) error {
	r.jobs[j.ID] = j
	return nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id string) (*entity.TrainingJob, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, domain.NewNotFoundError("training job", id)
	}
	copied := *j
	return &copied, nil
}

func (r *fakeJobRepo) Update(ctx context.Context, j *entity.TrainingJob) error {
	r.jobs[j.ID] = j
	return nil
}

func (r *fakeJobRepo) UpdateProgress(ctx context.Context, id string, progress int, step string, at time.Time) error {
	j, ok := r.jobs[id]
	if !ok {
		return domain.NewNotFoundError("training job", id)
	}
	if progress > j.Progress {
		j.Progress = progress
	}
	j.CurrentStep = step
	j.HeartbeatAt = &at
	return nil
}

func (r *fakeJobRepo) List(ctx context.Context, f domain.TrainingJobFilter) ([]*entity.TrainingJob, int64, error) {
	return nil, 0, nil
}

func (r *fakeJobRepo) ListStale(ctx context.Context, cutoff time.Time) ([]*entity.TrainingJob, error) {
	return nil, nil
}

type fakeModelRepo struct {
	models []*entity.Model
}

func (r *fakeModelRepo) Create(ctx context.Context, m *entity.Model) error {
	m.ID = fmt.Sprintf("model-%d", len(r.models)+1)
	r.models = append(r.models, m)
	return nil
}

func (r *fakeModelRepo) GetByID(ctx context.Context, id string) (*entity.Model, error) {
	for _, m := range r.models {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, domain.NewNotFoundError("model", id)
}

func (r *fakeModelRepo) Update(ctx context.Context, m *entity.Model) error { return nil }

func (r *fakeModelRepo) NextVersion(ctx context.Context, pipelineID string) (int, error) {
	next := 1
	for _, m := range r.models {
		if m.PipelineID == pipelineID && m.Version >= next {
			next = m.Version + 1
		}
	}
	return next, nil
}

func (r *fakeModelRepo) PromoteProduction(ctx context.Context, pipelineID, modelID string, at time.Time) error {
	return nil
}

func (r *fakeModelRepo) List(ctx context.Context, f domain.ModelFilter) ([]*entity.Model, int64, error) {
	return nil, 0, nil
}

type fakeRunRepo struct {
	runs []*entity.ExperimentRun
}

func (r *fakeRunRepo) Create(ctx context.Context, run *entity.ExperimentRun) error {
	run.ID = fmt.Sprintf("run-%d", len(r.runs)+1)
	r.runs = append(r.runs, run)
	return nil
}

func (r *fakeRunRepo) Update(ctx context.Context, run *entity.ExperimentRun) error { return nil }

func (r *fakeRunRepo) ListByJob(ctx context.Context, trainingJobID string) ([]*entity.ExperimentRun, error) {
	var out []*entity.ExperimentRun
	for _, run := range r.runs {
		if run.TrainingJobID == trainingJobID {
			out = append(out, run)
		}
	}
	return out, nil
}

type fakeStore struct {
	objects map[string][]byte
}

func (s *fakeStore) PresignedPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	return "https://storage.test/put/" + key, nil
}

func (s *fakeStore) PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://storage.test/get/" + key, nil
}

func (s *fakeStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, domain.NewNotFoundError("object", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStore) Stat(ctx context.Context, key string) (int64, string, error) {
	data, ok := s.objects[key]
	if !ok {
		return 0, "", domain.NewNotFoundError("object", key)
	}
	return int64(len(data)), "etag", nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }

type fakeInsightAgent struct{}

func (a *fakeInsightAgent) SummarizeInsights(ctx context.Context, insights []entity.EDAInsight) (string, error) {
	return rules.SummarizeInsights(insights), nil
}

// ---- fixtures ----

type fixture struct {
	worker   *Worker
	datasets *fakeDatasetRepo
	reports  *fakeEDARepo
	jobs     *fakeJobRepo
	models   *fakeModelRepo
	runs     *fakeRunRepo
	store    *fakeStore
}

func newFixture(thresholdBytes int64) *fixture {
	f := &fixture{
		datasets: &fakeDatasetRepo{datasets: map[string]*entity.Dataset{}},
		reports:  &fakeEDARepo{reports: map[string]*entity.EDAReport{}},
		jobs:     &fakeJobRepo{jobs: map[string]*entity.TrainingJob{}},
		models:   &fakeModelRepo{},
		runs:     &fakeRunRepo{},
		store:    &fakeStore{objects: map[string][]byte{}},
	}
	cfg := config.StorageConfig{
		Bucket:                  "pipeweave-test",
		EDAReportThresholdBytes: thresholdBytes,
		MaxDatasetSizeBytes:     1 << 20,
	}
	f.worker = New(f.datasets, f.reports, f.jobs, f.models, f.runs, f.store,
		&fakeInsightAgent{}, cfg, slog.New(slog.DiscardHandler))
	return f
}

func (f *fixture) seedDataset(id string, status entity.DatasetStatus, csv string) *entity.Dataset {
	ds := &entity.Dataset{
		ID:       id,
		UserID:   "user-1",
		Name:     "test data",
		S3KeyRaw: "datasets/user-1/" + id + "/raw/data.csv",
		Status:   status,
	}
	f.datasets.datasets[id] = ds
	if csv != "" {
		f.store.objects[ds.S3KeyRaw] = []byte(csv)
	}
	return ds
}

const validCSV = "age,city,label\n" +
	"23,Lisbon,yes\n34,Porto,no\n29,Faro,yes\n41,Lisbon,no\n37,Porto,yes\n" +
	"52,Faro,no\n26,Lisbon,yes\n48,Porto,no\n31,Faro,yes\n44,Lisbon,no\n"

// ---- dataset validation ----

func TestHandleDatasetValidate(t *testing.T) {
	f := newFixture(1 << 20)
	f.seedDataset("ds-1", entity.DatasetUploaded, validCSV)

	task, err := queue.NewDatasetValidateTask("ds-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.worker.HandleDatasetValidate(context.Background(), task); err != nil {
		t.Fatalf("HandleDatasetValidate: %v", err)
	}

	ds := f.datasets.datasets["ds-1"]
	if ds.Status != entity.DatasetValidated {
		t.Fatalf("status = %s, want validated", ds.Status)
	}
	if ds.NumRows == nil || *ds.NumRows != 10 {
		t.Errorf("num_rows = %v, want 10", ds.NumRows)
	}
	if ds.NumColumns == nil || *ds.NumColumns != 3 {
		t.Errorf("num_columns = %v, want 3", ds.NumColumns)
	}
	if len(ds.ColumnNames) != 3 || ds.ColumnNames[0] != "age" {
		t.Errorf("column_names = %v", ds.ColumnNames)
	}
}

func TestHandleDatasetValidateFailures(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		wantCode string
	}{
		{"ragged rows", "a,b\n1,2\n3\n", "parse_error"},
		{"header only", "a,b\n", "empty_dataset"},
		{"duplicate header", "a,a\n1,2\n", "parse_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(1 << 20)
			f.seedDataset("ds-1", entity.DatasetUploaded, tt.csv)

			task, _ := queue.NewDatasetValidateTask("ds-1")
			if err := f.worker.HandleDatasetValidate(context.Background(), task); err != nil {
				t.Fatalf("HandleDatasetValidate: %v", err)
			}

			ds := f.datasets.datasets["ds-1"]
			if ds.Status != entity.DatasetFailed {
				t.Fatalf("status = %s, want failed", ds.Status)
			}
			if len(ds.ValidationError) != 1 || ds.ValidationError[0].Code != tt.wantCode {
				t.Errorf("validation_errors = %+v, want code %s", ds.ValidationError, tt.wantCode)
			}
		})
	}
}

func TestHandleDatasetValidateSkipsTerminal(t *testing.T) {
	f := newFixture(1 << 20)
	f.seedDataset("ds-1", entity.DatasetValidated, validCSV)

	task, _ := queue.NewDatasetValidateTask("ds-1")
	if err := f.worker.HandleDatasetValidate(context.Background(), task); err != nil {
		t.Fatalf("HandleDatasetValidate: %v", err)
	}
	if f.datasets.datasets["ds-1"].Status != entity.DatasetValidated {
		t.Error("terminal dataset should be left alone")
	}
}

// ---- eda generation ----

func seedReport(f *fixture, id, datasetID string) *entity.EDAReport {
	rep := &entity.EDAReport{
		ID:        id,
		DatasetID: datasetID,
		UserID:    "user-1",
		Status:    entity.EDAQueued,
	}
	f.reports.reports[id] = rep
	return rep
}

func TestHandleEDAGenerate(t *testing.T) {
	f := newFixture(1 << 20)
	f.seedDataset("ds-1", entity.DatasetValidated, validCSV)
	seedReport(f, "rep-1", "ds-1")

	task, _ := queue.NewEDAGenerateTask("rep-1")
	if err := f.worker.HandleEDAGenerate(context.Background(), task); err != nil {
		t.Fatalf("HandleEDAGenerate: %v", err)
	}

	rep := f.reports.reports["rep-1"]
	if rep.Status != entity.EDACompleted {
		t.Fatalf("status = %s, want completed", rep.Status)
	}
	if rep.StorageLocation != entity.StoragePostgres {
		t.Errorf("storage_location = %s, want postgres", rep.StorageLocation)
	}
	if rep.FullReport == nil {
		t.Fatal("full report missing for postgres storage")
	}
	if rep.Summary == nil || rep.Summary.NumRows != 10 || rep.Summary.NumColumns != 3 {
		t.Errorf("summary = %+v", rep.Summary)
	}
	if rep.GenerationSeconds == nil {
		t.Error("generation time not recorded")
	}
	if len(rep.FullReport.Columns) != 3 {
		t.Fatalf("profiled %d columns, want 3", len(rep.FullReport.Columns))
	}
	age := rep.FullReport.Columns[0]
	if age.Type != "numeric" || age.Mean == nil {
		t.Errorf("age profile = %+v", age)
	}
}

func TestHandleEDAGenerateOversizedGoesToS3(t *testing.T) {
	f := newFixture(1) // force the S3 path
	f.seedDataset("ds-1", entity.DatasetValidated, validCSV)
	seedReport(f, "rep-1", "ds-1")

	task, _ := queue.NewEDAGenerateTask("rep-1")
	if err := f.worker.HandleEDAGenerate(context.Background(), task); err != nil {
		t.Fatalf("HandleEDAGenerate: %v", err)
	}

	rep := f.reports.reports["rep-1"]
	if rep.StorageLocation != entity.StorageS3 {
		t.Fatalf("storage_location = %s, want s3", rep.StorageLocation)
	}
	if rep.FullReport != nil {
		t.Error("full report should not be stored inline on the s3 path")
	}
	wantKey := domain.EDAReportKey("user-1", "rep-1")
	if rep.S3Key != wantKey {
		t.Errorf("s3_key = %s, want %s", rep.S3Key, wantKey)
	}
	if _, ok := f.store.objects[wantKey]; !ok {
		t.Error("report body not uploaded")
	}
}

func TestHandleEDAGenerateUnparseable(t *testing.T) {
	f := newFixture(1 << 20)
	f.seedDataset("ds-1", entity.DatasetValidated, "a,b\n1\n")
	seedReport(f, "rep-1", "ds-1")

	task, _ := queue.NewEDAGenerateTask("rep-1")
	if err := f.worker.HandleEDAGenerate(context.Background(), task); err != nil {
		t.Fatalf("HandleEDAGenerate: %v", err)
	}

	rep := f.reports.reports["rep-1"]
	if rep.Status != entity.EDAFailed {
		t.Fatalf("status = %s, want failed", rep.Status)
	}
	if rep.ErrorMessage == "" {
		t.Error("error message not recorded")
	}
}

// ---- training ----

func seedJob(f *fixture, id string, status entity.JobStatus) *entity.TrainingJob {
	hp := entity.DefaultHyperparameters()
	hp.NEstimators = 5
	job := &entity.TrainingJob{
		ID:         id,
		PipelineID: "pipe-1",
		UserID:     "user-1",
		DatasetID:  "ds-1",
		Status:     status,
		Snapshot: entity.PipelineSnapshot{
			Config: entity.PipelineConfig{
				TargetColumn: "label",
				TaskType:     "classification",
			},
			Hyperparameters: hp,
		},
	}
	f.jobs.jobs[id] = job
	return job
}

func TestHandleTrainingRun(t *testing.T) {
	f := newFixture(1 << 20)
	f.seedDataset("ds-1", entity.DatasetValidated, validCSV)
	seedJob(f, "job-1", entity.JobQueued)

	task, _ := queue.NewTrainingRunTask("job-1")
	if err := f.worker.HandleTrainingRun(context.Background(), task); err != nil {
		t.Fatalf("HandleTrainingRun: %v", err)
	}

	job := f.jobs.jobs["job-1"]
	if job.Status != entity.JobCompleted {
		t.Fatalf("status = %s (%s), want completed", job.Status, job.ErrorMessage)
	}
	if job.Progress != 100 || job.CurrentStep != "done" {
		t.Errorf("progress = %d step = %q", job.Progress, job.CurrentStep)
	}
	if job.StartedAt == nil || job.CompletedAt == nil || job.DurationSeconds == nil {
		t.Error("timing fields not recorded")
	}

	if len(f.models.models) != 1 {
		t.Fatalf("recorded %d models, want 1", len(f.models.models))
	}
	m := f.models.models[0]
	if m.ModelType != "random_forest_classifier" || m.Version != 1 {
		t.Errorf("model = %+v", m)
	}
	if len(m.ArtifactChecksum) != 64 {
		t.Errorf("checksum = %q, want 64 hex chars", m.ArtifactChecksum)
	}
	if _, ok := m.Metrics["accuracy"]; !ok {
		t.Errorf("metrics = %v, want accuracy", m.Metrics)
	}

	for _, key := range []string{
		domain.ModelArtifactKey("user-1", "job-1"),
		domain.ModelConfigKey("user-1", "job-1"),
		domain.ModelMetadataKey("user-1", "job-1"),
	} {
		if _, ok := f.store.objects[key]; !ok {
			t.Errorf("artifact %s not uploaded", key)
		}
	}

	if len(f.runs.runs) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(f.runs.runs))
	}
	run := f.runs.runs[0]
	if run.Status != entity.RunCompleted || run.RunNumber != 1 {
		t.Errorf("run = %+v", run)
	}
	if _, ok := run.Metrics["accuracy"]; !ok {
		t.Errorf("run metrics = %v, want accuracy", run.Metrics)
	}
	if run.TrainingSeconds < 0 {
		t.Errorf("run training_seconds = %v", run.TrainingSeconds)
	}
}

func TestHandleTrainingRunRetryAppendsRun(t *testing.T) {
	f := newFixture(1 << 20)
	f.seedDataset("ds-1", entity.DatasetValidated, validCSV)
	seedJob(f, "job-1", entity.JobQueued)

	// A run row left behind by an earlier attempt of the same job must not
	// collide on (training_job_id, run_number).
	f.runs.runs = append(f.runs.runs, &entity.ExperimentRun{
		ID:            "run-stale",
		TrainingJobID: "job-1",
		UserID:        "user-1",
		RunNumber:     1,
		Status:        entity.RunFailed,
	})

	task, _ := queue.NewTrainingRunTask("job-1")
	if err := f.worker.HandleTrainingRun(context.Background(), task); err != nil {
		t.Fatalf("HandleTrainingRun: %v", err)
	}

	if len(f.runs.runs) != 2 {
		t.Fatalf("recorded %d runs, want 2", len(f.runs.runs))
	}
	latest := f.runs.runs[1]
	if latest.RunNumber != 2 {
		t.Errorf("run_number = %d, want 2", latest.RunNumber)
	}
	if latest.Status != entity.RunCompleted {
		t.Errorf("status = %s, want completed", latest.Status)
	}
}

func TestHandleTrainingRunRegression(t *testing.T) {
	csv := "x1,x2,target\n"
	for i := 1; i <= 12; i++ {
		csv += fmt.Sprintf("%d,%d,%d\n", i, i*2, i*3+1)
	}

	f := newFixture(1 << 20)
	f.seedDataset("ds-1", entity.DatasetValidated, csv)
	job := seedJob(f, "job-1", entity.JobQueued)
	job.Snapshot.Config.TargetColumn = "target"
	job.Snapshot.Config.TaskType = "regression"

	task, _ := queue.NewTrainingRunTask("job-1")
	if err := f.worker.HandleTrainingRun(context.Background(), task); err != nil {
		t.Fatalf("HandleTrainingRun: %v", err)
	}

	got := f.jobs.jobs["job-1"]
	if got.Status != entity.JobCompleted {
		t.Fatalf("status = %s (%s), want completed", got.Status, got.ErrorMessage)
	}
	m := f.models.models[0]
	if m.ModelType != "random_forest_regressor" {
		t.Errorf("model_type = %s", m.ModelType)
	}
	for _, name := range []string{"mae", "rmse", "r2"} {
		if _, ok := m.Metrics[name]; !ok {
			t.Errorf("metrics = %v, missing %s", m.Metrics, name)
		}
	}
}

func TestHandleTrainingRunSkipsCancelled(t *testing.T) {
	f := newFixture(1 << 20)
	f.seedDataset("ds-1", entity.DatasetValidated, validCSV)
	seedJob(f, "job-1", entity.JobCancelled)

	task, _ := queue.NewTrainingRunTask("job-1")
	if err := f.worker.HandleTrainingRun(context.Background(), task); err != nil {
		t.Fatalf("HandleTrainingRun: %v", err)
	}

	if f.jobs.jobs["job-1"].Status != entity.JobCancelled {
		t.Error("cancelled job should stay cancelled")
	}
	if len(f.models.models) != 0 {
		t.Error("cancelled job should not produce a model")
	}
}

func TestHandleTrainingRunFailureRecorded(t *testing.T) {
	f := newFixture(1 << 20)
	// Dataset record exists but the object was never uploaded.
	f.seedDataset("ds-1", entity.DatasetValidated, "")
	seedJob(f, "job-1", entity.JobQueued)

	task, _ := queue.NewTrainingRunTask("job-1")
	err := f.worker.HandleTrainingRun(context.Background(), task)
	if err == nil {
		t.Fatal("expected error for missing dataset object")
	}

	job := f.jobs.jobs["job-1"]
	if job.Status != entity.JobFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if !strings.Contains(job.ErrorMessage, "failed to fetch dataset") {
		t.Errorf("error_message = %q", job.ErrorMessage)
	}
}
