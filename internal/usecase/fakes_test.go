package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// In-memory fakes shared by the usecase tests.

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ---- users ----

type fakeUserRepo struct {
	seq   int
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, domain.NewNotFoundError("user", id)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email && u.DeletedAt == nil {
			return u, nil
		}
	}
	return nil, domain.NewNotFoundError("user", email)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.NewNotFoundError("user", user.ID)
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.NewNotFoundError("user", id)
	}
	u.DeletedAt = &at
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, offset, limit int) ([]*entity.User, int64, error) {
	var out []*entity.User
	for _, u := range r.users {
		if u.DeletedAt == nil {
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

// ---- datasets ----

type fakeDatasetRepo struct {
	seq      int
	datasets map[string]*entity.Dataset
}

func newFakeDatasetRepo() *fakeDatasetRepo {
	return &fakeDatasetRepo{datasets: make(map[string]*entity.Dataset)}
}

func (r *fakeDatasetRepo) Create(ctx context.Context, ds *entity.Dataset) error {
	r.seq++
	ds.ID = fmt.Sprintf("ds-%d", r.seq)
	ds.CreatedAt = time.Now()
	ds.UpdatedAt = ds.CreatedAt
	r.datasets[ds.ID] = ds
	return nil
}

func (r *fakeDatasetRepo) GetByID(ctx context.Context, id string) (*entity.Dataset, error) {
	ds, ok := r.datasets[id]
	if !ok || ds.DeletedAt != nil {
		return nil, domain.NewNotFoundError("dataset", id)
	}
	return ds, nil
}

func (r *fakeDatasetRepo) Update(ctx context.Context, ds *entity.Dataset) error {
	if _, ok := r.datasets[ds.ID]; !ok {
		return domain.NewNotFoundError("dataset", ds.ID)
	}
	r.datasets[ds.ID] = ds
	return nil
}

func (r *fakeDatasetRepo) UpdateStatus(ctx context.Context, id string, from, to entity.DatasetStatus) error {
	ds, ok := r.datasets[id]
	if !ok || ds.DeletedAt != nil {
		return domain.NewNotFoundError("dataset", id)
	}
	if ds.Status != from {
		return domain.NewConflictError(fmt.Sprintf("dataset is %s, expected %s", ds.Status, from))
	}
	ds.Status = to
	return nil
}

func (r *fakeDatasetRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	ds, ok := r.datasets[id]
	if !ok {
		return domain.NewNotFoundError("dataset", id)
	}
	ds.DeletedAt = &at
	return nil
}

func (r *fakeDatasetRepo) List(ctx context.Context, f domain.DatasetFilter) ([]*entity.Dataset, int64, error) {
	var out []*entity.Dataset
	for _, ds := range r.datasets {
		if ds.DeletedAt != nil {
			continue
		}
		if f.UserID != "" && ds.UserID != f.UserID {
			continue
		}
		if f.Status != "" && ds.Status != f.Status {
			continue
		}
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// ---- schema deductions ----

type fakeSchemaRepo struct {
	seq        int
	deductions map[string]*entity.SchemaDeduction
}

func newFakeSchemaRepo() *fakeSchemaRepo {
	return &fakeSchemaRepo{deductions: make(map[string]*entity.SchemaDeduction)}
}

func (r *fakeSchemaRepo) Create(ctx context.Context, sd *entity.SchemaDeduction) error {
	r.seq++
	sd.ID = fmt.Sprintf("sd-%d", r.seq)
	sd.CreatedAt = time.Now()
	r.deductions[sd.ID] = sd
	return nil
}

func (r *fakeSchemaRepo) GetByID(ctx context.Context, id string) (*entity.SchemaDeduction, error) {
	sd, ok := r.deductions[id]
	if !ok {
		return nil, domain.NewNotFoundError("schema deduction", id)
	}
	return sd, nil
}

func (r *fakeSchemaRepo) GetLatestByDataset(ctx context.Context, datasetID string) (*entity.SchemaDeduction, error) {
	var latest *entity.SchemaDeduction
	for _, sd := range r.deductions {
		if sd.DatasetID != datasetID {
			continue
		}
		if latest == nil || sd.ID > latest.ID {
			latest = sd
		}
	}
	if latest == nil {
		return nil, domain.NewNotFoundError("schema deduction", datasetID)
	}
	return latest, nil
}

func (r *fakeSchemaRepo) Update(ctx context.Context, sd *entity.SchemaDeduction) error {
	if _, ok := r.deductions[sd.ID]; !ok {
		return domain.NewNotFoundError("schema deduction", sd.ID)
	}
	r.deductions[sd.ID] = sd
	return nil
}

func (r *fakeSchemaRepo) SupersedeByDataset(ctx context.Context, datasetID string) error {
	for _, sd := range r.deductions {
		if sd.DatasetID == datasetID && sd.Status == entity.SchemaAccepted {
			sd.Status = entity.SchemaSuperseded
		}
	}
	return nil
}

func (r *fakeSchemaRepo) ListByDataset(ctx context.Context, datasetID string, offset, limit int) ([]*entity.SchemaDeduction, int64, error) {
	var out []*entity.SchemaDeduction
	for _, sd := range r.deductions {
		if sd.DatasetID == datasetID {
			out = append(out, sd)
		}
	}
	return out, int64(len(out)), nil
}

// ---- eda reports ----

type fakeEDARepo struct {
	seq     int
	reports map[string]*entity.EDAReport
}

func newFakeEDARepo() *fakeEDARepo {
	return &fakeEDARepo{reports: make(map[string]*entity.EDAReport)}
}

func (r *fakeEDARepo) Create(ctx context.Context, report *entity.EDAReport) error {
	r.seq++
	report.ID = fmt.Sprintf("eda-%d", r.seq)
	report.CreatedAt = time.Now()
	r.reports[report.ID] = report
	return nil
}

func (r *fakeEDARepo) GetByID(ctx context.Context, id string) (*entity.EDAReport, error) {
	report, ok := r.reports[id]
	if !ok {
		return nil, domain.NewNotFoundError("eda report", id)
	}
	return report, nil
}

func (r *fakeEDARepo) GetLatestByDataset(ctx context.Context, datasetID string) (*entity.EDAReport, error) {
	var latest *entity.EDAReport
	for _, report := range r.reports {
		if report.DatasetID != datasetID {
			continue
		}
		if latest == nil || report.ID > latest.ID {
			latest = report
		}
	}
	if latest == nil {
		return nil, domain.NewNotFoundError("eda report", datasetID)
	}
	return latest, nil
}

func (r *fakeEDARepo) Update(ctx context.Context, report *entity.EDAReport) error {
	if _, ok := r.reports[report.ID]; !ok {
		return domain.NewNotFoundError("eda report", report.ID)
	}
	r.reports[report.ID] = report
	return nil
}

func (r *fakeEDARepo) ListByDataset(ctx context.Context, datasetID string, offset, limit int) ([]*entity.EDAReport, int64, error) {
	var out []*entity.EDAReport
	for _, report := range r.reports {
		if report.DatasetID == datasetID {
			out = append(out, report)
		}
	}
	return out, int64(len(out)), nil
}

// ---- pipelines ----

type fakePipelineRepo struct {
	seq       int
	pipelines map[string]*entity.Pipeline
}

func newFakePipelineRepo() *fakePipelineRepo {
	return &fakePipelineRepo{pipelines: make(map[string]*entity.Pipeline)}
}

func (r *fakePipelineRepo) Create(ctx context.Context, p *entity.Pipeline) error {
	r.seq++
	p.ID = fmt.Sprintf("pl-%d", r.seq)
	p.CreatedAt = time.Now()
	r.pipelines[p.ID] = p
	return nil
}

func (r *fakePipelineRepo) GetByID(ctx context.Context, id string) (*entity.Pipeline, error) {
	p, ok := r.pipelines[id]
	if !ok || p.DeletedAt != nil {
		return nil, domain.NewNotFoundError("pipeline", id)
	}
	return p, nil
}

func (r *fakePipelineRepo) Update(ctx context.Context, p *entity.Pipeline) error {
	if _, ok := r.pipelines[p.ID]; !ok {
		return domain.NewNotFoundError("pipeline", p.ID)
	}
	r.pipelines[p.ID] = p
	return nil
}

func (r *fakePipelineRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	p, ok := r.pipelines[id]
	if !ok {
		return domain.NewNotFoundError("pipeline", id)
	}
	p.DeletedAt = &at
	return nil
}

func (r *fakePipelineRepo) List(ctx context.Context, f domain.PipelineFilter) ([]*entity.Pipeline, int64, error) {
	var out []*entity.Pipeline
	for _, p := range r.pipelines {
		if p.DeletedAt != nil {
			continue
		}
		if f.UserID != "" && p.UserID != f.UserID {
			continue
		}
		if f.DatasetID != "" && p.DatasetID != f.DatasetID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// ---- training jobs ----

type fakeJobRepo struct {
	seq  int
	jobs map[string]*entity.TrainingJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*entity.TrainingJob)}
}

func (r *fakeJobRepo) Create(ctx context.Context, j *entity.TrainingJob) error {
	r.seq++
	j.ID = fmt.Sprintf("job-%d", r.seq)
	j.CreatedAt = time.Now()
	r.jobs[j.ID] = j
	return nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id string) (*entity.TrainingJob, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, domain.NewNotFoundError("training job", id)
	}
	return j, nil
}

func (r *fakeJobRepo) Update(ctx context.Context, j *entity.TrainingJob) error {
	if _, ok := r.jobs[j.ID]; !ok {
		return domain.NewNotFoundError("training job", j.ID)
	}
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
	var out []*entity.TrainingJob
	for _, j := range r.jobs {
		if f.UserID != "" && j.UserID != f.UserID {
			continue
		}
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		out = append(out, j)
	}
	return out, int64(len(out)), nil
}

func (r *fakeJobRepo) ListStale(ctx context.Context, cutoff time.Time) ([]*entity.TrainingJob, error) {
	var out []*entity.TrainingJob
	for _, j := range r.jobs {
		if j.Status == entity.JobRunning && j.HeartbeatAt != nil && j.HeartbeatAt.Before(cutoff) {
			out = append(out, j)
		}
	}
	return out, nil
}

// ---- models and runs ----

type fakeModelRepo struct {
	seq    int
	models map[string]*entity.Model
}

func newFakeModelRepo() *fakeModelRepo {
	return &fakeModelRepo{models: make(map[string]*entity.Model)}
}

func (r *fakeModelRepo) Create(ctx context.Context, m *entity.Model) error {
	r.seq++
	m.ID = fmt.Sprintf("model-%d", r.seq)
	m.CreatedAt = time.Now()
	r.models[m.ID] = m
	return nil
}

func (r *fakeModelRepo) GetByID(ctx context.Context, id string) (*entity.Model, error) {
	m, ok := r.models[id]
	if !ok {
		return nil, domain.NewNotFoundError("model", id)
	}
	return m, nil
}

func (r *fakeModelRepo) Update(ctx context.Context, m *entity.Model) error {
	if _, ok := r.models[m.ID]; !ok {
		return domain.NewNotFoundError("model", m.ID)
	}
	r.models[m.ID] = m
	return nil
}

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
	target, ok := r.models[modelID]
	if !ok {
		return domain.NewNotFoundError("model", modelID)
	}
	for _, m := range r.models {
		if m.PipelineID == pipelineID {
			m.IsProduction = false
		}
	}
	target.IsProduction = true
	target.DeployedAt = &at
	return nil
}

func (r *fakeModelRepo) List(ctx context.Context, f domain.ModelFilter) ([]*entity.Model, int64, error) {
	var out []*entity.Model
	for _, m := range r.models {
		if f.UserID != "" && m.UserID != f.UserID {
			continue
		}
		if f.PipelineID != "" && m.PipelineID != f.PipelineID {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

type fakeRunRepo struct {
	seq  int
	runs map[string]*entity.ExperimentRun
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: make(map[string]*entity.ExperimentRun)}
}

func (r *fakeRunRepo) Create(ctx context.Context, run *entity.ExperimentRun) error {
	r.seq++
	run.ID = fmt.Sprintf("run-%d", r.seq)
	run.CreatedAt = time.Now()
	r.runs[run.ID] = run
	return nil
}

func (r *fakeRunRepo) Update(ctx context.Context, run *entity.ExperimentRun) error {
	if _, ok := r.runs[run.ID]; !ok {
		return domain.NewNotFoundError("experiment run", run.ID)
	}
	r.runs[run.ID] = run
	return nil
}

func (r *fakeRunRepo) ListByJob(ctx context.Context, trainingJobID string) ([]*entity.ExperimentRun, error) {
	var out []*entity.ExperimentRun
	for _, run := range r.runs {
		if run.TrainingJobID == trainingJobID {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunNumber < out[j].RunNumber })
	return out, nil
}

// ---- object store ----

type fakeStore struct {
	objects map[string][]byte
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
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
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }

// ---- task queue ----

type fakeQueue struct {
	seq        int
	validated  []string
	profiled   []string
	trained    []string
	priorities []int
	cancelled  []string
}

func newFakeQueue() *fakeQueue { return &fakeQueue{} }

func (q *fakeQueue) nextID() string {
	q.seq++
	return fmt.Sprintf("task-%d", q.seq)
}

func (q *fakeQueue) EnqueueDatasetValidation(ctx context.Context, datasetID string) (string, error) {
	q.validated = append(q.validated, datasetID)
	return q.nextID(), nil
}

func (q *fakeQueue) EnqueueEDAGeneration(ctx context.Context, reportID string) (string, error) {
	q.profiled = append(q.profiled, reportID)
	return q.nextID(), nil
}

func (q *fakeQueue) EnqueueTraining(ctx context.Context, jobID string, priority int) (string, error) {
	q.trained = append(q.trained, jobID)
	q.priorities = append(q.priorities, priority)
	return q.nextID(), nil
}

func (q *fakeQueue) CancelTask(ctx context.Context, taskID string) error {
	q.cancelled = append(q.cancelled, taskID)
	return nil
}

// ---- agents ----

type fakeSchemaAgent struct {
	err error
}

func (a *fakeSchemaAgent) DeduceSchema(ctx context.Context, meta []entity.ColumnMetadata) ([]entity.ColumnSchema, string, error) {
	if a.err != nil {
		return nil, "", a.err
	}
	schema := make([]entity.ColumnSchema, len(meta))
	for i, m := range meta {
		schema[i] = entity.ColumnSchema{
			Name:          m.Name,
			SuggestedType: "categorical",
			Confidence:    0.8,
			Reasoning:     "test",
		}
	}
	return schema, "schema-deduction/test", nil
}

type fakePipelineAgent struct {
	cfg entity.PipelineConfig
	err error
}

func (a *fakePipelineAgent) RecommendPipeline(ctx context.Context, schema []entity.ColumnSchema, profile []entity.ColumnProfile, targetColumn string) (entity.PipelineConfig, error) {
	if a.err != nil {
		return entity.PipelineConfig{}, a.err
	}
	return a.cfg, nil
}

func (a *fakePipelineAgent) DescribePlan(ctx context.Context, cfg entity.PipelineConfig) string {
	return "test plan"
}
