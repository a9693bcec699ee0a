package entity

import "time"

// JobStatus tracks a training job through its lifecycle.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Hyperparameters are the Random-Forest knobs snapshotted onto a job.
type Hyperparameters struct {
	NEstimators     int     `json:"n_estimators"`
	MaxDepth        int     `json:"max_depth"` // 0 means unlimited
	MinSamplesSplit int     `json:"min_samples_split"`
	MinSamplesLeaf  int     `json:"min_samples_leaf"`
	TestSize        float64 `json:"test_size"`
	RandomState     int64   `json:"random_state"`
}

// DefaultHyperparameters mirrors the fixed trainer defaults.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		NEstimators:     100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		TestSize:        0.2,
		RandomState:     42,
	}
}

// PipelineSnapshot freezes the pipeline config and hyperparameters at submit time.
type PipelineSnapshot struct {
	Config          PipelineConfig  `json:"config"`
	Hyperparameters Hyperparameters `json:"hyperparameters"`
}

// TrainingJob is an asynchronous Random-Forest training run.
type TrainingJob struct {
	ID              string
	PipelineID      string
	UserID          string
	DatasetID       string
	Snapshot        PipelineSnapshot
	Status          JobStatus
	Progress        int
	CurrentStep     string
	StartedAt       *time.Time
	CompletedAt     *time.Time
	HeartbeatAt     *time.Time
	DurationSeconds *float64
	TaskID          string
	Priority        int
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal reports whether the job can no longer change state.
func (j *TrainingJob) IsTerminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed || j.Status == JobCancelled
}
