package entity

import "time"

// RunStatus tracks an experiment run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ExperimentRun records one training execution under a job, MLflow-style.
type ExperimentRun struct {
	ID              string
	TrainingJobID   string
	UserID          string
	RunNumber       int
	Hyperparameters Hyperparameters
	Metrics         map[string]float64
	TrainingSeconds float64
	Status          RunStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
