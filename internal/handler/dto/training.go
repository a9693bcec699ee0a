package dto

import (
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// SubmitTrainingRequest queues a training run.
type SubmitTrainingRequest struct {
	PipelineID      string                  `json:"pipeline_id" binding:"required"`
	Hyperparameters *entity.Hyperparameters `json:"hyperparameters"`
	Priority        int                     `json:"priority"`
}

// TrainingJobResponse is the public job shape.
type TrainingJobResponse struct {
	ID              string                 `json:"id"`
	PipelineID      string                 `json:"pipeline_id"`
	DatasetID       string                 `json:"dataset_id"`
	Status          string                 `json:"status"`
	Progress        int                    `json:"progress"`
	CurrentStep     string                 `json:"current_step,omitempty"`
	Hyperparameters entity.Hyperparameters `json:"hyperparameters"`
	Priority        int                    `json:"priority"`
	StartedAt       *string                `json:"started_at,omitempty"`
	CompletedAt     *string                `json:"completed_at,omitempty"`
	DurationSeconds *float64               `json:"duration_seconds,omitempty"`
	ErrorMessage    string                 `json:"error_message,omitempty"`
	CreatedAt       string                 `json:"created_at"`
}

// TrainingJobListResponse is the paginated job list.
type TrainingJobListResponse struct {
	Jobs       []*TrainingJobResponse `json:"jobs"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalPages int                    `json:"total_pages"`
}

// JobProgressEvent is one SSE frame of the progress stream.
type JobProgressEvent struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"current_step,omitempty"`
}

// ExperimentRunResponse is the public run shape.
type ExperimentRunResponse struct {
	ID              string                 `json:"id"`
	TrainingJobID   string                 `json:"training_job_id"`
	RunNumber       int                    `json:"run_number"`
	Status          string                 `json:"status"`
	Hyperparameters entity.Hyperparameters `json:"hyperparameters"`
	Metrics         map[string]float64     `json:"metrics,omitempty"`
	TrainingSeconds float64                `json:"training_seconds"`
	CreatedAt       string                 `json:"created_at"`
}

// ToTrainingJobResponse converts a job entity.
func ToTrainingJobResponse(j *entity.TrainingJob) *TrainingJobResponse {
	return &TrainingJobResponse{
		ID:              j.ID,
		PipelineID:      j.PipelineID,
		DatasetID:       j.DatasetID,
		Status:          string(j.Status),
		Progress:        j.Progress,
		CurrentStep:     j.CurrentStep,
		Hyperparameters: j.Snapshot.Hyperparameters,
		Priority:        j.Priority,
		StartedAt:       formatTimePtr(j.StartedAt),
		CompletedAt:     formatTimePtr(j.CompletedAt),
		DurationSeconds: j.DurationSeconds,
		ErrorMessage:    j.ErrorMessage,
		CreatedAt:       j.CreatedAt.Format(time.RFC3339),
	}
}

// ToTrainingJobListResponse converts a page of jobs.
func ToTrainingJobListResponse(jobs []*entity.TrainingJob, total int64, page, pageSize int) *TrainingJobListResponse {
	out := make([]*TrainingJobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = ToTrainingJobResponse(j)
	}
	return &TrainingJobListResponse{
		Jobs:       out,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}
}

// ToExperimentRunResponses converts a job's run history.
func ToExperimentRunResponses(runs []*entity.ExperimentRun) []*ExperimentRunResponse {
	out := make([]*ExperimentRunResponse, len(runs))
	for i, r := range runs {
		out[i] = &ExperimentRunResponse{
			ID:              r.ID,
			TrainingJobID:   r.TrainingJobID,
			RunNumber:       r.RunNumber,
			Status:          string(r.Status),
			Hyperparameters: r.Hyperparameters,
			Metrics:         r.Metrics,
			TrainingSeconds: r.TrainingSeconds,
			CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		}
	}
	return out
}
