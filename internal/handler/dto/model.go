package dto

import (
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// ModelResponse is the public model shape.
type ModelResponse struct {
	ID                string             `json:"id"`
	TrainingJobID     string             `json:"training_job_id"`
	PipelineID        string             `json:"pipeline_id"`
	Name              string             `json:"name"`
	ModelType         string             `json:"model_type"`
	FrameworkVersion  string             `json:"framework_version,omitempty"`
	Version           int                `json:"version"`
	IsProduction      bool               `json:"is_production"`
	Metrics           map[string]float64 `json:"metrics,omitempty"`
	ArtifactSizeBytes int64              `json:"artifact_size_bytes"`
	ArtifactChecksum  string             `json:"artifact_checksum,omitempty"`
	DeployedAt        *string            `json:"deployed_at,omitempty"`
	CreatedAt         string             `json:"created_at"`
}

// ModelListResponse is the paginated model list.
type ModelListResponse struct {
	Models     []*ModelResponse `json:"models"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// ToModelResponse converts a model entity.
func ToModelResponse(m *entity.Model) *ModelResponse {
	return &ModelResponse{
		ID:                m.ID,
		TrainingJobID:     m.TrainingJobID,
		PipelineID:        m.PipelineID,
		Name:              m.Name,
		ModelType:         m.ModelType,
		FrameworkVersion:  m.FrameworkVersion,
		Version:           m.Version,
		IsProduction:      m.IsProduction,
		Metrics:           m.Metrics,
		ArtifactSizeBytes: m.ArtifactSizeBytes,
		ArtifactChecksum:  m.ArtifactChecksum,
		DeployedAt:        formatTimePtr(m.DeployedAt),
		CreatedAt:         m.CreatedAt.Format(time.RFC3339),
	}
}

// ToModelListResponse converts a page of models.
func ToModelListResponse(models []*entity.Model, total int64, page, pageSize int) *ModelListResponse {
	out := make([]*ModelResponse, len(models))
	for i, m := range models {
		out[i] = ToModelResponse(m)
	}
	return &ModelListResponse{
		Models:     out,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}
}
