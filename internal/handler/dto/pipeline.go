package dto

import (
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// CreatePipelineRequest stores a hand-built draft.
type CreatePipelineRequest struct {
	DatasetID   string                `json:"dataset_id" binding:"required"`
	Name        string                `json:"name" binding:"required,max=255"`
	Description string                `json:"description"`
	Config      entity.PipelineConfig `json:"config" binding:"required"`
}

// RecommendPipelineRequest asks the agent to build a draft.
type RecommendPipelineRequest struct {
	DatasetID    string `json:"dataset_id" binding:"required"`
	TargetColumn string `json:"target_column" binding:"required"`
}

// UpdatePipelineRequest mutates a draft. Nil means unchanged.
type UpdatePipelineRequest struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Config      *entity.PipelineConfig `json:"config"`
}

// PipelineResponse is the public pipeline shape.
type PipelineResponse struct {
	ID          string                `json:"id"`
	DatasetID   string                `json:"dataset_id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Config      entity.PipelineConfig `json:"config"`
	Version     int                   `json:"version"`
	Status      string                `json:"status"`
	ValidatedAt *string               `json:"validated_at,omitempty"`
	CreatedAt   string                `json:"created_at"`
	UpdatedAt   string                `json:"updated_at"`
}

// PipelineListResponse is the paginated pipeline list.
type PipelineListResponse struct {
	Pipelines  []*PipelineResponse `json:"pipelines"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// ToPipelineResponse converts a pipeline entity.
func ToPipelineResponse(p *entity.Pipeline) *PipelineResponse {
	return &PipelineResponse{
		ID:          p.ID,
		DatasetID:   p.DatasetID,
		Name:        p.Name,
		Description: p.Description,
		Config:      p.Config,
		Version:     p.Version,
		Status:      string(p.Status),
		ValidatedAt: formatTimePtr(p.ValidatedAt),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

// ToPipelineListResponse converts a page of pipelines.
func ToPipelineListResponse(pipelines []*entity.Pipeline, total int64, page, pageSize int) *PipelineListResponse {
	out := make([]*PipelineResponse, len(pipelines))
	for i, p := range pipelines {
		out[i] = ToPipelineResponse(p)
	}
	return &PipelineListResponse{
		Pipelines:  out,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}
}
