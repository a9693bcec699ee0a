package dto

import (
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// SchemaOverrideRequest changes one column's type before acceptance.
type SchemaOverrideRequest struct {
	Column string `json:"column" binding:"required"`
	Type   string `json:"type" binding:"required"`
}

// AcceptSchemaRequest is the accept payload.
type AcceptSchemaRequest struct {
	Overrides []SchemaOverrideRequest `json:"overrides"`
}

// RejectSchemaRequest is the reject payload.
type RejectSchemaRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SchemaDeductionResponse is the public deduction shape.
type SchemaDeductionResponse struct {
	ID              string                  `json:"id"`
	DatasetID       string                  `json:"dataset_id"`
	Status          string                  `json:"status"`
	ProposedSchema  []entity.ColumnSchema   `json:"proposed_schema"`
	ColumnMetadata  []entity.ColumnMetadata `json:"column_metadata,omitempty"`
	ConfidenceScore float64                 `json:"confidence_score"`
	AgentVersion    string                  `json:"agent_version"`
	RejectionReason string                  `json:"rejection_reason,omitempty"`
	CreatedAt       string                  `json:"created_at"`
}

// SchemaDeductionListResponse is the per-dataset deduction history.
type SchemaDeductionListResponse struct {
	Deductions []*SchemaDeductionResponse `json:"deductions"`
	Total      int64                      `json:"total"`
}

// ToSchemaDeductionResponse converts a deduction entity.
func ToSchemaDeductionResponse(sd *entity.SchemaDeduction) *SchemaDeductionResponse {
	return &SchemaDeductionResponse{
		ID:              sd.ID,
		DatasetID:       sd.DatasetID,
		Status:          string(sd.Status),
		ProposedSchema:  sd.ProposedSchema,
		ColumnMetadata:  sd.ColumnMetadata,
		ConfidenceScore: sd.ConfidenceScore,
		AgentVersion:    sd.AgentVersion,
		RejectionReason: sd.RejectionReason,
		CreatedAt:       sd.CreatedAt.Format(time.RFC3339),
	}
}

// ToSchemaDeductionListResponse converts a deduction history.
func ToSchemaDeductionListResponse(deductions []*entity.SchemaDeduction, total int64) *SchemaDeductionListResponse {
	out := make([]*SchemaDeductionResponse, len(deductions))
	for i, sd := range deductions {
		out[i] = ToSchemaDeductionResponse(sd)
	}
	return &SchemaDeductionListResponse{Deductions: out, Total: total}
}
