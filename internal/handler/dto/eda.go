package dto

import (
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// EDAReportResponse is the tracked report without the body.
type EDAReportResponse struct {
	ID                string             `json:"id"`
	DatasetID         string             `json:"dataset_id"`
	Status            string             `json:"status"`
	Summary           *entity.EDASummary `json:"summary,omitempty"`
	StorageLocation   string             `json:"storage_location"`
	ReportSizeBytes   int64              `json:"report_size_bytes,omitempty"`
	ReportVersion     string             `json:"report_version,omitempty"`
	GenerationSeconds *float64           `json:"generation_seconds,omitempty"`
	ErrorMessage      string             `json:"error_message,omitempty"`
	CreatedAt         string             `json:"created_at"`
}

// ToEDAReportResponse converts a report entity.
func ToEDAReportResponse(r *entity.EDAReport) *EDAReportResponse {
	return &EDAReportResponse{
		ID:                r.ID,
		DatasetID:         r.DatasetID,
		Status:            string(r.Status),
		Summary:           r.Summary,
		StorageLocation:   string(r.StorageLocation),
		ReportSizeBytes:   r.ReportSizeBytes,
		ReportVersion:     r.ReportVersion,
		GenerationSeconds: r.GenerationSeconds,
		ErrorMessage:      r.ErrorMessage,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
}
