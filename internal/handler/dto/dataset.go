package dto

import (
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// CreateDatasetRequest starts an upload.
type CreateDatasetRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes" binding:"required"`
}

// UploadTicketResponse carries the record plus the presigned PUT URL.
type UploadTicketResponse struct {
	Dataset          *DatasetResponse `json:"dataset"`
	UploadURL        string           `json:"upload_url"`
	ExpiresInSeconds int              `json:"expires_in_seconds"`
}

// DatasetResponse is the public dataset shape.
type DatasetResponse struct {
	ID               string                   `json:"id"`
	Name             string                   `json:"name"`
	Description      string                   `json:"description,omitempty"`
	Status           string                   `json:"status"`
	FileSizeBytes    int64                    `json:"file_size_bytes"`
	FileHashSHA256   string                   `json:"file_hash_sha256,omitempty"`
	ContentType      string                   `json:"content_type,omitempty"`
	NumRows          *int64                   `json:"num_rows,omitempty"`
	NumColumns       *int                     `json:"num_columns,omitempty"`
	ColumnNames      []string                 `json:"column_names,omitempty"`
	ValidationErrors []entity.ValidationIssue `json:"validation_errors,omitempty"`
	CreatedAt        string                   `json:"created_at"`
	UpdatedAt        string                   `json:"updated_at"`
}

// DatasetListResponse is the paginated dataset list.
type DatasetListResponse struct {
	Datasets   []*DatasetResponse `json:"datasets"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// DownloadURLResponse carries a presigned GET URL.
type DownloadURLResponse struct {
	DownloadURL      string `json:"download_url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// ToDatasetResponse converts a dataset entity.
func ToDatasetResponse(ds *entity.Dataset) *DatasetResponse {
	return &DatasetResponse{
		ID:               ds.ID,
		Name:             ds.Name,
		Description:      ds.Description,
		Status:           string(ds.Status),
		FileSizeBytes:    ds.FileSizeBytes,
		FileHashSHA256:   ds.FileHashSHA256,
		ContentType:      ds.ContentType,
		NumRows:          ds.NumRows,
		NumColumns:       ds.NumColumns,
		ColumnNames:      ds.ColumnNames,
		ValidationErrors: ds.ValidationError,
		CreatedAt:        ds.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        ds.UpdatedAt.Format(time.RFC3339),
	}
}

// ToUploadTicketResponse converts an upload ticket.
func ToUploadTicketResponse(t *domain.DatasetUploadTicket) *UploadTicketResponse {
	return &UploadTicketResponse{
		Dataset:          ToDatasetResponse(t.Dataset),
		UploadURL:        t.UploadURL,
		ExpiresInSeconds: int(t.ExpiresIn.Seconds()),
	}
}

// ToDatasetListResponse converts a page of datasets.
func ToDatasetListResponse(datasets []*entity.Dataset, total int64, page, pageSize int) *DatasetListResponse {
	out := make([]*DatasetResponse, len(datasets))
	for i, ds := range datasets {
		out[i] = ToDatasetResponse(ds)
	}
	return &DatasetListResponse{
		Datasets:   out,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}
}
