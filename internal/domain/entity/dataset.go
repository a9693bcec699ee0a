package entity

import "time"

// DatasetStatus tracks a dataset through the upload and validation lifecycle.
type DatasetStatus string

const (
	DatasetUploading  DatasetStatus = "uploading"
	DatasetUploaded   DatasetStatus = "uploaded"
	DatasetValidating DatasetStatus = "validating"
	DatasetValidated  DatasetStatus = "validated"
	DatasetFailed     DatasetStatus = "failed"
)

// Dataset is an uploaded CSV file tracked in object storage.
type Dataset struct {
	ID              string
	UserID          string
	Name            string
	Description     string
	S3Bucket        string
	S3KeyRaw        string
	S3KeyProcessed  string
	FileSizeBytes   int64
	FileHashSHA256  string
	ContentType     string
	NumRows         *int64
	NumColumns      *int
	ColumnNames     []string
	Status          DatasetStatus
	ValidationError []ValidationIssue
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// ValidationIssue is a structured CSV validation failure.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Row     int64  `json:"row,omitempty"`
}

// IsDeleted reports whether the dataset has been soft deleted.
func (d *Dataset) IsDeleted() bool {
	return d.DeletedAt != nil
}

// CanTransitionTo reports whether the status change is legal.
func (d *Dataset) CanTransitionTo(next DatasetStatus) bool {
	switch d.Status {
	case DatasetUploading:
		return next == DatasetUploaded || next == DatasetFailed
	case DatasetUploaded:
		return next == DatasetValidating || next == DatasetFailed
	case DatasetValidating:
		return next == DatasetValidated || next == DatasetFailed
	default:
		return false
	}
}
