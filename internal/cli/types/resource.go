package types

// Dataset represents an uploaded CSV dataset
type Dataset struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Status        string   `json:"status"`
	FileSizeBytes int64    `json:"file_size_bytes"`
	NumRows       *int64   `json:"num_rows,omitempty"`
	NumColumns    *int     `json:"num_columns,omitempty"`
	ColumnNames   []string `json:"column_names,omitempty"`
	CreatedAt     string   `json:"created_at"`
}

// UploadTicket is returned when registering a dataset: the record plus a
// presigned URL the CLI pushes the CSV to directly.
type UploadTicket struct {
	Dataset          *Dataset `json:"dataset"`
	UploadURL        string   `json:"upload_url"`
	ExpiresInSeconds int      `json:"expires_in_seconds"`
}

// CreateDatasetRequest registers a dataset before upload
type CreateDatasetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Pipeline represents a preprocessing-and-training recipe
type Pipeline struct {
	ID          string `json:"id"`
	DatasetID   string `json:"dataset_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     int    `json:"version"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// TrainingJob represents a queued or running training run
type TrainingJob struct {
	ID              string   `json:"id"`
	PipelineID      string   `json:"pipeline_id"`
	DatasetID       string   `json:"dataset_id"`
	Status          string   `json:"status"`
	Progress        int      `json:"progress"`
	CurrentStep     string   `json:"current_step,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

// Model represents a trained model artifact
type Model struct {
	ID            string             `json:"id"`
	TrainingJobID string             `json:"training_job_id"`
	PipelineID    string             `json:"pipeline_id"`
	Name          string             `json:"name"`
	ModelType     string             `json:"model_type"`
	Version       int                `json:"version"`
	IsProduction  bool               `json:"is_production"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	CreatedAt     string             `json:"created_at"`
}

// JobProgressEvent is a single SSE frame from the job stream
type JobProgressEvent struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"current_step,omitempty"`
}

// DatasetListData is the paginated dataset list payload
type DatasetListData struct {
	Datasets []Dataset `json:"datasets"`
	Total    int64     `json:"total"`
}

// PipelineListData is the paginated pipeline list payload
type PipelineListData struct {
	Pipelines []Pipeline `json:"pipelines"`
	Total     int64      `json:"total"`
}

// JobListData is the paginated training job list payload
type JobListData struct {
	Jobs  []TrainingJob `json:"jobs"`
	Total int64         `json:"total"`
}

// ModelListData is the paginated model list payload
type ModelListData struct {
	Models []Model `json:"models"`
	Total  int64   `json:"total"`
}
