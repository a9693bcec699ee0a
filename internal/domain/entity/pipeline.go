package entity

import "time"

// PipelineStatus tracks a preprocessing pipeline's lifecycle.
type PipelineStatus string

const (
	PipelineDraft     PipelineStatus = "draft"
	PipelineValidated PipelineStatus = "validated"
	PipelineArchived  PipelineStatus = "archived"
)

// PipelineStep is one preprocessing operation in a pipeline config.
type PipelineStep struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`      // imputation, scaling, encoding
	Operation     string            `json:"operation"` // mean, median, mode, knn, iterative, standard, robust, minmax, log_transform, onehot, target, ordinal, hash
	TargetColumns []string          `json:"target_columns"`
	Parameters    map[string]string `json:"parameters,omitempty"`
	DependsOn     []string          `json:"depends_on,omitempty"`
}

// PipelineConfig is the ordered preprocessing plan stored as JSONB.
type PipelineConfig struct {
	TargetColumn string         `json:"target_column"`
	TaskType     string         `json:"task_type"` // classification or regression
	Steps        []PipelineStep `json:"steps"`
}

// Pipeline binds a preprocessing config to a dataset.
type Pipeline struct {
	ID           string
	UserID       string
	DatasetID    string
	Name         string
	Description  string
	Config       PipelineConfig
	NodeRegistry map[string]string
	Version      int
	Status       PipelineStatus
	ValidatedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// IsDeleted reports whether the pipeline has been soft deleted.
func (p *Pipeline) IsDeleted() bool {
	return p.DeletedAt != nil
}
