package entity

import "time"

// Model is a trained artifact produced by a completed training job.
type Model struct {
	ID                string
	TrainingJobID     string
	PipelineID        string
	UserID            string
	Name              string
	ModelType         string
	FrameworkVersion  string
	S3Bucket          string
	S3KeyArtifact     string
	S3KeyConfig       string
	S3KeyMetadata     string
	ArtifactSizeBytes int64
	ArtifactChecksum  string
	Metrics           map[string]float64
	Version           int
	IsProduction      bool
	DeployedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
