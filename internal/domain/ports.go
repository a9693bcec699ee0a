package domain

import (
	"context"
	"io"
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// ObjectStore abstracts the S3-compatible blob backend.
type ObjectStore interface {
	PresignedPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (size int64, etag string, err error)
	Delete(ctx context.Context, key string) error
	// Ping checks reachability for health reporting.
	Ping(ctx context.Context) error
}

// TaskQueue enqueues background work for the worker process.
type TaskQueue interface {
	EnqueueDatasetValidation(ctx context.Context, datasetID string) (taskID string, err error)
	EnqueueEDAGeneration(ctx context.Context, reportID string) (taskID string, err error)
	EnqueueTraining(ctx context.Context, jobID string, priority int) (taskID string, err error)
	CancelTask(ctx context.Context, taskID string) error
}

// SchemaAgent proposes column types from sampled values.
type SchemaAgent interface {
	DeduceSchema(ctx context.Context, meta []entity.ColumnMetadata) ([]entity.ColumnSchema, string, error)
}

// PipelineAgent recommends a preprocessing plan from a schema and profile.
type PipelineAgent interface {
	RecommendPipeline(ctx context.Context, schema []entity.ColumnSchema, profile []entity.ColumnProfile, targetColumn string) (entity.PipelineConfig, error)
	// DescribePlan phrases a short human description of a plan.
	DescribePlan(ctx context.Context, cfg entity.PipelineConfig) string
}

// InsightAgent phrases insight summaries; findings themselves come from rules.
type InsightAgent interface {
	SummarizeInsights(ctx context.Context, insights []entity.EDAInsight) (string, error)
}
