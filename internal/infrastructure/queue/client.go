package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/h19overflow/PipeWeave/internal/config"
	"github.com/h19overflow/PipeWeave/internal/domain"
)

// Client enqueues background tasks over Redis.
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

var _ domain.TaskQueue = (*Client)(nil)

// NewClient connects the producer side of the queue.
func NewClient(cfg config.RedisConfig) *Client {
	opt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
	}
}

// Close releases the Redis connections.
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueDatasetValidation(ctx context.Context, datasetID string) (string, error) {
	task, err := NewDatasetValidateTask(datasetID)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue dataset validation: %w", err)
	}
	return info.ID, nil
}

func (c *Client) EnqueueEDAGeneration(ctx context.Context, reportID string) (string, error) {
	task, err := NewEDAGenerateTask(reportID)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue report generation: %w", err)
	}
	return info.ID, nil
}

func (c *Client) EnqueueTraining(ctx context.Context, jobID string, priority int) (string, error) {
	task, err := NewTrainingRunTask(jobID)
	if err != nil {
		return "", err
	}
	// Priorities above the default get the dedicated critical queue so a
	// burst of routine jobs cannot starve them.
	var opts []asynq.Option
	if priority > 5 {
		opts = append(opts, asynq.Queue(QueueTrainingHigh))
	}
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue training: %w", err)
	}
	return info.ID, nil
}

// CancelTask removes a still-pending task. Tasks already running are
// cancelled cooperatively by the worker via the job status instead.
func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	for _, q := range []string{QueueDatasets, QueueEDA, QueueTraining, QueueTrainingHigh} {
		if err := c.inspector.DeleteTask(q, taskID); err == nil {
			return nil
		}
	}
	// Not pending anywhere: nothing to do.
	return nil
}
