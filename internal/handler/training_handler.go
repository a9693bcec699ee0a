package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/sse"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/handler/dto"
)

// Progress streaming bounds: one poll per second, capped so an abandoned
// browser tab cannot hold a connection open forever.
const (
	streamPollInterval = time.Second
	streamMaxPolls     = 300
)

// TrainingHandler handles training job endpoints, including the SSE
// progress stream.
type TrainingHandler struct {
	usecase domain.TrainingUsecase
	models  domain.ModelUsecase
	logger  *slog.Logger
}

func NewTrainingHandler(usecase domain.TrainingUsecase, models domain.ModelUsecase, logger *slog.Logger) *TrainingHandler {
	return &TrainingHandler{usecase: usecase, models: models, logger: logger}
}

// Submit handles POST /training/jobs: queues a run for a validated pipeline.
func (h *TrainingHandler) Submit(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	var req dto.SubmitTrainingRequest
	if err := c.BindJSON(&req); err != nil {
		ErrorResponse(c, domain.NewInvalidInputError("invalid request body"))
		return
	}

	job, err := h.usecase.Submit(ctx, domain.SubmitTrainingInput{
		UserID:          userID,
		PipelineID:      req.PipelineID,
		Hyperparameters: req.Hyperparameters,
		Priority:        req.Priority,
	})
	if err != nil {
		h.logger.Error("failed to submit training job", "error", err, "pipeline_id", req.PipelineID)
		ErrorResponse(c, err)
		return
	}
	AcceptedResponse(c, dto.ToTrainingJobResponse(job))
}

// Get handles GET /training/jobs/:id.
func (h *TrainingHandler) Get(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	job, err := h.usecase.GetByID(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToTrainingJobResponse(job))
}

// List handles GET /training/jobs with optional pipeline and status filters.
func (h *TrainingHandler) List(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	page, pageSize := PageParams(c)
	jobs, total, err := h.usecase.List(ctx, domain.TrainingJobFilter{
		UserID:     userID,
		PipelineID: c.Query("pipeline_id"),
		Status:     entity.JobStatus(c.Query("status")),
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	})
	if err != nil {
		h.logger.Error("failed to list training jobs", "error", err, "user_id", userID)
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToTrainingJobListResponse(jobs, total, page, pageSize))
}

// Stream handles GET /training/jobs/:id/stream: server-sent progress events
// polled from the job record until it reaches a terminal state.
func (h *TrainingHandler) Stream(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}
	jobID := c.Param("id")

	job, err := h.usecase.GetByID(ctx, userID, jobID)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.SetStatusCode(consts.StatusOK)
	s := sse.NewStream(c)

	if err := h.publishProgress(s, job); err != nil {
		return
	}
	if job.IsTerminal() {
		return
	}

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	for polls := 0; polls < streamMaxPolls; polls++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		job, err = h.usecase.GetByID(ctx, userID, jobID)
		if err != nil {
			h.logger.Warn("progress stream lost job", "error", err, "job_id", jobID)
			return
		}
		if err := h.publishProgress(s, job); err != nil {
			return
		}
		if job.IsTerminal() {
			return
		}
	}
}

func (h *TrainingHandler) publishProgress(s *sse.Stream, job *entity.TrainingJob) error {
	payload, err := sonic.Marshal(dto.JobProgressEvent{
		JobID:       job.ID,
		Status:      string(job.Status),
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
	})
	if err != nil {
		return err
	}
	return s.Publish(&sse.Event{
		Event: "progress",
		Data:  payload,
	})
}

// Metrics handles GET /training/jobs/:id/metrics: final metrics are only
// available once the job has completed.
func (h *TrainingHandler) Metrics(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	job, err := h.usecase.GetByID(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	if job.Status != entity.JobCompleted {
		ErrorResponse(c, domain.NewConflictError("metrics are available once the job has completed"))
		return
	}

	runs, err := h.models.Runs(ctx, userID, job.ID)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToExperimentRunResponses(runs))
}

// Runs handles GET /training/jobs/:id/runs.
func (h *TrainingHandler) Runs(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	runs, err := h.models.Runs(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToExperimentRunResponses(runs))
}

// Cancel handles POST /training/jobs/:id/cancel. Queued jobs are dropped
// from the queue; running jobs stop at the next checkpoint.
func (h *TrainingHandler) Cancel(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	job, err := h.usecase.Cancel(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToTrainingJobResponse(job))
}
