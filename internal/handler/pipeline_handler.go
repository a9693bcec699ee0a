package handler

import (
	"context"
	"log/slog"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/handler/dto"
)

// PipelineHandler handles preprocessing pipeline endpoints.
type PipelineHandler struct {
	usecase domain.PipelineUsecase
	logger  *slog.Logger
}

func NewPipelineHandler(usecase domain.PipelineUsecase, logger *slog.Logger) *PipelineHandler {
	return &PipelineHandler{usecase: usecase, logger: logger}
}

// Recommend handles POST /pipelines/recommend: builds a draft from the
// accepted schema and the latest profile.
func (h *PipelineHandler) Recommend(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	var req dto.RecommendPipelineRequest
	if err := c.BindJSON(&req); err != nil {
		ErrorResponse(c, domain.NewInvalidInputError("invalid request body"))
		return
	}

	p, err := h.usecase.Recommend(ctx, userID, req.DatasetID, req.TargetColumn)
	if err != nil {
		h.logger.Error("pipeline recommendation failed", "error", err, "dataset_id", req.DatasetID)
		ErrorResponse(c, err)
		return
	}
	CreatedResponse(c, dto.ToPipelineResponse(p))
}

// Create handles POST /pipelines for a hand-built configuration.
func (h *PipelineHandler) Create(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	var req dto.CreatePipelineRequest
	if err := c.BindJSON(&req); err != nil {
		ErrorResponse(c, domain.NewInvalidInputError("invalid request body"))
		return
	}

	p, err := h.usecase.Create(ctx, domain.CreatePipelineInput{
		UserID:      userID,
		DatasetID:   req.DatasetID,
		Name:        req.Name,
		Description: req.Description,
		Config:      req.Config,
	})
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	CreatedResponse(c, dto.ToPipelineResponse(p))
}

// Get handles GET /pipelines/:id.
func (h *PipelineHandler) Get(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	p, err := h.usecase.GetByID(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToPipelineResponse(p))
}

// List handles GET /pipelines with optional dataset and status filters.
func (h *PipelineHandler) List(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	page, pageSize := PageParams(c)
	pipelines, total, err := h.usecase.List(ctx, domain.PipelineFilter{
		UserID:    userID,
		DatasetID: c.Query("dataset_id"),
		Status:    entity.PipelineStatus(c.Query("status")),
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
	})
	if err != nil {
		h.logger.Error("failed to list pipelines", "error", err, "user_id", userID)
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToPipelineListResponse(pipelines, total, page, pageSize))
}

// Update handles PUT /pipelines/:id. Only drafts can change.
func (h *PipelineHandler) Update(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	var req dto.UpdatePipelineRequest
	if err := c.BindJSON(&req); err != nil {
		ErrorResponse(c, domain.NewInvalidInputError("invalid request body"))
		return
	}

	p, err := h.usecase.Update(ctx, userID, c.Param("id"), domain.UpdatePipelineInput{
		Name:        req.Name,
		Description: req.Description,
		Config:      req.Config,
	})
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToPipelineResponse(p))
}

// Validate handles POST /pipelines/:id/validate.
func (h *PipelineHandler) Validate(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	p, err := h.usecase.Validate(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToPipelineResponse(p))
}

// Delete handles DELETE /pipelines/:id: drafts are removed, validated
// pipelines are archived so their jobs and models stay resolvable.
func (h *PipelineHandler) Delete(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	if err := h.usecase.Archive(ctx, userID, c.Param("id")); err != nil {
		ErrorResponse(c, err)
		return
	}
	NoContentResponse(c)
}
