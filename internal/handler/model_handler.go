package handler

import (
	"context"
	"log/slog"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/handler/dto"
)

// ModelHandler handles trained model endpoints.
type ModelHandler struct {
	usecase domain.ModelUsecase
	logger  *slog.Logger
}

func NewModelHandler(usecase domain.ModelUsecase, logger *slog.Logger) *ModelHandler {
	return &ModelHandler{usecase: usecase, logger: logger}
}

// Get handles GET /models/:id.
func (h *ModelHandler) Get(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	m, err := h.usecase.GetByID(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToModelResponse(m))
}

// List handles GET /models with an optional pipeline filter.
func (h *ModelHandler) List(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	page, pageSize := PageParams(c)
	models, total, err := h.usecase.List(ctx, domain.ModelFilter{
		UserID:     userID,
		PipelineID: c.Query("pipeline_id"),
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	})
	if err != nil {
		h.logger.Error("failed to list models", "error", err, "user_id", userID)
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToModelListResponse(models, total, page, pageSize))
}

// DownloadURL handles GET /models/:id/download.
func (h *ModelHandler) DownloadURL(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	url, expiry, err := h.usecase.DownloadURL(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.DownloadURLResponse{
		DownloadURL:      url,
		ExpiresInSeconds: int(expiry.Seconds()),
	})
}

// Promote handles POST /models/:id/promote: marks the model as the
// pipeline's production version, demoting any previous one.
func (h *ModelHandler) Promote(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	m, err := h.usecase.Promote(ctx, userID, c.Param("id"))
	if err != nil {
		h.logger.Error("failed to promote model", "error", err, "model_id", c.Param("id"))
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToModelResponse(m))
}
