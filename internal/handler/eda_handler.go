package handler

import (
	"context"
	"log/slog"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/handler/dto"
)

// EDAHandler handles exploratory data analysis endpoints.
type EDAHandler struct {
	usecase domain.EDAUsecase
	logger  *slog.Logger
}

func NewEDAHandler(usecase domain.EDAUsecase, logger *slog.Logger) *EDAHandler {
	return &EDAHandler{usecase: usecase, logger: logger}
}

// Generate handles POST /datasets/:id/eda: queues profiling in the background
// and returns the tracked report immediately.
func (h *EDAHandler) Generate(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	report, err := h.usecase.Generate(ctx, userID, c.Param("id"))
	if err != nil {
		h.logger.Error("failed to queue eda generation", "error", err, "dataset_id", c.Param("id"))
		ErrorResponse(c, err)
		return
	}
	AcceptedResponse(c, dto.ToEDAReportResponse(report))
}

// Latest handles GET /datasets/:id/eda: the most recent report with its
// inline summary, without the full body.
func (h *EDAHandler) Latest(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	report, err := h.usecase.Latest(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToEDAReportResponse(report))
}

// Get handles GET /eda-reports/:id.
func (h *EDAHandler) Get(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	report, err := h.usecase.GetByID(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToEDAReportResponse(report))
}

// FullReport handles GET /eda-reports/:id/full: the complete profile body,
// resolved from Postgres or object storage depending on where it landed.
func (h *EDAHandler) FullReport(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	full, err := h.usecase.FullReport(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, full)
}
