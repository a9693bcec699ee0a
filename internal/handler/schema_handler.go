package handler

import (
	"context"
	"log/slog"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/handler/dto"
)

// SchemaHandler handles schema deduction endpoints.
type SchemaHandler struct {
	usecase domain.SchemaUsecase
	logger  *slog.Logger
}

func NewSchemaHandler(usecase domain.SchemaUsecase, logger *slog.Logger) *SchemaHandler {
	return &SchemaHandler{usecase: usecase, logger: logger}
}

// Propose handles POST /datasets/:id/schema: runs the deduction agent over
// sampled column values and stores a fresh proposal.
func (h *SchemaHandler) Propose(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	sd, err := h.usecase.Propose(ctx, userID, c.Param("id"))
	if err != nil {
		h.logger.Error("schema proposal failed", "error", err, "dataset_id", c.Param("id"))
		ErrorResponse(c, err)
		return
	}
	CreatedResponse(c, dto.ToSchemaDeductionResponse(sd))
}

// Latest handles GET /datasets/:id/schema.
func (h *SchemaHandler) Latest(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	sd, err := h.usecase.Latest(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToSchemaDeductionResponse(sd))
}

// History handles GET /datasets/:id/schema/history.
func (h *SchemaHandler) History(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	page, pageSize := PageParams(c)
	deductions, total, err := h.usecase.History(ctx, userID, c.Param("id"), (page-1)*pageSize, pageSize)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToSchemaDeductionListResponse(deductions, total))
}

// Get handles GET /schema-deductions/:id.
func (h *SchemaHandler) Get(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	sd, err := h.usecase.GetByID(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToSchemaDeductionResponse(sd))
}

// Accept handles POST /schema-deductions/:id/accept with optional per-column
// type overrides.
func (h *SchemaHandler) Accept(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	var req dto.AcceptSchemaRequest
	if err := c.BindJSON(&req); err != nil {
		ErrorResponse(c, domain.NewInvalidInputError("invalid request body"))
		return
	}

	overrides := make([]domain.SchemaOverride, len(req.Overrides))
	for i, ov := range req.Overrides {
		overrides[i] = domain.SchemaOverride{Column: ov.Column, Type: ov.Type}
	}

	sd, err := h.usecase.Accept(ctx, userID, c.Param("id"), overrides)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToSchemaDeductionResponse(sd))
}

// Reject handles POST /schema-deductions/:id/reject.
func (h *SchemaHandler) Reject(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	var req dto.RejectSchemaRequest
	if err := c.BindJSON(&req); err != nil {
		ErrorResponse(c, domain.NewInvalidInputError("rejection reason is required"))
		return
	}

	sd, err := h.usecase.Reject(ctx, userID, c.Param("id"), req.Reason)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToSchemaDeductionResponse(sd))
}
