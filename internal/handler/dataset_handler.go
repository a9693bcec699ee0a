package handler

import (
	"context"
	"log/slog"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/handler/dto"
)

// DatasetHandler handles dataset upload and lifecycle endpoints.
type DatasetHandler struct {
	usecase domain.DatasetUsecase
	logger  *slog.Logger
}

func NewDatasetHandler(usecase domain.DatasetUsecase, logger *slog.Logger) *DatasetHandler {
	return &DatasetHandler{usecase: usecase, logger: logger}
}

// Create handles POST /datasets: registers the dataset and returns a
// presigned PUT URL the client uploads the CSV to directly.
func (h *DatasetHandler) Create(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	var req dto.CreateDatasetRequest
	if err := c.BindJSON(&req); err != nil {
		ErrorResponse(c, domain.NewInvalidInputError("invalid request body"))
		return
	}

	ticket, err := h.usecase.Create(ctx, domain.CreateDatasetInput{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		h.logger.Error("failed to create dataset", "error", err, "user_id", userID)
		ErrorResponse(c, err)
		return
	}
	CreatedResponse(c, dto.ToUploadTicketResponse(ticket))
}

// CompleteUpload handles POST /datasets/:id/complete after the client has
// finished the presigned upload.
func (h *DatasetHandler) CompleteUpload(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	ds, err := h.usecase.CompleteUpload(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	AcceptedResponse(c, dto.ToDatasetResponse(ds))
}

// Get handles GET /datasets/:id.
func (h *DatasetHandler) Get(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	ds, err := h.usecase.GetByID(ctx, userID, c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToDatasetResponse(ds))
}

// List handles GET /datasets with optional status and search filters.
func (h *DatasetHandler) List(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	page, pageSize := PageParams(c)
	datasets, total, err := h.usecase.List(ctx, domain.DatasetFilter{
		UserID: userID,
		Status: entity.DatasetStatus(c.Query("status")),
		Search: c.Query("search"),
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		h.logger.Error("failed to list datasets", "error", err, "user_id", userID)
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToDatasetListResponse(datasets, total, page, pageSize))
}

// DownloadURL handles GET /datasets/:id/download.
func (h *DatasetHandler) DownloadURL(ctx context.Context, c *app.RequestContext) {
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

// Delete handles DELETE /datasets/:id.
func (h *DatasetHandler) Delete(ctx context.Context, c *app.RequestContext) {
	userID, ok := CurrentUserID(c)
	if !ok {
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	if err := h.usecase.Delete(ctx, userID, c.Param("id")); err != nil {
		ErrorResponse(c, err)
		return
	}
	NoContentResponse(c)
}
