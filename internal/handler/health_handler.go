package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/h19overflow/PipeWeave/internal/domain"
)

const readinessTimeout = 5 * time.Second

// HealthHandler reports service and dependency health.
type HealthHandler struct {
	pool  *pgxpool.Pool
	store domain.ObjectStore
}

func NewHealthHandler(pool *pgxpool.Pool, store domain.ObjectStore) *HealthHandler {
	return &HealthHandler{pool: pool, store: store}
}

// Ping is the basic reachability check.
func (h *HealthHandler) Ping(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{
		"status":  "ok",
		"message": "pong",
	})
}

// Liveness reports that the process is up.
func (h *HealthHandler) Liveness(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{
		"status": "alive",
	})
}

// Readiness checks the Postgres pool and the object store.
func (h *HealthHandler) Readiness(ctx context.Context, c *app.RequestContext) {
	checkCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	if err := h.pool.Ping(checkCtx); err != nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{
			"status":   "not_ready",
			"database": "unhealthy",
			"error":    err.Error(),
		})
		return
	}

	if err := h.store.Ping(checkCtx); err != nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{
			"status":   "not_ready",
			"database": "healthy",
			"storage":  "unhealthy",
			"error":    err.Error(),
		})
		return
	}

	c.JSON(consts.StatusOK, utils.H{
		"status":   "ready",
		"database": "healthy",
		"storage":  "healthy",
	})
}
