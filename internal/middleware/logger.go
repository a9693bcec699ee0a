package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"

	"github.com/h19overflow/PipeWeave/pkg/logger"
)

// RequestIDKey is the header carrying the per-request correlation ID.
const RequestIDKey = "X-Request-ID"

// Logger logs one structured line per request with latency and status.
// Health probe paths are skipped to keep the log readable.
func Logger() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		path := string(c.Path())

		skipLogging := path == "/health/live" || path == "/health/ready"

		// Honor an inbound request ID, mint one otherwise.
		requestID := string(c.Request.Header.Peek(RequestIDKey))
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Response.Header.Set(RequestIDKey, requestID)

		var reqLogger *slog.Logger
		if !skipLogging {
			reqLogger = slog.Default().With(
				"request_id", requestID,
				"method", string(c.Method()),
				"path", path,
				"client_ip", c.ClientIP(),
			)
			reqLogger.Info("request started")
			// Downstream code picks this up via logger.FromContext.
			ctx = logger.WithContext(ctx, reqLogger)
		}

		c.Next(ctx)

		if !skipLogging {
			latency := time.Since(start)
			statusCode := c.Response.StatusCode()

			reqLogger = reqLogger.With(
				"status", statusCode,
				"latency", latency.String(),
				"latency_ms", latency.Milliseconds(),
			)

			if statusCode >= 500 {
				reqLogger.Error("request completed with server error")
			} else if statusCode >= 400 {
				reqLogger.Warn("request completed with client error")
			} else {
				reqLogger.Info("request completed successfully")
			}
		}
	}
}

// GetRequestID returns the request ID assigned by the Logger middleware.
func GetRequestID(c *app.RequestContext) string {
	return string(c.Response.Header.Peek(RequestIDKey))
}
