// Package router wires every HTTP route onto the hertz server.
package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/h19overflow/PipeWeave/internal/handler"
	"github.com/h19overflow/PipeWeave/internal/middleware"
)

// Setup sets up all routes
func Setup(
	h *server.Hertz,
	userHandler *handler.UserHandler,
	datasetHandler *handler.DatasetHandler,
	schemaHandler *handler.SchemaHandler,
	edaHandler *handler.EDAHandler,
	pipelineHandler *handler.PipelineHandler,
	trainingHandler *handler.TrainingHandler,
	modelHandler *handler.ModelHandler,
	healthHandler *handler.HealthHandler,
) {
	// Global middleware
	h.Use(middleware.Recovery())
	h.Use(middleware.Logger())
	h.Use(middleware.CORS())

	// Health check routes (no authentication required)
	h.GET("/ping", healthHandler.Ping)
	h.GET("/health/ready", healthHandler.Readiness)
	h.GET("/health/live", healthHandler.Liveness)

	// API v1 routes
	apiV1 := h.Group("/api/v1")
	{
		// ============ Public routes (no authentication required) ============
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
			auth.POST("/refresh", userHandler.RefreshToken)
		}

		// ============ Protected routes (JWT authentication required) ============
		authorized := apiV1.Group("")
		authorized.Use(userHandler.AuthMiddleware())
		{
			// User management
			users := authorized.Group("/users")
			{
				users.GET("", userHandler.ListUsers)
				users.GET("/me", userHandler.GetCurrentUser)
				users.PUT("/me", userHandler.UpdateCurrentUser)
				users.GET("/:id", userHandler.GetUser)
				users.DELETE("/:id", userHandler.DeleteUser)
			}

			// Dataset upload and lifecycle
			datasets := authorized.Group("/datasets")
			{
				datasets.POST("", datasetHandler.Create)
				datasets.GET("", datasetHandler.List)
				datasets.GET("/:id", datasetHandler.Get)
				datasets.POST("/:id/complete", datasetHandler.CompleteUpload)
				datasets.GET("/:id/download", datasetHandler.DownloadURL)
				datasets.DELETE("/:id", datasetHandler.Delete)

				// Dataset-scoped schema deduction
				datasets.POST("/:id/schema", schemaHandler.Propose)
				datasets.GET("/:id/schema", schemaHandler.Latest)
				datasets.GET("/:id/schema/history", schemaHandler.History)

				// Dataset-scoped EDA
				datasets.POST("/:id/eda", edaHandler.Generate)
				datasets.GET("/:id/eda", edaHandler.Latest)
			}

			// Schema deduction review
			schemas := authorized.Group("/schema-deductions")
			{
				schemas.GET("/:id", schemaHandler.Get)
				schemas.POST("/:id/accept", schemaHandler.Accept)
				schemas.POST("/:id/reject", schemaHandler.Reject)
			}

			// EDA reports
			reports := authorized.Group("/eda-reports")
			{
				reports.GET("/:id", edaHandler.Get)
				reports.GET("/:id/full", edaHandler.FullReport)
			}

			// Preprocessing pipelines
			pipelines := authorized.Group("/pipelines")
			{
				pipelines.POST("", pipelineHandler.Create)
				pipelines.POST("/recommend", pipelineHandler.Recommend)
				pipelines.GET("", pipelineHandler.List)
				pipelines.GET("/:id", pipelineHandler.Get)
				pipelines.PUT("/:id", pipelineHandler.Update)
				pipelines.POST("/:id/validate", pipelineHandler.Validate)
				pipelines.DELETE("/:id", pipelineHandler.Delete)
			}

			// Training jobs
			jobs := authorized.Group("/training/jobs")
			{
				jobs.POST("", trainingHandler.Submit)
				jobs.GET("", trainingHandler.List)
				jobs.GET("/:id", trainingHandler.Get)
				jobs.GET("/:id/stream", trainingHandler.Stream)
				jobs.GET("/:id/metrics", trainingHandler.Metrics)
				jobs.GET("/:id/runs", trainingHandler.Runs)
				jobs.POST("/:id/cancel", trainingHandler.Cancel)
			}

			// Trained models
			models := authorized.Group("/models")
			{
				models.GET("", modelHandler.List)
				models.GET("/:id", modelHandler.Get)
				models.GET("/:id/download", modelHandler.DownloadURL)
				models.POST("/:id/promote", modelHandler.Promote)
			}
		}
	}
}
