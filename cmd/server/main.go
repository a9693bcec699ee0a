package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/network/netpoll"
	"github.com/spf13/cobra"

	"github.com/h19overflow/PipeWeave/internal/agent"
	"github.com/h19overflow/PipeWeave/internal/config"
	"github.com/h19overflow/PipeWeave/internal/handler"
	infradb "github.com/h19overflow/PipeWeave/internal/infrastructure/database"
	"github.com/h19overflow/PipeWeave/internal/infrastructure/queue"
	"github.com/h19overflow/PipeWeave/internal/infrastructure/storage"
	"github.com/h19overflow/PipeWeave/internal/router"
	"github.com/h19overflow/PipeWeave/internal/usecase"
	dbpkg "github.com/h19overflow/PipeWeave/pkg/database"
	"github.com/h19overflow/PipeWeave/pkg/logger"
)

var (
	cfgFile string
	version = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "pipeweave-server",
	Short: "PipeWeave API server for dataset profiling and model training",
	Long: `PipeWeave API server is a high-performance HTTP API built with the Hertz framework.
It manages CSV datasets, schema deduction, profiling reports, pipeline
recommendations, and Random-Forest training jobs.`,
	Version: version,
	Run:     runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "configs/config.yaml", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runServer(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Setup(cfg.Log); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	slog.Info("PipeWeave API server starting...",
		"version", version,
		"config", cfgFile,
	)

	// Route Hertz framework logs through slog.
	hlog.SetLogger(logger.NewHertzSlogAdapter(slog.Default()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := dbpkg.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := dbpkg.Migrate(pool); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected and migrated")

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to connect to object storage", "error", err)
		os.Exit(1)
	}
	slog.Info("object storage connected", "bucket", cfg.Storage.Bucket)

	queueClient := queue.NewClient(cfg.Redis)

	llm, err := agent.NewClient(ctx, cfg.Gemini)
	if err != nil {
		slog.Error("failed to initialize llm client", "error", err)
		os.Exit(1)
	}
	schemaAgent := agent.NewSchemaDeductionAgent(llm)
	pipelineAgent := agent.NewPipelineBuilderAgent(llm)

	repos := infradb.NewRepositories(pool)

	userUsecase := usecase.NewUserUsecase(repos.Users, slog.Default())
	datasetUsecase := usecase.NewDatasetUsecase(repos.Datasets, store, queueClient, cfg.Storage, slog.Default())
	schemaUsecase := usecase.NewSchemaUsecase(repos.Schemas, repos.Datasets, store, schemaAgent, slog.Default())
	edaUsecase := usecase.NewEDAUsecase(repos.EDAReports, repos.Datasets, store, queueClient, slog.Default())
	pipelineUsecase := usecase.NewPipelineUsecase(repos.Pipelines, repos.Datasets, repos.Schemas, edaUsecase, pipelineAgent, slog.Default())
	trainingUsecase := usecase.NewTrainingUsecase(repos.TrainingJobs, repos.Pipelines, repos.Datasets, queueClient, slog.Default())
	modelUsecase := usecase.NewModelUsecase(repos.Models, repos.ExperimentRuns, repos.TrainingJobs, store, slog.Default())

	userHandler, err := handler.NewUserHandler(userUsecase, cfg.JWT, slog.Default())
	if err != nil {
		slog.Error("failed to initialize auth middleware", "error", err)
		os.Exit(1)
	}
	datasetHandler := handler.NewDatasetHandler(datasetUsecase, slog.Default())
	schemaHandler := handler.NewSchemaHandler(schemaUsecase, slog.Default())
	edaHandler := handler.NewEDAHandler(edaUsecase, slog.Default())
	pipelineHandler := handler.NewPipelineHandler(pipelineUsecase, slog.Default())
	trainingHandler := handler.NewTrainingHandler(trainingUsecase, modelUsecase, slog.Default())
	modelHandler := handler.NewModelHandler(modelUsecase, slog.Default())
	healthHandler := handler.NewHealthHandler(pool, store)

	slog.Info("handlers initialized")

	h := server.Default(
		server.WithHostPorts(cfg.GetServerAddr()),
		server.WithReadTimeout(cfg.GetReadTimeout()),
		server.WithWriteTimeout(cfg.GetWriteTimeout()),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBodySize*1024*1024),
		server.WithTransport(netpoll.NewTransporter),
	)

	router.Setup(h, userHandler, datasetHandler, schemaHandler, edaHandler, pipelineHandler, trainingHandler, modelHandler, healthHandler)

	slog.Info("server started",
		"address", cfg.GetServerAddr(),
		"mode", cfg.Server.Mode,
	)

	go func() {
		if err := h.Run(); err != nil {
			slog.Error("server run failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := h.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	if err := queueClient.Close(); err != nil {
		slog.Error("failed to close queue client", "error", err)
	}
	pool.Close()

	slog.Info("server stopped gracefully")
}
