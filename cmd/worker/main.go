package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/h19overflow/PipeWeave/internal/agent"
	"github.com/h19overflow/PipeWeave/internal/config"
	infradb "github.com/h19overflow/PipeWeave/internal/infrastructure/database"
	"github.com/h19overflow/PipeWeave/internal/infrastructure/storage"
	"github.com/h19overflow/PipeWeave/internal/worker"
	dbpkg "github.com/h19overflow/PipeWeave/pkg/database"
	"github.com/h19overflow/PipeWeave/pkg/logger"
)

var (
	cfgFile string
	version = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "pipeweave-worker",
	Short: "PipeWeave background worker for validation, profiling, and training",
	Long: `PipeWeave worker consumes the Redis-backed task queues: CSV validation,
profiling report generation, and Random-Forest training runs.`,
	Version: version,
	Run:     runWorker,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "configs/config.yaml", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runWorker(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Setup(cfg.Log); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	slog.Info("PipeWeave worker starting...",
		"version", version,
		"config", cfgFile,
		"concurrency", cfg.Worker.Concurrency,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := dbpkg.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to connect to object storage", "error", err)
		os.Exit(1)
	}

	llm, err := agent.NewClient(ctx, cfg.Gemini)
	if err != nil {
		slog.Error("failed to initialize llm client", "error", err)
		os.Exit(1)
	}
	insights := agent.NewEDAInsightsAgent(llm)

	repos := infradb.NewRepositories(pool)

	w := worker.New(
		repos.Datasets,
		repos.EDAReports,
		repos.TrainingJobs,
		repos.Models,
		repos.ExperimentRuns,
		store,
		insights,
		cfg.Storage,
		slog.Default(),
	)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues:      worker.QueueWeights(),
		},
	)

	mux := asynq.NewServeMux()
	w.Register(mux)

	// asynq handles SIGINT/SIGTERM itself and drains in-flight tasks.
	if err := srv.Run(mux); err != nil {
		slog.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("worker stopped gracefully")
}
