package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/h19overflow/PipeWeave/internal/cli/client"
	"github.com/h19overflow/PipeWeave/internal/cli/config"
	"github.com/h19overflow/PipeWeave/internal/cli/ui"
)

// listCmd is the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list datasets, pipelines, and models",
	Long: `List your datasets, pipelines, and trained models in a tree view.

Each dataset shows its pipelines, and each pipeline the models trained
from it, along with status and headline metrics.`,
	Example: `  # List all resources
  $ pwctl list`,
	RunE: runList,
}

func init() {
	listCmd.SilenceUsage = true
}

func runList(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		ui.PrintError("unexpected argument: %s", args[0])
		fmt.Printf("\nRun '%s --help' for usage.\n", cmd.CommandPath())
		return fmt.Errorf("invalid arguments")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		ui.PrintError("failed to load config: %v", err)
		return fmt.Errorf("config load failed")
	}

	if !cfg.IsAuthenticated() {
		ui.PrintError("not authenticated, please login first")
		fmt.Println("\nRun 'pwctl login' to authenticate.")
		return fmt.Errorf("authentication required")
	}

	apiClient, err := client.NewAPIClient(cfg.Server, cfg.AccessToken)
	if err != nil {
		ui.PrintError("failed to create client: %v", err)
		return fmt.Errorf("client creation failed")
	}

	ui.PrintInfo("Fetching resources from %s...", cfg.Server)

	datasets, err := apiClient.ListDatasets(ctx)
	if err != nil {
		ui.PrintError("failed to list datasets: %v", err)
		return fmt.Errorf("list operation failed")
	}

	pipelines, err := apiClient.ListPipelines(ctx)
	if err != nil {
		ui.PrintError("failed to list pipelines: %v", err)
		return fmt.Errorf("list operation failed")
	}

	models, err := apiClient.ListModels(ctx)
	if err != nil {
		ui.PrintError("failed to list models: %v", err)
		return fmt.Errorf("list operation failed")
	}

	fmt.Println()
	fmt.Println(ui.RenderResourceTree(datasets, pipelines, models))
	fmt.Println(ui.RenderResourceSummary(len(datasets), len(pipelines), len(models)))

	return nil
}
