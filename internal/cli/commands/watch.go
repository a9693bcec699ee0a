package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/h19overflow/PipeWeave/internal/cli/client"
	"github.com/h19overflow/PipeWeave/internal/cli/config"
	"github.com/h19overflow/PipeWeave/internal/cli/ui"
)

// watchCmd is the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "watch a training job's live progress",
	Long: `Watch a training job's progress streamed live from the server.

Progress frames arrive over a server-sent event stream and render as a
progress bar. The watch ends when the job reaches a terminal state.`,
	Example: `  # Watch a training job
  $ pwctl watch 7b0e9f2a-1c3d-4e5f-8a9b-0c1d2e3f4a5b`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.SilenceUsage = true
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobID := args[0]

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

	ui.PrintWatchBanner(jobID)

	eventCh, errCh, err := apiClient.WatchJob(ctx, jobID)
	if err != nil {
		ui.PrintErrorBox("Watch Failed", err.Error())
		return fmt.Errorf("watch failed")
	}

	lastStatus := ""
	for event := range eventCh {
		fmt.Printf("\r%s %3d%%  %-12s %s",
			renderProgressBar(event.Progress),
			event.Progress,
			event.Status,
			event.CurrentStep,
		)
		lastStatus = event.Status
	}
	fmt.Println()

	if err := <-errCh; err != nil {
		ui.PrintError("stream error: %v", err)
		return fmt.Errorf("watch failed")
	}

	switch lastStatus {
	case "completed":
		ui.PrintSuccess("training completed")
	case "failed":
		ui.PrintError("training failed")
		return fmt.Errorf("job failed")
	case "cancelled":
		ui.PrintWarning("training cancelled")
	default:
		ui.PrintInfo("stream ended with status %q", lastStatus)
	}

	return nil
}

// renderProgressBar draws a fixed-width textual progress bar
func renderProgressBar(progress int) string {
	const width = 30
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress * width / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
