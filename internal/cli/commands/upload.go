package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/h19overflow/PipeWeave/internal/cli/client"
	"github.com/h19overflow/PipeWeave/internal/cli/config"
	"github.com/h19overflow/PipeWeave/internal/cli/types"
	"github.com/h19overflow/PipeWeave/internal/cli/ui"
)

var (
	uploadName        string
	uploadDescription string
)

// uploadCmd is the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <file.csv>",
	Short: "upload a CSV dataset",
	Long: `Upload a CSV dataset to PipeWeave.

The file is pushed directly to object storage through a presigned URL,
then queued for validation. Run 'pwctl list' to follow the dataset
status afterwards.`,
	Example: `  # Upload with the filename as dataset name
  $ pwctl upload ./churn.csv

  # Upload with an explicit name and description
  $ pwctl upload ./churn.csv --name "Customer churn" -d "Q3 export"`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "Dataset name (defaults to the file name)")
	uploadCmd.Flags().StringVarP(&uploadDescription, "description", "d", "", "Dataset description")
	uploadCmd.SilenceUsage = true
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	path := args[0]

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

	body, err := os.ReadFile(path)
	if err != nil {
		ui.PrintError("failed to read file: %v", err)
		return fmt.Errorf("file read failed")
	}

	name := uploadName
	if name == "" {
		name = filepath.Base(path)
	}

	apiClient, err := client.NewAPIClient(cfg.Server, cfg.AccessToken)
	if err != nil {
		ui.PrintError("failed to create client: %v", err)
		return fmt.Errorf("client creation failed")
	}

	// 1. Register the dataset and get a presigned upload URL.
	ticket, err := apiClient.CreateDataset(ctx, &types.CreateDatasetRequest{
		Name:        name,
		Description: uploadDescription,
		Filename:    filepath.Base(path),
		ContentType: "text/csv",
		SizeBytes:   int64(len(body)),
	})
	if err != nil {
		ui.PrintErrorBox("Upload Failed", err.Error())
		return fmt.Errorf("dataset registration failed")
	}

	ui.PrintInfo("Uploading %s (%d bytes)...", filepath.Base(path), len(body))

	// 2. PUT the bytes to object storage.
	if err := apiClient.UploadFile(ctx, ticket.UploadURL, "text/csv", body); err != nil {
		ui.PrintErrorBox("Upload Failed", err.Error())
		return fmt.Errorf("file upload failed")
	}

	// 3. Mark the upload complete, which queues validation.
	ds, err := apiClient.CompleteUpload(ctx, ticket.Dataset.ID)
	if err != nil {
		ui.PrintErrorBox("Upload Failed", err.Error())
		return fmt.Errorf("upload completion failed")
	}

	successContent := fmt.Sprintf(`Dataset:   %s
ID:        %s
Status:    %s`,
		ds.Name,
		ds.ID,
		ds.Status,
	)
	ui.PrintSuccessBox("✓ Upload Complete", successContent)

	fmt.Println()
	ui.PrintInfo("Validation is running in the background.")
	ui.PrintBold("  pwctl list   # Check dataset status")

	return nil
}
