package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current run status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if connector == nil {
		return errors.New("connector not configured")
	}

	status := connector.Status()
	cmd.Printf("Datasource: %s\n", status.Datasource)
	cmd.Printf("State:      %s\n", status.State)
	cmd.Printf("Records:    %d processed, %d skipped\n", status.RecordsProcessed, status.RecordsSkipped)
	cmd.Printf("Batches:    %d sent (last index %d)\n", status.BatchesSent, status.LastBatchIndex)
	if status.UploadID != "" {
		cmd.Printf("Upload ID:  %s\n", status.UploadID)
	}
	if status.LastError != "" {
		cmd.Printf("Last error: %s\n", status.LastError)
	}
	return nil
}
