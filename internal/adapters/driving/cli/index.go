package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
	"github.com/beaconsearch/connector-sdk/internal/core/ports/driving"
)

var (
	indexMode         string
	indexForceRestart bool
	indexUploadID     string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run one indexing pass",
	Long: `Runs one indexing pass against the Beacon bulk indexing API.

Full mode re-indexes the entire record set and reconciles deletions
afterwards. Incremental mode indexes only records changed since the last
saved checkpoint.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexMode, "mode", string(domain.ModeFull),
		"indexing mode (full or incremental)")
	indexCmd.Flags().BoolVar(&indexForceRestart, "force-restart", false,
		"discard any prior incomplete upload session before uploading")
	indexCmd.Flags().StringVar(&indexUploadID, "upload-id", "",
		"override the generated upload id")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if connector == nil {
		return errors.New("connector not configured")
	}

	mode, err := domain.ParseIndexingMode(indexMode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Indexing %s (%s mode)...\n", connector.Name(), mode)

	if err := connector.IndexData(ctx, driving.RunOptions{
		Mode:         mode,
		ForceRestart: indexForceRestart,
		UploadID:     indexUploadID,
	}); err != nil {
		status := connector.Status()
		return fmt.Errorf("indexing failed (last acknowledged batch %d): %w",
			status.LastBatchIndex, err)
	}

	status := connector.Status()
	cmd.Printf("Indexed %d records in %d batches.\n",
		status.RecordsProcessed, status.BatchesSent)
	return nil
}
