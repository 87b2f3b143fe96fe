package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Register the datasource with the backend",
	Long: `Registers or updates the datasource definition with the Beacon
backend. Safe to invoke repeatedly.`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	if connector == nil {
		return errors.New("connector not configured")
	}

	if err := connector.ConfigureDatasource(cmd.Context()); err != nil {
		return fmt.Errorf("configure failed: %w", err)
	}

	cmd.Printf("Datasource %s configured.\n", connector.Name())
	return nil
}
