// Package cli provides the command line entry points for a connector
// built on the SDK. Deployment wrappers (cron, serverless, workflow
// engines) invoke these commands and nothing else; both entry points are
// idempotent and safe to invoke repeatedly.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/beaconsearch/connector-sdk/internal/config"
	"github.com/beaconsearch/connector-sdk/internal/core/ports/driving"
	"github.com/beaconsearch/connector-sdk/internal/logger"
)

// version is the SDK version reported by the version command.
const version = "0.3.0"

var (
	connector driving.Connector
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:           "connector",
	Short:         "Index data into Beacon",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		logger.SetLevel(resolveLogLevel())
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error; defaults to $"+config.EnvLogLevel+")")
}

// resolveLogLevel picks the log level: an explicit --log-level flag wins,
// then BEACON_LOG_LEVEL, then the flag default.
func resolveLogLevel() string {
	if !rootCmd.PersistentFlags().Changed("log-level") {
		if env := os.Getenv(config.EnvLogLevel); env != "" {
			return env
		}
	}
	return logLevel
}

// Execute runs the CLI for a configured connector.
func Execute(conn driving.Connector) error {
	connector = conn
	rootCmd.Use = conn.Name()
	return rootCmd.Execute()
}
