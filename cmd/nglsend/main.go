package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/itsmrshow/nglsend/internal/cli"
	"github.com/itsmrshow/nglsend/internal/logging"
)

var (
	version = "1.0.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	// Initialize default logger
	logging.Init(logging.Config{
		Level:  getEnv("NGLSEND_LOG_LEVEL", "info"),
		Format: getEnv("NGLSEND_LOG_FORMAT", "console"),
	})

	rootCmd := &cobra.Command{
		Use:   "nglsend",
		Short: "nglsend - anonymous NGL message sender with rate-limit backoff",
		Long: `nglsend repeatedly submits anonymous messages to an NGL handle,
retrying rate-limited attempts with escalating backoff and skipping
attempts that fail for other reasons.

Transient server errors are retried transparently at the connection
level; the submission loop only sees the final outcome of each attempt.`,
		Version: fmt.Sprintf("%s (commit: %s, date: %s)", version, commit, date),
	}

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	rootCmd.PersistentFlags().String("config", "", "Defaults file path (YAML)")

	rootCmd.AddCommand(cli.NewSendCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
