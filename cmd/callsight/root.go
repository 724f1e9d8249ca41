package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"callsight/internal/api"
	"callsight/internal/config"
	"callsight/internal/home"
	"callsight/version"
)

var (
	cfgFile      string
	homeDirFlag  string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "callsight",
	Short: "Call-center transcription and analytics pipeline",
	Long: `Callsight turns raw call-center recordings into searchable,
categorized transcriptions.

The pipeline includes:
  - Missing-work discovery against the call log
  - Recording fetch over SFTP with path resolution
  - Transcription with diarization, sentiment, and entity detection
  - LLM categorization against a fixed label taxonomy
  - Idempotent persistence keyed by contact ID`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ~/.callsight/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDirFlag, "home", "", "callsight home directory (default: ~/.callsight)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// getHome returns the home directory manager, creating it on first use.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDirFlag)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// getConfig loads configuration from --config or the home directory.
func getConfig(h *home.Dir) (*config.Manager, error) {
	path := cfgFile
	if path == "" {
		path = h.ConfigPath()
	}
	return config.NewManager(path)
}

// newLogger builds the process logger from the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
