package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"callsight/internal/api"
	"callsight/internal/pipeline"
	"callsight/internal/server"
)

var (
	runStart string
	runEnd   string
	runLimit int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the transcription pipeline once",
	Long: `Run the transcription pipeline once and exit.

Discovers calls with a recording but no persisted transcription inside
the window, processes them in batches, and prints a summary. Without
--start/--end the window is the configured lookback ending now.

Examples:
  callsight run                                  # Process the lookback window
  callsight run --limit 10                       # At most 10 calls
  callsight run --start 2026-08-01 --end 2026-08-15`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		opts := pipeline.DiscoverOptions{Limit: runLimit}
		var err error
		if opts.Start, err = parseFlagTime(runStart); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		if opts.End, err = parseFlagTime(runEnd); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}

		h, err := getHome()
		if err != nil {
			return err
		}
		cfgMgr, err := getConfig(h)
		if err != nil {
			return err
		}
		logger := newLogger(cfgMgr.Get())

		w, err := server.Wire(cfgMgr.Get(), h, logger)
		if err != nil {
			return err
		}
		defer w.Close(logger)

		summary, err := w.Pipeline.Run(ctx, opts)
		if err != nil {
			return err
		}
		return api.Output(summary)
	},
}

func parseFlagTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func init() {
	runCmd.Flags().StringVar(&runStart, "start", "", "Window start (YYYY-MM-DD or RFC3339)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "Window end (YYYY-MM-DD or RFC3339)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "Maximum calls to process (0 = no limit)")

	rootCmd.AddCommand(runCmd)
}
