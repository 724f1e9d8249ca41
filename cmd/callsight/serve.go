package main

import (
	"github.com/spf13/cobra"

	"callsight/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the callsight server",
	Long: `Start the callsight HTTP server.

The server connects to the call log and results databases, wires the
transcription pipeline, and runs it on a timer when pipeline.auto_interval
is configured.

The server provides:
  /health                  - Basic server health check
  /ready                   - Readiness check (includes database status)
  /api/transcriptions      - Processed call transcriptions
  /api/missing             - Calls awaiting processing
  /api/pipeline/run        - Trigger a pipeline run
  /api/stats               - Aggregate statistics
  /api/export              - Excel export

Examples:
  callsight serve                    # Start on default port 8080
  callsight serve --port 3000        # Start on custom port
  callsight serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := getHome()
		if err != nil {
			return err
		}
		cfgMgr, err := getConfig(h)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: cfgMgr,
			Home:          h,
			Logger:        newLogger(cfgMgr.Get()),
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
