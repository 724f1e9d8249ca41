package main

import (
	"github.com/spf13/cobra"

	"callsight/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running callsight server via HTTP.

These commands require a running server (callsight serve).
Use --server to specify a custom server URL.

Examples:
  callsight api health                     # Check server health
  callsight api transcriptions             # List transcriptions
  callsight api pipeline run               # Trigger a pipeline run
  callsight api export --out report.xlsx   # Download an Excel export`,
}

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Pipeline control commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))

	// Data endpoints
	apiCmd.AddCommand((&endpoints.ListCallsEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ListTranscriptionsEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.GetTranscriptionEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ListMissingEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatsEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ExportEndpoint{}).Command(getServerURL))

	// Pipeline control as subcommand group
	pipelineCmd.AddCommand((&endpoints.RunPipelineEndpoint{}).Command(getServerURL))
	pipelineCmd.AddCommand((&endpoints.PipelineStatusEndpoint{}).Command(getServerURL))
	pipelineCmd.AddCommand((&endpoints.ClearFailuresEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(apiCmd)
}
