package endpoints

import "callsight/internal/api"

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},

		// Call log endpoints
		&ListCallsEndpoint{},

		// Transcription endpoints
		&ListTranscriptionsEndpoint{},
		&GetTranscriptionEndpoint{},
		&ListMissingEndpoint{},

		// Pipeline endpoints
		&RunPipelineEndpoint{},
		&PipelineStatusEndpoint{},
		&ClearFailuresEndpoint{},

		// Reporting endpoints
		&StatsEndpoint{},
		&ExportEndpoint{},
	}
}
