package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"callsight/internal/api"
	"callsight/internal/pipeline"
	"callsight/internal/svcctx"
)

// RunPipelineRequest optionally scopes a triggered run.
type RunPipelineRequest struct {
	Start   string   `json:"start,omitempty"`
	End     string   `json:"end,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Exclude []string `json:"exclude,omitempty"` // contact IDs to skip
}

// RunPipelineResponse reports the run that is now (or already was) in
// flight.
type RunPipelineResponse struct {
	Run      *pipeline.RunRecord `json:"run"`
	Started  bool                `json:"started"`
	Coalesce bool                `json:"coalesced"`
}

// RunPipelineEndpoint handles POST /api/pipeline/run. Overlapping
// triggers coalesce onto the in-flight run rather than stacking.
type RunPipelineEndpoint struct{}

func (e *RunPipelineEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pipeline/run", e.handler
}

func (e *RunPipelineEndpoint) RequiresInit() bool { return true }

func (e *RunPipelineEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	runner := svcctx.RunnerFrom(r.Context())

	var req RunPipelineRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	opts := pipeline.DiscoverOptions{Limit: req.Limit}
	if len(req.Exclude) > 0 {
		opts.Exclude = make(map[string]bool, len(req.Exclude))
		for _, id := range req.Exclude {
			opts.Exclude[id] = true
		}
	}
	var err error
	if req.Start != "" {
		if opts.Start, err = parseTime(req.Start); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start: "+err.Error())
			return
		}
	}
	if req.End != "" {
		if opts.End, err = parseTime(req.End); err != nil {
			writeError(w, http.StatusBadRequest, "invalid end: "+err.Error())
			return
		}
	}

	rec, started := runner.Trigger(opts, "api")
	status := http.StatusAccepted
	if !started {
		status = http.StatusOK
	}
	writeJSON(w, status, RunPipelineResponse{Run: rec, Started: started, Coalesce: !started})
}

func (e *RunPipelineEndpoint) Command(getServerURL func() string) *cobra.Command {
	var start, end string
	var limit int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Trigger a pipeline run",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp RunPipelineResponse
			body := RunPipelineRequest{Start: start, End: end, Limit: limit}
			if err := client.Post(cmd.Context(), "/api/pipeline/run", body, &resp); err != nil {
				return err
			}
			if resp.Coalesce {
				fmt.Printf("run %s already in flight\n", resp.Run.ID)
				return nil
			}
			fmt.Printf("run %s started\n", resp.Run.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "range end (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max calls to process")
	return cmd
}

// PipelineStatusResponse reports the in-flight run and recent history.
type PipelineStatusResponse struct {
	Current     *pipeline.RunRecord   `json:"current,omitempty"`
	History     []*pipeline.RunRecord `json:"history"`
	ActiveLocks int                   `json:"active_locks"`
}

// PipelineStatusEndpoint handles GET /api/pipeline/status.
type PipelineStatusEndpoint struct{}

func (e *PipelineStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/pipeline/status", e.handler
}

func (e *PipelineStatusEndpoint) RequiresInit() bool { return true }

func (e *PipelineStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	runner := svcctx.RunnerFrom(r.Context())
	p := svcctx.PipelineFrom(r.Context())

	current, history := runner.Status()
	writeJSON(w, http.StatusOK, PipelineStatusResponse{
		Current:     current,
		History:     history,
		ActiveLocks: p.Locks().ActiveCount(),
	})
}

func (e *PipelineStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline run status and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PipelineStatusResponse
			if err := client.Get(cmd.Context(), "/api/pipeline/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ClearFailuresEndpoint handles DELETE /api/pipeline/failures: the
// manual-intervention reset for contacts that hit the retry ceiling.
type ClearFailuresEndpoint struct{}

func (e *ClearFailuresEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/pipeline/failures", e.handler
}

func (e *ClearFailuresEndpoint) RequiresInit() bool { return true }

func (e *ClearFailuresEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	p := svcctx.PipelineFrom(r.Context())
	p.Locks().ClearFailures()
	svcctx.LoggerFrom(r.Context()).Info("failure counts cleared")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (e *ClearFailuresEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failures",
		Short: "Re-admit calls that exhausted the retry ceiling",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/pipeline/failures"); err != nil {
				return err
			}
			fmt.Println("failure counts cleared")
			return nil
		},
	}
}
