package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"callsight/internal/api"
	"callsight/internal/calllog"
	"callsight/internal/pipeline"
	"callsight/internal/svcctx"
)

// MissingResponse lists calls awaiting transcription.
type MissingResponse struct {
	Missing []calllog.Record `json:"missing"`
	Count   int              `json:"count"`
}

// ListMissingEndpoint handles GET /api/missing: calls in range with a
// usable recording but no persisted transcription.
type ListMissingEndpoint struct{}

func (e *ListMissingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/missing", e.handler
}

func (e *ListMissingEndpoint) RequiresInit() bool { return true }

func (e *ListMissingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	p := svcctx.PipelineFrom(r.Context())

	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range: "+err.Error())
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	missing, err := p.Discover(r.Context(), pipeline.DiscoverOptions{
		Start: start,
		End:   end,
		Limit: limit,
	})
	if err != nil {
		svcctx.LoggerFrom(r.Context()).Error("discovery failed", "error", err)
		writeError(w, http.StatusInternalServerError, "discovery failed")
		return
	}
	writeJSON(w, http.StatusOK, MissingResponse{Missing: missing, Count: len(missing)})
}

func (e *ListMissingEndpoint) Command(getServerURL func() string) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "missing",
		Short: "List calls that still need transcription",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/missing" + rangeQuery(start, end)
			var resp MissingResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "range end (YYYY-MM-DD)")
	return cmd
}
