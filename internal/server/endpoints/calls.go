package endpoints

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"callsight/internal/api"
	"callsight/internal/calllog"
	"callsight/internal/svcctx"
)

// CallsResponse is the response for the call-log listing.
type CallsResponse struct {
	Calls []calllog.Record `json:"calls"`
	Count int              `json:"count"`
}

// ListCallsEndpoint handles GET /api/calls: raw call-log rows for a
// date range, independent of transcription state.
type ListCallsEndpoint struct{}

func (e *ListCallsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/calls", e.handler
}

func (e *ListCallsEndpoint) RequiresInit() bool { return true }

func (e *ListCallsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	source := svcctx.CallSourceFrom(r.Context())

	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range: "+err.Error())
		return
	}
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -7)
	}

	calls, err := source.FetchRange(r.Context(), start, end)
	if err != nil {
		svcctx.LoggerFrom(r.Context()).Error("call log query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "call log query failed")
		return
	}
	writeJSON(w, http.StatusOK, CallsResponse{Calls: calls, Count: len(calls)})
}

func (e *ListCallsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "List call logs for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/calls" + rangeQuery(start, end)
			var resp CallsResponse
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

// rangeQuery builds the optional start/end query string shared by the
// range-scoped commands.
func rangeQuery(start, end string) string {
	switch {
	case start != "" && end != "":
		return fmt.Sprintf("?start=%s&end=%s", start, end)
	case start != "":
		return "?start=" + start
	case end != "":
		return "?end=" + end
	default:
		return ""
	}
}
