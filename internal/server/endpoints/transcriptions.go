package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"callsight/internal/api"
	"callsight/internal/store"
	"callsight/internal/svcctx"
)

// TranscriptionsResponse lists persisted transcription records.
type TranscriptionsResponse struct {
	Transcriptions []store.Record `json:"transcriptions"`
	Count          int            `json:"count"`
}

// ListTranscriptionsEndpoint handles GET /api/transcriptions.
type ListTranscriptionsEndpoint struct{}

func (e *ListTranscriptionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/transcriptions", e.handler
}

func (e *ListTranscriptionsEndpoint) RequiresInit() bool { return true }

func (e *ListTranscriptionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	records := svcctx.StoreFrom(r.Context())

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

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	recs, err := records.ListRange(r.Context(), start, end, limit)
	if err != nil {
		svcctx.LoggerFrom(r.Context()).Error("transcription list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "transcription list failed")
		return
	}
	writeJSON(w, http.StatusOK, TranscriptionsResponse{Transcriptions: recs, Count: len(recs)})
}

func (e *ListTranscriptionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "transcriptions",
		Short: "List transcription records for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/transcriptions" + rangeQuery(start, end)
			var resp TranscriptionsResponse
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

// GetTranscriptionEndpoint handles GET /api/transcriptions/{contact_id}.
type GetTranscriptionEndpoint struct{}

func (e *GetTranscriptionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/transcriptions/{contact_id}", e.handler
}

func (e *GetTranscriptionEndpoint) RequiresInit() bool { return true }

func (e *GetTranscriptionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	records := svcctx.StoreFrom(r.Context())
	contactID := r.PathValue("contact_id")

	rec, err := records.Get(r.Context(), contactID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no transcription for contact "+contactID)
			return
		}
		svcctx.LoggerFrom(r.Context()).Error("transcription get failed",
			"contact_id", contactID, "error", err)
		writeError(w, http.StatusInternalServerError, "transcription get failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (e *GetTranscriptionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "transcription <contact_id>",
		Short: "Get one transcription record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var rec store.Record
			if err := client.Get(cmd.Context(), "/api/transcriptions/"+args[0], &rec); err != nil {
				return err
			}
			return api.Output(rec)
		},
	}
}
