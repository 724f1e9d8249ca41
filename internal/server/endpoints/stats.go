package endpoints

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"callsight/internal/api"
	"callsight/internal/svcctx"
)

// StatsResponse aggregates the persisted transcriptions in a range.
type StatsResponse struct {
	Total            int            `json:"total"`
	ByCategory       map[string]int `json:"by_category"`
	ByAgent          map[string]int `json:"by_agent"`
	AvgSatisfaction  float64        `json:"avg_satisfaction"`
	ScoredCalls      int            `json:"scored_calls"`
	TotalTalkMinutes int            `json:"total_talk_minutes"`
	SentimentCounts  map[string]int `json:"sentiment_counts"`
	RangeStart       time.Time      `json:"range_start"`
	RangeEnd         time.Time      `json:"range_end"`
}

// StatsEndpoint handles GET /api/stats: the dashboard aggregates.
type StatsEndpoint struct{}

func (e *StatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/stats", e.handler
}

func (e *StatsEndpoint) RequiresInit() bool { return true }

func (e *StatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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
		start = end.AddDate(0, 0, -30)
	}

	recs, err := records.ListRange(r.Context(), start, end, 0)
	if err != nil {
		svcctx.LoggerFrom(r.Context()).Error("stats query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "stats query failed")
		return
	}

	resp := StatsResponse{
		Total:           len(recs),
		ByCategory:      make(map[string]int),
		ByAgent:         make(map[string]int),
		SentimentCounts: make(map[string]int),
		RangeStart:      start,
		RangeEnd:        end,
	}
	var satisfactionSum float64
	for _, rec := range recs {
		for _, c := range rec.Categories {
			resp.ByCategory[c]++
		}
		if rec.Agent != "" {
			resp.ByAgent[rec.Agent]++
		}
		if rec.SatisfactionScore > 0 {
			satisfactionSum += rec.SatisfactionScore
			resp.ScoredCalls++
		}
		resp.TotalTalkMinutes += rec.CallDurationMin
		for _, s := range rec.SentimentAnalysis {
			resp.SentimentCounts[s.Sentiment]++
		}
	}
	if resp.ScoredCalls > 0 {
		resp.AvgSatisfaction = satisfactionSum / float64(resp.ScoredCalls)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate transcription statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/stats" + rangeQuery(start, end)
			var resp StatsResponse
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
