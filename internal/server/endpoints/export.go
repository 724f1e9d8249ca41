package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"callsight/internal/export"
	"callsight/internal/svcctx"
)

// ExportEndpoint handles GET /api/export: the transcription records for
// a range as an xlsx download.
type ExportEndpoint struct{}

func (e *ExportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/export", e.handler
}

func (e *ExportEndpoint) RequiresInit() bool { return true }

func (e *ExportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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
		svcctx.LoggerFrom(r.Context()).Error("export query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export query failed")
		return
	}

	wb, err := export.Workbook(recs)
	if err != nil {
		svcctx.LoggerFrom(r.Context()).Error("workbook build failed", "error", err)
		writeError(w, http.StatusInternalServerError, "workbook build failed")
		return
	}
	defer wb.Close()

	filename := fmt.Sprintf("transcriptions-%s.xlsx", end.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := wb.Write(w); err != nil {
		svcctx.LoggerFrom(r.Context()).Error("export write failed", "error", err)
	}
}

func (e *ExportEndpoint) Command(getServerURL func() string) *cobra.Command {
	var start, end, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download transcription records as a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := getServerURL() + "/api/export" + rangeQuery(start, end)
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := io.Copy(f, resp.Body); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&out, "out", "transcriptions.xlsx", "output file path")
	return cmd
}
