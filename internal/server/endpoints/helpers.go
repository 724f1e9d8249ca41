// Package endpoints defines the HTTP API surface. Each endpoint pairs
// an HTTP route with a cobra command that calls it, so the CLI and the
// web UI share one implementation.
package endpoints

import (
	"encoding/json"
	"net/http"
	"time"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes a request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// parseDateRange reads optional start/end query parameters (YYYY-MM-DD
// or RFC 3339). Zero times mean "use the caller's default window".
func parseDateRange(r *http.Request) (start, end time.Time, err error) {
	if v := r.URL.Query().Get("start"); v != "" {
		start, err = parseTime(v)
		if err != nil {
			return
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		end, err = parseTime(v)
		if err != nil {
			return
		}
	}
	return
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
