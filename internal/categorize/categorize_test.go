package categorize

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"callsight/internal/transcribe"
)

func chatReply(t *testing.T, content string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	})
}

func testCategorizer(t *testing.T, handler http.Handler) *Categorizer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "test-key", BaseURL: srv.URL, MaxRetries: 1})
}

func sampleUtterances() []transcribe.Utterance {
	return []transcribe.Utterance{
		{Speaker: "A", Role: transcribe.RoleAgent, Text: "thanks for calling"},
		{Speaker: "B", Role: transcribe.RoleCustomer, Text: "my bill looks wrong"},
	}
}

func TestCategorizeAcceptsTaxonomyLabels(t *testing.T) {
	c := testCategorizer(t, chatReply(t, "Billing Inquiry, Complaint"))

	res, err := c.Categorize(context.Background(), sampleUtterances())
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if res.Primary != "Billing Inquiry" {
		t.Errorf("primary = %q", res.Primary)
	}
	if !reflect.DeepEqual(res.Categories, []string{"Billing Inquiry", "Complaint"}) {
		t.Errorf("categories = %v", res.Categories)
	}
}

func TestCategorizeRejectsInventedLabels(t *testing.T) {
	// One real label buried in invented ones: only the real one survives.
	c := testCategorizer(t, chatReply(t, "Quantum Billing, Refund Request, Telepathy Support"))

	res, err := c.Categorize(context.Background(), sampleUtterances())
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if !reflect.DeepEqual(res.Categories, []string{"Refund Request"}) {
		t.Errorf("categories = %v", res.Categories)
	}
}

func TestCategorizeFallbackOnNoValidLabels(t *testing.T) {
	c := testCategorizer(t, chatReply(t, "I cannot determine a topic for this call."))

	res, err := c.Categorize(context.Background(), sampleUtterances())
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if res.Primary != FallbackCategory {
		t.Errorf("primary = %q, want fallback", res.Primary)
	}
}

func TestCategorizeFallbackOnEngineFailure(t *testing.T) {
	c := testCategorizer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusBadGateway)
	}))

	res, err := c.Categorize(context.Background(), sampleUtterances())
	if err != nil {
		t.Fatalf("engine failure must degrade, not fail: %v", err)
	}
	if res.Primary != FallbackCategory {
		t.Errorf("primary = %q, want fallback", res.Primary)
	}
}

func TestCategorizeEmptyTranscript(t *testing.T) {
	c := testCategorizer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty transcript should not reach the engine")
	}))

	res, err := c.Categorize(context.Background(), nil)
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if res.Primary != FallbackCategory {
		t.Errorf("primary = %q, want fallback", res.Primary)
	}
}

func TestCategorizeCapsAtThreeLabels(t *testing.T) {
	c := testCategorizer(t, chatReply(t,
		"Billing Inquiry, Complaint, Refund Request, Technical Support, Service Outage"))

	res, err := c.Categorize(context.Background(), sampleUtterances())
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if len(res.Categories) != MaxCategories {
		t.Errorf("categories = %v, want %d entries", res.Categories, MaxCategories)
	}
}

func TestBuildPromptIncludesRolesAndTaxonomy(t *testing.T) {
	var seen string
	c := testCategorizer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = string(body)
		chatReply(t, "Billing Inquiry").ServeHTTP(w, r)
	}))

	if _, err := c.Categorize(context.Background(), sampleUtterances()); err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if !strings.Contains(seen, "Agent: thanks for calling") {
		t.Error("prompt should contain speaker-prefixed transcript")
	}
	if !strings.Contains(seen, "Wrong Number") {
		t.Error("prompt should list the allowed labels")
	}
}

func TestFilterNormalizesCase(t *testing.T) {
	got := Filter([]string{" billing inquiry ", "COMPLAINT", "Complaint"})
	if !reflect.DeepEqual(got, []string{"Billing Inquiry", "Complaint"}) {
		t.Errorf("Filter = %v", got)
	}
}
