package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeEngine is an httptest-backed engine that completes jobs after a
// configurable number of polls.
type fakeEngine struct {
	mu            sync.Mutex
	pollsToFinish int
	finalStatus   string
	finalError    string
	rejectURLs    map[string]bool // submit fails for these audio URLs
	uploads       int
	submits       []string // audio URLs submitted
	polls         int
}

func (e *fakeEngine) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		e.uploads++
		e.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://engine.internal/u/1"})
	})
	mux.HandleFunc("POST /transcript", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AudioURL      string `json:"audio_url"`
			SpeakerLabels bool   `json:"speaker_labels"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		e.mu.Lock()
		e.submits = append(e.submits, req.AudioURL)
		rejected := e.rejectURLs[req.AudioURL]
		e.mu.Unlock()

		if !req.SpeakerLabels {
			http.Error(w, "diarization must be requested", http.StatusBadRequest)
			return
		}
		if rejected {
			json.NewEncoder(w).Encode(map[string]string{
				"id": "job-1", "status": "error", "error": "audio url unreachable",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "job-1", "status": "queued"})
	})
	mux.HandleFunc("GET /transcript/{id}", func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		e.polls++
		done := e.polls >= e.pollsToFinish
		status, errMsg := e.finalStatus, e.finalError
		e.mu.Unlock()

		if !done {
			json.NewEncoder(w).Encode(map[string]string{"id": r.PathValue("id"), "status": "processing"})
			return
		}
		if status == StatusError {
			json.NewEncoder(w).Encode(map[string]string{
				"id": r.PathValue("id"), "status": "error", "error": errMsg,
			})
			return
		}
		fmt.Fprint(w, `{
			"id": "job-1",
			"status": "completed",
			"text": "hello thanks for calling how can I help",
			"summary": "Customer called about a billing question.",
			"utterances": [
				{"speaker": "A", "text": "thanks for calling", "start": 0, "end": 1800, "confidence": 0.97},
				{"speaker": "B", "text": "hi I have a billing question", "start": 1900, "end": 4200, "confidence": 0.94},
				{"speaker": "A", "text": "happy to help", "start": 4300, "end": 5100, "confidence": 0.96}
			],
			"sentiment_analysis_results": [
				{"text": "thanks for calling", "sentiment": "POSITIVE", "confidence": 0.9}
			],
			"entities": [
				{"entity_type": "organization", "text": "Acme"}
			]
		}`)
	})
	return mux
}

func testTranscriber(t *testing.T, engine *fakeEngine) (*Transcriber, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(engine.handler())
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})
	return New(Config{
		Client:          client,
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 10,
	}), srv
}

func TestTranscribeUploadsAndPolls(t *testing.T) {
	engine := &fakeEngine{pollsToFinish: 3, finalStatus: StatusCompleted}
	tr, _ := testTranscriber(t, engine)

	got, err := tr.Transcribe(context.Background(), "", []byte("audio-bytes"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if engine.uploads != 1 {
		t.Errorf("uploads = %d, want 1", engine.uploads)
	}
	if got.Text == "" || got.Summary == "" {
		t.Error("transcript text and summary should be populated")
	}
	if len(got.Utterances) != 3 {
		t.Fatalf("utterances = %d, want 3", len(got.Utterances))
	}
	if len(got.Sentiments) != 1 || len(got.Entities) != 1 {
		t.Errorf("sentiments/entities = %d/%d, want 1/1", len(got.Sentiments), len(got.Entities))
	}
}

func TestTranscribeMapsSpeakerRoles(t *testing.T) {
	engine := &fakeEngine{pollsToFinish: 1, finalStatus: StatusCompleted}
	tr, _ := testTranscriber(t, engine)

	got, err := tr.Transcribe(context.Background(), "", []byte("audio-bytes"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	// First tag heard is the agent; the raw tag survives alongside.
	wantRoles := []string{RoleAgent, RoleCustomer, RoleAgent}
	wantTags := []string{"A", "B", "A"}
	for i, u := range got.Utterances {
		if u.Role != wantRoles[i] {
			t.Errorf("utterance %d role = %q, want %q", i, u.Role, wantRoles[i])
		}
		if u.Speaker != wantTags[i] {
			t.Errorf("utterance %d speaker tag = %q, want %q", i, u.Speaker, wantTags[i])
		}
	}
}

func TestTranscribeDirectURLSkipsUpload(t *testing.T) {
	engine := &fakeEngine{pollsToFinish: 1, finalStatus: StatusCompleted}
	tr, _ := testTranscriber(t, engine)

	_, err := tr.Transcribe(context.Background(), "https://recordings.example.com/c1.wav", []byte("audio-bytes"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if engine.uploads != 0 {
		t.Errorf("uploads = %d, want 0 when the engine fetches directly", engine.uploads)
	}
	if len(engine.submits) != 1 || engine.submits[0] != "https://recordings.example.com/c1.wav" {
		t.Errorf("submits = %v", engine.submits)
	}
}

func TestTranscribeFallsBackToUpload(t *testing.T) {
	direct := "https://recordings.example.com/c1.wav"
	engine := &fakeEngine{
		pollsToFinish: 1,
		finalStatus:   StatusCompleted,
		rejectURLs:    map[string]bool{direct: true},
	}
	tr, _ := testTranscriber(t, engine)

	got, err := tr.Transcribe(context.Background(), direct, []byte("audio-bytes"))
	if err != nil {
		t.Fatalf("Transcribe should recover via upload: %v", err)
	}
	if got == nil || got.Text == "" {
		t.Fatal("expected completed transcript from fallback path")
	}
	if engine.uploads != 1 {
		t.Errorf("uploads = %d, want 1", engine.uploads)
	}
	if len(engine.submits) != 2 {
		t.Fatalf("submits = %v, want direct then upload URL", engine.submits)
	}
	if engine.submits[1] != "https://engine.internal/u/1" {
		t.Errorf("second submit should use the upload URL, got %q", engine.submits[1])
	}
}

func TestTranscribeEngineError(t *testing.T) {
	engine := &fakeEngine{pollsToFinish: 2, finalStatus: StatusError, finalError: "unsupported codec"}
	tr, _ := testTranscriber(t, engine)

	_, err := tr.Transcribe(context.Background(), "", []byte("audio-bytes"))
	if !errors.Is(err, ErrEngine) {
		t.Fatalf("expected ErrEngine, got %v", err)
	}
}

func TestTranscribePollBudgetExhausted(t *testing.T) {
	engine := &fakeEngine{pollsToFinish: 1000, finalStatus: StatusCompleted}
	tr, _ := testTranscriber(t, engine)

	_, err := tr.Transcribe(context.Background(), "", []byte("audio-bytes"))
	if !errors.Is(err, ErrPollBudgetExhausted) {
		t.Fatalf("expected ErrPollBudgetExhausted, got %v", err)
	}
	if engine.polls != 10 {
		t.Errorf("polls = %d, want exactly MaxPollAttempts", engine.polls)
	}
}

func TestTranscribeNoFallbackOnPollExhaustion(t *testing.T) {
	engine := &fakeEngine{pollsToFinish: 1000, finalStatus: StatusCompleted}
	tr, _ := testTranscriber(t, engine)

	_, err := tr.Transcribe(context.Background(), "https://recordings.example.com/c1.wav", []byte("audio-bytes"))
	if !errors.Is(err, ErrPollBudgetExhausted) {
		t.Fatalf("expected ErrPollBudgetExhausted, got %v", err)
	}
	// The engine had the audio; re-uploading would just double the wait.
	if engine.uploads != 0 {
		t.Errorf("uploads = %d, want 0", engine.uploads)
	}
}

func TestMapRolesEmpty(t *testing.T) {
	MapRoles(nil) // must not panic
}
