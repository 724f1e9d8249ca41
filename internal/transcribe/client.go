package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production engine endpoint.
const DefaultBaseURL = "https://api.assemblyai.com/v2"

// ClientConfig configures the engine HTTP client.
type ClientConfig struct {
	APIKey     string
	BaseURL    string        // override for tests
	HTTPClient *http.Client  // override for tests
	Timeout    time.Duration // per-request timeout when HTTPClient is nil
}

// Client is a thin HTTP client for the engine's upload, submit, and
// status endpoints. Polling cadence lives in Transcriber, not here.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates an engine client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 2 * time.Minute
		}
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  cfg.HTTPClient,
	}
}

// Upload pushes raw audio bytes to the engine's media store and returns
// the engine-internal URL to submit against.
func (c *Client) Upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("upload audio: engine returned no upload_url")
	}
	return out.UploadURL, nil
}

// SubmitOptions tunes a transcription job.
type SubmitOptions struct {
	SpeakersExpected int
}

// submitRequest is the engine's job creation payload. Diarization,
// sentiment, entity detection, and summarization are always on; the
// pipeline has no use for a bare transcript.
type submitRequest struct {
	AudioURL          string `json:"audio_url"`
	SpeakerLabels     bool   `json:"speaker_labels"`
	SpeakersExpected  int    `json:"speakers_expected,omitempty"`
	SentimentAnalysis bool   `json:"sentiment_analysis"`
	EntityDetection   bool   `json:"entity_detection"`
	Summarization     bool   `json:"summarization"`
	SummaryModel      string `json:"summary_model,omitempty"`
	SummaryType       string `json:"summary_type,omitempty"`
}

// Submit creates a transcription job for audio reachable at audioURL
// and returns the job ID.
func (c *Client) Submit(ctx context.Context, audioURL string, opts SubmitOptions) (string, error) {
	body, err := json.Marshal(submitRequest{
		AudioURL:          audioURL,
		SpeakerLabels:     true,
		SpeakersExpected:  opts.SpeakersExpected,
		SentimentAnalysis: true,
		EntityDetection:   true,
		Summarization:     true,
		SummaryModel:      "conversational",
		SummaryType:       "paragraph",
	})
	if err != nil {
		return "", fmt.Errorf("marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	if out.Status == StatusError {
		return "", fmt.Errorf("submit job: %w: %s", ErrEngine, out.Error)
	}
	if out.ID == "" {
		return "", fmt.Errorf("submit job: engine returned no job id")
	}
	return out.ID, nil
}

// jobResponse is the engine's poll payload, converted to JobStatus so
// the engine's wire shape stops here.
type jobResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Error      string `json:"error"`
	Text       string `json:"text"`
	Summary    string `json:"summary"`
	Utterances []struct {
		Speaker    string  `json:"speaker"`
		Text       string  `json:"text"`
		Start      int     `json:"start"`
		End        int     `json:"end"`
		Confidence float64 `json:"confidence"`
	} `json:"utterances"`
	SentimentResults []struct {
		Text       string  `json:"text"`
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
	} `json:"sentiment_analysis_results"`
	Entities []struct {
		EntityType string `json:"entity_type"`
		Text       string `json:"text"`
	} `json:"entities"`
}

// GetStatus fetches the current state of a job.
func (c *Client) GetStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("create status request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	var out jobResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("poll job %s: %w", jobID, err)
	}

	status := &JobStatus{ID: out.ID, Status: out.Status, Error: out.Error}
	if out.Status != StatusCompleted {
		return status, nil
	}

	tr := &Transcript{
		Text:    out.Text,
		Summary: out.Summary,
	}
	for _, u := range out.Utterances {
		tr.Utterances = append(tr.Utterances, Utterance{
			Speaker:    u.Speaker,
			Text:       u.Text,
			StartMs:    u.Start,
			EndMs:      u.End,
			Confidence: u.Confidence,
		})
	}
	for _, s := range out.SentimentResults {
		tr.Sentiments = append(tr.Sentiments, Sentiment{
			Text:       s.Text,
			Sentiment:  s.Sentiment,
			Confidence: s.Confidence,
		})
	}
	for _, e := range out.Entities {
		tr.Entities = append(tr.Entities, Entity{Type: e.EntityType, Text: e.Text})
	}
	MapRoles(tr.Utterances)
	status.Transcript = tr
	return status, nil
}

// do executes a request and decodes the JSON response into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("engine returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode engine response: %w", err)
	}
	return nil
}
