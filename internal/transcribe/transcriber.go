package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Config configures a Transcriber.
type Config struct {
	Client           *Client
	PollInterval     time.Duration
	MaxPollAttempts  int
	SpeakersExpected int
	Logger           *slog.Logger
}

// Transcriber drives a job from submission to a completed transcript.
type Transcriber struct {
	client           *Client
	pollInterval     time.Duration
	maxPollAttempts  int
	speakersExpected int
	logger           *slog.Logger
}

// New creates a Transcriber.
func New(cfg Config) *Transcriber {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 60
	}
	if cfg.SpeakersExpected <= 0 {
		cfg.SpeakersExpected = 2
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Transcriber{
		client:           cfg.Client,
		pollInterval:     cfg.PollInterval,
		maxPollAttempts:  cfg.MaxPollAttempts,
		speakersExpected: cfg.SpeakersExpected,
		logger:           cfg.Logger,
	}
}

// Transcribe runs one call through the engine. When directURL is
// non-empty the engine is pointed at it so the audio never transits this
// process twice; if that submission fails or the engine cannot fetch the
// URL, the already-downloaded bytes are uploaded and the job retried.
// Poll-budget exhaustion does not trigger the fallback: the engine had
// the audio and was merely slow.
func (t *Transcriber) Transcribe(ctx context.Context, directURL string, audio []byte) (*Transcript, error) {
	if directURL != "" {
		tr, err := t.run(ctx, directURL)
		if err == nil {
			return tr, nil
		}
		if ctx.Err() != nil || !fallbackWorthy(err) {
			return nil, err
		}
		t.logger.Warn("direct-url transcription failed, re-uploading audio",
			"url", directURL, "error", err)
	}

	uploadURL, err := t.client.Upload(ctx, audio)
	if err != nil {
		return nil, err
	}
	return t.run(ctx, uploadURL)
}

// fallbackWorthy reports whether a direct-URL failure could be cured by
// uploading the bytes ourselves.
func fallbackWorthy(err error) bool {
	return !errors.Is(err, ErrPollBudgetExhausted)
}

// run submits a job for audioURL and polls it to a terminal state.
func (t *Transcriber) run(ctx context.Context, audioURL string) (*Transcript, error) {
	jobID, err := t.client.Submit(ctx, audioURL, SubmitOptions{
		SpeakersExpected: t.speakersExpected,
	})
	if err != nil {
		return nil, err
	}
	t.logger.Debug("transcription job submitted", "job_id", jobID)

	for attempt := 1; attempt <= t.maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.pollInterval):
		}

		status, err := t.client.GetStatus(ctx, jobID)
		if err != nil {
			// Transient poll failure; the job keeps running server-side.
			t.logger.Debug("poll failed", "job_id", jobID, "attempt", attempt, "error", err)
			continue
		}

		switch status.Status {
		case StatusCompleted:
			t.logger.Info("transcription completed",
				"job_id", jobID, "utterances", len(status.Transcript.Utterances), "polls", attempt)
			return status.Transcript, nil
		case StatusError:
			return nil, fmt.Errorf("job %s: %w: %s", jobID, ErrEngine, status.Error)
		case StatusQueued, StatusProcessing:
			// keep waiting
		default:
			t.logger.Warn("unknown job status", "job_id", jobID, "status", status.Status)
		}
	}

	return nil, fmt.Errorf("job %s: %w after %d attempts", jobID, ErrPollBudgetExhausted, t.maxPollAttempts)
}
