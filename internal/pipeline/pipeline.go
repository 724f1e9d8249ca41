// Package pipeline discovers calls that lack transcriptions and drives
// each one through fetch, validation, transcription, categorization,
// and persistence.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"callsight/internal/calllog"
	"callsight/internal/categorize"
	"callsight/internal/recordings"
	"callsight/internal/store"
	"callsight/internal/transcribe"
)

// CallSource reads call metadata for a date range.
type CallSource interface {
	FetchRange(ctx context.Context, start, end time.Time) ([]calllog.Record, error)
}

// RecordStore is the durable transcription-record store.
type RecordStore interface {
	Exists(ctx context.Context, contactID string) (bool, error)
	ExistingKeys(ctx context.Context, contactIDs []string) (map[string]bool, error)
	Upsert(ctx context.Context, rec store.Record) error
}

// PathResolver expands a stored recording location into candidate
// remote paths.
type PathResolver interface {
	Candidates(location string) []string
}

// AudioFetcher downloads recording bytes given candidate paths.
type AudioFetcher interface {
	Fetch(ctx context.Context, candidates []string) (*recordings.FetchResult, error)
}

// Transcriber runs audio through the transcription engine.
type Transcriber interface {
	Transcribe(ctx context.Context, directURL string, audio []byte) (*transcribe.Transcript, error)
}

// Categorizer labels a completed transcript.
type Categorizer interface {
	Categorize(ctx context.Context, utterances []transcribe.Utterance) (categorize.Result, error)
}

// Config configures a Pipeline.
type Config struct {
	BatchSize    int
	BatchDelay   time.Duration
	MaxAttempts  int // per-contact failure ceiling
	LookbackDays int // default discovery window

	// PublicBaseURL, when set, is joined with resolved recording paths
	// to give the transcription engine a directly-fetchable URL instead
	// of re-uploading the bytes.
	PublicBaseURL string

	Logger *slog.Logger
}

// Pipeline wires the components together. One Pipeline serves the whole
// process; the ProcessingLock inside it is what keeps overlapping run
// triggers from double-processing a call.
type Pipeline struct {
	source      CallSource
	records     RecordStore
	resolver    PathResolver
	fetcher     AudioFetcher
	transcriber Transcriber
	categorizer Categorizer

	locks *ProcessingLock
	cfg   Config
}

// New creates a Pipeline.
func New(cfg Config, source CallSource, records RecordStore, resolver PathResolver,
	fetcher AudioFetcher, transcriber Transcriber, categorizer Categorizer) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 4
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 14
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		source:      source,
		records:     records,
		resolver:    resolver,
		fetcher:     fetcher,
		transcriber: transcriber,
		categorizer: categorizer,
		locks:       NewProcessingLock(),
		cfg:         cfg,
	}
}

// Locks exposes the lock table for status reporting and manual resets.
func (p *Pipeline) Locks() *ProcessingLock { return p.locks }

// publicURL maps a resolved remote path to an engine-reachable URL, or
// "" when no public base is configured.
func (p *Pipeline) publicURL(resolvedPath string) string {
	if p.cfg.PublicBaseURL == "" {
		return ""
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(resolvedPath, "./"), "/")
	return strings.TrimSuffix(p.cfg.PublicBaseURL, "/") + "/" + rel
}
