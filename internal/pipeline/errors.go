package pipeline

import (
	"context"
	"errors"

	"callsight/internal/recordings"
	"callsight/internal/transcribe"
)

// ErrValidationFailed marks downloaded bytes that do not look like
// audio. Terminal for the call; the verdict reason travels in the wrap.
var ErrValidationFailed = errors.New("audio validation failed")

// Failure kinds reported in run summaries.
const (
	KindNotFound         = "not_found"
	KindValidationFailed = "validation_failed"
	KindTransportTimeout = "transport_timeout"
	KindEngineError      = "engine_error"
	KindOther            = "other"
)

// classify buckets a per-call error for summary reporting.
func classify(err error) string {
	switch {
	case errors.Is(err, recordings.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidationFailed):
		return KindValidationFailed
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, transcribe.ErrPollBudgetExhausted):
		return KindTransportTimeout
	case errors.Is(err, transcribe.ErrEngine):
		return KindEngineError
	default:
		return KindOther
	}
}
