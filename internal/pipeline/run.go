package pipeline

import (
	"context"
	"time"
)

// CallError is one failed call in a run summary.
type CallError struct {
	ContactID string `json:"contact_id"`
	Error     string `json:"error"`
	Kind      string `json:"kind"`
}

// Summary aggregates the outcome of one pipeline run.
type Summary struct {
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Discovered int         `json:"discovered"`
	Processed  int         `json:"processed"`
	Succeeded  int         `json:"succeeded"`
	Skipped    int         `json:"skipped"`
	Failed     int         `json:"failed"`
	Errors     []CallError `json:"errors,omitempty"`
}

// Run discovers missing work and processes it in fixed-size sequential
// batches with an inter-batch delay. A failing call is recorded in the
// summary and never aborts the batch or the run; only context
// cancellation stops the run early.
func (p *Pipeline) Run(ctx context.Context, opts DiscoverOptions) (*Summary, error) {
	summary := &Summary{StartedAt: time.Now()}
	defer func() {
		summary.FinishedAt = time.Now()
		p.locks.ReleaseAll()
	}()

	missing, err := p.Discover(ctx, opts)
	if err != nil {
		return summary, err
	}
	summary.Discovered = len(missing)
	if len(missing) == 0 {
		p.cfg.Logger.Info("no missing transcriptions in range")
		return summary, nil
	}
	p.cfg.Logger.Info("pipeline run starting",
		"missing", len(missing), "batch_size", p.cfg.BatchSize)

	for batchStart := 0; batchStart < len(missing); batchStart += p.cfg.BatchSize {
		if batchStart > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(p.cfg.BatchDelay):
			}
		}

		end := batchStart + p.cfg.BatchSize
		if end > len(missing) {
			end = len(missing)
		}

		for _, call := range missing[batchStart:end] {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			// Last-moment guard: another process may have finished this
			// call since discovery.
			done, err := p.records.Exists(ctx, call.ContactID)
			if err == nil && done {
				summary.Skipped++
				continue
			}

			summary.Processed++
			if err := p.attempt(ctx, call); err != nil {
				if ctx.Err() != nil {
					return summary, ctx.Err()
				}
				summary.Failed++
				summary.Errors = append(summary.Errors, CallError{
					ContactID: call.ContactID,
					Error:     err.Error(),
					Kind:      classify(err),
				})
				p.cfg.Logger.Error("call processing failed",
					"contact_id", call.ContactID, "kind", classify(err), "error", err)
				continue
			}
			summary.Succeeded++
		}
	}

	p.cfg.Logger.Info("pipeline run finished",
		"discovered", summary.Discovered, "succeeded", summary.Succeeded,
		"failed", summary.Failed, "skipped", summary.Skipped)
	return summary, nil
}
