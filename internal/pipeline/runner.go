package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run states tracked by the Runner.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

const historyLimit = 20

// RunRecord is one tracked pipeline run.
type RunRecord struct {
	ID         string     `json:"id"`
	Trigger    string     `json:"trigger"` // "api", "timer", "cli"
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Summary    *Summary   `json:"summary,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Runner serializes pipeline runs. Overlapping triggers (page loads,
// the timer, manual API calls) coalesce onto the run already in flight
// instead of starting a second one.
type Runner struct {
	pipeline *Pipeline
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	current *RunRecord
	history []*RunRecord
}

// NewRunner creates a Runner. Runs it starts are bound to the Runner's
// lifetime, not to the HTTP request that triggered them.
func NewRunner(p *Pipeline, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		pipeline: p,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Trigger starts a run unless one is already in flight, in which case
// the in-flight record is returned with started=false.
func (r *Runner) Trigger(opts DiscoverOptions, trigger string) (rec *RunRecord, started bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		return r.current, false
	}

	rec = &RunRecord{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
	r.current = rec
	go r.execute(rec, opts)
	return rec, true
}

func (r *Runner) execute(rec *RunRecord, opts DiscoverOptions) {
	r.logger.Info("pipeline run triggered", "run_id", rec.ID, "trigger", rec.Trigger)
	summary, err := r.pipeline.Run(r.ctx, opts)

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	rec.FinishedAt = &now
	rec.Summary = summary
	if err != nil {
		rec.Status = RunStatusFailed
		rec.Error = err.Error()
		r.logger.Error("pipeline run failed", "run_id", rec.ID, "error", err)
	} else {
		rec.Status = RunStatusCompleted
	}

	r.history = append([]*RunRecord{rec}, r.history...)
	if len(r.history) > historyLimit {
		r.history = r.history[:historyLimit]
	}
	r.current = nil
}

// Status reports the in-flight run (if any) and recent history,
// newest first.
func (r *Runner) Status() (current *RunRecord, history []*RunRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	history = make([]*RunRecord, len(r.history))
	copy(history, r.history)
	return r.current, history
}

// StartTimer triggers a run with the given options on a fixed interval
// until Shutdown. Timer runs coalesce with in-flight runs like any
// other trigger.
func (r *Runner) StartTimer(interval time.Duration, opts DiscoverOptions) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				r.Trigger(opts, "timer")
			}
		}
	}()
}

// Shutdown cancels any in-flight run and stops the timer.
func (r *Runner) Shutdown() {
	r.cancel()
}
