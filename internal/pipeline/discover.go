package pipeline

import (
	"context"
	"fmt"
	"time"

	"callsight/internal/calllog"
)

// DiscoverOptions scope a discovery pass.
type DiscoverOptions struct {
	Start   time.Time
	End     time.Time
	Limit   int             // 0 = no cap
	Exclude map[string]bool // externally supplied contact_ids to skip
}

// Discover returns the calls in range that have a plausible recording,
// no persisted record, no active lock, and attempts left under the
// retry ceiling. Order follows the source (most recent first). Running
// it twice with no intervening writes returns the same set.
func (p *Pipeline) Discover(ctx context.Context, opts DiscoverOptions) ([]calllog.Record, error) {
	if opts.End.IsZero() {
		opts.End = time.Now()
	}
	if opts.Start.IsZero() {
		opts.Start = opts.End.AddDate(0, 0, -p.cfg.LookbackDays)
	}

	calls, err := p.source.FetchRange(ctx, opts.Start, opts.End)
	if err != nil {
		return nil, fmt.Errorf("fetch call logs: %w", err)
	}

	// Only calls with a usable recording path are worth an existence
	// lookup; this also keeps the key batch small.
	var candidates []calllog.Record
	var ids []string
	for _, c := range calls {
		if !c.HasRecording() {
			continue
		}
		candidates = append(candidates, c)
		ids = append(ids, c.ContactID)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	persisted, err := p.records.ExistingKeys(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check persisted keys: %w", err)
	}

	var missing []calllog.Record
	for _, c := range candidates {
		switch {
		case persisted[c.ContactID]:
		case opts.Exclude[c.ContactID]:
		case p.locks.Locked(c.ContactID):
		case p.locks.Exhausted(c.ContactID, p.cfg.MaxAttempts):
		default:
			missing = append(missing, c)
			if opts.Limit > 0 && len(missing) == opts.Limit {
				return missing, nil
			}
		}
	}
	return missing, nil
}
