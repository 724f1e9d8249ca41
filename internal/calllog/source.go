package calllog

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// excludedDispositions are call outcomes that never produce a usable
// recording. They are filtered at the query so the pipeline never sees them.
var excludedDispositions = []string{
	"No Answer",
	"Voicemail",
	"Busy",
	"Abandoned",
	"Invalid Endpoint",
}

// Source queries the upstream call log.
type Source struct {
	db *gorm.DB
}

// NewSource creates a call log source over an open database handle.
func NewSource(db *gorm.DB) *Source {
	return &Source{db: db}
}

// FetchRange returns call logs whose initiation time falls in [start, end),
// excluding dispositions that cannot have been recorded and rows with no
// agent or disposition. Results are most-recent-first.
func (s *Source) FetchRange(ctx context.Context, start, end time.Time) ([]Record, error) {
	var rows []Record
	err := s.db.WithContext(ctx).
		Where("initiation_timestamp >= ? AND initiation_timestamp < ?", start, end).
		Where("agent IS NOT NULL AND agent <> ''").
		Where("disposition_title IS NOT NULL AND disposition_title <> ''").
		Where("disposition_title NOT IN ?", excludedDispositions).
		Order("initiation_timestamp DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch call logs: %w", err)
	}
	return rows, nil
}

// Get returns a single call log by contact ID.
func (s *Source) Get(ctx context.Context, contactID string) (Record, error) {
	var row Record
	err := s.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Take(&row).Error
	if err != nil {
		return Record{}, fmt.Errorf("get call log %s: %w", contactID, err)
	}
	return row, nil
}

// Ping verifies the underlying database connection.
func (s *Source) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
