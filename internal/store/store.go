package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when no record exists for a contact ID.
var ErrNotFound = errors.New("transcription record not found")

// lookupBatchSize bounds how many contact IDs a single existence query
// carries. Matches the upstream store's request size limits.
const lookupBatchSize = 100

// Store reads and writes transcription records.
type Store struct {
	db *gorm.DB
}

// New creates a Store and ensures the schema exists.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&recordRow{}); err != nil {
		return nil, fmt.Errorf("migrate transcriptions: %w", err)
	}
	return &Store{db: db}, nil
}

// Exists reports whether a record exists for the contact ID.
func (s *Store) Exists(ctx context.Context, contactID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&recordRow{}).
		Where("contact_id = ?", contactID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("existence check %s: %w", contactID, err)
	}
	return count > 0, nil
}

// ExistingKeys returns the subset of contactIDs that already have a
// record, querying in bounded batches.
func (s *Store) ExistingKeys(ctx context.Context, contactIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(contactIDs))
	for start := 0; start < len(contactIDs); start += lookupBatchSize {
		end := start + lookupBatchSize
		if end > len(contactIDs) {
			end = len(contactIDs)
		}

		var found []string
		err := s.db.WithContext(ctx).Model(&recordRow{}).
			Where("contact_id IN ?", contactIDs[start:end]).
			Pluck("contact_id", &found).Error
		if err != nil {
			return nil, fmt.Errorf("batched existence lookup: %w", err)
		}
		for _, id := range found {
			existing[id] = true
		}
	}
	return existing, nil
}

// Get returns the record for a contact ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, contactID string) (Record, error) {
	var row recordRow
	err := s.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get record %s: %w", contactID, err)
	}
	return row.toRecord(), nil
}

// ListRange returns records whose initiation time falls in [start, end),
// most-recent-first, optionally truncated to limit.
func (s *Store) ListRange(ctx context.Context, start, end time.Time, limit int) ([]Record, error) {
	q := s.db.WithContext(ctx).
		Where("initiation_timestamp >= ? AND initiation_timestamp < ?", start, end).
		Order("initiation_timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []recordRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// Upsert writes a record keyed by contact_id. The write is a single
// atomic INSERT ... ON CONFLICT DO UPDATE, so two concurrent writers for
// the same contact can never produce a duplicate row. created_at is
// preserved on conflict; everything else is overwritten.
func (s *Store) Upsert(ctx context.Context, rec Record) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	row, err := toRow(rec)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contact_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"agent", "initiation_timestamp", "queue", "disposition_title",
			"campaign_name", "campaign_id", "customer_endpoint",
			"call_duration_min", "call_duration_sec", "hold_time_sec", "queue_time_sec",
			"recording_location", "transcript_text", "speaker_data",
			"sentiment_analysis", "entities", "call_summary",
			"primary_category", "categories", "satisfaction_score", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", rec.ContactID, err)
	}
	return nil
}

// Ping verifies the underlying database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
