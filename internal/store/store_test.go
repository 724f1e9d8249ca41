package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"callsight/internal/db"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	handle, err := db.Open("sqlite", filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s, err := New(handle)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func sampleRecord(contactID string) Record {
	return Record{
		ContactID:        contactID,
		Agent:            "alice",
		InitiationTime:   time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		Queue:            "support",
		DispositionTitle: "Resolved",
		TranscriptText:   "Agent: Hello.\nCustomer: Hi.",
		SpeakerData: []Utterance{
			{Speaker: "A", Role: "Agent", Text: "Hello.", StartMs: 0, EndMs: 900, Confidence: 0.97},
			{Speaker: "B", Role: "Customer", Text: "Hi.", StartMs: 1000, EndMs: 1500, Confidence: 0.95},
		},
		SentimentAnalysis: []SentimentResult{
			{Text: "Hello.", Sentiment: "NEUTRAL", Confidence: 0.8},
		},
		Entities:        []Entity{{Type: "person_name", Text: "Alice"}},
		CallSummary:     "Short greeting call.",
		PrimaryCategory: "Billing",
		Categories:      []string{"Billing", "Account"},
	}
}

func TestUpsertRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, sampleRecord("c-1")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.Get(ctx, "c-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PrimaryCategory != "Billing" {
		t.Errorf("primary category = %q", got.PrimaryCategory)
	}
	if len(got.SpeakerData) != 2 {
		t.Fatalf("speaker data length = %d", len(got.SpeakerData))
	}
	if got.SpeakerData[0].Role != "Agent" || got.SpeakerData[0].Speaker != "A" {
		t.Errorf("utterance 0 = %+v", got.SpeakerData[0])
	}
	if len(got.Categories) != 2 {
		t.Errorf("categories = %v", got.Categories)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestUpsertIsAtMostOncePerContact(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := sampleRecord("c-dup")
	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Reprocessing the same call must update, never duplicate.
	rec.PrimaryCategory = "Complaints"
	rec.CreatedAt = time.Time{}
	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	if err := s.db.Model(&recordRow{}).Where("contact_id = ?", "c-dup").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 row, got %d", count)
	}

	got, err := s.Get(ctx, "c-dup")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PrimaryCategory != "Complaints" {
		t.Errorf("record not updated: %q", got.PrimaryCategory)
	}
}

func TestGetNotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExistingKeysBatches(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// More IDs than one lookup batch to exercise batching.
	var all []string
	for i := 0; i < lookupBatchSize+50; i++ {
		id := fmt.Sprintf("c-%03d", i)
		all = append(all, id)
		if i%2 == 0 {
			if err := s.Upsert(ctx, sampleRecord(id)); err != nil {
				t.Fatalf("upsert %s: %v", id, err)
			}
		}
	}

	existing, err := s.ExistingKeys(ctx, all)
	if err != nil {
		t.Fatalf("ExistingKeys: %v", err)
	}
	for i, id := range all {
		want := i%2 == 0
		if existing[id] != want {
			t.Errorf("existing[%s] = %v, want %v", id, existing[id], want)
		}
	}
}

func TestListRange(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := sampleRecord(fmt.Sprintf("r-%d", i))
		rec.InitiationTime = time.Date(2026, 3, 10+i, 9, 0, 0, 0, time.UTC)
		if err := s.Upsert(ctx, rec); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	start := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	got, err := s.ListRange(ctx, start, end, 0)
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].ContactID != "r-3" {
		t.Errorf("expected most-recent-first, got %s", got[0].ContactID)
	}

	capped, err := s.ListRange(ctx, start, end, 2)
	if err != nil {
		t.Fatalf("ListRange capped: %v", err)
	}
	if len(capped) != 2 {
		t.Errorf("expected 2 records with limit, got %d", len(capped))
	}
}
