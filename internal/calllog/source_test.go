package calllog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"callsight/internal/db"
)

func testSource(t *testing.T) *Source {
	t.Helper()
	handle, err := db.Open("sqlite", filepath.Join(t.TempDir(), "calls.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := handle.AutoMigrate(&Record{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSource(handle)
}

func seed(t *testing.T, s *Source, rows ...Record) {
	t.Helper()
	for i := range rows {
		if err := s.db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestFetchRangeFilters(t *testing.T) {
	s := testSource(t)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	seed(t, s,
		Record{ContactID: "c1", Agent: "alice", DispositionTitle: "Sale", InitiationTime: base, RecordingLocation: "c1.wav"},
		Record{ContactID: "c2", Agent: "bob", DispositionTitle: "No Answer", InitiationTime: base.Add(time.Minute)},
		Record{ContactID: "c3", Agent: "", DispositionTitle: "Sale", InitiationTime: base.Add(2 * time.Minute)},
		Record{ContactID: "c4", Agent: "carol", DispositionTitle: "Callback", InitiationTime: base.Add(3 * time.Minute), RecordingLocation: "c4.wav"},
		Record{ContactID: "c5", Agent: "dave", DispositionTitle: "Sale", InitiationTime: base.Add(48 * time.Hour)},
	)

	got, err := s.FetchRange(context.Background(), base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	// most-recent-first
	if got[0].ContactID != "c4" || got[1].ContactID != "c1" {
		t.Errorf("unexpected order: %s, %s", got[0].ContactID, got[1].ContactID)
	}
}

func TestHasRecording(t *testing.T) {
	tests := []struct {
		location string
		want     bool
	}{
		{"", false},
		{"abc-123.wav", true},
		{"./2026/03/10/abc-123.WAV", true},
		{"abc-123.mp3", true},
		{"abc-123.m4a", true},
		{"notes.txt", false},
		{"abc-123", false},
	}
	for _, tt := range tests {
		r := Record{RecordingLocation: tt.location}
		if got := r.HasRecording(); got != tt.want {
			t.Errorf("HasRecording(%q) = %v, want %v", tt.location, got, tt.want)
		}
	}
}

func TestDuration(t *testing.T) {
	r := Record{CallDurationMin: 3, CallDurationSec: 25}
	if got := r.Duration(); got != 3*time.Minute+25*time.Second {
		t.Errorf("Duration = %v", got)
	}
}
