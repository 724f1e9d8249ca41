package export

import (
	"testing"
	"time"

	"callsight/internal/store"
)

func TestWorkbook(t *testing.T) {
	records := []store.Record{
		{
			ContactID:         "c-1",
			Agent:             "agent-1",
			InitiationTime:    time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
			Queue:             "support",
			DispositionTitle:  "Answered",
			CampaignName:      "spring",
			CallDurationMin:   4,
			CallDurationSec:   7,
			PrimaryCategory:   "Billing Inquiry",
			Categories:        []string{"Billing Inquiry", "Complaint"},
			SatisfactionScore: 3.5,
			CallSummary:       "Customer disputed a charge.",
			TranscriptText:    "hello",
		},
		{ContactID: "c-2"},
	}

	f, err := Workbook(records)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 records", len(rows))
	}
	if rows[0][0] != "Contact ID" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "c-1" || rows[1][7] != "Billing Inquiry" {
		t.Errorf("first record row = %v", rows[1])
	}
	if rows[1][8] != "Billing Inquiry, Complaint" {
		t.Errorf("categories cell = %q", rows[1][8])
	}
	if rows[1][6] != "4m07s" {
		t.Errorf("duration cell = %q", rows[1][6])
	}
}
