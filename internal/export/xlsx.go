// Package export renders transcription records as spreadsheet
// workbooks for offline analysis.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"callsight/internal/store"
)

const sheetName = "Transcriptions"

var columns = []string{
	"Contact ID", "Agent", "Initiation Time", "Queue", "Disposition",
	"Campaign", "Duration", "Primary Category", "Categories",
	"Satisfaction", "Summary", "Transcript",
}

// Workbook builds an xlsx workbook with one row per transcription
// record. The caller owns closing the returned file.
func Workbook(records []store.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for rowIdx, rec := range records {
		values := []any{
			rec.ContactID,
			rec.Agent,
			rec.InitiationTime.Format("2006-01-02 15:04:05"),
			rec.Queue,
			rec.DispositionTitle,
			rec.CampaignName,
			fmt.Sprintf("%dm%02ds", rec.CallDurationMin, rec.CallDurationSec),
			rec.PrimaryCategory,
			strings.Join(rec.Categories, ", "),
			rec.SatisfactionScore,
			rec.CallSummary,
			rec.TranscriptText,
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", rowIdx+1, err)
			}
		}
	}

	return f, nil
}
