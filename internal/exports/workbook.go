package exports

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/resourcebook/backend/internal/models"
)

const sheetName = "Bookings"

var columns = []string{
	"ID", "User ID", "Resource ID", "Status", "Start", "End",
	"Approved By", "Approved At", "Completed At", "Cancelled At", "Created At",
}

// Render writes the bookings as an xlsx workbook with a single sheet.
func Render(w io.Writer, bookings []models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)
	if err := writeRow(f, 1, toCells(columns)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheetName, "A1", last, style)
	}

	for i, b := range bookings {
		row := []interface{}{
			b.ID, b.UserID, b.ResourceID, string(b.Status),
			stamp(&b.StartTime), stamp(&b.EndTime),
			optionalID(b.ApprovedBy), stamp(b.ApprovedAt), stamp(b.CompletedAt), stamp(b.CancelledAt),
			stamp(&b.CreatedAt),
		}
		if err := writeRow(f, i+2, row); err != nil {
			return fmt.Errorf("write booking %d: %w", b.ID, err)
		}
	}
	return f.Write(w)
}

func writeRow(f *excelize.File, row int, values []interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toCells(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// stamp renders timestamps as RFC3339 text so the sheet does not depend on the reader's locale.
func stamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func optionalID(id *int64) interface{} {
	if id == nil {
		return ""
	}
	return *id
}
