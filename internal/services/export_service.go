package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"bantayani/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Detections"

var exportHeader = []string{
	"ID", "Reported At", "Farmer", "Farmer Email", "Crop", "Pest", "Scientific Name",
	"Confidence", "Status", "Latitude", "Longitude", "Location", "Farmer Notes",
	"Reviewed At", "Reviewer Notes", "Image URL",
}

// Export renders every detection into an XLSX workbook. Reviewers only.
func (s *DetectionService) Export(ctx context.Context, caller models.Caller, filter models.DetectionFilter) ([]byte, error) {
	if err := requireRole(caller, models.RoleLGUAdmin); err != nil {
		return nil, err
	}
	views, err := s.List(ctx, caller, filter)
	if err != nil {
		return nil, err
	}
	return BuildDetectionWorkbook(views)
}

func BuildDetectionWorkbook(views []models.DetectionView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2F0D9"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range exportHeader {
		if err := setCell(f, col+1, 1, header); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
	if err := f.SetCellStyle(exportSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, v := range views {
		row := i + 2
		values := []any{
			v.ID.String(), v.CreatedAt.Format(time.RFC3339), deref(v.FarmerName), deref(v.FarmerEmail),
			v.CropType, v.PestType, deref(v.ScientificName), v.Confidence, string(v.Status),
			derefFloat(v.Latitude), derefFloat(v.Longitude), deref(v.LocationName), deref(v.FarmerNotes),
			formatTime(v.ReviewedAt), deref(v.ReviewerNotes), v.ImageURL,
		}
		for col, value := range values {
			if value == nil || value == "" {
				continue
			}
			if err := setCell(f, col+1, row, value); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellValue(exportSheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func derefFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
