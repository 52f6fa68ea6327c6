package services

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

const exportSheet = "Screeners"

var screenerExportHeader = []string{
	"Instance ID",
	"Screener",
	"Trigger",
	"Completed At",
	"Total Score",
	"Severity",
	"Positive",
}

// writeScreenerWorkbook renders completed screeners of one student as an xlsx workbook
func writeScreenerWorkbook(w io.Writer, student *models.User, instances []*models.ScreenerInstance) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetCellValue(exportSheet, "A1", fmt.Sprintf("%s <%s>", student.FullName, student.Email)); err != nil {
		return err
	}

	for col, header := range screenerExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 3)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "G", 18); err != nil {
		return err
	}

	for i, instance := range instances {
		row := []interface{}{
			instance.ID,
			string(instance.ScreenerType),
			string(instance.TriggerSource),
			"",
			"",
			"",
			"",
		}
		if instance.CompletedAt != nil {
			row[3] = instance.CompletedAt.UTC().Format(time.RFC3339)
		}
		if instance.Score != nil {
			row[4] = instance.Score.TotalScore
			row[5] = string(instance.Score.SeverityBand)
			row[6] = yesNo(instance.Score.Positive)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+4, err)
		}
	}

	return f.Write(w)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
