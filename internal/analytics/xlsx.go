package analytics

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes the aggregated statistics as a workbook with a "Files"
// sheet (one row per artifact) and an "Issues" sheet (per-language flagged
// phrase counts).
func ExportXLSX(stats Stats, path string) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	const filesSheet = "Files"
	idx, err := f.NewSheet(filesSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	fileHeaders := []string{"File", "Language", "Records", "Tagged Records", "Tags"}
	for i, h := range fileHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(filesSheet, cell, h); err != nil {
			return err
		}
	}
	for r, fs := range stats.Files {
		values := []any{fs.File, fs.Language, fs.Records, fs.Tagged, fs.Tags}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(filesSheet, cell, v); err != nil {
				return err
			}
		}
	}

	const issuesSheet = "Issues"
	if _, err := f.NewSheet(issuesSheet); err != nil {
		return err
	}
	issueHeaders := []string{"Language", "Flagged Phrase", "Count"}
	for i, h := range issueHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(issuesSheet, cell, h); err != nil {
			return err
		}
	}
	for r, ic := range stats.Issues {
		values := []any{ic.Language, ic.Literal, ic.Count}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(issuesSheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
