package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/SirHooke/debias-batch-processor/internal/debias"
)

// Row is one line of the flagged-entry report: an entry with N tags
// contributes N rows, each repeating the entry's record number and literal.
type Row struct {
	RecordNum string
	Literal   string
	Tag       debias.Tag
}

// Rows flattens a result into report rows, keeping entry order and then tag
// order within each entry. Entries without tags contribute nothing.
func Rows(res debias.Result) []Row {
	var rows []Row
	for _, e := range res.Entries {
		if len(e.Tags) == 0 {
			continue
		}
		recordNum, literal := splitRecordLiteral(e.Literal)
		for _, tag := range e.Tags {
			rows = append(rows, Row{RecordNum: recordNum, Literal: literal, Tag: tag})
		}
	}
	return rows
}

// splitRecordLiteral splits an input line into the leading record field and
// the remaining text. This is purely a rendering concern: the full raw line
// is what went to the API.
func splitRecordLiteral(line string) (recordNum, literal string) {
	parts := strings.SplitN(line, ",", 2)
	recordNum = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		literal = strings.TrimSpace(parts[1])
	}
	return recordNum, literal
}

const (
	pdfMargin     = 15.0 // mm
	pdfLineHeight = 4.5
	pdfCellPad    = 1.5
)

// Column widths in mm for Record #, Literal, Tag details (landscape A4).
var colWidths = [3]float64{25, 60, 182}

// pdfEpoch pins the embedded creation timestamp so identical input renders
// byte-identical output.
var pdfEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// BuildReport renders <base>.pdf under the output root when the result holds
// at least one tagged entry. It returns the written path and whether a report
// was produced; a result with no tagged entries produces nothing, which is
// the common case for clean files and not an error.
func BuildReport(outputRoot, baseName string, res debias.Result) (string, bool, error) {
	rows := Rows(res)
	if len(rows) == 0 {
		return "", false, nil
	}

	pdf := fpdf.New(fpdf.OrientationLandscape, fpdf.UnitMillimeter, fpdf.PageSizeA4, "")
	pdf.SetCreationDate(pdfEpoch)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("De-bias Report: %s", baseName), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	drawHeader(pdf)
	_, pageH := pdf.GetPageSize()
	limit := pageH - pdfMargin

	for i, row := range rows {
		cells := [3]string{
			row.RecordNum,
			row.Literal,
			fmt.Sprintf("Literal: %s\nIssue: %s\nSource: %s", row.Tag.Literal, row.Tag.Issue, row.Tag.Source),
		}
		h := rowHeight(pdf, cells)
		if pdf.GetY()+h > limit {
			pdf.AddPage()
			drawHeader(pdf)
		}
		drawRow(pdf, cells, h, i%2 == 1)
	}

	path := filepath.Join(outputRoot, baseName+".pdf")
	if err := outputAtomic(pdf, path); err != nil {
		return "", false, fmt.Errorf("write pdf report: %w", err)
	}
	return path, true, nil
}

func outputAtomic(pdf *fpdf.Fpdf, path string) error {
	var buf strings.Builder
	if err := pdf.Output(&buf); err != nil {
		return err
	}
	return writeFileAtomic(path, []byte(buf.String()))
}

func drawHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(0x4a, 0x4a, 0x8a)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(128, 128, 128)
	titles := [3]string{"Record #", "Literal", "Tag details"}
	for i, title := range titles {
		pdf.CellFormat(colWidths[i], pdfLineHeight+2*pdfCellPad, title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)
}

func rowHeight(pdf *fpdf.Fpdf, cells [3]string) float64 {
	maxLines := 1
	for i, text := range cells {
		n := 0
		for _, part := range strings.Split(text, "\n") {
			lines := pdf.SplitText(part, colWidths[i]-2*pdfCellPad)
			if len(lines) == 0 {
				n++
				continue
			}
			n += len(lines)
		}
		if n > maxLines {
			maxLines = n
		}
	}
	return float64(maxLines)*pdfLineHeight + 2*pdfCellPad
}

func drawRow(pdf *fpdf.Fpdf, cells [3]string, h float64, shaded bool) {
	x := pdfMargin
	y := pdf.GetY()
	for i, text := range cells {
		w := colWidths[i]
		if shaded {
			pdf.SetFillColor(0xf0, 0xf0, 0xf8)
			pdf.Rect(x, y, w, h, "FD")
		} else {
			pdf.Rect(x, y, w, h, "D")
		}
		pdf.SetXY(x+pdfCellPad, y+pdfCellPad)
		pdf.MultiCell(w-2*pdfCellPad, pdfLineHeight, text, "", "L", false)
		x += w
	}
	pdf.SetXY(pdfMargin, y+h)
}
