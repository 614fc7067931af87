package payroll

import (
	"fmt"
	"io"
	"strconv"

	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/ingest"
	"github.com/claude/setops/internal/models"
	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first worksheet of a payroll workbook.
func ParseXLSX(r io.Reader, registry *gyms.Registry) ([]models.FinancialRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading worksheet %s: %w", sheet, err)
	}

	var header []string
	var body [][]string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		body = append(body, serialDates(row))
	}
	if header == nil {
		return nil, ingest.ErrEmpty
	}
	return FromRows(header, body, registry)
}

// serialDates rewrites Excel date serials into ISO dates so the shared date
// reader understands them. Only the plausible serial range is touched.
func serialDates(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = cell
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || v < 30000 || v > 80000 || v != float64(int(v)) {
			continue
		}
		if t, err := excelize.ExcelDateToTime(v, false); err == nil {
			out[i] = t.Format("2006-01-02")
		}
	}
	return out
}
