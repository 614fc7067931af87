package targets

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// CSVHeader is the fixed first line of a wall-target CSV export.
const CSVHeader = "Gym, Wall ID, Display Name, Type, Target Volume, Efficiency"

var sheetColumns = []string{"Gym", "Wall ID", "Display Name", "Type", "Target Volume", "Efficiency"}

func (s *Store) rows() [][]string {
	var out [][]string
	for _, gym := range s.Gyms() {
		for _, t := range s.GymWalls(gym) {
			out = append(out, []string{
				gym,
				t.Wall,
				t.DisplayName,
				string(t.Type),
				strconv.FormatFloat(t.TargetVolume, 'f', -1, 64),
				strconv.FormatFloat(t.TargetEfficiency, 'f', -1, 64),
			})
		}
	}
	return out
}

// WriteCSV writes every wall target, grouped by gym.
func (s *Store) WriteCSV(w io.Writer) error {
	if _, err := io.WriteString(w, CSVHeader+"\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(s.rows()); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

// WriteXLSX writes the same table as WriteCSV into a single-sheet workbook.
func (s *Store) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Wall Targets"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	header := make([]any, len(sheetColumns))
	for i, c := range sheetColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range s.rows() {
		vol, _ := strconv.ParseFloat(r[4], 64)
		eff, _ := strconv.ParseFloat(r[5], 64)
		row := []any{r[0], r[1], r[2], r[3], vol, eff}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
