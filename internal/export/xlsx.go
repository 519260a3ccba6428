package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	solutionSheet  = "Solution"
	placementSheet = "Placements"
)

// ExportManifest writes a spreadsheet with the per-type solution on one sheet
// and every placed box, in load order, on another.
func ExportManifest(path string, plan Plan) error {
	if len(plan.Stats.Placements) == 0 {
		return ErrNoPlacements
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), solutionSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(placementSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E6E6E6"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	solution := [][]interface{}{
		{"Step", "Type", "Label", "Length", "Width", "Height", "Rotated", "Count", "Min", "Max", "Value"},
	}
	for i, a := range plan.Stats.BestSolution {
		rotated := "no"
		if a.Rotation == 1 {
			rotated = "yes"
		}
		row := []interface{}{i + 1, a.Type, plan.label(a.Type), 0, 0, 0, rotated, a.Count, 0, 0, 0.0}
		if bt := plan.Problem.FindBoxType(a.Type); bt != nil {
			row[3], row[4], row[5] = bt.Size.Length, bt.Size.Width, bt.Size.Height
			row[8], row[9] = bt.MinCount, bt.MaxCount
			row[10] = bt.Value * float64(a.Count)
		}
		solution = append(solution, row)
	}
	solution = append(solution, []interface{}{},
		[]interface{}{"Occupancy", plan.Stats.BestValue.Occupancy},
		[]interface{}{"Boxes", plan.Stats.BestValue.Boxes},
		[]interface{}{"Value", plan.Stats.BestValue.Value},
		[]interface{}{"Policy", plan.Stats.GroupImprovement.String()},
	)

	placements := [][]interface{}{
		{"Seq", "Type", "Label", "X", "Y", "Z", "Length", "Width", "Height"},
	}
	for i, b := range plan.Stats.Placements {
		placements = append(placements, []interface{}{
			i + 1, b.Type, plan.label(b.Type),
			b.Position.X, b.Position.Y, b.Position.Z,
			b.Size.Length, b.Size.Width, b.Size.Height,
		})
	}

	for _, sheet := range []struct {
		name string
		rows [][]interface{}
	}{{solutionSheet, solution}, {placementSheet, placements}} {
		if err := writeRows(f, sheet.name, sheet.rows); err != nil {
			return err
		}
		last, _ := excelize.ColumnNumberToName(len(sheet.rows[0]))
		if err := f.SetCellStyle(sheet.name, "A1", last+"1", bold); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
		if err := f.SetColWidth(sheet.name, "A", last, 12); err != nil {
			return fmt.Errorf("failed to size columns: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
