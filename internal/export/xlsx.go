package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/reacts/reacts/internal/model"
)

const sheetName = "Sales"

var columnWidths = map[string]float64{
	"A": 30, "B": 30, "C": 14, "D": 14, "E": 14, "F": 22,
}

// WriteXLSX writes a workbook with a single Sales sheet and a bold header row.
func WriteXLSX(w io.Writer, sales []*model.Sale) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(Columns), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, s := range sales {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := row(s)
		cells := make([]any, len(values))
		for j, v := range values {
			cells[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
