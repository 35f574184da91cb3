package report

import (
	"io"

	"github.com/xuri/excelize/v2"
)

// sheetWriter renders a single-sheet workbook row by row. Day reports never
// need more than one sheet, so there is no sheet management beyond the name.
type sheetWriter struct {
	file  *excelize.File
	sheet string
	row   int
}

func newSheetWriter(name string) *sheetWriter {
	// Excel caps sheet names at 31 chars
	if len(name) > 31 {
		name = name[:31]
	}
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", name)
	return &sheetWriter{file: f, sheet: name, row: 1}
}

// writeHeader writes the column names in bold on the first row.
func (w *sheetWriter) writeHeader(columns []string) error {
	values := make([]interface{}, len(columns))
	for i, col := range columns {
		values[i] = col
	}
	if err := w.writeRow(values); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		// Styling is cosmetic; the data row already landed.
		return nil
	}
	start, _ := excelize.CoordinatesToCellName(1, 1)
	end, _ := excelize.CoordinatesToCellName(len(columns), 1)
	_ = w.file.SetCellStyle(w.sheet, start, end, style)
	return nil
}

// writeRow appends one data row below the previous one.
func (w *sheetWriter) writeRow(values []interface{}) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, val); err != nil {
			return err
		}
	}
	w.row++
	return nil
}

// save writes the workbook to dst.
func (w *sheetWriter) save(dst io.Writer) error {
	return w.file.Write(dst)
}

func (w *sheetWriter) close() error {
	return w.file.Close()
}
