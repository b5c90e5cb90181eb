package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const templateSheet = "Timeline"

// WriteTemplate writes an empty workbook with every block header in place.
func (l *Loader) WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), templateSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for _, b := range blocks {
		for i, col := range b.columns {
			ref, err := excelize.CoordinatesToCellName(b.first+i, 1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(templateSheet, ref, col.header); err != nil {
				return fmt.Errorf("write header %s: %w", ref, err)
			}
			if err := f.SetCellStyle(templateSheet, ref, ref, bold); err != nil {
				return fmt.Errorf("style header %s: %w", ref, err)
			}
		}
	}
	if err := f.SetColWidth(templateSheet, "A", "Q", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}
