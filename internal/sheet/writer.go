package sheet

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/flowplot-cli/internal/utils"
	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes headers and rows to a single-sheet workbook at path.
// nil cells and NaN floats are left blank.
func WriteXLSX(path, sheetName string, headers []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if def := f.GetSheetName(0); def != sheetName {
		if err := f.SetSheetName(def, sheetName); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}
	for j, h := range headers {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header %q: %w", h, err)
		}
	}
	if len(headers) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("header style: %w", err)
		}
		if err := f.SetRowStyle(sheetName, 1, 1, style); err != nil {
			return fmt.Errorf("apply header style: %w", err)
		}
	}
	for i, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			if fv, ok := v.(float64); ok && math.IsNaN(fv) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encode xlsx: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
