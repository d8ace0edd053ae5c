package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/flowplot-cli/internal/utils"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupported is returned for file extensions the reader cannot handle.
var ErrUnsupported = errors.New("unsupported spreadsheet format")

// Options selects what Read loads.
type Options struct {
	// SheetName selects an XLSX sheet; empty means the first sheet.
	SheetName string
	// Format applies to CSV/TSV text; XLSX values are read raw.
	Format NumberFormat
}

// Read loads the first row as headers and the rest as data rows.
// An empty sheet yields a table with no columns.
func Read(path string, opt Options) (*Table, error) {
	lower := strings.ToLower(path)
	var (
		t   *Table
		err error
	)
	switch {
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xlsm"):
		t, err = readXLSX(path, opt.SheetName)
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".tsv"):
		t, err = readCSV(path, opt.Format)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
	if err != nil {
		return nil, err
	}
	t.Path = path
	return t, nil
}

func readXLSX(path, sheetName string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	} else if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			sheetName, filepath.Base(path), strings.Join(f.GetSheetList(), ", "))
	}
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	t := fromRecords(utils.FileStem(path), rows)
	t.Sheet = sheetName
	// raw cell values always use '.' as decimal separator
	t.Format = NumberFormat{DecimalSeparator: '.', ThousandsSeparator: ','}
	return t, nil
}

func readCSV(path string, nf NumberFormat) (*Table, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer fh.Close()
	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	r.Comma = sniffDelimiter(path)
	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, rec)
	}
	t := fromRecords(utils.FileStem(path), records)
	t.Format = nf
	return t, nil
}

func fromRecords(name string, records [][]string) *Table {
	if len(records) == 0 {
		return NewTable(name, nil, nil)
	}
	header := records[0]
	// strip a UTF-8 BOM left by spreadsheet exports
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	return NewTable(name, header, records[1:])
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
