// Package report writes the regression summary tables and the run summary text.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"

	"github.com/KaramelBytes/flowplot-cli/internal/regress"
	"github.com/KaramelBytes/flowplot-cli/internal/utils"
)

// WithinRecord is one within-file replicate comparison.
type WithinRecord struct {
	File       string      `json:"file"`
	Comparison string      `json:"comparison"`
	Fit        regress.Fit `json:"fit"`
}

// CrossRecord is one cross-file comparison inside a group.
type CrossRecord struct {
	Group string      `json:"group"`
	FileA string      `json:"file_a"`
	FileB string      `json:"file_b"`
	Fit   regress.Fit `json:"fit"`
}

var (
	withinHeader = []string{"File Name", "Comparison", "R²", "Slope (m)", "Intercept (b)"}
	crossHeader  = []string{"Group", "File A", "File B", "R²", "Slope (m)", "Intercept (b)"}
)

// Round4 rounds half away from zero to 4 decimal places.
func Round4(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		// drop negative zero
		return 0
	}
	return r
}

// FormatValue renders v rounded to 4 decimals in its shortest form.
func FormatValue(v float64) string {
	return strconv.FormatFloat(Round4(v), 'f', -1, 64)
}

func fitCells(f regress.Fit) []string {
	return []string{FormatValue(f.RSquared), FormatValue(f.Slope), FormatValue(f.Intercept)}
}

// WithinCSV encodes records with the within-file header.
func WithinCSV(records []WithinRecord) ([]byte, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, append([]string{r.File, r.Comparison}, fitCells(r.Fit)...))
	}
	return encode(withinHeader, rows)
}

// CrossCSV encodes records with the cross-file header.
func CrossCSV(records []CrossRecord) ([]byte, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, append([]string{r.Group, r.FileA, r.FileB}, fitCells(r.Fit)...))
	}
	return encode(crossHeader, rows)
}

// WriteWithinCSV writes the within-file summary to path.
func WriteWithinCSV(path string, records []WithinRecord) error {
	b, err := WithinCSV(records)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}

// WriteCrossCSV writes the cross-file summary to path.
func WriteCrossCSV(path string, records []CrossRecord) error {
	b, err := CrossCSV(records)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}

func encode(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
