package sheet

import (
	"fmt"
	"math"
	"strings"
)

// Table is one sheet of a spreadsheet: a header row plus string cells.
type Table struct {
	// Name is the source tag, the input file stem.
	Name    string
	Path    string
	Sheet   string
	Headers []string
	Rows    [][]string
	Format  NumberFormat

	index map[string]int
}

// ValueError reports a cell that should be numeric but is not.
type ValueError struct {
	Path   string
	Column string
	Row    int // 1-based data row, header excluded
	Value  string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: column %q row %d: non-numeric value %q", e.Path, e.Column, e.Row, e.Value)
}

// NewTable builds a table, trimming headers and padding short rows.
func NewTable(name string, headers []string, rows [][]string) *Table {
	t := &Table{Name: name, Headers: make([]string, len(headers)), index: make(map[string]int, len(headers))}
	for i, h := range headers {
		h = strings.TrimSpace(h)
		t.Headers[i] = h
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	ncol := len(headers)
	for _, r := range rows {
		if len(r) < ncol {
			tmp := make([]string, ncol)
			copy(tmp, r)
			r = tmp
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether every named column is present.
func (t *Table) Has(names ...string) bool {
	for _, n := range names {
		if t.Index(n) < 0 {
			return false
		}
	}
	return true
}

// Missing returns the named columns absent from the table, in the given order.
func (t *Table) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if t.Index(n) < 0 {
			out = append(out, n)
		}
	}
	return out
}

// Cell returns the trimmed cell text, "" when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Float parses a numeric cell. Missing cells yield NaN.
func (t *Table) Float(row, col int) (float64, error) {
	raw := t.Cell(row, col)
	if IsMissing(raw) {
		return math.NaN(), nil
	}
	v, ok := ParseNumber(raw, t.Format)
	if !ok {
		return math.NaN(), &ValueError{Path: t.Path, Column: t.Headers[col], Row: row + 1, Value: raw}
	}
	return v, nil
}

// Column parses every row of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	col := t.Index(name)
	if col < 0 {
		return nil, fmt.Errorf("%s: column %q not found", t.Path, name)
	}
	out := make([]float64, len(t.Rows))
	for i := range t.Rows {
		v, err := t.Float(i, col)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Strings returns the trimmed text of the named column.
func (t *Table) Strings(name string) []string {
	col := t.Index(name)
	out := make([]string, len(t.Rows))
	if col < 0 {
		return out
	}
	for i := range t.Rows {
		out[i] = t.Cell(i, col)
	}
	return out
}
