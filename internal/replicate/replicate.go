// Package replicate discovers replicate columns and averages them per sample.
package replicate

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/flowplot-cli/internal/sheet"
	"gonum.org/v1/gonum/stat"
)

// MissingColumnError reports required columns absent from a source.
type MissingColumnError struct {
	Source  string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing column(s) %s", e.Source, quoteJoin(e.Columns))
}

// ColumnName returns the header of replicate n of metric, e.g. "GFP - (rep 2)".
func ColumnName(metric string, n int) string {
	return fmt.Sprintf("%s (rep %d)", metric, n)
}

// Columns returns the indices of headers that start with metric + " (".
func Columns(headers []string, metric string) []int {
	prefix := metric + " ("
	var out []int
	for i, h := range headers {
		if strings.HasPrefix(h, prefix) {
			out = append(out, i)
		}
	}
	return out
}

// Options controls averaging.
type Options struct {
	SampleColumn string
	Metrics      []string
}

// Row is one averaged sample. A metric absent from Values, or NaN, is missing.
type Row struct {
	Sample string
	Source string
	Values map[string]float64
}

// Value returns the averaged metric or NaN when missing.
func (r Row) Value(metric string) float64 {
	if v, ok := r.Values[metric]; ok {
		return v
	}
	return math.NaN()
}

// FileAverage holds the averaged rows of one source.
type FileAverage struct {
	Source string
	// Metrics found in this source, in configured order.
	Metrics []string
	// Missing lists configured metrics with no replicate columns.
	Missing []string
	Rows    []Row
}

// Average computes the row-wise mean of each metric's replicate columns,
// skipping missing cells. A row with no present replicate for a metric
// gets NaN. The sample column is required.
func Average(t *sheet.Table, opt Options) (*FileAverage, error) {
	sampleIdx := t.Index(opt.SampleColumn)
	if sampleIdx < 0 {
		return nil, &MissingColumnError{Source: t.Name, Columns: []string{opt.SampleColumn}}
	}
	fa := &FileAverage{Source: t.Name, Rows: make([]Row, len(t.Rows))}
	for i := range t.Rows {
		fa.Rows[i] = Row{Sample: t.Cell(i, sampleIdx), Source: t.Name, Values: make(map[string]float64, len(opt.Metrics))}
	}
	for _, metric := range opt.Metrics {
		cols := Columns(t.Headers, metric)
		if len(cols) == 0 {
			fa.Missing = append(fa.Missing, metric)
			continue
		}
		fa.Metrics = append(fa.Metrics, metric)
		present := make([]float64, 0, len(cols))
		for i := range t.Rows {
			present = present[:0]
			for _, c := range cols {
				v, err := t.Float(i, c)
				if err != nil {
					return nil, err
				}
				if !math.IsNaN(v) {
					present = append(present, v)
				}
			}
			avg := math.NaN()
			if len(present) > 0 {
				avg = stat.Mean(present, nil)
			}
			fa.Rows[i].Values[metric] = avg
		}
	}
	return fa, nil
}

// Combined is the ordered concatenation of averaged rows from every source.
type Combined struct {
	metrics []string
	seen    map[string]bool
	sources []string
	Rows    []Row
}

// NewCombined starts an empty table whose metric columns follow the given order.
func NewCombined(metrics []string) *Combined {
	return &Combined{metrics: metrics, seen: map[string]bool{}}
}

// Append adds a source's rows. Rows are never deduplicated.
func (c *Combined) Append(fa *FileAverage) {
	for _, m := range fa.Metrics {
		c.seen[m] = true
	}
	if len(fa.Rows) > 0 && !contains(c.sources, fa.Source) {
		c.sources = append(c.sources, fa.Source)
	}
	c.Rows = append(c.Rows, fa.Rows...)
}

// Metrics returns the configured metrics found in at least one source.
func (c *Combined) Metrics() []string {
	var out []string
	for _, m := range c.metrics {
		if c.seen[m] {
			out = append(out, m)
		}
	}
	return out
}

// Sources returns the source tags in order of first appearance.
func (c *Combined) Sources() []string {
	return append([]string(nil), c.sources...)
}

// BySource returns the rows tagged with source, in table order.
func (c *Combined) BySource(source string) []Row {
	var out []Row
	for _, r := range c.Rows {
		if r.Source == source {
			out = append(out, r)
		}
	}
	return out
}

// Table lays the combined rows out for export: sample column, metrics, source column.
func (c *Combined) Table(sampleColumn, sourceColumn string) ([]string, [][]any) {
	metrics := c.Metrics()
	headers := make([]string, 0, len(metrics)+2)
	headers = append(headers, sampleColumn)
	headers = append(headers, metrics...)
	headers = append(headers, sourceColumn)
	rows := make([][]any, len(c.Rows))
	for i, r := range c.Rows {
		row := make([]any, 0, len(headers))
		if r.Sample == "" {
			row = append(row, nil)
		} else {
			row = append(row, r.Sample)
		}
		for _, m := range metrics {
			row = append(row, r.Value(m))
		}
		row = append(row, r.Source)
		rows[i] = row
	}
	return headers, rows
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func quoteJoin(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = fmt.Sprintf("%q", c)
	}
	return strings.Join(q, ", ")
}
