// Package compare builds the within-file replicate and cross-file pairwise comparisons.
package compare

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/flowplot-cli/internal/regress"
	"github.com/KaramelBytes/flowplot-cli/internal/replicate"
	"github.com/KaramelBytes/flowplot-cli/internal/sheet"
)

// Comparison is one fitted pairing. Err is set when the fit is degenerate.
type Comparison struct {
	Label  string
	XLabel string
	YLabel string
	Points regress.Points
	Fit    regress.Fit
	Err    error
}

// OK reports whether the comparison produced a fit.
func (c Comparison) OK() bool { return c.Err == nil }

// replicatePairs lists (x, y) replicate numbers; y is always the lower replicate.
var replicatePairs = [][2]int{{2, 1}, {3, 2}, {3, 1}}

// Replicates compares replicates 2 vs 1, 3 vs 2 and 3 vs 1 of metric within one table.
// The sample column and all three replicate columns are required.
func Replicates(t *sheet.Table, sampleColumn, metric string) ([]Comparison, error) {
	required := []string{sampleColumn}
	for n := 1; n <= 3; n++ {
		required = append(required, replicate.ColumnName(metric, n))
	}
	if missing := t.Missing(required...); len(missing) > 0 {
		return nil, &replicate.MissingColumnError{Source: t.Name, Columns: missing}
	}
	names := t.Strings(sampleColumn)
	for i, n := range names {
		if n == "" {
			names[i] = "Unknown"
		}
	}
	cols := make(map[int][]float64, 3)
	for n := 1; n <= 3; n++ {
		vals, err := t.Column(replicate.ColumnName(metric, n))
		if err != nil {
			return nil, err
		}
		cols[n] = vals
	}
	out := make([]Comparison, 0, len(replicatePairs))
	for _, pr := range replicatePairs {
		xn, yn := pr[0], pr[1]
		c := Comparison{
			Label:  fmt.Sprintf("Rep %d vs Rep %d", xn, yn),
			XLabel: replicate.ColumnName(metric, xn),
			YLabel: replicate.ColumnName(metric, yn),
		}
		c.Points, c.Err = regress.Pairwise(cols[xn], cols[yn], names)
		if c.Err == nil {
			c.Fit, c.Err = c.Points.Fit()
		}
		if c.Err != nil {
			c.Err = fmt.Errorf("%s %s: %w", t.Name, c.Label, c.Err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Pair fits yColumn against xColumn of one table. The sample column only
// labels points and may be absent.
func Pair(t *sheet.Table, sampleColumn, xColumn, yColumn string) (Comparison, error) {
	if missing := t.Missing(xColumn, yColumn); len(missing) > 0 {
		return Comparison{}, &replicate.MissingColumnError{Source: t.Name, Columns: missing}
	}
	x, err := t.Column(xColumn)
	if err != nil {
		return Comparison{}, err
	}
	y, err := t.Column(yColumn)
	if err != nil {
		return Comparison{}, err
	}
	var names []string
	if t.Has(sampleColumn) {
		names = t.Strings(sampleColumn)
	}
	c := Comparison{Label: fmt.Sprintf("%s vs %s", xColumn, yColumn), XLabel: xColumn, YLabel: yColumn}
	c.Points, c.Err = regress.Pairwise(x, y, names)
	if c.Err == nil {
		c.Fit, c.Err = c.Points.Fit()
	}
	return c, nil
}

// CrossComparison compares one metric between two sources of a group.
type CrossComparison struct {
	Comparison
	Group string
	A, B  string
	// Empty is set when the sources share no sample names.
	Empty bool
}

// Cross compares every unordered pair of the group's sources, restricted
// to samples present by name in both.
func Cross(c *replicate.Combined, g Group, metric string) []CrossComparison {
	var sources []string
	for _, s := range c.Sources() {
		if g.Match(s) {
			sources = append(sources, s)
		}
	}
	pairs := Combinations(sources)
	out := make([]CrossComparison, 0, len(pairs))
	for _, pr := range pairs {
		a, b := pr[0], pr[1]
		cc := CrossComparison{
			Comparison: Comparison{Label: fmt.Sprintf("%s vs %s", a, b), XLabel: a, YLabel: b},
			Group:      g.Label,
			A:          a,
			B:          b,
		}
		x, y, names := Align(c.BySource(a), c.BySource(b), metric)
		if len(names) == 0 {
			cc.Empty = true
			out = append(out, cc)
			continue
		}
		cc.Points, cc.Err = regress.Pairwise(x, y, names)
		if cc.Err == nil {
			cc.Fit, cc.Err = cc.Points.Fit()
		}
		if cc.Err != nil {
			cc.Err = fmt.Errorf("group %s %s: %w", g.Label, cc.Label, cc.Err)
		}
		out = append(out, cc)
	}
	return out
}

// Align inner-joins a and b on sample name. Output follows a's order; a
// name repeated on both sides yields every combination. Blank names never match.
func Align(a, b []replicate.Row, metric string) (x, y []float64, names []string) {
	idx := make(map[string][]int, len(b))
	for j, r := range b {
		if r.Sample == "" {
			continue
		}
		idx[r.Sample] = append(idx[r.Sample], j)
	}
	for _, ra := range a {
		for _, j := range idx[ra.Sample] {
			x = append(x, ra.Value(metric))
			y = append(y, b[j].Value(metric))
			names = append(names, ra.Sample)
		}
	}
	return x, y, names
}

// Combinations returns every unordered pair (items[i], items[j]) with i < j,
// ordered by i then j.
func Combinations(items []string) [][2]string {
	var out [][2]string
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			out = append(out, [2]string{items[i], items[j]})
		}
	}
	return out
}

// AvgRSquared is the mean R² over successful comparisons, NaN when none.
func AvgRSquared(cs []Comparison) float64 {
	var sum float64
	n := 0
	for _, c := range cs {
		if c.OK() {
			sum += c.Fit.RSquared
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
