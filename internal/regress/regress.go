// Package regress fits simple ordinary-least-squares lines y = m·x + b.
package regress

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrLengthMismatch is returned when x and y differ in length.
	ErrLengthMismatch = errors.New("regress: x and y lengths differ")
	// ErrTooFewPoints is returned when fewer than two paired points are present.
	ErrTooFewPoints = errors.New("regress: fewer than 2 paired points")
	// ErrZeroVariance is returned when every paired x is identical.
	ErrZeroVariance = errors.New("regress: zero variance in x")
)

// Fit is a fitted line and its coefficient of determination.
type Fit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r2"`
	N         int     `json:"n"`
}

// Points are paired observations with optional per-point labels.
type Points struct {
	X      []float64
	Y      []float64
	Labels []string
}

// Len returns the number of paired points.
func (p Points) Len() int { return len(p.X) }

// Pairwise keeps the indices where both x and y are present (not NaN).
// labels may be nil; otherwise it must match x in length.
func Pairwise(x, y []float64, labels []string) (Points, error) {
	if len(x) != len(y) || (labels != nil && len(labels) != len(x)) {
		return Points{}, fmt.Errorf("%w: x=%d y=%d labels=%d", ErrLengthMismatch, len(x), len(y), len(labels))
	}
	var p Points
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		p.X = append(p.X, x[i])
		p.Y = append(p.Y, y[i])
		if labels != nil {
			p.Labels = append(p.Labels, labels[i])
		}
	}
	return p, nil
}

// Linear fits y = m·x + b over the pairwise-present subset of x and y.
func Linear(x, y []float64) (Fit, error) {
	p, err := Pairwise(x, y, nil)
	if err != nil {
		return Fit{}, err
	}
	return p.Fit()
}

// Fit fits a least-squares line through the points.
func (p Points) Fit() (Fit, error) {
	n := p.Len()
	if n < 2 {
		return Fit{}, fmt.Errorf("%w (n=%d)", ErrTooFewPoints, n)
	}
	if stat.Variance(p.X, nil) == 0 {
		return Fit{}, fmt.Errorf("%w (n=%d)", ErrZeroVariance, n)
	}
	alpha, beta := stat.LinearRegression(p.X, p.Y, nil, false)
	var r2 float64
	if stat.Variance(p.Y, nil) == 0 {
		// constant y is reproduced exactly by slope 0
		r2 = 1
	} else {
		r2 = stat.RSquared(p.X, p.Y, nil, alpha, beta)
	}
	return Fit{Slope: beta, Intercept: alpha, RSquared: clamp01(r2), N: n}, nil
}

// Predict evaluates the fitted line at x.
func (f Fit) Predict(x float64) float64 { return f.Slope*x + f.Intercept }

// Equation renders the line as "y = 2.00x + 1.00".
func (f Fit) Equation() string {
	sign := "+"
	b := f.Intercept
	if b < 0 && math.Abs(b) >= 0.005 {
		sign = "-"
		b = -b
	} else {
		b = math.Abs(b)
	}
	m := f.Slope
	if math.Abs(m) < 0.005 {
		m = 0
	}
	return fmt.Sprintf("y = %.2fx %s %.2f", m, sign, b)
}

// Label renders the coefficient of determination as "R² = 0.987".
func (f Fit) Label() string { return fmt.Sprintf("R² = %.3f", f.RSquared) }

// String joins Equation and Label.
func (f Fit) String() string { return f.Equation() + ", " + f.Label() }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
