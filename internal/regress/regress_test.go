package regress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func TestLinearPerfectLine(t *testing.T) {
	f, err := Linear([]float64{1, 2, 3, 4}, []float64{3, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, f.Slope, 1e-12)
	assert.InDelta(t, 1.0, f.Intercept, 1e-12)
	assert.InDelta(t, 1.0, f.RSquared, 1e-12)
	assert.Equal(t, 4, f.N)
	assert.Equal(t, "y = 2.00x + 1.00", f.Equation())
	assert.Equal(t, "y = 2.00x + 1.00, R² = 1.000", f.String())
}

// closedForm computes slope, intercept and R² by the textbook formulas.
func closedForm(x, y []float64) (m, b, r2 float64) {
	n := float64(len(x))
	var sx, sy, sxx, sxy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		sxy += x[i] * y[i]
	}
	m = (n*sxy - sx*sy) / (n*sxx - sx*sx)
	b = (sy - m*sx) / n
	my := sy / n
	var ssr, sst float64
	for i := range x {
		d := y[i] - (m*x[i] + b)
		ssr += d * d
		sst += (y[i] - my) * (y[i] - my)
	}
	return m, b, 1 - ssr/sst
}

func TestLinearMatchesClosedForm(t *testing.T) {
	x := []float64{0.5, 1.7, 2.2, 3.9, 4.1, 5.6, 7.3}
	y := []float64{1.1, 2.0, 2.9, 4.2, 3.8, 6.1, 7.9}
	m, b, r2 := closedForm(x, y)

	f, err := Linear(x, y)
	require.NoError(t, err)
	assert.InDelta(t, m, f.Slope, 1e-9)
	assert.InDelta(t, b, f.Intercept, 1e-9)
	assert.InDelta(t, r2, f.RSquared, 1e-9)
	assert.GreaterOrEqual(t, f.RSquared, 0.0)
	assert.LessOrEqual(t, f.RSquared, 1.0)
}

func TestLinearUsesPairwisePresentValues(t *testing.T) {
	x := []float64{1, nan, 2, 3, 4, 100}
	y := []float64{3, 42, 5, 7, 9, nan}
	f, err := Linear(x, y)
	require.NoError(t, err)
	assert.Equal(t, 4, f.N)
	assert.InDelta(t, 2.0, f.Slope, 1e-12)
	assert.InDelta(t, 1.0, f.Intercept, 1e-12)
}

func TestLinearNegativeSlopeLowFit(t *testing.T) {
	f, err := Linear([]float64{1, 2, 3, 4}, []float64{4, 1, 3, 0})
	require.NoError(t, err)
	assert.Less(t, f.Slope, 0.0)
	assert.Greater(t, f.RSquared, 0.0)
	assert.Less(t, f.RSquared, 1.0)
}

func TestLinearConstantY(t *testing.T) {
	f, err := Linear([]float64{1, 2, 3}, []float64{5, 5, 5})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, f.Slope, 1e-12)
	assert.InDelta(t, 5.0, f.Intercept, 1e-12)
	assert.Equal(t, 1.0, f.RSquared)
}

func TestLinearDegenerate(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		want error
	}{
		{"empty", nil, nil, ErrTooFewPoints},
		{"single point", []float64{1}, []float64{2}, ErrTooFewPoints},
		{"one present pair", []float64{1, nan, 3}, []float64{2, 4, nan}, ErrTooFewPoints},
		{"zero variance x", []float64{2, 2, 2}, []float64{1, 2, 3}, ErrZeroVariance},
		{"length mismatch", []float64{1, 2}, []float64{1}, ErrLengthMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Linear(tt.x, tt.y)
			require.ErrorIs(t, err, tt.want)
			assert.False(t, math.IsNaN(f.Slope))
		})
	}
}

func TestPairwiseKeepsLabels(t *testing.T) {
	p, err := Pairwise([]float64{1, nan, 3}, []float64{1, 2, 3}, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, p.Labels)
	assert.Equal(t, []float64{1, 3}, p.X)

	_, err = Pairwise([]float64{1}, []float64{1}, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestEquationSigns(t *testing.T) {
	assert.Equal(t, "y = 1.02x - 0.03", Fit{Slope: 1.02, Intercept: -0.031}.Equation())
	assert.Equal(t, "y = 0.50x + 0.00", Fit{Slope: 0.5, Intercept: -0.001}.Equation())
	assert.Equal(t, "y = 0.00x + 3.00", Fit{Slope: -0.001, Intercept: 3}.Equation())
	assert.Equal(t, "y = -0.01x + 3.00", Fit{Slope: -0.006, Intercept: 3}.Equation())
	assert.Equal(t, "R² = 0.988", Fit{RSquared: 0.98765}.Label())
	assert.InDelta(t, 7.0, Fit{Slope: 2, Intercept: 1}.Predict(3), 1e-12)
}
