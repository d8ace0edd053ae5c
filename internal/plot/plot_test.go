package plot

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/flowplot-cli/internal/regress"
	"github.com/stretchr/testify/assert"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/stretchr/testify/require"
)

func fittedPanel(t *testing.T) Panel {
	t.Helper()
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2.1, 3.9, 6.2, 7.8, 10.1}
	f, err := regress.Linear(x, y)
	require.NoError(t, err)
	return Panel{
		Title:  "Rep 2 vs Rep 1",
		XLabel: "GFP - (rep 2)",
		YLabel: "GFP - (rep 1)",
		X:      x,
		Y:      y,
		Labels: []string{"a", "b", "c", "d", "e"},
		Fit:    &f,
	}
}

func TestRenderPanelPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPanel(&buf, fittedPanel(t), Options{Width: 320, Height: 240}))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestRenderPanelWithoutFit(t *testing.T) {
	p := fittedPanel(t)
	p.Fit = nil
	assert.Equal(t, "fit unavailable", p.Caption())
	var buf bytes.Buffer
	require.NoError(t, RenderPanel(&buf, p, Options{}))

	// a constant column must still get a usable axis
	p.X = []float64{2, 2}
	p.Y = []float64{1, 1}
	p.Labels = nil
	buf.Reset()
	require.NoError(t, RenderPanel(&buf, p, Options{Width: 200, Height: 200}))
}

func TestFitAnnotationAtWidenedTop(t *testing.T) {
	// the line overshoots the points, so the y range grows past them
	f := regress.Fit{Slope: 10, Intercept: 0}
	xr := &chart.ContinuousRange{Min: 0, Max: 2}
	yr := &chart.ContinuousRange{Min: 0, Max: 5}
	series, got := fitSeries(f, xr, yr)
	require.Len(t, series, 2)
	assert.Equal(t, 20.0, got.Max)
	assert.Equal(t, 5.0, yr.Max, "input range must not be mutated")
	ann, ok := series[1].(chart.AnnotationSeries)
	require.True(t, ok)
	require.Len(t, ann.Annotations, 1)
	assert.Equal(t, 0.0, ann.Annotations[0].XValue)
	assert.Equal(t, got.Max, ann.Annotations[0].YValue)
}

func TestRenderPanelLengthMismatch(t *testing.T) {
	p := fittedPanel(t)
	p.Y = p.Y[:2]
	assert.Error(t, RenderPanel(&bytes.Buffer{}, p, Options{}))
}

func TestWriteGridPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "File1_scatter.png")
	p := fittedPanel(t)
	require.NoError(t, WriteGridPNG(path, "File1 | Avg R^2 = 0.9990", []Panel{p, p, p}, 3, Options{Width: 200, Height: 150}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 150+suptitleHeight, img.Bounds().Dy())
}

func TestWritePanelPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "A_vs_B_GFP_Cross.png")
	require.NoError(t, WritePanelPNG(path, fittedPanel(t), Options{Width: 200, Height: 160}))
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestInteractivePage(t *testing.T) {
	p := fittedPanel(t)
	page := Page{Title: "GFP - Replicate Comparison: File1", Columns: 3, PanelHeight: 400, Panels: []Panel{p}}
	b, err := page.Render()
	require.NoError(t, err)
	html := string(b)
	assert.Contains(t, html, "<title>GFP - Replicate Comparison: File1</title>")
	assert.Contains(t, html, "chart.umd.min.js")
	assert.Contains(t, html, "repeat(3,")
	assert.Contains(t, html, `"label":"c"`)
	assert.Contains(t, html, p.Fit.Equation())
	assert.Contains(t, html, "R² = ")
	assert.Contains(t, html, "'Sample: '")
	assert.Equal(t, 1, page.Rows())
}

func TestInteractiveEmptyPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "All_Comparisons_2.html")
	page := Page{Title: "GFP - Cross-File Comparisons: 2", Columns: 2}
	require.NoError(t, WriteInteractive(path, page))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "const panels = [];"))
	assert.Equal(t, 0, page.Rows())

	page.Panels = make([]Panel, 3)
	assert.Equal(t, 2, page.Rows())
}
