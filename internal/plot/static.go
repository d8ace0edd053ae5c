// Package plot renders regression panels as static PNG images and
// interactive HTML pages.
package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/KaramelBytes/flowplot-cli/internal/regress"
	"github.com/KaramelBytes/flowplot-cli/internal/utils"
)

// Panel is one scatter plot with an optional fitted line.
type Panel struct {
	Title  string
	XLabel string
	YLabel string
	X      []float64
	Y      []float64
	Labels []string
	// Fit is nil when the comparison could not be fitted.
	Fit *regress.Fit
}

// Caption is the equation and R² line shown under the panel title.
func (p Panel) Caption() string {
	if p.Fit == nil {
		return "fit unavailable"
	}
	return p.Fit.String()
}

// Options sizes a single rendered panel.
type Options struct {
	Width  int
	Height int
	DPI    float64
}

func (o Options) normalized() Options {
	if o.Width <= 0 {
		o.Width = 600
	}
	if o.Height <= 0 {
		o.Height = 480
	}
	if o.DPI <= 0 {
		o.DPI = 96
	}
	return o
}

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

// RenderPanel draws p as a PNG into w.
func RenderPanel(w io.Writer, p Panel, opt Options) error {
	opt = opt.normalized()
	if len(p.X) != len(p.Y) {
		return fmt.Errorf("panel %q: x and y lengths differ (%d vs %d)", p.Title, len(p.X), len(p.Y))
	}
	xr, yr := axisRange(p.X), axisRange(p.Y)

	series := []chart.Series{}
	if len(p.X) > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    "Samples",
			XValues: p.X,
			YValues: p.Y,
			Style:   pointStyle(chart.ColorBlue.WithAlpha(180)),
		})
	} else {
		// go-chart needs at least one series to lay out axes
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{xr.Min, xr.Max},
			YValues: []float64{yr.Min, yr.Max},
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: chart.Disabled},
		})
	}
	if p.Fit != nil {
		var fs []chart.Series
		fs, yr = fitSeries(*p.Fit, xr, yr)
		series = append(series, fs...)
	}

	ch := chart.Chart{
		Title:      p.Title + "  " + p.Caption(),
		TitleStyle: chart.Style{FontSize: 10},
		Width:      opt.Width,
		Height:     opt.Height,
		DPI:        opt.DPI,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: p.XLabel, Range: xr},
		YAxis:      chart.YAxis{Name: p.YLabel, Range: yr},
		Series:     series,
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render panel %q: %w", p.Title, err)
	}
	return nil
}

// fitSeries returns the fit line and its equation label, plus yr widened to
// contain the line. The label sits at the top-left of the widened range.
func fitSeries(f regress.Fit, xr, yr *chart.ContinuousRange) ([]chart.Series, *chart.ContinuousRange) {
	y0, y1 := f.Predict(xr.Min), f.Predict(xr.Max)
	yr = widen(yr, y0, y1)
	return []chart.Series{
		chart.ContinuousSeries{
			Name:    "Fit",
			XValues: []float64{xr.Min, xr.Max},
			YValues: []float64{y0, y1},
			Style:   chart.Style{StrokeWidth: 1.5, StrokeColor: chart.ColorRed},
		},
		chart.AnnotationSeries{
			Annotations: []chart.Value2{{
				XValue: xr.Min,
				YValue: yr.Max,
				Label:  f.String(),
			}},
		},
	}, yr
}

// WritePanelPNG renders one panel to path atomically.
func WritePanelPNG(path string, p Panel, opt Options) error {
	var buf bytes.Buffer
	if err := RenderPanel(&buf, p, opt); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

const suptitleHeight = 28

// WriteGridPNG composes panels into a grid of cols columns under a
// suptitle and writes it to path.
func WriteGridPNG(path, title string, panels []Panel, cols int, opt Options) error {
	opt = opt.normalized()
	if cols <= 0 {
		cols = 1
	}
	rows := (len(panels) + cols - 1) / cols
	if rows == 0 {
		rows = 1
	}
	width := cols * opt.Width
	if len(panels) > 0 && len(panels) < cols {
		width = len(panels) * opt.Width
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, suptitleHeight+rows*opt.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i, p := range panels {
		var buf bytes.Buffer
		if err := RenderPanel(&buf, p, opt); err != nil {
			return err
		}
		img, err := png.Decode(&buf)
		if err != nil {
			return fmt.Errorf("decode panel %q: %w", p.Title, err)
		}
		x := (i % cols) * opt.Width
		y := suptitleHeight + (i/cols)*opt.Height
		r := image.Rect(x, y, x+opt.Width, y+opt.Height)
		draw.Draw(canvas, r, img, img.Bounds().Min, draw.Over)
	}
	drawCentered(canvas, title, suptitleHeight-9)

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return utils.SafeWriteFile(path, out.Bytes())
}

// drawCentered writes text horizontally centred on the baseline y.
func drawCentered(dst *image.RGBA, text string, y int) {
	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: dst, Src: image.NewUniform(color.Black), Face: face}
	tw := dr.MeasureString(text).Ceil()
	x := (dst.Bounds().Dx() - tw) / 2
	if x < 4 {
		x = 4
	}
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(text)
}

// axisRange pads the extent of vs by 5% and never returns a zero-width range.
func axisRange(vs []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(lo)*0.05, 0.5)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func widen(r *chart.ContinuousRange, vs ...float64) *chart.ContinuousRange {
	out := &chart.ContinuousRange{Min: r.Min, Max: r.Max}
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out.Min = math.Min(out.Min, v)
		out.Max = math.Max(out.Max, v)
	}
	return out
}
