// Package pipeline runs the batch: read inputs, compare replicates, average,
// compare sources within groups, and write every output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/flowplot-cli/internal/compare"
	"github.com/KaramelBytes/flowplot-cli/internal/config"
	"github.com/KaramelBytes/flowplot-cli/internal/logging"
	"github.com/KaramelBytes/flowplot-cli/internal/manifest"
	"github.com/KaramelBytes/flowplot-cli/internal/plot"
	"github.com/KaramelBytes/flowplot-cli/internal/replicate"
	"github.com/KaramelBytes/flowplot-cli/internal/report"
	"github.com/KaramelBytes/flowplot-cli/internal/sheet"
	"github.com/KaramelBytes/flowplot-cli/internal/utils"
)

// Fixed output names.
const (
	WorkbookName  = "Per_File_Averaged_Replicates_Output.xlsx"
	WithinCSVName = "R2_Summary_All_Files.csv"
	workbookSheet = "Sheet1"
)

// ErrStrict wraps a notice that strict mode turned into a failure.
var ErrStrict = errors.New("strict mode")

// Result is everything a run produced.
type Result struct {
	Files    []report.FileSummary
	Within   []report.WithinRecord
	Cross    []report.CrossRecord
	Notices  []string
	Manifest *manifest.Manifest
}

// Summary builds the printable run summary.
func (r *Result) Summary() *report.Summary {
	s := &report.Summary{
		Files:   r.Files,
		Within:  r.Within,
		Cross:   r.Cross,
		Notices: r.Notices,
	}
	if r.Manifest != nil {
		s.OutputDir = r.Manifest.Dir()
		s.Artifacts = r.Manifest.Paths()
	}
	return s
}

// CrossCSVName is the cross-file summary name for a metric tag.
func CrossCSVName(tag string) string {
	return fmt.Sprintf("CrossFile_%s_Comparisons_R2_Summary.csv", utils.SafeFileName(tag))
}

// CrossPNGName is the static image name for one cross-file pair.
func CrossPNGName(a, b, tag string) string {
	return utils.SafeFileName(fmt.Sprintf("%s_vs_%s_%s_Cross.png", a, b, tag))
}

// GroupHTMLName is the interactive page name for a group.
func GroupHTMLName(label string) string {
	return utils.SafeFileName(fmt.Sprintf("All_Comparisons_%s.html", label))
}

type run struct {
	cfg    *config.Global
	outDir string
	opt    plot.Options
	res    *Result
}

// Run executes the whole batch described by cfg.
func Run(ctx context.Context, cfg *config.Global) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	groups := make([]compare.Group, 0, len(cfg.Groups))
	for _, gr := range cfg.Groups {
		g, err := compare.Rule{Label: gr.Label, Contains: gr.Contains, Pattern: gr.Pattern, Sources: gr.Sources}.Compile()
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := utils.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	r := &run{
		cfg:    cfg,
		outDir: outDir,
		opt:    plot.Options{Width: cfg.PanelWidth, Height: cfg.PanelHeight, DPI: cfg.DPI},
		res:    &Result{Manifest: manifest.New(outDir, cfg.Inputs)},
	}

	combined := replicate.NewCombined(cfg.Metrics)
	for _, path := range cfg.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.file(path, combined); err != nil {
			return nil, err
		}
	}

	headers, rows := combined.Table(cfg.SampleColumn, cfg.SourceColumn)
	if err := r.write(manifest.KindWorkbook, WorkbookName, "", func(p string) error {
		return sheet.WriteXLSX(p, workbookSheet, headers, rows)
	}); err != nil {
		return nil, err
	}
	if err := r.write(manifest.KindWithinCSV, WithinCSVName, "", func(p string) error {
		return report.WriteWithinCSV(p, r.res.Within)
	}); err != nil {
		return nil, err
	}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.group(ctx, combined, g); err != nil {
			return nil, err
		}
	}
	if err := r.write(manifest.KindCrossCSV, CrossCSVName(cfg.CrossTag), "", func(p string) error {
		return report.WriteCrossCSV(p, r.res.Cross)
	}); err != nil {
		return nil, err
	}

	if err := r.res.Manifest.Save(); err != nil {
		return nil, fmt.Errorf("save manifest: %w", err)
	}
	logging.Debug("manifest %s written with %d artifacts", manifest.FileName, len(r.res.Manifest.Artifacts))
	return r.res, nil
}

// file handles one input: replicate comparison plots, then averaging.
func (r *run) file(path string, combined *replicate.Combined) error {
	t, err := sheet.Read(path, sheet.Options{SheetName: r.cfg.SheetName, Format: sheet.FormatFor(r.cfg.Decimal)})
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	stem := t.Name
	fs := report.FileSummary{Name: stem, AvgRSquared: math.NaN()}
	logging.Debug("%s: %d rows, %d columns", path, len(t.Rows), len(t.Headers))

	avg, err := r.replicates(t)
	if err != nil {
		return err
	}
	fs.AvgRSquared = avg

	fa, err := replicate.Average(t, replicate.Options{SampleColumn: r.cfg.SampleColumn, Metrics: r.cfg.Metrics})
	var mce *replicate.MissingColumnError
	if errors.As(err, &mce) {
		if err := r.notice(fmt.Sprintf("Skipping %s: '%s' column not found.", path, r.cfg.SampleColumn), err); err != nil {
			return err
		}
		fs.Skipped = fmt.Sprintf("no '%s' column", r.cfg.SampleColumn)
		r.res.Files = append(r.res.Files, fs)
		return nil
	}
	if err != nil {
		return fmt.Errorf("average %s: %w", path, err)
	}
	for _, m := range fa.Missing {
		if err := r.notice(fmt.Sprintf("No replicate columns found for '%s' in %s", m, path), nil); err != nil {
			return err
		}
	}
	combined.Append(fa)
	fs.Rows = len(fa.Rows)
	r.res.Files = append(r.res.Files, fs)
	return nil
}

// replicates writes the within-file outputs and returns the mean R², NaN
// when the file was skipped or nothing could be fitted.
func (r *run) replicates(t *sheet.Table) (float64, error) {
	metric := r.cfg.ReplicateMetric
	cs, err := compare.Replicates(t, r.cfg.SampleColumn, metric)
	var mce *replicate.MissingColumnError
	if errors.As(err, &mce) {
		return math.NaN(), r.notice(fmt.Sprintf("Skipping %s: required columns missing", t.Name), err)
	}
	if err != nil {
		return math.NaN(), fmt.Errorf("compare replicates: %w", err)
	}

	panels := make([]plot.Panel, 0, len(cs))
	for _, c := range cs {
		p := plot.Panel{Title: c.Label, XLabel: c.XLabel, YLabel: c.YLabel, X: c.Points.X, Y: c.Points.Y, Labels: c.Points.Labels}
		if !c.OK() {
			if err := r.notice(fmt.Sprintf("Skipping comparison %v", c.Err), c.Err); err != nil {
				return math.NaN(), err
			}
		} else {
			fit := c.Fit
			p.Fit = &fit
			r.res.Within = append(r.res.Within, report.WithinRecord{File: t.Name, Comparison: c.Label, Fit: c.Fit})
		}
		panels = append(panels, p)
	}

	avg := compare.AvgRSquared(cs)
	title := fmt.Sprintf("%s | Avg R^2 = %s", t.Name, formatAvg(avg))
	if err := r.write(manifest.KindScatterPNG, t.Name+"_scatter.png", t.Name, func(p string) error {
		return plot.WriteGridPNG(p, title, panels, len(panels), r.opt)
	}); err != nil {
		return avg, err
	}
	page := plot.Page{
		Title:       fmt.Sprintf("%s Replicate Comparison: %s", metric, t.Name),
		Columns:     len(panels),
		PanelHeight: 400,
		Panels:      panels,
	}
	if err := r.write(manifest.KindReplicateHTM, t.Name+"_interactive.html", t.Name, func(p string) error {
		return plot.WriteInteractive(p, page)
	}); err != nil {
		return avg, err
	}
	return avg, nil
}

type crossJob struct {
	path  string
	panel plot.Panel
}

// group writes the cross-file outputs of one group.
func (r *run) group(ctx context.Context, combined *replicate.Combined, g compare.Group) error {
	metric := r.cfg.CrossMetric
	ccs := compare.Cross(combined, g, metric)

	var (
		jobs   []crossJob
		panels []plot.Panel
	)
	for _, cc := range ccs {
		if cc.Empty {
			logging.Debug("group %s: %s share no samples", g.Label, cc.Label)
			continue
		}
		if !cc.OK() {
			if err := r.notice(fmt.Sprintf("Skipping comparison %v", cc.Err), cc.Err); err != nil {
				return err
			}
			continue
		}
		fit := cc.Fit
		p := plot.Panel{Title: cc.Label, XLabel: cc.A, YLabel: cc.B, X: cc.Points.X, Y: cc.Points.Y, Labels: cc.Points.Labels, Fit: &fit}
		r.res.Cross = append(r.res.Cross, report.CrossRecord{Group: g.Label, FileA: cc.A, FileB: cc.B, Fit: cc.Fit})
		panels = append(panels, p)
		jobs = append(jobs, crossJob{path: filepath.Join(r.outDir, CrossPNGName(cc.A, cc.B, r.cfg.CrossTag)), panel: p})
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.cfg.Workers)
	for _, job := range jobs {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			if err := plot.WritePanelPNG(job.path, job.panel, r.opt); err != nil {
				return fmt.Errorf("write %s: %w", job.path, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	// record in pair order regardless of completion order
	for _, job := range jobs {
		r.res.Manifest.Add(manifest.KindCrossPNG, job.path, g.Label)
		logging.Success("Wrote %s", job.path)
	}

	page := plot.Page{
		Title:       fmt.Sprintf("%s Cross-File Comparisons: %s", metric, g.Label),
		Columns:     2,
		PanelHeight: 300,
		Panels:      panels,
	}
	return r.write(manifest.KindCrossHTML, GroupHTMLName(g.Label), g.Label, func(p string) error {
		return plot.WriteInteractive(p, page)
	})
}

// write runs fn against the output path and records the artifact.
func (r *run) write(kind, name, source string, fn func(path string) error) error {
	path := filepath.Join(r.outDir, name)
	if err := fn(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	r.res.Manifest.Add(kind, path, source)
	logging.Success("Wrote %s", path)
	return nil
}

// notice reports a skip. In strict mode it becomes the returned error.
func (r *run) notice(msg string, cause error) error {
	if r.cfg.Strict {
		if cause != nil {
			return fmt.Errorf("%w: %w", ErrStrict, cause)
		}
		return fmt.Errorf("%w: %s", ErrStrict, msg)
	}
	logging.Notice("%s", msg)
	r.res.Notices = append(r.res.Notices, msg)
	r.res.Manifest.Notice(msg)
	return nil
}

func formatAvg(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}
