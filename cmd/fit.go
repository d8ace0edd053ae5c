package cmd

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/flowplot-cli/internal/compare"
	"github.com/KaramelBytes/flowplot-cli/internal/logging"
	"github.com/KaramelBytes/flowplot-cli/internal/plot"
	"github.com/KaramelBytes/flowplot-cli/internal/sheet"
	"github.com/spf13/cobra"
)

var (
	fitX      string
	fitY      string
	fitPNG    string
	fitHTML   string
	fitSheet  string
	fitSample string
)

var fitCmd = &cobra.Command{
	Use:   "fit <file>",
	Short: "Fit a least-squares line between two numeric columns of one file",
	Example: `  flowplot fit File1.xlsx --x "GFP - (rep 2)" --y "GFP - (rep 1)"
  flowplot fit plate.csv --x Mean --y "mScar +" --png fit.png --html fit.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if fitX == "" || fitY == "" {
			return errors.New("both --x and --y are required")
		}
		c, err := currentConfig()
		if err != nil {
			return err
		}
		sheetName := c.SheetName
		if cmd.Flags().Changed("sheet") {
			sheetName = fitSheet
		}
		sample := c.SampleColumn
		if cmd.Flags().Changed("sample") {
			sample = fitSample
		}
		t, err := sheet.Read(args[0], sheet.Options{SheetName: sheetName, Format: sheet.FormatFor(c.Decimal)})
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		cmp, err := compare.Pair(t, sample, fitX, fitY)
		if err != nil {
			return err
		}
		if !cmp.OK() {
			return fmt.Errorf("%s: %w", cmp.Label, cmp.Err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", cmp.Label, t.Name)
		fmt.Fprintf(out, "  %s\n", cmp.Fit.Equation())
		fmt.Fprintf(out, "  %s\n", cmp.Fit.Label())
		fmt.Fprintf(out, "  n = %d\n", cmp.Fit.N)

		fit := cmp.Fit
		panel := plot.Panel{
			Title:  cmp.Label,
			XLabel: fitX,
			YLabel: fitY,
			X:      cmp.Points.X,
			Y:      cmp.Points.Y,
			Labels: cmp.Points.Labels,
			Fit:    &fit,
		}
		if fitPNG != "" {
			opt := plot.Options{Width: c.PanelWidth, Height: c.PanelHeight, DPI: c.DPI}
			if err := plot.WritePanelPNG(fitPNG, panel, opt); err != nil {
				return err
			}
			logging.Success("Wrote %s", fitPNG)
		}
		if fitHTML != "" {
			page := plot.Page{Title: fmt.Sprintf("%s: %s", t.Name, cmp.Label), Columns: 1, PanelHeight: 480, Panels: []plot.Panel{panel}}
			if err := plot.WriteInteractive(fitHTML, page); err != nil {
				return err
			}
			logging.Success("Wrote %s", fitHTML)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fitCmd)
	fitCmd.Flags().StringVar(&fitX, "x", "", "x column header")
	fitCmd.Flags().StringVar(&fitY, "y", "", "y column header")
	fitCmd.Flags().StringVar(&fitPNG, "png", "", "write a static plot to this path")
	fitCmd.Flags().StringVar(&fitHTML, "html", "", "write an interactive plot to this path")
	fitCmd.Flags().StringVar(&fitSheet, "sheet", "", "worksheet name (default: first sheet)")
	fitCmd.Flags().StringVar(&fitSample, "sample", "", "column labelling points (default: configured sample_column)")
}
