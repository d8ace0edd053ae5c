package cmd

import (
	"fmt"

	cfgpkg "github.com/KaramelBytes/flowplot-cli/internal/config"
	"github.com/KaramelBytes/flowplot-cli/internal/logging"
	"github.com/KaramelBytes/flowplot-cli/internal/pipeline"
	"github.com/KaramelBytes/flowplot-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	runOutputDir string
	runStrict    bool
	runGroups    []string
	runWorkers   int
	runSummary   string
	runSheet     string
	runDecimal   string
)

var runBatchCmd = &cobra.Command{
	Use:   "run [files...]",
	Short: "Run the full batch over the configured or given input files",
	Long: `Run reads each input in order, plots replicate agreement per file, averages
replicates into one workbook, then compares files within each group.

Files given as arguments replace the configured inputs.`,
	Example: `  flowplot run
  flowplot run File1.xlsx File2.xlsx -o out
  flowplot run data/*.xlsx --group early=1 --group late=2 --strict`,
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := currentConfig()
		if err != nil {
			return err
		}
		c := *base
		if len(args) > 0 {
			c.Inputs = args
		}
		f := cmd.Flags()
		if f.Changed("output-dir") {
			c.OutputDir = runOutputDir
		}
		if f.Changed("strict") {
			c.Strict = runStrict
		}
		if f.Changed("workers") {
			c.Workers = runWorkers
		}
		if f.Changed("sheet") {
			c.SheetName = runSheet
		}
		if f.Changed("decimal") {
			c.Decimal = runDecimal
		}
		if len(runGroups) > 0 {
			c.Groups = nil
			for _, g := range runGroups {
				rule, err := cfgpkg.ParseGroupFlag(g)
				if err != nil {
					return err
				}
				c.Groups = append(c.Groups, rule)
			}
		}
		if len(c.Inputs) == 0 {
			return fmt.Errorf("no input files: pass files or set 'inputs' in the config")
		}

		res, err := pipeline.Run(cmd.Context(), &c)
		if err != nil {
			return err
		}
		summary := res.Summary()
		if !quietOut {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprint(cmd.OutOrStdout(), summary.Markdown())
		}
		if runSummary != "" {
			if err := utils.SafeWriteFile(runSummary, []byte(summary.Markdown())); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			logging.Success("Wrote summary to %s", runSummary)
		}
		logging.Success("Processed %d file(s): %d replicate and %d cross-file comparisons",
			len(res.Files), len(res.Within), len(res.Cross))
		if n := len(res.Notices); n > 0 {
			logging.Notice("%d input(s) or comparison(s) skipped; see notices above", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runBatchCmd)
	runBatchCmd.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "directory for all outputs (overrides config)")
	runBatchCmd.Flags().BoolVar(&runStrict, "strict", false, "fail instead of skipping files or comparisons")
	runBatchCmd.Flags().StringArrayVar(&runGroups, "group", nil, "cross-file group as label=substring (repeatable; replaces configured groups)")
	runBatchCmd.Flags().IntVar(&runWorkers, "workers", 1, "goroutines rendering cross-file PNGs")
	runBatchCmd.Flags().StringVar(&runSummary, "summary", "", "also write the run summary text to this path")
	runBatchCmd.Flags().StringVar(&runSheet, "sheet", "", "worksheet to read from each workbook (default: first sheet)")
	runBatchCmd.Flags().StringVar(&runDecimal, "decimal", ".", "decimal separator for CSV inputs: '.', ',' or 'auto'")
}
