package cmd

import (
	"fmt"

	"github.com/KaramelBytes/flowplot-cli/internal/manifest"
	"github.com/spf13/cobra"
)

var outputsKind string

var outputsCmd = &cobra.Command{
	Use:   "outputs [dir]",
	Short: "List the files written by the last run in an output directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		} else if c, err := currentConfig(); err == nil && c.OutputDir != "" {
			dir = c.OutputDir
		}
		m, err := manifest.Load(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s at %s (%d input(s))\n", m.RunID, m.CreatedAt.Format("2006-01-02 15:04:05"), len(m.Inputs))
		arts := m.Artifacts
		if outputsKind != "" {
			arts = m.ByKind(outputsKind)
		}
		if len(arts) == 0 {
			fmt.Fprintln(out, "(no outputs)")
		}
		for _, a := range arts {
			if a.Source != "" {
				fmt.Fprintf(out, "- [%s] %s (%s)\n", a.Kind, a.Path, a.Source)
			} else {
				fmt.Fprintf(out, "- [%s] %s\n", a.Kind, a.Path)
			}
		}
		if len(m.Notices) > 0 {
			fmt.Fprintf(out, "%d notice(s):\n", len(m.Notices))
			for _, n := range m.Notices {
				fmt.Fprintf(out, "  ⚠ %s\n", n)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(outputsCmd)
	outputsCmd.Flags().StringVar(&outputsKind, "kind", "", "only list artifacts of this kind (e.g. cross_png)")
}
