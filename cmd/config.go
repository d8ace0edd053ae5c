package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/flowplot-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set flowplot configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "inputs: %s\n", strings.Join(c.Inputs, ", "))
		if c.SheetName != "" {
			fmt.Fprintf(out, "sheet_name: %s\n", c.SheetName)
		}
		fmt.Fprintf(out, "sample_column: %s\n", c.SampleColumn)
		fmt.Fprintf(out, "source_column: %s\n", c.SourceColumn)
		fmt.Fprintf(out, "metrics: %s\n", strings.Join(c.Metrics, ", "))
		fmt.Fprintf(out, "replicate_metric: %s\n", c.ReplicateMetric)
		fmt.Fprintf(out, "cross_metric: %s\n", c.CrossMetric)
		fmt.Fprintf(out, "cross_tag: %s\n", c.CrossTag)
		fmt.Fprintln(out, "groups:")
		for _, g := range c.Groups {
			fmt.Fprintf(out, "  - %s: %s\n", g.Label, describeGroup(g))
		}
		fmt.Fprintf(out, "decimal: %s\n", c.Decimal)
		fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(out, "strict: %t\n", c.Strict)
		fmt.Fprintf(out, "workers: %d\n", c.Workers)
		fmt.Fprintf(out, "panel: %dx%d @ %.0f dpi\n", c.PanelWidth, c.PanelHeight, c.DPI)
		if c.LogFile != "" {
			fmt.Fprintf(out, "log_file: %s\n", c.LogFile)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set updates one key and writes the configuration back to --config, or to
~/.flowplot/config.yaml when no file was given. List keys (inputs, metrics)
take comma-separated values.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		switch key {
		case "inputs":
			c.Inputs = splitList(val)
		case "sheet_name":
			c.SheetName = val
		case "sample_column":
			c.SampleColumn = val
		case "source_column":
			c.SourceColumn = val
		case "metrics":
			c.Metrics = splitList(val)
		case "replicate_metric":
			c.ReplicateMetric = val
		case "cross_metric":
			c.CrossMetric = val
		case "cross_tag":
			c.CrossTag = val
		case "decimal":
			c.Decimal = val
		case "output_dir":
			c.OutputDir = val
		case "strict":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for strict: %v", val)
			}
			c.Strict = b
		case "workers", "panel_width", "panel_height":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for %s: %w", key, err)
			}
			switch key {
			case "workers":
				c.Workers = i
			case "panel_width":
				c.PanelWidth = i
			default:
				c.PanelHeight = i
			}
		case "dpi":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for dpi: %w", err)
			}
			c.DPI = f
		case "log_file":
			c.LogFile = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		// write back to the file the config came from
		path := cfgFile
		if path == "" {
			path = c.Path()
		}
		if err := cfgpkg.Save(c, path); err != nil {
			return err
		}
		if path == "" {
			path = "~/.flowplot/config.yaml"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved config to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func describeGroup(g cfgpkg.GroupRule) string {
	switch {
	case g.Contains != "":
		return fmt.Sprintf("sources containing %q", g.Contains)
	case g.Pattern != "":
		return fmt.Sprintf("sources matching /%s/", g.Pattern)
	default:
		return strings.Join(g.Sources, ", ")
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
