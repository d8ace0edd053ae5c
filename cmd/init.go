package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	cfgpkg "github.com/KaramelBytes/flowplot-cli/internal/config"
	"github.com/KaramelBytes/flowplot-cli/internal/logging"
	"github.com/spf13/cobra"
)

var (
	initForce bool
	initGlob  string
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter flowplot.yaml",
	Long: `Init writes a configuration file holding every default, ready to edit.
The default path is ./flowplot.yaml, which run picks up automatically.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgpkg.FileName
		if len(args) == 1 {
			path = args[0]
		}
		// Refuse to overwrite an existing config.
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat config: %w", err)
		}
		c := cfgpkg.Default()
		if initGlob != "" {
			matches, err := filepath.Glob(initGlob)
			if err != nil {
				return fmt.Errorf("invalid --inputs pattern: %w", err)
			}
			if len(matches) == 0 {
				logging.Notice("no files match %s; keeping default inputs", initGlob)
			} else {
				sort.Strings(matches)
				c.Inputs = matches
			}
		}
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("mkdir config dir: %w", err)
			}
		}
		if err := cfgpkg.Save(c, path); err != nil {
			return err
		}
		logging.Success("Config initialized: %s", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	initCmd.Flags().StringVar(&initGlob, "inputs", "", "glob of input files to list in the config, e.g. 'data/*.xlsx'")
}
