package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config base name looked up in the working directory.
const FileName = "flowplot.yaml"

// Global configuration structure.
type Global struct {
	Inputs          []string `mapstructure:"inputs" yaml:"inputs"`
	SheetName       string   `mapstructure:"sheet_name" yaml:"sheet_name"`
	SampleColumn    string   `mapstructure:"sample_column" yaml:"sample_column"`
	SourceColumn    string   `mapstructure:"source_column" yaml:"source_column"`
	Metrics         []string `mapstructure:"metrics" yaml:"metrics"`
	ReplicateMetric string   `mapstructure:"replicate_metric" yaml:"replicate_metric"`
	CrossMetric     string   `mapstructure:"cross_metric" yaml:"cross_metric"`
	// CrossTag is embedded in cross-file output names, e.g. File1_vs_File2_GFP_Cross.png.
	CrossTag string      `mapstructure:"cross_tag" yaml:"cross_tag"`
	Groups   []GroupRule `mapstructure:"groups" yaml:"groups"`
	// Decimal separator for CSV inputs: "." | "," | "auto"
	Decimal   string `mapstructure:"decimal" yaml:"decimal"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Strict    bool   `mapstructure:"strict" yaml:"strict"`
	Workers   int    `mapstructure:"workers" yaml:"workers"`

	// Plot sizing
	PanelWidth  int     `mapstructure:"panel_width" yaml:"panel_width"`
	PanelHeight int     `mapstructure:"panel_height" yaml:"panel_height"`
	DPI         float64 `mapstructure:"dpi" yaml:"dpi"`

	LogFile string `mapstructure:"log_file" yaml:"log_file"`

	// file Load read from; empty when only defaults and env applied
	path string
}

// Path returns the config file this configuration was loaded from, or "".
func (c *Global) Path() string { return c.path }

// GroupRule selects the sources compared against each other in one
// cross-file group. Exactly one of Contains, Pattern or Sources is set.
type GroupRule struct {
	Label    string   `mapstructure:"label" yaml:"label"`
	Contains string   `mapstructure:"contains" yaml:"contains,omitempty"`
	Pattern  string   `mapstructure:"pattern" yaml:"pattern,omitempty"`
	Sources  []string `mapstructure:"sources" yaml:"sources,omitempty"`
}

// DefaultInputs is the historical file list: File1.xlsx .. File10.xlsx.
func DefaultInputs() []string {
	out := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		out = append(out, fmt.Sprintf("File%d.xlsx", i))
	}
	return out
}

// DefaultGroups splits sources by the digits "1" and "2" in their names.
func DefaultGroups() []GroupRule {
	return []GroupRule{
		{Label: "1", Contains: "1"},
		{Label: "2", Contains: "2"},
	}
}

// Default returns the configuration used when nothing is set.
func Default() *Global {
	return &Global{
		Inputs:          DefaultInputs(),
		SampleColumn:    "Sample name",
		SourceColumn:    "Source File",
		Metrics:         []string{"mScar +", "Mean", "GFP -"},
		ReplicateMetric: "GFP -",
		CrossMetric:     "GFP -",
		CrossTag:        "GFP",
		Groups:          DefaultGroups(),
		Decimal:         ".",
		OutputDir:       ".",
		Workers:         1,
		PanelWidth:      600,
		PanelHeight:     480,
		DPI:             96,
	}
}

// Validate reports the first unusable setting.
func (c *Global) Validate() error {
	if strings.TrimSpace(c.SampleColumn) == "" {
		return errors.New("sample_column must not be empty")
	}
	if strings.TrimSpace(c.SourceColumn) == "" {
		return errors.New("source_column must not be empty")
	}
	if len(c.Metrics) == 0 {
		return errors.New("metrics must list at least one metric")
	}
	if c.ReplicateMetric == "" || c.CrossMetric == "" {
		return errors.New("replicate_metric and cross_metric must be set")
	}
	switch c.Decimal {
	case ".", ",", "auto":
	default:
		return fmt.Errorf("invalid decimal: %q (use '.', ',' or 'auto')", c.Decimal)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.PanelWidth <= 0 || c.PanelHeight <= 0 {
		return fmt.Errorf("panel size must be positive, got %dx%d", c.PanelWidth, c.PanelHeight)
	}
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %v", c.DPI)
	}
	seen := map[string]struct{}{}
	for i, g := range c.Groups {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("groups[%d]: %w", i, err)
		}
		if _, dup := seen[g.Label]; dup {
			return fmt.Errorf("groups[%d]: duplicate label %q", i, g.Label)
		}
		seen[g.Label] = struct{}{}
	}
	return nil
}

// Validate checks that the rule has a label and exactly one matcher.
func (g GroupRule) Validate() error {
	if strings.TrimSpace(g.Label) == "" {
		return errors.New("label is required")
	}
	n := 0
	if g.Contains != "" {
		n++
	}
	if g.Pattern != "" {
		n++
		if _, err := regexp.Compile(g.Pattern); err != nil {
			return fmt.Errorf("group %q: invalid pattern: %w", g.Label, err)
		}
	}
	if len(g.Sources) > 0 {
		n++
	}
	if n != 1 {
		return fmt.Errorf("group %q: set exactly one of contains, pattern or sources", g.Label)
	}
	return nil
}

// ParseGroupFlag parses "label=substring" into a substring rule.
func ParseGroupFlag(s string) (GroupRule, error) {
	label, sub, ok := strings.Cut(s, "=")
	label = strings.TrimSpace(label)
	if !ok || label == "" || sub == "" {
		return GroupRule{}, fmt.Errorf("invalid group %q (use label=substring)", s)
	}
	return GroupRule{Label: label, Contains: sub}, nil
}

// Save writes the given configuration to cfgFile. If cfgFile is empty,
// it writes to ~/.flowplot/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := homeConfigDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. An explicit cfgFile must exist;
// otherwise ./flowplot.yaml then ~/.flowplot/config.yaml are tried.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("FLOWPLOT")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("inputs", d.Inputs)
	v.SetDefault("sheet_name", d.SheetName)
	v.SetDefault("sample_column", d.SampleColumn)
	v.SetDefault("source_column", d.SourceColumn)
	v.SetDefault("metrics", d.Metrics)
	v.SetDefault("replicate_metric", d.ReplicateMetric)
	v.SetDefault("cross_metric", d.CrossMetric)
	v.SetDefault("cross_tag", d.CrossTag)
	v.SetDefault("decimal", d.Decimal)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("panel_width", d.PanelWidth)
	v.SetDefault("panel_height", d.PanelHeight)
	v.SetDefault("dpi", d.DPI)
	v.SetDefault("log_file", "")

	path := cfgFile
	if path == "" {
		path = discover()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// groups have no scalar env/default form; fill after unmarshal
	if len(c.Groups) == 0 {
		c.Groups = DefaultGroups()
	}
	c.path = path
	return &c, nil
}

// discover returns the first existing default config path, or "".
func discover() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	dir, err := homeConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

func homeConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".flowplot"), nil
}
