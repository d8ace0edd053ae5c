package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(home))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultInputs(), c.Inputs)
	assert.Equal(t, "Sample name", c.SampleColumn)
	assert.Equal(t, []string{"mScar +", "Mean", "GFP -"}, c.Metrics)
	assert.Equal(t, DefaultGroups(), c.Groups)
	assert.Equal(t, 1, c.Workers)
	require.NoError(t, c.Validate())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "custom.yaml")
	body := `inputs: [a.xlsx, b.xlsx]
metrics: ["GFP -"]
output_dir: out
groups:
  - label: plates
    pattern: "^Plate"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("FLOWPLOT_WORKERS", "4")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, c.Path())
	assert.Equal(t, []string{"a.xlsx", "b.xlsx"}, c.Inputs)
	assert.Equal(t, []string{"GFP -"}, c.Metrics)
	assert.Equal(t, "out", c.OutputDir)
	assert.Equal(t, 4, c.Workers)
	require.Len(t, c.Groups, 1)
	assert.Equal(t, "^Plate", c.Groups[0].Pattern)
}

func TestLoadDiscoversWorkingDirFile(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(FileName, []byte("cross_tag: mScar\n"), 0o644))
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mScar", c.CrossTag)
	assert.Equal(t, FileName, c.Path())
}

func TestLoadDefaultsHaveNoPath(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, c.Path())
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	home := isolate(t)
	_, err := Load(filepath.Join(home, "nope.yaml"))
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	home := isolate(t)
	c := Default()
	c.Strict = true
	c.Groups = []GroupRule{{Label: "pair", Sources: []string{"File1", "File2"}}}
	path := filepath.Join(home, "saved.yaml")
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.True(t, got.Strict)
	assert.Equal(t, c.Groups, got.Groups)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Global)
	}{
		{"empty sample column", func(c *Global) { c.SampleColumn = " " }},
		{"no metrics", func(c *Global) { c.Metrics = nil }},
		{"bad decimal", func(c *Global) { c.Decimal = ";" }},
		{"zero workers", func(c *Global) { c.Workers = 0 }},
		{"bad panel", func(c *Global) { c.PanelWidth = 0 }},
		{"group without matcher", func(c *Global) { c.Groups = []GroupRule{{Label: "x"}} }},
		{"group with two matchers", func(c *Global) { c.Groups = []GroupRule{{Label: "x", Contains: "1", Pattern: "2"}} }},
		{"group bad regexp", func(c *Global) { c.Groups = []GroupRule{{Label: "x", Pattern: "("}} }},
		{"duplicate labels", func(c *Global) {
			c.Groups = []GroupRule{{Label: "x", Contains: "1"}, {Label: "x", Contains: "2"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseGroupFlag(t *testing.T) {
	g, err := ParseGroupFlag("early=1")
	require.NoError(t, err)
	assert.Equal(t, GroupRule{Label: "early", Contains: "1"}, g)

	for _, bad := range []string{"", "early", "=1", "early="} {
		_, err := ParseGroupFlag(bad)
		assert.Error(t, err, bad)
	}
}
