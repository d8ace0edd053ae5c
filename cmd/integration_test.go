package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/flowplot-cli/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag of c and its subcommands to its default.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args and return its output.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset sticky flags and the loaded config between invocations
	resetFlags(rootCmd)
	cfg = nil
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	logging.SetOutput(&buf)
	defer logging.SetOutput(nil)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// isolate gives the test its own HOME and working directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	oldHome := os.Getenv("HOME")
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })
	os.Setenv("HOME", home)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(home); err != nil {
		t.Fatal(err)
	}
	return home
}

// writeCSV writes a replicate table whose three GFP replicates agree closely.
func writeCSV(t *testing.T, path string, samples []string, scale float64) {
	t.Helper()
	var b strings.Builder
	b.WriteString("Sample name,GFP - (rep 1),GFP - (rep 2),GFP - (rep 3),Mean (rep 1),Mean (rep 2)\n")
	for i, s := range samples {
		v := float64(i+1) * 10 * scale
		fmt.Fprintf(&b, "%s,%g,%g,%g,%g,%g\n", s, v, v*1.05+float64(i%2), v*0.95+1, v/2, v/2+1)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCLI_InitRefusesOverwrite(t *testing.T) {
	home := isolate(t)
	runCmd(t, "init")
	if _, err := os.Stat(filepath.Join(home, "flowplot.yaml")); err != nil {
		t.Fatalf("expected flowplot.yaml: %v", err)
	}
	if _, err := execCmd(t, "init"); err == nil {
		t.Fatalf("expected init to refuse overwriting")
	}
	runCmd(t, "init", "--force")
}

func TestCLI_InitWithInputsGlob(t *testing.T) {
	home := isolate(t)
	writeCSV(t, filepath.Join(home, "B.csv"), []string{"s1", "s2"}, 1)
	writeCSV(t, filepath.Join(home, "A.csv"), []string{"s1", "s2"}, 1)
	runCmd(t, "init", "--inputs", "*.csv")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "inputs: A.csv, B.csv") {
		t.Fatalf("expected sorted glob inputs, got:\n%s", out)
	}
}

func TestCLI_RunAndListOutputs(t *testing.T) {
	home := isolate(t)
	samples := []string{"S1", "S2", "S3", "S4"}
	f1 := filepath.Join(home, "File1.csv")
	f2 := filepath.Join(home, "File12.csv")
	writeCSV(t, f1, samples, 1)
	writeCSV(t, f2, samples, 1.3)
	summary := filepath.Join(home, "summary.txt")

	out := runCmd(t, "run", f1, f2, "-o", "out", "--group", "ones=1", "--workers", "2", "--summary", summary)
	if !strings.Contains(out, "[RUN SUMMARY]") {
		t.Fatalf("expected run summary in output, got:\n%s", out)
	}
	// only mScar + is absent from the fixtures
	if !strings.Contains(out, "No replicate columns found for 'mScar +'") {
		t.Fatalf("expected missing metric notice, got:\n%s", out)
	}
	for _, name := range []string{
		"File1_scatter.png",
		"File12_interactive.html",
		"Per_File_Averaged_Replicates_Output.xlsx",
		"R2_Summary_All_Files.csv",
		"File1_vs_File12_GFP_Cross.png",
		"All_Comparisons_ones.html",
		"CrossFile_GFP_Comparisons_R2_Summary.csv",
		"run_manifest.json",
	} {
		if _, err := os.Stat(filepath.Join(home, "out", name)); err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(home, "out", "All_Comparisons_1.html")); err == nil {
		t.Fatalf("--group should replace the default groups")
	}
	b, err := os.ReadFile(filepath.Join(home, "out", "CrossFile_GFP_Comparisons_R2_Summary.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "Group,File A,File B,R²,Slope (m),Intercept (b)\nones,File1,File12,") {
		t.Fatalf("unexpected cross csv:\n%s", b)
	}
	if _, err := os.Stat(summary); err != nil {
		t.Fatalf("expected summary file: %v", err)
	}

	listed := runCmd(t, "outputs", "out")
	if !strings.Contains(listed, "[cross_png] File1_vs_File12_GFP_Cross.png (ones)") {
		t.Fatalf("outputs did not list cross png:\n%s", listed)
	}
	only := runCmd(t, "outputs", "out", "--kind", "within_csv")
	if strings.Contains(only, "scatter") || !strings.Contains(only, "R2_Summary_All_Files.csv") {
		t.Fatalf("--kind filter failed:\n%s", only)
	}
}

func TestCLI_RunStrictFails(t *testing.T) {
	home := isolate(t)
	f1 := filepath.Join(home, "File1.csv")
	writeCSV(t, f1, []string{"S1", "S2"}, 1)
	if _, err := execCmd(t, "run", f1, "-o", "out", "--strict"); err == nil {
		t.Fatalf("expected strict run to fail on missing mScar + columns")
	}
}

func TestCLI_Fit(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "plate.csv")
	data := "Sample name,A,B\ns1,1,3\ns2,2,5\ns3,3,7\ns4,NA,100\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	png := filepath.Join(home, "fit.png")
	html := filepath.Join(home, "fit.html")
	out := runCmd(t, "fit", path, "--x", "A", "--y", "B", "--png", png, "--html", html)
	for _, want := range []string{"A vs B (plate)", "y = 2.00x + 1.00", "R² = 1.000", "n = 3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("fit output missing %q:\n%s", want, out)
		}
	}
	for _, p := range []string{png, html} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s: %v", p, err)
		}
	}
	if _, err := execCmd(t, "fit", path, "--x", "A"); err == nil {
		t.Fatalf("expected error without --y")
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolate(t)
	cfgPath := filepath.Join(home, "custom.yaml")
	runCmd(t, "--config", cfgPath, "init", cfgPath)
	runCmd(t, "--config", cfgPath, "config", "set", "workers", "3")
	runCmd(t, "--config", cfgPath, "config", "set", "metrics", "GFP -, Mean")
	out := runCmd(t, "--config", cfgPath, "config", "show")
	if !strings.Contains(out, "workers: 3") || !strings.Contains(out, "metrics: GFP -, Mean") {
		t.Fatalf("config show did not reflect set values:\n%s", out)
	}
	if _, err := execCmd(t, "--config", cfgPath, "config", "set", "workers", "0"); err == nil {
		t.Fatalf("expected validation error for workers=0")
	}
	if _, err := execCmd(t, "--config", cfgPath, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestCLI_ConfigSetWritesDiscoveredFile(t *testing.T) {
	home := isolate(t)
	runCmd(t, "init")
	out := runCmd(t, "config", "set", "workers", "3")
	if !strings.Contains(out, "Saved config to flowplot.yaml") {
		t.Fatalf("expected save to ./flowplot.yaml, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(home, ".flowplot", "config.yaml")); err == nil {
		t.Fatalf("config set must not write the home config when ./flowplot.yaml was loaded")
	}
	shown := runCmd(t, "config", "show")
	if !strings.Contains(shown, "workers: 3") {
		t.Fatalf("config show did not pick up the saved value:\n%s", shown)
	}
}
