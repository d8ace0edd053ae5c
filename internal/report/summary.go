package report

import (
	"fmt"
	"math"
	"strings"
)

// FileSummary describes how one input was processed.
type FileSummary struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	// AvgRSquared is NaN when no replicate comparison was fitted.
	AvgRSquared float64 `json:"-"`
	Skipped     string  `json:"skipped,omitempty"`
}

// Summary is the end-of-run overview printed by the run command.
type Summary struct {
	OutputDir string
	Files     []FileSummary
	Within    []WithinRecord
	Cross     []CrossRecord
	Artifacts []string
	Notices   []string
}

// Markdown renders the summary as bracketed plain-text sections.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[RUN SUMMARY]\n")
	if s.OutputDir != "" {
		b.WriteString(fmt.Sprintf("Output: %s\n", s.OutputDir))
	}
	b.WriteString(fmt.Sprintf("Files: %d\n", len(s.Files)))
	b.WriteString(fmt.Sprintf("Within-file comparisons: %d\n", len(s.Within)))
	b.WriteString(fmt.Sprintf("Cross-file comparisons: %d\n\n", len(s.Cross)))

	b.WriteString("[FILES]\n")
	for _, f := range s.Files {
		b.WriteString(fmt.Sprintf("- %s: %d rows", f.Name, f.Rows))
		if !math.IsNaN(f.AvgRSquared) {
			b.WriteString(fmt.Sprintf(", avg R² %.4f", f.AvgRSquared))
		}
		if f.Skipped != "" {
			b.WriteString(fmt.Sprintf(" (%s)", f.Skipped))
		}
		b.WriteString("\n")
	}

	if len(s.Within) > 0 {
		b.WriteString("\n[REPLICATE AGREEMENT]\n")
		for _, r := range s.Within {
			b.WriteString(fmt.Sprintf("- %s %s: %s\n", r.File, r.Comparison, r.Fit.String()))
		}
	}
	if len(s.Cross) > 0 {
		b.WriteString("\n[CROSS-FILE AGREEMENT]\n")
		group := ""
		for _, r := range s.Cross {
			if r.Group != group {
				group = r.Group
				b.WriteString(fmt.Sprintf("Group %s\n", group))
			}
			b.WriteString(fmt.Sprintf("- %s vs %s: %s\n", r.FileA, r.FileB, r.Fit.String()))
		}
	}
	if len(s.Notices) > 0 {
		b.WriteString("\n[NOTICES]\n")
		for _, n := range s.Notices {
			b.WriteString("- " + n + "\n")
		}
	}
	if len(s.Artifacts) > 0 {
		b.WriteString("\n[ARTIFACTS]\n")
		for _, a := range s.Artifacts {
			b.WriteString("- " + a + "\n")
		}
	}
	return b.String()
}
