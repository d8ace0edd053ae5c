// Package manifest records what a run read and wrote.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/KaramelBytes/flowplot-cli/internal/utils"
	"github.com/google/uuid"
)

// FileName is the manifest written into the output directory.
const FileName = "run_manifest.json"

// Artifact kinds.
const (
	KindScatterPNG   = "scatter_png"
	KindReplicateHTM = "replicate_html"
	KindWorkbook     = "averaged_xlsx"
	KindWithinCSV    = "within_csv"
	KindCrossPNG     = "cross_png"
	KindCrossHTML    = "cross_html"
	KindCrossCSV     = "cross_csv"
)

// Artifact is one file written by a run, relative to the output directory.
type Artifact struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Path    string    `json:"path"`
	Source  string    `json:"source,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Manifest is the on-disk record of the last run in an output directory.
type Manifest struct {
	RunID     string      `json:"run_id"`
	CreatedAt time.Time   `json:"created_at"`
	Inputs    []string    `json:"inputs"`
	Artifacts []*Artifact `json:"artifacts"`
	Notices   []string    `json:"notices,omitempty"`

	dir string
}

// New starts an empty manifest for a run writing into dir.
func New(dir string, inputs []string) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now(),
		Inputs:    append([]string(nil), inputs...),
		dir:       dir,
	}
}

// Load reads the manifest stored in dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no run manifest at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.dir = dir
	return &m, nil
}

// Dir returns the output directory the manifest belongs to.
func (m *Manifest) Dir() string { return m.dir }

// Add records an artifact. path may be absolute or relative to Dir.
func (m *Manifest) Add(kind, path, source string) *Artifact {
	if rel, err := filepath.Rel(m.dir, path); err == nil && filepath.IsAbs(path) == filepath.IsAbs(m.dir) {
		path = rel
	}
	a := &Artifact{
		ID:      uuid.NewString(),
		Kind:    kind,
		Path:    filepath.ToSlash(path),
		Source:  source,
		AddedAt: time.Now(),
	}
	m.Artifacts = append(m.Artifacts, a)
	return a
}

// Notice records a skipped input or comparison.
func (m *Manifest) Notice(msg string) { m.Notices = append(m.Notices, msg) }

// Paths returns artifact paths in write order.
func (m *Manifest) Paths() []string {
	out := make([]string, len(m.Artifacts))
	for i, a := range m.Artifacts {
		out[i] = a.Path
	}
	return out
}

// Kinds returns the distinct artifact kinds present, sorted.
func (m *Manifest) Kinds() []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range m.Artifacts {
		if !seen[a.Kind] {
			seen[a.Kind] = true
			out = append(out, a.Kind)
		}
	}
	sort.Strings(out)
	return out
}

// ByKind returns artifacts of the given kind in write order.
func (m *Manifest) ByKind(kind string) []*Artifact {
	var out []*Artifact
	for _, a := range m.Artifacts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Save writes the manifest into Dir atomically.
func (m *Manifest) Save() error {
	if m.dir == "" {
		m.dir = "."
	}
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(m.dir, FileName), data)
}
