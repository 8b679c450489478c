// Package project reads the manifest of the scaffolded agent project, for
// display only. The smoke test never edits the project.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ManifestFileName is the npm manifest the ATK scaffold generates.
const ManifestFileName = "package.json"

// Manifest is the subset of package.json the smoke test reports.
type Manifest struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Scripts map[string]string `json:"scripts"`
}

// ScriptNames returns the declared script names, sorted for stable output.
func (m Manifest) ScriptNames() []string {
	names := make([]string, 0, len(m.Scripts))
	for name := range m.Scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadManifest loads the manifest from the project directory. A missing file
// is returned as-is so callers can test os.IsNotExist and treat it as "the
// project was never scaffolded".
func ReadManifest(dir string) (Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from our own config.
	if err != nil {
		return Manifest{}, err //nolint:wrapcheck // Callers need to test os.IsNotExist.
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// Exists reports whether dir contains a scaffolded project.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ManifestFileName))
	return err == nil
}
