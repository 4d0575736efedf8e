// Package extbundle loads, validates, and packages Srclight language
// extensions for publishing. The platform side (registry storage, sandboxed
// execution) is out of scope; this is the local half that runs on a
// developer's machine.
package extbundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// EngineVersion is the extension API version this CLI speaks. Manifests with
// an engine constraint that excludes it are rejected before packaging.
const EngineVersion = "1.6.0"

// ManifestName is the required manifest file at an extension's root.
const ManifestName = "srclight.json"

var extensionIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*/[a-z0-9][a-z0-9.-]*$`)

// Manifest describes one extension: identity, version, the engine range it
// supports, and its entry script.
type Manifest struct {
	// ID is "publisher/name", lowercase.
	ID      string `json:"id"`
	Version string `json:"version"`
	// Engine is a semver constraint on the extension API, e.g. ">=1.4".
	// Empty means any engine.
	Engine      string `json:"engine,omitempty"`
	Entry       string `json:"entry"`
	Description string `json:"description,omitempty"`
	// URLPatterns limits which code-host pages the extension activates on.
	URLPatterns []string `json:"urlPatterns,omitempty"`
}

// Validate checks the manifest against the current engine.
func (m *Manifest) Validate() error {
	if !extensionIDPattern.MatchString(m.ID) {
		return fmt.Errorf("invalid extension ID %q: expected publisher/name", m.ID)
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return fmt.Errorf("invalid extension version %q: %w", m.Version, err)
	}
	if m.Engine != "" {
		constraint, err := semver.NewConstraint(m.Engine)
		if err != nil {
			return fmt.Errorf("invalid engine constraint %q: %w", m.Engine, err)
		}
		if !constraint.Check(semver.MustParse(EngineVersion)) {
			return fmt.Errorf("extension requires engine %q but this CLI provides %s", m.Engine, EngineVersion)
		}
	}
	if m.Entry == "" {
		return fmt.Errorf("manifest is missing the entry script")
	}
	return nil
}

// Bundle is a validated extension directory ready for packaging.
type Bundle struct {
	Dir      string
	Manifest Manifest
	// EntryPath is the absolute path of the resolved entry script.
	EntryPath string
}

// Load reads and validates the extension rooted at dir.
func Load(dir string) (*Bundle, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ManifestName, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ManifestName, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	entryPath := filepath.Join(dir, filepath.FromSlash(manifest.Entry))
	if _, err := os.Stat(entryPath); err != nil {
		return nil, fmt.Errorf("entry script %s not found: %w", manifest.Entry, err)
	}

	return &Bundle{Dir: dir, Manifest: manifest, EntryPath: entryPath}, nil
}
