package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk registry: a versioned table of facet schemas.
// Loaded read-only; the active version is selected by the latest header
// line observed in the log.
type Document struct {
	Versions map[string]VersionSpec `yaml:"versions"`
}

// VersionSpec is one registry version within a Document.
type VersionSpec struct {
	LintFloor         int                  `yaml:"lint_floor"`
	DefaultConfidence float64              `yaml:"default_confidence"`
	MaxTokenRun       int                  `yaml:"max_token_run"`
	Facets            map[string]FacetSpec `yaml:"facets"`
}

// FacetSpec is one facet rule within a VersionSpec.
type FacetSpec struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"` // free (default), digits, flag
	Digits  int    `yaml:"digits"`
}

// LoadDocument reads a registry document from a YAML file.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("registry document not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read registry document %q: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if len(doc.Versions) == 0 {
		return nil, fmt.Errorf("registry document %s declares no versions", path)
	}
	return &doc, nil
}

// Snapshot builds the immutable Snapshot for the given version.
// Unset numeric fields fall back to the built-in v1.0 defaults.
func (d *Document) Snapshot(version string) (*Snapshot, error) {
	spec, ok := d.Versions[version]
	if !ok {
		return nil, fmt.Errorf("registry version %q not in document", version)
	}

	base := Builtin()
	s := &Snapshot{
		Version:           version,
		LintFloor:         spec.LintFloor,
		DefaultConfidence: spec.DefaultConfidence,
		MaxTokenRun:       spec.MaxTokenRun,
		Facets:            make(map[string]FacetRule, len(spec.Facets)),
	}
	if s.LintFloor == 0 {
		s.LintFloor = base.LintFloor
	}
	if s.DefaultConfidence == 0 {
		s.DefaultConfidence = base.DefaultConfidence
	}
	if s.MaxTokenRun == 0 {
		s.MaxTokenRun = base.MaxTokenRun
	}
	if len(spec.Facets) == 0 {
		s.Facets = base.Facets
	}
	for glyph, fs := range spec.Facets {
		rule := FacetRule{Name: fs.Name, Digits: fs.Digits}
		switch fs.Pattern {
		case "", "free":
			rule.Pattern = PatternFree
		case "digits":
			rule.Pattern = PatternDigits
		case "flag":
			rule.Pattern = PatternFlag
		default:
			return nil, fmt.Errorf("facet %s: unknown pattern %q", glyph, fs.Pattern)
		}
		s.Facets[glyph] = rule
	}

	s.prefixes = buildPrefixes(s.Facets)
	if err := s.CheckDisjoint(); err != nil {
		return nil, fmt.Errorf("registry version %q: %w", version, err)
	}
	return s, nil
}
