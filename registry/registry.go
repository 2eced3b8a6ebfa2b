// Package registry holds the versioned facet schema for Shimmer containers.
//
// A Snapshot is an immutable view of one registry version: the whitelist of
// facet keys, per-key value patterns, the ordered reserved-prefix table used
// by the container scanner, and the header-derived policy defaults (lint
// floor, default confidence). Snapshots are never mutated in place; header
// updates produce a new Snapshot via Apply.
package registry

import (
	"fmt"
	"strings"
)

// TokenKind classifies a reserved token prefix.
type TokenKind int

const (
	// KindHeader marks a header line (leading ‡).
	KindHeader TokenKind = iota
	// KindRequestID is a request id token (№ or rn prefix).
	KindRequestID
	// KindSession is a session id token (s: or s prefix).
	KindSession
	// KindShard is a shard token (@s prefix).
	KindShard
	// KindBatchTag is a batch tag token (ctag prefix).
	KindBatchTag
	// KindFacet is a single-symbol facet token.
	KindFacet
	// KindDeadline is the deadline token (τ prefix).
	KindDeadline
	// KindDeliverable is a deliverable reference (f/d/r/m + 2 digits).
	KindDeliverable
)

// ValuePattern constrains the value portion of a token.
type ValuePattern int

const (
	// PatternFree permits any value that does not collide with a reserved prefix.
	PatternFree ValuePattern = iota
	// PatternDigits requires an all-digit value.
	PatternDigits
	// PatternFlag requires exactly ":1" or ":0".
	PatternFlag
)

// HeaderMarker is the leading glyph of a header line.
const HeaderMarker = "‡"

// Header-only token keys. These appear after the header marker and set
// log-scoped defaults; the latest header line wins.
const (
	HeaderKeyVersion     = "v"
	HeaderKeyConfidence  = "δ"
	HeaderKeyLintFloor   = "λ"
	HeaderKeyTokenRun    = "t"
	HeaderKeyCanonical   = "!"
)

// Prefix is one entry of the scanner's reserved-prefix table.
// Entries are tried in slice order; the table encodes both precedence and
// the longest-match rule (longer glyphs precede their shorter prefixes).
type Prefix struct {
	Kind  TokenKind
	Glyph string
	// ExactDigits, when non-zero, requires the value to be exactly that
	// many digits (deliverables, error codes).
	ExactDigits int
}

// FacetRule describes one whitelisted facet key.
type FacetRule struct {
	// Name is the human name of the facet (state, topic, ...).
	Name string
	// Pattern constrains the facet value.
	Pattern ValuePattern
	// Digits is the required digit count for PatternDigits (0 = any length).
	Digits int
}

// Violation reports a token that fails the active schema.
type Violation struct {
	Key    string
	Value  string
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("registry violation: %s %s%s", v.Reason, v.Key, v.Value)
}

// Snapshot is an immutable registry version plus log-scoped defaults.
type Snapshot struct {
	Version           string
	Facets            map[string]FacetRule
	LintFloor         int
	DefaultConfidence float64
	MaxTokenRun       int
	Canonical         bool

	prefixes []Prefix
}

// Builtin returns the built-in v1.0 snapshot. This is the schema in effect
// when a log carries no header line.
func Builtin() *Snapshot {
	s := &Snapshot{
		Version:           "1.0",
		LintFloor:         80,
		DefaultConfidence: 0.85,
		MaxTokenRun:       24,
		Facets: map[string]FacetRule{
			"σ": {Name: "state"},
			"μ": {Name: "mutation"},
			"κ": {Name: "topic"},
			"π": {Name: "process"},
			"ω": {Name: "operator"},
			"ρ": {Name: "resource"},
			"φ": {Name: "flag", Pattern: PatternFlag},
			"θ": {Name: "threshold", Pattern: PatternDigits},
			"γ": {Name: "group"},
			"α": {Name: "actor"},
			"β": {Name: "error_code", Pattern: PatternDigits, Digits: 2},
		},
	}
	s.prefixes = buildPrefixes(s.Facets)
	return s
}

// buildPrefixes assembles the scanner table in fixed precedence order:
// request id > session > shard > batch tag > facets > deadline > deliverables.
// Within the session group "s:" precedes "s" so the longer glyph wins.
func buildPrefixes(facets map[string]FacetRule) []Prefix {
	ps := []Prefix{
		{Kind: KindRequestID, Glyph: "№"},
		{Kind: KindRequestID, Glyph: "rn"},
		{Kind: KindSession, Glyph: "s:"},
		{Kind: KindShard, Glyph: "@s"},
		{Kind: KindSession, Glyph: "s"},
		{Kind: KindBatchTag, Glyph: "ctag"},
	}
	for _, glyph := range facetOrder {
		if _, ok := facets[glyph]; ok {
			ps = append(ps, Prefix{Kind: KindFacet, Glyph: glyph})
		}
	}
	ps = append(ps,
		Prefix{Kind: KindDeadline, Glyph: "τ"},
		Prefix{Kind: KindDeliverable, Glyph: "f", ExactDigits: 2},
		Prefix{Kind: KindDeliverable, Glyph: "d", ExactDigits: 2},
		Prefix{Kind: KindDeliverable, Glyph: "r", ExactDigits: 2},
		Prefix{Kind: KindDeliverable, Glyph: "m", ExactDigits: 2},
	)
	return ps
}

// facetOrder fixes facet precedence for deterministic scanning.
var facetOrder = []string{"σ", "μ", "κ", "π", "ω", "ρ", "φ", "θ", "γ", "α", "β"}

// Prefixes returns the ordered reserved-prefix table for the scanner.
// The returned slice must not be modified.
func (s *Snapshot) Prefixes() []Prefix {
	return s.prefixes
}

// Validate checks a scanned token against the schema. The scanner preserves
// unknown-but-well-formed facet keys; this is where they get flagged.
func (s *Snapshot) Validate(kind TokenKind, key, value string) *Violation {
	switch kind {
	case KindFacet:
		rule, ok := s.Facets[key]
		if !ok {
			return &Violation{Key: key, Value: value, Reason: "unknown_facet"}
		}
		return s.validateValue(rule, key, value)
	case KindDeliverable:
		if len(value) != 2 || !allDigits(value) {
			return &Violation{Key: key, Value: value, Reason: "deliverable_id_not_2_digits"}
		}
	case KindRequestID, KindShard:
		if !allDigits(value) {
			return &Violation{Key: key, Value: value, Reason: "non_numeric_id"}
		}
	case KindDeadline:
		if !allDigits(value) {
			return &Violation{Key: key, Value: value, Reason: "non_numeric_deadline"}
		}
	}
	return nil
}

func (s *Snapshot) validateValue(rule FacetRule, key, value string) *Violation {
	body := strings.TrimPrefix(value, ":")
	switch rule.Pattern {
	case PatternFlag:
		if value != ":1" && value != ":0" {
			return &Violation{Key: key, Value: value, Reason: "flag_not_0_or_1"}
		}
	case PatternDigits:
		if !allDigits(body) {
			return &Violation{Key: key, Value: value, Reason: "value_not_numeric"}
		}
		if rule.Digits > 0 && len(body) != rule.Digits {
			return &Violation{Key: key, Value: value, Reason: fmt.Sprintf("value_not_%d_digits", rule.Digits)}
		}
	case PatternFree:
		// Free values still must not embed a reserved prefix; the scanner
		// stops at reserved glyphs, so a surviving collision means the
		// value was authored against a different registry version.
		if g := s.collidingGlyph(body); g != "" {
			return &Violation{Key: key, Value: value, Reason: "value_contains_reserved_prefix_" + g}
		}
	}
	return nil
}

// collidingGlyph reports a reserved glyph embedded in a value, if any.
// Single-byte ASCII glyphs (s, f, d, r, m) are exempt inside values: the
// scanner only recognizes them at token starts, and banning those letters
// from every value would make free-form values useless.
func (s *Snapshot) collidingGlyph(value string) string {
	for _, p := range s.prefixes {
		if len(p.Glyph) < 2 && p.Glyph != "№" && p.Glyph != "τ" && !isFacetGlyph(p.Glyph) {
			continue
		}
		if strings.Contains(value, p.Glyph) {
			return p.Glyph
		}
	}
	return ""
}

func isFacetGlyph(g string) bool {
	for _, f := range facetOrder {
		if f == g {
			return true
		}
	}
	return false
}

// CheckDisjoint verifies the prefix table is unambiguous: whenever one glyph
// is a proper prefix of another, the longer glyph must come first so the
// fixed-order scan implements longest match.
func (s *Snapshot) CheckDisjoint() error {
	for i, a := range s.prefixes {
		for _, b := range s.prefixes[i+1:] {
			if a.Glyph != b.Glyph && strings.HasPrefix(b.Glyph, a.Glyph) {
				return fmt.Errorf("prefix %q shadows longer prefix %q", a.Glyph, b.Glyph)
			}
		}
	}
	return nil
}

// HeaderField is one parsed header token.
type HeaderField struct {
	Key   string
	Value string
}

// Apply returns a new Snapshot with the header overrides applied.
// Unknown header keys are rejected; the base snapshot is left untouched.
func (s *Snapshot) Apply(fields []HeaderField) (*Snapshot, error) {
	out := *s
	out.Facets = s.Facets
	out.prefixes = s.prefixes
	for _, f := range fields {
		switch f.Key {
		case HeaderKeyVersion:
			out.Version = f.Value
		case HeaderKeyConfidence:
			c, err := parseUnitFloat(f.Value)
			if err != nil {
				return nil, fmt.Errorf("header %s: %w", f.Key, err)
			}
			out.DefaultConfidence = c
		case HeaderKeyLintFloor:
			n, err := parseSmallInt(f.Value, 100)
			if err != nil {
				return nil, fmt.Errorf("header %s: %w", f.Key, err)
			}
			out.LintFloor = n
		case HeaderKeyTokenRun:
			n, err := parseSmallInt(f.Value, 999)
			if err != nil {
				return nil, fmt.Errorf("header %s: %w", f.Key, err)
			}
			out.MaxTokenRun = n
		case HeaderKeyCanonical:
			out.Canonical = f.Value == "1"
		default:
			return nil, fmt.Errorf("unknown header token %q", f.Key)
		}
	}
	return &out, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseSmallInt(s string, max int) (int, error) {
	if !allDigits(s) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
		if n > max {
			return 0, fmt.Errorf("value %q exceeds %d", s, max)
		}
	}
	return n, nil
}

func parseUnitFloat(s string) (float64, error) {
	var intPart, fracPart string
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	} else {
		intPart = s
	}
	if !allDigits(intPart) || (fracPart != "" && !allDigits(fracPart)) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	v := 0.0
	for _, r := range intPart {
		v = v*10 + float64(r-'0')
	}
	scale := 0.1
	for _, r := range fracPart {
		v += float64(r-'0') * scale
		scale /= 10
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("value %q outside [0,1]", s)
	}
	return v, nil
}
