package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltin_Disjoint(t *testing.T) {
	if err := Builtin().CheckDisjoint(); err != nil {
		t.Fatalf("builtin prefix table not disjoint: %v", err)
	}
}

func TestBuiltin_SessionPrecedesShortGlyph(t *testing.T) {
	// "s:" and "@s" must be tried before bare "s", otherwise the scan
	// can never implement longest match.
	var sawColon, sawShard, sawBare bool
	for _, p := range Builtin().Prefixes() {
		switch p.Glyph {
		case "s:":
			sawColon = true
		case "@s":
			sawShard = true
		case "s":
			if !sawColon || !sawShard {
				t.Fatal("bare s listed before s: or @s")
			}
			sawBare = true
		}
	}
	if !sawBare {
		t.Fatal("bare s prefix missing from table")
	}
}

func TestValidate(t *testing.T) {
	s := Builtin()

	tests := []struct {
		name       string
		kind       TokenKind
		key, value string
		wantReason string
	}{
		{name: "known facet free value", kind: KindFacet, key: "π", value: ":cc"},
		{name: "state facet", kind: KindFacet, key: "σ", value: ":ok"},
		{name: "unknown facet preserved but flagged", kind: KindFacet, key: "ψ", value: ":x", wantReason: "unknown_facet"},
		{name: "flag one", kind: KindFacet, key: "φ", value: ":1"},
		{name: "flag zero", kind: KindFacet, key: "φ", value: ":0"},
		{name: "flag other", kind: KindFacet, key: "φ", value: ":2", wantReason: "flag_not_0_or_1"},
		{name: "error code two digits", kind: KindFacet, key: "β", value: "00"},
		{name: "error code three digits", kind: KindFacet, key: "β", value: "007", wantReason: "value_not_2_digits"},
		{name: "error code letters", kind: KindFacet, key: "β", value: "xy", wantReason: "value_not_numeric"},
		{name: "threshold digits", kind: KindFacet, key: "θ", value: "80"},
		{name: "deliverable ok", kind: KindDeliverable, key: "d", value: "03"},
		{name: "deliverable one digit", kind: KindDeliverable, key: "d", value: "3", wantReason: "deliverable_id_not_2_digits"},
		{name: "request id numeric", kind: KindRequestID, key: "rn", value: "02"},
		{name: "request id alpha", kind: KindRequestID, key: "rn", value: "ab", wantReason: "non_numeric_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := s.Validate(tt.kind, tt.key, tt.value)
			if tt.wantReason == "" {
				if v != nil {
					t.Errorf("Validate = %v, want ok", v)
				}
				return
			}
			if v == nil {
				t.Fatalf("Validate = ok, want violation %s", tt.wantReason)
			}
			if v.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", v.Reason, tt.wantReason)
			}
		})
	}
}

func TestValidate_ValueEmbeddingReservedPrefix(t *testing.T) {
	s := Builtin()
	if v := s.Validate(KindFacet, "κ", ":archτ300"); v == nil {
		t.Fatal("value embedding τ passed validation")
	}
}

func TestApply_HeaderOverrides(t *testing.T) {
	base := Builtin()
	next, err := base.Apply([]HeaderField{
		{Key: HeaderKeyVersion, Value: "1.1"},
		{Key: HeaderKeyLintFloor, Value: "90"},
		{Key: HeaderKeyConfidence, Value: "0.9"},
		{Key: HeaderKeyTokenRun, Value: "16"},
		{Key: HeaderKeyCanonical, Value: "1"},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if next.Version != "1.1" || next.LintFloor != 90 || next.MaxTokenRun != 16 || !next.Canonical {
		t.Errorf("overrides not applied: %+v", next)
	}
	if next.DefaultConfidence != 0.9 {
		t.Errorf("DefaultConfidence = %v, want 0.9", next.DefaultConfidence)
	}

	// Base snapshot must be untouched (versioned snapshots, not in-place).
	if base.Version != "1.0" || base.LintFloor != 80 || base.Canonical {
		t.Errorf("base snapshot mutated: %+v", base)
	}
}

func TestApply_UnknownKey(t *testing.T) {
	if _, err := Builtin().Apply([]HeaderField{{Key: "z", Value: "1"}}); err == nil {
		t.Fatal("unknown header key accepted")
	}
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	doc := `versions:
  "1.0":
    lint_floor: 80
  "1.1":
    lint_floor: 90
    max_token_run: 16
    facets:
      "σ": {name: state}
      "β": {name: error_code, pattern: digits, digits: 2}
      "φ": {name: flag, pattern: flag}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}

	s, err := d.Snapshot("1.1")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if s.LintFloor != 90 || s.MaxTokenRun != 16 {
		t.Errorf("snapshot = %+v", s)
	}
	if _, ok := s.Facets["σ"]; !ok {
		t.Error("σ facet missing from 1.1 snapshot")
	}
	if _, ok := s.Facets["κ"]; ok {
		t.Error("κ facet present in stricter 1.1 snapshot")
	}

	// A line authored under 1.0 may fail under the stricter 1.1.
	if v := s.Validate(KindFacet, "κ", ":arch"); v == nil {
		t.Error("κ accepted by 1.1 snapshot that omits it")
	}

	if _, err := d.Snapshot("9.9"); err == nil {
		t.Error("unknown version accepted")
	}
}

func TestLoadDocument_Missing(t *testing.T) {
	if _, err := LoadDocument(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing document accepted")
	}
}
