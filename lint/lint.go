// Package lint scores Shimmer text lines for compactness.
//
// Score is a pure function of the input line and the active policy:
// identical inputs always yield identical scores and issue lists, which
// CI depends on. The score starts at 100 and is reduced by itemized
// penalties with a floor of 0; a per-log minimum (the lint floor) gates
// whether a line may be appended.
package lint

import (
	"fmt"
	"strings"

	"github.com/skippytm/shimmer/registry"
)

const arrow = "→"

// validActions is the lintable action set; P is the uppercase plan code.
const validActions = "cpqaeP"

// Policy is the penalty table and thresholds for one scoring pass.
type Policy struct {
	// Floor is the minimum score a line needs to be appended.
	Floor int
	// MaxTokenRun is the longest allowed contiguous letter/underscore run.
	// Two upstream revisions disagree (24 vs a tightened 16); the default
	// is 24 and a header token-run override can tighten it.
	MaxTokenRun int
	// UppercaseExempt lists action codes allowed to be uppercase.
	UppercaseExempt string

	WhitespacePenalty          int
	TokenRunPenalty            int
	ActionPenalty              int
	AxisPrecisionPenalty       int
	ConfidencePrecisionPenalty int
	EnglishPenalty             int
}

// Default returns the stock policy.
func Default() Policy {
	return Policy{
		Floor:                      80,
		MaxTokenRun:                24,
		UppercaseExempt:            "P",
		WhitespacePenalty:          20,
		TokenRunPenalty:            10,
		ActionPenalty:              10,
		AxisPrecisionPenalty:       5,
		ConfidencePrecisionPenalty: 3,
		EnglishPenalty:             5,
	}
}

// FromSnapshot derives a policy from a registry snapshot: the stock
// penalty table with the snapshot's floor and token-run threshold.
func FromSnapshot(snap *registry.Snapshot) Policy {
	p := Default()
	p.Floor = snap.LintFloor
	p.MaxTokenRun = snap.MaxTokenRun
	return p
}

// Issue is one itemized deduction.
type Issue struct {
	Code   string
	Detail string
}

func (i Issue) String() string {
	if i.Detail == "" {
		return i.Code
	}
	return i.Code + ":" + i.Detail
}

// Result is the outcome of scoring one line.
type Result struct {
	Score  int
	Issues []Issue
}

// Passes reports whether the score clears the given floor.
func (r Result) Passes(floor int) bool {
	return r.Score >= floor
}

// RejectedError is returned when a line scores below the floor. It
// carries the full issue list so a caller can fix and resubmit in one
// round trip.
type RejectedError struct {
	Score  int
	Floor  int
	Issues []Issue
}

func (e *RejectedError) Error() string {
	codes := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		codes[i] = is.String()
	}
	return fmt.Sprintf("lint rejected: score %d below floor %d: [%s]",
		e.Score, e.Floor, strings.Join(codes, " "))
}

// Check scores the line and returns a *RejectedError when it is below
// the policy floor. Header lines are never floor-gated.
func Check(line string, p Policy) (Result, error) {
	if strings.HasPrefix(line, registry.HeaderMarker) {
		return Result{Score: 100}, nil
	}
	r := Score(line, p)
	if !r.Passes(p.Floor) {
		return r, &RejectedError{Score: r.Score, Floor: p.Floor, Issues: r.Issues}
	}
	return r, nil
}

// Score computes the compactness score and itemized issues for a line.
func Score(line string, p Policy) Result {
	left, right, ok := strings.Cut(line, arrow)
	if !ok {
		return Result{Score: 0, Issues: []Issue{{Code: "missing_arrow"}}}
	}

	score := 100
	var issues []Issue
	deduct := func(penalty int, code, detail string) {
		score -= penalty
		issues = append(issues, Issue{Code: code, Detail: detail})
	}

	if strings.Contains(left, " ") {
		deduct(p.WhitespacePenalty, "spaces_in_container", "")
	}

	leftRunes := []rune(left)
	if len(leftRunes) >= 3 {
		action := leftRunes[2]
		switch {
		case action > 127 || !strings.ContainsRune(validActions, action):
			deduct(p.ActionPenalty, "invalid_action_code", string(action))
		case action >= 'A' && action <= 'Z' && !strings.ContainsRune(p.UppercaseExempt, action):
			deduct(p.ActionPenalty, "uppercase_action", string(action))
		}
	}

	meta := ""
	if len(leftRunes) > 3 {
		meta = string(leftRunes[3:])
	}
	for _, tok := range metaTokens(meta) {
		if lettersOnly(tok) && len(tok) > p.MaxTokenRun {
			deduct(p.TokenRunPenalty, "verbose_token", tok)
			continue
		}
		for _, word := range englishWords(tok) {
			deduct(p.EnglishPenalty, "english_word", word)
		}
	}

	scoreVectorPrecision(right, p, deduct)

	if score < 0 {
		score = 0
	}
	return Result{Score: score, Issues: issues}
}

// metaTokens extracts contiguous ASCII token runs from the metadata
// segment, mirroring the token alphabet [A-Za-z0-9_:.@].
func metaTokens(meta string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range meta {
		if r <= 127 && (isLetter(byte(r)) || isDigit(byte(r)) || r == '_' || r == ':' || r == '.' || r == '@') {
			cur.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

// englishWords returns the natural-language-looking letter runs inside a
// token: pure letter words of 6+ characters containing a vowel. Symbolic
// short codes and digit-bearing ids never qualify.
func englishWords(tok string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		w := cur.String()
		cur.Reset()
		if len(w) >= 6 && strings.ContainsAny(w, "aeiouAEIOU") {
			out = append(out, w)
		}
	}
	for i := 0; i < len(tok); i++ {
		if isLetter(tok[i]) {
			cur.WriteByte(tok[i])
			continue
		}
		flush()
	}
	flush()
	return out
}

// scoreVectorPrecision applies the decimal-digit penalties:
// >1 decimal on any of the first four axes, >2 on confidence.
func scoreVectorPrecision(right string, p Policy, deduct func(int, string, string)) {
	v := strings.TrimSpace(right)
	if !strings.HasPrefix(v, "[") || !strings.HasSuffix(v, "]") {
		return
	}
	parts := strings.Split(v[1:len(v)-1], ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		dot := strings.IndexByte(part, '.')
		if dot < 0 {
			continue
		}
		dp := len(part) - dot - 1
		if i < 4 && dp > 1 {
			deduct(p.AxisPrecisionPenalty, "axis>1dp", part)
		}
		if i == 4 && dp > 2 {
			deduct(p.ConfidencePrecisionPenalty, "conf>2dp", part)
		}
	}
}

func lettersOnly(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isLetter(s[i]) && s[i] != '_' {
			return false
		}
	}
	return true
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
