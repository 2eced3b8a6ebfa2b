package container

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/skippytm/shimmer/registry"
	"github.com/skippytm/shimmer/vector"
)

// Decode parses one text line into a Container under the given registry
// snapshot. The scanner is a left-to-right, backtracking-free lexer: after
// routing and action it repeatedly takes the first entry of the snapshot's
// ordered prefix table that matches (the table encodes longest-match
// precedence) and consumes the value greedily up to the next reserved
// prefix start, a space, or the arrow.
//
// Unknown-but-well-formed facet keys are preserved here and flagged by
// Container.Validate, never dropped. Inter-token spaces are skipped; the
// linter owns the whitespace penalty.
func Decode(line string, snap *registry.Snapshot) (*Container, error) {
	line = strings.TrimRight(line, "\n")
	if strings.HasPrefix(line, registry.HeaderMarker) {
		return decodeHeader(line)
	}

	runes := []rune(line)
	if len(runes) < 3 {
		return nil, parseErr(ParseBadRouting, 0, "line shorter than routing and action")
	}
	if runes[2] > unicode.MaxASCII || !Action(runes[2]).Valid() {
		return nil, parseErr(ParseBadAction, len(string(runes[:2])), fmt.Sprintf("%q", runes[2]))
	}

	c := New(string(runes[:2]), Action(runes[2]))
	rest := string(runes[3:])
	pos := len(line) - len(rest)

	for {
		if rest == "" {
			return nil, parseErr(ParseMissingSeparator, pos, "")
		}
		if strings.HasPrefix(rest, Arrow) {
			rest = rest[len(Arrow):]
			pos += len(Arrow)
			break
		}
		if rest[0] == ' ' {
			rest = rest[1:]
			pos++
			continue
		}

		tok, n, err := scanToken(snap, rest, pos)
		if err != nil {
			return nil, err
		}
		c.Tokens = append(c.Tokens, tok)
		rest = rest[n:]
		pos += n
	}

	v, err := parseVector(rest, pos)
	if err != nil {
		return nil, err
	}
	c.Vector = v
	return c, nil
}

// scanToken consumes one token at the head of s.
func scanToken(snap *registry.Snapshot, s string, pos int) (Token, int, error) {
	p, ok := matchPrefix(snap, s)
	if !ok {
		r, size := utf8.DecodeRuneInString(s)
		if unicode.Is(unicode.Greek, r) {
			// Facet-shaped but not whitelisted: preserve for the registry layer.
			val, n := scanValue(snap, s[size:])
			return Token{Kind: registry.KindFacet, Key: string(r), Value: val}, size + n, nil
		}
		return Token{}, 0, parseErr(ParseUnknownPrefix, pos, fmt.Sprintf("%q", r))
	}

	body := s[len(p.Glyph):]
	switch p.Kind {
	case registry.KindDeliverable:
		d := leadingDigits(body)
		if len(d) != p.ExactDigits {
			return Token{}, 0, parseErr(ParseBadDeliverable, pos, p.Glyph+d)
		}
		return Token{Kind: p.Kind, Key: p.Glyph, Value: d}, len(p.Glyph) + len(d), nil

	case registry.KindDeadline:
		d := leadingDigits(body)
		n, err := strconv.Atoi(d)
		if d == "" || err != nil || n < MinDeadline || n > MaxDeadline {
			return Token{}, 0, parseErr(ParseBadDeadline, pos, d)
		}
		return Token{Kind: p.Kind, Key: p.Glyph, Value: d}, len(p.Glyph) + len(d), nil

	default:
		val, n := scanValue(snap, body)
		return Token{Kind: p.Kind, Key: p.Glyph, Value: val}, len(p.Glyph) + n, nil
	}
}

// matchPrefix returns the first table entry whose glyph matches the head
// of s and whose value shape can follow. Requiring the value shape keeps
// single-letter ASCII glyphs (s, f, d, r, m) from firing inside free text.
func matchPrefix(snap *registry.Snapshot, s string) (registry.Prefix, bool) {
	for _, p := range snap.Prefixes() {
		if !strings.HasPrefix(s, p.Glyph) {
			continue
		}
		if valueCanFollow(p, s[len(p.Glyph):]) {
			return p, true
		}
	}
	return registry.Prefix{}, false
}

// valueCanFollow reports whether the byte after a glyph is a plausible
// value start for that token kind.
func valueCanFollow(p registry.Prefix, body string) bool {
	switch p.Kind {
	case registry.KindDeliverable:
		// Kind letter with no digit at all is free text, not a deliverable.
		return len(body) > 0 && isDigit(body[0])
	case registry.KindRequestID, registry.KindShard:
		return len(body) > 0 && isDigit(body[0])
	case registry.KindSession:
		if p.Glyph == "s" {
			return len(body) > 0 && isDigit(body[0])
		}
		return true
	default:
		return true
	}
}

// scanValue consumes value bytes up to the next reserved prefix start,
// a space, or the arrow.
func scanValue(snap *registry.Snapshot, s string) (string, int) {
	i := 0
	for i < len(s) {
		if s[i] == ' ' || strings.HasPrefix(s[i:], Arrow) {
			break
		}
		if _, ok := matchPrefix(snap, s[i:]); ok {
			break
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], i
}

// decodeHeader parses a ‡ line: header tokens only, no arrow, no vector.
func decodeHeader(line string) (*Container, error) {
	c := NewHeader()
	rest := line[len(registry.HeaderMarker):]
	pos := len(registry.HeaderMarker)

	for rest != "" {
		if rest[0] == ' ' {
			rest = rest[1:]
			pos++
			continue
		}
		key, size := headerKeyAt(rest)
		if key == "" {
			r, _ := utf8.DecodeRuneInString(rest)
			return nil, parseErr(ParseBadHeader, pos, fmt.Sprintf("%q", r))
		}
		val := leadingNumeric(rest[size:])
		if val == "" {
			return nil, parseErr(ParseBadHeader, pos, "header token "+key+" has no value")
		}
		c.Tokens = append(c.Tokens, Token{Kind: registry.KindHeader, Key: key, Value: val})
		rest = rest[size+len(val):]
		pos += size + len(val)
	}
	return c, nil
}

func headerKeyAt(s string) (string, int) {
	for _, k := range []string{
		registry.HeaderKeyVersion,
		registry.HeaderKeyConfidence,
		registry.HeaderKeyLintFloor,
		registry.HeaderKeyTokenRun,
		registry.HeaderKeyCanonical,
	} {
		if strings.HasPrefix(s, k) {
			return k, len(k)
		}
	}
	return "", 0
}

// parseVector parses the bracketed comma-separated vector tail.
func parseVector(s string, pos int) (vector.Vector, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return vector.Vector{}, parseErr(ParseVectorSyntax, pos, "missing brackets")
	}

	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 4 && len(parts) != 5 {
		return vector.Vector{}, parseErr(ParseVectorArity, pos, strconv.Itoa(len(parts))+" components")
	}

	vals := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return vector.Vector{}, parseErr(ParseVectorSyntax, pos, p)
		}
		lo, hi := -1.0, 1.0
		if i == 4 {
			lo = 0.0
		}
		if f < lo-rangeEpsilon || f > hi+rangeEpsilon {
			return vector.Vector{}, parseErr(ParseVectorRange, pos, p)
		}
		vals[i] = f
	}

	v := vector.New(vals[0], vals[1], vals[2], vals[3])
	if len(vals) == 5 {
		v = v.WithConfidence(vals[4])
	}
	return vector.Clip(v), nil
}

const rangeEpsilon = 1e-9

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i]
}

func leadingNumeric(s string) string {
	i := 0
	for i < len(s) && (isDigit(s[i]) || s[i] == '.') {
		i++
	}
	return s[:i]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
