package container

import (
	"strconv"
	"strings"

	"github.com/skippytm/shimmer/registry"
	"github.com/skippytm/shimmer/vector"
)

// Encode serializes a container into its single-line text form:
// routing + action + tokens in input order + arrow + quantized vector.
// Header containers serialize as ‡ + tokens with no arrow or vector.
//
// Fails with *MalformedContainerError on structural violations; the
// compactness of the result is the linter's concern, not the codec's.
func Encode(c *Container, snap *registry.Snapshot) (string, error) {
	var b strings.Builder

	if c.Header {
		b.WriteString(registry.HeaderMarker)
		for _, t := range c.Tokens {
			if !isHeaderKey(t.Key) {
				return "", &MalformedContainerError{Reason: "non-header token " + t.Key + " on header line"}
			}
			if !numericValue(t.Value) {
				return "", &MalformedContainerError{Reason: "header value not numeric: " + t.Value}
			}
			b.WriteString(t.Key)
			b.WriteString(t.Value)
		}
		return b.String(), nil
	}

	if n := len([]rune(c.Routing)); n != 2 {
		return "", &MalformedContainerError{Reason: "routing must be exactly 2 symbols, got " + strconv.Itoa(n)}
	}
	if !c.Action.Valid() {
		return "", &MalformedContainerError{Reason: "invalid action symbol " + strconv.QuoteRune(rune(c.Action))}
	}

	b.WriteString(c.Routing)
	b.WriteByte(byte(c.Action))

	for _, t := range c.Tokens {
		if err := checkToken(t); err != nil {
			return "", err
		}
		b.WriteString(t.Key)
		b.WriteString(t.Value)
	}

	b.WriteString(Arrow)
	b.WriteString(FormatVector(c.Vector))
	return b.String(), nil
}

// checkToken rejects token values that would not survive re-parsing.
func checkToken(t Token) error {
	if strings.ContainsAny(t.Value, "\n") || strings.Contains(t.Value, Arrow) {
		return &MalformedContainerError{Reason: "token value contains reserved byte sequence"}
	}
	switch t.Kind {
	case registry.KindDeadline:
		n, err := strconv.Atoi(t.Value)
		if err != nil || n < MinDeadline || n > MaxDeadline {
			return &MalformedContainerError{Reason: "deadline out of range: " + t.Value}
		}
	case registry.KindDeliverable:
		if len(t.Key) != 1 || !strings.ContainsAny(t.Key, "fdrm") {
			return &MalformedContainerError{Reason: "unknown deliverable kind: " + t.Key}
		}
		if len(t.Value) != 2 || !numericValue(t.Value) {
			return &MalformedContainerError{Reason: "deliverable id must be 2 digits: " + t.Value}
		}
	}
	return nil
}

// FormatVector renders the bracketed vector at transmission precision:
// 1 decimal on the four axes, up to 2 on confidence.
func FormatVector(v vector.Vector) string {
	v = vector.QuantizeText(v)

	var b strings.Builder
	b.WriteByte('[')
	for i, a := range v.Axes() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(a, 'f', 1, 64))
	}
	if v.Confidence != nil {
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(*v.Confidence, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}

func isHeaderKey(k string) bool {
	switch k {
	case registry.HeaderKeyVersion, registry.HeaderKeyConfidence, registry.HeaderKeyLintFloor,
		registry.HeaderKeyTokenRun, registry.HeaderKeyCanonical:
		return true
	}
	return false
}

// numericValue accepts digits with at most one dot. Header values and
// numeric token ids use this shape; it keeps header scanning trivially
// unambiguous.
func numericValue(s string) bool {
	if s == "" {
		return false
	}
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
