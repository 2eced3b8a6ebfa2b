// Package parity implements the two lightweight Shimmer checksums.
//
// Both are 2-bit error-detection aids, not authentication: a mismatch
// means the caller should request retransmission or fall back to the
// text form for manual inspection. This package only detects, never
// corrects.
package parity

import (
	"crypto/sha256"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/skippytm/shimmer/vector"
)

// Mode selects which checksum Verify computes.
type Mode int

const (
	// ModeVector is the T9+ vector-only parity.
	ModeVector Mode = iota
	// ModeContainer is the container-hash parity.
	ModeContainer
)

const arrow = "→"

// ErrNoSeparator is returned by Verify when the line has no arrow.
var ErrNoSeparator = errors.New("parity: line has no separator")

// Vector computes the T9+ parity:
// (Σ round(10·axis) + round(100·confidence)) mod 4.
func Vector(v vector.Vector) int {
	return mod4(vectorSum(v))
}

// Container computes the container-hash parity:
// (sha256(containerText)[0] XOR (Σ vector terms & 0xFF)) mod 4.
// containerText is everything left of the arrow.
func Container(containerText string, v vector.Vector) int {
	h := sha256.Sum256([]byte(containerText))
	s := vectorSum(v)
	return (int(h[0]) ^ (s & 0xFF)) % 4
}

// Verify recomputes the selected parity over a full text line and
// compares it to the claimed value.
func Verify(line string, claimed int, mode Mode) (bool, error) {
	left, right, ok := strings.Cut(line, arrow)
	if !ok {
		return false, ErrNoSeparator
	}
	v, err := parseVectorTail(right)
	if err != nil {
		return false, err
	}

	switch mode {
	case ModeContainer:
		return Container(left, v) == claimed, nil
	default:
		return Vector(v) == claimed, nil
	}
}

// vectorSum is the shared term: round(10·axis) per bounded axis plus
// round(100·confidence) when present.
func vectorSum(v vector.Vector) int {
	s := 0
	for _, a := range v.Axes() {
		s += int(math.Round(10 * a))
	}
	if v.Confidence != nil {
		s += int(math.Round(100 * *v.Confidence))
	}
	return s
}

// mod4 is a non-negative mod for possibly negative sums.
func mod4(n int) int {
	return ((n % 4) + 4) % 4
}

// parseVectorTail parses the bracketed vector without registry context.
// Parity operates on possibly corrupted lines, so it keeps its own
// minimal parser rather than requiring a clean container decode.
func parseVectorTail(s string) (vector.Vector, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return vector.Vector{}, errors.New("parity: vector brackets missing")
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 4 && len(parts) != 5 {
		return vector.Vector{}, errors.New("parity: vector arity not 4 or 5")
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return vector.Vector{}, errors.New("parity: vector parse failed")
		}
		vals[i] = f
	}
	v := vector.New(vals[0], vals[1], vals[2], vals[3])
	if len(vals) == 5 {
		v = v.WithConfidence(vals[4])
	}
	return v, nil
}
