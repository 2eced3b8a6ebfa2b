package container

import "fmt"

// MalformedContainerError reports a structural violation found while
// encoding: routing length, action symbol, or token values that cannot
// be serialized unambiguously.
type MalformedContainerError struct {
	Reason string
}

func (e *MalformedContainerError) Error() string {
	return "malformed container: " + e.Reason
}

// ParseKind classifies scanner failures.
type ParseKind int

const (
	// ParseBadRouting means the line is too short to carry 2 routing symbols.
	ParseBadRouting ParseKind = iota
	// ParseBadAction means the action symbol is not in the allowed set.
	ParseBadAction
	// ParseUnknownPrefix means no reserved prefix matched before the separator.
	ParseUnknownPrefix
	// ParseMissingSeparator means the arrow glyph never appeared.
	ParseMissingSeparator
	// ParseBadDeadline means the τ token value is not an integer in 1..999999.
	ParseBadDeadline
	// ParseBadDeliverable means a deliverable kind letter lacks its 2-digit id.
	ParseBadDeliverable
	// ParseVectorSyntax means the vector brackets or numerics are malformed.
	ParseVectorSyntax
	// ParseVectorArity means the vector is not 4 or 5 components.
	ParseVectorArity
	// ParseVectorRange means a component is outside its declared range.
	ParseVectorRange
	// ParseBadHeader means a header line carries a non-header token.
	ParseBadHeader
)

func (k ParseKind) String() string {
	switch k {
	case ParseBadRouting:
		return "bad_routing"
	case ParseBadAction:
		return "bad_action"
	case ParseUnknownPrefix:
		return "unknown_prefix"
	case ParseMissingSeparator:
		return "missing_separator"
	case ParseBadDeadline:
		return "bad_deadline"
	case ParseBadDeliverable:
		return "bad_deliverable"
	case ParseVectorSyntax:
		return "vector_syntax"
	case ParseVectorArity:
		return "vector_arity"
	case ParseVectorRange:
		return "vector_range"
	case ParseBadHeader:
		return "bad_header"
	}
	return "unknown"
}

// ParseError reports a scanner failure with its byte offset in the line.
type ParseError struct {
	Kind ParseKind
	Pos  int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("parse error at %d: %s: %s", e.Pos, e.Kind, e.Msg)
	}
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Kind)
}

func parseErr(kind ParseKind, pos int, msg string) *ParseError {
	return &ParseError{Kind: kind, Pos: pos, Msg: msg}
}
