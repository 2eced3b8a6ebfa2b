// Package container implements the Shimmer text container codec.
//
// A container is one single-line message: 2-symbol routing, a 1-symbol
// action, an ordered run of metadata tokens (facets, tracking ids,
// deadline, deliverables), the reserved arrow separator, and the bracketed
// semantic vector. Header lines carry the ‡ marker and metadata only.
//
// Token order is significant and round-trips byte-exact: deadline and
// deliverables are ordinary tokens in the sequence, with typed accessors.
package container

import (
	"fmt"

	"github.com/skippytm/shimmer/registry"
	"github.com/skippytm/shimmer/vector"
)

// Arrow is the reserved separator glyph (U+2192). Persisted lines never
// use an ASCII substitute.
const Arrow = "→"

// Action is the single-symbol action code.
type Action byte

// The six action codes. Plan is the only uppercase symbol.
const (
	ActionComplete Action = 'c'
	ActionProgress Action = 'p'
	ActionAck      Action = 'a'
	ActionQuery    Action = 'q'
	ActionPlan     Action = 'P'
	ActionError    Action = 'e'
)

// Valid reports whether a is one of the six action codes.
func (a Action) Valid() bool {
	switch a {
	case ActionComplete, ActionProgress, ActionAck, ActionQuery, ActionPlan, ActionError:
		return true
	}
	return false
}

// String returns the human name of the action.
func (a Action) String() string {
	switch a {
	case ActionComplete:
		return "complete"
	case ActionProgress:
		return "progress"
	case ActionAck:
		return "ack"
	case ActionQuery:
		return "query"
	case ActionPlan:
		return "plan"
	case ActionError:
		return "error"
	}
	return fmt.Sprintf("invalid(%q)", byte(a))
}

// Deadline bounds in seconds-from-now.
const (
	MinDeadline = 1
	MaxDeadline = 999999
)

// Deliverable kinds.
const (
	DeliverFile    byte = 'f'
	DeliverDataset byte = 'd'
	DeliverReport  byte = 'r'
	DeliverModel   byte = 'm'
)

// Token is one metadata token: a reserved key (prefix glyph) and the raw
// value that follows it, colon included when present. Serialization is
// Key + Value verbatim, which is what makes round-trips byte-exact.
type Token struct {
	Kind  registry.TokenKind
	Key   string
	Value string
}

// Deliverable is a parsed deliverable reference.
type Deliverable struct {
	Kind byte // f, d, r, m
	ID   int  // 2-digit id
}

// Container is one decoded or to-be-encoded message line.
type Container struct {
	Routing string // exactly 2 visible symbols
	Action  Action
	Tokens  []Token
	Vector  vector.Vector
	// Header marks a ‡ metadata-only line; Routing, Action and Vector
	// are unused on header lines.
	Header bool
}

// New starts a content container with routing and action.
func New(routing string, action Action) *Container {
	return &Container{Routing: routing, Action: action}
}

// NewHeader starts a header container.
func NewHeader() *Container {
	return &Container{Header: true}
}

// WithToken appends an arbitrary token and returns the container.
func (c *Container) WithToken(kind registry.TokenKind, key, value string) *Container {
	c.Tokens = append(c.Tokens, Token{Kind: kind, Key: key, Value: value})
	return c
}

// WithRequestID appends an rn request id token.
func (c *Container) WithRequestID(n int) *Container {
	return c.WithToken(registry.KindRequestID, "rn", fmt.Sprintf("%02d", n))
}

// WithSession appends an s: session token.
func (c *Container) WithSession(id string) *Container {
	return c.WithToken(registry.KindSession, "s:", id)
}

// WithFacet appends a facet token with a colon-separated value.
func (c *Container) WithFacet(key, value string) *Container {
	return c.WithToken(registry.KindFacet, key, ":"+value)
}

// WithDeadline appends the τ deadline token (seconds from now).
func (c *Container) WithDeadline(seconds int) *Container {
	return c.WithToken(registry.KindDeadline, "τ", fmt.Sprintf("%d", seconds))
}

// WithDeliverable appends a deliverable reference token.
func (c *Container) WithDeliverable(kind byte, id int) *Container {
	return c.WithToken(registry.KindDeliverable, string(kind), fmt.Sprintf("%02d", id))
}

// WithVector sets the semantic vector and returns the container.
func (c *Container) WithVector(v vector.Vector) *Container {
	c.Vector = v
	return c
}

// Deadline returns the first deadline token's value in seconds, if any.
func (c *Container) Deadline() (int, bool) {
	for _, t := range c.Tokens {
		if t.Kind == registry.KindDeadline {
			n := 0
			for _, r := range t.Value {
				n = n*10 + int(r-'0')
			}
			return n, true
		}
	}
	return 0, false
}

// Deliverables returns the parsed deliverable references in token order.
func (c *Container) Deliverables() []Deliverable {
	var out []Deliverable
	for _, t := range c.Tokens {
		if t.Kind != registry.KindDeliverable {
			continue
		}
		id := int(t.Value[0]-'0')*10 + int(t.Value[1]-'0')
		out = append(out, Deliverable{Kind: t.Key[0], ID: id})
	}
	return out
}

// RequestID returns the first request id token value, if any.
func (c *Container) RequestID() (string, bool) {
	for _, t := range c.Tokens {
		if t.Kind == registry.KindRequestID {
			return t.Value, true
		}
	}
	return "", false
}

// HeaderFields converts a header container's tokens into registry
// override fields.
func (c *Container) HeaderFields() []registry.HeaderField {
	fields := make([]registry.HeaderField, 0, len(c.Tokens))
	for _, t := range c.Tokens {
		fields = append(fields, registry.HeaderField{Key: t.Key, Value: t.Value})
	}
	return fields
}

// Validate applies the registry schema to every token. The scanner keeps
// unknown-but-well-formed tokens; this is where they surface.
func (c *Container) Validate(snap *registry.Snapshot) []*registry.Violation {
	var out []*registry.Violation
	for _, t := range c.Tokens {
		if c.Header {
			continue // header tokens are validated by registry.Apply
		}
		if v := snap.Validate(t.Kind, t.Key, t.Value); v != nil {
			out = append(out, v)
		}
	}
	return out
}
