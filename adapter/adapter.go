// Package adapter defines the event-bus adapter boundary.
//
// Adapters publish coordination-log notifications to downstream systems.
// The log manager owns adapter lifecycle; users provide configuration only.
package adapter

import "context"

// Event types published by the log manager.
const (
	EventLineAppended = "line_appended"
	EventLineAmended  = "line_amended"
	EventLogRotated   = "log_rotated"
)

// Event is the payload published when a coordination log changes.
type Event struct {
	EventType string `json:"event_type"` // line_appended, line_amended, log_rotated
	LogPath   string `json:"log_path"`
	Writer    string `json:"writer"`
	Timestamp string `json:"timestamp"` // ISO 8601

	// Line fields (line_appended and line_amended only)
	Line         string `json:"line,omitempty"`
	Routing      string `json:"routing,omitempty"`
	Action       string `json:"action,omitempty"`
	LintScore    int    `json:"lint_score,omitempty"`
	VectorParity int    `json:"vector_parity"`

	// Rotation fields (log_rotated only)
	RotatedTo string `json:"rotated_to,omitempty"`
}

// Adapter publishes log change events to a downstream system.
// Implementations must be safe for reuse across appends on one log.
type Adapter interface {
	// Publish sends a log change event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *Event) error

	// Close releases adapter resources.
	Close() error
}
