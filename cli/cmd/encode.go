package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/urfave/cli/v2"

	"github.com/skippytm/shimmer/cli/render"
	"github.com/skippytm/shimmer/container"
	"github.com/skippytm/shimmer/lint"
	"github.com/skippytm/shimmer/parity"
	"github.com/skippytm/shimmer/registry"
	"github.com/skippytm/shimmer/vector"
)

// EncodeResponse is the response for the encode command.
type EncodeResponse struct {
	Line      string `json:"line"`
	LintScore int    `json:"lint_score"`
	Parity    int    `json:"parity"`
}

// EncodeCommand returns the encode command: build one container line
// from flags without touching any log.
func EncodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: "Encode a container line from routing, action, tokens and vector",
		Flags: append(CodecFlags(),
			&cli.StringFlag{
				Name:     "routing",
				Usage:    "Routing pair (exactly 2 symbols, e.g. AB)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "action",
				Usage:    "Action code: c, p, a, q, P, e",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "request-id",
				Usage: "Request id (rn token, 2 digits)",
				Value: -1,
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "Session id (s: token)",
			},
			&cli.StringSliceFlag{
				Name:  "facet",
				Usage: "Facet token, key glyph + raw value (e.g. 'π:cc', 'β07'); repeatable",
			},
			&cli.IntFlag{
				Name:  "deadline",
				Usage: "Deadline in seconds from now (τ token)",
				Value: -1,
			},
			&cli.StringFlag{
				Name:  "deliverable",
				Usage: "Deliverable reference: kind + 2-digit id (e.g. d03, f01)",
			},
			&cli.StringFlag{
				Name:     "vector",
				Usage:    "Semantic vector: a,s,c,u or a,s,c,u,conf",
				Required: true,
			},
		),
		Action: encodeAction,
	}
}

func encodeAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	snap, err := resolveSnapshot(c, cfg)
	if err != nil {
		return err
	}

	cont, err := buildContainer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	line, err := container.Encode(cont, snap)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for encode command", exitUsage)
	}
	return r.Render(lineResponse(line, cont, snap))
}

// lineResponse scores and parity-stamps an encoded line.
func lineResponse(line string, cont *container.Container, snap *registry.Snapshot) *EncodeResponse {
	res := lint.Score(line, lint.FromSnapshot(snap))
	return &EncodeResponse{
		Line:      line,
		LintScore: res.Score,
		Parity:    parity.Vector(cont.Vector),
	}
}

// buildContainer assembles a container from encode flags, in the order
// the flags model the wire layout: request id, session, facets,
// deadline, deliverable.
func buildContainer(c *cli.Context) (*container.Container, error) {
	routing := c.String("routing")
	if utf8.RuneCountInString(routing) != 2 {
		return nil, fmt.Errorf("routing must be exactly 2 symbols, got %q", routing)
	}

	actionStr := c.String("action")
	if len(actionStr) != 1 {
		return nil, fmt.Errorf("action must be a single code, got %q", actionStr)
	}
	action := container.Action(actionStr[0])
	if !action.Valid() {
		return nil, fmt.Errorf("invalid action %q (must be c, p, a, q, P or e)", actionStr)
	}

	cont := container.New(routing, action)

	if n := c.Int("request-id"); n >= 0 {
		cont.WithRequestID(n)
	}
	if s := c.String("session"); s != "" {
		cont.WithSession(s)
	}
	for _, f := range c.StringSlice("facet") {
		key, value, err := splitFacet(f)
		if err != nil {
			return nil, err
		}
		cont.WithToken(registry.KindFacet, key, value)
	}
	if d := c.Int("deadline"); d >= 0 {
		cont.WithDeadline(d)
	}
	if d := c.String("deliverable"); d != "" {
		kind, id, err := splitDeliverable(d)
		if err != nil {
			return nil, err
		}
		cont.WithDeliverable(kind, id)
	}

	v, err := parseVectorFlag(c.String("vector"))
	if err != nil {
		return nil, err
	}
	cont.WithVector(v)

	return cont, nil
}

// splitFacet splits a raw facet token into its key glyph and value.
// The value is kept verbatim (colon included when present) so the
// encoded line matches what the flag shows.
func splitFacet(s string) (key, value string, err error) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size == len(s) {
		return "", "", fmt.Errorf("facet %q must be a key glyph followed by a value", s)
	}
	return s[:size], s[size:], nil
}

// splitDeliverable parses a kind byte plus 2-digit id, e.g. "d03".
func splitDeliverable(s string) (kind byte, id int, err error) {
	if len(s) != 3 {
		return 0, 0, fmt.Errorf("deliverable %q must be kind + 2-digit id (e.g. d03)", s)
	}
	switch s[0] {
	case container.DeliverFile, container.DeliverDataset, container.DeliverReport, container.DeliverModel:
	default:
		return 0, 0, fmt.Errorf("deliverable kind %q must be f, d, r or m", s[:1])
	}
	id, err = strconv.Atoi(s[1:])
	if err != nil {
		return 0, 0, fmt.Errorf("deliverable id %q must be 2 digits", s[1:])
	}
	return s[0], id, nil
}

// parseVectorFlag parses "a,s,c,u" or "a,s,c,u,conf".
func parseVectorFlag(s string) (vector.Vector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 && len(parts) != 5 {
		return vector.Vector{}, fmt.Errorf("vector %q must have 4 or 5 components", s)
	}

	vals := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return vector.Vector{}, fmt.Errorf("vector component %q is not a number", p)
		}
		vals[i] = f
	}

	v := vector.New(vals[0], vals[1], vals[2], vals[3])
	if len(vals) == 5 {
		v = v.WithConfidence(vals[4])
	}
	return v, nil
}
