package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/skippytm/shimmer/cli/render"
	"github.com/skippytm/shimmer/container"
	"github.com/skippytm/shimmer/lint"
	"github.com/skippytm/shimmer/parity"
	"github.com/skippytm/shimmer/registry"
)

// TokenResponse is one decoded token in the decode response.
type TokenResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DecodeResponse is the response for the decode command.
type DecodeResponse struct {
	Header    bool            `json:"header"`
	Routing   string          `json:"routing,omitempty"`
	Action    string          `json:"action,omitempty"`
	Tokens    []TokenResponse `json:"tokens,omitempty"`
	Vector    []float64       `json:"vector,omitempty"`
	Parity    int             `json:"parity"`
	LintScore int             `json:"lint_score"`
}

// DecodeCommand returns the decode command: parse one container line
// and report its structure.
func DecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a container line into routing, action, tokens and vector",
		ArgsUsage: "<line>",
		Flags:     CodecFlags(),
		Action:    decodeAction,
	}
}

func decodeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("decode takes exactly one line argument", exitUsage)
	}
	line := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	snap, err := resolveSnapshot(c, cfg)
	if err != nil {
		return err
	}

	cont, err := container.Decode(line, snap)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for decode command", exitUsage)
	}

	return r.Render(decodeResponse(line, cont, snap))
}

func decodeResponse(line string, cont *container.Container, snap *registry.Snapshot) *DecodeResponse {
	resp := &DecodeResponse{Header: cont.Header}

	for _, t := range cont.Tokens {
		resp.Tokens = append(resp.Tokens, TokenResponse{Key: t.Key, Value: t.Value})
	}

	if !cont.Header {
		resp.Routing = cont.Routing
		resp.Action = cont.Action.String()
		axes := cont.Vector.Axes()
		resp.Vector = append(resp.Vector, axes[:]...)
		if cont.Vector.Confidence != nil {
			resp.Vector = append(resp.Vector, *cont.Vector.Confidence)
		}
		resp.Parity = parity.Vector(cont.Vector)
		resp.LintScore = lint.Score(line, lint.FromSnapshot(snap)).Score
	}

	return resp
}
