package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/skippytm/shimmer/cli/render"
	"github.com/skippytm/shimmer/vector"
	"github.com/skippytm/shimmer/wire"
)

// PackResponse is the response for the pack command.
type PackResponse struct {
	Encoded string `json:"encoded"`
	Bytes   int    `json:"bytes"`
}

// PackCommand returns the pack command: build one 16-byte binary packet
// and print its transport (base64) form.
func PackCommand() *cli.Command {
	return &cli.Command{
		Name:  "pack",
		Usage: "Pack a binary packet and print its base64 transport form",
		Flags: append(ReadOnlyFlags(),
			&cli.UintFlag{
				Name:     "from",
				Usage:    "Sender agent code (0-3)",
				Required: true,
			},
			&cli.UintFlag{
				Name:     "to",
				Usage:    "Receiver agent code (0-3)",
				Required: true,
			},
			&cli.UintFlag{
				Name:  "session",
				Usage: "Session id (0-65535)",
			},
			&cli.UintFlag{
				Name:  "priority",
				Usage: "Priority (0-15)",
			},
			&cli.Int64Flag{
				Name:  "timestamp",
				Usage: "Unix timestamp in seconds (default: now)",
			},
			&cli.StringFlag{
				Name:     "vector",
				Usage:    "Semantic vector: a,s,c,u,conf (confidence required for binary)",
				Required: true,
			},
		),
		Action: packAction,
	}
}

func packAction(c *cli.Context) error {
	v, err := parseVectorFlag(c.String("vector"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if v.Confidence == nil {
		return cli.Exit("binary packets require a 5D vector (confidence axis)", exitUsage)
	}

	ts := c.Int64("timestamp")
	if ts == 0 {
		ts = time.Now().Unix()
	}

	p := &wire.Packet{
		FromAgent: uint8(c.Uint("from")),
		ToAgent:   uint8(c.Uint("to")),
		SessionID: uint16(c.Uint("session")),
		Priority:  uint8(c.Uint("priority")),
		Timestamp: uint32(ts),
		Vector:    v,
	}

	encoded, err := wire.EncodeTransport(p)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for pack command", exitUsage)
	}
	return r.Render(&PackResponse{Encoded: encoded, Bytes: wire.PacketSize})
}

// UnpackResponse is the response for the unpack command.
type UnpackResponse struct {
	FromAgent uint8     `json:"from_agent"`
	ToAgent   uint8     `json:"to_agent"`
	SessionID uint16    `json:"session_id"`
	Priority  uint8     `json:"priority"`
	Timestamp string    `json:"timestamp"`
	Vector    []float64 `json:"vector"`
}

// UnpackCommand returns the unpack command: decode a base64 transport
// string back into packet fields.
func UnpackCommand() *cli.Command {
	return &cli.Command{
		Name:      "unpack",
		Usage:     "Unpack a base64 transport string into packet fields",
		ArgsUsage: "<base64>",
		Flags:     ReadOnlyFlags(),
		Action:    unpackAction,
	}
}

func unpackAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("unpack takes exactly one base64 argument", exitUsage)
	}

	p, err := wire.DecodeTransport(c.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("unpack failed: %v", err), exitUsage)
	}

	resp := &UnpackResponse{
		FromAgent: p.FromAgent,
		ToAgent:   p.ToAgent,
		SessionID: p.SessionID,
		Priority:  p.Priority,
		Timestamp: time.Unix(int64(p.Timestamp), 0).UTC().Format(time.RFC3339),
		Vector:    vectorComponents(p.Vector),
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for unpack command", exitUsage)
	}
	return r.Render(resp)
}

func vectorComponents(v vector.Vector) []float64 {
	axes := v.Axes()
	out := append([]float64{}, axes[:]...)
	if v.Confidence != nil {
		out = append(out, *v.Confidence)
	}
	return out
}
