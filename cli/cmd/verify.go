package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/skippytm/shimmer/cli/render"
	"github.com/skippytm/shimmer/metrics"
	"github.com/skippytm/shimmer/parity"
)

// VerifyResponse is the response for the verify command.
type VerifyResponse struct {
	Line    string `json:"line"`
	Mode    string `json:"mode"`
	Claimed int    `json:"claimed"`
	Valid   bool   `json:"valid"`
}

// VerifyCommand returns the verify command: check a claimed parity
// value against a container line. A mismatch exits 1.
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Verify a claimed parity value for a container line",
		ArgsUsage: "<line> <claimed>",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Parity mode: vector or container",
				Value: "vector",
			},
			ConfigFlag,
			LogFlag,
		),
		Action: verifyAction,
	}
}

func verifyAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("verify takes a line and a claimed parity value", exitUsage)
	}
	line := c.Args().Get(0)

	claimed, err := strconv.Atoi(c.Args().Get(1))
	if err != nil || claimed < 0 || claimed > 3 {
		return cli.Exit("claimed parity must be 0-3", exitUsage)
	}

	mode, err := parseParityMode(c.String("mode"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	valid, err := parity.Verify(line, claimed, mode)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for verify command", exitUsage)
	}
	if err := r.Render(&VerifyResponse{
		Line:    line,
		Mode:    c.String("mode"),
		Claimed: claimed,
		Valid:   valid,
	}); err != nil {
		return err
	}

	if !valid {
		if err := recordParityFailure(c); err != nil {
			return err
		}
		return cli.Exit("", exitUsage)
	}
	return nil
}

// recordParityFailure bumps the parity-failure counter in the metrics
// sidecar of the configured log. Verification is stateless when no log
// path is configured, so a missing path is not an error.
func recordParityFailure(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path := statsLogPath(c, cfg)
	if path == "" {
		return nil
	}

	col := metrics.NewCollector(path, "")
	col.IncParityFailure()
	snap := col.Snapshot()
	if prior, err := metrics.ReadSidecar(path); err == nil {
		snap = metrics.Merge(snap, prior)
	}
	return metrics.WriteSidecar(path, snap)
}

func parseParityMode(s string) (parity.Mode, error) {
	switch s {
	case "vector", "":
		return parity.ModeVector, nil
	case "container":
		return parity.ModeContainer, nil
	default:
		return 0, fmt.Errorf("unknown parity mode: %s (must be vector or container)", s)
	}
}
