package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/skippytm/shimmer/cli/config"
	"github.com/skippytm/shimmer/cli/render"
	"github.com/skippytm/shimmer/metrics"
)

// StatsCommand returns the stats command: report the accumulated
// per-log counters from the metrics sidecar.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show accumulated coordination log statistics",
		Flags:  append(TUIReadOnlyFlags(), ConfigFlag, LogFlag),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	path := statsLogPath(c, cfg)
	if path == "" {
		return cli.Exit("no log path: pass --log or set `log` in shimmer.yaml", exitUsage)
	}

	// A log with no sidecar yet reports zeros, not an error.
	snap, err := metrics.ReadSidecar(path)
	if err != nil {
		return err
	}
	if snap.LogPath == "" {
		snap.LogPath = path
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI("stats_log", &snap)
	}
	return r.Render(&snap)
}

// statsLogPath resolves the log path the same way statsAction does;
// split out for tests.
func statsLogPath(c *cli.Context, cfg *config.Config) string {
	if p := c.String("log"); p != "" {
		return p
	}
	return cfg.Log
}
