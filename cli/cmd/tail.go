package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/skippytm/shimmer/cli/render"
	"github.com/skippytm/shimmer/cli/tui"
)

// logFollower is the slice of the log manager the follow loop needs.
type logFollower interface {
	Follow(ctx context.Context) (<-chan string, error)
}

// TailResponse is the response for the tail command.
type TailResponse struct {
	Log   string   `json:"log"`
	Lines []string `json:"lines"`
}

// TailCommand returns the tail command: show the most recent log lines,
// optionally following new appends. Reads take no lock.
func TailCommand() *cli.Command {
	return &cli.Command{
		Name:  "tail",
		Usage: "Show the most recent coordination log lines",
		Flags: append(LogFlags(),
			FormatFlag,
			NoColorFlag,
			TUIFlag,
			&cli.IntFlag{
				Name:    "lines",
				Aliases: []string{"n"},
				Usage:   "Number of lines to show",
				Value:   10,
			},
			&cli.BoolFlag{
				Name:  "follow",
				Usage: "Stream new lines as they are appended",
			},
		),
		Action: tailAction,
	}
}

func tailAction(c *cli.Context) error {
	m, err := openLog(c)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	lines, err := m.Tail(c.Int("lines"))
	if err != nil {
		return err
	}

	if c.Bool("follow") {
		if c.Bool("tui") {
			return cli.Exit("--tui and --follow are mutually exclusive", exitUsage)
		}
		return followLog(c, m, lines)
	}

	if c.Bool("tui") {
		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}
		return r.RenderTUI("tail_log", &tui.TailView{LogPath: m.Path(), Lines: lines})
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(&TailResponse{Log: m.Path(), Lines: lines})
}

// followLog prints the recent lines then streams appends until
// interrupted. Output is raw lines; follow mode is for pipes and eyes,
// not for structured formats.
func followLog(c *cli.Context, m logFollower, recent []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	for _, line := range recent {
		fmt.Fprintln(c.App.Writer, line)
	}

	ch, err := m.Follow(ctx)
	if err != nil {
		return err
	}
	for line := range ch {
		fmt.Fprintln(c.App.Writer, line)
	}
	return nil
}
