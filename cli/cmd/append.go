package cmd

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/skippytm/shimmer/cli/render"
	"github.com/skippytm/shimmer/container"
)

// AppendResponse is the response for the append command.
type AppendResponse struct {
	ID   int64  `json:"id"`
	Line string `json:"line"`
	Log  string `json:"log"`
}

// AppendCommand returns the append command: lint-gate one line and
// write it to the coordination log under the writer lock.
func AppendCommand() *cli.Command {
	return &cli.Command{
		Name:      "append",
		Usage:     "Append a container line to the coordination log",
		ArgsUsage: "<line>",
		Flags:     append(LogFlags(), FormatFlag, NoColorFlag),
		Action:    appendAction,
	}
}

func appendAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("append takes exactly one line argument", exitUsage)
	}
	line := c.Args().First()

	m, err := openLog(c)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	id, err := m.AppendLine(ctx, line)
	if err != nil {
		return writeExit(err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(&AppendResponse{ID: id, Line: line, Log: m.Path()})
}

// AmendResponse is the response for the amend command.
type AmendResponse struct {
	AmendedID   int64  `json:"amended_id"`
	NoticeID    int64  `json:"notice_id"`
	CorrectedID int64  `json:"corrected_id"`
	Log         string `json:"log"`
}

// AmendCommand returns the amend command. The log is append-only, so a
// correction is two new lines: an error notice referencing the bad line
// id, then the corrected line under a fresh id.
func AmendCommand() *cli.Command {
	return &cli.Command{
		Name:      "amend",
		Usage:     "Append an amendment notice plus a corrected line",
		ArgsUsage: "<corrected-line>",
		Flags: append(LogFlags(),
			FormatFlag,
			NoColorFlag,
			&cli.Int64Flag{
				Name:     "id",
				Usage:    "Line id being amended",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "reason",
				Usage: "2-digit amendment reason code (β token)",
				Value: 0,
			},
		),
		Action: amendAction,
	}
}

func amendAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("amend takes exactly one corrected line argument", exitUsage)
	}
	line := c.Args().First()

	oldID := c.Int64("id")
	if oldID < 1 {
		return cli.Exit("--id must be a positive line id, got "+strconv.FormatInt(oldID, 10), exitUsage)
	}
	reason := c.Int("reason")
	if reason < 0 || reason > 99 {
		return cli.Exit("--reason must be a 2-digit code", exitUsage)
	}

	m, err := openLog(c)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	corrected, err := container.Decode(line, m.Snapshot())
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	ctx, cancel := signalContext()
	defer cancel()

	newID, err := m.Amend(ctx, oldID, reason, corrected)
	if err != nil {
		return writeExit(err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(&AmendResponse{
		AmendedID:   oldID,
		NoticeID:    newID - 1,
		CorrectedID: newID,
		Log:         m.Path(),
	})
}
