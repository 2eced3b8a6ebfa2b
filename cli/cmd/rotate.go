package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/skippytm/shimmer/archive"
	"github.com/skippytm/shimmer/cli/render"
)

// RotateResponse is the response for the rotate command.
type RotateResponse struct {
	Closed     string `json:"closed"`
	Active     string `json:"active"`
	ArchiveKey string `json:"archive_key,omitempty"`
}

// RotateCommand returns the rotate command: close the current segment
// with a terminator line and start a fresh one with a new header.
func RotateCommand() *cli.Command {
	return &cli.Command{
		Name:  "rotate",
		Usage: "Close the current log segment and open a fresh one",
		Flags: append(LogFlags(),
			FormatFlag,
			NoColorFlag,
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Path of the new log segment",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "archive",
				Usage: "Upload the closed segment to the configured S3 bucket",
			},
		),
		Action: rotateAction,
	}
}

func rotateAction(c *cli.Context) error {
	m, err := openLog(c)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	closed, err := m.Rotate(ctx, c.String("to"))
	if err != nil {
		return writeExit(err)
	}

	resp := &RotateResponse{Closed: closed, Active: m.Path()}

	if c.Bool("archive") {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		up, err := archive.New(ctx, archive.S3Config{
			Bucket:       cfg.Archive.Bucket,
			Prefix:       cfg.Archive.Prefix,
			Region:       cfg.Archive.Region,
			Endpoint:     cfg.Archive.Endpoint,
			UsePathStyle: cfg.Archive.S3PathStyle,
		})
		if err != nil {
			return fmt.Errorf("archive setup failed: %w", err)
		}
		key, err := up.UploadSegment(ctx, closed)
		if err != nil {
			// The rotation itself succeeded; report the upload failure
			// without pretending the segment was lost.
			return fmt.Errorf("segment closed at %s but archive upload failed: %w", closed, err)
		}
		resp.ArchiveKey = key
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(resp)
}
