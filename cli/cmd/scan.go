package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/skippytm/shimmer/cli/render"
)

// ScanEntryResponse is one scanned line in the scan response.
type ScanEntryResponse struct {
	ID      int64  `json:"id"`
	Line    string `json:"line"`
	Routing string `json:"routing,omitempty"`
	Action  string `json:"action,omitempty"`
	Header  bool   `json:"header,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ScanCommand returns the scan command: decode the whole log, reporting
// undecodable lines in place instead of stopping at them.
func ScanCommand() *cli.Command {
	return &cli.Command{
		Name:   "scan",
		Usage:  "Decode every line of the coordination log",
		Flags:  append(LogFlags(), FormatFlag, NoColorFlag),
		Action: scanAction,
	}
}

func scanAction(c *cli.Context) error {
	m, err := openLog(c)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	entries, err := m.Scan()
	if err != nil {
		return err
	}

	resp := make([]ScanEntryResponse, 0, len(entries))
	for _, e := range entries {
		item := ScanEntryResponse{ID: e.Seq, Line: e.Line}
		switch {
		case e.Err != nil:
			item.Error = e.Err.Error()
		case e.Container.Header:
			item.Header = true
		default:
			item.Routing = e.Container.Routing
			item.Action = e.Container.Action.String()
		}
		resp = append(resp, item)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(resp)
}
