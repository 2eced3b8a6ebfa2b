package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/skippytm/shimmer/cli/render"
	"github.com/skippytm/shimmer/lint"
)

// LintIssueResponse is one itemized deduction in the lint response.
type LintIssueResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// LintResponse is the response for the lint command.
type LintResponse struct {
	Score  int                 `json:"score"`
	Floor  int                 `json:"floor"`
	Passes bool                `json:"passes"`
	Issues []LintIssueResponse `json:"issues,omitempty"`
}

// LintCommand returns the lint command: score one line against the
// compactness policy. A line below the floor exits 2, so shell scripts
// can gate appends on it.
func LintCommand() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Score a container line against the compactness policy",
		ArgsUsage: "<line>",
		Flags:     CodecFlags(),
		Action:    lintAction,
	}
}

func lintAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("lint takes exactly one line argument", exitUsage)
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

	policy := lint.FromSnapshot(snap)
	result := lint.Score(line, policy)

	resp := &LintResponse{
		Score:  result.Score,
		Floor:  policy.Floor,
		Passes: result.Passes(policy.Floor),
	}
	for _, issue := range result.Issues {
		resp.Issues = append(resp.Issues, LintIssueResponse{Code: issue.Code, Detail: issue.Detail})
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for lint command", exitUsage)
	}
	if err := r.Render(resp); err != nil {
		return err
	}

	if !resp.Passes {
		return cli.Exit("", exitLintRejected)
	}
	return nil
}
