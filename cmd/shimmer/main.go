// Package main provides the shimmer CLI entrypoint.
//
// All commands except append, amend and rotate are read-only.
//
// Usage:
//
//	shimmer <command> [options]
//
// Exit codes:
//   - 0: success
//   - 1: usage or parse error
//   - 2: line rejected by the compactness linter
//   - 3: writer lock timeout
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	shimmer "github.com/skippytm/shimmer"
	"github.com/skippytm/shimmer/cli/cmd"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "shimmer",
		Usage:          "Shimmer coordination protocol CLI",
		Version:        fmt.Sprintf("%s (commit: %s)", shimmer.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.EncodeCommand(),
			cmd.DecodeCommand(),
			cmd.LintCommand(),
			cmd.VerifyCommand(),
			cmd.PackCommand(),
			cmd.UnpackCommand(),
			cmd.AppendCommand(),
			cmd.AmendCommand(),
			cmd.RotateCommand(),
			cmd.TailCommand(),
			cmd.ScanCommand(),
			cmd.StatsCommand(),
			cmd.VersionCommand("", commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from cli.Exit().
// This keeps the lint-rejected (2) and lock-timeout (3) codes stable for scripts.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// Only print if there's a real message (not just "exit status N")
		// cli.Exit("", N).Error() returns "exit status N", so skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	// Unexpected error - print and exit with code 1
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
