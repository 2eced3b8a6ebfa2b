// Package cmd provides CLI commands for the shimmer binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for select read-only commands (tail, stats).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (tail, stats only)",
	}

	// ConfigFlag points at a shimmer.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to shimmer.yaml (flags override config values)",
	}

	// LogFlag is the coordination log path.
	LogFlag = &cli.StringFlag{
		Name:    "log",
		Aliases: []string{"l"},
		Usage:   "Coordination log path",
	}

	// RegistryFlag points at a facet registry document.
	RegistryFlag = &cli.StringFlag{
		Name:  "registry",
		Usage: "Path to a registry document (YAML)",
	}

	// RegistryVersionFlag selects a version within the registry document.
	RegistryVersionFlag = &cli.StringFlag{
		Name:  "registry-version",
		Usage: "Registry version to use (default: latest header / built-in 1.0)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// TUIReadOnlyFlags returns flags for commands that support TUI mode.
// This is an alias for ReadOnlyFlags, kept for documentation clarity.
func TUIReadOnlyFlags() []cli.Flag {
	return ReadOnlyFlags()
}

// CodecFlags returns the shared flags for stateless codec commands
// (encode, decode, lint): read-only output options plus registry selection.
func CodecFlags() []cli.Flag {
	return append(ReadOnlyFlags(), ConfigFlag, RegistryFlag, RegistryVersionFlag)
}

// LogFlags returns the shared flags for commands that touch a log file.
func LogFlags() []cli.Flag {
	return []cli.Flag{ConfigFlag, LogFlag, RegistryFlag, RegistryVersionFlag}
}
