package config

import (
	"fmt"
	"time"
)

// Config represents a shimmer.yaml configuration file.
// All values are optional and act as defaults for shimmer commands.
// CLI flags always override config values.
type Config struct {
	// Log is the coordination log path.
	Log string `yaml:"log"`
	// Registry points at an on-disk facet registry document.
	Registry RegistryConfig `yaml:"registry"`
	// Lock tunes writer-lock acquisition.
	Lock LockConfig `yaml:"lock"`
	// Adapter configures append notifications.
	Adapter AdapterConfig `yaml:"adapter"`
	// Archive configures rotated-segment uploads.
	Archive ArchiveConfig `yaml:"archive"`
}

// RegistryConfig selects a registry document and version.
type RegistryConfig struct {
	Path    string `yaml:"path"`
	Version string `yaml:"version"`
}

// LockConfig holds writer-lock defaults from the config file.
type LockConfig struct {
	Timeout    Duration `yaml:"timeout"`
	StaleAfter Duration `yaml:"stale_after"`
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// ArchiveConfig holds segment-archive defaults from the config file.
type ArchiveConfig struct {
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
