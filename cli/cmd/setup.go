package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/skippytm/shimmer/adapter"
	"github.com/skippytm/shimmer/adapter/redis"
	"github.com/skippytm/shimmer/adapter/webhook"
	"github.com/skippytm/shimmer/cli/config"
	"github.com/skippytm/shimmer/container"
	"github.com/skippytm/shimmer/coordlog"
	"github.com/skippytm/shimmer/lint"
	"github.com/skippytm/shimmer/metrics"
	"github.com/skippytm/shimmer/registry"
)

// Exit codes, shared by all commands.
const (
	exitOK           = 0
	exitUsage        = 1
	exitLintRejected = 2
	exitLockTimeout  = 3
)

// loadConfig reads shimmer.yaml when --config is set. A missing flag is
// not an error; every config value has a flag or built-in default.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// resolveSnapshot picks the base registry snapshot: the built-in v1.0
// unless a registry document is named via flag or config. Header lines
// in the log still override whatever this returns.
func resolveSnapshot(c *cli.Context, cfg *config.Config) (*registry.Snapshot, error) {
	docPath := c.String("registry")
	if docPath == "" {
		docPath = cfg.Registry.Path
	}
	if docPath == "" {
		return registry.Builtin(), nil
	}

	doc, err := registry.LoadDocument(docPath)
	if err != nil {
		return nil, err
	}

	version := c.String("registry-version")
	if version == "" {
		version = cfg.Registry.Version
	}
	if version == "" {
		version = latestVersion(doc)
	}
	return doc.Snapshot(version)
}

// latestVersion returns the lexically greatest version key. Registry
// versions sort correctly as strings up to 9.x, which is far beyond the
// protocol's horizon.
func latestVersion(doc *registry.Document) string {
	names := make([]string, 0, len(doc.Versions))
	for name := range doc.Versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[len(names)-1]
}

// openLog resolves the log path and opens a coordlog manager with the
// configured registry, metrics collector and adapters.
func openLog(c *cli.Context) (*coordlog.Manager, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	path := c.String("log")
	if path == "" {
		path = cfg.Log
	}
	if path == "" {
		return nil, cli.Exit("no log path: pass --log or set `log` in shimmer.yaml", exitUsage)
	}

	snap, err := resolveSnapshot(c, cfg)
	if err != nil {
		return nil, err
	}

	adapters, err := buildAdapters(cfg)
	if err != nil {
		return nil, err
	}

	m, err := coordlog.Open(coordlog.Config{
		Path:           path,
		Registry:       snap,
		LockTimeout:    cfg.Lock.Timeout.Duration,
		LockStaleAfter: cfg.Lock.StaleAfter.Duration,
		Metrics:        metrics.NewCollector(path, ""),
		Adapters:       adapters,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// buildAdapters constructs the configured notification adapters.
func buildAdapters(cfg *config.Config) ([]adapter.Adapter, error) {
	switch cfg.Adapter.Type {
	case "":
		return nil, nil
	case "redis":
		retries := redis.DefaultRetries
		if cfg.Adapter.Retries != nil {
			retries = *cfg.Adapter.Retries
		}
		a, err := redis.New(redis.Config{
			URL:     cfg.Adapter.URL,
			Channel: cfg.Adapter.Channel,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries,
		})
		if err != nil {
			return nil, err
		}
		return []adapter.Adapter{a}, nil
	case "webhook":
		retries := webhook.DefaultRetries
		if cfg.Adapter.Retries != nil {
			retries = *cfg.Adapter.Retries
		}
		a, err := webhook.New(webhook.Config{
			URL:     cfg.Adapter.URL,
			Headers: cfg.Adapter.Headers,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries,
		})
		if err != nil {
			return nil, err
		}
		return []adapter.Adapter{a}, nil
	default:
		return nil, fmt.Errorf("unknown adapter type: %s (must be redis or webhook)", cfg.Adapter.Type)
	}
}

// signalContext returns a context canceled on SIGINT/SIGTERM, so a
// writer blocked on the lock releases cleanly on Ctrl+C.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// writeExit maps write-path errors onto the exit-code contract:
// lint rejections exit 2, lock timeouts exit 3, malformed input exits 1.
// Anything else passes through for the generic handler.
func writeExit(err error) error {
	if err == nil {
		return nil
	}

	var rejected *lint.RejectedError
	if errors.As(err, &rejected) {
		return cli.Exit(err.Error(), exitLintRejected)
	}
	if errors.Is(err, coordlog.ErrLockTimeout) {
		return cli.Exit(err.Error(), exitLockTimeout)
	}

	var parseErr *container.ParseError
	var malformed *container.MalformedContainerError
	if errors.As(err, &parseErr) || errors.As(err, &malformed) {
		return cli.Exit(err.Error(), exitUsage)
	}
	return err
}
