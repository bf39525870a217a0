// Package cli implements the pipegraph command-line interface.
//
// Commands read a pipeline graph from a JSON file, run it through the
// engine and print or write the result. Group commands edit the configured
// group store, serve exposes the HTTP API, and explore opens the terminal
// explorer.
//
// # Commands
//
// The main commands are:
//   - layout: Compute node positions with one of the layout strategies
//   - lineage, related: Query upstream and downstream nodes
//   - slice: Extract a filtered sub-graph and its runner command
//   - inspect: Summarize a graph file
//   - render: Draw a graph as SVG, DOT, PDF or PNG
//   - explore: Browse a graph interactively
//   - group: Manage node groups
//   - serve: Run the HTTP API
//   - cache, config: Inspect local state
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs engine, cache and group events.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipegraph/pkg/buildinfo"
	"github.com/matzehuels/pipegraph/pkg/cache"
	"github.com/matzehuels/pipegraph/pkg/config"
	"github.com/matzehuels/pipegraph/pkg/engine"
	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/group"
	"github.com/matzehuels/pipegraph/pkg/group/mongostore"
	"github.com/matzehuels/pipegraph/pkg/group/redisstore"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pipegraph"

	// cliSlot is the engine slot used by one-shot commands.
	cliSlot = "cli"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag; empty means the default location.
	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Pipegraph lays out and analyzes data pipeline graphs",
		Long:         `Pipegraph is a CLI tool for laying out data pipeline graphs, tracing lineage between steps, extracting runnable slices and organizing steps into groups.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/pipegraph/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.lineageCommand())
	root.AddCommand(c.relatedCommand())
	root.AddCommand(c.sliceCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.groupCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}

// loadConfig reads the configuration file named by --config, or the default
// one, into c.cfg.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("loaded config", "path", c.configPath, "groups", cfg.Groups.Backend, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates an engine runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*engine.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if c.cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.cfg.Cache.Prefix)
	}
	r := engine.NewRunner(cc, keyer, c.Logger)
	if ttl := c.cfg.Cache.TTL.Duration; ttl > 0 {
		r.TTL = ttl
	}
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.cfg.Cache.Addr, c.cfg.Cache.Password, c.cfg.Cache.DB)
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newRegistry opens the configured group store and loads the registry.
func (c *CLI) newRegistry(ctx context.Context) (*group.Registry, error) {
	store, err := c.newGroupStore(ctx)
	if err != nil {
		return nil, err
	}
	reg, err := group.NewRegistry(ctx, store, group.WithLogger(c.Logger))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return reg, nil
}

func (c *CLI) newGroupStore(ctx context.Context) (group.Store, error) {
	gc := c.cfg.Groups
	switch gc.Backend {
	case config.GroupsRedis:
		s, err := redisstore.New(ctx, redisstore.Config{Addr: gc.Addr, Password: gc.Password, DB: gc.DB, Key: gc.Key})
		if err != nil {
			return nil, fmt.Errorf("open group store: %w", err)
		}
		return s, nil
	case config.GroupsMongo:
		s, err := mongostore.New(ctx, mongostore.Config{URI: gc.URI, Database: gc.Database, Collection: gc.Collection})
		if err != nil {
			return nil, fmt.Errorf("open group store: %w", err)
		}
		return s, nil
	}
	path := gc.Path
	if path == "" {
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "groups.json")
	}
	fs, err := group.NewFileStore(path)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, falling back to the XDG
// standard (~/.cache/pipegraph/).
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return cacheDir()
}

func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the directory holding the default group file, next to the
// config file.
func dataDir() (string, error) {
	p, err := config.Path()
	if err != nil {
		return "", err
	}
	return filepath.Dir(p), nil
}

// =============================================================================
// Input Helpers
// =============================================================================

// readGraph loads and normalizes the graph file at path. A path of "-"
// reads standard input.
func readGraph(path string) (graph.Graph, error) {
	if path == "-" {
		return graph.ReadGraph(os.Stdin)
	}
	return graph.ReadGraphFile(path)
}
