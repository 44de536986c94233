// Package cli implements the pym command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/john-wilkinson/pym/pkg/buildinfo"
	"github.com/john-wilkinson/pym/pkg/cache"
	"github.com/john-wilkinson/pym/pkg/config"
	"github.com/john-wilkinson/pym/pkg/deps"
	"github.com/john-wilkinson/pym/pkg/fetch"
	"github.com/john-wilkinson/pym/pkg/observability"
	"github.com/john-wilkinson/pym/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pym"

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
	Config *config.Config

	dir        string // Project directory (--dir)
	configPath string // Configuration file (--config)

	// newFetcher replaces the registry and git fetchers when set.
	newFetcher func(stagingDir string) fetch.SourceFetcher
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		dir:    ".",
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "pym installs Python packages into a project-local directory",
		Long: `pym resolves the dependencies declared in pym.json, from the package index
or from git repositories, and installs them into ./pym_packages so every
project keeps its own versions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.dir, "dir", "C", ".", "project directory")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "configuration file (default $XDG_CONFIG_HOME/pym/config.toml)")

	// Register all subcommands
	root.AddCommand(c.initCommand())
	root.AddCommand(c.installCommand())
	root.AddCommand(c.uninstallCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.whichCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration file and environment, and installs
// the logging hooks.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			c.Logger.Debug("no config directory", "err", err)
			path = ""
		}
	}
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg

	observability.SetPipelineHooks(logHooks{logger: c.Logger})
	observability.SetHTTPHooks(httpLogHooks{logger: c.Logger})
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// resolveFlags are the flags shared by commands that resolve dependencies.
type resolveFlags struct {
	workers  int
	maxDepth int
	policy   string
	indexURL string
	refresh  bool
	noCache  bool
}

func (f *resolveFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.workers, "workers", "j", 0, "concurrent fetches (default from config)")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "maximum dependency depth (default from config)")
	cmd.Flags().StringVar(&f.policy, "policy", "", "conflict policy: first-wins or strict (default from config)")
	cmd.Flags().StringVar(&f.indexURL, "index-url", "", "package index JSON API root (default from config)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached index metadata")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the metadata cache")
}

// options merges configuration and flags into runner options.
func (c *CLI) options(f resolveFlags) (pipeline.Options, error) {
	policy, err := deps.ParsePolicy(c.Config.Policy)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		IndexURL:   c.Config.IndexURL,
		InstallDir: c.Config.InstallLocation,
		Git:        c.Config.Git,
		Workers:    c.Config.Workers,
		MaxDepth:   c.Config.MaxDepth,
		Policy:     policy,
		CacheTTL:   c.Config.CacheTTL.Duration,
		Refresh:    f.refresh,
	}
	if f.workers > 0 {
		opts.Workers = f.workers
	}
	if f.maxDepth > 0 {
		opts.MaxDepth = f.maxDepth
	}
	if f.indexURL != "" {
		opts.IndexURL = f.indexURL
	}
	if f.policy != "" {
		if opts.Policy, err = deps.ParsePolicy(f.policy); err != nil {
			return pipeline.Options{}, err
		}
	}
	return opts, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, f resolveFlags) (*pipeline.Runner, error) {
	opts, err := c.options(f)
	if err != nil {
		return nil, err
	}
	cache, err := c.newCache(ctx, f.noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cache, opts, c.Logger)
	if c.newFetcher != nil {
		runner.NewFetcher = c.newFetcher
	}
	return runner, nil
}

// newCache opens the configured metadata cache. An unreachable Redis falls
// back to the file cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.Config.CacheURL != "" {
		rc, err := cache.NewRedisCache(ctx, c.Config.CacheURL, cache.DefaultRedisPrefix)
		if err == nil {
			return rc, nil
		}
		c.Logger.Warn("redis cache unavailable, using file cache", "err", err)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// installDir returns the install directory without opening a cache.
func (c *CLI) installDir() string {
	opts, _ := c.options(resolveFlags{})
	return pipeline.NewRunner(cache.NewNullCache(), opts, c.Logger).InstallDir(c.dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pym/).
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
