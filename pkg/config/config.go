// Package config loads user configuration for pym.
//
// Settings come from a TOML file at $XDG_CONFIG_HOME/pym/config.toml
// (falling back to ~/.config/pym/config.toml), then from PYM_* environment
// variables. Command line flags are applied last by the CLI. Every key is
// optional:
//
//	index_url        = "https://pypi.org/pypi"
//	install_location = "pym_packages"
//	workers          = 8
//	max_depth        = 50
//	cache_ttl        = "24h"
//	cache_url        = "redis://localhost:6379/0"
//	git              = "git"
//	policy           = "first-wins"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/john-wilkinson/pym/pkg/deps"
	"github.com/john-wilkinson/pym/pkg/errors"
	"github.com/john-wilkinson/pym/pkg/fetch"
	"github.com/john-wilkinson/pym/pkg/install"
	"github.com/john-wilkinson/pym/pkg/integrations/pypi"
)

const (
	appName  = "pym"
	fileName = "config.toml"

	// DefaultCacheTTL is how long index metadata stays cached.
	DefaultCacheTTL = 24 * time.Hour
)

// Environment variables that override the configuration file.
const (
	EnvIndexURL = "PYM_INDEX_URL"
	EnvCacheURL = "PYM_CACHE_URL"
	EnvWorkers  = "PYM_WORKERS"
)

// Duration is a time.Duration written as a Go duration string ("12h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds user settings.
type Config struct {
	IndexURL        string   `toml:"index_url"`
	InstallLocation string   `toml:"install_location"`
	Workers         int      `toml:"workers"`
	MaxDepth        int      `toml:"max_depth"`
	CacheTTL        Duration `toml:"cache_ttl"`
	CacheURL        string   `toml:"cache_url"` // Empty selects the file cache
	Git             string   `toml:"git"`
	Policy          string   `toml:"policy"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		IndexURL:        pypi.DefaultBaseURL,
		InstallLocation: install.DirName,
		Workers:         deps.DefaultWorkers,
		MaxDepth:        deps.DefaultMaxDepth,
		CacheTTL:        Duration{DefaultCacheTTL},
		Git:             fetch.DefaultGit,
		Policy:          string(deps.FirstWins),
	}
}

// Dir returns the pym configuration directory.
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the configuration file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the configuration file at path on top of [Default]. A missing
// file is not an error. Unknown keys are rejected so typos do not go
// unnoticed.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "read %s", path)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// LoadDefault loads the configuration from [DefaultPath] and applies the
// process environment.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		cfg := Default()
		return cfg, cfg.ApplyEnv(os.LookupEnv)
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.ApplyEnv(os.LookupEnv)
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvIndexURL); ok && v != "" {
		c.IndexURL = v
	}
	if v, ok := lookup(EnvCacheURL); ok {
		c.CacheURL = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", EnvWorkers)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks the settings for values the resolver cannot use.
func (c *Config) Validate() error {
	if err := errors.ValidateURL(c.IndexURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "index_url")
	}
	if err := errors.ValidatePath(c.InstallLocation); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "install_location")
	}
	if c.Workers < 0 || c.MaxDepth < 0 || c.CacheTTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers, max_depth and cache_ttl must not be negative")
	}
	if _, err := deps.ParsePolicy(c.Policy); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "policy")
	}
	if c.CacheURL != "" && !strings.HasPrefix(c.CacheURL, "redis://") && !strings.HasPrefix(c.CacheURL, "rediss://") {
		return errors.New(errors.ErrCodeInvalidInput, "cache_url must be a redis:// or rediss:// URL")
	}
	return nil
}

// String renders the effective configuration as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("%+v", *c)
	}
	return b.String()
}
