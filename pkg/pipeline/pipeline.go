// Package pipeline runs dependency resolution and installation for a
// project directory.
//
// A [Runner] ties the pieces together: it loads the project manifest,
// builds the dependency graph with [deps.Builder] over the registry and git
// fetchers, and hands the graph to [install.Installer]. The CLI uses it for
// every command that touches pym_packages.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, pipeline.Options{Workers: 4}, logger)
//	defer runner.Close()
//
//	res, err := runner.Resolve(ctx, ".")
//	if err != nil {
//	    return err // root manifest problems are fatal
//	}
//	for _, d := range res.Diagnostics {
//	    logger.Warn(d.String())
//	}
//	report, err := runner.Install(ctx, ".", res)
//	defer runner.Cleanup(".")
//
// Resolution never fails because of one package: fetch errors and version
// conflicts become diagnostics on the [Resolution]. Only an unreadable root
// manifest, an invalid specifier given on the command line, or cancellation
// abort a run.
package pipeline

import (
	"time"

	"github.com/john-wilkinson/pym/pkg/deps"
	"github.com/john-wilkinson/pym/pkg/fetch"
	"github.com/john-wilkinson/pym/pkg/install"
	"github.com/john-wilkinson/pym/pkg/integrations/pypi"
	"github.com/john-wilkinson/pym/pkg/manifest"
)

// DefaultCacheTTL is how long index metadata is cached.
const DefaultCacheTTL = 24 * time.Hour

// Options configures a [Runner].
type Options struct {
	IndexURL   string        // Package index JSON API root
	InstallDir string        // Install directory, relative to the project unless absolute
	Git        string        // git executable
	Workers    int           // Concurrent fetches per BFS level
	MaxDepth   int           // Deepest level whose dependencies are followed
	Policy     deps.Policy   // Conflict policy
	CacheTTL   time.Duration // Index metadata cache lifetime
	Refresh    bool          // Bypass cached index metadata
}

// WithDefaults returns a copy of o with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.IndexURL == "" {
		o.IndexURL = pypi.DefaultBaseURL
	}
	if o.InstallDir == "" {
		o.InstallDir = install.DirName
	}
	if o.Git == "" {
		o.Git = fetch.DefaultGit
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	return o
}

func (o Options) builderOptions(logger func(string, ...any)) deps.Options {
	return deps.Options{
		Workers:  o.Workers,
		MaxDepth: o.MaxDepth,
		Policy:   o.Policy,
		Logger:   logger,
	}.WithDefaults()
}

// Resolution is the outcome of resolving a project.
type Resolution struct {
	Root        *manifest.Manifest
	Graph       *deps.Graph
	Diagnostics deps.Diagnostics
	Duration    time.Duration
}

// Fatal reports whether any diagnostic should fail the run.
func (r *Resolution) Fatal() bool {
	return r.Diagnostics.HasFatal()
}
