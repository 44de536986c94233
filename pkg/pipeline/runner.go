package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/john-wilkinson/pym/pkg/cache"
	"github.com/john-wilkinson/pym/pkg/deps"
	"github.com/john-wilkinson/pym/pkg/errors"
	"github.com/john-wilkinson/pym/pkg/fetch"
	"github.com/john-wilkinson/pym/pkg/install"
	"github.com/john-wilkinson/pym/pkg/integrations/pypi"
	"github.com/john-wilkinson/pym/pkg/manifest"
	"github.com/john-wilkinson/pym/pkg/specifier"
)

// Runner resolves and installs project dependencies.
//
// The Runner holds no per-project state: every method takes the project
// directory, so one Runner may serve several projects, one call at a time
// per project.
type Runner struct {
	Cache   cache.Cache
	Logger  *log.Logger
	Options Options

	// NewFetcher returns the source fetcher used for one resolution. It
	// receives the staging directory of the project being resolved.
	NewFetcher func(stagingDir string) fetch.SourceFetcher
}

// NewRunner creates a runner over the given metadata cache.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, opts Options, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	r := &Runner{
		Cache:   c,
		Logger:  logger,
		Options: opts.WithDefaults(),
	}
	r.NewFetcher = r.defaultFetcher
	return r
}

func (r *Runner) defaultFetcher(stagingDir string) fetch.SourceFetcher {
	client := pypi.NewClient(r.Cache, r.Options.IndexURL, r.Options.CacheTTL)
	return fetch.NewSources(
		fetch.NewRegistry(client, stagingDir, r.Options.Refresh),
		fetch.NewGit(r.Options.Git, stagingDir),
	)
}

// InstallDir returns the install directory of the project in rootDir. An
// install_location in the project manifest takes precedence over
// Options.InstallDir.
func (r *Runner) InstallDir(rootDir string) string {
	dir := r.Options.InstallDir
	if m, err := manifest.Load(rootDir); err == nil && m.InstallLocation != "" {
		if err := errors.ValidatePath(m.InstallLocation); err != nil {
			r.Logger.Warn("ignoring install_location", "path", manifest.Path(rootDir), "err", errors.UserMessage(err))
		} else {
			dir = m.InstallLocation
		}
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(rootDir, dir)
}

// StagingDir returns the fetch staging area of the project in rootDir.
func (r *Runner) StagingDir(rootDir string) string {
	return filepath.Join(r.InstallDir(rootDir), install.StagingDirName)
}

// Resolve builds the dependency graph declared by the manifest in rootDir.
// A missing or corrupt root manifest is returned as an error.
func (r *Runner) Resolve(ctx context.Context, rootDir string) (*Resolution, error) {
	root, err := manifest.Load(rootDir)
	if err != nil {
		return nil, err
	}
	return r.resolve(ctx, rootDir, root)
}

// ResolveSpecifiers builds the graph for the given specifiers instead of
// the manifest's dependency list. The project manifest supplies the root
// name when present; it is not required. Any invalid specifier, or one
// naming the project itself, fails the call before anything is fetched.
func (r *Runner) ResolveSpecifiers(ctx context.Context, rootDir string, raws []string) (*Resolution, error) {
	specs := make([]specifier.Specifier, 0, len(raws))
	for _, raw := range raws {
		spec, err := specifier.Parse(raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	root, err := manifest.Load(rootDir)
	switch {
	case errors.Is(err, errors.ErrCodeManifestMissing):
		root = &manifest.Manifest{Name: projectName(rootDir), Version: manifest.DefaultVersion}
	case err != nil:
		return nil, err
	}
	self := specifier.NormalizeName(root.Name)
	for _, spec := range specs {
		if spec.Key() == self {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s names the project itself", spec.Text())
		}
	}
	project := *root
	project.Dependencies = specs
	return r.resolve(ctx, rootDir, &project)
}

func projectName(rootDir string) string {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return ""
	}
	return filepath.Base(abs)
}

func (r *Runner) resolve(ctx context.Context, rootDir string, root *manifest.Manifest) (*Resolution, error) {
	start := time.Now()
	fetcher := r.NewFetcher(r.StagingDir(rootDir))
	builder := deps.NewBuilder(fetcher, r.Options.builderOptions(r.Logger.Debugf))

	g, diags, err := builder.Build(ctx, root)
	if err != nil {
		return nil, err
	}
	res := &Resolution{
		Root:        root,
		Graph:       g,
		Diagnostics: diags,
		Duration:    time.Since(start),
	}
	r.Logger.Info("resolved dependencies",
		"packages", len(g.Packages()),
		"diagnostics", len(diags),
		"duration", res.Duration)
	return res, nil
}

// Install materializes a resolved graph into the project's install
// directory. A cancelled context installs nothing.
func (r *Runner) Install(ctx context.Context, rootDir string, res *Resolution) (*install.Report, error) {
	if res == nil || res.Graph == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no resolved graph to install")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	report, err := install.New(r.InstallDir(rootDir), r.Logger.Debugf).Install(ctx, res.Graph)
	if err != nil {
		return report, err
	}
	r.Logger.Info("installed packages",
		"installed", report.Count(install.Installed),
		"present", report.Count(install.AlreadyPresent),
		"failed", report.Count(install.Failed),
		"duration", time.Since(start))
	return report, nil
}

// RecordDependency parses raw and adds it to the manifest in rootDir,
// replacing any dependency with the same identity key.
func (r *Runner) RecordDependency(rootDir, raw string) (specifier.Specifier, error) {
	spec, err := specifier.Parse(raw)
	if err != nil {
		return specifier.Specifier{}, err
	}
	if err := manifest.AppendDependency(rootDir, spec); err != nil {
		return specifier.Specifier{}, err
	}
	r.Logger.Debug("recorded dependency", "specifier", spec.Text())
	return spec, nil
}

// Forget removes installed packages by name and, when save is set, drops
// them from the manifest in rootDir. It returns the identity keys whose
// install directories were removed.
func (r *Runner) Forget(ctx context.Context, rootDir string, names []string, save bool) ([]string, error) {
	in := install.New(r.InstallDir(rootDir), r.Logger.Debugf)
	var removed []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		key := specifier.NormalizeName(name)
		ok, err := in.Remove(key)
		if err != nil {
			return removed, err
		}
		if ok {
			removed = append(removed, key)
		}
		if save {
			if _, err := manifest.RemoveDependency(rootDir, name); err != nil {
				return removed, err
			}
		}
	}
	return removed, nil
}

// Cleanup removes the project's staging area.
func (r *Runner) Cleanup(rootDir string) error {
	if err := os.RemoveAll(r.StagingDir(rootDir)); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "remove staging area")
	}
	return nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
