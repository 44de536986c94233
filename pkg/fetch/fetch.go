package fetch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/john-wilkinson/pym/pkg/cache"
	"github.com/john-wilkinson/pym/pkg/errors"
)

// Result describes a source tree materialized in the staging area.
type Result struct {
	StagingPath     string   // Directory holding the unpacked source
	ResolvedVersion string   // Concrete version or commit that was fetched
	Name            string   // Package name reported by the source
	Dependencies    []string // Dependency specifiers reported by the source, if any
}

// SourceFetcher materializes package sources into a staging directory.
//
// Both methods are idempotent: calling them twice for the same request
// leaves one staging directory with the same content.
//
//go:generate mockgen -source=fetch.go -destination=mocks/mock_fetcher.go -package=mocks
type SourceFetcher interface {
	// FetchRegistryArchive resolves constraint against the package index and
	// unpacks the newest matching release. An empty constraint means latest.
	FetchRegistryArchive(ctx context.Context, name, constraint string) (*Result, error)

	// FetchVCS clones location and checks out ref. An empty ref keeps the
	// default branch head.
	FetchVCS(ctx context.Context, location, ref string) (*Result, error)
}

// stagingPath returns the staging directory for a request. The directory
// name carries the package key so the staging area stays readable.
func stagingPath(root, key string, parts ...string) string {
	return filepath.Join(root, key+"-"+cache.Digest(parts...))
}

// promote moves a fully written temp directory to its final staging path,
// replacing whatever was there.
func promote(tmp, final string) error {
	if err := os.RemoveAll(final); err != nil {
		_ = os.RemoveAll(tmp)
		return errors.Wrap(errors.ErrCodeFilesystem, err, "clear staging directory %s", final)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.RemoveAll(tmp)
		return errors.Wrap(errors.ErrCodeFilesystem, err, "promote staging directory %s", final)
	}
	return nil
}

// ensureRoot creates the staging root if needed.
func ensureRoot(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create staging area %s", root)
	}
	return nil
}
