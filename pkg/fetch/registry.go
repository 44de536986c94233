package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/john-wilkinson/pym/pkg/errors"
	"github.com/john-wilkinson/pym/pkg/integrations"
	"github.com/john-wilkinson/pym/pkg/integrations/pypi"
	"github.com/john-wilkinson/pym/pkg/semver"
	"github.com/john-wilkinson/pym/pkg/specifier"
)

// Registry fetches pure Python wheels from a PyPI compatible index.
type Registry struct {
	client  *pypi.Client
	staging string
	refresh bool
}

// NewRegistry creates a registry fetcher that unpacks into stagingRoot.
// When refresh is set, cached index metadata is bypassed.
func NewRegistry(client *pypi.Client, stagingRoot string, refresh bool) *Registry {
	return &Registry{client: client, staging: stagingRoot, refresh: refresh}
}

// FetchRegistryArchive picks the highest release of name that satisfies
// constraint, downloads its wheel and unpacks it into the staging area.
// A release that was already unpacked is reused without downloading.
func (r *Registry) FetchRegistryArchive(ctx context.Context, name, constraint string) (*Result, error) {
	info, err := r.client.FetchPackage(ctx, name, r.refresh)
	if err != nil {
		return nil, indexError(err, "look up %s", name)
	}

	version, ok := pickRelease(info.Releases, constraint)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no release of %s matches %q", name, constraint)
	}

	rel, err := r.client.FetchRelease(ctx, name, version, r.refresh)
	if err != nil {
		return nil, indexError(err, "look up %s %s", name, version)
	}
	wheel, ok := pypi.PickWheel(rel.Files)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedArtifact,
			"%s %s has no pure Python wheel", name, version)
	}

	if err := ensureRoot(r.staging); err != nil {
		return nil, err
	}
	key := specifier.NormalizeName(name)
	dir := stagingPath(r.staging, key, "registry", key, version)
	if _, err := os.Stat(dir); err != nil {
		if err := r.unpack(ctx, wheel, key, dir); err != nil {
			return nil, err
		}
	}

	deps, found, err := readWheelRequirements(dir)
	if err != nil {
		return nil, err
	}
	if !found {
		deps = rel.Requirements
	}

	displayName := rel.Name
	if displayName == "" {
		displayName = name
	}
	return &Result{
		StagingPath:     dir,
		ResolvedVersion: version,
		Name:            displayName,
		Dependencies:    pypi.ExtractDependencies(deps),
	}, nil
}

// unpack downloads the wheel into a temp file, verifies its digest and
// extracts it into dir.
func (r *Registry) unpack(ctx context.Context, wheel pypi.File, key, dir string) error {
	archive, err := os.CreateTemp(r.staging, "."+key+"-*.whl")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create download file")
	}
	defer os.Remove(archive.Name())
	defer archive.Close()

	sum := sha256.New()
	if _, err := r.client.DownloadFile(ctx, wheel, io.MultiWriter(archive, sum)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return indexError(err, "download %s", wheel.Filename)
	}
	if want := wheel.Digests.SHA256; want != "" {
		if got := hex.EncodeToString(sum.Sum(nil)); !strings.EqualFold(got, want) {
			return errors.New(errors.ErrCodeNetwork, "checksum mismatch for %s: got %s, want %s", wheel.Filename, got, want)
		}
	}

	tmp, err := os.MkdirTemp(r.staging, "."+key+"-*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create staging directory")
	}
	if err := extractWheel(archive, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}
	return promote(tmp, dir)
}

// pickRelease returns the highest release matching constraint. Constraints
// that do not parse are matched literally against the release list.
func pickRelease(releases []string, constraint string) (string, bool) {
	c, err := semver.ParseConstraint(constraint)
	if err != nil {
		want := strings.TrimLeft(strings.TrimSpace(constraint), "=")
		if slices.Contains(releases, want) {
			return want, true
		}
		return "", false
	}
	best, ok := semver.MaxSatisfying(c, semver.ParseVersions(releases))
	if !ok {
		return "", false
	}
	return best.String(), true
}

// indexError translates HTTP layer failures into coded errors.
func indexError(err error, format string, args ...any) error {
	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return err
	case stderrors.Is(err, integrations.ErrNotFound):
		return errors.Wrap(errors.ErrCodeNotFound, err, format, args...)
	default:
		return errors.Wrap(errors.ErrCodeNetwork, err, format, args...)
	}
}
