package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/john-wilkinson/pym/pkg/deps"
	"github.com/john-wilkinson/pym/pkg/errors"
	"github.com/john-wilkinson/pym/pkg/fetch"
	"github.com/john-wilkinson/pym/pkg/fetch/mocks"
	"github.com/john-wilkinson/pym/pkg/install"
	"github.com/john-wilkinson/pym/pkg/manifest"
	"github.com/john-wilkinson/pym/pkg/specifier"
)

// newTestRunner returns a runner whose fetcher is a mock, and an empty
// project directory.
func newTestRunner(t *testing.T) (*Runner, *mocks.MockSourceFetcher, string) {
	t.Helper()
	f := mocks.NewMockSourceFetcher(gomock.NewController(t))
	r := NewRunner(nil, Options{Workers: 2}, log.New(io.Discard))
	r.NewFetcher = func(stagingDir string) fetch.SourceFetcher {
		assert.Equal(t, install.StagingDirName, filepath.Base(stagingDir))
		return f
	}
	return r, f, t.TempDir()
}

func writeRoot(t *testing.T, dir string, specs ...string) {
	t.Helper()
	m := manifest.New("webapp")
	for _, d := range specs {
		m.Dependencies = append(m.Dependencies, specifier.MustParse(d))
	}
	require.NoError(t, manifest.Save(dir, m))
}

// expectPackage stages name/__init__.py under a fresh directory when name
// is fetched from the registry.
func expectPackage(t *testing.T, f *mocks.MockSourceFetcher, name, constraint, version string, requires ...string) {
	dir := t.TempDir()
	f.EXPECT().FetchRegistryArchive(gomock.Any(), name, constraint).
		DoAndReturn(func(_ context.Context, name, _ string) (*fetch.Result, error) {
			if err := os.MkdirAll(filepath.Join(dir, name), 0o755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(filepath.Join(dir, name, "__init__.py"), []byte("version = '"+version+"'\n"), 0o644); err != nil {
				return nil, err
			}
			return &fetch.Result{StagingPath: dir, ResolvedVersion: version, Name: name, Dependencies: requires}, nil
		})
}

func TestRunner_ResolveAndInstall(t *testing.T) {
	r, f, root := newTestRunner(t)
	writeRoot(t, root, "tornado@4.5.2")
	expectPackage(t, f, "tornado", "4.5.2", "4.5.2", "six")
	expectPackage(t, f, "six", "", "1.16.0")

	ctx := context.Background()
	res, err := r.Resolve(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.False(t, res.Fatal())
	assert.Equal(t, "webapp", res.Root.Name)
	require.Len(t, res.Graph.Packages(), 2)

	report, err := r.Install(ctx, root, res)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(install.Installed))
	assert.FileExists(t, filepath.Join(root, install.DirName, "tornado", "tornado", "__init__.py"))

	installed, err := manifest.Load(filepath.Join(root, install.DirName, "tornado"))
	require.NoError(t, err)
	assert.Equal(t, "4.5.2", installed.Resolved)

	again, err := r.Install(ctx, root, res)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Count(install.AlreadyPresent))

	require.NoError(t, os.MkdirAll(r.StagingDir(root), 0o755))
	require.NoError(t, r.Cleanup(root))
	assert.NoDirExists(t, r.StagingDir(root))
	assert.DirExists(t, filepath.Join(root, install.DirName, "six"))
}

func TestRunner_ResolveMissingManifest(t *testing.T) {
	r, _, root := newTestRunner(t)

	_, err := r.Resolve(context.Background(), root)
	assert.True(t, errors.Is(err, errors.ErrCodeManifestMissing), "got %v", err)
}

func TestRunner_ResolveFetchFailure(t *testing.T) {
	r, f, root := newTestRunner(t)
	writeRoot(t, root, "nope", "six")
	f.EXPECT().FetchRegistryArchive(gomock.Any(), "nope", "").
		Return(nil, errors.New(errors.ErrCodeNotFound, "nope not found"))
	expectPackage(t, f, "six", "", "1.16.0")

	res, err := r.Resolve(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, res.Fatal(), "a failed direct dependency is fatal")
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, deps.FetchFailed, res.Diagnostics[0].Kind)

	report, err := r.Install(context.Background(), root, res)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(install.Installed), "the rest of the graph still installs")
}

func TestRunner_ResolveSpecifiers(t *testing.T) {
	r, f, root := newTestRunner(t)
	expectPackage(t, f, "six", "1.16.0", "1.16.0")

	res, err := r.ResolveSpecifiers(context.Background(), root, []string{"six@1.16.0"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root), res.Root.Name, "root is named after the directory")
	n, ok := res.Graph.Node("six")
	require.True(t, ok)
	assert.Equal(t, "1.16.0", n.ResolvedVersion)

	_, err = r.ResolveSpecifiers(context.Background(), root, []string{"six", "bad@"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSpecifier), "got %v", err)
}

func TestRunner_ResolveSpecifiersKeepsRootName(t *testing.T) {
	r, f, root := newTestRunner(t)
	writeRoot(t, root, "tornado")
	expectPackage(t, f, "six", "", "1.16.0")

	res, err := r.ResolveSpecifiers(context.Background(), root, []string{"six"})
	require.NoError(t, err)
	assert.Equal(t, "webapp", res.Root.Name)
	assert.Len(t, res.Graph.Packages(), 1, "only the requested specifiers are resolved")

	m, err := manifest.Load(root)
	require.NoError(t, err)
	assert.Len(t, m.Dependencies, 1, "the manifest is not modified")
}

func TestRunner_ResolveSpecifiersRejectsProject(t *testing.T) {
	r, _, root := newTestRunner(t)
	writeRoot(t, root)

	for _, raw := range []string{"webapp", "WebApp@1.0", "https://github.com/acme/webapp.git#main"} {
		_, err := r.ResolveSpecifiers(context.Background(), root, []string{"six", raw})
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "%s: got %v", raw, err)
	}
}

func TestRunner_InstallCancelled(t *testing.T) {
	r, f, root := newTestRunner(t)
	writeRoot(t, root, "six")
	expectPackage(t, f, "six", "", "1.16.0")

	ctx, cancel := context.WithCancel(context.Background())
	res, err := r.Resolve(ctx, root)
	require.NoError(t, err)
	cancel()

	_, err = r.Install(ctx, root, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, filepath.Join(root, install.DirName))

	_, err = r.Install(context.Background(), root, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInternal))
}

func TestRunner_RecordDependency(t *testing.T) {
	r, _, root := newTestRunner(t)
	writeRoot(t, root, "six")

	_, err := r.RecordDependency(root, "tornado@4.5.2")
	require.NoError(t, err)
	spec, err := r.RecordDependency(root, "Tornado@5.0")
	require.NoError(t, err)
	assert.Equal(t, "tornado", spec.Key())

	m, err := manifest.Load(root)
	require.NoError(t, err)
	require.Len(t, m.Dependencies, 2)
	assert.Equal(t, "six", m.Dependencies[0].Text())
	assert.Equal(t, "Tornado@5.0", m.Dependencies[1].Text())

	_, err = r.RecordDependency(root, "#")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSpecifier))
	_, err = r.RecordDependency(t.TempDir(), "six")
	assert.True(t, errors.Is(err, errors.ErrCodeManifestMissing))
}

func TestRunner_Forget(t *testing.T) {
	r, _, root := newTestRunner(t)
	writeRoot(t, root, "six", "tornado")
	require.NoError(t, manifest.Save(filepath.Join(root, install.DirName, "six"), &manifest.Manifest{Name: "six", Version: "1.16.0"}))

	removed, err := r.Forget(context.Background(), root, []string{"Six", "nope"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"six"}, removed)
	assert.NoDirExists(t, filepath.Join(root, install.DirName, "six"))

	m, err := manifest.Load(root)
	require.NoError(t, err)
	require.Len(t, m.Dependencies, 1)
	assert.Equal(t, "tornado", m.Dependencies[0].Key())

	_, err = r.Forget(context.Background(), root, []string{"../etc"}, false)
	assert.Error(t, err)
}

func TestRunner_InstallDir(t *testing.T) {
	r := NewRunner(nil, Options{}, log.New(io.Discard))
	assert.Equal(t, filepath.Join("proj", "pym_packages"), r.InstallDir("proj"))
	assert.Equal(t, filepath.Join("proj", "pym_packages", ".staging"), r.StagingDir("proj"))

	abs := filepath.Join(t.TempDir(), "shared")
	r = NewRunner(nil, Options{InstallDir: abs}, log.New(io.Discard))
	assert.Equal(t, abs, r.InstallDir("proj"))
	assert.NoError(t, r.Close())
}

func TestRunner_InstallDirFromManifest(t *testing.T) {
	r, _, dir := newTestRunner(t)
	m := manifest.New("webapp")
	m.InstallLocation = "lib"
	require.NoError(t, manifest.Save(dir, m))
	assert.Equal(t, filepath.Join(dir, "lib"), r.InstallDir(dir))
	assert.Equal(t, filepath.Join(dir, "lib", install.StagingDirName), r.StagingDir(dir))

	m.InstallLocation = "../elsewhere"
	require.NoError(t, manifest.Save(dir, m))
	assert.Equal(t, filepath.Join(dir, install.DirName), r.InstallDir(dir), "unsafe locations are ignored")
}
