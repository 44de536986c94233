package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/john-wilkinson/pym/pkg/errors"
	"github.com/john-wilkinson/pym/pkg/fetch"
	"github.com/john-wilkinson/pym/pkg/fetch/mocks"
	"github.com/john-wilkinson/pym/pkg/install"
	"github.com/john-wilkinson/pym/pkg/manifest"
	"github.com/john-wilkinson/pym/pkg/observability"
	"github.com/john-wilkinson/pym/pkg/specifier"
)

// newTestCLI returns a CLI with isolated config and cache directories, a
// mock fetcher, and an empty project directory.
func newTestCLI(t *testing.T) (*CLI, *mocks.MockSourceFetcher, string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, env := range []string{"PYM_INDEX_URL", "PYM_CACHE_URL", "PYM_WORKERS"} {
		t.Setenv(env, "")
	}
	t.Cleanup(observability.Reset)

	f := mocks.NewMockSourceFetcher(gomock.NewController(t))
	c := New(io.Discard, LogInfo)
	c.newFetcher = func(string) fetch.SourceFetcher { return f }
	return c, f, filepath.Join(t.TempDir(), "webapp")
}

// run executes the root command with args and returns what it printed.
func run(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()

	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// stage makes the fetcher serve name at version with a <name>/__init__.py
// module.
func stage(t *testing.T, f *mocks.MockSourceFetcher, name, constraint, version string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name, "__init__.py"), nil, 0o644))
	f.EXPECT().FetchRegistryArchive(gomock.Any(), name, constraint).
		Return(&fetch.Result{StagingPath: dir, ResolvedVersion: version, Name: name}, nil)
}

func TestInit(t *testing.T) {
	c, _, dir := newTestCLI(t)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	out, err := run(t, c, "init", "--yes", "-C", dir, "--description", "A web app")
	require.NoError(t, err)
	assert.Contains(t, out, "Created pym.json for webapp")

	m, err := manifest.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "webapp", m.Name)
	assert.Equal(t, manifest.DefaultVersion, m.Version)
	assert.Equal(t, "A web app", m.Description)
	assert.DirExists(t, filepath.Join(dir, "src"))

	_, err = run(t, c, "init", "--yes", "-C", dir)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "init refuses to overwrite, got %v", err)
}

func TestInitRejectsBadName(t *testing.T) {
	c, _, dir := newTestCLI(t)

	_, err := run(t, c, "init", "-y", "-C", dir, "--name", "../evil")
	assert.Error(t, err)
	assert.NoFileExists(t, manifest.Path(dir))
}

func TestInstallSaveListWhichUninstall(t *testing.T) {
	c, f, dir := newTestCLI(t)
	_, err := run(t, c, "init", "-y", "-C", dir)
	require.NoError(t, err)

	stage(t, f, "six", "1.16.0", "1.16.0")
	out, err := run(t, c, "install", "six@1.16.0", "--save", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "six 1.16.0")
	assert.Contains(t, out, "1 installed")
	assert.Contains(t, out, "saved six@1.16.0 to pym.json")

	m, err := manifest.Load(dir)
	require.NoError(t, err)
	require.Len(t, m.Dependencies, 1)
	assert.Equal(t, "six@1.16.0", m.Dependencies[0].Text())
	assert.NoDirExists(t, filepath.Join(dir, install.DirName, install.StagingDirName))

	out, err = run(t, c, "list", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "six")
	assert.Contains(t, out, "1.16.0")

	out, err = run(t, c, "which", "six", "-C", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, install.DirName, "six", "six", "__init__.py"), strings.TrimSpace(out))

	_, err = run(t, c, "which", "nope", "-C", dir)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	out, err = run(t, c, "uninstall", "six", "--save", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "removed six")
	assert.NoDirExists(t, filepath.Join(dir, install.DirName, "six"))
	m, err = manifest.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, m.Dependencies)
}

func TestInstallFromManifestIsIdempotent(t *testing.T) {
	c, f, dir := newTestCLI(t)
	_, err := run(t, c, "init", "-y", "-C", dir)
	require.NoError(t, err)
	_, err = run(t, c, "install", "--save", "-C", dir)
	assert.Error(t, err, "--save needs specifiers")

	require.NoError(t, manifest.AppendDependency(dir, specifier.MustParse("six")))

	stage(t, f, "six", "", "1.16.0")
	stage(t, f, "six", "", "1.16.0")
	_, err = run(t, c, "install", "-C", dir)
	require.NoError(t, err)

	out, err := run(t, c, "install", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "already installed")
	assert.Contains(t, out, "0 installed")
}

func TestInstallFatalExitsNonZero(t *testing.T) {
	c, f, dir := newTestCLI(t)
	_, err := run(t, c, "init", "-y", "-C", dir)
	require.NoError(t, err)

	f.EXPECT().FetchRegistryArchive(gomock.Any(), "nope", "").
		Return(nil, errors.New(errors.ErrCodeNotFound, "no package nope"))
	stage(t, f, "six", "", "1.16.0")

	out, err := run(t, c, "install", "nope", "six", "--save", "-C", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 dependency could not be resolved")
	assert.Contains(t, out, "fetch-failed")
	assert.Contains(t, out, "pym.json not updated")
	assert.DirExists(t, filepath.Join(dir, install.DirName, "six"), "the rest of the graph is installed")

	m, err := manifest.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, m.Dependencies)
}

func TestGraphJSON(t *testing.T) {
	c, f, dir := newTestCLI(t)
	_, err := run(t, c, "init", "-y", "-C", dir)
	require.NoError(t, err)
	require.NoError(t, manifest.AppendDependency(dir, specifier.MustParse("six")))
	stage(t, f, "six", "", "1.16.0")

	out, err := run(t, c, "graph", "--format", "json", "-C", dir)
	require.NoError(t, err)

	var doc struct {
		Root  string `json:"root"`
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "webapp", doc.Root)
	assert.Len(t, doc.Nodes, 2)
	assert.NoDirExists(t, filepath.Join(dir, install.DirName, "six"), "graph does not install")

	_, err = run(t, c, "graph", "--format", "png", "-C", dir)
	assert.Error(t, err)
}

func TestConfigFlagErrors(t *testing.T) {
	c, _, dir := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`policy = "newest"`), 0o644))

	_, err := run(t, c, "list", "-C", dir, "--config", path)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)

	require.NoError(t, os.WriteFile(path, []byte("workers = 3\ninstall_location = \"vendor\"\n"), 0o644))
	_, err = run(t, c, "list", "-C", dir, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Config.Workers)
	assert.Equal(t, filepath.Join(dir, "vendor"), c.installDir())

	opts, err := c.options(resolveFlags{workers: 7, policy: "strict"})
	require.NoError(t, err)
	assert.Equal(t, 7, opts.Workers)
	assert.Equal(t, "strict", string(opts.Policy))

	_, err = c.options(resolveFlags{policy: "newest"})
	assert.Error(t, err)
}

func TestInstallHonorsManifestInstallLocation(t *testing.T) {
	c, f, dir := newTestCLI(t)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(manifest.Path(dir), []byte(`{
    "name": "webapp",
    "version": "0.1.0",
    "install_location": "lib",
    "staging_location": "lib/.staging",
    "author": "me",
    "dependencies": []
}
`), 0o644))

	stage(t, f, "six", "", "1.16.0")
	_, err := run(t, c, "install", "six", "--save", "-C", dir)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, "lib", "six"))
	assert.NoDirExists(t, filepath.Join(dir, install.DirName))

	data, err := os.ReadFile(manifest.Path(dir))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"author": "me"`)
	assert.Contains(t, string(data), `"staging_location": "lib/.staging"`)
	assert.Contains(t, string(data), `"six"`)

	out, err := run(t, c, "which", "six", "-C", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lib", "six", "six", "__init__.py"), strings.TrimSpace(out))
}
