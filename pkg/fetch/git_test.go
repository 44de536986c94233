package fetch

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-wilkinson/pym/pkg/errors"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(DefaultGit); err != nil {
		t.Skip("git not installed")
	}
}

func gitCmd(t *testing.T, dir string, args ...string) string {
	t.Helper()
	args = append([]string{"-c", "commit.gpgsign=false", "-c", "tag.gpgsign=false"}, args...)
	cmd := exec.Command(DefaultGit, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=pym", "GIT_AUTHOR_EMAIL=pym@example.com",
		"GIT_COMMITTER_NAME=pym", "GIT_COMMITTER_EMAIL=pym@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	return strings.TrimSpace(string(out))
}

// newRepo creates a repository named widgets with a v1 tag and one commit
// on top of it. It returns the repository path and the tagged commit.
func newRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "widgets")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	gitCmd(t, dir, "init", "--quiet")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pym.json"), []byte(`{"name": "widgets", "version": "1.0.0", "dependencies": []}`), 0o644))
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "--quiet", "-m", "v1")
	gitCmd(t, dir, "tag", "v1")
	tagged := gitCmd(t, dir, "rev-parse", "HEAD")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "NEWS"), []byte("next\n"), 0o644))
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "--quiet", "-m", "next")
	return dir, tagged
}

func TestGit_FetchVCS(t *testing.T) {
	requireGit(t)
	repo, tagged := newRepo(t)
	staging := filepath.Join(t.TempDir(), ".staging")
	g := NewGit("", staging)

	res, err := g.FetchVCS(context.Background(), repo, "v1")
	require.NoError(t, err)
	assert.Equal(t, "widgets", res.Name)
	assert.Equal(t, tagged, res.ResolvedVersion)
	assert.FileExists(t, filepath.Join(res.StagingPath, "pym.json"))
	assert.NoFileExists(t, filepath.Join(res.StagingPath, "NEWS"))
	assert.NoDirExists(t, filepath.Join(res.StagingPath, ".git"))

	again, err := g.FetchVCS(context.Background(), repo, "v1")
	require.NoError(t, err)
	assert.Equal(t, res, again)

	entries, err := os.ReadDir(staging)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGit_DefaultBranch(t *testing.T) {
	requireGit(t)
	repo, tagged := newRepo(t)
	g := NewGit("", t.TempDir())

	res, err := g.FetchVCS(context.Background(), repo, "")
	require.NoError(t, err)
	assert.NotEqual(t, tagged, res.ResolvedVersion)
	assert.FileExists(t, filepath.Join(res.StagingPath, "NEWS"))
}

func TestGit_Errors(t *testing.T) {
	requireGit(t)
	repo, _ := newRepo(t)
	staging := t.TempDir()
	g := NewGit("", staging)

	_, err := g.FetchVCS(context.Background(), repo, "no-such-tag")
	assert.True(t, errors.Is(err, errors.ErrCodeRefNotFound), "got %v", err)

	_, err = g.FetchVCS(context.Background(), filepath.Join(t.TempDir(), "missing.git"), "")
	assert.True(t, errors.Is(err, errors.ErrCodeNetwork), "got %v", err)

	entries, err := os.ReadDir(staging)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed fetches leave nothing behind")
}

func TestGit_MissingBinary(t *testing.T) {
	g := NewGit("pym-no-such-git", t.TempDir())
	_, err := g.FetchVCS(context.Background(), "https://example.com/a/widgets.git", "")
	assert.True(t, errors.Is(err, errors.ErrCodeInternal), "got %v", err)
}
