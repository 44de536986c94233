package fetch

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/john-wilkinson/pym/pkg/errors"
	"github.com/john-wilkinson/pym/pkg/specifier"
)

// DefaultGit is the git executable looked up on PATH.
const DefaultGit = "git"

// Git fetches sources by cloning repositories with the git executable.
type Git struct {
	binary  string
	staging string
}

// NewGit creates a git fetcher that clones into stagingRoot. An empty
// binary uses [DefaultGit].
func NewGit(binary, stagingRoot string) *Git {
	if binary == "" {
		binary = DefaultGit
	}
	return &Git{binary: binary, staging: stagingRoot}
}

// FetchVCS clones location, checks out ref and removes the .git directory.
// The resolved version is the checked out commit.
func (g *Git) FetchVCS(ctx context.Context, location, ref string) (*Result, error) {
	if err := ensureRoot(g.staging); err != nil {
		return nil, err
	}
	name := specifier.RepoName(location)
	key := specifier.NormalizeName(name)
	if err := errors.ValidatePackageName(key); err != nil {
		return nil, err
	}

	tmp, err := os.MkdirTemp(g.staging, "."+key+"-*.tmp")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "create staging directory")
	}
	commit, err := g.checkout(ctx, location, ref, tmp)
	if err != nil {
		_ = os.RemoveAll(tmp)
		return nil, err
	}
	if err := os.RemoveAll(filepath.Join(tmp, ".git")); err != nil {
		_ = os.RemoveAll(tmp)
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "strip .git from %s", location)
	}

	dir := stagingPath(g.staging, key, "vcs", location, ref)
	if err := promote(tmp, dir); err != nil {
		return nil, err
	}
	return &Result{StagingPath: dir, ResolvedVersion: commit, Name: name}, nil
}

func (g *Git) checkout(ctx context.Context, location, ref, dir string) (string, error) {
	if _, err := g.run(ctx, "", "clone", "--quiet", "--", location, dir); err != nil {
		return "", g.failure(ctx, err, errors.ErrCodeNetwork, "clone %s", location)
	}
	if ref != "" {
		if _, err := g.run(ctx, dir, "checkout", "--quiet", ref); err != nil {
			return "", g.failure(ctx, err, errors.ErrCodeRefNotFound, "checkout %s in %s", ref, location)
		}
	}
	out, err := g.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", g.failure(ctx, err, errors.ErrCodeInternal, "resolve HEAD of %s", location)
	}
	return strings.TrimSpace(out), nil
}

func (g *Git) failure(ctx context.Context, err error, code errors.Code, format string, args ...any) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if stderrors.Is(err, exec.ErrNotFound) {
		return errors.Wrap(errors.ErrCodeInternal, err, "git executable %q not found", g.binary)
	}
	return errors.Wrap(code, err, format, args...)
}

// run executes git with prompts disabled and returns its stdout. The
// returned error includes git's stderr.
func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", &gitError{err: err, stderr: msg}
		}
		return "", err
	}
	return stdout.String(), nil
}

type gitError struct {
	err    error
	stderr string
}

func (e *gitError) Error() string { return e.err.Error() + ": " + e.stderr }
func (e *gitError) Unwrap() error { return e.err }
