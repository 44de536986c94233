package install

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/john-wilkinson/pym/pkg/deps"
	"github.com/john-wilkinson/pym/pkg/errors"
	"github.com/john-wilkinson/pym/pkg/manifest"
	"github.com/john-wilkinson/pym/pkg/observability"
)

// DirName is the default install directory inside a project.
const DirName = "pym_packages"

// StagingDirName is the fetch staging area inside the install directory.
// Dot-prefixed entries are never treated as installed packages.
const StagingDirName = ".staging"

// Outcome is the result of installing one package.
type Outcome int

const (
	Installed Outcome = iota
	AlreadyPresent
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Installed:
		return "installed"
	case AlreadyPresent:
		return "present"
	default:
		return "failed"
	}
}

// Result records the outcome for one node.
type Result struct {
	Node    *deps.PackageNode
	Outcome Outcome
	Err     error // Set when Outcome is Failed
}

// Report lists results in discovery order.
type Report struct {
	Results []Result
}

// Count returns the number of results with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Failed reports whether any package failed to install.
func (r *Report) Failed() bool { return r.Count(Failed) > 0 }

// Installer materializes a resolved graph into a target directory.
type Installer struct {
	targetDir string
	logger    func(string, ...any)
}

// New creates an Installer writing to targetDir. A nil logger discards
// progress messages.
func New(targetDir string, logger func(string, ...any)) *Installer {
	if logger == nil {
		logger = func(string, ...any) {}
	}
	return &Installer{targetDir: targetDir, logger: logger}
}

// TargetDir returns the install directory.
func (in *Installer) TargetDir() string { return in.targetDir }

// Install copies every non-root node of g into targetDir/<key>, one at a
// time in discovery order. A package whose installed copy already has the
// resolved version is left untouched. Filesystem failures are recorded as
// Failed results and do not stop the run; only cancellation does.
func (in *Installer) Install(ctx context.Context, g *deps.Graph) (*Report, error) {
	pkgs := g.Packages()
	start := time.Now()
	observability.Pipeline().OnInstallStart(ctx, len(pkgs))

	report := &Report{Results: make([]Result, 0, len(pkgs))}
	if err := os.MkdirAll(in.targetDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", in.targetDir)
	}
	for _, n := range pkgs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := in.installOne(n)
		if res.Err != nil {
			in.logger("install %s failed: %v", n.Key, res.Err)
		} else {
			in.logger("%s %s %s", res.Outcome, n.Key, n.ResolvedVersion)
		}
		report.Results = append(report.Results, res)
	}

	observability.Pipeline().OnInstallComplete(ctx,
		report.Count(Installed), report.Count(AlreadyPresent), report.Count(Failed), time.Since(start))
	return report, nil
}

func (in *Installer) installOne(n *deps.PackageNode) Result {
	if err := errors.ValidatePackageName(n.Key); err != nil {
		return Result{Node: n, Outcome: Failed, Err: err}
	}
	dest := filepath.Join(in.targetDir, n.Key)
	if current(dest, n.ResolvedVersion) {
		return Result{Node: n, Outcome: AlreadyPresent}
	}
	if err := in.replace(n, dest); err != nil {
		return Result{Node: n, Outcome: Failed, Err: err}
	}
	return Result{Node: n, Outcome: Installed}
}

// current reports whether dest holds an installed copy of version.
func current(dest, version string) bool {
	m, err := manifest.Load(dest)
	if err != nil {
		return false
	}
	installed := m.Resolved
	if installed == "" {
		installed = m.Version
	}
	return installed == version
}

// replace stages n next to dest and swaps it into place.
func (in *Installer) replace(n *deps.PackageNode, dest string) error {
	id := uuid.NewString()
	tmp := filepath.Join(in.targetDir, "."+n.Key+"-"+id+".tmp")
	old := filepath.Join(in.targetDir, "."+n.Key+"-"+id+".old")

	if err := copyTree(n.StagingPath, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}
	m := *n.Manifest
	m.Resolved = n.ResolvedVersion
	if err := manifest.Save(tmp, &m); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}

	hadOld := false
	if _, err := os.Lstat(dest); err == nil {
		if err := os.Rename(dest, old); err != nil {
			_ = os.RemoveAll(tmp)
			return errors.Wrap(errors.ErrCodeFilesystem, err, "move aside %s", dest)
		}
		hadOld = true
	}
	if err := os.Rename(tmp, dest); err != nil {
		if hadOld {
			_ = os.Rename(old, dest)
		}
		_ = os.RemoveAll(tmp)
		return errors.Wrap(errors.ErrCodeFilesystem, err, "install %s", dest)
	}
	if hadOld {
		if err := os.RemoveAll(old); err != nil {
			in.logger("could not remove previous copy %s: %v", old, err)
		}
	}
	return nil
}

// copyTree copies the regular files, directories and symlinks under src
// into dst. A missing src yields an empty dst.
func copyTree(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", dst)
	}
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil || rel == "." {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			return copyFile(path, target)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "copy %s", src)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Remove deletes the installed copy of key. It reports whether anything was
// removed.
func (in *Installer) Remove(key string) (bool, error) {
	if err := errors.ValidatePackageName(key); err != nil {
		return false, err
	}
	dest := filepath.Join(in.targetDir, key)
	if _, err := os.Lstat(dest); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.RemoveAll(dest); err != nil {
		return false, errors.Wrap(errors.ErrCodeFilesystem, err, "remove %s", dest)
	}
	return true, nil
}
