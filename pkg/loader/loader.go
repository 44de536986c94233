// Package loader maps Python import paths onto installed packages.
//
// An import "a.b.c" resolves to <install>/<a>/<src>/b/c, where src is the
// package's declared source directory. Packages that declare none are
// probed for a "src" directory, then for a directory named after the
// package, which is how unpacked wheels are laid out.
package loader

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/john-wilkinson/pym/pkg/errors"
	"github.com/john-wilkinson/pym/pkg/manifest"
	"github.com/john-wilkinson/pym/pkg/specifier"
)

// Entry describes one installed package.
type Entry struct {
	Name    string // Directory name (identity key)
	Version string // Resolved version, or declared version when unset
	Root    string // Import root directory
}

// Index lists the packages installed in installDir, sorted by name.
// Directories without a manifest are skipped.
func Index(installDir string) ([]Entry, error) {
	dirs, err := os.ReadDir(installDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "read %s", installDir)
	}
	var out []Entry
	for _, d := range dirs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		e, err := entry(installDir, d.Name())
		if errors.Is(err, errors.ErrCodeManifestMissing) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func entry(installDir, key string) (Entry, error) {
	dir := filepath.Join(installDir, key)
	m, err := manifest.Load(dir)
	if err != nil {
		return Entry{}, err
	}
	version := m.Resolved
	if version == "" {
		version = m.Version
	}
	src := m.Src
	if src == "" {
		src = guessSrc(dir, m.Name, key)
	}
	if src != "" {
		if err := errors.ValidatePath(src); err != nil {
			return Entry{}, errors.Wrap(errors.ErrCodeManifestCorrupt, err, "%s: bad src", manifest.Path(dir))
		}
	}
	return Entry{Name: key, Version: version, Root: filepath.Join(dir, filepath.FromSlash(src))}, nil
}

// guessSrc returns the first existing candidate source directory, or ""
// for the package root.
func guessSrc(dir string, names ...string) string {
	candidates := []string{manifest.DefaultSrc}
	for _, n := range names {
		if n != "" {
			candidates = append(candidates, n, strings.ReplaceAll(n, "-", "_"))
		}
	}
	for _, c := range candidates {
		if info, err := os.Stat(filepath.Join(dir, c)); err == nil && info.IsDir() {
			return c
		}
	}
	return ""
}

// Lookup returns the import root of the installed package name.
func Lookup(installDir, name string) (Entry, error) {
	key := specifier.NormalizeName(name)
	if err := errors.ValidatePackageName(key); err != nil {
		return Entry{}, err
	}
	e, err := entry(installDir, key)
	if errors.Is(err, errors.ErrCodeManifestMissing) {
		return Entry{}, errors.New(errors.ErrCodeNotFound, "%s is not installed in %s", name, installDir)
	}
	return e, err
}

// Resolve returns the file that a dotted import path loads: a module file
// "<path>.py" or a package's "<path>/__init__.py".
func Resolve(installDir, module string) (string, error) {
	segments := strings.Split(strings.TrimSpace(module), ".")
	if segments[0] == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "empty module name")
	}
	for _, s := range segments {
		if s == "" {
			return "", errors.New(errors.ErrCodeInvalidInput, "malformed module name %q", module)
		}
	}
	e, err := Lookup(installDir, segments[0])
	if err != nil {
		return "", err
	}

	base := filepath.Join(append([]string{e.Root}, segments[1:]...)...)
	if info, err := os.Stat(base); err == nil && info.IsDir() {
		init := filepath.Join(base, "__init__.py")
		if _, err := os.Stat(init); err != nil {
			return "", errors.New(errors.ErrCodeNotFound, "%s is a directory without __init__.py", base)
		}
		return init, nil
	}
	if _, err := os.Stat(base + ".py"); err != nil {
		return "", errors.New(errors.ErrCodeNotFound, "no module %s under %s", module, e.Root)
	}
	return base + ".py", nil
}
