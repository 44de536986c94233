package fetch

import (
	"archive/zip"
	"bufio"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/john-wilkinson/pym/pkg/errors"
)

// extractWheel unpacks the wheel archive f into dir. Entries that would
// escape dir are rejected.
func extractWheel(f *os.File, dir string) error {
	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "stat archive")
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnsupportedArtifact, err, "open wheel")
	}
	for _, entry := range zr.File {
		name := path.Clean(entry.Name)
		if entry.FileInfo().IsDir() {
			continue
		}
		if err := errors.ValidatePath(name); err != nil {
			return errors.Wrap(errors.ErrCodeUnsupportedArtifact, err, "wheel entry %q", entry.Name)
		}
		if err := extractEntry(entry, filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(entry *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", filepath.Dir(dst))
	}
	src, err := entry.Open()
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnsupportedArtifact, err, "read wheel entry %s", entry.Name)
	}
	defer src.Close()

	mode := entry.Mode().Perm() | 0o600
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", dst)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return errors.Wrap(errors.ErrCodeFilesystem, err, "write %s", dst)
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "close %s", dst)
	}
	return nil
}

// readWheelRequirements returns the Requires-Dist entries of the unpacked
// wheel in dir. found is false when the wheel carries no METADATA file.
func readWheelRequirements(dir string) (requires []string, found bool, err error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.dist-info", "METADATA"))
	if err != nil || len(matches) == 0 {
		return nil, false, nil
	}
	f, err := os.Open(matches[0])
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeFilesystem, err, "open %s", matches[0])
	}
	defer f.Close()

	requires, err = parseRequiresDist(f)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeFilesystem, err, "read %s", matches[0])
	}
	return requires, true, nil
}

// parseRequiresDist reads Requires-Dist headers from a core metadata
// document. Parsing stops at the first blank line, where the description
// body begins.
func parseRequiresDist(r io.Reader) ([]string, error) {
	var requires []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "Requires-Dist") {
			continue
		}
		requires = append(requires, strings.TrimSpace(value))
	}
	return requires, sc.Err()
}
