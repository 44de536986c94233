// Package manifest reads and writes pym.json project manifests.
//
// A manifest is a small JSON document stored at the root of every project
// and every installed package:
//
//	{
//	    "name": "webapp",
//	    "version": "0.1.0",
//	    "src": "src",
//	    "dependencies": [
//	        "tornado@4.5.2",
//	        "https://github.com/acme/widgets.git#v1.2.0"
//	    ]
//	}
//
// Fields are written with a four-space indent and a trailing newline. A
// loaded manifest keeps its field order, and fields pym does not interpret
// (such as "staging_location" or "author") are written back unchanged, so
// loading and saving a manifest written by pym leaves the file byte-for-byte
// unchanged. Saves are atomic: the document is written to a
// temporary file in the same directory, synced, and renamed into place.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/john-wilkinson/pym/pkg/errors"
	"github.com/john-wilkinson/pym/pkg/specifier"
)

// FileName is the manifest file name inside a project directory.
const FileName = "pym.json"

// SynthesizedVersion is the version given to packages that ship no manifest.
const SynthesizedVersion = "0.0.0"

// Defaults for manifests created by "pym init".
const (
	DefaultVersion = "0.1.0"
	DefaultSrc     = "src"
	DefaultLicense = "MIT"
)

// Manifest describes a project and its direct dependencies.
type Manifest struct {
	Name         string
	Version      string
	Description  string
	Src          string // Source sub-directory exposed as the import root
	License      string
	Resolved     string // Concrete version or commit an installed copy came from
	Dependencies []specifier.Specifier

	// InstallLocation overrides the install directory of the project,
	// relative to the project directory.
	InstallLocation string

	layout layout
}

// New returns the manifest "pym init" writes for a fresh project.
func New(name string) *Manifest {
	return &Manifest{
		Name:    name,
		Version: DefaultVersion,
		Src:     DefaultSrc,
		License: DefaultLicense,
	}
}

// Path returns the manifest path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Exists reports whether dir contains a manifest.
func Exists(dir string) bool {
	_, err := os.Stat(Path(dir))
	return err == nil
}

// Load reads the manifest in dir.
//
// It fails with [errors.ErrCodeManifestMissing] when there is no manifest and
// [errors.ErrCodeManifestCorrupt] when the document cannot be parsed or lists
// an invalid dependency specifier.
func Load(dir string) (*Manifest, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeManifestMissing, "no %s in %s", FileName, dir)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "read %s", path)
	}
	return Parse(data, path)
}

// Parse decodes a manifest document. The source is used in error messages.
func Parse(data []byte, source string) (*Manifest, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestCorrupt, err, "parse %s", source)
	}
	l, err := decodeLayout(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestCorrupt, err, "parse %s", source)
	}

	m := &Manifest{
		Name:            doc.Name,
		Version:         doc.Version,
		Description:     doc.Description,
		Src:             doc.Src,
		License:         doc.License,
		Resolved:        doc.Resolved,
		InstallLocation: doc.InstallLocation,
		layout:          l,
	}
	for _, raw := range doc.Dependencies {
		spec, err := specifier.Parse(raw)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeManifestCorrupt, err, "%s: bad dependency %q", source, raw)
		}
		m.Dependencies = append(m.Dependencies, spec)
	}
	return m, nil
}

// LoadOrSynthesize loads the manifest in dir, or returns a default manifest
// named inferredName when none exists. Nothing is written; synthesized
// reports whether the default was used.
func LoadOrSynthesize(dir, inferredName string) (m *Manifest, synthesized bool, err error) {
	m, err = Load(dir)
	if errors.Is(err, errors.ErrCodeManifestMissing) {
		return &Manifest{Name: inferredName, Version: SynthesizedVersion}, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return m, false, nil
}

// Marshal encodes m in its on-disk form. Manifests that were not loaded
// from a document use the field order of a new manifest.
func Marshal(m *Manifest) ([]byte, error) {
	data, err := encodeDocument(m)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode manifest")
	}
	return data, nil
}

// Save writes m to dir atomically.
func Save(dir string, m *Manifest) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+FileName+"-*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create temp manifest in %s", dir)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeFilesystem, err, "write %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeFilesystem, err, "sync %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "close %s", tmpPath)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "chmod %s", tmpPath)
	}
	if err := os.Rename(tmpPath, Path(dir)); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "replace %s", Path(dir))
	}
	return nil
}

// AppendDependency records spec in the manifest in dir. A dependency with
// the same identity key is replaced in place; otherwise spec is appended.
func AppendDependency(dir string, spec specifier.Specifier) error {
	m, err := Load(dir)
	if err != nil {
		return err
	}
	m.Add(spec)
	return Save(dir, m)
}

// RemoveDependency drops the dependency named name from the manifest in dir.
// It reports whether a dependency was removed; the file is only rewritten
// when it was.
func RemoveDependency(dir, name string) (bool, error) {
	m, err := Load(dir)
	if err != nil {
		return false, err
	}
	if !m.Remove(name) {
		return false, nil
	}
	return true, Save(dir, m)
}

// Add replaces the dependency sharing spec's identity key, or appends spec.
func (m *Manifest) Add(spec specifier.Specifier) {
	for i, d := range m.Dependencies {
		if d.Key() == spec.Key() {
			m.Dependencies[i] = spec
			return
		}
	}
	m.Dependencies = append(m.Dependencies, spec)
}

// Remove drops the dependency whose identity key matches name.
func (m *Manifest) Remove(name string) bool {
	key := specifier.NormalizeName(name)
	for i, d := range m.Dependencies {
		if d.Key() == key {
			m.Dependencies = append(m.Dependencies[:i], m.Dependencies[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the dependency whose identity key matches name, or nil.
func (m *Manifest) Find(name string) *specifier.Specifier {
	key := specifier.NormalizeName(name)
	for i, d := range m.Dependencies {
		if d.Key() == key {
			return &m.Dependencies[i]
		}
	}
	return nil
}
