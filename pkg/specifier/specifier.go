// Package specifier parses dependency specifier strings.
//
// # Grammar
//
// A specifier names either a package on a registry or a source-control
// repository:
//
//	<name>[@<constraint>]       tornado, tornado@4.5.2, pypi+tornado@>=4.0
//	<vcs-location>[#<ref>]      https://github.com/tornadoweb/tornado.git#v4.5.2
//
// A string is treated as a VCS location when it contains "://", starts with
// "git@", "git+", "/", "./" or "../", ends with ".git", or begins with a
// well-known forge host such as "github.com/". Everything else is a registry
// name.
//
// [Parse] is pure: it performs no I/O and always returns the same result for
// the same input.
package specifier

import (
	"strings"

	"github.com/john-wilkinson/pym/pkg/errors"
)

// DefaultIndex is the registry location assigned to registry specifiers.
const DefaultIndex = "pypi"

const (
	gitPrefix  = "git+"
	pypiPrefix = "pypi+"
)

// forgeHosts are hosts whose bare "host/owner/repo" paths are cloned over https.
var forgeHosts = []string{"github.com/", "gitlab.com/", "bitbucket.org/"}

// Kind distinguishes registry packages from source-control checkouts.
type Kind int

const (
	Registry Kind = iota
	VCS
)

// String returns "registry" or "vcs".
func (k Kind) String() string {
	if k == VCS {
		return "vcs"
	}
	return "registry"
}

// Specifier is a parsed dependency request.
//
// A Registry specifier never carries a Ref and a VCS specifier never carries
// a Constraint.
type Specifier struct {
	Kind       Kind   // Registry or VCS
	Name       string // Declared name (Registry) or final path segment (VCS)
	Constraint string // Registry version constraint; empty means latest
	Ref        string // VCS tag, branch or commit; empty means default branch
	Location   string // Registry index name or clone URL
	Raw        string // Trimmed input, preserved when written back to a manifest
}

// Key returns the identity key used to deduplicate packages.
func (s Specifier) Key() string {
	return NormalizeName(s.Name)
}

// NormalizeName case-folds a package name and folds "_" to "-".
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// String returns the canonical textual form of the specifier.
func (s Specifier) String() string {
	if s.Kind == VCS {
		if s.Ref != "" {
			return s.Location + "#" + s.Ref
		}
		return s.Location
	}
	if s.Constraint != "" {
		return s.Name + "@" + s.Constraint
	}
	return s.Name
}

// Text returns the string to persist in a manifest: the original input when
// known, otherwise the canonical form.
func (s Specifier) Text() string {
	if s.Raw != "" {
		return s.Raw
	}
	return s.String()
}

// Requested returns the version-or-ref half of the specifier.
func (s Specifier) Requested() string {
	if s.Kind == VCS {
		return s.Ref
	}
	return s.Constraint
}

// Parse parses a raw dependency string. Failures carry
// [errors.ErrCodeInvalidSpecifier].
func Parse(raw string) (Specifier, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Specifier{}, errors.New(errors.ErrCodeInvalidSpecifier, "empty specifier")
	}
	if isVCS(text) {
		return parseVCS(text)
	}
	return parseRegistry(text)
}

// MustParse is like Parse but panics on error. It is intended for tests and
// package-level fixtures.
func MustParse(raw string) Specifier {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

func isVCS(text string) bool {
	loc, _, _ := strings.Cut(text, "#")
	switch {
	case strings.Contains(loc, "://"),
		strings.HasPrefix(loc, "git@"),
		strings.HasPrefix(loc, gitPrefix),
		strings.HasPrefix(loc, "/"),
		strings.HasPrefix(loc, "./"),
		strings.HasPrefix(loc, "../"),
		strings.HasSuffix(loc, ".git"):
		return true
	}
	for _, host := range forgeHosts {
		if strings.HasPrefix(loc, host) {
			return true
		}
	}
	return false
}

func parseVCS(raw string) (Specifier, error) {
	if strings.Count(raw, "#") > 1 {
		return Specifier{}, errors.New(errors.ErrCodeInvalidSpecifier, "multiple '#' markers in %q", raw)
	}
	loc, ref, hasRef := strings.Cut(raw, "#")
	if hasRef && ref == "" {
		return Specifier{}, errors.New(errors.ErrCodeInvalidSpecifier, "empty ref after '#' in %q", raw)
	}
	loc = strings.TrimPrefix(loc, gitPrefix)
	for _, host := range forgeHosts {
		if strings.HasPrefix(loc, host) {
			loc = "https://" + loc
			break
		}
	}

	name := RepoName(loc)
	if err := errors.ValidatePythonPackageName(name); err != nil {
		return Specifier{}, errors.Wrap(errors.ErrCodeInvalidSpecifier, err, "cannot infer package name from %q", raw)
	}

	return Specifier{
		Kind:     VCS,
		Name:     name,
		Ref:      ref,
		Location: loc,
		Raw:      raw,
	}, nil
}

// RepoName returns the last path segment of a clone location, without ".git".
func RepoName(loc string) string {
	loc = strings.TrimRight(loc, "/")
	if i := strings.LastIndexAny(loc, "/:"); i >= 0 {
		loc = loc[i+1:]
	}
	return strings.TrimSuffix(loc, ".git")
}

func parseRegistry(raw string) (Specifier, error) {
	text := strings.TrimPrefix(raw, pypiPrefix)
	if strings.Contains(text, "#") {
		return Specifier{}, errors.New(errors.ErrCodeInvalidSpecifier, "'#' is only valid after a repository location: %q", raw)
	}
	if strings.Count(text, "@") > 1 {
		return Specifier{}, errors.New(errors.ErrCodeInvalidSpecifier, "multiple '@' markers in %q", raw)
	}
	name, constraint, hasConstraint := strings.Cut(text, "@")
	name = strings.TrimSpace(name)
	constraint = strings.TrimSpace(constraint)
	if hasConstraint && constraint == "" {
		return Specifier{}, errors.New(errors.ErrCodeInvalidSpecifier, "empty version after '@' in %q", raw)
	}
	if err := errors.ValidatePythonPackageName(name); err != nil {
		return Specifier{}, errors.Wrap(errors.ErrCodeInvalidSpecifier, err, "invalid package name in %q", raw)
	}

	return Specifier{
		Kind:       Registry,
		Name:       name,
		Constraint: constraint,
		Location:   DefaultIndex,
		Raw:        raw,
	}, nil
}
