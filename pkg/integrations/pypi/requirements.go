package pypi

import (
	"regexp"
	"strings"

	"github.com/john-wilkinson/pym/pkg/integrations"
)

var (
	reqNameRE = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[[^\]]*\])?\s*(.*)$`)
	markerRE  = regexp.MustCompile(`;\s*(.+)`)
)

// Requirement is one parsed Requires-Dist entry.
type Requirement struct {
	Name       string // Normalized distribution name
	Constraint string // Version specifier, e.g. ">=1.0,<2"; empty means any
}

// Specifier renders the requirement as a pym dependency string
// ("name" or "name@constraint").
func (r Requirement) Specifier() string {
	if r.Constraint == "" {
		return r.Name
	}
	return r.Name + "@" + r.Constraint
}

// ParseRequirement parses a PEP 508 requirement line such as
// "tornado (>=4.0)" or "click>=7.0; python_version >= '3.6'".
//
// Requirements guarded by an environment marker are skipped (ok is false),
// as are direct URL references ("name @ https://...").
func ParseRequirement(line string) (Requirement, bool) {
	if markerRE.MatchString(line) {
		return Requirement{}, false
	}
	m := reqNameRE.FindStringSubmatch(line)
	if m == nil {
		return Requirement{}, false
	}
	rest := strings.TrimSpace(m[3])
	if strings.HasPrefix(rest, "@") {
		return Requirement{}, false
	}
	rest = strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")
	rest = strings.Join(strings.Fields(rest), "")
	if strings.ContainsAny(rest, "@#") {
		return Requirement{}, false
	}
	return Requirement{
		Name:       integrations.NormalizePkgName(m[1]),
		Constraint: rest,
	}, true
}

// ExtractDependencies converts Requires-Dist entries into pym dependency
// strings, dropping duplicates and marker-guarded entries. Order follows the
// input.
func ExtractDependencies(requires []string) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, line := range requires {
		req, ok := ParseRequirement(line)
		if !ok || seen[req.Name] {
			continue
		}
		seen[req.Name] = true
		deps = append(deps, req.Specifier())
	}
	return deps
}
