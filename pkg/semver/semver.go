// Package semver compares package versions and checks version constraints.
//
// It wraps github.com/Masterminds/semver/v3 and accepts the Python flavoured
// spellings found on package indexes: "==1.0", "~=1.4.2", "1.0rc1",
// "2.0.post1" and four-component releases are coerced to their semver
// equivalents before parsing.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a parsed package version.
type Version struct {
	v   *mm.Version
	raw string
}

// Constraint is a parsed version constraint such as ">=1.2,<2" or "^1.0".
type Constraint struct {
	c   *mm.Constraints
	raw string
}

// String returns the version as it was written.
func (v Version) String() string { return v.raw }

// String returns the constraint as it was written.
func (c Constraint) String() string { return c.raw }

// pep440 matches release[-pre][.post][.dev] version strings.
var pep440 = regexp.MustCompile(`^v?(\d+(?:\.\d+)*)` +
	`(?:[-_.]?(a|b|c|rc|alpha|beta|pre|preview)[-_.]?(\d*))?` +
	`(?:[-_.]?(post|rev|r)[-_.]?(\d*))?` +
	`(?:[-_.]?(dev)[-_.]?(\d*))?$`)

// coerce rewrites a Python style version into semver syntax. Strings it does
// not recognise are returned unchanged.
func coerce(raw string) string {
	m := pep440.FindStringSubmatch(strings.ToLower(strings.TrimSpace(raw)))
	if m == nil {
		return raw
	}
	parts := strings.Split(m[1], ".")
	var build []string
	if len(parts) > 3 {
		build = append(build, parts[3:]...)
		parts = parts[:3]
	}
	out := strings.Join(parts, ".")

	var pre []string
	if m[2] != "" {
		pre = append(pre, m[2]+m[3])
	}
	if m[6] != "" {
		pre = append(pre, "dev"+m[7])
	}
	if len(pre) > 0 {
		out += "-" + strings.Join(pre, ".")
	}
	if m[4] != "" {
		build = append(build, "post"+m[5])
	}
	if len(build) > 0 {
		out += "+" + strings.Join(build, ".")
	}
	return out
}

// ParseVersion parses a version string.
func ParseVersion(raw string) (Version, error) {
	v, err := mm.NewVersion(coerce(raw))
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v, raw: raw}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// NormalizeConstraint translates a Python style constraint into the
// Masterminds syntax. An empty constraint or "latest" matches any release.
func NormalizeConstraint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "latest") {
		return "*"
	}
	clauses := strings.Split(raw, ",")
	for i, clause := range clauses {
		clauses[i] = normalizeClause(strings.TrimSpace(clause))
	}
	return strings.Join(clauses, ", ")
}

func normalizeClause(clause string) string {
	switch {
	case strings.HasPrefix(clause, "==="):
		return "=" + coerce(strings.TrimSpace(clause[3:]))
	case strings.HasPrefix(clause, "=="):
		return "=" + coerce(strings.TrimSpace(clause[2:]))
	case strings.HasPrefix(clause, "~="):
		return compatibleRelease(strings.TrimSpace(clause[2:]))
	}
	for _, op := range []string{">=", "<=", "!=", ">", "<", "=", "^", "~"} {
		if strings.HasPrefix(clause, op) {
			return op + coerce(strings.TrimSpace(clause[len(op):]))
		}
	}
	return coerce(clause)
}

// compatibleRelease expands "~=X.Y.Z" to ">=X.Y.Z, <X.(Y+1)".
func compatibleRelease(v string) string {
	parts := strings.Split(strings.SplitN(coerce(v), "-", 2)[0], ".")
	if len(parts) < 2 {
		return ">=" + coerce(v)
	}
	upper := parts[:len(parts)-1]
	last, err := strconv.Atoi(upper[len(upper)-1])
	if err != nil {
		return ">=" + coerce(v)
	}
	upper[len(upper)-1] = strconv.Itoa(last + 1)
	return ">=" + coerce(v) + ", <" + strings.Join(upper, ".")
}

// ParseConstraint parses a version constraint.
func ParseConstraint(raw string) (Constraint, error) {
	c, err := mm.NewConstraint(NormalizeConstraint(raw))
	if err != nil {
		return Constraint{}, fmt.Errorf("semver: parse constraint %q: %w", raw, err)
	}
	return Constraint{c: c, raw: raw}, nil
}

// MustParseConstraint is like ParseConstraint but panics on error.
func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Satisfies reports whether v meets c.
func Satisfies(v Version, c Constraint) bool {
	if v.v == nil || c.c == nil {
		return false
	}
	return c.c.Check(v.v)
}

// Matches reports whether the version string satisfies the constraint
// string. An empty constraint always matches. When either side cannot be
// parsed the strings are compared literally.
func Matches(version, constraint string) bool {
	if strings.TrimSpace(constraint) == "" {
		return true
	}
	c, cerr := ParseConstraint(constraint)
	v, verr := ParseVersion(version)
	if cerr != nil || verr != nil {
		return strings.TrimSpace(version) == strings.TrimLeft(strings.TrimSpace(constraint), "=")
	}
	return Satisfies(v, c)
}

// Compare compares a and b, returning:
// -1 if a < b
//
//	0 if a == b
//	1 if a > b
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}

// MaxSatisfying returns the highest version in candidates that satisfies c.
//
// If multiple versions are equal, the first encountered wins.
func MaxSatisfying(c Constraint, candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if !Satisfies(candidate, c) {
			continue
		}
		if !found || Compare(candidate, best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}

// ParseVersions parses every string it can and skips the rest, preserving
// input order.
func ParseVersions(raws []string) []Version {
	out := make([]Version, 0, len(raws))
	for _, raw := range raws {
		if v, err := ParseVersion(raw); err == nil {
			out = append(out, v)
		}
	}
	return out
}
