package pypi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/john-wilkinson/pym/pkg/cache"
	"github.com/john-wilkinson/pym/pkg/integrations"
)

// DefaultBaseURL is the JSON API root of the public index.
const DefaultBaseURL = "https://pypi.org/pypi"

// PackageInfo holds index metadata for one release of a package.
//
// Package names are normalized following PEP 503 (lowercase, underscores→hyphens).
// Releases lists every version the index knows about, in index order.
type PackageInfo struct {
	Name         string   // Display name as published (e.g., "Flask")
	Version      string   // Version this info describes
	Summary      string   // Short package description (may be empty)
	License      string   // License name or expression (may be empty)
	Requirements []string // Raw Requires-Dist entries
	Releases     []string // All published versions
	Files        []File   // Distribution files for Version
}

// File is one downloadable distribution of a release.
type File struct {
	Filename    string  `json:"filename"`
	URL         string  `json:"url"`
	PackageType string  `json:"packagetype"`
	Digests     Digests `json:"digests"`
	Yanked      bool    `json:"yanked,omitempty"`
}

// Digests holds the published checksums of a file.
type Digests struct {
	SHA256 string `json:"sha256,omitempty"`
}

// PureWheel reports whether f is a platform independent wheel.
func (f File) PureWheel() bool {
	return f.PackageType == "bdist_wheel" && strings.HasSuffix(f.Filename, "-none-any.whl")
}

// Client provides access to the PyPI JSON API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client. An empty baseURL uses [DefaultBaseURL];
// point it at a mirror or a test server otherwise.
func NewClient(backend cache.Cache, baseURL string, cacheTTL time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client: integrations.NewClient(backend, "pypi", cacheTTL, map[string]string{
			"User-Agent": integrations.UserAgent(),
			"Accept":     "application/json",
		}),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FetchPackage retrieves metadata for the latest release of pkg, including
// the list of all published versions.
//
// Returns [integrations.ErrNotFound] if the package doesn't exist and
// [integrations.ErrNetwork] for HTTP failures.
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	pkg = integrations.NormalizePkgName(pkg)
	return c.fetchCached(ctx, pkg, fmt.Sprintf("%s/%s/json", c.baseURL, integrations.URLEncode(pkg)), refresh)
}

// FetchRelease retrieves metadata and files for one version of pkg.
func (c *Client) FetchRelease(ctx context.Context, pkg, version string, refresh bool) (*PackageInfo, error) {
	pkg = integrations.NormalizePkgName(pkg)
	url := fmt.Sprintf("%s/%s/%s/json", c.baseURL, integrations.URLEncode(pkg), integrations.URLEncode(version))
	return c.fetchCached(ctx, pkg+"@"+version, url, refresh)
}

// DownloadFile streams a distribution file into w.
func (c *Client) DownloadFile(ctx context.Context, f File, w io.Writer) (int64, error) {
	return c.Download(ctx, f.URL, w)
}

func (c *Client) fetchCached(ctx context.Context, key, url string, refresh bool) (*PackageInfo, error) {
	var info PackageInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, url, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, url string, info *PackageInfo) error {
	var data apiResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: %s", err, url)
		}
		return err
	}

	releases := make([]string, 0, len(data.Releases))
	for v, files := range data.Releases {
		if allYanked(files) {
			continue
		}
		releases = append(releases, v)
	}
	sort.Strings(releases)

	*info = PackageInfo{
		Name:         data.Info.Name,
		Version:      data.Info.Version,
		Summary:      data.Info.Summary,
		License:      extractLicenseType(data.Info.License, data.Info.Classifiers),
		Requirements: data.Info.RequiresDist,
		Releases:     releases,
		Files:        data.URLs,
	}
	return nil
}

func allYanked(files []File) bool {
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if !f.Yanked {
			return false
		}
	}
	return true
}

// PickWheel returns the preferred pure-Python wheel among files: a py3 wheel
// when available, otherwise any "none-any" wheel. Yanked files are ignored.
func PickWheel(files []File) (File, bool) {
	var fallback *File
	for i, f := range files {
		if f.Yanked || !f.PureWheel() {
			continue
		}
		if strings.Contains(f.Filename, "-py3-") || strings.Contains(f.Filename, ".py3-") {
			return f, true
		}
		if fallback == nil {
			fallback = &files[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return File{}, false
}

type apiResponse struct {
	Info     apiInfo           `json:"info"`
	Releases map[string][]File `json:"releases"`
	URLs     []File            `json:"urls"`
}

type apiInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Summary      string   `json:"summary"`
	License      string   `json:"license"`
	Classifiers  []string `json:"classifiers"`
	RequiresDist []string `json:"requires_dist"`
}

// extractLicenseType extracts a short license identifier from PyPI data.
// It prefers the classifier (e.g., "License :: OSI Approved :: MIT License" -> "MIT License")
// and falls back to the license field if it's short enough.
func extractLicenseType(license string, classifiers []string) string {
	for _, c := range classifiers {
		if strings.HasPrefix(c, "License :: ") {
			parts := strings.Split(c, " :: ")
			if len(parts) >= 3 {
				return parts[len(parts)-1]
			}
		}
	}

	if license != "" && len(license) < 100 && !strings.Contains(license, "\n") {
		return strings.TrimSpace(license)
	}

	if license != "" {
		firstLine := strings.TrimSpace(strings.Split(license, "\n")[0])
		if len(firstLine) < 50 {
			return firstLine
		}
	}

	return ""
}
