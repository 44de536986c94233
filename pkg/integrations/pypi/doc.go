// Package pypi provides an HTTP client for the Python Package Index JSON API.
//
// # Usage
//
//	client := pypi.NewClient(fileCache, "", 24*time.Hour)
//
//	pkg, err := client.FetchPackage(ctx, "tornado", false)  // false = use cache
//	rel, err := client.FetchRelease(ctx, "tornado", "4.5.2", false)
//	wheel, ok := pypi.PickWheel(rel.Files)
//
// [FetchPackage] returns the latest release plus the list of every published
// version; [FetchRelease] returns the files and requirements of one version.
// Versions whose files are all yanked are left out of the release list.
//
// # Caching
//
// JSON responses are cached through [integrations.Client]. Pass refresh=true
// to bypass the cache. Downloads are never cached.
//
// # Requirements
//
// [ParseRequirement] and [ExtractDependencies] turn Requires-Dist entries
// into pym dependency strings ("click@>=7.0"). Entries carrying an
// environment marker (extras, python_version, platform) and direct URL
// references are skipped.
package pypi
