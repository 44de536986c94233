// Package integrations provides the HTTP plumbing for package index clients.
//
// The [Client] type wraps net/http with the behaviour every index client
// needs:
//   - Response caching through a [cache.Cache] with a per-client namespace
//   - Retry with backoff for network errors, 5xx and 429 responses
//   - Default request headers (User-Agent)
//   - Streaming downloads for archives
//
// Index-specific clients live in subpackages, currently [pypi].
//
//	c := integrations.NewClient(fileCache, "pypi", 24*time.Hour, nil)
//	var doc someResponse
//	err := c.Cached(ctx, "tornado", false, &doc, func() error {
//	    return c.Get(ctx, "https://pypi.org/pypi/tornado/json", &doc)
//	})
//
// Errors are reported with the sentinels [ErrNotFound] and [ErrNetwork] so
// callers can map them to their own error codes with errors.Is.
//
// [cache.Cache]: github.com/john-wilkinson/pym/pkg/cache.Cache
// [pypi]: github.com/john-wilkinson/pym/pkg/integrations/pypi
package integrations
