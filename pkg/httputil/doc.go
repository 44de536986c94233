// Package httputil provides retry helpers for package index clients.
//
// [Retry] wraps network operations with automatic retry for transient
// failures (connection errors, 5xx responses, 429 rate limits). Only errors
// wrapped with [Retryable] are retried; everything else, including 404s,
// is returned immediately:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// Default settings: 3 attempts, 1 second initial delay doubling each retry.
package httputil
