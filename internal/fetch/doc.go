// Package fetch retrieves raw HTML pages over HTTP.
//
// The Client issues a single GET per call with a fixed User-Agent and timeout.
// It never retries: a network failure or a non-2xx status is returned to the
// caller as a *FetchError.
//
// Cache wraps any Fetcher and serves repeated URLs from memory until a TTL
// passes, so a League reused across calls does not reload the league office
// page for every team lookup.
package fetch
