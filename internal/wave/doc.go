// Package wave is a client for the WebAIM WAVE accessibility API.
//
// A scan is a single GET request to /api/request carrying the API key, the
// page URL and the report type. The response is decoded into a
// model.AccessibilityReport. Error-shaped responses become *APIError, and
// non-2xx HTTP responses become *HTTPError; both match ErrScanFailed.
//
// The client performs no retries and no caching. Every scan spends WAVE
// credits, so callers decide whether to try again.
package wave
