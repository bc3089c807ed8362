// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// wavebot handles several kinds of credentials: Slack bot tokens, the app's
// client and signing secrets, OAuth codes and state, response URLs, and
// each workspace's WAVE API key. The WAVE key travels in the query string
// of every scan request, so it also shows up in URLs and transport errors.
//
// # Security Features
//
// The SecureHandler masks:
//   - attributes whose key names a credential (token, api_key, code, ...)
//   - values that look like Slack tokens, Slack hook URLs or long opaque keys
//   - the "key" query parameter inside any logged string or error
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	logger := log.New(os.Stderr, log.Options{Verbose: true})
//	logger.Info("scan requested",
//	    "team", "T123",
//	    "url", "https://wave.webaim.org/api/request?key=abc&url=...", // key is masked
//	)
//	slog.SetDefault(logger)
package log
