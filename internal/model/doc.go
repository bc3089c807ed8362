// Package model defines the data structures shared across wavebot.
//
// This package contains the following main types:
//   - AccessibilityReport: A decoded WAVE API response
//   - Category and Item: Grouped accessibility findings
//   - ContrastSample: A single color contrast measurement
//   - Tier: The requested report verbosity
//   - Installation: A Slack workspace installation record
//
// Models live in their own package so that the scan client, the formatter,
// the credential store and the HTTP server can share them without import
// cycles. All of them serialize to JSON.
package model
