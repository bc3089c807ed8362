package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys that should always be sanitized.
// These keys carry Slack or WAVE credentials, or values that grant access
// on their own (an OAuth code, a response_url).
var sensitiveKeys = map[string]bool{
	// HTTP headers
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-slack-signature":   true,
	"proxy-authorization": true,

	// WAVE
	"key":          true,
	"api_key":      true,
	"apikey":       true,
	"wave_api_key": true,
	"waveapikey":   true,

	// Slack OAuth and signing
	"token":          true,
	"bot_token":      true,
	"access_token":   true,
	"refresh_token":  true,
	"client_secret":  true,
	"signing_secret": true,
	"state_secret":   true,
	"code":           true,
	"state":          true,

	// A response_url lets anyone post into the channel for 30 minutes.
	"response_url": true,

	// Storage
	"storage_secret": true,
	"password":       true,
}

// sensitivePatterns contains regex patterns that indicate sensitive values.
// Values matching these patterns will be sanitized regardless of key name.
var sensitivePatterns = []*regexp.Regexp{
	// Slack tokens: bot, user, app-level, refresh, configuration
	regexp.MustCompile(`^xox[abeprs]-[A-Za-z0-9-]+$`),
	regexp.MustCompile(`^xapp-[A-Za-z0-9-]+$`),

	// Slack response and webhook URLs
	regexp.MustCompile(`^https://hooks\.slack\.com/`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// API keys (common formats)
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`), // Long alphanumeric strings

	// Sealed credentials from the store
	regexp.MustCompile(`^enc:v1:`),
}

// keyParamPattern matches the WAVE API key inside a logged URL or error.
var keyParamPattern = regexp.MustCompile(`([?&]key=)[^&\s"]*`)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler to sanitize sensitive information.
// It intercepts log records and sanitizes attribute values that match
// sensitive key names or value patterns before passing them to the
// underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Packages that only accept *slog.Logger get redaction for free
type SecureHandler struct {
	// handler is the underlying slog handler that receives sanitized records.
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, the returned SecureHandler will use slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's message and attributes and passes it to
// the underlying handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, MaskURLKey(r.Message), r.PC)

	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are sanitized before being added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitizedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if isSensitiveValue(s) {
			return slog.String(a.Key, MaskValue)
		}
		if masked := MaskURLKey(s); masked != s {
			return slog.String(a.Key, masked)
		}
	case slog.KindAny:
		// Transport errors embed the request URL, API key included.
		if err, ok := a.Value.Any().(error); ok {
			msg := err.Error()
			if masked := MaskURLKey(msg); masked != msg {
				return slog.String(a.Key, masked)
			}
		}
	default:
	}

	return a
}

// containsSensitiveKeyword checks if the key contains sensitive keywords.
// Note: We intentionally exclude the bare "key" keyword as it causes false positives
// (e.g., "team_key", "keyboard"). The exact key "key" is in sensitiveKeys.
func containsSensitiveKeyword(key string) bool {
	sensitiveKeywords := []string{
		"password", "secret", "token", "api_key", "apikey",
		"credential", "signature",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches sensitive patterns.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// MaskURLKey replaces the value of every "key" query parameter in s.
func MaskURLKey(s string) string {
	if !strings.Contains(s, "key=") {
		return s
	}
	return keyParamPattern.ReplaceAllString(s, "${1}"+MaskValue)
}

// Options configures New.
type Options struct {
	// Verbose sets the level to Debug.
	Verbose bool

	// JSON selects JSON output instead of text.
	JSON bool

	// Level is used when Verbose is false. The zero value is Info.
	Level slog.Level
}

// New creates a new slog.Logger with secure handling.
// The logger sanitizes sensitive information in all log output.
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func New(w io.Writer, opts Options) *slog.Logger {
	level := opts.Level
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(NewSecureHandler(handler))
}

// Discard returns a logger that drops everything. It is meant for tests
// and for commands that must keep stdout clean.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
