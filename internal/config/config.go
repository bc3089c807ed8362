package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "wavebot"

	// DefaultAddr is the HTTP listen address.
	DefaultAddr = ":3000"

	// DefaultCommand is the slash command wavebot answers.
	DefaultCommand = "/wave"

	// DefaultWaveEndpoint is the public WAVE API host.
	DefaultWaveEndpoint = "https://wave.webaim.org"

	// DefaultWorkers is the number of scans that may run at once.
	// Each scan holds one outbound connection for up to HTTPTimeout.
	DefaultWorkers = 8

	// DefaultJobTimeout bounds a whole slash command job: the scan plus
	// posting the result.
	DefaultJobTimeout = 2 * time.Minute

	// DefaultHTTPTimeout bounds a single outbound request. WAVE renders
	// the target page before answering, which can take most of a minute.
	DefaultHTTPTimeout = 90 * time.Second

	// DefaultShutdownTimeout is how long the server waits for running jobs
	// when asked to stop.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultUserAgent identifies wavebot in outbound HTTP requests.
	DefaultUserAgent = "wavebot/1.0 (+https://github.com/nao1215/wavebot)"
)

// Config holds all configuration options for wavebot.
// This struct is populated by Load and CLI flags and passed through the
// application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct, as the CLI does, even
// though the configuration file groups keys into sections. The sections
// help people editing YAML; the code only needs the values.
type Config struct {
	// Addr is the HTTP listen address in "host:port" form.
	Addr string

	// Command is the slash command to answer, including the leading "/".
	Command string

	// SlackClientID and SlackClientSecret identify the Slack app for OAuth.
	SlackClientID     string
	SlackClientSecret string

	// SlackStateSecret signs OAuth state values.
	SlackStateSecret string

	// SlackSigningSecret verifies that requests come from Slack.
	// When empty, request signatures are not checked.
	SlackSigningSecret string

	// SlackRedirectURL is sent as the OAuth redirect_uri when set.
	SlackRedirectURL string

	// WaveEndpoint is the WAVE API host.
	WaveEndpoint string

	// DBDir is the directory holding the SQLite credential store.
	// Defaults to XDG data directory (~/.local/share/wavebot on Linux).
	DBDir string

	// StorageSecret encrypts bot tokens and WAVE API keys at rest.
	// When empty, credentials are stored as plaintext.
	StorageSecret string

	// ProxyAddress routes outbound requests through a SOCKS5 proxy
	// ("host:port"). Empty means direct connections.
	ProxyAddress string

	// Workers is the number of slash command jobs that may run at once.
	Workers int

	// JobTimeout bounds a single slash command job.
	JobTimeout time.Duration

	// HTTPTimeout bounds a single outbound HTTP request.
	HTTPTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// UserAgent is the User-Agent header sent with outbound requests.
	UserAgent string

	// DescriptiveLabels makes summary reports use category descriptions
	// ("Errors") instead of keys ("error").
	DescriptiveLabels bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// JSONLogs switches log output from text to JSON.
	JSONLogs bool

	// ConfigFilePath is the configuration file that was loaded, if any.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, worker
// count). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Addr:            DefaultAddr,
		Command:         DefaultCommand,
		WaveEndpoint:    DefaultWaveEndpoint,
		DBDir:           XDGDataDir(),
		Workers:         DefaultWorkers,
		JobTimeout:      DefaultJobTimeout,
		HTTPTimeout:     DefaultHTTPTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		UserAgent:       DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for wavebot.
// On Linux: ~/.local/share/wavebot
// On macOS: ~/Library/Application Support/wavebot
// On Windows: %LOCALAPPDATA%\wavebot
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wavebot.
// On Linux: ~/.config/wavebot
// On macOS: ~/Library/Application Support/wavebot
// On Windows: %APPDATA%\wavebot
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings every command relies on.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidJobTimeout
	}
	if c.HTTPTimeout <= 0 {
		return ErrInvalidHTTPTimeout
	}
	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}
	if !strings.HasPrefix(c.Command, "/") || len(c.Command) < 2 {
		return ErrInvalidCommand
	}

	u, err := url.Parse(c.WaveEndpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidWaveEndpoint
	}

	return nil
}

// ValidateServe checks everything Validate does plus the settings the
// HTTP server needs to talk to Slack.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Addr == "" {
		return ErrInvalidAddr
	}
	if c.SlackClientID == "" {
		return ErrMissingClientID
	}
	if c.SlackClientSecret == "" {
		return ErrMissingClientSecret
	}
	if c.SlackStateSecret == "" {
		return ErrMissingStateSecret
	}
	return nil
}
