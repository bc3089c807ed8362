package config

import "time"

// File represents the structure of the wavebot configuration file.
// Zero values mean "not set" and leave the current value alone.
type File struct {
	Server  ServerSection  `yaml:"server,omitempty"`
	Slack   SlackSection   `yaml:"slack,omitempty"`
	Wave    WaveSection    `yaml:"wave,omitempty"`
	Storage StorageSection `yaml:"storage,omitempty"`

	// Proxy is a SOCKS5 proxy address for outbound requests.
	Proxy string `yaml:"proxy,omitempty"`
}

// ServerSection configures the HTTP server and job dispatcher.
type ServerSection struct {
	Addr            string        `yaml:"addr,omitempty"`
	Command         string        `yaml:"command,omitempty"`
	Workers         int           `yaml:"workers,omitempty"`
	JobTimeout      time.Duration `yaml:"job_timeout,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// SlackSection holds the Slack app credentials.
type SlackSection struct {
	ClientID      string `yaml:"client_id,omitempty"`
	ClientSecret  string `yaml:"client_secret,omitempty"`
	StateSecret   string `yaml:"state_secret,omitempty"`
	SigningSecret string `yaml:"signing_secret,omitempty"`
	RedirectURL   string `yaml:"redirect_url,omitempty"`
}

// WaveSection configures calls to the WAVE API and report formatting.
type WaveSection struct {
	Endpoint          string        `yaml:"endpoint,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
	UserAgent         string        `yaml:"user_agent,omitempty"`
	DescriptiveLabels bool          `yaml:"descriptive_labels,omitempty"`
}

// StorageSection configures the credential store.
type StorageSection struct {
	DBDir  string `yaml:"db_dir,omitempty"`
	Secret string `yaml:"secret,omitempty"`
}

// Apply copies every value set in the file onto c.
func (f *File) Apply(c *Config) {
	setString(&c.Addr, f.Server.Addr)
	setString(&c.Command, f.Server.Command)
	if f.Server.Workers != 0 {
		c.Workers = f.Server.Workers
	}
	setDuration(&c.JobTimeout, f.Server.JobTimeout)
	setDuration(&c.ShutdownTimeout, f.Server.ShutdownTimeout)

	setString(&c.SlackClientID, f.Slack.ClientID)
	setString(&c.SlackClientSecret, f.Slack.ClientSecret)
	setString(&c.SlackStateSecret, f.Slack.StateSecret)
	setString(&c.SlackSigningSecret, f.Slack.SigningSecret)
	setString(&c.SlackRedirectURL, f.Slack.RedirectURL)

	setString(&c.WaveEndpoint, f.Wave.Endpoint)
	setDuration(&c.HTTPTimeout, f.Wave.Timeout)
	setString(&c.UserAgent, f.Wave.UserAgent)
	if f.Wave.DescriptiveLabels {
		c.DescriptiveLabels = true
	}

	setString(&c.DBDir, f.Storage.DBDir)
	setString(&c.StorageSecret, f.Storage.Secret)

	setString(&c.ProxyAddress, f.Proxy)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
