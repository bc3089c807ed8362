package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
server:
  addr: "127.0.0.1:8080"
  command: /a11y
  workers: 3
  job_timeout: 45s
  shutdown_timeout: 5s
slack:
  client_id: "111.222"
  client_secret: file-client-secret
  state_secret: file-state-secret
  signing_secret: file-signing-secret
  redirect_url: https://wavebot.example.com/slack/oauth_redirect
wave:
  endpoint: https://wave.example.com
  timeout: 1m
  user_agent: custom-agent
  descriptive_labels: true
storage:
  db_dir: /var/lib/wavebot
  secret: file-storage-secret
proxy: 127.0.0.1:1080
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func noEnv(string) (string, bool) { return "", false }

func mapEnv(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("parses all sections", func(t *testing.T) {
		t.Parallel()

		cf, err := LoadConfigFile(writeConfig(t, sampleConfig))
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}
		if cf.Server.Workers != 3 {
			t.Errorf("Server.Workers = %d, want 3", cf.Server.Workers)
		}
		if cf.Server.JobTimeout != 45*time.Second {
			t.Errorf("Server.JobTimeout = %v, want 45s", cf.Server.JobTimeout)
		}
		if cf.Wave.Timeout != time.Minute {
			t.Errorf("Wave.Timeout = %v, want 1m", cf.Wave.Timeout)
		}
		if cf.Slack.SigningSecret != "file-signing-secret" {
			t.Errorf("Slack.SigningSecret = %q", cf.Slack.SigningSecret)
		}
		if cf.Proxy != "127.0.0.1:1080" {
			t.Errorf("Proxy = %q", cf.Proxy)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadConfigFile() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(writeConfig(t, "server: [unclosed"))
		if err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("invalid duration", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(writeConfig(t, "server:\n  job_timeout: soon\n"))
		if err == nil {
			t.Error("expected duration parse error")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path that exists", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "")
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("explicit path that does not exist", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("file overrides defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := Load(writeConfig(t, sampleConfig), noEnv)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		checks := map[string][2]string{
			"Addr":               {cfg.Addr, "127.0.0.1:8080"},
			"Command":            {cfg.Command, "/a11y"},
			"SlackClientID":      {cfg.SlackClientID, "111.222"},
			"SlackClientSecret":  {cfg.SlackClientSecret, "file-client-secret"},
			"SlackStateSecret":   {cfg.SlackStateSecret, "file-state-secret"},
			"SlackSigningSecret": {cfg.SlackSigningSecret, "file-signing-secret"},
			"SlackRedirectURL":   {cfg.SlackRedirectURL, "https://wavebot.example.com/slack/oauth_redirect"},
			"WaveEndpoint":       {cfg.WaveEndpoint, "https://wave.example.com"},
			"UserAgent":          {cfg.UserAgent, "custom-agent"},
			"DBDir":              {cfg.DBDir, "/var/lib/wavebot"},
			"StorageSecret":      {cfg.StorageSecret, "file-storage-secret"},
			"ProxyAddress":       {cfg.ProxyAddress, "127.0.0.1:1080"},
		}
		for field, c := range checks {
			if c[0] != c[1] {
				t.Errorf("%s = %q, want %q", field, c[0], c[1])
			}
		}
		if cfg.Workers != 3 || cfg.JobTimeout != 45*time.Second || cfg.ShutdownTimeout != 5*time.Second || cfg.HTTPTimeout != time.Minute {
			t.Errorf("unexpected numeric settings: %+v", cfg)
		}
		if !cfg.DescriptiveLabels {
			t.Error("DescriptiveLabels = false, want true")
		}
		if cfg.ConfigFilePath == "" {
			t.Error("ConfigFilePath was not recorded")
		}
	})

	t.Run("partial file keeps other defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := Load(writeConfig(t, "server:\n  workers: 2\n"), noEnv)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Workers != 2 {
			t.Errorf("Workers = %d, want 2", cfg.Workers)
		}
		if cfg.Command != DefaultCommand || cfg.Addr != DefaultAddr || cfg.JobTimeout != DefaultJobTimeout {
			t.Errorf("defaults were lost: %+v", cfg)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Parallel()

		env := mapEnv(map[string]string{
			EnvPort:               "4000",
			EnvSlackClientID:      "env-client-id",
			EnvSlackClientSecret:  "env-client-secret",
			EnvSlackStateSecret:   "env-state-secret",
			EnvSlackSigningSecret: "env-signing-secret",
			EnvSlackRedirectURL:   "https://env.example.com/cb",
			EnvWaveEndpoint:       "https://wave-env.example.com",
			EnvDBDir:              "/tmp/wavebot-env",
			EnvStorageSecret:      "env-storage-secret",
			EnvProxy:              "10.0.0.1:1080",
		})

		cfg, err := Load(writeConfig(t, sampleConfig), env)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		checks := map[string][2]string{
			"Addr":               {cfg.Addr, ":4000"},
			"SlackClientID":      {cfg.SlackClientID, "env-client-id"},
			"SlackClientSecret":  {cfg.SlackClientSecret, "env-client-secret"},
			"SlackStateSecret":   {cfg.SlackStateSecret, "env-state-secret"},
			"SlackSigningSecret": {cfg.SlackSigningSecret, "env-signing-secret"},
			"SlackRedirectURL":   {cfg.SlackRedirectURL, "https://env.example.com/cb"},
			"WaveEndpoint":       {cfg.WaveEndpoint, "https://wave-env.example.com"},
			"DBDir":              {cfg.DBDir, "/tmp/wavebot-env"},
			"StorageSecret":      {cfg.StorageSecret, "env-storage-secret"},
			"ProxyAddress":       {cfg.ProxyAddress, "10.0.0.1:1080"},
		}
		for field, c := range checks {
			if c[0] != c[1] {
				t.Errorf("%s = %q, want %q", field, c[0], c[1])
			}
		}
	})

	t.Run("empty environment values are ignored", func(t *testing.T) {
		t.Parallel()

		cfg, err := Load(writeConfig(t, sampleConfig), mapEnv(map[string]string{EnvSlackClientID: ""}))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.SlackClientID != "111.222" {
			t.Errorf("SlackClientID = %q, want value from file", cfg.SlackClientID)
		}
	})

	t.Run("invalid PORT", func(t *testing.T) {
		t.Parallel()

		_, err := Load(writeConfig(t, ""), mapEnv(map[string]string{EnvPort: "http"}))
		if !errors.Is(err, ErrInvalidEnvValue) {
			t.Errorf("Load() error = %v, want ErrInvalidEnvValue", err)
		}
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		t.Parallel()

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), noEnv)
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Load() error = %v, want ErrConfigNotFound", err)
		}
	})
}

func TestApplyEnvNilLookup(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if err := ApplyEnv(cfg, nil); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want default", cfg.Addr)
	}
}

// TestLoadDotEnv modifies the process environment, so it does not run in parallel.
func TestLoadDotEnv(t *testing.T) {
	const key = "WAVEBOT_TEST_DOTENV_VALUE"

	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Errorf("%s = %q, want from-dotenv", key, got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("LoadDotEnv() with missing file error = %v, want nil", err)
	}
}
