package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults should be intentional, so each one is pinned here.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Addr is :3000", func(t *testing.T) {
		t.Parallel()
		if cfg.Addr != ":3000" {
			t.Errorf("expected Addr to be ':3000', got '%s'", cfg.Addr)
		}
	})

	t.Run("default Command is /wave", func(t *testing.T) {
		t.Parallel()
		if cfg.Command != "/wave" {
			t.Errorf("expected Command to be '/wave', got '%s'", cfg.Command)
		}
	})

	t.Run("default WaveEndpoint is the public API", func(t *testing.T) {
		t.Parallel()
		if cfg.WaveEndpoint != "https://wave.webaim.org" {
			t.Errorf("expected WaveEndpoint to be 'https://wave.webaim.org', got '%s'", cfg.WaveEndpoint)
		}
	})

	t.Run("default Workers is 8", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != 8 {
			t.Errorf("expected Workers to be 8, got %d", cfg.Workers)
		}
	})

	t.Run("default timeouts", func(t *testing.T) {
		t.Parallel()
		if cfg.JobTimeout != 2*time.Minute {
			t.Errorf("expected JobTimeout to be 2m, got %v", cfg.JobTimeout)
		}
		if cfg.HTTPTimeout != 90*time.Second {
			t.Errorf("expected HTTPTimeout to be 90s, got %v", cfg.HTTPTimeout)
		}
		if cfg.ShutdownTimeout != 30*time.Second {
			t.Errorf("expected ShutdownTimeout to be 30s, got %v", cfg.ShutdownTimeout)
		}
	})

	t.Run("default DBDir is the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir to be %q, got %q", XDGDataDir(), cfg.DBDir)
		}
		if filepath.Base(cfg.DBDir) != "wavebot" {
			t.Errorf("expected DBDir to end in wavebot, got %q", cfg.DBDir)
		}
	})

	t.Run("secrets are empty by default", func(t *testing.T) {
		t.Parallel()
		if cfg.SlackClientID != "" || cfg.SlackClientSecret != "" || cfg.SlackSigningSecret != "" || cfg.StorageSecret != "" {
			t.Error("expected no credentials by default")
		}
	})

	t.Run("default UserAgent names wavebot", func(t *testing.T) {
		t.Parallel()
		if !strings.HasPrefix(cfg.UserAgent, "wavebot/") {
			t.Errorf("expected UserAgent to start with 'wavebot/', got '%s'", cfg.UserAgent)
		}
	})
}

// serveConfig returns a Config that passes ValidateServe.
func serveConfig() *Config {
	cfg := NewConfig()
	cfg.SlackClientID = "111.222"
	cfg.SlackClientSecret = "client-secret"
	cfg.SlackStateSecret = "state-secret"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{name: "zero workers", modify: func(c *Config) { c.Workers = 0 }, wantErr: ErrInvalidWorkers},
		{name: "negative job timeout", modify: func(c *Config) { c.JobTimeout = -time.Second }, wantErr: ErrInvalidJobTimeout},
		{name: "zero http timeout", modify: func(c *Config) { c.HTTPTimeout = 0 }, wantErr: ErrInvalidHTTPTimeout},
		{name: "zero shutdown timeout", modify: func(c *Config) { c.ShutdownTimeout = 0 }, wantErr: ErrInvalidShutdownTimeout},
		{name: "command without slash", modify: func(c *Config) { c.Command = "wave" }, wantErr: ErrInvalidCommand},
		{name: "bare slash command", modify: func(c *Config) { c.Command = "/" }, wantErr: ErrInvalidCommand},
		{name: "endpoint without scheme", modify: func(c *Config) { c.WaveEndpoint = "wave.webaim.org" }, wantErr: ErrInvalidWaveEndpoint},
		{name: "endpoint with ftp scheme", modify: func(c *Config) { c.WaveEndpoint = "ftp://wave.webaim.org" }, wantErr: ErrInvalidWaveEndpoint},
		{name: "http endpoint is fine", modify: func(c *Config) { c.WaveEndpoint = "http://localhost:8080" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateServe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "complete", modify: func(*Config) {}},
		{name: "signing secret is optional", modify: func(c *Config) { c.SlackSigningSecret = "" }},
		{name: "missing client id", modify: func(c *Config) { c.SlackClientID = "" }, wantErr: ErrMissingClientID},
		{name: "missing client secret", modify: func(c *Config) { c.SlackClientSecret = "" }, wantErr: ErrMissingClientSecret},
		{name: "missing state secret", modify: func(c *Config) { c.SlackStateSecret = "" }, wantErr: ErrMissingStateSecret},
		{name: "empty addr", modify: func(c *Config) { c.Addr = "" }, wantErr: ErrInvalidAddr},
		{name: "general validation runs first", modify: func(c *Config) { c.Workers = -1; c.SlackClientID = "" }, wantErr: ErrInvalidWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := serveConfig()
			tt.modify(cfg)

			err := cfg.ValidateServe()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateServe() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateServe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if filepath.Base(XDGConfigDir()) != AppName {
		t.Errorf("XDGConfigDir() = %q, want suffix %q", XDGConfigDir(), AppName)
	}
	if filepath.Base(XDGDataDir()) != AppName {
		t.Errorf("XDGDataDir() = %q, want suffix %q", XDGDataDir(), AppName)
	}
}
