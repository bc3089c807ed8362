package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvPort               = "PORT"
	EnvSlackClientID      = "SLACK_CLIENT_ID"
	EnvSlackClientSecret  = "SLACK_CLIENT_SECRET"
	EnvSlackStateSecret   = "SLACK_STATE_SECRET"
	EnvSlackSigningSecret = "SLACK_SIGNING_SECRET"
	EnvSlackRedirectURL   = "SLACK_REDIRECT_URL"
	EnvWaveEndpoint       = "WAVE_API_ENDPOINT"
	EnvDBDir              = "WAVEBOT_DB_DIR"
	EnvStorageSecret      = "WAVEBOT_STORAGE_SECRET"
	EnvProxy              = "WAVEBOT_PROXY"
)

// LookupFunc reads an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables that are already set are not overridden. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides c with any environment variables that are set and
// non-empty. A nil lookup leaves c unchanged.
func ApplyEnv(c *Config, lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	if port, ok := get(EnvPort); ok {
		n, err := strconv.Atoi(port)
		if err != nil || n < 0 || n > 65535 {
			return fmt.Errorf("%w: %s=%q is not a port number", ErrInvalidEnvValue, EnvPort, port)
		}
		c.Addr = ":" + port
	}

	vars := []struct {
		key string
		dst *string
	}{
		{EnvSlackClientID, &c.SlackClientID},
		{EnvSlackClientSecret, &c.SlackClientSecret},
		{EnvSlackStateSecret, &c.SlackStateSecret},
		{EnvSlackSigningSecret, &c.SlackSigningSecret},
		{EnvSlackRedirectURL, &c.SlackRedirectURL},
		{EnvWaveEndpoint, &c.WaveEndpoint},
		{EnvDBDir, &c.DBDir},
		{EnvStorageSecret, &c.StorageSecret},
		{EnvProxy, &c.ProxyAddress},
	}
	for _, s := range vars {
		if v, ok := get(s.key); ok {
			*s.dst = v
		}
	}

	return nil
}
