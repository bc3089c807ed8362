// Package config provides the wavebot configuration: defaults, the YAML
// configuration file, environment variable overrides and validation.
//
// Values are resolved in this order, later sources winning:
// defaults, configuration file, environment (including a .env file),
// then command line flags applied by the caller.
package config
