package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Config.ValidateServe()
// and provide specific information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrMissingClientID is returned when the Slack app client id is not set.
	ErrMissingClientID = errors.New("missing Slack client id: set SLACK_CLIENT_ID or slack.client_id")

	// ErrMissingClientSecret is returned when the Slack app client secret is not set.
	ErrMissingClientSecret = errors.New("missing Slack client secret: set SLACK_CLIENT_SECRET or slack.client_secret")

	// ErrMissingStateSecret is returned when no secret is available to sign
	// OAuth state values.
	ErrMissingStateSecret = errors.New("missing Slack state secret: set SLACK_STATE_SECRET or slack.state_secret")

	// ErrInvalidAddr is returned when the listen address is empty.
	ErrInvalidAddr = errors.New("invalid listen address: must not be empty")

	// ErrInvalidCommand is returned when the slash command does not start with "/".
	ErrInvalidCommand = errors.New("invalid slash command: must start with '/'")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	// Zero workers would reject every slash command as busy.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidJobTimeout is returned when the job timeout is not positive.
	ErrInvalidJobTimeout = errors.New("invalid job timeout: must be positive")

	// ErrInvalidHTTPTimeout is returned when the outbound HTTP timeout is not positive.
	ErrInvalidHTTPTimeout = errors.New("invalid http timeout: must be positive")

	// ErrInvalidShutdownTimeout is returned when the shutdown timeout is not positive.
	ErrInvalidShutdownTimeout = errors.New("invalid shutdown timeout: must be positive")

	// ErrInvalidWaveEndpoint is returned when the WAVE endpoint is not an http(s) URL.
	ErrInvalidWaveEndpoint = errors.New("invalid WAVE endpoint: must be an http or https URL")

	// ErrInvalidEnvValue is returned when an environment variable cannot be parsed.
	ErrInvalidEnvValue = errors.New("invalid environment variable value")
)
