package slackbot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/slack-go/slack"
)

// maxRequestBodySize limits the body read while verifying a request.
// Slash command payloads are a few hundred bytes.
const maxRequestBodySize = 64 * 1024

var (
	// ErrInvalidSignature is returned when a request's signature does not
	// match its body, or the signature headers are missing or stale.
	ErrInvalidSignature = errors.New("invalid slack request signature")

	// ErrRequestTooLarge is returned when a request body exceeds the limit.
	ErrRequestTooLarge = errors.New("slack request body too large")
)

// Verifier checks the X-Slack-Signature header of incoming requests.
// A Verifier without a signing secret accepts every request.
type Verifier struct {
	signingSecret string
}

// NewVerifier creates a Verifier. An empty secret disables verification.
func NewVerifier(signingSecret string) *Verifier {
	return &Verifier{signingSecret: signingSecret}
}

// Enabled reports whether requests are actually verified.
func (v *Verifier) Enabled() bool {
	return v != nil && v.signingSecret != ""
}

// Verify checks the signature of r. The body is read and replaced so that
// later handlers can still parse it.
func (v *Verifier) Verify(r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	_ = r.Body.Close() //nolint:errcheck // body fully read
	if len(body) > maxRequestBodySize {
		return ErrRequestTooLarge
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if !v.Enabled() {
		return nil
	}

	sv, err := slack.NewSecretsVerifier(r.Header, v.signingSecret)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if _, err := sv.Write(body); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if err := sv.Ensure(); err != nil {
		return ErrInvalidSignature
	}

	return nil
}
