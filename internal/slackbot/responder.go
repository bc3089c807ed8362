package slackbot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/slack-go/slack"
)

// Response types understood by Slack.
const (
	// ResponseEphemeral is visible only to the user who ran the command.
	ResponseEphemeral = "ephemeral"

	// ResponseInChannel is visible to everyone in the channel.
	ResponseInChannel = "in_channel"
)

// ErrInvalidResponseURL is returned when a response_url is not a Slack URL.
var ErrInvalidResponseURL = errors.New("response_url is not a slack url")

// Message is a reply to a slash command.
type Message struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// Ephemeral returns a message only the invoking user can see.
func Ephemeral(text string) Message {
	return Message{ResponseType: ResponseEphemeral, Text: text}
}

// InChannel returns a message visible to the whole channel.
func InChannel(text string) Message {
	return Message{ResponseType: ResponseInChannel, Text: text}
}

// Responder posts messages to slash command response URLs.
type Responder struct {
	httpClient   *http.Client
	allowAnyHost bool
}

// ResponderOption configures a Responder.
type ResponderOption func(*Responder)

// WithResponderHTTPClient sets the HTTP client used to post messages.
func WithResponderHTTPClient(client *http.Client) ResponderOption {
	return func(r *Responder) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// WithAnyResponseURL lifts the slack.com host restriction. It exists for
// tests that post to a local server.
func WithAnyResponseURL() ResponderOption {
	return func(r *Responder) {
		r.allowAnyHost = true
	}
}

// NewResponder creates a Responder.
func NewResponder(opts ...ResponderOption) *Responder {
	r := &Responder{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond posts msg to responseURL.
func (r *Responder) Respond(ctx context.Context, responseURL string, msg Message) error {
	if err := r.checkURL(responseURL); err != nil {
		return err
	}

	webhook := &slack.WebhookMessage{
		ResponseType: msg.ResponseType,
		Text:         msg.Text,
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, responseURL, r.httpClient, webhook); err != nil {
		return fmt.Errorf("failed to post slack response: %w", err)
	}
	return nil
}

// checkURL accepts https URLs on slack.com and its subdomains.
func (r *Responder) checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ErrInvalidResponseURL
	}
	if r.allowAnyHost {
		if u.Scheme != "http" && u.Scheme != "https" {
			return ErrInvalidResponseURL
		}
		return nil
	}

	host := strings.ToLower(u.Hostname())
	if u.Scheme != "https" || (host != "slack.com" && !strings.HasSuffix(host, ".slack.com")) {
		return fmt.Errorf("%w: %s", ErrInvalidResponseURL, host)
	}
	return nil
}
