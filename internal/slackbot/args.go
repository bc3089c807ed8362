package slackbot

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/nao1215/wavebot/internal/model"
	"golang.org/x/net/publicsuffix"
)

// Usage is shown to users who pass arguments the command cannot use.
const Usage = "Usage: /wave <url> [report type 1-4]"

var (
	// ErrMissingURL is returned when the command text has no URL.
	ErrMissingURL = errors.New("missing url")

	// ErrInvalidURL is returned when the URL is not a public http(s) address.
	ErrInvalidURL = errors.New("invalid url")
)

// ParseArgs splits slash command text into the page URL and report tier.
//
// The first field is the URL and the second, if present, the tier. Fields
// after the second are ignored. A missing tier yields model.DefaultTier;
// an unknown one fails with model.ErrUnsupportedTier.
//
// Slack may rewrite links as <https://example.com|example.com>; the angle
// brackets and label are removed. A URL without a scheme gets "https://".
func ParseArgs(text string) (string, model.Tier, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", "", ErrMissingURL
	}

	target, err := normalizeURL(fields[0])
	if err != nil {
		return "", "", err
	}

	var rawTier string
	if len(fields) > 1 {
		rawTier = fields[1]
	}
	tier, err := model.ParseTier(rawTier)
	if err != nil {
		return "", "", err
	}

	return target, tier, nil
}

// normalizeURL unwraps Slack link markup and checks that raw names a
// public web page.
func normalizeURL(raw string) (string, error) {
	raw = unwrapSlackLink(raw)
	if raw == "" {
		return "", ErrMissingURL
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q is not supported", ErrInvalidURL, u.Scheme)
	}
	if u.User != nil {
		return "", fmt.Errorf("%w: credentials are not allowed", ErrInvalidURL)
	}

	if err := checkPublicHost(u.Hostname()); err != nil {
		return "", err
	}

	return u.String(), nil
}

// unwrapSlackLink turns "<url|label>" and "<url>" into "url".
func unwrapSlackLink(s string) string {
	if !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">")
	if i := strings.IndexByte(s, '|'); i >= 0 {
		s = s[:i]
	}
	return s
}

// checkPublicHost rejects hosts that are not registered domain names.
func checkPublicHost(host string) error {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if net.ParseIP(host) != nil {
		return fmt.Errorf("%w: IP addresses are not allowed", ErrInvalidURL)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: localhost is not allowed", ErrInvalidURL)
	}

	suffix, icann := publicsuffix.PublicSuffix(host)
	if !icann && !strings.Contains(suffix, ".") {
		return fmt.Errorf("%w: %q is not a public domain", ErrInvalidURL, host)
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(host); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	return nil
}
