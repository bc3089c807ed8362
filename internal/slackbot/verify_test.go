package slackbot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

const testSigningSecret = "8f742231b10e8888abcd99yyyzzz85a5"

// signedRequest builds a slash command request signed the way Slack signs it.
func signedRequest(t *testing.T, secret, body string, ts time.Time) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	stamp := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + stamp + ":" + body))
	req.Header.Set("X-Slack-Request-Timestamp", stamp)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))

	return req
}

func TestVerifier(t *testing.T) {
	t.Parallel()

	const body = "team_id=T1&command=%2Fwave&text=https%3A%2F%2Fexample.com"

	t.Run("valid signature keeps body readable", func(t *testing.T) {
		t.Parallel()

		v := NewVerifier(testSigningSecret)
		req := signedRequest(t, testSigningSecret, body, time.Now())

		if err := v.Verify(req); err != nil {
			t.Fatalf("Verify() error = %v", err)
		}

		cmd, err := ParseCommand(req)
		if err != nil {
			t.Fatalf("ParseCommand() error = %v", err)
		}
		if cmd.TeamID != "T1" || cmd.Text != "https://example.com" {
			t.Errorf("unexpected command after verify: %+v", cmd)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		v := NewVerifier(testSigningSecret)
		req := signedRequest(t, "another-secret", body, time.Now())

		if err := v.Verify(req); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("Verify() error = %v, want ErrInvalidSignature", err)
		}
	})

	t.Run("tampered body", func(t *testing.T) {
		t.Parallel()

		v := NewVerifier(testSigningSecret)
		req := signedRequest(t, testSigningSecret, body, time.Now())
		req.Body = io.NopCloser(strings.NewReader(body + "&user_id=U2"))

		if err := v.Verify(req); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("Verify() error = %v, want ErrInvalidSignature", err)
		}
	})

	t.Run("stale timestamp", func(t *testing.T) {
		t.Parallel()

		v := NewVerifier(testSigningSecret)
		req := signedRequest(t, testSigningSecret, body, time.Now().Add(-10*time.Minute))

		if err := v.Verify(req); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("Verify() error = %v, want ErrInvalidSignature", err)
		}
	})

	t.Run("missing headers", func(t *testing.T) {
		t.Parallel()

		v := NewVerifier(testSigningSecret)
		req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))

		if err := v.Verify(req); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("Verify() error = %v, want ErrInvalidSignature", err)
		}
	})

	t.Run("disabled verifier accepts unsigned requests", func(t *testing.T) {
		t.Parallel()

		v := NewVerifier("")
		if v.Enabled() {
			t.Fatal("Enabled() = true for empty secret")
		}

		req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if err := v.Verify(req); err != nil {
			t.Fatalf("Verify() error = %v", err)
		}

		cmd, err := ParseCommand(req)
		if err != nil {
			t.Fatalf("ParseCommand() error = %v", err)
		}
		if cmd.Command != "/wave" {
			t.Errorf("Command = %q, want /wave", cmd.Command)
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		t.Parallel()

		v := NewVerifier("")
		req := httptest.NewRequest(http.MethodPost, "/slack/events",
			strings.NewReader(strings.Repeat("a", maxRequestBodySize+1)))

		if err := v.Verify(req); !errors.Is(err, ErrRequestTooLarge) {
			t.Errorf("Verify() error = %v, want ErrRequestTooLarge", err)
		}
	})
}
