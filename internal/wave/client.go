package wave

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/nao1215/wavebot/internal/model"
)

const (
	// DefaultEndpoint is the public WAVE API host.
	DefaultEndpoint = "https://wave.webaim.org"

	// DefaultMaxBodySize limits how much of a response is read.
	// Tier 3 reports of large pages run to a few megabytes.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// requestPath is the scan endpoint below the API host.
	requestPath = "/api/request"
)

// HTTPClient represents the functionality we need from an *http.Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client issues scan requests to the WAVE API. It is safe for concurrent use.
type Client struct {
	endpoint    *url.URL
	httpClient  HTTPClient
	logger      *slog.Logger
	maxBodySize int64
}

// Option configures a Client.
type Option func(*Client) error

// WithEndpoint sets the API host, e.g. "https://wave.webaim.org".
func WithEndpoint(endpoint string) Option {
	return func(c *Client) error {
		u, err := url.Parse(endpoint)
		if err != nil {
			return fmt.Errorf("invalid wave endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid wave endpoint %q: scheme must be http or https", endpoint)
		}
		if u.Host == "" {
			return fmt.Errorf("invalid wave endpoint %q: missing host", endpoint)
		}
		c.endpoint = u
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client HTTPClient) Option {
	return func(c *Client) error {
		if client == nil {
			return errors.New("http client must not be nil")
		}
		c.httpClient = client
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithMaxBodySize limits the response body size. Zero or negative keeps the default.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) error {
		if n > 0 {
			c.maxBodySize = n
		}
		return nil
	}
}

// NewClient creates a Client for the public WAVE API unless options say otherwise.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		httpClient:  http.DefaultClient,
		maxBodySize: DefaultMaxBodySize,
	}
	if err := WithEndpoint(DefaultEndpoint)(c); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// Scan requests a report for target at the given tier.
//
// A successful scan returns a report whose Status is model.StatusOK. When
// WAVE reports an error in the body, Scan returns *APIError and no report.
func (c *Client) Scan(ctx context.Context, apiKey, target string, tier model.Tier) (*model.AccessibilityReport, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if target == "" {
		return nil, ErrMissingURL
	}
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: got %q", model.ErrUnsupportedTier, tier)
	}

	reqURL := c.requestURL(apiKey, target, tier)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create wave request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("requesting wave report",
		"target", target,
		"report_type", tier.String(),
		"endpoint", c.endpoint.Host,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wave request failed: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // draining for connection reuse
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read wave response: %w", err)
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, fmt.Errorf("wave response exceeds %d bytes", c.maxBodySize)
	}

	report, err := model.DecodeReport(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode wave response: %w", err)
	}

	if !report.OK() {
		c.logger.Info("wave api returned an error",
			"target", target,
			"message", report.Message,
		)
		return nil, &APIError{Message: report.Message}
	}

	c.logger.Debug("received wave report",
		"target", target,
		"report_type", tier.String(),
		"categories", categoryCount(report),
	)

	return report, nil
}

// requestURL builds the scan URL with properly encoded query parameters.
func (c *Client) requestURL(apiKey, target string, tier model.Tier) string {
	u := *c.endpoint
	u.Path = strings.TrimSuffix(u.Path, "/") + requestPath

	q := url.Values{}
	q.Set("key", apiKey)
	q.Set("url", target)
	q.Set("reporttype", tier.String())
	u.RawQuery = q.Encode()

	return u.String()
}

// redactURLError strips the request URL, which carries the API key, from
// transport errors.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

// categoryCount returns the number of categories in report.
func categoryCount(report *model.AccessibilityReport) int {
	if report.Categories == nil {
		return 0
	}
	return report.Categories.Len()
}
