package slackbot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/wavebot/internal/model"
	"github.com/slack-go/slack"
)

const (
	// AuthorizeURL is Slack's OAuth v2 consent page.
	AuthorizeURL = "https://slack.com/oauth/v2/authorize"

	// DefaultStateTTL is how long an install link stays valid.
	DefaultStateTTL = 10 * time.Minute

	// DefaultConfigTokenTTL is how long a configuration page link stays valid.
	DefaultConfigTokenTTL = time.Hour

	// configTokenPrefix separates configuration tokens from OAuth states
	// signed with the same secret.
	configTokenPrefix = "config"
)

// DefaultScopes are the bot scopes wavebot requests.
var DefaultScopes = []string{"commands", "chat:write"}

var (
	// ErrInvalidState is returned when an OAuth state was not issued by
	// this installer or has been tampered with.
	ErrInvalidState = errors.New("invalid oauth state")

	// ErrExpiredState is returned when an OAuth state is older than its TTL.
	ErrExpiredState = errors.New("oauth state expired")

	// ErrInvalidConfigToken is returned when a configuration token was not
	// issued for the team, has been tampered with or has expired.
	ErrInvalidConfigToken = errors.New("invalid or expired configuration token")

	// ErrMissingCode is returned when the OAuth redirect carries no code.
	ErrMissingCode = errors.New("missing oauth code")

	// ErrMissingTeam is returned when Slack's OAuth response names neither
	// a team nor an enterprise.
	ErrMissingTeam = errors.New("oauth response has no team or enterprise id")
)

// HTTPClient represents the functionality we need from an *http.Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// InstallerConfig holds the Slack app credentials for the install flow.
type InstallerConfig struct {
	ClientID     string
	ClientSecret string

	// StateSecret signs OAuth state values.
	StateSecret string

	// RedirectURL is sent as redirect_uri when set. It must match one of
	// the app's configured redirect URLs.
	RedirectURL string

	// Scopes defaults to DefaultScopes.
	Scopes []string

	// StateTTL defaults to DefaultStateTTL.
	StateTTL time.Duration

	// ConfigTokenTTL defaults to DefaultConfigTokenTTL.
	ConfigTokenTTL time.Duration
}

// Installer runs the Slack OAuth v2 flow.
type Installer struct {
	cfg        InstallerConfig
	httpClient HTTPClient
	now        func() time.Time
}

// NewInstaller creates an Installer. A nil httpClient means http.DefaultClient.
func NewInstaller(cfg InstallerConfig, httpClient HTTPClient) *Installer {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = DefaultStateTTL
	}
	if cfg.ConfigTokenTTL <= 0 {
		cfg.ConfigTokenTTL = DefaultConfigTokenTTL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Installer{
		cfg:        cfg,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// InstallURL returns the authorize URL users follow to install the app.
func (i *Installer) InstallURL(state string) string {
	q := url.Values{}
	q.Set("client_id", i.cfg.ClientID)
	q.Set("scope", strings.Join(i.cfg.Scopes, ","))
	q.Set("state", state)
	if i.cfg.RedirectURL != "" {
		q.Set("redirect_uri", i.cfg.RedirectURL)
	}
	return AuthorizeURL + "?" + q.Encode()
}

// NewState returns a signed state value of the form
// "<unix seconds>.<nonce>.<signature>".
func (i *Installer) NewState() string {
	payload := strconv.FormatInt(i.now().Unix(), 10) + "." + strings.ReplaceAll(uuid.NewString(), "-", "")
	return payload + "." + i.sign(payload)
}

// VerifyState checks that state was issued by NewState and has not expired.
func (i *Installer) VerifyState(state string) error {
	parts := strings.Split(state, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return ErrInvalidState
	}

	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(i.sign(payload))) {
		return ErrInvalidState
	}

	issued, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ErrInvalidState
	}
	age := i.now().Sub(time.Unix(issued, 0))
	if age > i.cfg.StateTTL {
		return ErrExpiredState
	}
	if age < -time.Minute {
		return ErrInvalidState
	}

	return nil
}

// ConfigToken returns a token that authorizes setting the WAVE API key of
// teamID, of the form "<unix seconds>.<signature>". It is issued once the
// workspace has installed the app and is carried by the configuration form.
func (i *Installer) ConfigToken(teamID string) string {
	issued := strconv.FormatInt(i.now().Unix(), 10)
	return issued + "." + i.sign(configTokenPayload(issued, teamID))
}

// VerifyConfigToken checks that token was issued by ConfigToken for teamID
// and has not expired.
func (i *Installer) VerifyConfigToken(teamID, token string) error {
	issued, signature, ok := strings.Cut(token, ".")
	if !ok || teamID == "" || issued == "" || signature == "" {
		return ErrInvalidConfigToken
	}
	if !hmac.Equal([]byte(signature), []byte(i.sign(configTokenPayload(issued, teamID)))) {
		return ErrInvalidConfigToken
	}

	unix, err := strconv.ParseInt(issued, 10, 64)
	if err != nil {
		return ErrInvalidConfigToken
	}
	age := i.now().Sub(time.Unix(unix, 0))
	if age > i.cfg.ConfigTokenTTL || age < -time.Minute {
		return ErrInvalidConfigToken
	}
	return nil
}

func configTokenPayload(issued, teamID string) string {
	return configTokenPrefix + "." + issued + "." + teamID
}

// sign returns the URL safe HMAC-SHA256 of payload.
func (i *Installer) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(i.cfg.StateSecret))
	mac.Write([]byte(payload)) //nolint:errcheck // hash writes never fail
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Complete exchanges an OAuth code for the workspace's installation.
func (i *Installer) Complete(ctx context.Context, code string) (*model.Installation, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	resp, err := slack.GetOAuthV2ResponseContext(ctx, i.httpClient,
		i.cfg.ClientID, i.cfg.ClientSecret, code, i.cfg.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("oauth.v2.access failed: %w", err)
	}

	inst := &model.Installation{
		TeamID:         resp.Team.ID,
		TeamName:       resp.Team.Name,
		EnterpriseID:   resp.Enterprise.ID,
		EnterpriseName: resp.Enterprise.Name,
		AppID:          resp.AppID,
		BotUserID:      resp.BotUserID,
		BotToken:       resp.AccessToken,
		Scope:          resp.Scope,
		InstallerID:    resp.AuthedUser.ID,
		InstalledAt:    i.now().UTC(),
	}
	if inst.Key() == "" {
		return nil, ErrMissingTeam
	}

	return inst, nil
}
