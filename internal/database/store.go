package database

import (
	"context"
	"errors"
	"time"

	"github.com/nao1215/wavebot/internal/model"
)

var (
	// ErrInstallationNotFound is returned when no installation exists for a team.
	ErrInstallationNotFound = errors.New("installation not found")

	// ErrNoInstallationKey is returned when an installation has neither a
	// team id nor an enterprise id.
	ErrNoInstallationKey = errors.New("installation has no team or enterprise id")

	// ErrEmptyWaveAPIKey is returned when SetWaveAPIKey is given an empty key.
	ErrEmptyWaveAPIKey = errors.New("wave api key must not be empty")

	// ErrSecretRequired is returned when a sealed value is read without a
	// storage secret configured.
	ErrSecretRequired = errors.New("stored credentials are encrypted: storage secret required")
)

// Store persists installations keyed by team id (or enterprise id for
// org-wide installs).
type Store interface {
	// StoreInstallation creates or replaces the installation under inst.Key().
	// A WAVE API key already stored for the team is kept.
	StoreInstallation(ctx context.Context, inst *model.Installation) error

	// FetchInstallation returns the installation for teamID.
	FetchInstallation(ctx context.Context, teamID string) (*model.Installation, error)

	// SetWaveAPIKey updates only the WAVE API key of an existing installation.
	SetWaveAPIKey(ctx context.Context, teamID, apiKey string) error

	// WaveAPIKey returns the WAVE API key for teamID. ok is false when the
	// team has not installed the app or has not configured a key.
	WaveAPIKey(ctx context.Context, teamID string) (apiKey string, ok bool, err error)

	// ListInstallations returns a summary of every installation, ordered by key.
	ListInstallations(ctx context.Context) ([]InstallationSummary, error)

	// DeleteInstallation removes the installation for teamID.
	DeleteInstallation(ctx context.Context, teamID string) error

	// Close releases resources held by the store.
	Close() error
}

// InstallationSummary describes an installation without its credentials.
type InstallationSummary struct {
	Key            string
	TeamName       string
	EnterpriseName string
	InstalledAt    time.Time
	HasWaveAPIKey  bool
}
