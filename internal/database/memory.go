package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nao1215/wavebot/internal/model"
)

// MemoryStore is an in-memory Store. Data is lost when the process exits.
// It is safe for concurrent use.
type MemoryStore struct {
	mu            sync.RWMutex
	installations map[string]model.Installation
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{installations: make(map[string]model.Installation)}
}

// StoreInstallation creates or replaces an installation, keeping any
// WAVE API key already stored for the team.
func (m *MemoryStore) StoreInstallation(_ context.Context, inst *model.Installation) error {
	key := inst.Key()
	if key == "" {
		return ErrNoInstallationKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *inst
	if stored.InstalledAt.IsZero() {
		stored.InstalledAt = time.Now().UTC()
	}
	if stored.WaveAPIKey == "" {
		stored.WaveAPIKey = m.installations[key].WaveAPIKey
	}
	m.installations[key] = stored

	return nil
}

// FetchInstallation returns a copy of the installation for teamID.
func (m *MemoryStore) FetchInstallation(_ context.Context, teamID string) (*model.Installation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, ok := m.installations[teamID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInstallationNotFound, teamID)
	}
	return &inst, nil
}

// SetWaveAPIKey updates the WAVE API key of an existing installation.
func (m *MemoryStore) SetWaveAPIKey(_ context.Context, teamID, apiKey string) error {
	if apiKey == "" {
		return ErrEmptyWaveAPIKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.installations[teamID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInstallationNotFound, teamID)
	}
	inst.WaveAPIKey = apiKey
	m.installations[teamID] = inst

	return nil
}

// WaveAPIKey returns the WAVE API key for teamID.
func (m *MemoryStore) WaveAPIKey(_ context.Context, teamID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := m.installations[teamID].WaveAPIKey
	return key, key != "", nil
}

// ListInstallations returns a summary of every installation, ordered by key.
func (m *MemoryStore) ListInstallations(_ context.Context) ([]InstallationSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]InstallationSummary, 0, len(m.installations))
	for key, inst := range m.installations {
		summaries = append(summaries, InstallationSummary{
			Key:            key,
			TeamName:       inst.TeamName,
			EnterpriseName: inst.EnterpriseName,
			InstalledAt:    inst.InstalledAt,
			HasWaveAPIKey:  inst.WaveAPIKey != "",
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Key < summaries[j].Key
	})

	return summaries, nil
}

// DeleteInstallation removes the installation for teamID.
func (m *MemoryStore) DeleteInstallation(_ context.Context, teamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.installations[teamID]; !ok {
		return fmt.Errorf("%w: %s", ErrInstallationNotFound, teamID)
	}
	delete(m.installations, teamID)

	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
