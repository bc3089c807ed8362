package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wavebot/internal/model"
	"github.com/nao1215/wavebot/internal/secret"
)

// FileName is the database file created inside the database directory.
const FileName = "wavebot.db"

// InstallDB is the SQLite implementation of Store.
type InstallDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// box seals credentials. Nil stores them as plaintext.
	box *secret.Box
}

// Options configures InstallDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool

	// Box encrypts bot tokens and WAVE API keys. Nil disables encryption.
	Box *secret.Box
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an InstallDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*InstallDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	idb := &InstallDB{
		db:     db,
		dbPath: dbPath,
		box:    opts.Box,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := idb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return idb, nil
}

// Path returns the database file path.
func (idb *InstallDB) Path() string {
	return idb.dbPath
}

// Close closes the database connection.
func (idb *InstallDB) Close() error {
	return idb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (idb *InstallDB) createTables() error {
	schema := `
	-- One row per Slack workspace (or enterprise org) that installed the app
	CREATE TABLE IF NOT EXISTS installations (
		team_key TEXT PRIMARY KEY,
		team_id TEXT NOT NULL DEFAULT '',
		team_name TEXT NOT NULL DEFAULT '',
		enterprise_id TEXT NOT NULL DEFAULT '',
		enterprise_name TEXT NOT NULL DEFAULT '',
		app_id TEXT NOT NULL DEFAULT '',
		bot_user_id TEXT NOT NULL DEFAULT '',
		bot_token TEXT NOT NULL DEFAULT '',
		scope TEXT NOT NULL DEFAULT '',
		installer_id TEXT NOT NULL DEFAULT '',
		installed_at TEXT NOT NULL,
		wave_api_key TEXT NOT NULL DEFAULT '',
		raw_json TEXT NOT NULL DEFAULT '{}',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_installations_enterprise ON installations(enterprise_id);
	`

	_, err := idb.db.ExecContext(context.Background(), schema)
	return err
}

// StoreInstallation inserts or updates an installation.
// Uses UPSERT so reinstalling refreshes the bot token without losing the
// configured WAVE API key.
func (idb *InstallDB) StoreInstallation(ctx context.Context, inst *model.Installation) error {
	key := inst.Key()
	if key == "" {
		return ErrNoInstallationKey
	}

	botToken, err := idb.seal(inst.BotToken, key, "bot_token")
	if err != nil {
		return err
	}

	// Credentials are kept out of the raw copy.
	raw := *inst
	raw.BotToken = ""
	raw.WaveAPIKey = ""
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to serialize installation: %w", err)
	}

	installedAt := inst.InstalledAt
	if installedAt.IsZero() {
		installedAt = time.Now()
	}

	query := `
	INSERT INTO installations (
		team_key, team_id, team_name, enterprise_id, enterprise_name, app_id,
		bot_user_id, bot_token, scope, installer_id, installed_at, raw_json
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(team_key) DO UPDATE SET
		team_id = excluded.team_id,
		team_name = excluded.team_name,
		enterprise_id = excluded.enterprise_id,
		enterprise_name = excluded.enterprise_name,
		app_id = excluded.app_id,
		bot_user_id = excluded.bot_user_id,
		bot_token = excluded.bot_token,
		scope = excluded.scope,
		installer_id = excluded.installer_id,
		installed_at = excluded.installed_at,
		raw_json = excluded.raw_json,
		updated_at = CURRENT_TIMESTAMP
	`

	_, err = idb.db.ExecContext(ctx, query,
		key,
		inst.TeamID,
		inst.TeamName,
		inst.EnterpriseID,
		inst.EnterpriseName,
		inst.AppID,
		inst.BotUserID,
		botToken,
		inst.Scope,
		inst.InstallerID,
		installedAt.UTC().Format(time.RFC3339Nano),
		string(rawJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store installation: %w", err)
	}

	// A WAVE key on the installation itself is stored too, e.g. when
	// importing an installation that was configured elsewhere.
	if inst.WaveAPIKey != "" {
		return idb.SetWaveAPIKey(ctx, key, inst.WaveAPIKey)
	}

	return nil
}

// FetchInstallation retrieves the installation for teamID.
func (idb *InstallDB) FetchInstallation(ctx context.Context, teamID string) (*model.Installation, error) {
	query := `
	SELECT team_id, team_name, enterprise_id, enterprise_name, app_id,
		bot_user_id, bot_token, scope, installer_id, installed_at, wave_api_key
	FROM installations
	WHERE team_key = ?
	`

	var (
		inst        model.Installation
		installedAt string
	)
	err := idb.db.QueryRowContext(ctx, query, teamID).Scan(
		&inst.TeamID,
		&inst.TeamName,
		&inst.EnterpriseID,
		&inst.EnterpriseName,
		&inst.AppID,
		&inst.BotUserID,
		&inst.BotToken,
		&inst.Scope,
		&inst.InstallerID,
		&installedAt,
		&inst.WaveAPIKey,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrInstallationNotFound, teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch installation: %w", err)
	}

	inst.InstalledAt = parseTimestamp(installedAt)

	if inst.BotToken, err = idb.open(inst.BotToken, teamID, "bot_token"); err != nil {
		return nil, err
	}
	if inst.WaveAPIKey, err = idb.open(inst.WaveAPIKey, teamID, "wave_api_key"); err != nil {
		return nil, err
	}

	return &inst, nil
}

// SetWaveAPIKey updates the WAVE API key of an existing installation.
func (idb *InstallDB) SetWaveAPIKey(ctx context.Context, teamID, apiKey string) error {
	if apiKey == "" {
		return ErrEmptyWaveAPIKey
	}

	sealed, err := idb.seal(apiKey, teamID, "wave_api_key")
	if err != nil {
		return err
	}

	result, err := idb.db.ExecContext(ctx,
		`UPDATE installations SET wave_api_key = ?, updated_at = CURRENT_TIMESTAMP WHERE team_key = ?`,
		sealed, teamID)
	if err != nil {
		return fmt.Errorf("failed to store wave api key: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to store wave api key: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrInstallationNotFound, teamID)
	}

	return nil
}

// WaveAPIKey returns the WAVE API key for teamID.
func (idb *InstallDB) WaveAPIKey(ctx context.Context, teamID string) (string, bool, error) {
	var stored string
	err := idb.db.QueryRowContext(ctx,
		`SELECT wave_api_key FROM installations WHERE team_key = ?`, teamID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch wave api key: %w", err)
	}

	apiKey, err := idb.open(stored, teamID, "wave_api_key")
	if err != nil {
		return "", false, err
	}

	return apiKey, apiKey != "", nil
}

// ListInstallations returns a summary of every installation.
func (idb *InstallDB) ListInstallations(ctx context.Context) ([]InstallationSummary, error) {
	query := `
	SELECT team_key, team_name, enterprise_name, installed_at, wave_api_key != ''
	FROM installations
	ORDER BY team_key
	`

	rows, err := idb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list installations: %w", err)
	}
	defer rows.Close()

	var summaries []InstallationSummary
	for rows.Next() {
		var (
			s           InstallationSummary
			installedAt string
		)
		if err := rows.Scan(&s.Key, &s.TeamName, &s.EnterpriseName, &installedAt, &s.HasWaveAPIKey); err != nil {
			return nil, fmt.Errorf("failed to scan installation: %w", err)
		}
		s.InstalledAt = parseTimestamp(installedAt)
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// DeleteInstallation removes the installation for teamID.
func (idb *InstallDB) DeleteInstallation(ctx context.Context, teamID string) error {
	result, err := idb.db.ExecContext(ctx, `DELETE FROM installations WHERE team_key = ?`, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete installation: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete installation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrInstallationNotFound, teamID)
	}

	return nil
}

// seal encrypts a credential for storage in column of row key.
func (idb *InstallDB) seal(value, key, column string) (string, error) {
	return sealValue(idb.box, value, key, column)
}

// open reverses seal.
func (idb *InstallDB) open(value, key, column string) (string, error) {
	return openValue(idb.box, value, key, column)
}

// sealValue encrypts value when box is set. The associated data binds the
// ciphertext to its row and column.
func sealValue(box *secret.Box, value, key, column string) (string, error) {
	if box == nil {
		return value, nil
	}
	sealed, err := box.Seal(value, key+"/"+column)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt %s: %w", column, err)
	}
	return sealed, nil
}

// openValue decrypts value when it is sealed. Plaintext values pass through.
func openValue(box *secret.Box, value, key, column string) (string, error) {
	if !secret.IsSealed(value) {
		return value, nil
	}
	if box == nil {
		return "", ErrSecretRequired
	}
	plain, err := box.Open(value, key+"/"+column)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt %s: %w", column, err)
	}
	return plain, nil
}

// timestampFormats lists the formats SQLite and this package write.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

var _ Store = (*InstallDB)(nil)
