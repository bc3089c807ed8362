package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/wavebot/internal/config"
	"github.com/nao1215/wavebot/internal/database"
	"github.com/nao1215/wavebot/internal/log"
	"github.com/nao1215/wavebot/internal/secret"
	"github.com/spf13/cobra"
)

// dotEnvFile is loaded into the environment before configuration is read.
const dotEnvFile = ".env"

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger creates the redacting logger used by every command.
// Commands other than serve only log warnings unless --verbose is set.
func newLogger(w io.Writer, cfg *config.Config, level slog.Level) *slog.Logger {
	return log.New(w, log.Options{
		Verbose: cfg.Verbose,
		JSON:    cfg.JSONLogs,
		Level:   level,
	})
}

// addStoreFlags registers the flags shared by commands that open the
// credential store.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: ./.wavebot.yaml or $XDG_CONFIG_HOME/wavebot/config.yaml)")
	cmd.Flags().String("db-dir", "",
		"Directory holding the credential store (default: $XDG_DATA_HOME/wavebot)")
}

// loadConfig builds the configuration for cmd. Precedence, lowest first:
// defaults, configuration file, environment (.env included), flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(dotEnvFile); err != nil {
		return nil, err
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if f := cmd.Flags().Lookup("db-dir"); f != nil && f.Changed {
		cfg.DBDir = f.Value.String()
	}
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// openStore opens the SQLite credential store described by cfg.
// Credentials are sealed when a storage secret is configured.
func openStore(cfg *config.Config) (*database.InstallDB, error) {
	opts := database.DefaultOptions()
	if cfg.StorageSecret != "" {
		box, err := secret.NewBox(cfg.StorageSecret)
		if err != nil {
			return nil, fmt.Errorf("invalid storage secret: %w", err)
		}
		opts.Box = box
	}

	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	return db, nil
}
