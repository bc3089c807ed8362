package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/wavebot/internal/config"
	"github.com/nao1215/wavebot/internal/database"
	"github.com/nao1215/wavebot/internal/dispatch"
	"github.com/nao1215/wavebot/internal/httpclient"
	"github.com/nao1215/wavebot/internal/report"
	"github.com/nao1215/wavebot/internal/server"
	"github.com/nao1215/wavebot/internal/slackbot"
	"github.com/nao1215/wavebot/internal/wave"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Slack app HTTP server",
		Long: `Serve runs the HTTP server Slack talks to.

Endpoints:
  GET  /slack/install         start the OAuth install
  GET  /slack/oauth_redirect  OAuth redirect URL to register with Slack
  GET  /config                WAVE API key form
  POST /slack/events          slash command request URL
  GET  /healthz               liveness probe

Slack credentials are read from the configuration file or the environment:
  SLACK_CLIENT_ID, SLACK_CLIENT_SECRET, SLACK_STATE_SECRET,
  SLACK_SIGNING_SECRET, SLACK_REDIRECT_URL
A .env file in the current directory is loaded first.

Examples:
  # Listen on the default address (:3000, or $PORT)
  wavebot serve

  # Listen on another address with more concurrent scans
  wavebot serve --addr :8080 --workers 16

  # JSON logs for a log collector
  wavebot serve --json-logs`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addStoreFlags(cmd)
	cmd.Flags().StringP("addr", "a", config.DefaultAddr,
		"HTTP listen address")
	cmd.Flags().String("command", config.DefaultCommand,
		"Slash command to answer")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of scans that may run at once")
	cmd.Flags().Duration("job-timeout", config.DefaultJobTimeout,
		"Timeout for a single slash command job")
	cmd.Flags().Bool("json-logs", false,
		"Write logs as JSON")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(os.Stderr, cfg, slog.LevelInfo)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, cfg, logger)
}

// buildServeConfig loads the configuration and applies serve's flags on top.
// Flags only override when they were given explicitly.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		if cfg.Addr, err = flags.GetString("addr"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("command") {
		if cfg.Command, err = flags.GetString("command"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("job-timeout") {
		if cfg.JobTimeout, err = flags.GetDuration("job-timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("json-logs") {
		if cfg.JSONLogs, err = flags.GetBool("json-logs"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// runServe wires every component and blocks until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting wavebot",
		"version", getVersion(),
		"addr", cfg.Addr,
		"command", cfg.Command,
		"workers", cfg.Workers,
		"config", cfg.ConfigFilePath,
		"db_dir", cfg.DBDir,
		"encrypted_store", cfg.StorageSecret != "",
		"proxy", cfg.ProxyAddress != "",
	)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(store, logger)

	srv, err := newServer(cfg, store, logger)
	if err != nil {
		return err
	}

	return srv.Run(ctx, cfg.Addr)
}

// newServer builds the server and its collaborators from cfg.
// One HTTP client is shared by the WAVE client, the responder and the
// OAuth installer so the proxy and timeout settings apply to all of them.
func newServer(cfg *config.Config, store database.Store, logger *slog.Logger) (*server.Server, error) {
	httpClient, err := httpclient.New(httpclient.Options{
		Timeout:      cfg.HTTPTimeout,
		ProxyAddress: cfg.ProxyAddress,
		UserAgent:    cfg.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	scanner, err := wave.NewClient(
		wave.WithEndpoint(cfg.WaveEndpoint),
		wave.WithHTTPClient(httpClient),
		wave.WithLogger(logger.With("component", "wave")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create wave client: %w", err)
	}

	installer := slackbot.NewInstaller(slackbot.InstallerConfig{
		ClientID:     cfg.SlackClientID,
		ClientSecret: cfg.SlackClientSecret,
		StateSecret:  cfg.SlackStateSecret,
		RedirectURL:  cfg.SlackRedirectURL,
	}, httpClient)

	dispatcher := dispatch.New(
		dispatch.WithWorkers(cfg.Workers),
		dispatch.WithJobTimeout(cfg.JobTimeout),
		dispatch.WithLogger(logger.With("component", "dispatch")),
	)

	return server.New(server.Deps{
		Store:      store,
		Scanner:    scanner,
		Formatter:  report.NewFormatter(report.WithDescriptiveLabels(cfg.DescriptiveLabels)),
		Responder:  slackbot.NewResponder(slackbot.WithResponderHTTPClient(httpClient)),
		Installer:  installer,
		Dispatcher: dispatcher,
	},
		server.WithCommand(cfg.Command),
		server.WithVerifier(slackbot.NewVerifier(cfg.SlackSigningSecret)),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
		server.WithLogger(logger.With("component", "server")),
	)
}

// closeQuietly closes c and logs a failure.
func closeQuietly(c io.Closer, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn("failed to close", "error", err)
	}
}
