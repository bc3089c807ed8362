package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/nao1215/wavebot/internal/database"
	"github.com/nao1215/wavebot/internal/model"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	keyColor  = color.New(color.FgCyan)
)

// storeCommand is a keys subcommand body with the store already open.
type storeCommand func(ctx context.Context, cmd *cobra.Command, store database.Store, args []string) error

// NewKeysCmd creates the keys command and its subcommands.
func NewKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored installations and WAVE API keys",
		Long: `Keys administers the credential store used by "wavebot serve".

Installations are normally created by the Slack OAuth flow and their WAVE
API key entered on the configuration page. These commands cover the same
ground from a shell: rotating a key, checking which workspaces are set up,
and removing a workspace.

Examples:
  # List every installation
  wavebot keys list

  # Set or rotate the WAVE API key of a workspace
  wavebot keys set T0123ABCD my-wave-key

  # Register a workspace by hand and set its key
  wavebot keys set T0123ABCD my-wave-key --create

  # Show the stored key
  wavebot keys get T0123ABCD --show`,
	}

	cmd.AddCommand(newKeysSetCmd())
	cmd.AddCommand(newKeysGetCmd())
	cmd.AddCommand(newKeysListCmd())
	cmd.AddCommand(newKeysDeleteCmd())

	return cmd
}

func newKeysSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <team-id> <wave-api-key>",
		Short: "Set the WAVE API key of a workspace",
		Args:  cobra.ExactArgs(2),
		RunE:  withStore(runKeysSet),
	}
	addStoreFlags(cmd)
	cmd.Flags().Bool("create", false,
		"Create the installation if the workspace has not installed the app")
	return cmd
}

func newKeysGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <team-id>",
		Short: "Print the WAVE API key of a workspace",
		Args:  cobra.ExactArgs(1),
		RunE:  withStore(runKeysGet),
	}
	addStoreFlags(cmd)
	cmd.Flags().Bool("show", false, "Print the key instead of a masked form")
	return cmd
}

func newKeysListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installations",
		Args:  cobra.NoArgs,
		RunE:  withStore(runKeysList),
	}
	addStoreFlags(cmd)
	return cmd
}

func newKeysDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <team-id>",
		Short: "Delete the installation of a workspace",
		Args:  cobra.ExactArgs(1),
		RunE:  withStore(runKeysDelete),
	}
	addStoreFlags(cmd)
	return cmd
}

// withStore loads the configuration, opens the store and runs fn.
func withStore(fn storeCommand) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		logger := newLogger(cmd.ErrOrStderr(), cfg, slog.LevelWarn)

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeQuietly(store, logger)

		return fn(cmd.Context(), cmd, store, args)
	}
}

func runKeysSet(ctx context.Context, cmd *cobra.Command, store database.Store, args []string) error {
	teamID, apiKey := args[0], args[1]

	create, err := cmd.Flags().GetBool("create")
	if err != nil {
		return err
	}

	err = store.SetWaveAPIKey(ctx, teamID, apiKey)
	if errors.Is(err, database.ErrInstallationNotFound) && create {
		err = store.StoreInstallation(ctx, &model.Installation{
			TeamID:      teamID,
			InstalledAt: time.Now().UTC(),
			WaveAPIKey:  apiKey,
		})
	}
	if errors.Is(err, database.ErrInstallationNotFound) {
		return fmt.Errorf("%w: %s (install the app first, or use --create)", database.ErrInstallationNotFound, teamID)
	}
	if err != nil {
		return fmt.Errorf("failed to set wave api key: %w", err)
	}

	out := cmd.OutOrStdout()
	okColor.Fprint(out, "✓ ")
	fmt.Fprintf(out, "WAVE API key saved for %s\n", keyColor.Sprint(teamID))
	return nil
}

func runKeysGet(ctx context.Context, cmd *cobra.Command, store database.Store, args []string) error {
	teamID := args[0]

	show, err := cmd.Flags().GetBool("show")
	if err != nil {
		return err
	}

	apiKey, ok, err := store.WaveAPIKey(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to read wave api key: %w", err)
	}
	if !ok {
		return fmt.Errorf("no wave api key configured for %s", teamID)
	}

	if !show {
		apiKey = maskKey(apiKey)
	}
	fmt.Fprintln(cmd.OutOrStdout(), apiKey)
	return nil
}

func runKeysList(ctx context.Context, cmd *cobra.Command, store database.Store, _ []string) error {
	list, err := store.ListInstallations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list installations: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No installations.")
		return nil
	}

	return writeInstallations(out, list)
}

func runKeysDelete(ctx context.Context, cmd *cobra.Command, store database.Store, args []string) error {
	teamID := args[0]

	if err := store.DeleteInstallation(ctx, teamID); err != nil {
		return fmt.Errorf("failed to delete installation: %w", err)
	}

	out := cmd.OutOrStdout()
	okColor.Fprint(out, "✓ ")
	fmt.Fprintf(out, "Installation deleted for %s\n", keyColor.Sprint(teamID))
	return nil
}

// writeInstallations prints installations as an aligned table.
func writeInstallations(out io.Writer, list []database.InstallationSummary) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEAM\tNAME\tINSTALLED\tWAVE KEY")
	for _, inst := range list {
		name := inst.TeamName
		if name == "" {
			name = inst.EnterpriseName
		}
		if name == "" {
			name = "-"
		}

		status := warnColor.Sprint("missing")
		if inst.HasWaveAPIKey {
			status = okColor.Sprint("configured")
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			inst.Key, name, inst.InstalledAt.Format(time.DateOnly), status)
	}
	return tw.Flush()
}

// maskKey hides all but the last four characters of key.
func maskKey(key string) string {
	const visible = 4
	if len(key) <= visible {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-visible) + key[len(key)-visible:]
}
