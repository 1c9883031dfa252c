package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/driveguard/driveguard/internal/config"
	"github.com/driveguard/driveguard/internal/gdrive"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE.
// Available to every subcommand after the root pre-run phase completes.
var resolvedCfg *config.Config

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "driveguard",
		Short:   "Google Drive public-sharing monitor",
		Long:    "Watches a Google Drive for files that became publicly shared inside publicly shared folders and revokes their public access.",
		Version: version,
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	// Register subcommands.
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newProbeCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the four-layer
// override chain and stores the result in resolvedCfg. The interval and
// probe flags live on individual subcommands, so they are looked up on the
// running command rather than bound globally.
func loadConfig(cmd *cobra.Command) error {
	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
	}

	if f := cmd.Flags().Lookup("interval"); f != nil && f.Changed {
		v := f.Value.String()
		cli.Interval = &v
	}

	if f := cmd.Flags().Lookup("no-probe"); f != nil && f.Changed {
		probe := f.Value.String() != "true"
		cli.Probe = &probe
	}

	cfg, err := config.Resolve(config.ReadEnvOverrides(), cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = cfg

	return nil
}

// newDriveClient builds an authenticated Drive client from the saved
// credential store. Refreshed tokens are persisted back automatically.
func newDriveClient(ctx context.Context) (*gdrive.Client, error) {
	logger := buildLogger()

	ts, err := gdrive.TokenSourceFromPath(ctx, resolvedCfg.CredentialsFile, resolvedCfg.TokenFile, logger)
	if err != nil {
		if errors.Is(err, gdrive.ErrNotLoggedIn) {
			return nil, fmt.Errorf("not logged in — run 'driveguard login' first")
		}

		return nil, err
	}

	return gdrive.NewClient(ctx, logger, option.WithTokenSource(ts))
}

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(format string, args ...any) {
	if flagQuiet {
		return
	}

	fmt.Fprintf(os.Stderr, format, args...)
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
