package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/driveguard/driveguard/internal/audit"
	"github.com/driveguard/driveguard/internal/config"
	"github.com/driveguard/driveguard/internal/watch"
)

// Watch-only flags, consulted by loadConfig via the running command.
var (
	flagInterval string
	flagNoProbe  bool
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Monitor the drive and revoke public sharing until interrupted",
		RunE:  runWatch,
	}

	cmd.Flags().StringVar(&flagInterval, "interval", "", "poll interval (e.g. 60s)")
	cmd.Flags().BoolVar(&flagNoProbe, "no-probe", false, "skip the default-visibility probe at startup")

	return cmd
}

func runWatch(_ *cobra.Command, _ []string) error {
	logger := buildLogger()

	// One watcher per machine; concurrent loops would race each other's
	// revocations.
	cleanup, err := writePIDFile(config.PIDFilePath())
	if err != nil {
		return err
	}

	defer cleanup()

	ctx := shutdownContext(context.Background(), logger)

	client, err := newDriveClient(ctx)
	if err != nil {
		return err
	}

	interval, err := resolvedCfg.IntervalDuration()
	if err != nil {
		return err
	}

	var rec watch.Recorder

	if resolvedCfg.AuditEnabled {
		store, err := audit.Open(ctx, resolvedCfg.AuditDB, logger)
		if err != nil {
			return fmt.Errorf("opening audit ledger: %w", err)
		}

		defer store.Close()

		rec = store
	}

	monitor := watch.New(client, rec, interval, logger)

	if resolvedCfg.ProbeOnStart {
		runStartupProbe(ctx, monitor, logger)
	}

	err = monitor.Run(ctx)
	if errors.Is(err, context.Canceled) {
		// Normal shutdown via signal.
		return nil
	}

	return err
}

// runStartupProbe checks the workspace default visibility once before the
// loop starts. Probe failure is not fatal: the monitor is still useful
// without the answer.
func runStartupProbe(ctx context.Context, monitor *watch.Monitor, logger *slog.Logger) {
	added, err := monitor.ProbeDefaultVisibility(ctx)
	if err != nil {
		logger.Warn("default visibility probe failed", slog.String("error", err.Error()))
		return
	}

	if len(added) == 0 {
		logger.Info("default visibility: new files are private")
		return
	}

	for _, p := range added {
		logger.Warn("default visibility grants access to new files",
			slog.String("type", p.Type),
			slog.String("role", p.Role),
			slog.String("email", p.Email),
			slog.Bool("public", p.IsPublic()),
		)
	}
}
