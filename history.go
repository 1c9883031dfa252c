package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/driveguard/driveguard/internal/audit"
)

const defaultHistoryLimit = 20

var flagHistoryLimit int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent public-grant revocations from the audit ledger",
		RunE:  runHistory,
	}

	cmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", defaultHistoryLimit, "maximum number of events to show")

	return cmd
}

// historyEvent is the JSON schema for `history --json`.
type historyEvent struct {
	OccurredAt   time.Time `json:"occurred_at"`
	CycleID      string    `json:"cycle_id"`
	FileID       string    `json:"file_id"`
	FileName     string    `json:"file_name"`
	PermissionID string    `json:"permission_id"`
	Role         string    `json:"role,omitempty"`
}

func runHistory(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := context.Background()

	if !resolvedCfg.AuditEnabled {
		return fmt.Errorf("audit ledger is disabled — set audit_enabled = true in the config file")
	}

	store, err := audit.Open(ctx, resolvedCfg.AuditDB, logger)
	if err != nil {
		return fmt.Errorf("opening audit ledger: %w", err)
	}

	defer store.Close()

	events, err := store.RecentEvents(ctx, flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("reading audit ledger: %w", err)
	}

	if flagJSON {
		return printHistoryJSON(events)
	}

	printHistoryText(events)

	return nil
}

func printHistoryJSON(events []audit.Event) error {
	out := make([]historyEvent, 0, len(events))

	for _, e := range events {
		out = append(out, historyEvent{
			OccurredAt:   e.OccurredAt,
			CycleID:      e.CycleID,
			FileID:       e.FileID,
			FileName:     e.FileName,
			PermissionID: e.PermissionID,
			Role:         e.Role,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func printHistoryText(events []audit.Event) {
	if len(events) == 0 {
		fmt.Println("No revocations recorded.")
		return
	}

	for _, e := range events {
		fmt.Printf("%s  revoked %s grant on %q (%s)\n",
			e.OccurredAt.Local().Format(time.DateTime), e.Role, e.FileName, e.FileID)
	}
}
