package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/driveguard/driveguard/internal/gdrive"
	"github.com/driveguard/driveguard/internal/watch"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check what permissions the workspace attaches to newly created files",
		Long: "Creates two throwaway files — one inheriting the workspace default visibility, " +
			"one suppressing it — reports the difference, and deletes both.",
		RunE: runProbe,
	}
}

// probeOutput is the JSON schema for `probe --json`.
type probeOutput struct {
	InheritedPermissions []probePermission `json:"inherited_permissions"`
	Public               bool              `json:"public"`
}

type probePermission struct {
	Type   string `json:"type"`
	Role   string `json:"role"`
	Email  string `json:"email,omitempty"`
	Public bool   `json:"public"`
}

func runProbe(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, err := newDriveClient(ctx)
	if err != nil {
		return err
	}

	interval, err := resolvedCfg.IntervalDuration()
	if err != nil {
		return err
	}

	monitor := watch.New(client, nil, interval, logger)

	added, err := monitor.ProbeDefaultVisibility(ctx)
	if err != nil {
		return fmt.Errorf("probing default visibility: %w", err)
	}

	if flagJSON {
		return printProbeJSON(added)
	}

	printProbeText(added)

	return nil
}

func printProbeJSON(added []gdrive.Permission) error {
	out := probeOutput{
		InheritedPermissions: make([]probePermission, 0, len(added)),
		Public:               gdrive.AnyPublic(added),
	}

	for _, p := range added {
		out.InheritedPermissions = append(out.InheritedPermissions, probePermission{
			Type:   p.Type,
			Role:   p.Role,
			Email:  p.Email,
			Public: p.IsPublic(),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func printProbeText(added []gdrive.Permission) {
	if len(added) == 0 {
		fmt.Println("Default visibility: private. New files receive no inherited permissions.")
		return
	}

	fmt.Println("New files inherit the following permissions:")

	for _, p := range added {
		line := fmt.Sprintf("  %s (%s)", p.Type, p.Role)
		if p.Email != "" {
			line += " " + p.Email
		}

		if p.IsPublic() {
			line += "  [PUBLIC]"
		}

		fmt.Println(line)
	}
}
