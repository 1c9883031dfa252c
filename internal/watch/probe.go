package watch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/driveguard/driveguard/internal/gdrive"
)

// probeNamePrefix marks throwaway probe files so a failed cleanup is at
// least recognizable in the Drive UI.
const probeNamePrefix = "driveguard-probe-"

// ProbeDefaultVisibility reports the permissions a workspace attaches to
// newly created files purely through default-visibility inheritance.
//
// It creates two throwaway files — one inheriting default visibility, one
// with inheritance suppressed — and returns the inherited file's
// permissions minus every permission ID present on the suppressed file.
// The suppressed file carries only creation-time grants (owner), so the
// difference is what inheritance added. Both files are deleted best-effort
// before returning.
func (m *Monitor) ProbeDefaultVisibility(ctx context.Context) ([]gdrive.Permission, error) {
	m.logger.Info("probing workspace default visibility with two throwaway files")

	runID := uuid.NewString()

	inherited, err := m.svc.CreateProbeFile(ctx, probeNamePrefix+runID+"-inherited", false)
	if err != nil {
		return nil, fmt.Errorf("creating inherited-visibility probe file: %w", err)
	}

	defer m.deleteProbeFile(ctx, inherited.ID)

	suppressed, err := m.svc.CreateProbeFile(ctx, probeNamePrefix+runID+"-suppressed", true)
	if err != nil {
		return nil, fmt.Errorf("creating suppressed-visibility probe file: %w", err)
	}

	defer m.deleteProbeFile(ctx, suppressed.ID)

	// Exclude every permission the suppressed file carries, not just its
	// first entry: the provider guarantees neither ordering nor count, so
	// matching a single popped ID could mis-pair the lists.
	baseline := make(map[string]bool, len(suppressed.Permissions))
	for _, p := range suppressed.Permissions {
		baseline[p.ID] = true
	}

	var added []gdrive.Permission

	for _, p := range inherited.Permissions {
		if !baseline[p.ID] {
			added = append(added, p)
		}
	}

	m.logger.Info("default visibility probe complete",
		slog.Int("inherited_permissions", len(added)),
	)

	return added, nil
}

// deleteProbeFile removes a throwaway file. Best-effort: a leftover probe
// file is cosmetic, not worth failing the probe over.
func (m *Monitor) deleteProbeFile(ctx context.Context, fileID string) {
	if err := m.svc.DeleteFile(ctx, fileID); err != nil {
		m.logger.Warn("deleting probe file failed",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
	}
}
