// Package watch implements the steady-state sharing monitor: poll the
// provider for recently modified files, find files that are publicly shared
// inside publicly shared folders, and revoke their public grants. A public
// file in a private folder is treated as intentional and left alone.
package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/driveguard/driveguard/internal/audit"
	"github.com/driveguard/driveguard/internal/gdrive"
)

// DriveService is the slice of the provider API the monitor consumes.
// Defined at the consumer per Go convention "accept interfaces, return
// structs"; gdrive.Client is the production implementation.
type DriveService interface {
	ListChangedFiles(ctx context.Context, since time.Time) ([]gdrive.FileRef, error)
	Permissions(ctx context.Context, fileID string) ([]gdrive.Permission, error)
	DeletePermission(ctx context.Context, fileID, permissionID string) error
	ParentID(ctx context.Context, fileID string) (string, error)
	CreateProbeFile(ctx context.Context, name string, ignoreDefaultVisibility bool) (*gdrive.ProbeFile, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// Recorder appends revocation events to the audit ledger.
// audit.Store implements it; a nil Recorder disables auditing.
type Recorder interface {
	RecordRevocation(ctx context.Context, e audit.Event) error
}

// CycleReport summarizes one poll cycle. SkippedLookups counts permission
// lookups that failed and were treated as "private" — nonzero values during
// a provider outage mean remediation is silently paused, which operators
// may want to alert on.
type CycleReport struct {
	CycleID         string
	FilesSeen       int
	GrantsRevoked   int
	FilesRemediated int
	LeftPublic      int
	SkippedLookups  int
}

// Monitor drives the poll loop. Strictly sequential: one provider call at a
// time, no retries — every failure is logged and revisited next cycle.
type Monitor struct {
	svc      DriveService
	rec      Recorder // nil when auditing is disabled
	logger   *slog.Logger
	interval time.Duration

	// Overridable in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Monitor polling at the given interval. rec may be nil.
func New(svc DriveService, rec Recorder, interval time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		svc:      svc,
		rec:      rec,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Run polls until ctx is canceled. There is no terminal state: provider
// errors never stop the loop, and no backoff is applied — the fixed cadence
// is the retry policy.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("starting monitor",
		slog.Duration("interval", m.interval),
	)

	for {
		report := m.RunCycle(ctx)
		m.logger.Info("cycle complete",
			slog.String("cycle_id", report.CycleID),
			slog.Int("files_seen", report.FilesSeen),
			slog.Int("files_remediated", report.FilesRemediated),
			slog.Int("grants_revoked", report.GrantsRevoked),
			slog.Int("left_public", report.LeftPublic),
			slog.Int("skipped_lookups", report.SkippedLookups),
		)

		if err := m.sleep(ctx, m.interval); err != nil {
			m.logger.Info("monitor stopping", slog.String("reason", err.Error()))
			return err
		}
	}
}

// RunCycle executes a single poll cycle: list files modified within the
// poll window and remediate each in listing order.
func (m *Monitor) RunCycle(ctx context.Context) *CycleReport {
	report := &CycleReport{CycleID: uuid.NewString()}
	logger := m.logger.With(slog.String("cycle_id", report.CycleID))

	since := m.now().Add(-m.interval)

	files, err := m.svc.ListChangedFiles(ctx, since)
	if err != nil {
		// Partial results are still worth processing; the rest of the
		// window is revisited next cycle anyway.
		logger.Warn("listing changed files failed, proceeding with partial results",
			slog.Int("files", len(files)),
			slog.String("error", err.Error()),
		)
	}

	report.FilesSeen = len(files)

	for _, f := range files {
		m.checkFile(ctx, logger, report, f)
	}

	return report
}

// checkFile applies the remediation policy to a single file.
func (m *Monitor) checkFile(ctx context.Context, logger *slog.Logger, report *CycleReport, f gdrive.FileRef) {
	fileLogger := logger.With(slog.String("file_id", f.ID), slog.String("name", f.Name))

	if !m.isPubliclyShared(ctx, fileLogger, report, f.ID) {
		fileLogger.Debug("private file")
		return
	}

	parentID := m.parentID(ctx, fileLogger, f.ID)

	// Only remediate files that are public AND sit in a folder whose own
	// sharing is public. A public file in a private (or absent) folder is
	// treated as intentional.
	if parentID == "" || !m.isPubliclyShared(ctx, fileLogger, report, parentID) {
		fileLogger.Info("public file in a private folder, leaving unchanged")
		report.LeftPublic++

		return
	}

	if revoked := m.revokePublicAccess(ctx, fileLogger, report, f); revoked > 0 {
		report.FilesRemediated++
		fileLogger.Info("file was public and is now private",
			slog.Int("grants_revoked", revoked),
		)
	}
}

// isPubliclyShared reports whether any permission on the resource is a
// public grant. Fails closed: a provider error is treated as "private",
// which skips remediation — logged loudly and counted so an outage is
// visible rather than silent.
func (m *Monitor) isPubliclyShared(ctx context.Context, logger *slog.Logger, report *CycleReport, resourceID string) bool {
	perms, err := m.svc.Permissions(ctx, resourceID)
	if err != nil {
		logger.Warn("permission lookup failed, treating as private and skipping remediation",
			slog.String("resource_id", resourceID),
			slog.String("error", err.Error()),
		)

		report.SkippedLookups++

		return false
	}

	return gdrive.AnyPublic(perms)
}

// parentID returns the file's first parent folder, or "" on absence or error.
func (m *Monitor) parentID(ctx context.Context, logger *slog.Logger, fileID string) string {
	parent, err := m.svc.ParentID(ctx, fileID)
	if err != nil {
		logger.Warn("parent lookup failed, treating as no parent",
			slog.String("error", err.Error()),
		)

		return ""
	}

	return parent
}

// revokePublicAccess deletes every public grant on the file and returns the
// number revoked. Idempotent: a file with no public grant is a no-op.
// Errors are logged, never raised — the loop continues to the next file.
func (m *Monitor) revokePublicAccess(ctx context.Context, logger *slog.Logger, report *CycleReport, f gdrive.FileRef) int {
	perms, err := m.svc.Permissions(ctx, f.ID)
	if err != nil {
		logger.Warn("listing permissions for revocation failed",
			slog.String("error", err.Error()),
		)

		return 0
	}

	revoked := 0

	for _, p := range perms {
		if !p.IsPublic() {
			continue
		}

		if err := m.svc.DeletePermission(ctx, f.ID, p.ID); err != nil {
			logger.Warn("revoking public grant failed",
				slog.String("permission_id", p.ID),
				slog.String("error", err.Error()),
			)

			continue
		}

		logger.Info("revoked public grant",
			slog.String("permission_id", p.ID),
			slog.String("role", p.Role),
		)

		revoked++
		report.GrantsRevoked++

		m.record(ctx, logger, report.CycleID, f, p)
	}

	return revoked
}

// record appends an audit event. Ledger failures must not block
// remediation, so they are logged and dropped.
func (m *Monitor) record(ctx context.Context, logger *slog.Logger, cycleID string, f gdrive.FileRef, p gdrive.Permission) {
	if m.rec == nil {
		return
	}

	err := m.rec.RecordRevocation(ctx, audit.Event{
		CycleID:      cycleID,
		FileID:       f.ID,
		FileName:     f.Name,
		PermissionID: p.ID,
		Role:         p.Role,
	})
	if err != nil {
		logger.Warn("recording audit event failed", slog.String("error", err.Error()))
	}
}

// sleepCtx waits for d or until ctx is canceled. Default sleep of Monitor.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
