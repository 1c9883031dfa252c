// Package audit keeps a local, append-only ledger of every public grant the
// daemon revoked. The remote permission change is destructive and invisible
// after the fact — the ledger is the only record of what was touched, when,
// and in which poll cycle.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register the "sqlite" driver
)

// dirPerms is used when creating the database directory.
const dirPerms = 0o700

// Event is one revoked public grant.
type Event struct {
	ID           int64
	OccurredAt   time.Time
	CycleID      string
	FileID       string
	FileName     string
	PermissionID string
	Role         string
}

// Store wraps the ledger database. Sole-writer: MaxOpenConns(1) serializes
// all access through a single connection, which is all SQLite wants and all
// the sequential monitor needs.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the ledger database at path and applies pending
// schema migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return nil, fmt.Errorf("audit: creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: opening database %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRevocation appends one event. OccurredAt defaults to now when zero.
func (s *Store) RecordRevocation(ctx context.Context, e Event) error {
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO revocation_events
			(occurred_at, cycle_id, file_id, file_name, permission_id, role)
			VALUES (?, ?, ?, ?, ?, ?)`,
		occurred.Unix(), e.CycleID, e.FileID, e.FileName, e.PermissionID, e.Role,
	)
	if err != nil {
		return fmt.Errorf("audit: recording revocation for %s: %w", e.FileID, err)
	}

	return nil
}

// RecentEvents returns up to limit events, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, occurred_at, cycle_id, file_id, file_name, permission_id, role
			FROM revocation_events
			ORDER BY occurred_at DESC, id DESC
			LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: querying events: %w", err)
	}
	defer rows.Close()

	var events []Event

	for rows.Next() {
		var (
			e    Event
			unix int64
		)

		if err := rows.Scan(&e.ID, &unix, &e.CycleID, &e.FileID, &e.FileName,
			&e.PermissionID, &e.Role); err != nil {
			return nil, fmt.Errorf("audit: scanning event row: %w", err)
		}

		e.OccurredAt = time.Unix(unix, 0)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterating event rows: %w", err)
	}

	return events, nil
}
