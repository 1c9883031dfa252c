package audit

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "audit.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestOpen_CreatesSchemaAndDirectory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "nested", "audit.db")

	store, err := Open(context.Background(), path, logger)
	require.NoError(t, err)
	defer store.Close()

	events, err := store.RecentEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecordRevocation_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	occurred := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.RecordRevocation(ctx, Event{
		OccurredAt:   occurred,
		CycleID:      "cycle-1",
		FileID:       "file-1",
		FileName:     "report.pdf",
		PermissionID: "perm-anyone",
		Role:         "reader",
	}))

	events, err := store.RecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "cycle-1", e.CycleID)
	assert.Equal(t, "file-1", e.FileID)
	assert.Equal(t, "report.pdf", e.FileName)
	assert.Equal(t, "perm-anyone", e.PermissionID)
	assert.Equal(t, "reader", e.Role)
	assert.True(t, e.OccurredAt.Equal(occurred))
	assert.NotZero(t, e.ID)
}

func TestRecordRevocation_DefaultsOccurredAt(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	require.NoError(t, store.RecordRevocation(ctx, Event{
		CycleID: "c", FileID: "f", FileName: "n", PermissionID: "p",
	}))

	events, err := store.RecentEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].OccurredAt.After(before))
}

func TestRecentEvents_NewestFirstAndLimited(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordRevocation(ctx, Event{
			OccurredAt:   base.Add(time.Duration(i) * time.Minute),
			CycleID:      "c",
			FileID:       "f",
			FileName:     "n",
			PermissionID: "p",
		}))
	}

	events, err := store.RecentEvents(ctx, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.True(t, events[0].OccurredAt.After(events[1].OccurredAt))
	assert.True(t, events[1].OccurredAt.After(events[2].OccurredAt))
}

func TestOpen_Reopen(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	store, err := Open(ctx, path, logger)
	require.NoError(t, err)
	require.NoError(t, store.RecordRevocation(ctx, Event{
		CycleID: "c", FileID: "f", FileName: "n", PermissionID: "p",
	}))
	require.NoError(t, store.Close())

	// Reopening must not re-run migrations destructively.
	store, err = Open(ctx, path, logger)
	require.NoError(t, err)
	defer store.Close()

	events, err := store.RecentEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
