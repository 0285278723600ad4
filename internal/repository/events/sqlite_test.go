package events

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
)

// newTestRepository opens a repository in a temp directory and closes it
// when the test finishes.
func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := Open(filepath.Join(t.TempDir(), "state", "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

// TestSQLiteRepository_RecordAndRecent appends events and reads them back
// newest first.
func TestSQLiteRepository_RecordAndRecent(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, domain.Event{
		Kind:      domain.EventLogin,
		Success:   true,
		Message:   "session established",
		Timestamp: base,
	}))
	require.NoError(t, repo.Record(ctx, domain.Event{
		Kind:           domain.EventArm,
		InstallationID: "12345",
		Mode:           "away",
		Success:        true,
		Timestamp:      base.Add(time.Minute),
	}))
	require.NoError(t, repo.Record(ctx, domain.Event{
		Kind:           domain.EventDisarm,
		InstallationID: "12345",
		Success:        false,
		Message:        "panel busy",
		Timestamp:      base.Add(2 * time.Minute),
	}))

	got, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, domain.EventDisarm, got[0].Kind)
	require.False(t, got[0].Success)
	require.Equal(t, "panel busy", got[0].Message)

	require.Equal(t, domain.EventArm, got[1].Kind)
	require.Equal(t, "12345", got[1].InstallationID)
	require.Equal(t, "away", got[1].Mode)

	require.Equal(t, domain.EventLogin, got[2].Kind)
}

// TestSQLiteRepository_RecentLimit caps the result set.
func TestSQLiteRepository_RecentLimit(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Record(ctx, domain.Event{
			Kind:      domain.EventArm,
			Mode:      "home",
			Success:   true,
			Timestamp: time.Date(2026, 3, 1, 8, i, 0, 0, time.UTC),
		}))
	}

	got, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

// TestSQLiteRepository_ReopenKeepsData ensures the schema apply is
// idempotent and persisted rows survive a reopen.
func TestSQLiteRepository_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.db")
	ctx := context.Background()

	repo, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, repo.Record(ctx, domain.Event{Kind: domain.EventLogout, Success: true}))
	require.NoError(t, repo.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, domain.EventLogout, got[0].Kind)
}
