package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))
	s, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, s)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load on a
// fresh repository reproduces identical token and session data fields.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "session.json")
	repo := NewFileRepository(file)

	ts := time.Now().UTC().Truncate(time.Second)
	want := &domain.Session{
		Username: "o.kuznetsov",
		Token:    "tok-abc",
		Data: map[string]string{
			"hash":    "h1",
			"cookie":  "c1",
			"loginId": "42",
		},
		Expiry:    ts.Add(time.Hour),
		LoginTime: ts,
	}

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := NewFileRepository(file).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, want.Token, got.Token)
	require.Equal(t, want.Data, got.Data)
	require.Equal(t, want.Username, got.Username)
	require.Equal(t, want.Expiry.Unix(), got.Expiry.Unix())
	require.Equal(t, want.LoginTime.Unix(), got.LoginTime.Unix())
}

// TestFileRepository_Delete removes the file and tolerates a missing one.
func TestFileRepository_Delete(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "session.json")
	repo := NewFileRepository(file)

	require.NoError(t, repo.Save(context.Background(), &domain.Session{Token: "t"}))
	require.NoError(t, repo.Delete(context.Background()))

	_, err := os.Stat(file)
	require.ErrorIs(t, err, os.ErrNotExist)

	// Second delete is a no-op.
	require.NoError(t, repo.Delete(context.Background()))
}

// TestPathFor sanitizes account names into safe filenames.
func TestPathFor(t *testing.T) {
	t.Parallel()

	got := PathFor("/var/lib/sentinel", "user@example.com")
	require.Equal(t, filepath.Join("/var/lib/sentinel", "sentinel-session-user_example_com.json"), got)
}
