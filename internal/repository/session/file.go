package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/asavelyev/sentinel-bridge/internal/config"
	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
)

// Repository defines persistence operations for the vendor session.
type Repository interface {
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context) error
}

// FileRepository persists the session to a JSON file on disk.
// Writes are last-write-wins with no file locking; two processes sharing
// a session path can race, the loser's write simply sticks.
type FileRepository struct {
	// path is the filesystem location of the JSON session file.
	path string
	// mu protects concurrent access to the session file within the process.
	mu sync.Mutex
}

// ErrNotFound is returned when no session has been persisted yet.
var ErrNotFound = errors.New("session not found")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// PathFor returns the session file path for the given account inside the
// state directory. The username is sanitized so it is safe as a filename.
func PathFor(stateDir, username string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, username)

	return filepath.Join(stateDir, fmt.Sprintf("sentinel-session-%s.json", sanitized))
}

// Load reads the session from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read session file: %w", err)
	}

	var session domain.Session
	if err = json.Unmarshal(contents, &session); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}

	return &session, nil
}

// Save writes the session to disk using JSON representation.
func (r *FileRepository) Save(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	return nil
}

// Delete removes the persisted session. A missing file is not an error.
func (r *FileRepository) Delete(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}

	return nil
}
