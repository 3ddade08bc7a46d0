// Package store is the on-disk mirror of the curation state: the tracked
// accounts, the theme preference and the last seen curator identity, kept in
// a single SQLite key/value table. Reads never fail; they fall back to a
// default and log a warning.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cur8/internal/logging"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Mirror keys, shared with the browser dashboard's localStorage layout.
const (
	KeyAccounts = "curatedUsers"
	KeyTheme    = "theme"
	KeyCurator  = "curator_username"
)

// Driver names accepted by Open.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverCGO     = "sqlite3" // github.com/mattn/go-sqlite3
)

var ErrUnknownDriver = errors.New("unknown sqlite driver")

// MirrorStore implements the local mirror on SQLite.
type MirrorStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	path   string
	driver string
	now    func() time.Time
}

// Open initializes the mirror database at path. An empty driver selects the
// pure-Go driver.
func Open(driver, path string) (*MirrorStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store.Open")
	defer timer.Stop()

	if driver == "" {
		driver = DriverModernc
	}
	if driver != DriverModernc && driver != DriverCGO {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}

	s := &MirrorStore{db: db, path: path, driver: driver, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("mirror opened at %s (driver=%s)", path, driver)
	return s, nil
}

// initialize creates the required tables.
func (s *MirrorStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS mirror (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT 0
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create mirror table: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *MirrorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the database location.
func (s *MirrorStore) Path() string { return s.path }

// Driver returns the database/sql driver name in use.
func (s *MirrorStore) Driver() string { return s.driver }

// get returns the raw value for key; ok is false when the key is absent.
func (s *MirrorStore) get(key string) (value string, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	err = s.db.QueryRow("SELECT value FROM mirror WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *MirrorStore) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO mirror (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *MirrorStore) remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM mirror WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (s *MirrorStore) UpdatedAt(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ms int64
	err := s.db.QueryRow("SELECT updated_at FROM mirror WHERE key = ?", key).Scan(&ms)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
