// Package local provides the on-device durable store for oclock.
//
// It is a small string-keyed blob store: each key is a JSON file under
// the data directory. Reads and writes are synchronous, which is what
// the teardown path relies on to finalize a running timer without
// waiting for any network I/O.
//
// A corrupt or unparseable blob is treated as absent rather than as a
// fatal error; the caller falls back to an empty collection or defaults.
package local

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Well-known store keys. The collection keys hold JSON arrays, the
// settings keys hold single JSON scalars.
const (
	KeyTodos        = "todos"
	KeyWorkSessions = "workSessions"
	KeyHourlyRate   = "hourlyRate"
	KeyUserName     = "userName"
	KeyUserEmail    = "userEmail"
	KeyActiveTimer  = "activeTimer"
	KeyAuthToken    = "authToken"
)

// Store is a synchronous key/value JSON store rooted at a directory.
type Store struct {
	dir string

	mu sync.Mutex
	// lastWrite tracks our own writes so the watcher can tell external
	// changes (another process) apart from echoes of our own.
	lastWrite map[string]time.Time
}

// Open creates the data directory if needed and returns a Store.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{
		dir:       dir,
		lastWrite: make(map[string]time.Time),
	}, nil
}

// Dir returns the directory backing this store.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for a key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads the blob stored under key into v.
//
// Returns false if the key is absent. A blob that exists but cannot be
// parsed is treated as absent: the caller must not fail hard on a
// corrupt local store.
func (s *Store) Get(key string, v interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		// Corrupt blob, fall back to absent.
		return false, nil
	}
	return true, nil
}

// Put overwrites the blob stored under key with the JSON encoding of v.
func (s *Store) Put(key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := os.WriteFile(s.Path(key), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	s.lastWrite[key] = time.Now()
	return nil
}

// Delete removes the blob stored under key. Missing keys are not an
// error (idempotent).
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	s.lastWrite[key] = time.Now()
	return nil
}

// recentlyWritten reports whether we wrote key within the window. Used
// by the watcher to suppress echoes of this process's own writes.
func (s *Store) recentlyWritten(key string, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.lastWrite[key]
	return ok && time.Since(at) < window
}
