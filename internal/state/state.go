// Package state persists reader state between sessions under XDG_STATE_HOME/narr.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	stateFileName = "reading_positions.json"
	hashBytes     = 8192 // First 8KB for content hash
)

// ReadingState stores the page a book was left on
type ReadingState struct {
	Page      int       `json:"page"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StateStore manages persistent reading state
type StateStore struct {
	path string
	data map[string]ReadingState
	mu   sync.RWMutex
}

// NewStateStore creates or loads state from XDG_STATE_HOME/narr/
func NewStateStore() (*StateStore, error) {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	store := &StateStore{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]ReadingState),
	}
	if err := store.load(); err != nil {
		// Non-fatal - start with empty state
		store.data = make(map[string]ReadingState)
	}
	return store, nil
}

// Dir returns XDG_STATE_HOME/narr or ~/.local/state/narr
func Dir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "narr")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "narr")
}

// ComputeHash generates content hash for file identity
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}

	return hashBytesKey(buf[:n]), nil
}

// HashText keys text that did not come from a file, such as stdin.
func HashText(text string) string {
	b := []byte(text)
	if len(b) > hashBytes {
		b = b[:hashBytes]
	}
	return hashBytesKey(b)
}

func hashBytesKey(b []byte) string {
	hash := sha256.Sum256(b)
	return hex.EncodeToString(hash[:16]) // First 16 bytes = 32 hex chars
}

// NovelKey keys a novel stored on the backend.
func NovelKey(id string) string {
	return "novel:" + id
}

// GetPage returns the saved page for key, or 0 if not found
func (s *StateStore) GetPage(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.data[key]; ok {
		return state.Page
	}
	return 0
}

// SetPage saves the page for key
func (s *StateStore) SetPage(key string, page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = ReadingState{Page: page, UpdatedAt: time.Now().UTC()}
	return s.save()
}

// Clear removes saved position for key
func (s *StateStore) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return s.save()
}

func (s *StateStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *StateStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
