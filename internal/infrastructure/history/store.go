package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/fluxid/minilex/internal/domain"
)

// DefaultMaxEntries caps history growth when no explicit limit is set.
const DefaultMaxEntries = 100

// FileStore keeps rule-coverage history in a single JSON file. Appends
// take a file lock so concurrent runs cannot lose entries; the lock
// mechanics live in lock_unix.go and lock_windows.go.
type FileStore struct {
	Path       string
	MaxEntries int
}

// Load reads the history file. A missing file is an empty history.
func (s *FileStore) Load() (domain.History, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.History{}, nil
		}
		return domain.History{}, err
	}

	var h domain.History
	if err := json.Unmarshal(data, &h); err != nil {
		return domain.History{}, err
	}
	return h, nil
}

// Save writes the history file, creating parent directories as needed.
func (s *FileStore) Save(h domain.History) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o600)
}

// Append adds an entry under the file lock, trimming the oldest entries
// past the configured limit.
func (s *FileStore) Append(entry domain.HistoryEntry) error {
	lock, err := s.acquireLock()
	if err != nil {
		return err
	}
	defer lock.release()

	h, err := s.Load()
	if err != nil {
		return err
	}

	h.Entries = append(h.Entries, entry)

	max := s.MaxEntries
	if max == 0 {
		max = DefaultMaxEntries
	}
	if len(h.Entries) > max {
		h.Entries = h.Entries[len(h.Entries)-max:]
	}

	return s.Save(h)
}
