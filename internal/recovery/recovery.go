package recovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oukeidos/skinscan/internal/files"
)

// State is the local record of a submitted scan. A later account migration
// step uses it to find the session's uploaded photos.
type State struct {
	StateVersion   int       `json:"state_version"`
	SessionID      string    `json:"session_id"`
	ScanTimestamp  time.Time `json:"scan_timestamp"`
	ImageFileNames []string  `json:"image_file_names"`
}

const CurrentStateVersion = 1

// Validate checks that the state is well formed and safe to act on.
func (s *State) Validate() error {
	if s.StateVersion == 0 {
		s.StateVersion = CurrentStateVersion
	}
	if s.StateVersion != CurrentStateVersion {
		return fmt.Errorf("unsupported state_version: %d", s.StateVersion)
	}
	if err := ValidateSessionID(s.SessionID); err != nil {
		return err
	}
	if s.ScanTimestamp.IsZero() {
		return fmt.Errorf("scan_timestamp is empty")
	}
	if len(s.ImageFileNames) == 0 {
		return fmt.Errorf("image_file_names list is empty")
	}
	for _, name := range s.ImageFileNames {
		if name == "" {
			return fmt.Errorf("image file name is empty")
		}
		// Remote object paths use forward slashes regardless of OS.
		if path.IsAbs(name) || strings.HasPrefix(path.Clean(name), "..") {
			return fmt.Errorf("image file name must be a relative object path: %s", name)
		}
	}
	return nil
}

// ValidateSessionID requires a UUID. Session IDs double as file names, so
// anything else is rejected.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session_id is empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid session_id %q: %w", id, err)
	}
	return nil
}

// Store keeps one JSON file per session under Dir.
type Store struct {
	Dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// DefaultDir returns the per-user state directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "skinscan", "sessions"), nil
}

func (s *Store) pathFor(sessionID string) string {
	return filepath.Join(s.Dir, strings.ToLower(sessionID)+".json")
}

// Save writes state atomically, replacing any earlier record for the same
// session. It returns the file path.
func (s *Store) Save(state State) (string, error) {
	if state.StateVersion == 0 {
		state.StateVersion = CurrentStateVersion
	}
	if err := state.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", err
	}
	p := s.pathFor(state.SessionID)
	if err := files.AtomicWrite(p, data, 0600); err != nil {
		return "", err
	}
	return p, nil
}

// Load reads the record for sessionID.
func (s *Store) Load(sessionID string) (*State, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	return LoadFile(s.pathFor(sessionID))
}

// LoadFile reads and validates a single state file.
func LoadFile(p string) (*State, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(p), err)
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("invalid state in %s: %w", filepath.Base(p), err)
	}
	return &state, nil
}

// List returns every readable record, newest scan first. Unreadable files are
// reported through skipped rather than failing the listing.
func (s *Store) List() (states []State, skipped []string, err error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		st, err := LoadFile(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			skipped = append(skipped, e.Name())
			continue
		}
		states = append(states, *st)
	}
	sort.SliceStable(states, func(i, j int) bool {
		return states[i].ScanTimestamp.After(states[j].ScanTimestamp)
	})
	return states, skipped, nil
}

// Delete removes the record for sessionID. Missing records are not an error.
func (s *Store) Delete(sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	if err := os.Remove(s.pathFor(sessionID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
