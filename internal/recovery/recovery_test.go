package recovery

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newState(t *testing.T, ts time.Time) State {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("uuid: %v", err)
	}
	return State{
		SessionID:     id.String(),
		ScanTimestamp: ts,
		ImageFileNames: []string{
			id.String() + "/front-1700000000.jpg",
			id.String() + "/left-1700000000.jpg",
		},
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "sessions"))
	state := newState(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	p, err := store.Save(state)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(state.SessionID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.StateVersion != CurrentStateVersion {
		t.Errorf("state_version = %d, want %d", loaded.StateVersion, CurrentStateVersion)
	}
	if len(loaded.ImageFileNames) != 2 || loaded.ImageFileNames[0] != state.ImageFileNames[0] {
		t.Errorf("unexpected image names: %v", loaded.ImageFileNames)
	}
	if !loaded.ScanTimestamp.Equal(state.ScanTimestamp) {
		t.Errorf("timestamp = %v, want %v", loaded.ScanTimestamp, state.ScanTimestamp)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("Stat failed: %v", err)
		}
		if mode := info.Mode().Perm(); mode != 0600 {
			t.Errorf("expected permission 0600, got %o", mode)
		}
	}
}

func TestStore_SaveOverwritesSameSession(t *testing.T) {
	store := NewStore(t.TempDir())
	state := newState(t, time.Now().UTC())
	if _, err := store.Save(state); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	state.ImageFileNames = state.ImageFileNames[:1]
	if _, err := store.Save(state); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	states, _, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(states) != 1 || len(states[0].ImageFileNames) != 1 {
		t.Fatalf("expected one record with one image, got %+v", states)
	}
}

func TestStore_ListNewestFirstAndSkipsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	older := newState(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := newState(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	for _, s := range []State{older, newer} {
		if _, err := store.Save(s); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	states, skipped, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 states, got %d", len(states))
	}
	if states[0].SessionID != newer.SessionID {
		t.Errorf("expected newest first")
	}
	if len(skipped) != 1 || skipped[0] != "broken.json" {
		t.Errorf("skipped = %v, want [broken.json]", skipped)
	}
}

func TestStore_ListMissingDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent"))
	states, skipped, err := store.List()
	if err != nil || states != nil || skipped != nil {
		t.Fatalf("expected empty listing, got %v %v %v", states, skipped, err)
	}
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(t.TempDir())
	state := newState(t, time.Now().UTC())
	if _, err := store.Save(state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(state.SessionID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(state.SessionID); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
	if _, err := store.Load(state.SessionID); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist after delete, got %v", err)
	}
}

func TestState_Validate(t *testing.T) {
	valid := newState(t, time.Now().UTC())

	cases := []struct {
		name    string
		mutate  func(*State)
		wantErr string
	}{
		{"valid", func(*State) {}, ""},
		{"empty session", func(s *State) { s.SessionID = "" }, "session_id is empty"},
		{"traversal session", func(s *State) { s.SessionID = "../../etc/passwd" }, "invalid session_id"},
		{"zero timestamp", func(s *State) { s.ScanTimestamp = time.Time{} }, "scan_timestamp is empty"},
		{"no images", func(s *State) { s.ImageFileNames = nil }, "image_file_names list is empty"},
		{"absolute image", func(s *State) { s.ImageFileNames = []string{"/etc/passwd"} }, "relative object path"},
		{"traversal image", func(s *State) { s.ImageFileNames = []string{"../x.jpg"} }, "relative object path"},
		{"future version", func(s *State) { s.StateVersion = CurrentStateVersion + 1 }, "unsupported state_version"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			s.ImageFileNames = append([]string(nil), valid.ImageFileNames...)
			tc.mutate(&s)
			err := s.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}
