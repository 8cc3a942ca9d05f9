package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oukeidos/skinscan/internal/mockbackend"
	"github.com/oukeidos/skinscan/internal/reconcile"
	"github.com/oukeidos/skinscan/internal/recovery"
	"github.com/oukeidos/skinscan/internal/screen"
)

const testSessionID = "0192f0c4-6a4e-7b7c-9d3e-0a1b2c3d4e5f"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// scriptedChooser answers every dialog with label.
type scriptedChooser struct {
	label string
	shown int
}

func (c *scriptedChooser) Choose(_, _ string, choices []reconcile.Choice, pick func(reconcile.Choice)) {
	c.shown++
	for _, ch := range choices {
		if ch.Label == c.label {
			pick(ch)
			return
		}
	}
}

type submitEnv struct {
	dir     string
	photo   string
	backend *mockbackend.Server
}

// newSubmitEnv isolates config and state in a temp dir, points the CLI at
// a mock backend and compresses the progress curve.
func newSubmitEnv(t *testing.T, opts mockbackend.Options) *submitEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)

	opts.Key = "test-backend-key"
	backend := mockbackend.New(opts)
	srv := httptest.NewServer(backend.Router())
	t.Cleanup(srv.Close)

	t.Setenv("SKINSCAN_BACKEND_URL", srv.URL)
	t.Setenv("SKINSCAN_STATE_DIR", filepath.Join(dir, "sessions"))
	t.Setenv("SKINSCAN_PROGRESS_MIN_STEP", "10ms")
	t.Setenv("SKINSCAN_PROGRESS_MAX_STEP", "20ms")
	t.Setenv("SKINSCAN_PROGRESS_CREEP_STEP", "10ms")
	t.Setenv("SKINSCAN_PROGRESS_COMPLETE_DURATION", "100ms")
	t.Setenv("SKINSCAN_PROGRESS_FRAME_INTERVAL", "10ms")
	withKeyStubs(t, false, "", "", "test-backend-key")

	photo := filepath.Join(dir, "front.png")
	if err := os.WriteFile(photo, pngHeader, 0o600); err != nil {
		t.Fatalf("write photo: %v", err)
	}
	return &submitEnv{dir: dir, photo: photo, backend: backend}
}

func withChooser(t *testing.T, c screen.Chooser) {
	t.Helper()
	prev := newChooser
	newChooser = func() screen.Chooser { return c }
	t.Cleanup(func() { newChooser = prev })
}

func TestSubmit_Success(t *testing.T) {
	env := newSubmitEnv(t, mockbackend.Options{})
	chooser := &scriptedChooser{label: reconcile.LabelCancel}
	withChooser(t, chooser)

	out, err := executeCommand(t, "submit", "--front", env.photo, "--session", testSessionID,
		"--format", "json", "--env-only", "--no-progress", "--seed", "7")
	if err != nil {
		t.Fatalf("submit failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "mock-"+testSessionID) {
		t.Fatalf("report missing scan id:\n%s", out)
	}
	if chooser.shown != 0 {
		t.Fatalf("failure dialog shown on success")
	}

	objects := env.backend.Objects()
	if len(objects) != 1 || !strings.HasPrefix(objects[0], "scans/"+testSessionID+"/front-") {
		t.Fatalf("objects = %v", objects)
	}
	state, err := recovery.NewStore(filepath.Join(env.dir, "sessions")).Load(testSessionID)
	if err != nil {
		t.Fatalf("recovery state not saved: %v", err)
	}
	if len(state.ImageFileNames) != 1 {
		t.Fatalf("state images = %v", state.ImageFileNames)
	}

	out, err = executeCommand(t, "sessions", "list")
	if err != nil || !strings.Contains(out, testSessionID) {
		t.Fatalf("sessions list: err=%v out=%s", err, out)
	}
}

func TestSubmit_WritesOutputFile(t *testing.T) {
	env := newSubmitEnv(t, mockbackend.Options{})
	withChooser(t, &scriptedChooser{label: reconcile.LabelCancel})

	report := filepath.Join(env.dir, "report.txt")
	if err := os.WriteFile(report, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := executeCommand(t, "submit", "--front", env.photo, "--env-only", "--no-progress", "--no-state", "-o", report, "-y")
	if err != nil {
		t.Fatalf("submit failed: %v\n%s", err, out)
	}
	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Skin type:") {
		t.Fatalf("report = %q", data)
	}
	if _, err := os.Stat(filepath.Join(env.dir, "sessions")); !os.IsNotExist(err) {
		t.Fatalf("--no-state still wrote recovery state (stat err=%v)", err)
	}
}

func TestSubmit_FailureCancel(t *testing.T) {
	env := newSubmitEnv(t, mockbackend.Options{AnalysisStatus: http.StatusInternalServerError})
	chooser := &scriptedChooser{label: reconcile.LabelCancel}
	withChooser(t, chooser)

	_, err := executeCommand(t, "submit", "--front", env.photo, "--env-only", "--no-progress")
	if err == nil || !strings.Contains(err.Error(), "scan cancelled") {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if chooser.shown != 1 {
		t.Fatalf("dialog shown %d times, want 1", chooser.shown)
	}
}

func TestSubmit_FailureTryAgainExhausts(t *testing.T) {
	env := newSubmitEnv(t, mockbackend.Options{FailUploadsMatching: "front"})
	chooser := &scriptedChooser{label: reconcile.LabelTryAgain}
	withChooser(t, chooser)

	_, err := executeCommand(t, "submit", "--front", env.photo, "--env-only", "--no-progress", "--max-attempts", "2")
	if err == nil || !strings.Contains(err.Error(), "after 2 attempts") {
		t.Fatalf("expected exhausted attempts error, got %v", err)
	}
	if chooser.shown != 2 {
		t.Fatalf("dialog shown %d times, want 2", chooser.shown)
	}
	if env.backend.Invocations() != 0 {
		t.Fatalf("analysis invoked despite failed uploads")
	}
}

func TestSubmit_ValidatesFlags(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"no photos", []string{"submit"}, "at least one of --front"},
		{"bad format", []string{"submit", "--front", "x.png", "--format", "pdf"}, "unsupported format"},
		{"bad session", []string{"submit", "--front", "x.png", "--session", "../etc"}, "session"},
		{"zero attempts", []string{"submit", "--front", "x.png", "--max-attempts", "0"}, "--max-attempts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := executeCommand(t, tc.args...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestSubmit_MissingPhoto(t *testing.T) {
	env := newSubmitEnv(t, mockbackend.Options{})
	_, err := executeCommand(t, "submit", "--left", filepath.Join(env.dir, "nope.png"), "--env-only")
	if err == nil || !strings.Contains(err.Error(), "left photo") {
		t.Fatalf("expected left photo error, got %v", err)
	}
}
