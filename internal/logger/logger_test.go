package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestPrettyHandler_Structural(t *testing.T) {
	var buf bytes.Buffer
	opts := &slog.HandlerOptions{Level: LevelDebug}
	l := slog.New(NewPrettyHandler(&buf, opts, false))

	t.Run("WithAttrs", func(t *testing.T) {
		buf.Reset()
		l.With("session_id", "0192-abc").Info("upload finished", "slot", "front")

		output := buf.String()
		if !strings.Contains(output, "session_id=0192-abc") {
			t.Errorf("output missing persistent attr: %q", output)
		}
		if !strings.Contains(output, "slot=front") {
			t.Errorf("output missing record attr: %q", output)
		}
	})

	t.Run("WithGroup", func(t *testing.T) {
		buf.Reset()
		l.WithGroup("upload").With("attempt", 1).Info("retrying", "slot", "left")

		output := buf.String()
		if !strings.Contains(output, "upload.attempt=1") {
			t.Errorf("output missing grouped persistent attr: %q", output)
		}
		if !strings.Contains(output, "upload.slot=left") {
			t.Errorf("output missing grouped record attr: %q", output)
		}
	})

	t.Run("LevelFilter", func(t *testing.T) {
		buf.Reset()
		quiet := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: LevelWarn}, false))
		quiet.Info("hidden")
		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})
}

func TestRedactAttr(t *testing.T) {
	cases := []struct {
		name   string
		attr   slog.Attr
		redact bool
	}{
		{"anon key by name", slog.String("anon_key", "abc"), true},
		{"key substring", slog.String("service_role_key", "abc"), true},
		{"jwt value", slog.String("header", "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoiYW5vbiJ9.sig"), true},
		{"bearer value", slog.String("message", "bearer sb_secret_1234567890abcdef"), true},
		{"gemini key value", slog.String("detail", "AIzaSyA1234567890abcdef"), true},
		{"questionnaire answers", slog.Any("answers", map[string]string{"q1": "oily"}), true},
		{"plain", slog.String("slot", "front"), false},
		{"remote path", slog.String("remote_path", "scans/0192/front.jpg"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RedactAttr(nil, tc.attr)
			redacted := got.Value.Kind() == slog.KindString && got.Value.String() == "[REDACTED]"
			if redacted != tc.redact {
				t.Fatalf("RedactAttr(%s) redacted=%v, want %v", tc.attr.Key, redacted, tc.redact)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInit_WritesJSONLToLogFile(t *testing.T) {
	var logBuf bytes.Buffer
	InitWithConsole(LevelInfo, io.Discard, &logBuf)
	defer Init(LevelInfo, nil)

	Info("scan submitted", "session_id", "abc", "anon_key", "secret-value")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(logBuf.Bytes()), &rec); err != nil {
		t.Fatalf("log file is not JSONL: %v (%q)", err, logBuf.String())
	}
	if rec["msg"] != "scan submitted" {
		t.Fatalf("unexpected msg: %v", rec["msg"])
	}
	if rec["anon_key"] != "[REDACTED]" {
		t.Fatalf("expected anon_key to be redacted, got %v", rec["anon_key"])
	}
}

func TestPrettyHandler_NoColorWhenNotTTY(t *testing.T) {
	prevIsTerminal := isTerminal
	isTerminal = func(_ int) bool { return false }
	defer func() { isTerminal = prevIsTerminal }()

	prevStderr := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	defer func() { os.Stderr = prevStderr }()

	Init(LevelInfo, nil)
	Info("test message", "slot", "front")

	_ = w.Close()
	out, _ := io.ReadAll(r)
	if strings.Contains(string(out), "\033[") {
		t.Fatalf("unexpected ANSI codes in output: %q", string(out))
	}
}

func TestPrettyHandler_NoColorWhenLogFileEnabled(t *testing.T) {
	prevIsTerminal := isTerminal
	isTerminal = func(_ int) bool { return true }
	defer func() { isTerminal = prevIsTerminal }()

	prevStderr := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	defer func() { os.Stderr = prevStderr }()

	var logBuf bytes.Buffer
	Init(LevelInfo, &logBuf)
	Info("test message", "slot", "front")

	_ = w.Close()
	out, _ := io.ReadAll(r)
	if strings.Contains(string(out), "\033[") {
		t.Fatalf("unexpected ANSI codes in output: %q", string(out))
	}
}
