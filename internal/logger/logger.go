package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	globalMu     sync.RWMutex
	globalLogger *slog.Logger
	isTerminal   = term.IsTerminal
)

var sensitiveKeys = map[string]bool{
	"anon_key":      true,
	"apikey":        true,
	"api_key":       true,
	"access_token":  true,
	"authorization": true,
	"bearer":        true,
	"image_data":    true,
	"password":      true,
	"refresh_token": true,
	"secret":        true,
	"service_role":  true,
	"token":         true,
}

var sensitiveKeySubstrings = []string{
	"key",
	"token",
	"secret",
	"password",
	"authorization",
	"bearer",
	"jwt",
	"answers",
}

var sensitiveValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]*`),
	regexp.MustCompile(`\bsb_(secret|publishable)_[A-Za-z0-9_-]{8,}\b`),
	regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{10,}\b`),
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]+=*\b`),
	regexp.MustCompile(`(?i)\b(api[_-]?key|access[_-]?token|secret)\b\s*[:=]\s*\S+`),
}

// RedactAttr is a slog.ReplaceAttr function that redacts credentials and
// personal scan data.
func RedactAttr(_ []string, a slog.Attr) slog.Attr {
	if shouldRedact(a) {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}

func shouldRedact(a slog.Attr) bool {
	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] {
		return true
	}
	for _, sub := range sensitiveKeySubstrings {
		if strings.Contains(key, sub) {
			return true
		}
	}

	var value string
	switch a.Value.Kind() {
	case slog.KindString:
		value = a.Value.String()
	case slog.KindGroup:
		return false
	default:
		value = fmt.Sprint(a.Value.Any())
	}
	if value == "" {
		return false
	}
	for _, re := range sensitiveValuePatterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

func init() {
	Init(LevelInfo, nil)
}

// ParseLevel maps a config string to a slog level. Unknown values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Init initializes the global logger. Console output goes to stderr;
// logFile, when non-nil, additionally receives JSONL records.
func Init(level slog.Level, logFile io.Writer) {
	InitWithConsole(level, os.Stderr, logFile)
}

// InitWithConsole is Init with an explicit console writer. The TUI front-end
// passes io.Discard so log lines do not tear the alt screen.
func InitWithConsole(level slog.Level, console io.Writer, logFile io.Writer) {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: RedactAttr,
	}

	useColor := false
	if f, ok := console.(*os.File); ok && logFile == nil {
		useColor = isTerminal(int(f.Fd()))
	}
	var handler slog.Handler = NewPrettyHandler(console, opts, useColor)
	if logFile != nil {
		handler = &multiHandler{
			handlers: []slog.Handler{handler, slog.NewJSONHandler(logFile, opts)},
		}
	}

	l := slog.New(handler)
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
	slog.SetDefault(l)
}

func current() *slog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// With returns a child logger carrying args on every record.
func With(args ...any) *slog.Logger { return current().With(args...) }

func Debug(msg string, args ...any) { current().Debug(msg, args...) }
func Info(msg string, args ...any)  { current().Info(msg, args...) }
func Warn(msg string, args ...any)  { current().Warn(msg, args...) }
func Error(msg string, args ...any) { current().Error(msg, args...) }

// Fatal logs an error and exits
func Fatal(msg string, args ...any) {
	current().Error(msg, args...)
	os.Exit(1)
}

// --- Pretty Handler ---

type PrettyHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	opts   *slog.HandlerOptions
	attrs  []slog.Attr
	groups []string
	color  bool
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions, color bool) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &PrettyHandler{mu: &sync.Mutex{}, w: w, opts: opts, color: color}
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "\033[31m"
	case level >= slog.LevelWarn:
		return "\033[33m"
	case level >= slog.LevelInfo:
		return "\033[32m"
	default:
		return "\033[90m"
	}
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	color, reset := "", ""
	if h.color {
		color, reset = levelColor(r.Level), "\033[0m"
	}
	fmt.Fprintf(&b, "%s %s%-5s%s %s", r.Time.Format("15:04:05"), color, r.Level.String(), reset, r.Message)

	writeAttr := func(a slog.Attr) {
		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(h.groups, a)
		}
		if a.Key == "" {
			return
		}
		key := a.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		if h.color {
			fmt.Fprintf(&b, " \033[90m%s=\033[0m%v", key, a.Value)
			return
		}
		fmt.Fprintf(&b, " %s=%v", key, a.Value)
	}

	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = append(h2.attrs[:len(h2.attrs):len(h2.attrs)], attrs...)
	return &h2
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(h2.groups[:len(h2.groups):len(h2.groups)], name)
	return &h2
}

// --- Multi Handler ---

type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
