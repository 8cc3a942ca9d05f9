package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/oukeidos/skinscan/internal/auth"
	"github.com/oukeidos/skinscan/internal/cleanup"
	"github.com/oukeidos/skinscan/internal/config"
	"github.com/oukeidos/skinscan/internal/files"
	"github.com/oukeidos/skinscan/internal/logger"
	"github.com/oukeidos/skinscan/internal/recovery"
)

var (
	isTerminal   = term.IsTerminal
	getKey       = auth.GetKey
	getEnvKey    = auth.GetEnvKey
	getStatus    = auth.GetStatus
	promptForKey = auth.PromptForAPIKey
	loadConfig   = config.Load
)

type globalOptions struct {
	configPath string
	logLevel   string
	logFile    string
	debug      bool
}

// setup loads and checks the config, then installs the logger. Flags win
// over the config file. console receives human-readable log lines.
func (g *globalOptions) setup(console io.Writer) (*config.Config, error) {
	cfg, err := loadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.debug {
		cfg.LogLevel = "debug"
	}
	if g.logFile != "" {
		cfg.LogFile = g.logFile
	}

	var logFileW io.Writer
	if cfg.LogFile != "" {
		if err := files.RejectSymlinkPath(cfg.LogFile); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register("log file", f.Close)
		logFileW = f
	}
	logger.InitWithConsole(logger.ParseLevel(cfg.LogLevel), console, logFileW)

	for _, note := range cfg.Normalize() {
		logger.Warn("Config adjusted", "note", note)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// stateDir is the configured recovery directory or the per-user default.
func stateDir(cfg *config.Config) (string, error) {
	if cfg.StateDir != "" {
		return cfg.StateDir, nil
	}
	return recovery.DefaultDir()
}

// resolveAPIKey finds a key for svc in the keychain, then the environment
// when allowed, then an interactive prompt.
func resolveAPIKey(svc auth.Service, allowEnv, envOnly bool) (string, string, error) {
	if envOnly {
		if key, ok := getEnvKey(svc); ok {
			return key, auth.SourceEnv, nil
		}
		return "", "", fmt.Errorf("env-only set but %s is not set", svc.EnvVar())
	}

	if key, source := getKey(svc, false); key != "" {
		return key, source, nil
	}

	if allowEnv {
		if key, ok := getEnvKey(svc); ok {
			return key, auth.SourceEnv, nil
		}
	}

	if !isTerminal(int(os.Stdin.Fd())) {
		return "", "", fmt.Errorf("no %s key available (non-interactive shell); run `skinscan env setup --service %s` or use --allow-env", svc, svc)
	}
	key, err := promptForKey(fmt.Sprintf("%s key (press Enter to skip): ", displayName(svc)))
	if err != nil {
		return "", "", fmt.Errorf("error reading key: %w", err)
	}
	if strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), "Terminal Prompt", nil
	}
	if allowEnv {
		return "", "", fmt.Errorf("%s key is required; not found in keychain or environment", svc)
	}
	return "", "", fmt.Errorf("%s key is required; not found in keychain (environment disabled by default; use --allow-env)", svc)
}

func displayName(svc auth.Service) string {
	if svc == auth.ServiceGemini {
		return "Gemini API"
	}
	return "Backend"
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("Cancellation requested")
			cancel()
		case <-ctx.Done():
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
