package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/oukeidos/skinscan/internal/auth"
)

type keyStubs struct {
	promptCalls int
	keyCalls    int
	envCalls    int
}

func withKeyStubs(t *testing.T, terminal bool, promptVal string, keychainVal string, envVal string) *keyStubs {
	t.Helper()
	stubs := &keyStubs{}

	prevIsTerminal := isTerminal
	prevPrompt := promptForKey
	prevGetKey := getKey
	prevGetEnv := getEnvKey

	isTerminal = func(_ int) bool { return terminal }
	promptForKey = func(_ string) (string, error) {
		stubs.promptCalls++
		return promptVal, nil
	}
	getKey = func(_ auth.Service, _ bool) (string, string) {
		stubs.keyCalls++
		if keychainVal == "" {
			return "", ""
		}
		return keychainVal, auth.SourceKeychain
	}
	getEnvKey = func(_ auth.Service) (string, bool) {
		stubs.envCalls++
		if envVal == "" {
			return "", false
		}
		return envVal, true
	}

	t.Cleanup(func() {
		isTerminal = prevIsTerminal
		promptForKey = prevPrompt
		getKey = prevGetKey
		getEnvKey = prevGetEnv
	})
	return stubs
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommandWithInput(t, "", args...)
}

func executeCommandWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestResolveAPIKey_KeychainFirst(t *testing.T) {
	stubs := withKeyStubs(t, true, "", "keychain-key", "env-key")

	key, source, err := resolveAPIKey(auth.ServiceBackend, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "keychain-key" || source != auth.SourceKeychain {
		t.Fatalf("expected keychain key/source, got key=%q source=%q", key, source)
	}
	if stubs.envCalls != 0 {
		t.Fatalf("expected no env calls, got envCalls=%d", stubs.envCalls)
	}
}

func TestResolveAPIKey_EnvFallbackWhenAllowed(t *testing.T) {
	stubs := withKeyStubs(t, false, "", "", "env-key")

	key, source, err := resolveAPIKey(auth.ServiceGemini, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "env-key" || source != auth.SourceEnv {
		t.Fatalf("expected env key/source, got key=%q source=%q", key, source)
	}
	if stubs.promptCalls != 0 {
		t.Fatalf("expected no prompt, got %d", stubs.promptCalls)
	}
}

func TestResolveAPIKey_EnvIgnoredByDefault(t *testing.T) {
	stubs := withKeyStubs(t, false, "", "", "env-key")

	_, _, err := resolveAPIKey(auth.ServiceBackend, false, false)
	if err == nil || !strings.Contains(err.Error(), "non-interactive") {
		t.Fatalf("expected non-interactive error, got %v", err)
	}
	if stubs.envCalls != 0 {
		t.Fatalf("env consulted without --allow-env")
	}
}

func TestResolveAPIKey_EnvOnly(t *testing.T) {
	stubs := withKeyStubs(t, true, "prompted", "keychain-key", "")

	_, _, err := resolveAPIKey(auth.ServiceBackend, false, true)
	if err == nil || !strings.Contains(err.Error(), auth.ServiceBackend.EnvVar()) {
		t.Fatalf("expected env-only error naming the variable, got %v", err)
	}
	if stubs.keyCalls != 0 || stubs.promptCalls != 0 {
		t.Fatalf("env-only must not touch keychain or prompt: %+v", stubs)
	}
}

func TestResolveAPIKey_PromptTrimmed(t *testing.T) {
	withKeyStubs(t, true, "  typed-key \n", "", "")

	key, source, err := resolveAPIKey(auth.ServiceBackend, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "typed-key" || source != "Terminal Prompt" {
		t.Fatalf("got key=%q source=%q", key, source)
	}
}

func TestResolveAPIKey_EmptyPrompt(t *testing.T) {
	withKeyStubs(t, true, "", "", "")

	_, _, err := resolveAPIKey(auth.ServiceGemini, false, false)
	if err == nil || !strings.Contains(err.Error(), "use --allow-env") {
		t.Fatalf("expected hint about --allow-env, got %v", err)
	}
}
