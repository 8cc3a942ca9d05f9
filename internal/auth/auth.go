// Package auth stores the backend and Gemini keys in the OS keychain.
package auth

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

// Service names a stored secret.
type Service string

const (
	ServiceBackend Service = "backend"
	ServiceGemini  Service = "gemini"
)

// Services lists every secret the CLI manages.
var Services = []Service{ServiceBackend, ServiceGemini}

const serviceName = "skinscan"

// Source labels where a key was found.
const (
	SourceKeychain = "Keychain"
	SourceEnv      = "Environment Variable"
)

func (s Service) account() string {
	if s == ServiceGemini {
		return "gemini-api-key"
	}
	return "backend-anon-key"
}

// EnvVar is the fallback variable for s.
func (s Service) EnvVar() string {
	if s == ServiceGemini {
		return "GEMINI_API_KEY"
	}
	return "SKINSCAN_BACKEND_KEY"
}

// ParseService accepts "backend" or "gemini".
func ParseService(name string) (Service, error) {
	switch Service(strings.ToLower(strings.TrimSpace(name))) {
	case ServiceBackend:
		return ServiceBackend, nil
	case ServiceGemini:
		return ServiceGemini, nil
	default:
		return "", fmt.Errorf("unknown service %q (want backend or gemini)", name)
	}
}

// GetKey returns the key for s and where it came from. The environment is
// consulted only when allowEnv is set.
func GetKey(s Service, allowEnv bool) (string, string) {
	key, err := keyring.Get(serviceName, s.account())
	if err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), SourceKeychain
	}
	if allowEnv {
		if key, ok := GetEnvKey(s); ok {
			return key, SourceEnv
		}
	}
	return "", ""
}

// SaveKey writes the key for s to the keychain.
func SaveKey(s Service, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("refusing to store an empty %s key", s)
	}
	return keyring.Set(serviceName, s.account(), key)
}

// DeleteKey removes the key for s from the keychain.
func DeleteKey(s Service) error {
	return keyring.Delete(serviceName, s.account())
}

// GetStatus reports whether the keychain holds a key for s.
func GetStatus(s Service) bool {
	key, err := keyring.Get(serviceName, s.account())
	return err == nil && key != ""
}

// GetEnvKey reads the key for s from the environment only.
func GetEnvKey(s Service) (string, bool) {
	key := strings.TrimSpace(os.Getenv(s.EnvVar()))
	if key == "" {
		return "", false
	}
	return key, true
}

// PromptForAPIKey reads a key without echo.
func PromptForAPIKey(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}
