package version

import "fmt"

// Version is the release version embedded in the binary.
// It can be overridden at build time via:
// go build -ldflags "-X github.com/oukeidos/skinscan/internal/version.Version=0.3.0"
var Version = "0.1.0"

// Commit is the git commit hash embedded in the binary.
var Commit = "unknown"

// BuildDate is the RFC3339 build timestamp embedded in the binary.
var BuildDate = "unknown"

// Info returns a multi-line version string for CLI output.
func Info() string {
	return fmt.Sprintf("skinscan %s\ncommit: %s\nbuild: %s", Version, Commit, BuildDate)
}

// UserAgent identifies the client to the backend.
func UserAgent() string {
	return "skinscan/" + Version
}
