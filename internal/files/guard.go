package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RejectSymlinkPath returns an error when path, or any existing ancestor of
// it, is a symlink or another irregular entry such as a Windows junction.
// Missing components are fine: the caller is about to create them.
func RejectSymlinkPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	var chain []string
	for p := abs; ; p = filepath.Dir(p) {
		chain = append(chain, p)
		if parent := filepath.Dir(p); parent == p {
			break
		}
	}

	// Walk from the root down so the first offending component is reported.
	for i := len(chain) - 1; i >= 0; i-- {
		current := chain[i]
		info, err := os.Lstat(current)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("failed to access path: %w", err)
		}
		if info.Mode()&(os.ModeSymlink|os.ModeIrregular) != 0 {
			return fmt.Errorf("refusing to write to symlink path: %s (link detected at %s)", abs, current)
		}
	}
	return nil
}
