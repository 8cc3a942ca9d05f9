package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/oukeidos/skinscan/internal/logger"
)

// AtomicWrite writes data to a temp file in the destination directory and
// renames it over path.
func AtomicWrite(path string, data []byte, perms os.FileMode) error {
	if err := RejectSymlinkPath(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".skinscan-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(perms); err != nil {
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if err := writeAndClose(tmp, data); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to destination: %w", err)
	}
	committed = true
	syncDir(dir)
	return nil
}

// CreateExclusive writes data to a file that does not exist yet. When path is
// taken it tries path_1 .. path_9 and finally a UUIDv7 suffix. It returns the
// path actually written.
func CreateExclusive(path string, data []byte, perms os.FileMode) (string, error) {
	if err := RejectSymlinkPath(path); err != nil {
		return "", err
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	candidates := make([]string, 0, 11)
	candidates = append(candidates, path)
	for i := 1; i <= 9; i++ {
		candidates = append(candidates, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
	if u, err := uuid.NewV7(); err == nil {
		candidates = append(candidates, fmt.Sprintf("%s_%s%s", stem, u.String(), ext))
	}

	for _, candidate := range candidates {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perms)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return "", err
		}
		if err := writeAndClose(f, data); err != nil {
			os.Remove(candidate)
			return "", err
		}
		syncDir(filepath.Dir(candidate))
		return candidate, nil
	}
	return "", fmt.Errorf("no free file name for %s", path)
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

func syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	f, err := os.Open(dir)
	if err != nil {
		logger.Warn("Directory fsync skipped", "path", dir, "error", err)
		return
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		logger.Warn("Directory fsync failed (safe to ignore on some platforms)", "path", dir, "error", err)
	}
}
