package files

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// MaxImageBytes caps a single captured photo.
const MaxImageBytes = 15 * 1024 * 1024

// ReadImage loads a captured photo from disk. It refuses non-regular files,
// files over MaxImageBytes and content that does not sniff as an image.
func ReadImage(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("image is empty: %s", path)
	}
	if info.Size() > MaxImageBytes {
		return nil, fmt.Errorf("image too large: %s (%d bytes, limit %d)", path, info.Size(), MaxImageBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image too large: %s (limit %d bytes)", path, MaxImageBytes)
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("unsupported image content type %q: %s", ct, path)
	}
	return data, nil
}
