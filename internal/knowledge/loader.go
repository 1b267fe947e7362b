// Package knowledge loads the static store catalog that grounds every reply.
package knowledge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unicode/utf8"

	"elsbot/internal/logging"
)

// DefaultPath is the catalog file name used when no path is configured.
const DefaultPath = "store_data.txt"

// ErrNotFound is returned when the configured knowledge file does not exist.
var ErrNotFound = errors.New("knowledge file not found")

// Load reads the whole knowledge document at path.
// There is no fallback content and no partial load: any failure is fatal to boot.
func Load(path string) (string, error) {
	if path == "" {
		path = DefaultPath
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat knowledge file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("knowledge path %s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read knowledge file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("knowledge file %s is not valid UTF-8 text", path)
	}

	logging.Knowledge("Loaded knowledge document %s (%d bytes)", path, len(data))
	return string(data), nil
}
