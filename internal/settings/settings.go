// Package settings manages per-project filesystem state: a temp directory
// keyed by a hash of the project's absolute path, used to persist the
// shallow index document and the deep index's SQLite file.
package settings

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// ProjectTempDir returns the directory codeindex uses to persist state for
// the project at absProjectPath, creating it if it doesn't already exist.
// The directory name is derived from a SHA-256 hash of the absolute path so
// two different projects never collide and the same project always maps
// back to the same directory across runs.
func ProjectTempDir(absProjectPath string) (string, error) {
	key := projectKey(absProjectPath)
	dir := filepath.Join(os.TempDir(), "codeindex", key)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	return dir, nil
}

func projectKey(absProjectPath string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(absProjectPath)))
	return hex.EncodeToString(sum[:])[:16]
}
