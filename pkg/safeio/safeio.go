package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrTraversal       = errors.New("path traversal detected")
	ErrOutsideBase     = errors.New("file path is outside base directory")
	errResolveBase     = errors.New("failed to resolve base directory")
	errResolveFilePath = errors.New("failed to resolve file path")
)

// CleanUserPath cleans a user-provided path and rejects traversal attempts.
// Returns paths with forward slashes for cross-platform consistency.
func CleanUserPath(p string) (string, error) {
	c := filepath.Clean(p)
	for _, part := range strings.Split(filepath.ToSlash(c), "/") {
		if part == ".." {
			return "", ErrTraversal
		}
	}
	return filepath.ToSlash(c), nil
}

// ResolveContained joins rel onto baseDir and returns the absolute result,
// failing when it would escape baseDir. Absolute rel values are accepted only
// when they already sit inside baseDir.
func ResolveContained(baseDir, rel string) (string, error) {
	baseDirAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return "", errResolveBase
	}
	target := rel
	if !filepath.IsAbs(target) {
		target = filepath.Join(baseDirAbs, rel)
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return "", errResolveFilePath
	}
	r, err := filepath.Rel(baseDirAbs, targetAbs)
	if err != nil {
		return "", errResolveFilePath
	}
	if strings.HasPrefix(r, ".."+string(filepath.Separator)) || r == ".." {
		return "", ErrOutsideBase
	}
	return targetAbs, nil
}

// ReadFileContained reads a file only if it is contained within baseDir.
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	abs, err := ResolveContained(baseDir, filePath)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- abs has been verified to be contained within baseDir
	return os.ReadFile(abs)
}

// WriteFileContained writes data below baseDir, creating parent directories
// and preserving the mode of an existing file.
func WriteFileContained(baseDir, filePath string, data []byte) error {
	abs, err := ResolveContained(baseDir, filePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return err
	}
	return WriteFilePreservePerms(abs, data)
}

// WriteFilePreservePerms writes data to path preserving existing file mode when possible.
// When the file does not exist, it uses a sane default of 0644.
func WriteFilePreservePerms(path string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}
	return os.WriteFile(path, data, mode)
}
