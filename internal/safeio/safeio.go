// Package safeio confines file access to a root directory, so repository
// paths supplied on the command line cannot read or write outside it.
package safeio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// confine resolves targetPath against rootDir and returns the absolute root
// plus the cleaned path of the target relative to it. Paths that resolve
// outside the root are rejected.
func confine(rootDir, targetPath string) (rootAbs, rel string, err error) {
	rootAbs, err = filepath.Abs(rootDir)
	if err != nil {
		return "", "", fmt.Errorf("resolve root path: %w", err)
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return "", "", fmt.Errorf("resolve target path: %w", err)
	}

	rel, err = filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return "", "", fmt.Errorf("compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", "", fmt.Errorf("path escapes root: %s", targetPath)
	}
	return rootAbs, filepath.Clean(rel), nil
}

// ReadFileUnder reads targetPath only if it resolves under rootDir.
func ReadFileUnder(rootDir, targetPath string) ([]byte, error) {
	rootAbs, rel, err := confine(rootDir, targetPath)
	if err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(rootAbs)
	if err != nil {
		return nil, fmt.Errorf("open root: %w", err)
	}
	defer root.Close()

	file, err := root.Open(rel)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// ReadFile reads the exact targetPath by opening its parent directory as a
// root. It exists for files whose location is configuration, not input.
func ReadFile(targetPath string) ([]byte, error) {
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, fmt.Errorf("resolve target path: %w", err)
	}

	root, err := os.OpenRoot(filepath.Dir(targetAbs))
	if err != nil {
		return nil, fmt.Errorf("open parent root: %w", err)
	}
	defer root.Close()

	file, err := root.Open(filepath.Base(targetAbs))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// WriteFileUnder writes targetPath only if it resolves under rootDir,
// creating intermediate directories as needed.
func WriteFileUnder(rootDir, targetPath string, data []byte, perm os.FileMode) error {
	rootAbs, rel, err := confine(rootDir, targetPath)
	if err != nil {
		return err
	}

	targetAbs := filepath.Join(rootAbs, rel)
	if err := os.MkdirAll(filepath.Dir(targetAbs), 0o750); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}
	return os.WriteFile(targetAbs, data, perm)
}
