package manifest

import (
	"path/filepath"
	"strings"
)

// Classifier decides whether a module belongs to the DLL package. It is the
// predicate wired into the merged bundler configuration.
type Classifier struct {
	rootDir string
	store   *Store
}

func NewClassifier(rootDir string, store *Store) *Classifier {
	return &Classifier{rootDir: rootDir, store: store}
}

// IsDLL converts an absolute module path to a slash-separated path relative
// to the project root and looks it up in the manifest. Paths outside the
// root are never DLL content.
func (c *Classifier) IsDLL(absolutePath string) bool {
	rel, ok := c.Relative(absolutePath)
	if !ok {
		return false
	}
	return c.store.Contains(rel)
}

// Relative resolves absolutePath against the project root. ok is false when
// the path escapes the root.
func (c *Classifier) Relative(absolutePath string) (string, bool) {
	rel, err := filepath.Rel(c.rootDir, absolutePath)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// IsBaseDLLPath reports whether a relative module path matches the base-DLL
// heuristic: third-party content under node_modules, or a module that is
// itself one of the configured DLL entry specifiers.
func IsBaseDLLPath(relativePath string, dllEntries []string) bool {
	if strings.HasPrefix(relativePath, "node_modules/") || strings.Contains(relativePath, "/node_modules/") {
		return true
	}
	for _, entry := range dllEntries {
		if entry == "" {
			continue
		}
		if relativePath == entry || strings.HasPrefix(relativePath, entry+"/") {
			return true
		}
	}
	return false
}
