// Package manifest owns the DLL manifest: the JSON list of relative module
// paths considered library content for the current build. The manifest is
// read at most once per process and written, debounced, by the
// manifest-producing build variant.
package manifest

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/bundleops/dllsplit/internal/logging"
	"github.com/bundleops/dllsplit/internal/safeio"
)

// FileName is the manifest file written under the DLL reference directory.
const FileName = "dll.manifest.json"

// PathUnder returns the manifest path for a reference directory.
func PathUnder(referenceDir string) string {
	return filepath.Join(referenceDir, FileName)
}

// Store caches the manifest contents for the life of the process. A load
// failure degrades to an empty set: classification then treats every module
// as business content. The warning for that case is suppressed when the
// active variant produces the manifest itself, since a missing file is the
// expected first-run state there.
type Store struct {
	rootDir      string
	path         string
	suppressWarn bool
	logger       *zap.Logger

	once sync.Once
	set  map[string]struct{}
}

func NewStore(rootDir, path string, suppressMissingWarning bool) *Store {
	return &Store{
		rootDir:      rootDir,
		path:         path,
		suppressWarn: suppressMissingWarning,
		logger:       logging.Logger(),
	}
}

// SetLogger overrides the store's logger. Intended for tests.
func (s *Store) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Contains reports whether the relative module path is DLL content,
// loading the manifest on first use.
func (s *Store) Contains(relativePath string) bool {
	s.once.Do(s.load)
	_, ok := s.set[relativePath]
	return ok
}

// Len returns the number of manifest entries, loading on first use.
func (s *Store) Len() int {
	s.once.Do(s.load)
	return len(s.set)
}

func (s *Store) load() {
	s.set = map[string]struct{}{}

	data, err := safeio.ReadFileUnder(s.rootDir, s.path)
	if err != nil {
		if !s.suppressWarn {
			s.logger.Warn("dll manifest unavailable, treating all modules as business content",
				zap.String("path", s.path),
				zap.Error(err))
		}
		return
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		if !s.suppressWarn {
			s.logger.Warn("dll manifest malformed, treating all modules as business content",
				zap.String("path", s.path),
				zap.Error(err))
		}
		return
	}
	for _, entry := range entries {
		s.set[entry] = struct{}{}
	}
}
