package manifest

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bundleops/dllsplit/internal/logging"
	"github.com/bundleops/dllsplit/internal/safeio"
)

// DefaultDebounce is the quiet period that must elapse after the last
// visited module before the manifest is written.
const DefaultDebounce = 1500 * time.Millisecond

// Collector accumulates module paths during a manifest-producing build and
// writes the manifest after a debounce window with no further visits.
// Repeated paths are deduplicated at write time; insertion order is
// preserved otherwise. Write failures are logged, never fatal: the build
// must not abort on manifest I/O errors.
//
// The bundler's serialization pass is single-threaded, but the debounce
// timer fires on its own goroutine, so the accumulators are mutex-guarded.
type Collector struct {
	rootDir  string
	path     string
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	timer    *time.Timer
	library  []string
	business []string
}

func NewCollector(rootDir, path string, debounce time.Duration) *Collector {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Collector{
		rootDir:  rootDir,
		path:     path,
		debounce: debounce,
		logger:   logging.Logger(),
	}
}

// SetLogger overrides the collector's logger. Intended for tests.
func (c *Collector) SetLogger(l *zap.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Visit records one module path and restarts the debounce timer. library
// selects which accumulator receives the path.
func (c *Collector) Visit(relativePath string, library bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if library {
		c.library = append(c.library, relativePath)
	} else {
		c.business = append(c.business, relativePath)
	}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		if err := c.Flush(); err != nil {
			c.logger.Warn("dll manifest write failed, build continues",
				zap.String("path", c.path),
				zap.Error(err))
		}
	})
}

// Flush writes the manifest immediately, cancelling any pending debounce.
func (c *Collector) Flush() error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	entries := dedupe(c.library)
	c.mu.Unlock()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return safeio.WriteFileUnder(c.rootDir, c.path, append(data, '\n'), 0o644)
}

// Stop cancels a pending debounce without writing. A stopped collector can
// still be visited again.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// LibraryPaths returns the deduplicated library accumulator.
func (c *Collector) LibraryPaths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return dedupe(c.library)
}

// BusinessPaths returns the deduplicated business accumulator.
func (c *Collector) BusinessPaths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return dedupe(c.business)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}
