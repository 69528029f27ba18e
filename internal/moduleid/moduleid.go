// Package moduleid assigns stable numeric IDs to business modules. DLL
// module IDs live below the business offset, so the two spaces never
// collide across bundles.
package moduleid

import (
	"fmt"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// BusinessOffset is the first ID available to business modules.
const BusinessOffset = 1 << 20

const relCacheSize = 4096

type Factory struct {
	rootDir string

	mu       sync.Mutex
	ids      map[string]int
	next     int
	relCache *lru.Cache[string, string]
}

func NewFactory(rootDir string) (*Factory, error) {
	cache, err := lru.New[string, string](relCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create path cache: %w", err)
	}
	return &Factory{
		rootDir:  rootDir,
		ids:      map[string]int{},
		next:     BusinessOffset,
		relCache: cache,
	}, nil
}

// ID returns the stable module ID and root-relative path for absolutePath.
// The same absolute path always yields the same ID for the life of the
// factory.
func (f *Factory) ID(absolutePath string) (int, string) {
	rel := f.relative(absolutePath)

	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.ids[rel]; ok {
		return id, rel
	}
	id := f.next
	f.next++
	f.ids[rel] = id
	return id, rel
}

// relative memoizes the absolute-to-relative conversion; the bundler
// resolves the same paths repeatedly during a serialization pass.
func (f *Factory) relative(absolutePath string) string {
	if cached, ok := f.relCache.Get(absolutePath); ok {
		return cached
	}
	rel, err := filepath.Rel(f.rootDir, absolutePath)
	if err != nil {
		rel = absolutePath
	}
	rel = filepath.ToSlash(rel)
	f.relCache.Add(absolutePath, rel)
	return rel
}
