package module

import (
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"ocahooks/internal/manifest"
)

// DefaultCacheSize bounds each memo of a Cache.
const DefaultCacheSize = 1024

// Cache memoizes the upward walks of discovery. Keys are absolute dirs, so one
// Cache serves every repository of a run. golang-lru locks internally and the
// walks are pure, so concurrent use is fine.
type Cache struct {
	tops      *lru.Cache[string, string]
	manifests *lru.Cache[string, string]
}

// NewCache creates a cache holding up to size entries per memo.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New fails only for a non-positive size
	tops, _ := lru.New[string, string](size)
	manifests, _ := lru.New[string, string](size)
	return &Cache{tops: tops, manifests: manifests}
}

// TopPath returns the closest dir at or above dir holding a .git entry, or
// the filesystem root when there is none.
func (c *Cache) TopPath(dir string) string {
	if top, ok := c.tops.Get(dir); ok {
		return top
	}
	top := dir
	for {
		if _, err := os.Lstat(filepath.Join(top, ".git")); err == nil {
			break
		}
		parent := filepath.Dir(top)
		if parent == top {
			break
		}
		top = parent
	}
	c.tops.Add(dir, top)
	return top
}

// ManifestFor walks up from dir to the repo top and returns the first
// manifest found, or "".
func (c *Cache) ManifestFor(dir string) string {
	if m, ok := c.manifests.Get(dir); ok {
		return m
	}
	top := c.TopPath(dir)
	found := ""
	for d := dir; ; {
		if m := manifest.Find(d); m != "" {
			found = m
			break
		}
		parent := filepath.Dir(d)
		if d == top || parent == d {
			break
		}
		d = parent
	}
	c.manifests.Add(dir, found)
	return found
}

// isFSRoot reports whether top is a filesystem root, which TopPath returns
// outside of any repository.
func isFSRoot(top string) bool {
	return filepath.Dir(top) == top
}
