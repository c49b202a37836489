package module

import (
	"os"
	"path/filepath"
	"sort"
)

// Group is one module found by discovery with the inputs that led to it.
type Group struct {
	Manifest string
	// Root is the base of short paths: the repo top, or the addons dir when
	// the module is outside of any repository.
	Root    string
	Changed []string
}

// Discover sorts paths and groups them by the manifest of the module they
// belong to. Groups keep first-seen order; paths outside of every module are
// returned in dropped.
func Discover(paths []string, cache *Cache) (groups []Group, dropped []string) {
	if cache == nil {
		cache = NewCache(0)
	}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	index := make(map[string]int)
	for _, p := range sorted {
		abs, err := filepath.Abs(p)
		if err != nil {
			dropped = append(dropped, p)
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			dropped = append(dropped, p)
			continue
		}
		dir := abs
		if !info.IsDir() {
			dir = filepath.Dir(abs)
		}
		m := cache.ManifestFor(dir)
		if m == "" {
			dropped = append(dropped, p)
			continue
		}
		i, ok := index[m]
		if !ok {
			root := cache.TopPath(dir)
			if isFSRoot(root) {
				root = filepath.Dir(filepath.Dir(m))
			}
			i = len(groups)
			index[m] = i
			groups = append(groups, Group{Manifest: m, Root: root})
		}
		groups[i].Changed = append(groups[i].Changed, abs)
	}
	return groups, dropped
}
