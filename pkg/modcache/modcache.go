// Package modcache remembers which modules are importable from each entry of
// an interpreter's search path.
package modcache

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/clintharrison/go-ipydeps/pkg/pkgname"
	"github.com/pingcap/errors"
)

type Cache interface {
	// Invalidate forgets everything, so the next Refresh rescans.
	Invalidate()
	// Refresh scans any search path entry that is not cached yet.
	Refresh(ctx context.Context, paths []string) error
	// Modules lists the importable top-level modules seen so far.
	Modules() pkgname.Set
}

// DirCache caches the directory listing of each search path entry.
type DirCache struct {
	mu      sync.Mutex
	entries map[string]pkgname.Set
	Log     *slog.Logger
}

var _ Cache = (*DirCache)(nil)

func NewDirCache(log *slog.Logger) *DirCache {
	if log == nil {
		log = slog.Default()
	}
	return &DirCache{mu: sync.Mutex{}, entries: map[string]pkgname.Set{}, Log: log}
}

func (c *DirCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]pkgname.Set{}
}

func (c *DirCache) Refresh(ctx context.Context, paths []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return errors.AddStack(err)
		}
		if _, ok := c.entries[p]; ok {
			continue
		}
		mods, err := scan(p)
		if err != nil {
			// missing or unreadable entries are normal on sys.path
			c.Log.Debug("skipping search path entry", "path", p, "error", err)
			mods = pkgname.Set{}
		}
		c.entries[p] = mods
	}
	return nil
}

// Modules returns every cached top-level module name, normalized.
func (c *DirCache) Modules() pkgname.Set {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := pkgname.Set{}
	for _, mods := range c.entries {
		for m := range mods {
			out.Add(m)
		}
	}
	return out
}

func (c *DirCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

var moduleSuffixes = []string{".py", ".pyc", ".so", ".pyd"}

func scan(dir string) (pkgname.Set, error) {
	if dir == "" {
		dir = "."
	}
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "os.ReadDir(%q)", dir)
	}
	mods := pkgname.Set{}
	for _, de := range des {
		name := de.Name()
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") ||
			strings.HasSuffix(name, ".dist-info") || strings.HasSuffix(name, ".egg-info") {
			continue
		}
		if de.IsDir() {
			mods.Add(name)
			continue
		}
		for _, suffix := range moduleSuffixes {
			if base, ok := strings.CutSuffix(name, suffix); ok {
				// extension modules look like foo.cpython-311-x86_64-linux-gnu.so
				base, _, _ = strings.Cut(base, ".")
				mods.Add(base)
				break
			}
		}
	}
	return pkgname.Normalize(mods), nil
}
