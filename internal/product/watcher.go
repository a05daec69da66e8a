package product

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// WatchConfigDir watches the products config directory for out-of-band
// writes to any rois_config_<name>.json file and invalidates that
// product's cache entry, the same fsnotify-with-graceful-degrade shape as
// the teacher's internal/license/watcher.go. If fsnotify is unavailable it
// logs and returns without watching; if the directory doesn't exist yet,
// the failed Add is ignored and nothing is watched. Either way a missing
// watch degrades to "always read from disk on cache miss", never a startup
// failure.
func (s *Store) WatchConfigDir(ctx context.Context) {
	dir, err := filepath.Abs(filepath.Join(s.root.Base(), "config", "products"))
	if err != nil {
		logf("resolve config dir: %v", err)
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logf("fsnotify unavailable (%v), products cache will rely on TTL-less reads", err)
		return
	}

	// fsnotify is not recursive: watch the parent directory plus every
	// existing product subdirectory (to notice edits to its
	// rois_config_<name>.json). fsnotify doesn't rescan on new-directory
	// creation, and the event for a new subdirectory itself is ignored, so
	// edits to a product created after this call are not watched until the
	// server restarts.
	_ = watcher.Add(dir)
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				_ = watcher.Add(filepath.Join(dir, e.Name()))
			}
		}
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					if name, ok := productNameFromConfigPath(ev.Name); ok {
						logf("config changed for product %q, invalidating cache", name)
						s.Invalidate(name)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logf("watcher error: %v", err)
			}
		}
	}()
}

func productNameFromConfigPath(path string) (string, bool) {
	base := filepath.Base(path)
	const prefix, suffix = "rois_config_", ".json"
	if !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, suffix) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(base, prefix), suffix), true
}
