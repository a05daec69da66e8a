// Package sharedfs resolves and guards the filesystem root that the server
// and client both read/write: session captures and output artifacts,
// golden-sample images, product configuration, and scratch temp files.
package sharedfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultRoot matches the mount point the client orchestrator expects.
const DefaultRoot = "/mnt/visual-aoi-shared"

const (
	sessionsDir = "sessions"
	goldenDir   = "golden_samples"
	tempDir     = "temp"
	configDir   = "config"
)

// Root is a filesystem root all path construction is anchored to; every
// derived path is checked against traversal outside this root.
type Root struct {
	base string
}

// ResolveRoot reads AOI_SHARED_ROOT, falling back to DefaultRoot.
func ResolveRoot() string {
	if v := os.Getenv("AOI_SHARED_ROOT"); v != "" {
		return v
	}
	return DefaultRoot
}

// New creates a Root anchored at base.
func New(base string) *Root {
	return &Root{base: base}
}

// EnsureDirs creates the standard subtrees if they don't exist.
func (r *Root) EnsureDirs() error {
	for _, sub := range []string{sessionsDir, goldenDir, tempDir, configDir} {
		path := filepath.Join(r.base, sub)
		if err := os.MkdirAll(path, 0o750); err != nil {
			return fmt.Errorf("sharedfs: create %s: %w", path, err)
		}
	}
	return nil
}

// SafeJoin joins elements onto base and rejects any element that is
// absolute, UNC, or that resolves outside base — the one path-traversal
// gate every subtree helper below funnels through.
func SafeJoin(base string, elements ...string) (string, error) {
	for _, el := range elements {
		if filepath.IsAbs(el) || strings.HasPrefix(el, `\\`) || strings.Contains(el, "..") {
			return "", fmt.Errorf("sharedfs: path traversal attempt in element %q", el)
		}
	}
	joined := filepath.Join(append([]string{base}, elements...)...)

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", err
	}
	if absJoined != absBase && !strings.HasPrefix(absJoined, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("sharedfs: %s resolves outside root %s", absJoined, absBase)
	}
	return absJoined, nil
}

// Base returns the root's anchor path.
func (r *Root) Base() string { return r.base }

// SessionDir returns (and does not create) sessions/<id>.
func (r *Root) SessionDir(sessionID string) (string, error) {
	return SafeJoin(r.base, sessionsDir, sessionID)
}

// SessionCapturesDir returns sessions/<id>/captures.
func (r *Root) SessionCapturesDir(sessionID string) (string, error) {
	return SafeJoin(r.base, sessionsDir, sessionID, "captures")
}

// SessionOutputDir returns sessions/<id>/output.
func (r *Root) SessionOutputDir(sessionID string) (string, error) {
	return SafeJoin(r.base, sessionsDir, sessionID, "output")
}

// GoldenROIDir returns golden_samples/<product>/roi_<id>.
func (r *Root) GoldenROIDir(product string, roiID int) (string, error) {
	return SafeJoin(r.base, goldenDir, product, fmt.Sprintf("roi_%d", roiID))
}

// TempDir returns temp/<name>.
func (r *Root) TempDir(name string) (string, error) {
	return SafeJoin(r.base, tempDir, name)
}

// ProductConfigPath returns config/products/<name>/rois_config_<name>.json.
func (r *Root) ProductConfigPath(name string) (string, error) {
	return SafeJoin(r.base, configDir, "products", name, fmt.Sprintf("rois_config_%s.json", name))
}

// SweepTemp removes entries under sessions/ whose modification time is older
// than maxAge — the 24h crash-recovery sweep from the session manager's
// cleanup responsibility.
func (r *Root) SweepTemp(maxAge time.Duration) ([]string, error) {
	root := filepath.Join(r.base, sessionsDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("sharedfs: read %s: %w", root, err)
	}

	var removed []string
	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(root, e.Name())
		if err := os.RemoveAll(path); err != nil {
			continue
		}
		removed = append(removed, path)
	}
	return removed, nil
}
