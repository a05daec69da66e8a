package sharedfs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnguyen/visual-aoi/internal/sharedfs"
)

func TestEnsureDirsAndSubpaths(t *testing.T) {
	base := t.TempDir()
	root := sharedfs.New(base)
	require.NoError(t, root.EnsureDirs())

	capturesDir, err := root.SessionCapturesDir("sess-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "sessions", "sess-1", "captures"), capturesDir)

	goldenDir, err := root.GoldenROIDir("widgetA", 3)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "golden_samples", "widgetA", "roi_3"), goldenDir)

	cfgPath, err := root.ProductConfigPath("widgetA")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "config", "products", "widgetA", "rois_config_widgetA.json"), cfgPath)
}

func TestSafeJoinRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	_, err := sharedfs.SafeJoin(base, "..", "etc", "passwd")
	assert.Error(t, err)

	_, err = sharedfs.SafeJoin(base, "/etc/passwd")
	assert.Error(t, err)

	_, err = sharedfs.SafeJoin(base, "sessions", "..", "..", "outside")
	assert.Error(t, err)
}

func TestSweepTempRemovesOldSessions(t *testing.T) {
	base := t.TempDir()
	root := sharedfs.New(base)
	require.NoError(t, root.EnsureDirs())

	oldDir := filepath.Join(base, "sessions", "old-session")
	require.NoError(t, os.MkdirAll(oldDir, 0o750))
	oldTime := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldDir, oldTime, oldTime))

	freshDir := filepath.Join(base, "sessions", "fresh-session")
	require.NoError(t, os.MkdirAll(freshDir, 0o750))

	removed, err := root.SweepTemp(24 * time.Hour)
	require.NoError(t, err)
	assert.Contains(t, removed, oldDir)
	assert.NotContains(t, removed, freshDir)
	_, statErr := os.Stat(oldDir)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(freshDir)
	assert.NoError(t, statErr)
}
