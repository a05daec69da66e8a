package golden_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnguyen/visual-aoi/internal/golden"
	"github.com/jnguyen/visual-aoi/internal/sharedfs"
)

func newTestStore(t *testing.T) (*golden.Store, string) {
	t.Helper()
	base := t.TempDir()
	root := sharedfs.New(base)
	require.NoError(t, root.EnsureDirs())
	return golden.NewStore(root), base
}

func TestSaveInitialThenList(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveInitial("widgetA", 1, []byte("first")))

	paths, err := store.List("widgetA", 1)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "best_golden.jpg", filepath.Base(paths[0]))

	require.NoError(t, store.SaveInitial("widgetA", 1, []byte("second")))
	paths, err = store.List("widgetA", 1)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "best_golden.jpg", filepath.Base(paths[0]))
	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestPromoteSwapsBestAndBacksUpOld(t *testing.T) {
	store, base := newTestStore(t)
	require.NoError(t, store.SaveInitial("widgetA", 2, []byte("original best")))

	dir, err := sharedfs.New(base).GoldenROIDir("widgetA", 2)
	require.NoError(t, err)
	candidate := filepath.Join(dir, "candidate.jpg")
	require.NoError(t, os.WriteFile(candidate, []byte("candidate"), 0o640))

	require.NoError(t, store.Promote("widgetA", 2, candidate))

	best, err := store.BestGoldenPath("widgetA", 2)
	require.NoError(t, err)
	content, err := os.ReadFile(best)
	require.NoError(t, err)
	assert.Equal(t, "candidate", string(content))

	paths, err := store.List("widgetA", 2)
	require.NoError(t, err)
	assert.Len(t, paths, 2) // best_golden.jpg + the renamed backup
}

func TestPromoteIsAtomicUnderConcurrency(t *testing.T) {
	store, base := newTestStore(t)
	require.NoError(t, store.SaveInitial("widgetA", 3, []byte("v0")))
	dir, err := sharedfs.New(base).GoldenROIDir("widgetA", 3)
	require.NoError(t, err)

	const n = 10
	candidates := make([]string, n)
	for i := 0; i < n; i++ {
		candidates[i] = filepath.Join(dir, strPad(i)+".jpg")
		require.NoError(t, os.WriteFile(candidates[i], []byte("cand"), 0o640))
	}

	var wg sync.WaitGroup
	for _, c := range candidates {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			_ = store.Promote("widgetA", 3, path)
		}(c)
	}
	wg.Wait()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	bestCount := 0
	for _, e := range entries {
		if e.Name() == "best_golden.jpg" {
			bestCount++
		}
	}
	assert.Equal(t, 1, bestCount)
}

func strPad(i int) string {
	return "cand_" + string(rune('a'+i))
}
