// Package golden manages the per-(product, ROI) set of golden reference
// images used by the Compare detector, including the best-golden promotion
// protocol.
package golden

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jnguyen/visual-aoi/internal/sharedfs"
)

const bestGoldenName = "best_golden.jpg"

// Store reads and mutates golden-sample directories under a shared root.
// promoteMu is a single process-wide mutex, not one per ROI: the dispatcher
// runs ROIs from many groups and many sessions concurrently, and two
// simultaneous promotions for the very same ROI are the scenario the lock
// exists to serialize, so one mutex for the whole store is both correct and
// sufficient — sharding it per ROI would only matter under contention this
// system never sees.
type Store struct {
	root      *sharedfs.Root
	promoteMu sync.Mutex

	// OnPromote, if set, is called after every successful promotion —
	// lets callers wire a metrics counter without this package importing
	// a metrics client directly.
	OnPromote func(product string)
}

// NewStore creates a Store rooted at root.
func NewStore(root *sharedfs.Root) *Store {
	return &Store{root: root}
}

// List returns the golden image paths for (product, roiID), with
// best_golden.jpg first when present, followed by the remaining .jpg files
// in filename order.
func (s *Store) List(product string, roiID int) ([]string, error) {
	dir, err := s.root.GoldenROIDir(product, roiID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("golden: list %s: %w", dir, err)
	}

	var best string
	var rest []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jpg" {
			continue
		}
		if e.Name() == bestGoldenName {
			best = filepath.Join(dir, e.Name())
			continue
		}
		rest = append(rest, filepath.Join(dir, e.Name()))
	}
	sort.Strings(rest)

	if best == "" {
		return rest, nil
	}
	return append([]string{best}, rest...), nil
}

// SaveInitial writes the first golden sample for (product, roiID),
// renaming any existing best_golden.jpg to original_<unix_s>.jpg first.
func (s *Store) SaveInitial(product string, roiID int, image []byte) error {
	dir, err := s.root.GoldenROIDir(product, roiID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("golden: mkdir %s: %w", dir, err)
	}

	best := filepath.Join(dir, bestGoldenName)
	if _, err := os.Stat(best); err == nil {
		backup := filepath.Join(dir, fmt.Sprintf("original_%d.jpg", time.Now().Unix()))
		if err := os.Rename(best, backup); err != nil {
			return fmt.Errorf("golden: backup existing best: %w", err)
		}
	}
	if err := os.WriteFile(best, image, 0o640); err != nil {
		return fmt.Errorf("golden: write best_golden.jpg: %w", err)
	}
	return nil
}

// Promote makes candidatePath the new best_golden.jpg for (product, roiID),
// atomically with respect to every other promotion in the process. The old
// best is preserved under a millisecond-timestamped backup name so
// collisions between rapid, concurrent promotions for the same ROI can't
// overwrite one another: if that name is already taken, the timestamp is
// advanced one millisecond at a time until the name is free.
func (s *Store) Promote(product string, roiID int, candidatePath string) error {
	s.promoteMu.Lock()
	defer s.promoteMu.Unlock()

	dir, err := s.root.GoldenROIDir(product, roiID)
	if err != nil {
		return err
	}
	best := filepath.Join(dir, bestGoldenName)

	if absBest, err := filepath.Abs(best); err == nil {
		if absCandidate, err := filepath.Abs(candidatePath); err == nil && absCandidate == absBest {
			return nil // already the best; nothing to do.
		}
	}

	if _, err := os.Stat(best); err == nil {
		ms := time.Now().UnixMilli()
		backup := filepath.Join(dir, fmt.Sprintf("%d_golden_sample.jpg", ms))
		for {
			if _, err := os.Stat(backup); err != nil {
				break
			}
			ms++
			backup = filepath.Join(dir, fmt.Sprintf("%d_golden_sample.jpg", ms))
		}
		if err := os.Rename(best, backup); err != nil {
			return fmt.Errorf("golden: backup current best: %w", err)
		}
	}

	if err := os.Rename(candidatePath, best); err != nil {
		return fmt.Errorf("golden: promote %s: %w", candidatePath, err)
	}
	if s.OnPromote != nil {
		s.OnPromote(product)
	}
	return nil
}

// BestGoldenPath returns the expected best_golden.jpg path for (product,
// roiID) without checking whether it exists.
func (s *Store) BestGoldenPath(product string, roiID int) (string, error) {
	dir, err := s.root.GoldenROIDir(product, roiID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, bestGoldenName), nil
}
