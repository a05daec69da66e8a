// Package product implements the per-product ROI configuration store (C8):
// one JSON file per product under the shared root, an in-process LRU of
// decoded configs, and an fsnotify watch that invalidates a product's cache
// entry on out-of-band edits to its config file.
package product

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jnguyen/visual-aoi/internal/aoierr"
	"github.com/jnguyen/visual-aoi/internal/roi"
	"github.com/jnguyen/visual-aoi/internal/sharedfs"
)

// Store owns the products directory under the shared root.
type Store struct {
	root  *sharedfs.Root
	cache *lru.Cache[string, []*roi.ROI]

	mu sync.Mutex // guards file writes per-store, matching golden.Store's single promote mutex shape
}

// NewStore creates a Store backed by root, with an LRU of up to cacheSize
// decoded product configs.
func NewStore(root *sharedfs.Root, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	c, err := lru.New[string, []*roi.ROI](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{root: root, cache: c}, nil
}

// ListProducts returns, sorted, the name of every subdirectory of
// config/products/, whether or not it holds a config file.
func (s *Store) ListProducts() ([]string, error) {
	dir, err := sharedfs.SafeJoin(s.root.Base(), "config", "products")
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, aoierr.Wrap(aoierr.Internal, "list products", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// CreateProduct creates an empty ROI config for name, failing if one
// already exists. description is recorded only as a sidecar comment-free
// metadata file; the ROI config itself carries no product-level fields.
func (s *Store) CreateProduct(name, description string) error {
	if name == "" {
		return aoierr.New(aoierr.InvalidInput, "product_name must not be empty")
	}
	path, err := s.root.ProductConfigPath(name)
	if err != nil {
		return aoierr.Wrap(aoierr.InvalidInput, "invalid product name", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return aoierr.New(aoierr.Conflict, fmt.Sprintf("product %q already exists", name))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return aoierr.Wrap(aoierr.Internal, "create product directory", err)
	}
	if err := writeROIFile(path, nil); err != nil {
		return aoierr.Wrap(aoierr.Internal, "write product config", err)
	}

	metaPath := filepath.Join(filepath.Dir(path), "meta.json")
	meta := map[string]string{"description": description}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(metaPath, b, 0o640)
	}
	return nil
}

// GetROIs returns the decoded ROI list for product, empty (not an error) if
// the product exists with zero ROIs. Serves from the LRU when present.
func (s *Store) GetROIs(product string) ([]*roi.ROI, error) {
	if rois, ok := s.cache.Get(product); ok {
		return rois, nil
	}
	rois, err := s.readFromDisk(product)
	if err != nil {
		return nil, err
	}
	s.cache.Add(product, rois)
	return rois, nil
}

func (s *Store) readFromDisk(product string) ([]*roi.ROI, error) {
	path, err := s.root.ProductConfigPath(product)
	if err != nil {
		return nil, aoierr.Wrap(aoierr.InvalidInput, "invalid product name", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, aoierr.Wrap(aoierr.NotFound, fmt.Sprintf("product %q not found", product), err)
		}
		return nil, aoierr.Wrap(aoierr.Internal, "read product config", err)
	}
	return DecodeROIFile(data)
}

// DecodeROIFile accepts either the legacy top-level array of raw entries
// (each itself legacy-array or object form) or the modern {"rois": [...]}
// envelope; each element is normalized through roi.Normalize (C1), so both
// the legacy array and modern object ROI shapes are accepted regardless of
// which envelope wraps them. Exported so cmd/roicheck can validate a config
// file offline without a Store.
func DecodeROIFile(data []byte) ([]*roi.ROI, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}

	var raws []json.RawMessage
	if strings.HasPrefix(trimmed, "{") {
		var envelope struct {
			ROIs []json.RawMessage `json:"rois"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, aoierr.Wrap(aoierr.InvalidInput, "decode rois envelope", err)
		}
		raws = envelope.ROIs
	} else {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, aoierr.Wrap(aoierr.InvalidInput, "decode rois array", err)
		}
	}

	out := make([]*roi.ROI, 0, len(raws))
	var errs []error
	for i, raw := range raws {
		r, err := roi.Normalize(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("roi[%d]: %w", i, err))
			continue
		}
		out = append(out, r)
	}
	if len(errs) > 0 {
		return nil, aoierr.Wrap(aoierr.InvalidInput, "invalid roi entries", joinErrors(errs))
	}
	return out, nil
}

// SaveROIs writes the modern object form of rois for product, collecting
// every validation error across the whole batch rather than stopping at the
// first (§7 validation policy), and invalidates the cache entry.
func (s *Store) SaveROIs(product string, rois []*roi.ROI) error {
	var errs []error
	for _, r := range rois {
		for _, verr := range roi.Validate(r, 0, 0) {
			errs = append(errs, fmt.Errorf("roi %d: %w", r.ID, verr))
		}
	}
	if len(errs) > 0 {
		return aoierr.Wrap(aoierr.InvalidInput, "roi validation failed", joinErrors(errs))
	}

	path, err := s.root.ProductConfigPath(product)
	if err != nil {
		return aoierr.Wrap(aoierr.InvalidInput, "invalid product name", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return aoierr.Wrap(aoierr.Internal, "create product directory", err)
	}
	if err := writeROIFile(path, rois); err != nil {
		return aoierr.Wrap(aoierr.Internal, "write product config", err)
	}
	s.cache.Remove(product)
	return nil
}

func writeROIFile(path string, rois []*roi.ROI) error {
	out := make([]roi.ServerROI, len(rois))
	for i, r := range rois {
		out[i] = roi.ToServer(r)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o640)
}

// NextROIID returns max(existing ids)+1, falling back to 1 for an empty
// list (§12 SUPPLEMENTED FEATURES, get_next_roi_index).
func NextROIID(rois []*roi.ROI) int {
	max := 0
	for _, r := range rois {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// Invalidate drops product's cached entry, used by the fsnotify watcher
// when the config file changes out-of-band.
func (s *Store) Invalidate(product string) {
	s.cache.Remove(product)
}

func joinErrors(errs []error) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// logf is the package's bracketed logger, matching the teacher's
// per-component log prefix convention.
func logf(format string, args ...interface{}) {
	log.Printf("[product] "+format, args...)
}
