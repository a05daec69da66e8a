// Package dispatch implements the per-ROI-group batch dispatcher (C4): it
// decodes each group's captured frame once and fans its ROIs out to the
// detector registry through a bounded worker pool, matching the worker-pool
// shape of the teacher's vendor adapter pipeline but built on
// golang.org/x/sync/errgroup (§11 DOMAIN STACK) instead of a hand-rolled
// channel pool.
package dispatch

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"log"
	"os"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jnguyen/visual-aoi/internal/detectors"
	"github.com/jnguyen/visual-aoi/internal/roi"
)

// Group is one captured frame and the ROIs it services, keyed upstream by
// "<focus>,<exposure>" (§3.2). ImagePath is the client-written capture on
// the shared mount; the dispatcher reads it exactly once per group.
type Group struct {
	Focus     int
	Exposure  int
	ROIs      []*roi.ROI
	ImagePath string
	Width     int
	Height    int
}

// Dispatcher fans ROI detection out across a bounded worker pool. Workers
// defaults to runtime.NumCPU(), per §5's "worker pool; suggested size ≈ CPU
// count".
type Dispatcher struct {
	Workers int

	// OnResult, if set, is called after every detector run with its
	// wall-clock duration — an optional observation hook so callers can
	// wire latency metrics without this package importing a metrics
	// client directly.
	OnResult func(roiType string, d time.Duration, passed bool)
}

// New creates a Dispatcher with the suggested CPU-count worker pool size.
func New() *Dispatcher {
	return &Dispatcher{Workers: runtime.NumCPU()}
}

// Run decodes every group's frame once, dispatches every contained ROI to
// its registered detector concurrently (bounded by d.Workers), and returns
// every result. A single ROI's detector error never aborts the batch — it
// is converted to a failed Result and the dispatcher continues (§4.4, §7).
func (d *Dispatcher) Run(ctx context.Context, groups map[string]Group, pctx detectors.ProductContext) ([]detectors.Result, error) {
	workers := d.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type task struct {
		frame image.Image
		r     *roi.ROI
	}
	var tasks []task

	// Group keys are sorted only for deterministic logging; execution order
	// across groups is otherwise unconstrained (§5: "detectors may complete
	// in any order; results are reassembled by roi_id").
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		g := groups[key]
		frame, err := decodeFrame(g.ImagePath)
		if err != nil {
			log.Printf("[dispatcher] group %s: decode %s failed: %v — marking its %d ROI(s) failed", key, g.ImagePath, len(g.ROIs), len(g.ROIs))
			for _, r := range g.ROIs {
				tasks = append(tasks, task{frame: nil, r: r})
			}
			continue
		}
		for _, r := range g.ROIs {
			tasks = append(tasks, task{frame: frame, r: r})
		}
	}

	results := make([]detectors.Result, len(tasks))
	sem := make(chan struct{}, workers)
	eg, egCtx := errgroup.WithContext(ctx)

	for i, t := range tasks {
		i, t := i, t
		sem <- struct{}{}
		eg.Go(func() error {
			defer func() { <-sem }()
			results[i] = d.runOne(egCtx, t.frame, t.r, pctx)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	return results, nil
}

func (d *Dispatcher) runOne(ctx context.Context, frame image.Image, r *roi.ROI, pctx detectors.ProductContext) detectors.Result {
	start := time.Now()
	result := d.detectOne(ctx, frame, r, pctx)
	if d.OnResult != nil {
		d.OnResult(r.Type.String(), time.Since(start), result.Passed)
	}
	return result
}

func (d *Dispatcher) detectOne(ctx context.Context, frame image.Image, r *roi.ROI, pctx detectors.ProductContext) detectors.Result {
	if frame == nil {
		return detectors.Failed(r, fmt.Errorf("dispatch: no frame available for roi %d", r.ID))
	}

	det, err := detectors.Get(r.Type)
	if err != nil {
		return detectors.Failed(r, err)
	}

	result, err := det.Detect(ctx, frame, r, pctx)
	if err != nil {
		log.Printf("[dispatcher] roi %d (%s): detector error: %v", r.ID, r.Type, err)
		return detectors.Failed(r, err)
	}
	return result
}

// decodeFrame reads and decodes a captured-frame JPEG from the shared
// filesystem.
func decodeFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// ByROIID returns results sorted by ROIID, the stable presentation order
// the dispatcher's contract guarantees regardless of completion order.
func ByROIID(results []detectors.Result) []detectors.Result {
	out := make([]detectors.Result, len(results))
	copy(out, results)
	sort.Slice(out, func(i, j int) bool { return out[i].ROIID < out[j].ROIID })
	return out
}
