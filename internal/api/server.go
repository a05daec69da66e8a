// Package api implements the AOI inspection server's HTTP surface: product
// and ROI config management, session lifecycle, and the inspect endpoint
// that drives the dispatcher and device aggregator. Route assembly mirrors
// the teacher's chi-based cmd/hlsd/main.go (chi.NewRouter + chi middleware
// stack), generalized from its VMS domain to the inspection domain.
package api

import (
	"sync/atomic"
	"time"

	"github.com/jnguyen/visual-aoi/internal/detectors"
	"github.com/jnguyen/visual-aoi/internal/devices"
	"github.com/jnguyen/visual-aoi/internal/dispatch"
	"github.com/jnguyen/visual-aoi/internal/eventbus"
	"github.com/jnguyen/visual-aoi/internal/golden"
	"github.com/jnguyen/visual-aoi/internal/inspection"
	"github.com/jnguyen/visual-aoi/internal/metrics"
	"github.com/jnguyen/visual-aoi/internal/product"
	"github.com/jnguyen/visual-aoi/internal/sharedfs"
)

// Server holds every dependency the HTTP handlers need. It is the single
// "coordinator object at startup" Design Notes §9 calls for in place of the
// teacher's scattered global singletons: camera state (as reported by the
// client — see handleCameraStatus in session_handlers.go), the golden-sample lock (inside
// golden.Store), and the product cache are all explicit fields here, built
// once in cmd/server/main.go and threaded through every handler.
type Server struct {
	Root         *sharedfs.Root
	Products     *product.Store
	Golden       *golden.Store
	FeatureCache *golden.FeatureCache
	Sessions     *inspection.Manager
	Dispatcher   *dispatch.Dispatcher
	Linker       devices.Linker
	Metrics      *metrics.Collector
	Events       *eventbus.Publisher

	BarcodeDecoder detectors.BarcodeDecoder
	OCREngine      detectors.OCREngine

	cameraReady atomic.Bool
}

// CameraReady reports the last camera-ready state the client reported.
// Session creation (C6's invariant) is gated on this.
func (s *Server) CameraReady() bool { return s.cameraReady.Load() }

// SetCameraReady updates the camera-ready flag; called from the
// PUT /api/v1/camera/status handler after the client's orchestrator
// reports a successful EnsureInitialized (or a failure).
func (s *Server) SetCameraReady(ready bool) { s.cameraReady.Store(ready) }

const staleSweepInterval = time.Hour

// StartBackgroundSweep periodically removes session directories older than
// maxAge (§4.6) until stop is closed.
func (s *Server) StartBackgroundSweep(stop <-chan struct{}, maxAge time.Duration) {
	ticker := time.NewTicker(staleSweepInterval)
	defer ticker.Stop()
	s.Sessions.SweepStale(maxAge)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Sessions.SweepStale(maxAge)
		}
	}
}
