// Command client runs the AOI client orchestrator (C7): it drives the
// camera through a product's ROI groups and talks to the inspection
// server. A small chi-routed local control API lets an operator trigger a
// capture cycle and fetch the last result without embedding a UI here
// (§1 explicitly scopes the web UI out).
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jnguyen/visual-aoi/internal/camera"
	"github.com/jnguyen/visual-aoi/internal/clientapp"
	"github.com/jnguyen/visual-aoi/internal/config"
	"github.com/jnguyen/visual-aoi/internal/devices"
	"github.com/jnguyen/visual-aoi/internal/sharedfs"
)

// controlServer exposes the client's local capture-cycle API and caches the
// most recent result for polling, the same "last result held in memory"
// shape the teacher's live-detection endpoints use for their latest frame.
type controlServer struct {
	orch    *clientapp.Orchestrator
	product string

	mu     sync.Mutex
	last   *clientapp.CycleResult
	lastAt time.Time
	lastErr string
}

func (s *controlServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/cycle", s.handleRunCycle)
	r.Get("/cycle/last", s.handleLastResult)
	return r
}

type runCycleRequest struct {
	DeviceBarcodes *[]devices.Barcode `json:"device_barcodes,omitempty"`
}

func (s *controlServer) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	var req runCycleRequest
	if r.ContentLength > 0 {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 190*time.Second)
	defer cancel()

	result, err := s.orch.RunCycle(ctx, s.product, req.DeviceBarcodes)

	s.mu.Lock()
	s.lastAt = time.Now()
	if err != nil {
		s.lastErr = err.Error()
		s.last = nil
	} else {
		s.lastErr = ""
		s.last = result
	}
	s.mu.Unlock()

	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *controlServer) handleLastResult(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil && s.lastErr == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no cycle run yet"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": s.last, "error": s.lastErr, "at": s.lastAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[client] encode response: %v", err)
	}
}

func main() {
	cfgPath := os.Getenv("AOI_CLIENT_CONFIG")
	cfg := config.LoadClient(cfgPath)

	if cfg.Product == "" {
		log.Fatalf("[client] AOI_PRODUCT must be set")
	}

	root := sharedfs.New(cfg.SharedRoot)
	if err := root.EnsureDirs(); err != nil {
		log.Fatalf("[client] ensure shared root dirs: %v", err)
	}

	driver := camera.NewMockDriver(1920, 1080)
	controller := camera.NewController(driver, cfg.CameraSerial)

	serverClient := clientapp.NewServerClient(cfg.ServerURL, cfg.MetaTimeout, cfg.InspectTimeout)
	orch := clientapp.NewOrchestrator(controller, root, serverClient, cfg.SettleDelay)

	ctrl := &controlServer{orch: orch, product: cfg.Product}

	listenAddr := os.Getenv("AOI_CLIENT_LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8090"
	}
	httpServer := &http.Server{Addr: listenAddr, Handler: ctrl.router()}

	go func() {
		log.Printf("[client] local control API listening on %s (product=%s, server=%s)", listenAddr, cfg.Product, cfg.ServerURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[client] listen: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("[client] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[client] shutdown: %v", err)
	}
}
