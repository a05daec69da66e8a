// Command server runs the AOI inspection server: product/ROI config,
// golden-sample store, the ROI dispatcher and its detectors, device
// aggregation with barcode linking, and the session manager, all behind the
// chi-routed HTTP API in internal/api.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jnguyen/visual-aoi/internal/api"
	"github.com/jnguyen/visual-aoi/internal/config"
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

const featureCacheSize = 2048

func main() {
	cfgPath := os.Getenv("AOI_SERVER_CONFIG")
	cfg := config.LoadServer(cfgPath)

	root := sharedfs.New(cfg.SharedRoot)
	if err := root.EnsureDirs(); err != nil {
		log.Fatalf("[server] ensure shared root dirs: %v", err)
	}

	if err := detectors.InitCompareModel(cfg.ModelDir); err != nil {
		log.Printf("[server] compare model init: %v", err)
	}
	defer detectors.CloseCompareModel()

	productStore, err := product.NewStore(root, 256)
	if err != nil {
		log.Fatalf("[server] create product store: %v", err)
	}
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	productStore.WatchConfigDir(watchCtx)

	featureCache, err := golden.NewFeatureCacheWithRedis(featureCacheSize, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("[server] create feature cache: %v", err)
	}
	defer featureCache.Close()
	goldenStore := golden.NewStore(root)

	metricsCollector := metrics.NewCollector()
	goldenStore.OnPromote = metricsCollector.ObserveGoldenPromotion

	disp := dispatch.New()
	if cfg.Workers > 0 {
		disp.Workers = cfg.Workers
	}
	disp.OnResult = func(roiType string, d time.Duration, passed bool) {
		metricsCollector.ObserveDetector(roiType, d.Seconds(), passed)
	}

	var linker devices.Linker
	if cfg.BarcodeLinkURL != "" {
		httpLinker := devices.NewHTTPLinker(cfg.BarcodeLinkURL)
		httpLinker.OnFallback = metricsCollector.ObserveBarcodeLinkFailure
		linker = httpLinker
	}

	events := eventbus.Connect(cfg.NATSURL)
	defer events.Close()

	srv := &api.Server{
		Root:         root,
		Products:     productStore,
		Golden:       goldenStore,
		FeatureCache: featureCache,
		Dispatcher:   disp,
		Linker:       linker,
		Metrics:      metricsCollector,
		Events:       events,
	}
	srv.Sessions = inspection.NewManager(root, srv.CameraReady)

	stop := make(chan struct{})
	go srv.StartBackgroundSweep(stop, cfg.StaleSweep)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 185 * time.Second, // above the 180s inspect timeout (§5)
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[server] listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] listen: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("[server] shutting down")

	close(stop)
	srv.Sessions.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
}
