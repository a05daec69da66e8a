// Package metrics exposes prometheus counters and histograms for the
// inspection pipeline — detector latency/outcome and golden-sample
// promotions — the same registry-plus-promhttp-handler shape the teacher's
// internal/metrics/collector.go uses for its own domain.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the process's AOI metrics registry.
type Collector struct {
	registry *prometheus.Registry

	detectorLatency *prometheus.HistogramVec
	detectorResult  *prometheus.CounterVec
	goldenPromotes  *prometheus.CounterVec
	inspections     *prometheus.CounterVec
	barcodeLinkFail prometheus.Counter
}

// NewCollector builds and registers every AOI metric.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		detectorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aoi_detector_duration_seconds",
			Help:    "Detector execution latency by ROI type.",
			Buckets: prometheus.DefBuckets,
		}, []string{"roi_type"}),
		detectorResult: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoi_detector_result_total",
			Help: "Detector pass/fail counts by ROI type.",
		}, []string{"roi_type", "result"}),
		goldenPromotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoi_golden_promotions_total",
			Help: "Golden-sample promotions by product.",
		}, []string{"product"}),
		inspections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoi_inspections_total",
			Help: "Completed inspections by overall result.",
		}, []string{"result"}),
		barcodeLinkFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aoi_barcode_link_failures_total",
			Help: "Barcode-link lookups that fell back to the raw value.",
		}),
	}

	reg.MustRegister(c.detectorLatency, c.detectorResult, c.goldenPromotes, c.inspections, c.barcodeLinkFail)
	return c
}

// ObserveDetector records one detector run's latency and pass/fail outcome.
func (c *Collector) ObserveDetector(roiType string, seconds float64, passed bool) {
	c.detectorLatency.WithLabelValues(roiType).Observe(seconds)
	result := "fail"
	if passed {
		result = "pass"
	}
	c.detectorResult.WithLabelValues(roiType, result).Inc()
}

// ObserveGoldenPromotion records one promotion for product.
func (c *Collector) ObserveGoldenPromotion(product string) {
	c.goldenPromotes.WithLabelValues(product).Inc()
}

// ObserveInspection records one completed inspection's overall result
// ("PASS" or "FAIL").
func (c *Collector) ObserveInspection(overallResult string) {
	c.inspections.WithLabelValues(overallResult).Inc()
}

// ObserveBarcodeLinkFailure increments the barcode-link fallback counter.
func (c *Collector) ObserveBarcodeLinkFailure() {
	c.barcodeLinkFail.Inc()
}

// Handler exposes the registry in the standard prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
