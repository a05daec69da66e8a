package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jnguyen/visual-aoi/internal/aoierr"
	"github.com/jnguyen/visual-aoi/internal/detectors"
	"github.com/jnguyen/visual-aoi/internal/devices"
	"github.com/jnguyen/visual-aoi/internal/dispatch"
	"github.com/jnguyen/visual-aoi/internal/eventbus"
	"github.com/jnguyen/visual-aoi/internal/roi"
)

// capturedImage is one entry of the inspect request's captured_images map
// (§6.2), keyed upstream by "<focus>,<exposure>".
type capturedImage struct {
	Focus     int    `json:"focus"`
	Exposure  int    `json:"exposure"`
	ROIs      []int  `json:"rois,omitempty"`
	ImagePath string `json:"image_path"`
	Width     int    `json:"w"`
	Height    int    `json:"h"`
}

// inspectRequest mirrors §6.2's "Inspect" wire shape. DeviceBarcodes is a
// pointer to implement the tri-state contract (§7): nil when the key is
// absent from the JSON body, a non-nil empty slice when present-and-empty,
// non-nil non-empty otherwise.
type inspectRequest struct {
	SessionID      string                   `json:"session_id"`
	Product        string                   `json:"product"`
	CapturedImages map[string]capturedImage `json:"captured_images"`
	DeviceBarcodes *[]devices.Barcode       `json:"device_barcodes"`
}

type inspectResponse struct {
	DeviceSummaries []devices.DeviceSummary `json:"device_summaries"`
	Summary         devices.Summary         `json:"summary"`
	CaptureTime     float64                 `json:"capture_time"`
	ProcessingTime  float64                 `json:"processing_time"`
	TotalTime       float64                 `json:"total_time"`
	Timestamp       string                  `json:"timestamp"`
}

// handleInspect implements the "Inspect" operation (§6.2): decode each
// group's captured frame once, dispatch every ROI to its detector (C4),
// aggregate per-device verdicts with barcode linking (C5), persist the
// result artifact, and respond.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req inspectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := s.Sessions.Get(req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	productROIs, err := s.Products.GetROIs(req.Product)
	if err != nil {
		writeError(w, err)
		return
	}

	byID := make(map[int]*roi.ROI, len(productROIs))
	for _, rr := range productROIs {
		byID[rr.ID] = rr
	}

	configuredGroups := roi.Groups(productROIs)
	dispatchGroups := make(map[string]dispatch.Group, len(req.CapturedImages))
	for key, ci := range req.CapturedImages {
		rois, ok := configuredGroups[key]
		if !ok {
			log.Printf("[api] inspect %s: captured group %q has no matching configured ROIs, skipping", req.SessionID, key)
			continue
		}
		dispatchGroups[key] = dispatch.Group{
			Focus: ci.Focus, Exposure: ci.Exposure,
			ROIs: rois, ImagePath: ci.ImagePath, Width: ci.Width, Height: ci.Height,
		}
	}

	pctx := detectors.ProductContext{
		Product:        req.Product,
		GoldenStore:    s.Golden,
		FeatureCache:   s.FeatureCache,
		BarcodeDecoder: s.BarcodeDecoder,
		OCREngine:      s.OCREngine,
	}

	captureStart := time.Now()
	results, err := s.Dispatcher.Run(r.Context(), dispatchGroups, pctx)
	captureTime := time.Since(captureStart).Seconds()
	if err != nil {
		writeError(w, aoierr.Wrap(aoierr.Internal, "dispatch inspection", err))
		return
	}

	views := make([]devices.RoiResultView, 0, len(results))
	for _, res := range dispatch.ByROIID(results) {
		rr, ok := byID[res.ROIID]
		if !ok {
			continue
		}
		views = append(views, devices.RoiResultView{Result: res, DeviceID: rr.DeviceID, IsDeviceBarcode: rr.IsDeviceBarcode})
	}

	summary := devices.Aggregate(r.Context(), views, req.DeviceBarcodes, sess.CachedBarcodes(), s.Linker)
	sess.UpdateCachedBarcodes(summary.Devices)

	processingTime := time.Since(start).Seconds()
	resp := inspectResponse{
		DeviceSummaries: summary.Devices,
		Summary:         summary,
		CaptureTime:     captureTime,
		ProcessingTime:  processingTime,
		TotalTime:       processingTime,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}

	s.persistResult(sess.OutputDir, resp)

	if s.Metrics != nil {
		s.Metrics.ObserveInspection(summary.OverallResult)
	}
	if s.Events != nil {
		s.Events.PublishInspectionCompleted(eventbus.InspectionCompleted{
			SessionID: req.SessionID, Product: req.Product, OverallResult: summary.OverallResult,
			TotalDevices: summary.TotalDevices, PassCount: summary.PassCount, FailCount: summary.FailCount,
			ProcessingTime: processingTime, TimestampUnix: time.Now().Unix(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// persistResult writes results.json to the session's output directory
// (§6.1) — a best-effort artifact write; a failure here is logged, not
// surfaced, since the response to the caller has already been assembled.
func (s *Server) persistResult(outputDir string, resp inspectResponse) {
	if outputDir == "" {
		return
	}
	b, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		log.Printf("[api] marshal results.json: %v", err)
		return
	}
	path := filepath.Join(outputDir, "results.json")
	if err := os.WriteFile(path, b, 0o640); err != nil {
		log.Printf("[api] write %s: %v", path, err)
	}
}
