package detectors

import (
	"fmt"

	"github.com/jnguyen/visual-aoi/internal/roi"
)

// registry maps an ROI type to the detector that handles it, the same
// dispatch-by-kind shape as the NVR vendor adapter registry.
var registry = map[roi.Type]Detector{}

// Register installs a detector for a given ROI type. The four built-in
// detectors are registered by the init() at the bottom of this file.
func Register(t roi.Type, d Detector) {
	registry[t] = d
}

// Get returns the detector for t, or an error if none is registered —
// unlike the NVR registry there is no generic fallback: an ROI whose type
// has no detector is a configuration error, not a degraded mode.
func Get(t roi.Type) (Detector, error) {
	d, ok := registry[t]
	if !ok {
		return nil, fmt.Errorf("detectors: no detector registered for roi type %d", t)
	}
	return d, nil
}

func init() {
	Register(roi.TypeBarcode, NewBarcodeDetector())
	Register(roi.TypeCompare, NewCompareDetector())
	Register(roi.TypeOCR, NewOCRDetector())
	Register(roi.TypeColor, NewColorDetector())
}
