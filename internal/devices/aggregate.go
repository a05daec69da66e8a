package devices

import (
	"context"
	"sort"

	"github.com/jnguyen/visual-aoi/internal/detectors"
	"github.com/jnguyen/visual-aoi/internal/roi"
)

// Barcode is one client-supplied (device_id, barcode) entry from an
// inspect request (§3.6).
type Barcode struct {
	DeviceID int    `json:"device_id"`
	Barcode  string `json:"barcode"`
}

// RoiResultView is the presentation-facing form of a detector Result
// alongside the ROI metadata the aggregator needs (device_id,
// is_device_barcode) but a bare detectors.Result doesn't carry.
type RoiResultView struct {
	detectors.Result
	DeviceID        int  `json:"device_id"`
	IsDeviceBarcode bool `json:"is_device_barcode"`
}

// DeviceSummary is one device's verdict, per §3.7.
type DeviceSummary struct {
	DeviceID    int             `json:"device_id"`
	Barcode     string          `json:"barcode"`
	Passed      bool            `json:"device_passed"`
	ROIResults  []RoiResultView `json:"roi_results"`
}

// Summary is the top-level aggregated verdict, per §3.7.
type Summary struct {
	OverallResult string          `json:"overall_result"` // "PASS" or "FAIL"
	TotalDevices  int             `json:"total_devices"`
	PassCount     int             `json:"pass_count"`
	FailCount     int             `json:"fail_count"`
	Devices       []DeviceSummary `json:"-"`
}

// Aggregate groups results by the device_id of their originating ROI and
// produces the device/overall verdict per §4.5.
//
// deviceBarcodes implements the tri-state contract from §7: nil means
// "absent — use cached", a non-nil empty slice means "present-and-empty —
// override with nothing", and a non-nil non-empty slice means "override
// with these entries". cached supplies the per-device fallback when the
// key is absent.
func Aggregate(ctx context.Context, results []RoiResultView, deviceBarcodes *[]Barcode, cached map[int]string, linker Linker) Summary {
	byDevice := map[int][]RoiResultView{}
	var deviceOrder []int
	for _, r := range results {
		if _, ok := byDevice[r.DeviceID]; !ok {
			deviceOrder = append(deviceOrder, r.DeviceID)
		}
		byDevice[r.DeviceID] = append(byDevice[r.DeviceID], r)
	}
	sort.Ints(deviceOrder)

	override := resolveOverride(deviceBarcodes)

	summary := Summary{}
	for _, id := range deviceOrder {
		roiResults := byDevice[id]

		var raw string
		if override != nil {
			// deviceBarcodes was present in the request (empty or not): it
			// fully determines the per-device raw value, falling back to
			// "" rather than optical/cache for any device it omits — this
			// is what makes present-and-empty distinct from absent (§7).
			raw = override[id]
		} else {
			raw = firstOpticalBarcode(roiResults)
			if raw == "" {
				raw = cached[id]
			}
		}

		linked := LookupOrRaw(ctx, linker, raw)

		passed := true
		for _, rr := range roiResults {
			if !rr.Passed {
				passed = false
				break
			}
		}

		ds := DeviceSummary{DeviceID: id, Barcode: linked, Passed: passed, ROIResults: roiResults}
		summary.Devices = append(summary.Devices, ds)
		summary.TotalDevices++
		if passed {
			summary.PassCount++
		} else {
			summary.FailCount++
		}
	}

	if summary.FailCount == 0 {
		summary.OverallResult = "PASS"
	} else {
		summary.OverallResult = "FAIL"
	}
	return summary
}

// firstOpticalBarcode returns the first non-empty decoded value among
// device-identifying barcode ROIs (is_device_barcode=true), per §4.5 step 1.
func firstOpticalBarcode(results []RoiResultView) string {
	for _, r := range results {
		if r.Kind != roi.TypeBarcode || !r.IsDeviceBarcode || r.Barcode == nil {
			continue
		}
		for _, v := range r.Barcode.Values {
			if v != "" {
				return v
			}
		}
	}
	return ""
}

// resolveOverride turns the tri-state *[]Barcode into a device_id->barcode
// map. It returns nil only when deviceBarcodes is nil; a present-but-empty
// slice yields a non-nil empty map, so the caller's nil check on the
// returned map tells "absent" from "present-empty".
func resolveOverride(deviceBarcodes *[]Barcode) map[int]string {
	if deviceBarcodes == nil {
		return nil
	}
	m := map[int]string{}
	for _, b := range *deviceBarcodes {
		m[b.DeviceID] = b.Barcode
	}
	return m
}
