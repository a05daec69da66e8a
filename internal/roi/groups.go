package roi

import "sort"

// Groups computes the dynamic ROI-group partition (§3.2): ROIs sharing one
// (focus, exposure) pair, keyed by GroupKey. Groups have no persistent
// identity — they are re-derived from the product's ROI list every time.
func Groups(rois []*ROI) map[string][]*ROI {
	out := map[string][]*ROI{}
	for _, r := range rois {
		key := r.GroupKey()
		out[key] = append(out[key], r)
	}
	return out
}

// GroupKeysInOrder returns the group keys in the order their first member
// appears in rois — the capture-order guarantee from §5 ("capture order is
// the order the groups appear in the configuration").
func GroupKeysInOrder(rois []*ROI) []string {
	seen := map[string]bool{}
	var keys []string
	for _, r := range rois {
		k := r.GroupKey()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// DevicesNeedingManualBarcode returns, in ascending order, every device_id
// present among rois that has no device-identifying barcode ROI
// (type=Barcode, is_device_barcode=true) — the client-side analysis from
// original_source/client/app.py::analyze_devices_needing_barcodes (§12),
// surfaced in the create-session response's devices_need_barcode field.
func DevicesNeedingManualBarcode(rois []*ROI) []int {
	devices := map[int]bool{}
	hasBarcode := map[int]bool{}
	for _, r := range rois {
		devices[r.DeviceID] = true
		if r.Type == TypeBarcode && r.IsDeviceBarcode {
			hasBarcode[r.DeviceID] = true
		}
	}
	var out []int
	for id := range devices {
		if !hasBarcode[id] {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
