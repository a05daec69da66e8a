package devices

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jnguyen/visual-aoi/internal/detectors"
	"github.com/jnguyen/visual-aoi/internal/roi"
)

type fakeLinker struct {
	reachable bool
	linked    map[string]string
}

func (f fakeLinker) Lookup(ctx context.Context, raw string) (string, bool) {
	if !f.reachable {
		return "", false
	}
	v, ok := f.linked[raw]
	return v, ok
}

func barcodeResult(roiID, deviceID int, value string, passed bool) RoiResultView {
	return RoiResultView{
		Result:          detectors.Result{ROIID: roiID, Kind: roi.TypeBarcode, Passed: passed, Barcode: &detectors.BarcodeResult{Values: []string{value}, Passed: passed}},
		DeviceID:        deviceID,
		IsDeviceBarcode: true,
	}
}

func TestAggregateDevicePassFail(t *testing.T) {
	results := []RoiResultView{
		barcodeResult(1, 1, "ABC", true),
		{Result: detectors.Result{ROIID: 2, Kind: roi.TypeCompare, Passed: true}, DeviceID: 1},
		{Result: detectors.Result{ROIID: 3, Kind: roi.TypeCompare, Passed: false}, DeviceID: 2},
	}
	summary := Aggregate(context.Background(), results, nil, nil, nil)
	assert.Equal(t, 2, summary.TotalDevices)
	assert.Equal(t, 1, summary.PassCount)
	assert.Equal(t, 1, summary.FailCount)
	assert.Equal(t, "FAIL", summary.OverallResult)
}

func TestAggregateTriStateDeviceBarcodes(t *testing.T) {
	results := []RoiResultView{
		{Result: detectors.Result{ROIID: 1, Kind: roi.TypeCompare, Passed: true}, DeviceID: 1},
	}
	cached := map[int]string{1: "OLD"}

	// absent -> use cached
	s := Aggregate(context.Background(), results, nil, cached, nil)
	assert.Equal(t, "OLD", s.Devices[0].Barcode)

	// present-and-empty -> override with nothing
	empty := []Barcode{}
	s = Aggregate(context.Background(), results, &empty, cached, nil)
	assert.Equal(t, "", s.Devices[0].Barcode)

	// present-with-entries -> override with provided
	entries := []Barcode{{DeviceID: 1, Barcode: "NEW"}}
	s = Aggregate(context.Background(), results, &entries, cached, nil)
	assert.Equal(t, "NEW", s.Devices[0].Barcode)
}

func TestAggregateBarcodeLinkFallback(t *testing.T) {
	results := []RoiResultView{
		barcodeResult(1, 1, "RAW123", true),
	}
	unreachable := fakeLinker{reachable: false}
	s := Aggregate(context.Background(), results, nil, nil, unreachable)
	assert.Equal(t, "RAW123", s.Devices[0].Barcode)

	reachable := fakeLinker{reachable: true, linked: map[string]string{"RAW123": "LINKED-XYZ"}}
	s = Aggregate(context.Background(), results, nil, nil, reachable)
	assert.Equal(t, "LINKED-XYZ", s.Devices[0].Barcode)
}

func TestDevicePassedRequiresAllROIsPass(t *testing.T) {
	results := []RoiResultView{
		{Result: detectors.Result{ROIID: 1, Passed: true}, DeviceID: 1},
		{Result: detectors.Result{ROIID: 2, Passed: false}, DeviceID: 1},
	}
	s := Aggregate(context.Background(), results, nil, nil, nil)
	assert.False(t, s.Devices[0].Passed)
}
