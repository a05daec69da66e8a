package detectors

import (
	"context"
	"fmt"
	"image"

	"github.com/jnguyen/visual-aoi/internal/roi"
)

// BarcodeDetector implements §4.2.2: crop, encode to JPEG, hand the bytes to
// the opaque decoder, pass iff at least one non-empty string came back.
type BarcodeDetector struct{}

func NewBarcodeDetector() *BarcodeDetector { return &BarcodeDetector{} }

func (d *BarcodeDetector) Detect(ctx context.Context, frame image.Image, r *roi.ROI, pctx ProductContext) (Result, error) {
	jpegBytes, err := encodeJPEG(crop(frame, r.Coords), 90)
	if err != nil {
		return Result{}, fmt.Errorf("barcode: encode crop: %w", err)
	}

	decoder := pctx.BarcodeDecoder
	if decoder == nil {
		decoder = mockBarcodeDecoder{}
	}
	values, err := decoder.Decode(jpegBytes)
	if err != nil {
		return Result{}, fmt.Errorf("barcode: decode: %w", err)
	}

	passed := false
	for _, v := range values {
		if v != "" {
			passed = true
			break
		}
	}

	return Result{
		ROIID: r.ID, Kind: roi.TypeBarcode, Passed: passed,
		Barcode: &BarcodeResult{Values: values, Passed: passed},
	}, nil
}

// mockBarcodeDecoder is the deterministic fallback used when no real SDK
// binding is configured, matching the teacher's pattern of a mock detection
// path behind the same interface as the real one (cmd/ai-service/inference.go).
type mockBarcodeDecoder struct{}

func (mockBarcodeDecoder) Decode(jpegBytes []byte) ([]string, error) {
	return nil, nil
}
