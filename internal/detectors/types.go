// Package detectors implements the four ROI detector algorithms (Compare,
// Barcode, OCR, Color) behind a common registry keyed by roi.Type.
package detectors

import (
	"context"
	"image"

	"github.com/jnguyen/visual-aoi/internal/golden"
	"github.com/jnguyen/visual-aoi/internal/roi"
)

// BarcodeDecoder is the opaque barcode-reading backend. Real barcode
// decoding is treated as a black-box dependency exactly like the client's
// OCR/AI inference is — callers plug in whatever decoder library they have;
// a deterministic fallback (mockBarcodeDecoder) lives in barcode.go for when
// none is configured.
type BarcodeDecoder interface {
	Decode(jpegBytes []byte) ([]string, error)
}

// OCREngine is the opaque OCR backend, same treatment as BarcodeDecoder.
type OCREngine interface {
	ReadText(jpegBytes []byte) ([]string, error)
}

// ProductContext carries everything a detector needs beyond the frame and
// ROI: which product it belongs to, and handles onto the shared golden
// store / feature cache / external engines.
type ProductContext struct {
	Product        string
	GoldenStore    *golden.Store
	FeatureCache   *golden.FeatureCache
	BarcodeDecoder BarcodeDecoder
	OCREngine      OCREngine
}

// Detector is the shared interface every ROI-type handler implements.
type Detector interface {
	Detect(ctx context.Context, frame image.Image, r *roi.ROI, pctx ProductContext) (Result, error)
}

// Result is the tagged RoiResult variant produced by any detector. Exactly
// one of Barcode/Compare/OCR/Color is populated, selected by Kind.
type Result struct {
	ROIID int      `json:"roi_id"`
	Kind  roi.Type `json:"roi_type"`

	Passed bool   `json:"passed"`
	Err    string `json:"error,omitempty"` // set, with Passed=false, when the detector itself failed

	Barcode *BarcodeResult `json:"barcode,omitempty"`
	Compare *CompareResult `json:"compare,omitempty"`
	OCR     *OcrResult     `json:"ocr,omitempty"`
	Color   *ColorResult   `json:"color,omitempty"`
}

type BarcodeResult struct {
	Values []string `json:"values"`
	Passed bool     `json:"passed"`
}

type CompareResult struct {
	CapturedCropPath  string  `json:"captured_crop,omitempty"`
	ReferenceCropPath string  `json:"reference_crop,omitempty"`
	Similarity        float64 `json:"similarity"`
	Threshold         float64 `json:"threshold"`
	Passed            bool    `json:"passed"`
}

type OcrResult struct {
	Text     string  `json:"text"`
	Expected *string `json:"expected,omitempty"`
	Passed   bool    `json:"passed"`
	Rotation int     `json:"rotation"`
}

type ColorResult struct {
	DetectedColorName string `json:"detected_color_name"`
	// MatchPercentage is the raw match value; for legacy color_ranges mode
	// summing multiple ranges sharing a name it can exceed 100 (§9 open
	// question). Use Display() for the UI-facing capped value.
	MatchPercentage float64 `json:"match_percentage"`
	DominantRGB     [3]int  `json:"dominant_rgb"`
	ExpectedColor   []int   `json:"expected_color,omitempty"`
	Threshold       float64 `json:"threshold"`
	Passed          bool    `json:"passed"`
}

// Display returns the match percentage capped at 100 for presentation,
// while MatchPercentage itself keeps the uncapped raw sum.
func (c *ColorResult) Display() float64 {
	if c.MatchPercentage > 100 {
		return 100
	}
	return c.MatchPercentage
}

// Failed builds the error-variant Result the dispatcher surfaces for a
// detector that raised instead of returning a value — a failing ROI never
// aborts the whole inspection (§4.4).
func Failed(r *roi.ROI, err error) Result {
	return Result{ROIID: r.ID, Kind: r.Type, Passed: false, Err: err.Error()}
}
