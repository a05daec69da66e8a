package detectors

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/jnguyen/visual-aoi/internal/roi"
)

// OCRDetector implements §4.2.3: crop, optionally rotate by a multiple of
// 90 degrees expanding the canvas, read text, then either substring-match
// against an expected reference or accept any non-empty read.
type OCRDetector struct{}

func NewOCRDetector() *OCRDetector { return &OCRDetector{} }

func (d *OCRDetector) Detect(ctx context.Context, frame image.Image, r *roi.ROI, pctx ProductContext) (Result, error) {
	cropped := image.Image(crop(frame, r.Coords))
	if r.Rotation != 0 {
		cropped = rotate90N(cropped, r.Rotation)
	}

	jpegBytes, err := encodeJPEG(cropped, 90)
	if err != nil {
		return Result{}, fmt.Errorf("ocr: encode crop: %w", err)
	}

	engine := pctx.OCREngine
	if engine == nil {
		engine = mockOCREngine{}
	}
	lines, err := engine.ReadText(jpegBytes)
	if err != nil {
		return Result{}, fmt.Errorf("ocr: read text: %w", err)
	}
	detected := strings.Join(lines, " ")

	var passed bool
	var tagged string
	if r.ExpectedText != nil && *r.ExpectedText != "" {
		expected := *r.ExpectedText
		passed = strings.Contains(strings.ToLower(detected), strings.ToLower(expected))
		if passed {
			tagged = fmt.Sprintf("[PASS: Contains '%s']", expected)
		} else {
			tagged = fmt.Sprintf("[FAIL: Expected '%s', detected '%s']", expected, detected)
		}
	} else {
		passed = detected != ""
		if passed {
			tagged = fmt.Sprintf("[PASS: Contains '%s']", detected)
		} else {
			tagged = "[FAIL: Expected '', detected '']"
		}
	}

	return Result{
		ROIID: r.ID, Kind: roi.TypeOCR, Passed: passed,
		OCR: &OcrResult{
			Text:     strings.TrimSpace(detected + " " + tagged),
			Expected: r.ExpectedText,
			Passed:   passed,
			Rotation: r.Rotation,
		},
	}, nil
}

// mockOCREngine is the deterministic fallback used when no real OCR backend
// is configured.
type mockOCREngine struct{}

func (mockOCREngine) ReadText(jpegBytes []byte) ([]string, error) {
	return nil, nil
}
