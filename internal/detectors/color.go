package detectors

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/jnguyen/visual-aoi/internal/roi"
)

// ColorDetector implements §4.2.4. Expected-color mode resolves the
// expected RGB to one of twelve predefined named ranges and passes iff the
// matching-pixel percentage in that range clears min_pixel_percentage.
// Legacy ranges mode sums percentages per range name and compares the
// winning name's sum against its first-seen threshold.
type ColorDetector struct{}

func NewColorDetector() *ColorDetector { return &ColorDetector{} }

// colorRange is one of the twelve fixed boxes from the Python predecessor's
// get_color_range_from_expected, carried verbatim (§12 SUPPLEMENTED FEATURES).
type colorRange struct {
	Name             string
	RLo, RHi         int
	GLo, GHi         int
	BLo, BHi         int
}

func (cr colorRange) contains(r, g, b int) bool {
	return r >= cr.RLo && r <= cr.RHi && g >= cr.GLo && g <= cr.GHi && b >= cr.BLo && b <= cr.BHi
}

func (cr colorRange) midpoint() (r, g, b float64) {
	return float64(cr.RLo+cr.RHi) / 2, float64(cr.GLo+cr.GHi) / 2, float64(cr.BLo+cr.BHi) / 2
}

var predefinedColorRanges = []colorRange{
	{"Black", 0, 50, 0, 50, 0, 50},
	{"White", 230, 255, 230, 255, 230, 255},
	{"Gray", 80, 200, 80, 200, 80, 200},
	{"Red", 170, 255, 0, 90, 0, 90},
	{"Green", 0, 100, 170, 255, 0, 100},
	{"Blue", 0, 100, 0, 100, 170, 255},
	{"Yellow", 220, 255, 220, 255, 0, 120},
	{"Orange", 210, 255, 120, 200, 0, 80},
	{"Purple", 120, 220, 0, 100, 160, 255},
	{"Pink", 220, 255, 120, 200, 180, 255},
	{"Brown", 120, 200, 60, 140, 0, 80},
	{"Cyan", 0, 120, 180, 255, 180, 255},
}

// resolveColorRange picks the predefined range whose box contains the
// expected RGB, or failing that the one whose midpoint is nearest, matching
// "in-range OR distance < 80" (§12).
func resolveColorRange(expected [3]int) (colorRange, string) {
	r, g, b := float64(expected[0]), float64(expected[1]), float64(expected[2])

	var best colorRange
	bestDist := math.MaxFloat64
	for _, cr := range predefinedColorRanges {
		if cr.contains(expected[0], expected[1], expected[2]) {
			return cr, cr.Name
		}
		mr, mg, mb := cr.midpoint()
		d := math.Sqrt((r-mr)*(r-mr) + (g-mg)*(g-mg) + (b-mb)*(b-mb))
		if d < bestDist {
			bestDist = d
			best = cr
		}
	}
	if bestDist < 80 {
		return best, best.Name
	}
	return colorRange{}, fmt.Sprintf("Custom RGB(%d,%d,%d)", expected[0], expected[1], expected[2])
}

func (d *ColorDetector) Detect(ctx context.Context, frame image.Image, r *roi.ROI, pctx ProductContext) (Result, error) {
	cropped := denoise(crop(frame, r.Coords), 1)
	mr, mg, mb := meanRGB(cropped)
	dominant := [3]int{mr, mg, mb}

	cfg := r.ColorConfig
	if cfg == nil {
		return Result{}, fmt.Errorf("color: roi %d has no color_config", r.ID)
	}

	if cfg.IsExpectedColorMode() {
		return d.detectExpectedColor(cropped, dominant, r, cfg)
	}
	if cfg.IsRangesMode() {
		return d.detectLegacyRanges(cropped, dominant, r, cfg)
	}
	return Result{}, fmt.Errorf("color: roi %d color_config has neither expected_color nor color_ranges", r.ID)
}

func (d *ColorDetector) detectExpectedColor(cropped image.Image, dominant [3]int, r *roi.ROI, cfg *roi.ColorConfig) (Result, error) {
	var expected [3]int
	copy(expected[:], cfg.ExpectedColor)

	cr, name := resolveColorRange(expected)

	minPct := cfg.MinPixelPercentage
	if minPct <= 0 {
		minPct = 5.0
	}

	pct := maskedPercentage(cropped, cr)
	passed := pct >= minPct

	detectedName := "No Match"
	if passed {
		detectedName = name
	}

	return Result{
		ROIID: r.ID, Kind: roi.TypeColor, Passed: passed,
		Color: &ColorResult{
			DetectedColorName: detectedName,
			MatchPercentage:   pct,
			DominantRGB:       dominant,
			ExpectedColor:     cfg.ExpectedColor,
			Threshold:         minPct,
			Passed:            passed,
		},
	}, nil
}

func (d *ColorDetector) detectLegacyRanges(cropped image.Image, dominant [3]int, r *roi.ROI, cfg *roi.ColorConfig) (Result, error) {
	sums := map[string]float64{}
	thresholds := map[string]float64{}
	order := []string{}

	for _, rng := range cfg.ColorRanges {
		cr := colorRange{Name: rng.Name,
			RLo: rng.Lower[0], RHi: rng.Upper[0],
			GLo: rng.Lower[1], GHi: rng.Upper[1],
			BLo: rng.Lower[2], BHi: rng.Upper[2],
		}
		pct := maskedPercentage(cropped, cr)
		if _, ok := sums[rng.Name]; !ok {
			thresholds[rng.Name] = rng.Threshold
			order = append(order, rng.Name)
		}
		sums[rng.Name] += pct
	}

	var winner string
	var winnerSum float64 = -1
	for _, name := range order {
		if sums[name] > winnerSum {
			winnerSum = sums[name]
			winner = name
		}
	}

	passed := winnerSum >= thresholds[winner]

	return Result{
		ROIID: r.ID, Kind: roi.TypeColor, Passed: passed,
		Color: &ColorResult{
			DetectedColorName: winner,
			MatchPercentage:   winnerSum,
			DominantRGB:       dominant,
			Threshold:         thresholds[winner],
			Passed:            passed,
		},
	}, nil
}

// maskedPercentage returns the percentage of pixels in img that fall within
// cr's RGB box.
func maskedPercentage(img image.Image, cr colorRange) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	var match int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			r, g, bl := int(pr>>8), int(pg>>8), int(pb>>8)
			if cr.contains(r, g, bl) {
				match++
			}
		}
	}
	return 100 * float64(match) / float64(total)
}

