package detectors

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/jnguyen/visual-aoi/internal/golden"
	"github.com/jnguyen/visual-aoi/internal/roi"
)

const similarityEpsilon = 1e-8

// CompareDetector implements the visual-similarity-against-golden-sample
// algorithm from §4.2.1.
type CompareDetector struct{}

func NewCompareDetector() *CompareDetector { return &CompareDetector{} }

func (d *CompareDetector) Detect(ctx context.Context, frame image.Image, r *roi.ROI, pctx ProductContext) (Result, error) {
	captured := denoise(crop(frame, r.Coords), 2)

	threshold := 0.9
	if r.AIThreshold != nil {
		threshold = *r.AIThreshold
	}
	method := r.DetectionMethod
	if method == "" {
		method = "opencv"
	}

	capturedFeat := extractFeatures(captured, method)

	goldenPaths, err := pctx.GoldenStore.List(pctx.Product, r.ID)
	if err != nil {
		return Result{}, fmt.Errorf("compare: list golden samples: %w", err)
	}

	if len(goldenPaths) == 0 {
		return Result{
			ROIID: r.ID, Kind: roi.TypeCompare, Passed: false,
			Compare: &CompareResult{Similarity: 0, Threshold: threshold, Passed: false},
		}, nil
	}

	best := goldenPaths[0]
	bestSimilarity, err := d.similarityAgainst(ctx, best, captured, capturedFeat, method, pctx)
	if err != nil {
		return Result{}, fmt.Errorf("compare: best golden: %w", err)
	}
	if bestSimilarity+similarityEpsilon >= threshold {
		return matchResult(r, captured, best, bestSimilarity, threshold), nil
	}

	for _, candidate := range goldenPaths[1:] {
		sim, err := d.similarityAgainst(ctx, candidate, captured, capturedFeat, method, pctx)
		if err != nil {
			continue
		}
		if sim > bestSimilarity {
			bestSimilarity = sim
		}
		if sim+similarityEpsilon >= threshold {
			if err := pctx.GoldenStore.Promote(pctx.Product, r.ID, candidate); err != nil {
				return Result{}, fmt.Errorf("compare: promote %s: %w", candidate, err)
			}
			return matchResult(r, captured, candidate, sim, threshold), nil
		}
	}

	return Result{
		ROIID: r.ID, Kind: roi.TypeCompare, Passed: false,
		Compare: &CompareResult{
			CapturedCropPath: "",
			Similarity:       bestSimilarity,
			Threshold:        threshold,
			Passed:           false,
		},
	}, nil
}

func matchResult(r *roi.ROI, captured image.Image, referencePath string, similarity, threshold float64) Result {
	return Result{
		ROIID: r.ID, Kind: roi.TypeCompare, Passed: true,
		Compare: &CompareResult{
			ReferenceCropPath: referencePath,
			Similarity:        similarity,
			Threshold:         threshold,
			Passed:            true,
		},
	}
}

// similarityAgainst loads a golden file (through the feature cache keyed by
// path+mtime), resizes it to match the captured crop's dimensions if
// needed, and returns its cosine similarity to the captured feature vector.
func (d *CompareDetector) similarityAgainst(ctx context.Context, path string, captured *image.RGBA, capturedFeat []float64, method string, pctx ProductContext) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}

	var cacheKey string
	if pctx.FeatureCache != nil {
		cacheKey = golden.Key(path, info.ModTime().UnixNano())
		if vec, ok := pctx.FeatureCache.GetCtx(ctx, cacheKey); ok {
			return cosineSimilarity(vec, capturedFeat), nil
		}
	}

	goldenImg, err := decodeImageFile(path)
	if err != nil {
		return 0, err
	}
	b := captured.Bounds()
	if goldenImg.Bounds().Dx() != b.Dx() || goldenImg.Bounds().Dy() != b.Dy() {
		goldenImg = resizeToMatch(goldenImg, b.Dx(), b.Dy())
	}
	goldenFeat := extractFeatures(goldenImg, method)

	if pctx.FeatureCache != nil {
		pctx.FeatureCache.PutCtx(ctx, cacheKey, goldenFeat)
	}

	return cosineSimilarity(goldenFeat, capturedFeat), nil
}
