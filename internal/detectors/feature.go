package detectors

import (
	"image"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const featureDim = 64

// modelState records whether InitCompareModel loaded an ONNX session for
// the "mobilenet" method — the same modelAvailable gate the teacher's mock
// detector uses. The session is created and destroyed here but never run
// (see runEmbeddingModel).
type modelState struct {
	mu        sync.Mutex
	session   *ort.AdvancedSession
	available bool
}

var compareModel modelState

// InitCompareModel looks for an embedding model under modelDir and, if
// found, initializes an ONNX Runtime session for the "mobilenet" detection
// method. Safe to call with an empty/missing modelDir: the extractor then
// always uses the opponent-color descriptor, exactly like
// cmd/ai-service/inference.go runs mock detection when no model file is
// present.
func InitCompareModel(modelDir string) error {
	compareModel.mu.Lock()
	defer compareModel.mu.Unlock()

	if modelDir == "" {
		return nil
	}
	modelPath := filepath.Join(modelDir, "compare_embed.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		log.Printf("[Detector] compare embedding model not found at %s, using opencv-style descriptor for mobilenet requests", modelPath)
		return nil
	}

	if err := ort.InitializeEnvironment(); err != nil {
		log.Printf("[Detector] onnxruntime environment init failed: %v", err)
		return nil
	}
	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"embedding"}, nil, nil, nil)
	if err != nil {
		log.Printf("[Detector] onnxruntime session init failed: %v", err)
		return nil
	}
	compareModel.session = session
	compareModel.available = true
	log.Printf("[Detector] loaded compare embedding model from %s", modelPath)
	return nil
}

// CloseCompareModel releases the ONNX session, if one was opened.
func CloseCompareModel() {
	compareModel.mu.Lock()
	defer compareModel.mu.Unlock()
	if compareModel.session != nil {
		compareModel.session.Destroy()
		compareModel.session = nil
	}
	compareModel.available = false
}

// extractFeatures computes a fixed-dimension feature vector for img using
// the requested method. "mobilenet" tries runEmbeddingModel when a model was
// loaded; since that always returns errNoModel, every method yields the
// opponent-color descriptor "opencv" uses — the Compare detector
// never fails for lack of a model file (§4.2.1 edge cases).
func extractFeatures(img image.Image, method string) []float64 {
	if method == "mobilenet" {
		compareModel.mu.Lock()
		available := compareModel.available
		compareModel.mu.Unlock()
		if available {
			if vec, err := runEmbeddingModel(img); err == nil {
				return vec
			}
		}
	}
	return opponentColorDescriptor(img)
}

// runEmbeddingModel is only reached when InitCompareModel found a model on
// disk. It does not build an input tensor or run compareModel.session: it
// always returns errNoModel, so the caller falls back to the opponent-color
// descriptor.
func runEmbeddingModel(img image.Image) ([]float64, error) {
	return nil, errNoModel
}

var errNoModel = errNoModelErr{}

type errNoModelErr struct{}

func (errNoModelErr) Error() string { return "detectors: no embedding model loaded" }

// opponentColorDescriptor computes a histogram over the opponent color
// space (O1, O2, O3) and returns it as a normalized, fixed-length vector —
// a pure-Go stand-in for the reference's OpenCV-based descriptor.
func opponentColorDescriptor(img image.Image) []float64 {
	const bins = featureDim / 3
	hist := make([]float64, bins*3)
	b := img.Bounds()
	var n float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			rf, gf, bf := float64(r>>8), float64(g>>8), float64(bl>>8)
			o1 := (rf - gf) / math.Sqrt2
			o2 := (rf + gf - 2*bf) / math.Sqrt(6)
			o3 := (rf + gf + bf) / math.Sqrt(3)
			addToHist(hist[0:bins], o1, -255, 255)
			addToHist(hist[bins:2*bins], o2, -510, 510)
			addToHist(hist[2*bins:3*bins], o3, 0, 765)
			n++
		}
	}
	if n == 0 {
		return hist
	}
	for i := range hist {
		hist[i] /= n
	}
	return hist
}

func addToHist(hist []float64, v, lo, hi float64) {
	bins := len(hist)
	if hi <= lo {
		return
	}
	idx := int((v - lo) / (hi - lo) * float64(bins))
	if idx < 0 {
		idx = 0
	}
	if idx >= bins {
		idx = bins - 1
	}
	hist[idx]++
}

// cosineSimilarity compares two feature vectors; mismatched lengths or an
// all-zero vector yield 0 rather than a divide-by-zero.
func cosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
