package dispatch

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnguyen/visual-aoi/internal/detectors"
	"github.com/jnguyen/visual-aoi/internal/golden"
	"github.com/jnguyen/visual-aoi/internal/roi"
	"github.com/jnguyen/visual-aoi/internal/sharedfs"
)

func writeTestJPEG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

func TestDispatcherFansOutAndPreservesFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "group.jpg")
	writeTestJPEG(t, imgPath, 100, 100, color.RGBA{R: 200, G: 20, B: 20, A: 255})

	root := sharedfs.New(t.TempDir())
	require.NoError(t, root.EnsureDirs())
	store := golden.NewStore(root)

	barcodeROI := &roi.ROI{ID: 1, Type: roi.TypeBarcode, Coords: roi.Coords{X1: 0, Y1: 0, X2: 50, Y2: 50}, DeviceID: 1, IsDeviceBarcode: true}
	unknownTypeROI := &roi.ROI{ID: 2, Type: roi.Type(99), Coords: roi.Coords{X1: 0, Y1: 0, X2: 10, Y2: 10}, DeviceID: 1}

	groups := map[string]Group{
		"305,1200": {Focus: 305, Exposure: 1200, ImagePath: imgPath, ROIs: []*roi.ROI{barcodeROI, unknownTypeROI}},
	}

	d := New()
	results, err := d.Run(context.Background(), groups, detectors.ProductContext{Product: "p", GoldenStore: store})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[int]detectors.Result{}
	for _, r := range results {
		byID[r.ROIID] = r
	}
	assert.False(t, byID[1].Passed) // no decoder configured -> empty barcode list -> fails
	assert.False(t, byID[2].Passed)
	assert.NotEmpty(t, byID[2].Err)
}

func TestByROIIDOrdering(t *testing.T) {
	in := []detectors.Result{{ROIID: 3}, {ROIID: 1}, {ROIID: 2}}
	out := ByROIID(in)
	assert.Equal(t, []int{1, 2, 3}, []int{out[0].ROIID, out[1].ROIID, out[2].ROIID})
}
