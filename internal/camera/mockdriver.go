package camera

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
)

// MockDriver is a deterministic stand-in for the real hardware driver,
// which spec.md §1 explicitly scopes out of this system ("the camera
// driver itself... an opaque component"). It renders a synthetic flat-gray
// frame of a fixed size, ignoring focus/exposure, the same role the
// teacher's mock detection path in cmd/ai-service/inference.go plays for
// the ML backends: enough behavior to exercise every caller without a real
// binding.
type MockDriver struct {
	mu    sync.Mutex
	state PipelineState
	width, height int
}

// NewMockDriver creates a MockDriver producing frames of the given size.
func NewMockDriver(width, height int) *MockDriver {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	return &MockDriver{state: Uninitialized, width: width, height: height}
}

func (d *MockDriver) Initialize(ctx context.Context, serial string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = Initialized
	return nil
}

func (d *MockDriver) SetProperties(ctx context.Context, s Settings, skipSettle bool) error {
	return nil
}

func (d *MockDriver) Capture(ctx context.Context) ([]byte, error) {
	return d.render()
}

func (d *MockDriver) CaptureFast(ctx context.Context) ([]byte, error) {
	return d.render()
}

func (d *MockDriver) Status(ctx context.Context) (PipelineState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, nil
}

func (d *MockDriver) ResetPipeline(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = Uninitialized
	return nil
}

func (d *MockDriver) RestartPipeline(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = Playing
	return nil
}

func (d *MockDriver) render() ([]byte, error) {
	d.mu.Lock()
	d.state = Playing
	w, h := d.width, d.height
	d.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := color.RGBA{R: 120, G: 120, B: 120, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
