package clientapp

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jnguyen/visual-aoi/internal/aoierr"
	"github.com/jnguyen/visual-aoi/internal/camera"
	"github.com/jnguyen/visual-aoi/internal/devices"
	"github.com/jnguyen/visual-aoi/internal/roi"
	"github.com/jnguyen/visual-aoi/internal/sharedfs"
)

// Orchestrator drives one capture cycle end to end (§4.7): camera
// initialization, per-group capture, and the inspect round-trip. It holds
// no state across cycles: it keeps no device barcode cache, and each
// cycle's inspect request carries only the device_barcodes its caller
// passes to RunCycle.
type Orchestrator struct {
	Camera      *camera.Controller
	Root        *sharedfs.Root
	Server      *ServerClient
	SettleDelay time.Duration
}

// NewOrchestrator builds an Orchestrator from its collaborators.
func NewOrchestrator(cam *camera.Controller, root *sharedfs.Root, server *ServerClient, settleDelay time.Duration) *Orchestrator {
	return &Orchestrator{Camera: cam, Root: root, Server: server, SettleDelay: settleDelay}
}

// CycleResult bundles one capture cycle's outcome with the session it ran
// under, so the caller can close it explicitly.
type CycleResult struct {
	SessionID string
	Inspect   *InspectResult
}

// RunCycle implements §4.7 in full: ensure the camera is ready, open a
// session, capture every ROI group in configuration order honoring the
// settle-delay optimization, submit the inspect request, and revert the
// camera in the background for the next cycle. deviceBarcodes is forwarded
// verbatim to preserve the tri-state contract (§7); pass nil when the
// caller has nothing to override with.
func (o *Orchestrator) RunCycle(ctx context.Context, product string, deviceBarcodes *[]devices.Barcode) (*CycleResult, error) {
	rois, err := o.Server.GetROIs(ctx, product)
	if err != nil {
		return nil, err
	}
	if len(rois) == 0 {
		return nil, aoierr.New(aoierr.InvalidInput, fmt.Sprintf("product %q has no rois configured", product))
	}

	orderedKeys := roi.GroupKeysInOrder(rois)
	groups := roi.Groups(rois)

	first := groups[orderedKeys[0]][0]
	firstSettings := camera.Settings{Focus: first.Focus, Exposure: first.Exposure}

	if err := o.Camera.EnsureInitialized(ctx, firstSettings); err != nil {
		_ = o.Server.ReportCameraStatus(ctx, false)
		return nil, err
	}
	if err := o.Server.ReportCameraStatus(ctx, true); err != nil {
		log.Printf("[clientapp] report camera status: %v", err)
	}

	sess, err := o.Server.CreateSession(ctx, product, map[string]interface{}{"orchestrator": "visual-aoi-client"})
	if err != nil {
		return nil, err
	}

	capturesDir, err := o.Root.SessionCapturesDir(sess.SessionID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(capturesDir, 0o750); err != nil {
		return nil, aoierr.Wrap(aoierr.Internal, "create captures dir", err)
	}

	captured := make(map[string]CapturedImage, len(orderedKeys))
	for i, key := range orderedKeys {
		group := groups[key]
		settings := camera.Settings{Focus: group[0].Focus, Exposure: group[0].Exposure}

		// The first group's settings were just applied by EnsureInitialized;
		// applying them again would pay the settle delay for nothing (§4.7
		// step 3, §9 Design Notes).
		if i > 0 {
			if err := o.Camera.ApplySettings(ctx, settings, false); err != nil {
				return nil, err
			}
			time.Sleep(o.SettleDelay)
		}

		frame, err := o.Camera.Capture(ctx)
		if err != nil {
			return nil, err
		}

		width, height, err := decodeDimensions(frame)
		if err != nil {
			return nil, aoierr.Wrap(aoierr.Internal, "decode captured frame", err)
		}

		filename := fmt.Sprintf("group_%d_%d.jpg", settings.Focus, settings.Exposure)
		path := filepath.Join(capturesDir, filename)
		if err := os.WriteFile(path, frame, 0o640); err != nil {
			return nil, aoierr.Wrap(aoierr.Internal, "write captured frame", err)
		}

		captured[key] = CapturedImage{Focus: settings.Focus, Exposure: settings.Exposure, ImagePath: path, Width: width, Height: height}
	}

	result, err := o.Server.Inspect(ctx, sess.SessionID, product, captured, deviceBarcodes)
	if err != nil {
		return nil, err
	}

	// Revert to the first group's settings in the background so the next
	// cycle's first capture can skip its settle delay (§4.7 step 6).
	o.Camera.Revert(context.Background(), firstSettings)

	return &CycleResult{SessionID: sess.SessionID, Inspect: result}, nil
}

func decodeDimensions(jpegBytes []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(jpegBytes))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
