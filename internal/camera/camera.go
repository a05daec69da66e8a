// Package camera models the client-side camera pipeline as an explicit
// state machine (Design Notes §9) wrapping the opaque camera driver (C9)
// that spec.md treats as a black box: initialize / set focus+exposure /
// capture / reset pipeline.
package camera

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jnguyen/visual-aoi/internal/aoierr"
)

// PipelineState is the explicit state machine Design Notes §9 calls for, in
// place of the source's implicit NONE/PLAYING checks.
type PipelineState int

const (
	Uninitialized PipelineState = iota
	Initialized
	Playing
	Errored
)

func (s PipelineState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Playing:
		return "playing"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Settings is the focus/exposure pair that gates a capture (§3.1).
type Settings struct {
	Focus    int
	Exposure int
}

// Driver is the opaque camera backend — §1 explicitly scopes the camera
// driver itself out; only this interface is specified.
type Driver interface {
	Initialize(ctx context.Context, serial string) error
	SetProperties(ctx context.Context, s Settings, skipSettle bool) error
	Capture(ctx context.Context) ([]byte, error)
	CaptureFast(ctx context.Context) ([]byte, error)
	Status(ctx context.Context) (PipelineState, error)
	ResetPipeline(ctx context.Context) error
	RestartPipeline(ctx context.Context) error
}

// Controller owns the single hardware camera and its pipeline state,
// guarded by a process-wide non-blocking mutex (§5): a second capture
// arriving mid-capture is rejected immediately rather than queued.
type Controller struct {
	driver Driver
	serial string

	mu    sync.Mutex
	busy  bool
	state PipelineState
	cur   Settings
}

// NewController wraps driver for camera serial.
func NewController(driver Driver, serial string) *Controller {
	return &Controller{driver: driver, serial: serial, state: Uninitialized}
}

// ErrBusy is returned by Capture when a capture is already in progress; the
// caller should retry after ~3s per §5.
var ErrBusy = aoierr.New(aoierr.Conflict, "camera busy, retry after 3s")

// State returns the controller's last-known pipeline state.
func (c *Controller) State() PipelineState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ready reports whether the camera is initialized — the invariant the
// session manager (C6) gates session creation on.
func (c *Controller) Ready() bool {
	s := c.State()
	return s == Initialized || s == Playing
}

// EnsureInitialized implements §4.7 step 1: reuse a PLAYING pipeline
// without reinitializing (saves ~3s warm-up); for any intermediate state,
// attempt a restart first and fall through to a full reset+initialize only
// if that fails.
func (c *Controller) EnsureInitialized(ctx context.Context, first Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Playing {
		return nil
	}

	if c.state == Initialized || c.state == Errored {
		if err := c.driver.RestartPipeline(ctx); err == nil {
			c.state = Playing
			c.cur = first
			return nil
		}
		log.Printf("[camera] restart failed, falling back to full reset+initialize")
		_ = c.driver.ResetPipeline(ctx)
	}

	if err := c.driver.Initialize(ctx, c.serial); err != nil {
		c.state = Errored
		return aoierr.Wrap(aoierr.Conflict, "camera initialize failed", err)
	}
	if err := c.driver.SetProperties(ctx, first, true); err != nil {
		c.state = Errored
		return aoierr.Wrap(aoierr.Conflict, "camera set properties failed", err)
	}
	c.state = Playing
	c.cur = first
	return nil
}

// ApplySettings changes focus/exposure for a non-first group, honoring the
// settle delay unless skipSettle is set (the first capture after
// EnsureInitialized already has the settings applied and must skip it).
func (c *Controller) ApplySettings(ctx context.Context, s Settings, skipSettle bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.driver.SetProperties(ctx, s, skipSettle); err != nil {
		c.state = Errored
		return aoierr.Wrap(aoierr.Conflict, "camera set properties failed", err)
	}
	c.cur = s
	return nil
}

// Capture takes one frame, rejecting with ErrBusy instead of queueing if a
// capture is already in flight (§5).
func (c *Controller) Capture(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	frame, err := c.driver.Capture(ctx)
	if err != nil {
		return nil, aoierr.Wrap(aoierr.Conflict, "camera capture failed", err)
	}
	return frame, nil
}

// Revert restores the camera to first's settings in the background after
// an inspect response has been sent, so the next cycle's first capture can
// skip its settle delay (§4.7 step 6, §9 Design Notes).
func (c *Controller) Revert(ctx context.Context, first Settings) {
	go func() {
		if err := c.ApplySettings(ctx, first, false); err != nil {
			log.Printf("[camera] background revert to first-group settings failed: %v", err)
		}
	}()
}

// CurrentSettings returns the last settings applied, for logging/tests.
func (c *Controller) CurrentSettings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// String renders state for logs.
func (c *Controller) String() string {
	return fmt.Sprintf("camera(serial=%s, state=%s)", c.serial, c.State())
}
