// Package inspection implements the session manager (C6): session
// lifecycle, the sessions/<id>/{captures,output} directory layout, and the
// camera-initialized invariant gating session creation.
package inspection

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jnguyen/visual-aoi/internal/aoierr"
	"github.com/jnguyen/visual-aoi/internal/devices"
	"github.com/jnguyen/visual-aoi/internal/sharedfs"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Session is one inspection transaction.
type Session struct {
	ID          string
	Product     string
	Status      Status
	CreatedAt   time.Time
	ClosedAt    time.Time
	CapturesDir string
	OutputDir   string

	mu             sync.Mutex
	cachedBarcodes map[int]string // last-known device barcodes, auto-populated after each inspect (§4.7)
}

// CachedBarcode returns the last-known linked barcode for deviceID, or ""
// if none is cached yet.
func (s *Session) CachedBarcode(deviceID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cachedBarcodes[deviceID]
}

// CachedBarcodes returns a snapshot of the whole cache.
func (s *Session) CachedBarcodes() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]string, len(s.cachedBarcodes))
	for k, v := range s.cachedBarcodes {
		out[k] = v
	}
	return out
}

// UpdateCachedBarcodes auto-populates the device barcode cache from a
// completed inspection's device summaries (§4.7 step 6).
func (s *Session) UpdateCachedBarcodes(summaries []devices.DeviceSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cachedBarcodes == nil {
		s.cachedBarcodes = map[int]string{}
	}
	for _, d := range summaries {
		s.cachedBarcodes[d.DeviceID] = d.Barcode
	}
}

// CameraReadyFunc reports whether the camera is initialized; session
// creation is gated on this per §3.5's invariant.
type CameraReadyFunc func() bool

// Manager owns the session registry and the shared-folder root session
// directories are created under.
type Manager struct {
	root        *sharedfs.Root
	cameraReady CameraReadyFunc

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager rooted at root. cameraReady is consulted on
// every Create call.
func NewManager(root *sharedfs.Root, cameraReady CameraReadyFunc) *Manager {
	return &Manager{root: root, cameraReady: cameraReady, sessions: map[string]*Session{}}
}

// Create starts a new session for product, failing with a Conflict error if
// the camera isn't initialized (§3.5).
func (m *Manager) Create(product string) (*Session, error) {
	if m.cameraReady != nil && !m.cameraReady() {
		return nil, aoierr.New(aoierr.Conflict, "camera not initialized")
	}

	id := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])

	capturesDir, err := m.root.SessionCapturesDir(id)
	if err != nil {
		return nil, aoierr.Wrap(aoierr.Internal, "resolve captures dir", err)
	}
	outputDir, err := m.root.SessionOutputDir(id)
	if err != nil {
		return nil, aoierr.Wrap(aoierr.Internal, "resolve output dir", err)
	}
	if err := ensureDir(capturesDir); err != nil {
		return nil, aoierr.Wrap(aoierr.Internal, "create captures dir", err)
	}
	if err := ensureDir(outputDir); err != nil {
		return nil, aoierr.Wrap(aoierr.Internal, "create output dir", err)
	}

	s := &Session{
		ID: id, Product: product, Status: StatusActive, CreatedAt: time.Now(),
		CapturesDir: capturesDir, OutputDir: outputDir,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Printf("[inspection] session %s created for product %q", id, product)
	return s, nil
}

// Get returns the session for id, or a NotFound error.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, aoierr.New(aoierr.NotFound, fmt.Sprintf("session %q not found", id))
	}
	return s, nil
}

// Close marks a session terminated and removes its captures directory,
// retaining output/ for history (§4.6).
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return aoierr.New(aoierr.NotFound, fmt.Sprintf("session %q not found", id))
	}

	s.mu.Lock()
	s.Status = StatusClosed
	s.ClosedAt = time.Now()
	s.mu.Unlock()

	if err := removeDir(s.CapturesDir); err != nil {
		log.Printf("[inspection] session %s: remove captures dir: %v", id, err)
	}
	log.Printf("[inspection] session %s closed", id)
	return nil
}

// CloseAll closes every active session, used on process shutdown (§4.6).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id, s := range m.sessions {
		if s.Status == StatusActive {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()
	for _, id := range ids {
		_ = m.Close(id)
	}
}

// SweepStale removes session directories older than maxAge — the crash
// recovery sweep §4.6 mandates, run at process startup and periodically.
func (m *Manager) SweepStale(maxAge time.Duration) {
	removed, err := m.root.SweepTemp(maxAge)
	if err != nil {
		log.Printf("[inspection] stale sweep failed: %v", err)
		return
	}
	for _, p := range removed {
		log.Printf("[inspection] swept stale session dir %s", p)
	}
}
