package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jnguyen/visual-aoi/internal/roi"
)

type createSessionRequest struct {
	ProductName string                 `json:"product_name"`
	ClientInfo  map[string]interface{} `json:"client_info"`
}

type createSessionResponse struct {
	SessionID         string `json:"session_id"`
	ROIGroupsCount    int    `json:"roi_groups_count"`
	DevicesNeedBarcode []int `json:"devices_need_barcode"`
}

// handleCreateSession implements "Create session" (§6.2). The camera-ready
// invariant (§3.5) is enforced inside inspection.Manager.Create, consulting
// the last camera-status the client reported (see handleCameraStatus) —
// the server has no direct line to the hardware, only the client's claim.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rois, err := s.Products.GetROIs(req.ProductName)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := s.Sessions.Create(req.ProductName)
	if err != nil {
		writeError(w, err)
		return
	}

	groups := roi.Groups(rois)
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:          sess.ID,
		ROIGroupsCount:     len(groups),
		DevicesNeedBarcode: roi.DevicesNeedingManualBarcode(rois),
	})
}

// handleCloseSession implements "Close session" (§6.2).
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Close(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

type cameraStatusRequest struct {
	Ready bool `json:"ready"`
}

// handleCameraStatus lets the client orchestrator report its camera
// pipeline state after EnsureInitialized, so the server's session-creation
// invariant (§3.5) has something to check.
func (s *Server) handleCameraStatus(w http.ResponseWriter, r *http.Request) {
	var req cameraStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.SetCameraReady(req.Ready)
	w.WriteHeader(http.StatusNoContent)
}
