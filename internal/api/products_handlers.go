package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jnguyen/visual-aoi/internal/aoierr"
	"github.com/jnguyen/visual-aoi/internal/product"
	"github.com/jnguyen/visual-aoi/internal/roi"
)

func marshalROI(r roi.ServerROI) (json.RawMessage, error) {
	return json.Marshal(r)
}

// handleListProducts implements "List products" (§6.2): GET /products.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	names, err := s.Products.ListProducts()
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": names})
}

type createProductRequest struct {
	ProductName string `json:"product_name"`
	Description string `json:"description"`
	DeviceCount int     `json:"device_count"`
}

// handleCreateProduct implements "Create product" (§6.2): POST /products.
// device_count is accepted for wire compatibility but carries no
// product-level persistence today — ROIs themselves declare their own
// device_id (§3.1) — so it is neither stored nor echoed in the response.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.Products.CreateProduct(req.ProductName, req.Description); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"product_name": req.ProductName})
}

// handleGetROIs implements "Get ROIs" (§6.2): GET /products/{product}/rois.
func (s *Server) handleGetROIs(w http.ResponseWriter, r *http.Request) {
	productName := chi.URLParam(r, "product")
	rois, err := s.Products.GetROIs(productName)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]roi.ServerROI, len(rois))
	for i, rr := range rois {
		out[i] = roi.ToServer(rr)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rois": out})
}

type saveROIsRequest struct {
	ROIs []roi.ServerROI `json:"rois"`
}

// handleSaveROIs implements "Save ROIs" (§6.2): PUT /products/{product}/rois.
// Every ROI in the batch is validated; on any failure the whole batch is
// rejected with every violation collected, never just the first (§7).
func (s *Server) handleSaveROIs(w http.ResponseWriter, r *http.Request) {
	productName := chi.URLParam(r, "product")

	var req saveROIsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	parsed := make([]*roi.ROI, 0, len(req.ROIs))
	for _, raw := range req.ROIs {
		b, err := marshalROI(raw)
		if err != nil {
			writeError(w, aoierr.Wrap(aoierr.InvalidInput, "encode roi", err))
			return
		}
		normalized, err := roi.Normalize(b)
		if err != nil {
			writeError(w, aoierr.Wrap(aoierr.InvalidInput, "roi entry", err))
			return
		}
		parsed = append(parsed, normalized)
	}

	// A roi_id of 0 means "not yet assigned" — the operator UI adds a new
	// ROI without one (§12 SUPPLEMENTED FEATURES, get_next_roi_index).
	next := product.NextROIID(parsed)
	for _, p := range parsed {
		if p.ID == 0 {
			p.ID = next
			next++
		}
	}

	if err := s.Products.SaveROIs(productName, parsed); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "rois saved"})
}
