package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router assembles the server's route tree, mirroring the chi middleware
// stack cmd/hlsd/main.go installs (request ID, real IP, logger, recoverer,
// timeout) ahead of the route-specific handlers.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(185 * time.Second)) // above the 180s inspect timeout (§5)
	r.Use(corsMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", s.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", s.handleListProducts)
		r.Post("/products", s.handleCreateProduct)
		r.Get("/products/{product}/rois", s.handleGetROIs)
		r.Put("/products/{product}/rois", s.handleSaveROIs)

		r.Post("/sessions", s.handleCreateSession)
		r.Post("/sessions/{id}/close", s.handleCloseSession)

		r.Post("/inspect", s.handleInspect)

		r.Put("/camera/status", s.handleCameraStatus)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// corsMiddleware allows cross-origin requests from the operator UI, the
// same permissive "allow all origins for development" posture as the
// teacher's internal/middleware.CORS.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
