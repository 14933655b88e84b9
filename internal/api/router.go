package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter constructs a chi router with all API endpoints registered.
func NewRouter(svc RunProcessor, runs RunLister, maxBodyBytes int64) http.Handler {
	h := NewHandler(svc, runs, maxBodyBytes)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1/runs", func(r chi.Router) {
		r.Post("/", h.CreateRunHandler)
		r.Get("/{runId}", h.GetRunHandler)
	})

	return r
}
