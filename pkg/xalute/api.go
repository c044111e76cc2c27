package xalute

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ingestResponse struct {
	Outcomes []Outcome `json:"outcomes"`
}

type outcomesResponse struct {
	Watermark string    `json:"watermark,omitempty"`
	Outcomes  []Outcome `json:"outcomes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the HTTP API:
//
//	POST /api/v1/ingest    run one batch
//	GET  /api/v1/outcomes  list persisted outcomes
//	GET  /healthz
func (r *Runtime) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/ingest", r.handleIngest)
		api.Get("/outcomes", r.handleOutcomes)
	})
	return router
}

func (r *Runtime) handleIngest(w http.ResponseWriter, req *http.Request) {
	outcomes, err := r.Ingest(req.Context())
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{Outcomes: outcomes})
}

func (r *Runtime) handleOutcomes(w http.ResponseWriter, req *http.Request) {
	outcomes, err := r.Outcomes(req.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if outcomes == nil {
		outcomes = []Outcome{}
	}
	resp := outcomesResponse{Outcomes: outcomes}
	if wm := r.State().Watermark; wm != nil {
		resp.Watermark = wm.UTC().Format(time.RFC3339Nano)
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrSourceUnavailable), errors.Is(err, ErrPermissionDenied):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
