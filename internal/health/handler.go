// Package health exposes the /healthz and /readyz HTTP handlers.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is implemented by anything that can check a downstream dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for the health and ready endpoints.
type Handler struct {
	db Pinger
}

// New creates a Handler. db may be nil when the pool was never established
// (missing DB configuration); /readyz then returns 503 immediately.
func New(db Pinger) *Handler {
	return &Handler{db: db}
}

// ServeHealth handles GET and HEAD /healthz. It reports process liveness
// only and never touches downstream dependencies.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ServeReady handles GET /readyz: 200 when PostgreSQL is reachable.
func (h *Handler) ServeReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.db == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "connexion base de données non initialisée"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "base de données injoignable: " + err.Error()})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
