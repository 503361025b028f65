package api

import (
	"net/http"

	"github.com/skillboard/skillboard/internal/api/middleware"
	"github.com/skillboard/skillboard/internal/health"
)

// RegisterRoutes registers all application routes on mux. Portal routes are
// wrapped with the identity middleware of their own verifier; form intake
// routes are public.
func RegisterRoutes(mux *http.ServeMux, s *Server, h *health.Handler) {
	// Public health endpoints (no auth required)
	mux.HandleFunc("GET /healthz", h.ServeHealth)
	mux.HandleFunc("GET /readyz", h.ServeReady)

	// Public form intake
	mux.HandleFunc("POST /preparation", s.handlePreparation)
	mux.HandleFunc("POST /recueil_attentes", s.handleRecueil)
	mux.HandleFunc("POST /presence/check", s.handlePresenceCheck)
	mux.HandleFunc("POST /presence/validate", s.handlePresenceValidate)

	// Skills portal — bearer-authenticated against the Skills provider.
	skills := middleware.RequireIdentity(s.deps.Skills.Verifier)
	mux.HandleFunc("GET /skills/auth/context", skills(s.handleAuthContext(s.deps.Skills)))
	mux.HandleFunc("GET /skills/me/scope", skills(s.handleSkillsScope))
	mux.HandleFunc("GET /skills/collaborateurs", skills(s.handleCollaborateurs))
	mux.HandleFunc("GET /skills/pyramide", skills(s.handlePyramide))
	mux.HandleFunc("GET /skills/competences", skills(s.handleCompetences))
	mux.HandleFunc("GET /skills/bandeau", skills(s.handleBandeau))

	// Studio portal — bearer-authenticated against the Studio provider.
	studio := middleware.RequireIdentity(s.deps.Studio.Verifier)
	mux.HandleFunc("GET /studio/auth/context", studio(s.handleAuthContext(s.deps.Studio)))
	mux.HandleFunc("GET /studio/me", studio(s.handleStudioMe))
	mux.HandleFunc("GET /studio/me/scope", studio(s.handleStudioScope))
	mux.HandleFunc("GET /studio/context/{id_owner}", studio(s.handleStudioContext))

	// Catch-all 404
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
}
