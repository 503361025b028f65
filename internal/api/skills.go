package api

import (
	"net/http"

	"github.com/skillboard/skillboard/internal/access"
	"github.com/skillboard/skillboard/internal/api/respond"
	"github.com/skillboard/skillboard/internal/apperr"
	"github.com/skillboard/skillboard/internal/query"
	"github.com/skillboard/skillboard/internal/store"
)

type enterpriseJSON struct {
	IDContact     string `json:"id_contact"`
	NomEntreprise string `json:"nom_entreprise"`
}

func enterprisesJSON(tenants []store.Tenant) []enterpriseJSON {
	out := make([]enterpriseJSON, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, enterpriseJSON{IDContact: t.ID, NomEntreprise: t.Name})
	}
	return out
}

// handleAuthContext echoes the verified identity back to a portal frontend,
// with the super-admin flag and the tenant hint carried by the token.
func (s *Server) handleAuthContext(p PortalDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := callerIdentity(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		var tenantRef *string
		if id.TokenTenant != "" {
			tenantRef = &id.TokenTenant
		} else if s.deps.Store != nil {
			if m, err := s.deps.Store.FirstMapping(r.Context(), id.Email); err == nil && m != nil {
				tenantRef = &m.TenantID
			}
		}
		respond.JSON(w, http.StatusOK, map[string]any{
			"email":          id.Email,
			"is_super_admin": p.Resolver.IsSuperAdmin(id.Email),
			"tenant_ref":     tenantRef,
		})
	}
}

// handleSkillsScope lists the enterprises the caller may act on.
func (s *Server) handleSkillsScope(w http.ResponseWriter, r *http.Request) {
	if err := s.requireStore(); err != nil {
		respond.Error(w, err)
		return
	}
	id, err := callerIdentity(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	mode, tenants, err := s.deps.Skills.Resolver.Scope(r.Context(), id.Email)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"mode":        mode,
		"entreprises": enterprisesJSON(tenants),
	})
}

// skillsTenant resolves the id_contact query parameter through the access
// layer, rejecting requests outside the caller's scope.
func (s *Server) skillsTenant(r *http.Request) (access.Decision, error) {
	if err := s.requireStore(); err != nil {
		return access.Decision{}, err
	}
	tenantID := r.URL.Query().Get("id_contact")
	if tenantID == "" {
		return access.Decision{}, apperr.New(apperr.BadRequest, "paramètre id_contact requis")
	}
	return resolveTenant(r, s.deps.Skills, tenantID)
}

func (s *Server) handleCollaborateurs(w http.ResponseWriter, r *http.Request) {
	d, err := s.skillsTenant(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	q := r.URL.Query()
	filter := store.CollaboratorFilter{
		Service:    q.Get("service"),
		ActiveOnly: q.Get("actifs") == "true" || q.Get("actifs") == "1",
	}
	rows, err := s.deps.Store.Collaborators(r.Context(), d.TenantID, filter)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, ok(map[string]any{"collaborateurs": rows}))
}

func (s *Server) handlePyramide(w http.ResponseWriter, r *http.Request) {
	d, err := s.skillsTenant(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	demo, err := s.deps.Store.ActiveDemographics(r.Context(), d.TenantID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, query.BuildPyramid(demo, s.deps.Now()))
}

func (s *Server) handleCompetences(w http.ResponseWriter, r *http.Request) {
	d, err := s.skillsTenant(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	rows, err := s.deps.Store.Competences(r.Context(), d.TenantID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, ok(map[string]any{"competences": rows}))
}

// handleBandeau returns the dashboard banner message, empty when no banner
// is currently in its display window.
func (s *Server) handleBandeau(w http.ResponseWriter, r *http.Request) {
	d, err := s.skillsTenant(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	b, err := s.deps.Store.Banner(r.Context(), d.TenantID, s.deps.Now())
	if err != nil {
		respond.Error(w, err)
		return
	}
	message := ""
	if b != nil {
		message = b.Message
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": message})
}
