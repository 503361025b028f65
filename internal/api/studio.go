package api

import (
	"net/http"

	"github.com/skillboard/skillboard/internal/api/respond"
	"github.com/skillboard/skillboard/internal/apperr"
	"github.com/skillboard/skillboard/internal/store"
)

type ownerJSON struct {
	IDOwner  string `json:"id_owner"`
	NomOwner string `json:"nom_owner"`
}

func ownersJSON(tenants []store.Tenant) []ownerJSON {
	out := make([]ownerJSON, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, ownerJSON{IDOwner: t.ID, NomOwner: t.Name})
	}
	return out
}

// handleStudioMe returns the caller's email with a best-effort first name
// pulled from the linked staff or employee profile.
func (s *Server) handleStudioMe(w http.ResponseWriter, r *http.Request) {
	if err := s.requireStore(); err != nil {
		respond.Error(w, err)
		return
	}
	id, err := callerIdentity(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	tenantID := id.TokenTenant
	if tenantID == "" {
		if m, err := s.deps.Store.FirstMapping(r.Context(), id.Email); err == nil && m != nil {
			tenantID = m.TenantID
		}
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"email":  id.Email,
		"prenom": s.deps.Studio.Resolver.FirstName(r.Context(), id.Email, tenantID),
	})
}

// handleStudioScope lists the owners the caller may act on.
func (s *Server) handleStudioScope(w http.ResponseWriter, r *http.Request) {
	if err := s.requireStore(); err != nil {
		respond.Error(w, err)
		return
	}
	id, err := callerIdentity(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	mode, tenants, err := s.deps.Studio.Resolver.Scope(r.Context(), id.Email)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"mode":   mode,
		"owners": ownersJSON(tenants),
	})
}

// handleStudioContext returns one owner record after access resolution.
func (s *Server) handleStudioContext(w http.ResponseWriter, r *http.Request) {
	if err := s.requireStore(); err != nil {
		respond.Error(w, err)
		return
	}
	d, err := resolveTenant(r, s.deps.Studio, r.PathValue("id_owner"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	t, err := s.deps.Store.TenantByID(r.Context(), store.PortalStudio, d.TenantID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if t == nil {
		respond.Error(w, apperr.New(apperr.NotFound, "Owner introuvable."))
		return
	}
	respond.JSON(w, http.StatusOK, ownerJSON{IDOwner: t.ID, NomOwner: t.Name})
}
