package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/skillboard/skillboard/internal/api/respond"
	"github.com/skillboard/skillboard/internal/apperr"
	"github.com/skillboard/skillboard/internal/ingest"
	"github.com/skillboard/skillboard/internal/store"
)

// handlePreparation ingests one training-preparation form submission.
func (s *Server) handlePreparation(w http.ResponseWriter, r *http.Request) {
	if err := s.requireDB(); err != nil {
		respond.Error(w, err)
		return
	}
	var p ingest.PreparationPayload
	if err := s.decode(r, &p); err != nil {
		respond.Error(w, err)
		return
	}
	id, err := s.deps.Ingest.Preparation(r.Context(), &p)
	if err != nil {
		respond.Error(w, err)
		return
	}
	s.notify(r.Context(), "Nouvelle préparation de formation",
		fmt.Sprintf("Une préparation de formation a été reçue (%d stagiaire(s), référence %s).", len(p.Stagiaires), id))
	respond.JSON(w, http.StatusOK, ok(map[string]any{"id_preparation_formation": id}))
}

// handleRecueil ingests one expectations form submission.
func (s *Server) handleRecueil(w http.ResponseWriter, r *http.Request) {
	if err := s.requireDB(); err != nil {
		respond.Error(w, err)
		return
	}
	var p ingest.RecueilPayload
	if err := s.decode(r, &p); err != nil {
		respond.Error(w, err)
		return
	}
	id, err := s.deps.Ingest.Recueil(r.Context(), &p)
	if err != nil {
		respond.Error(w, err)
		return
	}
	s.notify(r.Context(), "Nouveau recueil des attentes",
		fmt.Sprintf("Un recueil des attentes a été reçu pour %s %s (référence %s).", p.Prenom, p.Nom, id))
	respond.JSON(w, http.StatusOK, ok(map[string]any{"id_recueil": id}))
}

type presenceCheckRequest struct {
	Nom               string `json:"nom"`
	Prenom            string `json:"prenom"`
	IDActionFormation string `json:"id_action_formation"`
	IDEnt             string `json:"id_ent"`
}

type presenceEnterprise struct {
	IDEnt         string `json:"id_ent"`
	NomEntreprise string `json:"nom_entreprise"`
}

// handlePresenceCheck resolves a participant to a single enrollment before
// attendance is recorded. Several candidates across enterprises come back
// as an ambiguity the frontend resolves by asking for the enterprise.
func (s *Server) handlePresenceCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.requireStore(); err != nil {
		respond.Error(w, err)
		return
	}
	var req presenceCheckRequest
	if err := s.decode(r, &req); err != nil {
		respond.Error(w, err)
		return
	}
	if strings.TrimSpace(req.Nom) == "" || strings.TrimSpace(req.Prenom) == "" {
		respond.Error(w, apperr.New(apperr.BadRequest, "champs nom et prenom requis"))
		return
	}

	matches, err := s.deps.Store.FindEnrollments(r.Context(), req.Nom, req.Prenom, req.IDActionFormation, req.IDEnt)
	if err != nil {
		respond.Error(w, err)
		return
	}
	switch len(matches) {
	case 0:
		respond.Error(w, apperr.New(apperr.NotFound, "Participant introuvable."))
	case 1:
		respond.JSON(w, http.StatusOK, ok(map[string]any{"id_inscription": matches[0].ID}))
	default:
		respond.JSON(w, http.StatusOK, map[string]any{
			"ok":          false,
			"ambiguous":   true,
			"entreprises": matchEnterprises(matches),
		})
	}
}

// matchEnterprises lists the distinct enterprises of ambiguous matches, in
// match order, so the caller can disambiguate.
func matchEnterprises(matches []store.EnrollmentMatch) []presenceEnterprise {
	seen := make(map[string]struct{}, len(matches))
	out := make([]presenceEnterprise, 0, len(matches))
	for _, m := range matches {
		if m.EntrepriseID == nil {
			continue
		}
		if _, dup := seen[*m.EntrepriseID]; dup {
			continue
		}
		seen[*m.EntrepriseID] = struct{}{}
		e := presenceEnterprise{IDEnt: *m.EntrepriseID}
		if m.NomEntreprise != nil {
			e.NomEntreprise = *m.NomEntreprise
		}
		out = append(out, e)
	}
	return out
}

// handlePresenceValidate records one half-day attendance.
func (s *Server) handlePresenceValidate(w http.ResponseWriter, r *http.Request) {
	if err := s.requireDB(); err != nil {
		respond.Error(w, err)
		return
	}
	var p ingest.PresencePayload
	if err := s.decode(r, &p); err != nil {
		respond.Error(w, err)
		return
	}
	id, err := s.deps.Ingest.ValidatePresence(r.Context(), &p)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, ok(map[string]any{"id_presence": id}))
}
