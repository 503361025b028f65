package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skillboard/skillboard/internal/access"
	"github.com/skillboard/skillboard/internal/apperr"
	"github.com/skillboard/skillboard/internal/health"
	"github.com/skillboard/skillboard/internal/ingest"
	"github.com/skillboard/skillboard/internal/model"
	"github.com/skillboard/skillboard/internal/store"
)

// stubVerifier maps raw tokens to emails, standing in for the identity
// provider in route tests.
type stubVerifier struct {
	emails map[string]string
}

func (v stubVerifier) Verify(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", apperr.New(apperr.TokenMissing, "token requis")
	}
	email, ok := v.emails[token]
	if !ok {
		return "", apperr.New(apperr.TokenInvalid, "session invalide")
	}
	return email, nil
}

func discardLog() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func seedStore() *store.MemoryStore {
	st := store.NewMemoryStore()
	st.TenantList[store.PortalSkills] = []store.Tenant{
		{ID: "ent-1", Name: "Acme Formation"},
		{ID: "ent-2", Name: "Globex"},
	}
	st.TenantList[store.PortalStudio] = []store.Tenant{
		{ID: "own-1", Name: "Skillboard SAS"},
	}
	st.Mappings = []store.Mapping{
		{Email: "claire@acme.fr", TenantID: "ent-1"},
		{Email: "marc@skillboard.fr", TenantID: "own-1", RefKind: "staff", RefID: "staff-7"},
	}
	st.StaffNames["staff-7"] = "Marc"
	st.Collabs["ent-1"] = []store.Collaborator{
		{ID: "sal-1", Nom: "Durand", Prenom: "Zoé", Actif: true},
	}
	st.Comps["ent-1"] = []store.Competence{
		{ID: "cmp-1", Libelle: "Gestion de paie"},
	}
	return st
}

func testIngest(t *testing.T) *ingest.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Preparation{}, &model.PreparationStagiaire{},
		&model.Recueil{}, &model.RecueilReponse{}, &model.Presence{},
	))
	return ingest.NewService(db, nil)
}

func testServer(t *testing.T, st store.Store, ing *ingest.Service) http.Handler {
	t.Helper()
	log := discardLog()
	deps := Deps{
		Store:  st,
		Ingest: ing,
		Skills: PortalDeps{
			Verifier: stubVerifier{emails: map[string]string{
				"tok-admin":  "admin@skillboard.fr",
				"tok-claire": "claire@acme.fr",
			}},
			Resolver: access.NewResolver(st, store.PortalSkills, []string{"admin@skillboard.fr"}, log),
		},
		Studio: PortalDeps{
			Verifier: stubVerifier{emails: map[string]string{
				"tok-marc": "marc@skillboard.fr",
			}},
			Resolver: access.NewResolver(st, store.PortalStudio, []string{"admin@skillboard.fr"}, log),
		},
		MissingDB: []string{"DB_HOST", "DB_PASSWORD"},
		Now:       func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) },
	}
	mux := http.NewServeMux()
	RegisterRoutes(mux, NewServer(deps, log), health.New(nil))
	return mux
}

func doJSON(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealthz(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, body := doJSON(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestPortalRoutesRequireToken(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	for _, path := range []string{"/skills/me/scope", "/studio/me/scope"} {
		rec, body := doJSON(t, h, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "Session invalide ou expirée.", body["detail"], path)
	}
}

func TestSkillsScope_SuperAdminSeesAllEnterprises(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, body := doJSON(t, h, http.MethodGet, "/skills/me/scope", "tok-admin", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "super_admin", body["mode"])
	ents := body["entreprises"].([]any)
	require.Len(t, ents, 2)
	first := ents[0].(map[string]any)
	assert.Equal(t, "ent-1", first["id_contact"])
	assert.Equal(t, "Acme Formation", first["nom_entreprise"])
}

func TestSkillsScope_StandardSeesMappedEnterprise(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, body := doJSON(t, h, http.MethodGet, "/skills/me/scope", "tok-claire", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "standard", body["mode"])
	require.Len(t, body["entreprises"].([]any), 1)
}

func TestCollaborateurs_DeniedOutsideScope(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, body := doJSON(t, h, http.MethodGet, "/skills/collaborateurs?id_contact=ent-2", "tok-claire", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Accès refusé (entreprise non autorisée)", body["detail"])
}

func TestCollaborateurs_ListsTenantRows(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, body := doJSON(t, h, http.MethodGet, "/skills/collaborateurs?id_contact=ent-1", "tok-claire", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	rows := body["collaborateurs"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "Durand", rows[0].(map[string]any)["nom"])
}

func TestCollaborateurs_MissingIDContact(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, body := doJSON(t, h, http.MethodGet, "/skills/collaborateurs", "tok-claire", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["detail"], "id_contact")
}

func TestBandeau_EmptyWhenNoBanner(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, body := doJSON(t, h, http.MethodGet, "/skills/bandeau?id_contact=ent-1", "tok-claire", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", body["message"])
}

func TestAuthContext_ReturnsIdentity(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, body := doJSON(t, h, http.MethodGet, "/skills/auth/context", "tok-admin", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@skillboard.fr", body["email"])
	assert.Equal(t, true, body["is_super_admin"])
}

func TestStudioMe_ResolvesFirstName(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, body := doJSON(t, h, http.MethodGet, "/studio/me", "tok-marc", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "marc@skillboard.fr", body["email"])
	assert.Equal(t, "Marc", body["prenom"])
}

func TestStudioContext_DeniedForeignOwner(t *testing.T) {
	st := seedStore()
	st.TenantList[store.PortalStudio] = append(st.TenantList[store.PortalStudio],
		store.Tenant{ID: "own-2", Name: "Autre"})
	h := testServer(t, st, nil)
	rec, body := doJSON(t, h, http.MethodGet, "/studio/context/own-2", "tok-marc", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Accès refusé (owner non autorisé)", body["detail"])
}

func TestStudioContext_ReturnsOwner(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, body := doJSON(t, h, http.MethodGet, "/studio/context/own-1", "tok-marc", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "own-1", body["id_owner"])
	assert.Equal(t, "Skillboard SAS", body["nom_owner"])
}

func TestPreparation_EndToEnd(t *testing.T) {
	h := testServer(t, seedStore(), testIngest(t))
	payload := `{"token":"abcdefghij","facturation_cible":"client","stagiaires":[{"nom":"Durand","prenom":"Zoé"}]}`
	rec, body := doJSON(t, h, http.MethodPost, "/preparation", "", payload)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["id_preparation_formation"])
}

func TestPreparation_ValidationError(t *testing.T) {
	h := testServer(t, seedStore(), testIngest(t))
	rec, body := doJSON(t, h, http.MethodPost, "/preparation", "", `{"token":"short","facturation_cible":"client"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["detail"], "token")
}

func TestPreparation_DBUnconfigured(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, body := doJSON(t, h, http.MethodPost, "/preparation", "", `{"token":"abcdefghij","facturation_cible":"client"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["detail"], "DB_HOST")
}

func TestPresenceCheck_SingleMatch(t *testing.T) {
	st := seedStore()
	entID, entNom := "ent-1", "Acme Formation"
	st.Enrollments = []store.EnrollmentMatch{
		{ID: "insc-1", Nom: "Durand", Prenom: "Zoé", EntrepriseID: &entID, NomEntreprise: &entNom},
	}
	h := testServer(t, st, nil)
	rec, body := doJSON(t, h, http.MethodPost, "/presence/check", "", `{"nom":" durand ","prenom":"ZOÉ"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "insc-1", body["id_inscription"])
}

func TestPresenceCheck_Ambiguous(t *testing.T) {
	st := seedStore()
	e1, n1 := "ent-1", "Acme Formation"
	e2, n2 := "ent-2", "Globex"
	st.Enrollments = []store.EnrollmentMatch{
		{ID: "insc-1", Nom: "Durand", Prenom: "Zoé", EntrepriseID: &e1, NomEntreprise: &n1},
		{ID: "insc-2", Nom: "Durand", Prenom: "Zoé", EntrepriseID: &e2, NomEntreprise: &n2},
	}
	h := testServer(t, st, nil)
	rec, body := doJSON(t, h, http.MethodPost, "/presence/check", "", `{"nom":"Durand","prenom":"Zoé"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, true, body["ambiguous"])
	ents := body["entreprises"].([]any)
	require.Len(t, ents, 2)
	assert.Equal(t, "ent-1", ents[0].(map[string]any)["id_ent"])
	assert.Equal(t, "Globex", ents[1].(map[string]any)["nom_entreprise"])
}

func TestPresenceCheck_NotFound(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, _ := doJSON(t, h, http.MethodPost, "/presence/check", "", `{"nom":"Inconnu","prenom":"Paul"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresenceValidate_DuplicateIs409(t *testing.T) {
	h := testServer(t, seedStore(), testIngest(t))
	payload := `{"id_inscription":"insc-1","signature":"data:image/png;base64,AAAA"}`

	rec, body := doJSON(t, h, http.MethodPost, "/presence/validate", "", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])

	rec, body = doJSON(t, h, http.MethodPost, "/presence/validate", "", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Présence déjà enregistrée pour cette période.", body["detail"])
}

func TestUnknownRouteIs404(t *testing.T) {
	h := testServer(t, seedStore(), nil)
	rec, _ := doJSON(t, h, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
