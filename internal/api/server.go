// Package api is the HTTP surface of Skillboard: public form intake plus
// the bearer-authenticated Skills and Studio portal endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/skillboard/skillboard/internal/access"
	"github.com/skillboard/skillboard/internal/api/middleware"
	"github.com/skillboard/skillboard/internal/apperr"
	"github.com/skillboard/skillboard/internal/ingest"
	"github.com/skillboard/skillboard/internal/mail"
	"github.com/skillboard/skillboard/internal/store"
	"github.com/skillboard/skillboard/internal/worker"
)

// PortalDeps bundles one portal's token verifier and access resolver.
type PortalDeps struct {
	Verifier middleware.TokenVerifier
	Resolver *access.Resolver
}

// Deps are the collaborators the server dispatches to. Store and Ingest
// are nil when the database configuration is incomplete; MissingDB then
// names the absent variables so handlers can report them.
type Deps struct {
	Store      store.Store
	Ingest     *ingest.Service
	Skills     PortalDeps
	Studio     PortalDeps
	Dispatcher *worker.Dispatcher
	AlertDest  string
	MissingDB  []string
	Now        func() time.Time
}

// Server holds the handler state for all API routes.
type Server struct {
	deps Deps
	log  *slog.Logger
}

// NewServer builds the API server. The process starts and serves even when
// the database is unconfigured; affected handlers fail per request.
func NewServer(deps Deps, log *slog.Logger) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Server{deps: deps, log: log}
}

// requireDB reports the missing DB_* variables when no database is wired.
func (s *Server) requireDB() error {
	if s.deps.Store == nil || s.deps.Ingest == nil {
		return apperr.MissingConfig(s.deps.MissingDB)
	}
	return nil
}

// requireStore is requireDB for read-only portal routes.
func (s *Server) requireStore() error {
	if s.deps.Store == nil {
		return apperr.MissingConfig(s.deps.MissingDB)
	}
	return nil
}

func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.New(apperr.BadRequest, "corps JSON invalide")
	}
	return nil
}

// notify queues a best-effort alert mail. Failures never affect the
// response of the request that triggered the mail.
func (s *Server) notify(ctx context.Context, subject, text string) {
	if s.deps.Dispatcher == nil || s.deps.AlertDest == "" {
		return
	}
	s.deps.Dispatcher.Notify(ctx, mail.Message{To: s.deps.AlertDest, Subject: subject, TextPart: text})
}

// callerIdentity returns the Identity injected by RequireIdentity.
func callerIdentity(r *http.Request) (middleware.Identity, error) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return middleware.Identity{}, apperr.New(apperr.TokenMissing, "identité absente du contexte")
	}
	return id, nil
}

// resolveTenant runs the portal access decision for a caller-requested
// tenant and returns the tenant actually granted.
func resolveTenant(r *http.Request, p PortalDeps, tenantID string) (access.Decision, error) {
	id, err := callerIdentity(r)
	if err != nil {
		return access.Decision{}, err
	}
	return p.Resolver.Resolve(r.Context(), id.Email, tenantID, id.TokenTenant)
}

func ok(extra map[string]any) map[string]any {
	body := map[string]any{"ok": true}
	for k, v := range extra {
		body[k] = v
	}
	return body
}
