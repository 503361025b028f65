// Package access decides what a verified identity may see: super-admin or
// tenant-scoped, and which tenant records are visible. It is shared by the
// Skills and Studio portals.
package access

import (
	"context"
	"log/slog"
	"strings"

	"github.com/skillboard/skillboard/internal/apperr"
	"github.com/skillboard/skillboard/internal/store"
)

// Mode is the caller's access mode.
type Mode string

const (
	// ModeSuperAdmin may act on any tenant.
	ModeSuperAdmin Mode = "super_admin"
	// ModeStandard is scoped to exactly one tenant.
	ModeStandard Mode = "standard"
)

// Decision is the outcome of a successful resolution.
type Decision struct {
	Mode     Mode
	TenantID string
}

// Resolver implements the portal authorization and scoping layer.
type Resolver struct {
	store       store.Store
	portal      store.Portal
	superAdmins map[string]struct{}
	log         *slog.Logger
}

// NewResolver builds a resolver for one portal. superAdmins is the
// process-wide list from configuration, already lowercased.
func NewResolver(st store.Store, portal store.Portal, superAdmins []string, log *slog.Logger) *Resolver {
	set := make(map[string]struct{}, len(superAdmins))
	for _, e := range superAdmins {
		set[strings.ToLower(e)] = struct{}{}
	}
	return &Resolver{store: st, portal: portal, superAdmins: set, log: log}
}

// Portal returns the portal this resolver scopes for.
func (r *Resolver) Portal() store.Portal { return r.portal }

// IsSuperAdmin reports whether the email is on the super-admin list.
func (r *Resolver) IsSuperAdmin(email string) bool {
	_, ok := r.superAdmins[strings.ToLower(email)]
	return ok
}

// deniedMessage names the tenant flavour in the refusal shown to clients.
func (r *Resolver) deniedMessage() string {
	if r.portal == store.PortalStudio {
		return "Accès refusé (owner non autorisé)"
	}
	return "Accès refusé (entreprise non autorisée)"
}

// Resolve decides whether email may act on tenantID. tokenTenant is the
// trusted tenant claim carried by the access token; when it matches the
// request no mapping lookup is needed.
func (r *Resolver) Resolve(ctx context.Context, email, tenantID, tokenTenant string) (Decision, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return Decision{}, apperr.New(apperr.BadRequest, "identifiant de tenant manquant")
	}

	if r.IsSuperAdmin(email) {
		return Decision{Mode: ModeSuperAdmin, TenantID: tenantID}, nil
	}

	if tokenTenant != "" && tokenTenant == tenantID {
		return Decision{Mode: ModeStandard, TenantID: tenantID}, nil
	}

	m, err := r.store.Mapping(ctx, email, tenantID)
	if err != nil {
		return Decision{}, apperr.Wrap(apperr.Internal, "lecture des droits d'accès", err)
	}
	if m == nil {
		return Decision{}, apperr.New(apperr.AccessDenied, r.deniedMessage())
	}
	return Decision{Mode: ModeStandard, TenantID: tenantID}, nil
}

// Scope lists the tenants visible to email: every non-archived tenant for a
// super-admin, the single mapped tenant otherwise.
func (r *Resolver) Scope(ctx context.Context, email string) (Mode, []store.Tenant, error) {
	if r.IsSuperAdmin(email) {
		tenants, err := r.store.Tenants(ctx, r.portal)
		if err != nil {
			return "", nil, apperr.Wrap(apperr.Internal, "liste des tenants", err)
		}
		return ModeSuperAdmin, tenants, nil
	}

	m, err := r.store.FirstMapping(ctx, email)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, "lecture des droits d'accès", err)
	}
	if m == nil {
		return "", nil, apperr.New(apperr.AccessDenied, r.deniedMessage())
	}

	t, err := r.store.TenantByID(ctx, r.portal, m.TenantID)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, "lecture du tenant", err)
	}
	if t == nil {
		return "", nil, apperr.New(apperr.AccessDenied, r.deniedMessage())
	}
	return ModeStandard, []store.Tenant{*t}, nil
}
