// Package store is the SQL access layer shared by the access resolver and
// the tenant query layer. A pgx-backed SQLStore serves production; a
// MemoryStore backs the tests of everything built on top.
package store

import (
	"context"
	"time"
)

// Portal selects which tenant flavour a query targets.
type Portal string

const (
	// PortalSkills scopes queries to client enterprises.
	PortalSkills Portal = "skills"
	// PortalStudio scopes queries to owner organizations.
	PortalStudio Portal = "studio"
)

// Sentinel values understood by the query layer.
const (
	// ServiceUnlinked in a service filter means "collaborators not linked
	// to any service".
	ServiceUnlinked = "__NON_LIE__"
	// BannerAllTenants marks a dashboard banner visible to every tenant.
	BannerAllTenants = "__TOUS__"
)

// Tenant is a client enterprise (Skills) or an owner (Studio).
type Tenant struct {
	ID   string
	Name string
}

// Mapping links an email to exactly one tenant, optionally pointing to an
// internal profile row.
type Mapping struct {
	Email    string
	TenantID string
	RefKind  string // "staff", "employee" or ""
	RefID    string
}

// Collaborator is one employee row of the collaborator listing.
type Collaborator struct {
	ID      string  `json:"id_salarie"`
	Nom     string  `json:"nom"`
	Prenom  string  `json:"prenom"`
	Service *string `json:"id_service"`
	Actif   bool    `json:"actif"`
}

// CollaboratorFilter narrows the collaborator listing.
type CollaboratorFilter struct {
	Service    string // "" = all, ServiceUnlinked = no service
	ActiveOnly bool
}

// Demographic is the minimal employee data the age pyramid needs.
type Demographic struct {
	Sexe          string
	DateNaissance *time.Time
}

// Competence is one competence of a tenant's referential.
type Competence struct {
	ID        string  `json:"id_competence"`
	Libelle   string  `json:"libelle"`
	Categorie *string `json:"categorie"`
}

// Banner is a dashboard banner currently in its display window.
type Banner struct {
	ID           string
	Message      string
	DisplayOrder int
}

// EnrollmentMatch is one candidate row of the presence participant search.
type EnrollmentMatch struct {
	ID            string
	Nom           string
	Prenom        string
	ActionID      *string
	EntrepriseID  *string
	NomEntreprise *string
}

// Store is the read surface over the shared database. Lookup methods return
// a nil pointer (not an error) when the row is absent.
type Store interface {
	// Mapping finds the non-archived user-access row for (lower(email), tenant).
	Mapping(ctx context.Context, email, tenantID string) (*Mapping, error)
	// FirstMapping finds the non-archived user-access row for lower(email),
	// regardless of tenant.
	FirstMapping(ctx context.Context, email string) (*Mapping, error)

	// Tenants lists all non-archived tenants of a portal, name-ordered.
	Tenants(ctx context.Context, portal Portal) ([]Tenant, error)
	// TenantByID fetches one non-archived tenant of a portal.
	TenantByID(ctx context.Context, portal Portal, id string) (*Tenant, error)

	// StaffFirstName and EmployeeFirstName resolve a profile reference to a
	// display first name; "" means unknown.
	StaffFirstName(ctx context.Context, id string) (string, error)
	EmployeeFirstName(ctx context.Context, id string) (string, error)

	// Collaborators lists non-archived employees of a tenant, sorted by
	// surname then first name.
	Collaborators(ctx context.Context, tenantID string, f CollaboratorFilter) ([]Collaborator, error)
	// ActiveDemographics returns the demographics of active, non-archived
	// employees of a tenant.
	ActiveDemographics(ctx context.Context, tenantID string) ([]Demographic, error)
	// Competences lists a tenant's non-archived competences.
	Competences(ctx context.Context, tenantID string) ([]Competence, error)
	// Banner selects the first banner whose window contains now, for the
	// tenant or the unscoped sentinel. Nil when none (or no banner table).
	Banner(ctx context.Context, tenantID string, now time.Time) (*Banner, error)

	// FindEnrollments searches enrollments by trimmed case-insensitive
	// (nom, prenom), optionally narrowed by action or enterprise.
	FindEnrollments(ctx context.Context, nom, prenom, actionID, entrepriseID string) ([]EnrollmentMatch, error)
}
