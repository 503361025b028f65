package access

import (
	"context"

	"github.com/skillboard/skillboard/internal/store"
)

// RefKind discriminates the two internal profile tables.
type RefKind int

const (
	// RefStaff points to the staff_users table.
	RefStaff RefKind = iota
	// RefEmployee points to the salaries table.
	RefEmployee
)

// ProfileRef is the tagged reference a mapping may carry.
type ProfileRef struct {
	Kind RefKind
	ID   string
}

// refFromMapping converts a mapping's (ref_kind, ref_id) pair to a tagged
// reference. Unknown or incomplete pairs yield no reference.
func refFromMapping(m *store.Mapping) (ProfileRef, bool) {
	if m == nil || m.RefID == "" {
		return ProfileRef{}, false
	}
	switch m.RefKind {
	case "staff":
		return ProfileRef{Kind: RefStaff, ID: m.RefID}, true
	case "employee":
		return ProfileRef{Kind: RefEmployee, ID: m.RefID}, true
	default:
		return ProfileRef{}, false
	}
}

// FirstName resolves the display first name attached to (email, tenant).
// Any failure degrades to nil (unknown) rather than failing the enclosing
// request; this only feeds greetings and topbars.
func (r *Resolver) FirstName(ctx context.Context, email, tenantID string) *string {
	m, err := r.store.Mapping(ctx, email, tenantID)
	if err != nil {
		r.log.Warn("profile mapping lookup failed", "portal", r.portal, "err", err)
		return nil
	}
	ref, ok := refFromMapping(m)
	if !ok {
		return nil
	}

	var prenom string
	switch ref.Kind {
	case RefStaff:
		prenom, err = r.store.StaffFirstName(ctx, ref.ID)
	case RefEmployee:
		prenom, err = r.store.EmployeeFirstName(ctx, ref.ID)
	}
	if err != nil {
		r.log.Warn("profile first-name lookup failed", "portal", r.portal, "err", err)
		return nil
	}
	if prenom == "" {
		return nil
	}
	return &prenom
}
