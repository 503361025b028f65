package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests of the access resolver,
// the query handlers and the HTTP surface. Seed the exported fields before
// use.
type MemoryStore struct {
	mu sync.RWMutex

	Mappings      []Mapping
	TenantList    map[Portal][]Tenant
	StaffNames    map[string]string
	EmployeeNames map[string]string
	Collabs       map[string][]Collaborator
	Demographics  map[string][]Demographic
	Comps         map[string][]Competence
	Banners       map[string]*Banner
	Enrollments   []EnrollmentMatch

	// Err, when set, is returned by every method; simulates DB failure.
	Err error
}

// NewMemoryStore returns an empty seeded store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		TenantList:    make(map[Portal][]Tenant),
		StaffNames:    make(map[string]string),
		EmployeeNames: make(map[string]string),
		Collabs:       make(map[string][]Collaborator),
		Demographics:  make(map[string][]Demographic),
		Comps:         make(map[string][]Competence),
		Banners:       make(map[string]*Banner),
	}
}

func (s *MemoryStore) Mapping(_ context.Context, email, tenantID string) (*Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for i := range s.Mappings {
		m := s.Mappings[i]
		if strings.EqualFold(m.Email, email) && m.TenantID == tenantID {
			return &m, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FirstMapping(_ context.Context, email string) (*Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for i := range s.Mappings {
		if strings.EqualFold(s.Mappings[i].Email, email) {
			m := s.Mappings[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Tenants(_ context.Context, portal Portal) ([]Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := append([]Tenant(nil), s.TenantList[portal]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) TenantByID(_ context.Context, portal Portal, id string) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, t := range s.TenantList[portal] {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) StaffFirstName(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return "", s.Err
	}
	return s.StaffNames[id], nil
}

func (s *MemoryStore) EmployeeFirstName(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return "", s.Err
	}
	return s.EmployeeNames[id], nil
}

func (s *MemoryStore) Collaborators(_ context.Context, tenantID string, f CollaboratorFilter) ([]Collaborator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []Collaborator
	for _, c := range s.Collabs[tenantID] {
		switch f.Service {
		case "":
		case ServiceUnlinked:
			if c.Service != nil {
				continue
			}
		default:
			if c.Service == nil || *c.Service != f.Service {
				continue
			}
		}
		if f.ActiveOnly && !c.Actif {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Nom != out[j].Nom {
			return out[i].Nom < out[j].Nom
		}
		return out[i].Prenom < out[j].Prenom
	})
	return out, nil
}

func (s *MemoryStore) ActiveDemographics(_ context.Context, tenantID string) ([]Demographic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]Demographic(nil), s.Demographics[tenantID]...), nil
}

func (s *MemoryStore) Competences(_ context.Context, tenantID string) ([]Competence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]Competence(nil), s.Comps[tenantID]...), nil
}

func (s *MemoryStore) Banner(_ context.Context, tenantID string, _ time.Time) (*Banner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if b := s.Banners[tenantID]; b != nil {
		return b, nil
	}
	return s.Banners[BannerAllTenants], nil
}

func (s *MemoryStore) FindEnrollments(_ context.Context, nom, prenom, actionID, entrepriseID string) ([]EnrollmentMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	eq := func(a, b string) bool {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	var out []EnrollmentMatch
	for _, m := range s.Enrollments {
		if !eq(m.Nom, nom) || !eq(m.Prenom, prenom) {
			continue
		}
		if actionID != "" && (m.ActionID == nil || *m.ActionID != actionID) {
			continue
		}
		if entrepriseID != "" && (m.EntrepriseID == nil || *m.EntrepriseID != entrepriseID) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
