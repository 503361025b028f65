package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skillboard/skillboard/internal/db"
)

// pgUndefinedTable is the SQLSTATE for a query against a missing table.
const pgUndefinedTable = "42P01"

// SQLStore implements Store over PostgreSQL.
type SQLStore struct {
	pool *pgxpool.Pool
	caps *db.Capabilities
}

// NewSQLStore builds the production store. caps is the startup capability
// probe; it selects between schema variants of the profile tables.
func NewSQLStore(pool *pgxpool.Pool, caps *db.Capabilities) *SQLStore {
	return &SQLStore{pool: pool, caps: caps}
}

func (s *SQLStore) Mapping(ctx context.Context, email, tenantID string) (*Mapping, error) {
	conn, err := db.Acquire(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
		SELECT email, id_tenant, COALESCE(ref_kind, ''), COALESCE(ref_id, '')
		FROM user_access
		WHERE LOWER(email) = LOWER($1) AND id_tenant = $2 AND NOT archived
		LIMIT 1`, email, tenantID)
	return scanMapping(row)
}

func (s *SQLStore) FirstMapping(ctx context.Context, email string) (*Mapping, error) {
	conn, err := db.Acquire(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
		SELECT email, id_tenant, COALESCE(ref_kind, ''), COALESCE(ref_id, '')
		FROM user_access
		WHERE LOWER(email) = LOWER($1) AND NOT archived
		ORDER BY created_at
		LIMIT 1`, email)
	return scanMapping(row)
}

func scanMapping(row pgx.Row) (*Mapping, error) {
	var m Mapping
	if err := row.Scan(&m.Email, &m.TenantID, &m.RefKind, &m.RefID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// tenantSQL maps each portal to its tenant table.
var tenantSQL = map[Portal]struct{ list, byID string }{
	PortalSkills: {
		list: `SELECT id_contact, nom_entreprise FROM entreprises
		       WHERE NOT archived ORDER BY nom_entreprise`,
		byID: `SELECT id_contact, nom_entreprise FROM entreprises
		       WHERE id_contact = $1 AND NOT archived`,
	},
	PortalStudio: {
		list: `SELECT id_owner, nom_owner FROM owners
		       WHERE NOT archived ORDER BY nom_owner`,
		byID: `SELECT id_owner, nom_owner FROM owners
		       WHERE id_owner = $1 AND NOT archived`,
	},
}

func (s *SQLStore) Tenants(ctx context.Context, portal Portal) ([]Tenant, error) {
	conn, err := db.Acquire(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, tenantSQL[portal].list)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) TenantByID(ctx context.Context, portal Portal, id string) (*Tenant, error) {
	conn, err := db.Acquire(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var t Tenant
	if err := conn.QueryRow(ctx, tenantSQL[portal].byID, id).Scan(&t.ID, &t.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (s *SQLStore) StaffFirstName(ctx context.Context, id string) (string, error) {
	q := `SELECT COALESCE(prenom, '') FROM staff_users WHERE id_staff = $1`
	if s.caps.HasColumn("staff_users", "archived") {
		q += ` AND NOT archived`
	}
	return s.firstName(ctx, q, id)
}

func (s *SQLStore) EmployeeFirstName(ctx context.Context, id string) (string, error) {
	q := `SELECT COALESCE(prenom, '') FROM salaries WHERE id_salarie = $1`
	if s.caps.HasColumn("salaries", "archived") {
		q += ` AND NOT archived`
	}
	return s.firstName(ctx, q, id)
}

func (s *SQLStore) firstName(ctx context.Context, query, id string) (string, error) {
	conn, err := db.Acquire(ctx, s.pool)
	if err != nil {
		return "", err
	}
	defer conn.Release()

	var prenom string
	if err := conn.QueryRow(ctx, query, id).Scan(&prenom); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return prenom, nil
}

func (s *SQLStore) Collaborators(ctx context.Context, tenantID string, f CollaboratorFilter) ([]Collaborator, error) {
	conn, err := db.Acquire(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	q := `SELECT id_salarie, nom, prenom, id_service, actif
	      FROM salaries
	      WHERE id_contact = $1 AND NOT archived`
	args := []any{tenantID}
	switch f.Service {
	case "":
	case ServiceUnlinked:
		q += ` AND id_service IS NULL`
	default:
		q += ` AND id_service = $2`
		args = append(args, f.Service)
	}
	if f.ActiveOnly {
		q += ` AND actif`
	}
	q += ` ORDER BY nom, prenom`

	rows, err := conn.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Collaborator
	for rows.Next() {
		var c Collaborator
		if err := rows.Scan(&c.ID, &c.Nom, &c.Prenom, &c.Service, &c.Actif); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) ActiveDemographics(ctx context.Context, tenantID string) ([]Demographic, error) {
	conn, err := db.Acquire(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT COALESCE(sexe, ''), date_naissance
		FROM salaries
		WHERE id_contact = $1 AND actif AND NOT archived`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Demographic
	for rows.Next() {
		var d Demographic
		if err := rows.Scan(&d.Sexe, &d.DateNaissance); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLStore) Competences(ctx context.Context, tenantID string) ([]Competence, error) {
	conn, err := db.Acquire(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT id_competence, libelle, categorie
		FROM competences
		WHERE id_contact = $1 AND NOT archived
		ORDER BY libelle`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Competence
	for rows.Next() {
		var c Competence
		if err := rows.Scan(&c.ID, &c.Libelle, &c.Categorie); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) Banner(ctx context.Context, tenantID string, now time.Time) (*Banner, error) {
	conn, err := db.Acquire(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var b Banner
	err = conn.QueryRow(ctx, `
		SELECT id_bandeau, message, display_order
		FROM bandeaux
		WHERE (id_contact = $1 OR id_contact = $2)
		  AND NOT archived
		  AND date_debut <= $3 AND date_fin >= $3
		ORDER BY display_order ASC, created_at DESC
		LIMIT 1`, tenantID, BannerAllTenants, now).Scan(&b.ID, &b.Message, &b.DisplayOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		// Deployments without the banner table show no banner.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
			return nil, nil
		}
		return nil, err
	}
	if b.Message == "" {
		return nil, nil
	}
	return &b, nil
}

func (s *SQLStore) FindEnrollments(ctx context.Context, nom, prenom, actionID, entrepriseID string) ([]EnrollmentMatch, error) {
	conn, err := db.Acquire(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	// Exact case-insensitive match; BTRIM tolerates trailing whitespace in
	// stored names.
	q := `SELECT i.id_inscription, i.nom, i.prenom,
	             i.id_action_formation, i.id_entreprise, e.nom_entreprise
	      FROM inscriptions i
	      LEFT JOIN entreprises e ON e.id_contact = i.id_entreprise
	      WHERE LOWER(BTRIM(i.nom)) = LOWER(BTRIM($1))
	        AND LOWER(BTRIM(i.prenom)) = LOWER(BTRIM($2))
	        AND NOT i.archived`
	args := []any{nom, prenom}
	if actionID != "" {
		args = append(args, actionID)
		q += ` AND i.id_action_formation = $3`
	}
	if entrepriseID != "" {
		args = append(args, entrepriseID)
		if actionID != "" {
			q += ` AND i.id_entreprise = $4`
		} else {
			q += ` AND i.id_entreprise = $3`
		}
	}
	q += ` ORDER BY i.id_inscription`

	rows, err := conn.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EnrollmentMatch
	for rows.Next() {
		var m EnrollmentMatch
		if err := rows.Scan(&m.ID, &m.Nom, &m.Prenom, &m.ActionID, &m.EntrepriseID, &m.NomEntreprise); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
