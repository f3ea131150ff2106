package regdb

import (
	"context"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// ListOrganizations returns every organization ordered by slug, for the
// GET /api/v1/organizations wire endpoint.
func (s *Store) ListOrganizations(ctx context.Context) ([]Organization, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, slug, name, website, is_system FROM organizations ORDER BY slug`)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "list organizations")
	}
	defer rows.Close()

	var out []Organization
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Slug, &o.Name, &o.Website, &o.IsSystem); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "scan organization")
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateOrganization inserts a new organization, returning ErrConflict if
// the slug is already taken.
func (s *Store) CreateOrganization(ctx context.Context, slug, name string, website *string) (Organization, error) {
	row := s.DB.QueryRowContext(ctx, `
		INSERT INTO organizations (slug, name, website) VALUES ($1, $2, $3)
		RETURNING id, slug, name, website, is_system`, slug, name, website)

	var o Organization
	if err := row.Scan(&o.ID, &o.Slug, &o.Name, &o.Website, &o.IsSystem); err != nil {
		if isUniqueViolation(err) {
			return Organization{}, bdperr.Wrap(bdperr.KindConflict, err, "organization slug already exists")
		}
		return Organization{}, bdperr.Wrap(bdperr.KindInternal, err, "create organization")
	}
	return o, nil
}

// UpdateOrganization patches name/website for an existing organization.
func (s *Store) UpdateOrganization(ctx context.Context, slug, name string, website *string) (Organization, error) {
	row := s.DB.QueryRowContext(ctx, `
		UPDATE organizations SET name = $2, website = $3 WHERE slug = $1
		RETURNING id, slug, name, website, is_system`, slug, name, website)

	var o Organization
	if err := row.Scan(&o.ID, &o.Slug, &o.Name, &o.Website, &o.IsSystem); err != nil {
		return Organization{}, bdperr.Wrap(bdperr.KindNotFound, err, "organization not found")
	}
	return o, nil
}

// DeleteOrganization removes an organization by slug. System organizations
// (the built-in uniprot/genbank/etc. sources) reject deletion.
func (s *Store) DeleteOrganization(ctx context.Context, slug string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM organizations WHERE slug = $1 AND is_system = FALSE`, slug)
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "delete organization")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "check delete organization result")
	}
	if n == 0 {
		return bdperr.ErrNotFound
	}
	return nil
}
