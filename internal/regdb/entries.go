package regdb

import (
	"context"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// ListEntriesParams filters GET /api/v1/data-sources.
type ListEntriesParams struct {
	OrganizationSlug string // empty = all organizations
	EntryType        string // empty = all
}

// EntryWithMetadata joins a registry_entries row with its org slug and (for
// data sources) source_type, the shape the wire API returns.
type EntryWithMetadata struct {
	RegistryEntry
	OrganizationSlug string
	SourceType       *SourceType
}

func (s *Store) ListEntries(ctx context.Context, p ListEntriesParams) ([]EntryWithMetadata, error) {
	query := `
		SELECT e.id, e.organization_id, e.slug, e.name, e.entry_type, e.description, e.dependency_count,
		       o.slug, dsm.source_type
		FROM registry_entries e
		JOIN organizations o ON o.id = e.organization_id
		LEFT JOIN data_source_metadata dsm ON dsm.entry_id = e.id
		WHERE ($1 = '' OR o.slug = $1) AND ($2 = '' OR e.entry_type = $2)
		ORDER BY o.slug, e.slug`

	rows, err := s.DB.QueryContext(ctx, query, p.OrganizationSlug, p.EntryType)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "list registry entries")
	}
	defer rows.Close()

	var out []EntryWithMetadata
	for rows.Next() {
		var e EntryWithMetadata
		var sourceType *string
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.Slug, &e.Name, &e.EntryType, &e.Description,
			&e.DependencyCount, &e.OrganizationSlug, &sourceType); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "scan registry entry")
		}
		if sourceType != nil {
			st := SourceType(*sourceType)
			e.SourceType = &st
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateEntryParams is the payload for POST /api/v1/data-sources/…
type CreateEntryParams struct {
	OrganizationSlug string
	Slug             string
	Name             string
	EntryType        EntryType
	Description      *string
	SourceType       *SourceType // required when EntryType == EntryTypeDataSource
	ExternalID       *string
}

func (s *Store) CreateEntry(ctx context.Context, p CreateEntryParams) (EntryWithMetadata, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return EntryWithMetadata{}, bdperr.Wrap(bdperr.KindInternal, err, "begin create entry transaction")
	}
	defer tx.Rollback()

	org, err := s.GetOrganizationBySlug(ctx, p.OrganizationSlug)
	if err != nil {
		return EntryWithMetadata{}, err
	}

	var entryID int64
	row := tx.QueryRowContext(ctx, `
		INSERT INTO registry_entries (organization_id, slug, name, entry_type, description)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		org.ID, p.Slug, p.Name, p.EntryType, p.Description)
	if err := row.Scan(&entryID); err != nil {
		if isUniqueViolation(err) {
			return EntryWithMetadata{}, bdperr.Wrap(bdperr.KindConflict, err, "entry slug already exists in organization")
		}
		return EntryWithMetadata{}, bdperr.Wrap(bdperr.KindInternal, err, "create registry entry")
	}

	if p.EntryType == EntryTypeDataSource {
		if p.SourceType == nil {
			return EntryWithMetadata{}, bdperr.New(bdperr.KindValidation, "source_type is required for data_source entries")
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO data_source_metadata (entry_id, source_type, external_id) VALUES ($1, $2, $3)`,
			entryID, *p.SourceType, p.ExternalID); err != nil {
			return EntryWithMetadata{}, bdperr.Wrap(bdperr.KindInternal, err, "create data source metadata")
		}
	}

	if err := tx.Commit(); err != nil {
		return EntryWithMetadata{}, bdperr.Wrap(bdperr.KindInternal, err, "commit create entry transaction")
	}

	return EntryWithMetadata{
		RegistryEntry: RegistryEntry{ID: entryID, OrganizationID: org.ID, Slug: p.Slug, Name: p.Name,
			EntryType: p.EntryType, Description: p.Description},
		OrganizationSlug: org.Slug, SourceType: p.SourceType,
	}, nil
}

// UpdateEntryParams is the payload for PATCH /api/v1/data-sources/:org/:name.
// Only name/description are mutable in place; slug, entry_type, and
// source_type are identity-defining and require delete+recreate instead.
type UpdateEntryParams struct {
	OrganizationSlug string
	Slug             string
	Name             string
	Description      *string
}

func (s *Store) UpdateEntry(ctx context.Context, p UpdateEntryParams) (EntryWithMetadata, error) {
	row := s.DB.QueryRowContext(ctx, `
		UPDATE registry_entries e SET name = $3, description = $4
		FROM organizations o
		WHERE e.organization_id = o.id AND o.slug = $1 AND e.slug = $2
		RETURNING e.id, e.organization_id, e.slug, e.name, e.entry_type, e.description, e.dependency_count, o.slug`,
		p.OrganizationSlug, p.Slug, p.Name, p.Description)

	var e EntryWithMetadata
	if err := row.Scan(&e.ID, &e.OrganizationID, &e.Slug, &e.Name, &e.EntryType, &e.Description,
		&e.DependencyCount, &e.OrganizationSlug); err != nil {
		return EntryWithMetadata{}, bdperr.Wrap(bdperr.KindNotFound, err, "registry entry not found")
	}

	var sourceType *string
	_ = s.DB.QueryRowContext(ctx, `SELECT source_type FROM data_source_metadata WHERE entry_id = $1`, e.ID).Scan(&sourceType)
	if sourceType != nil {
		st := SourceType(*sourceType)
		e.SourceType = &st
	}
	return e, nil
}

// DeleteEntry removes a registry entry by organization slug + entry slug.
func (s *Store) DeleteEntry(ctx context.Context, orgSlug, entrySlug string) error {
	res, err := s.DB.ExecContext(ctx, `
		DELETE FROM registry_entries e USING organizations o
		WHERE e.organization_id = o.id AND o.slug = $1 AND e.slug = $2`, orgSlug, entrySlug)
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "delete registry entry")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "check delete entry result")
	}
	if n == 0 {
		return bdperr.ErrNotFound
	}
	return nil
}
