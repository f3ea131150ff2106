package regdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/bdp-project/bdp/internal/bdperr"
)

// DefaultPoolSize is the bounded connection pool size spec.md §5 specifies
// for DB access ("a bounded connection pool (default 20) governs DB
// access").
const DefaultPoolSize = 20

// Store wraps a *sql.DB. It is the only shared primitive handlers
// depend on, per spec.md §9 ("the only shared primitives are the
// connection pool and typed error enums") — there is no further DB-layer
// abstraction; every method below owns its SQL and its transaction
// boundary directly.
type Store struct {
	DB *sql.DB
}

// Open connects to dsn using the pgx driver and applies the default pool
// bounds.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "open registry database")
	}
	db.SetMaxOpenConns(DefaultPoolSize)
	db.SetMaxIdleConns(DefaultPoolSize)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{DB: db}, nil
}

// Migrate applies the embedded schema. It is idempotent (every statement
// is IF NOT EXISTS).
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, Schema); err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "apply registry schema")
	}
	return nil
}

func (s *Store) Close() error { return s.DB.Close() }

// GetOrganizationBySlug returns bdperr.ErrNotFound if no row matches.
func (s *Store) GetOrganizationBySlug(ctx context.Context, slug string) (Organization, error) {
	var o Organization
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, slug, name, website, is_system FROM organizations WHERE slug = $1`, slug,
	).Scan(&o.ID, &o.Slug, &o.Name, &o.Website, &o.IsSystem)
	if err == sql.ErrNoRows {
		return Organization{}, bdperr.ErrNotFound
	}
	if err != nil {
		return Organization{}, bdperr.Wrap(bdperr.KindInternal, err, "query organization")
	}
	return o, nil
}

// EnsureOrganization creates the organization row if absent and returns its
// id either way (idempotent creation, mirroring the version-mapping
// idempotence pattern spec.md §4.3 specifies for publish).
func (s *Store) EnsureOrganization(ctx context.Context, slug, name string, isSystem bool) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO organizations (slug, name, is_system)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id`, slug, name, isSystem).Scan(&id)
	if err != nil {
		return 0, bdperr.Wrap(bdperr.KindInternal, err, "ensure organization")
	}
	return id, nil
}

// GetEntry returns bdperr.ErrNotFound if (organization_id, slug) doesn't exist.
func (s *Store) GetEntry(ctx context.Context, organizationID int64, slug string) (RegistryEntry, error) {
	var e RegistryEntry
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, organization_id, slug, name, entry_type, description, dependency_count
		FROM registry_entries WHERE organization_id = $1 AND slug = $2`,
		organizationID, slug,
	).Scan(&e.ID, &e.OrganizationID, &e.Slug, &e.Name, &e.EntryType, &e.Description, &e.DependencyCount)
	if err == sql.ErrNoRows {
		return RegistryEntry{}, bdperr.ErrNotFound
	}
	if err != nil {
		return RegistryEntry{}, bdperr.Wrap(bdperr.KindInternal, err, "query entry")
	}
	return e, nil
}

// GetVersionMapping implements the idempotent lookup spec.md §4.1 requires
// before consulting the bump policy: "if an entry in the mapping table
// matches, return the existing internal version".
func (s *Store) GetVersionMapping(ctx context.Context, entryID int64, externalVersion string) (string, bool, error) {
	var internal string
	err := s.DB.QueryRowContext(ctx,
		`SELECT internal_version FROM version_mappings WHERE entry_id = $1 AND external_version = $2`,
		entryID, externalVersion,
	).Scan(&internal)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, bdperr.Wrap(bdperr.KindInternal, err, "query version mapping")
	}
	return internal, true, nil
}

// GetLatestVersion returns the highest-ordered (major,minor,patch)
// versions row for an entry, used to resolve the "bump on top of the
// previous internal version" step of spec.md §4.1 and an unpinned spec in
// resolve.
func (s *Store) GetLatestVersion(ctx context.Context, entryID int64) (Version, bool, error) {
	var v Version
	var metadataRaw []byte
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, entry_id, major, minor, patch, external_version, release_date, size_bytes, metadata
		FROM versions WHERE entry_id = $1
		ORDER BY major DESC, minor DESC, patch DESC LIMIT 1`, entryID,
	).Scan(&v.ID, &v.EntryID, &v.Major, &v.Minor, &v.Patch, &v.ExternalVersion, &v.ReleaseDate, &v.SizeBytes, &metadataRaw)
	if err == sql.ErrNoRows {
		return Version{}, false, nil
	}
	if err != nil {
		return Version{}, false, bdperr.Wrap(bdperr.KindInternal, err, "query latest version")
	}
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &v.Metadata); err != nil {
			return Version{}, false, bdperr.Wrap(bdperr.KindInternal, err, "decode version metadata")
		}
	}
	return v, true, nil
}
