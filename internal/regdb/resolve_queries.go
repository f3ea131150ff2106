package regdb

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// GetVersionExact looks up one version row by its exact (major, minor,
// patch) triple, used when a manifest spec pins an internal version.
func (s *Store) GetVersionExact(ctx context.Context, entryID int64, major, minor, patch int) (Version, bool, error) {
	var v Version
	var metadataRaw []byte
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, entry_id, major, minor, patch, external_version, release_date, size_bytes, metadata
		FROM versions WHERE entry_id = $1 AND major = $2 AND minor = $3 AND patch = $4`,
		entryID, major, minor, patch,
	).Scan(&v.ID, &v.EntryID, &v.Major, &v.Minor, &v.Patch, &v.ExternalVersion, &v.ReleaseDate, &v.SizeBytes, &metadataRaw)
	if err == sql.ErrNoRows {
		return Version{}, false, nil
	}
	if err != nil {
		return Version{}, false, bdperr.Wrap(bdperr.KindInternal, err, "query exact version")
	}
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &v.Metadata); err != nil {
			return Version{}, false, bdperr.Wrap(bdperr.KindInternal, err, "decode version metadata")
		}
	}
	return v, true, nil
}

// ListVersionFiles returns every file format published for a version.
func (s *Store) ListVersionFiles(ctx context.Context, versionID int64) ([]VersionFile, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, version_id, file_format, filename, size_bytes, sha256, md5, blob_key
		FROM version_files WHERE version_id = $1 ORDER BY file_format`, versionID)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "query version files")
	}
	defer rows.Close()

	var out []VersionFile
	for rows.Next() {
		var f VersionFile
		if err := rows.Scan(&f.ID, &f.VersionID, &f.FileFormat, &f.Filename, &f.SizeBytes, &f.SHA256, &f.MD5, &f.BlobKey); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "scan version file")
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ResolvedDependency is a dependency_edges row joined against the child's
// organization and slug, since resolve walks the dependency graph by
// (org, name) spec, not by internal id.
type ResolvedDependency struct {
	ChildEntryID        int64
	ChildOrgSlug        string
	ChildEntrySlug      string
	RequiredVersionSpec string
}

// ListDependencyEdges returns the (child org/slug, required spec) edges for
// one version, used to expand a resolved entry's own dependencies.
func (s *Store) ListDependencyEdges(ctx context.Context, parentVersionID int64) ([]ResolvedDependency, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT de.child_entry_id, o.slug, re.slug, de.required_version_spec
		FROM dependency_edges de
		JOIN registry_entries re ON re.id = de.child_entry_id
		JOIN organizations o ON o.id = re.organization_id
		WHERE de.parent_version_id = $1`, parentVersionID)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "query dependency edges")
	}
	defer rows.Close()

	var out []ResolvedDependency
	for rows.Next() {
		var d ResolvedDependency
		if err := rows.Scan(&d.ChildEntryID, &d.ChildOrgSlug, &d.ChildEntrySlug, &d.RequiredVersionSpec); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "scan dependency edge")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
