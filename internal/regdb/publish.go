package regdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/idver"
)

// PublishFile is one file to attach to a published version.
type PublishFile struct {
	FileFormat string
	Filename   string
	SizeBytes  int64
	SHA256     string
	MD5        string
	BlobKey    string
}

// PublishDependency is one dependency edge to record at publication time.
type PublishDependency struct {
	ChildEntryID        int64
	RequiredVersionSpec string
}

// PublishVersionParams collects everything spec.md §4.3's "publish
// version" transaction needs: the version row, its files, its dependency
// edges, and the version-mapping binding being made immutable by this
// commit.
type PublishVersionParams struct {
	EntryID         int64
	Major, Minor, Patch int
	ExternalVersion string
	ReleaseDate     *time.Time
	Metadata        map[string]any
	Files           []PublishFile
	Dependencies    []PublishDependency
	OrganizationID  int64
	JobID           string
}

// PublishVersion is the single transaction spec.md §4.3 specifies: insert
// version, insert N version_file rows, insert dependency edges, bump
// organization sync status. If any step fails none of it is visible. If
// (entry_id, external_version) is already mapped, the existing version_id
// is returned and nothing new is inserted — re-ingestion is a no-op.
func (s *Store) PublishVersion(ctx context.Context, p PublishVersionParams) (versionID int64, created bool, err error) {
	if internal, ok, lookupErr := s.GetVersionMapping(ctx, p.EntryID, p.ExternalVersion); lookupErr == nil && ok {
		v, found, vErr := s.getVersionByInternal(ctx, p.EntryID, internal)
		if vErr == nil && found {
			return v.ID, false, nil
		}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, bdperr.Wrap(bdperr.KindInternal, err, "begin publish transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	versionID, created, err = PublishVersionTx(ctx, tx, s, p)
	if err != nil {
		return 0, false, err
	}

	if err = tx.Commit(); err != nil {
		return 0, false, bdperr.Wrap(bdperr.KindInternal, err, "commit publish transaction")
	}
	return versionID, created, nil
}

// PublishVersionTx runs spec.md §4.3's publish transaction body against a
// caller-owned tx, so the ingestion framework's per-chunk transaction
// (internal/ingest CommitChunk) can publish a version inside its own
// per-record savepoint rather than opening a second, competing transaction.
// The idempotency pre-check PublishVersion does before opening its tx is
// the caller's responsibility here: a tx-scoped re-check still runs below
// via the unique-violation path, but callers that already know the mapping
// exists should skip calling this at all.
func PublishVersionTx(ctx context.Context, tx *sql.Tx, s *Store, p PublishVersionParams) (versionID int64, created bool, err error) {
	metadataJSON, mErr := json.Marshal(p.Metadata)
	if mErr != nil {
		return 0, false, bdperr.Wrap(bdperr.KindInternal, mErr, "marshal version metadata")
	}

	var totalSize int64
	for _, f := range p.Files {
		totalSize += f.SizeBytes
	}

	// The insert runs under its own nested savepoint so a lost race only
	// unwinds this insert, not the caller's whole transaction — PublishVersion
	// owns a dedicated tx, but PublishVersionTx may also run inside
	// internal/ingest's per-record chunk savepoint.
	if _, spErr := tx.ExecContext(ctx, "SAVEPOINT "+quoteIdent("publish_version_insert")); spErr != nil {
		return 0, false, bdperr.Wrap(bdperr.KindInternal, spErr, "create publish savepoint")
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO versions (entry_id, major, minor, patch, external_version, release_date, size_bytes, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		p.EntryID, p.Major, p.Minor, p.Patch, p.ExternalVersion, p.ReleaseDate, totalSize, metadataJSON,
	).Scan(&versionID)
	if isUniqueViolation(err) {
		// Lost the race against a concurrent publish of the same
		// (entry, major, minor, patch); treat as idempotent success
		// per spec.md §5 ("a losing racer observes the unique-violation
		// and treats it as idempotent success after re-reading the
		// winning row").
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+quoteIdent("publish_version_insert")); rbErr != nil {
			return 0, false, bdperr.Wrap(bdperr.KindInternal, rbErr, "rollback publish savepoint")
		}
		if _, relErr := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+quoteIdent("publish_version_insert")); relErr != nil {
			return 0, false, bdperr.Wrap(bdperr.KindInternal, relErr, "release publish savepoint")
		}
		v, found, vErr := s.getVersionByInternal(ctx, p.EntryID, versionString(p.Major, p.Minor, p.Patch))
		if vErr != nil {
			return 0, false, vErr
		}
		if !found {
			return 0, false, bdperr.New(bdperr.KindInternal, "unique violation on publish but winning row not found")
		}
		return v.ID, false, nil
	}
	if err != nil {
		return 0, false, bdperr.Wrap(bdperr.KindInternal, err, "insert version")
	}
	if _, relErr := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+quoteIdent("publish_version_insert")); relErr != nil {
		return 0, false, bdperr.Wrap(bdperr.KindInternal, relErr, "release publish savepoint")
	}

	for _, f := range p.Files {
		var md5 any
		if f.MD5 != "" {
			md5 = f.MD5
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO version_files (version_id, file_format, filename, size_bytes, sha256, md5, blob_key)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			versionID, f.FileFormat, f.Filename, f.SizeBytes, f.SHA256, md5, f.BlobKey); err != nil {
			return 0, false, bdperr.Wrap(bdperr.KindInternal, err, "insert version_file")
		}
	}

	for _, d := range p.Dependencies {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO dependency_edges (parent_version_id, child_entry_id, required_version_spec)
			VALUES ($1,$2,$3)
			ON CONFLICT (parent_version_id, child_entry_id) DO NOTHING`,
			versionID, d.ChildEntryID, d.RequiredVersionSpec); err != nil {
			return 0, false, bdperr.Wrap(bdperr.KindInternal, err, "insert dependency_edge")
		}
	}

	if len(p.Dependencies) > 0 {
		if _, err = tx.ExecContext(ctx, `
			UPDATE registry_entries SET dependency_count = dependency_count + $1 WHERE id = $2`,
			len(p.Dependencies), p.EntryID); err != nil {
			return 0, false, bdperr.Wrap(bdperr.KindInternal, err, "update dependency_count")
		}
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO version_mappings (entry_id, external_version, internal_version)
		VALUES ($1,$2,$3)
		ON CONFLICT (entry_id, external_version) DO NOTHING`,
		p.EntryID, p.ExternalVersion, versionString(p.Major, p.Minor, p.Patch)); err != nil {
		return 0, false, bdperr.Wrap(bdperr.KindInternal, err, "insert version_mapping")
	}

	now := time.Now().UTC()
	var jobID any
	if p.JobID != "" {
		jobID = p.JobID
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO organization_sync_status (organization_id, last_external_version, last_sync_at, last_job_id)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (organization_id) DO UPDATE SET
			last_external_version = EXCLUDED.last_external_version,
			last_sync_at = EXCLUDED.last_sync_at,
			last_job_id = EXCLUDED.last_job_id`,
		p.OrganizationID, p.ExternalVersion, now, jobID); err != nil {
		return 0, false, bdperr.Wrap(bdperr.KindInternal, err, "upsert sync status")
	}

	return versionID, true, nil
}

func (s *Store) getVersionByInternal(ctx context.Context, entryID int64, internal string) (Version, bool, error) {
	v, err := idver.ParseVersion(internal)
	if err != nil {
		return Version{}, false, bdperr.Wrap(bdperr.KindInternal, err, "parse stored internal version")
	}
	var out Version
	var metadataRaw []byte
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, entry_id, major, minor, patch, external_version, release_date, size_bytes, metadata
		FROM versions WHERE entry_id = $1 AND major = $2 AND minor = $3 AND patch = $4`,
		entryID, v.Major, v.Minor, v.Patch)
	if err := row.Scan(&out.ID, &out.EntryID, &out.Major, &out.Minor, &out.Patch,
		&out.ExternalVersion, &out.ReleaseDate, &out.SizeBytes, &metadataRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Version{}, false, nil
		}
		return Version{}, false, bdperr.Wrap(bdperr.KindInternal, err, "query version by internal")
	}
	if len(metadataRaw) > 0 {
		_ = json.Unmarshal(metadataRaw, &out.Metadata)
	}
	return out, true, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
