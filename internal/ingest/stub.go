package ingest

import (
	"context"
	"database/sql"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/idver"
	"github.com/bdp-project/bdp/internal/regdb"
)

// EnsureStubEntry implements spec.md §4.4's DependencyMissing handling: a
// referenced parent/child entity absent from the registry gets a
// minimally-populated registry_entries row (description "stub entry
// pending ingestion") plus a data_source_metadata row whose external_id is
// idver.StubExternalID, to be upgraded (not replaced) by a later ingestion
// of the real entity. No is_stub flag is stored. Returns the entry id
// either way.
func EnsureStubEntry(ctx context.Context, tx *sql.Tx, organizationID int64, orgSlug, entrySlug string, sourceType regdb.SourceType) (int64, error) {
	var entryID int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM registry_entries WHERE organization_id = $1 AND slug = $2`,
		organizationID, entrySlug,
	).Scan(&entryID)
	if err == nil {
		return entryID, nil
	}
	if err != sql.ErrNoRows {
		return 0, bdperr.Wrap(bdperr.KindInternal, err, "query entry for stub check")
	}

	stubExternal := idver.StubExternalID(orgSlug, entrySlug)
	err = tx.QueryRowContext(ctx, `
		INSERT INTO registry_entries (organization_id, slug, name, entry_type, description)
		VALUES ($1,$2,$3,'data_source', 'stub entry pending ingestion')
		RETURNING id`,
		organizationID, entrySlug, entrySlug).Scan(&entryID)
	if err != nil {
		return 0, bdperr.Wrap(bdperr.KindInternal, err, "insert stub entry")
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO data_source_metadata (entry_id, source_type, external_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (entry_id) DO NOTHING`,
		entryID, sourceType, stubExternal); err != nil {
		return 0, bdperr.Wrap(bdperr.KindInternal, err, "insert stub data_source_metadata")
	}

	return entryID, nil
}

// UpgradeStub overwrites the entry's name and description with the real
// entity's once it has been ingested (the stub external_id is left as
// is); it is a normal field update, not a new row, so dependency
// edges already pointing at this entry id remain valid (spec.md's "seed
// scenario 3" invariant applied generally: stubs upgrade in place).
func UpgradeStub(ctx context.Context, tx *sql.Tx, entryID int64, name, description string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE registry_entries SET name = $1, description = $2 WHERE id = $3`,
		name, description, entryID)
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "upgrade stub entry")
	}
	return nil
}
