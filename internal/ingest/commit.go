package ingest

import (
	"context"
	"database/sql"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/regdb"
)

// CommitOptions configures NewCommitHandler for one job.
type CommitOptions struct {
	Store           *regdb.Store
	OrganizationID  int64
	OrgSlug         string
	JobID           string
	ExternalVersion string
}

// NewCommitHandler builds the RecordHandler CommitChunk drives for one
// ingestion job: ensure/upgrade the record's own entry, resolve and stub
// its dependencies, compute the next internal version per spec.md §4.1's
// bump policy, and publish it — all inside the caller's per-record
// savepoint (see internal/regdb PublishVersionTx).
func NewCommitHandler(opts CommitOptions) RecordHandler {
	return func(ctx context.Context, tx *sql.Tx, rec Record) error {
		entryID, err := EnsureStubEntry(ctx, tx, opts.OrganizationID, opts.OrgSlug, rec.EntrySlug, rec.SourceType)
		if err != nil {
			return err
		}
		if err := UpgradeStub(ctx, tx, entryID, rec.EntryName, rec.Description); err != nil {
			return err
		}

		deps := make([]regdb.PublishDependency, 0, len(rec.Dependencies))
		for _, d := range rec.Dependencies {
			depOrgID, err := organizationIDBySlugTx(ctx, tx, d.OrgSlug)
			if err != nil {
				return err
			}
			childID, err := EnsureStubEntry(ctx, tx, depOrgID, d.OrgSlug, d.EntrySlug, d.SourceType)
			if err != nil {
				return err
			}
			deps = append(deps, regdb.PublishDependency{
				ChildEntryID:        childID,
				RequiredVersionSpec: d.RequiredVersionSpec,
			})
		}

		next, err := NextVersion(ctx, opts.Store, entryID, rec.SourceType, rec)
		if err != nil {
			return err
		}

		metadata := rec.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		if rec.SequenceSHA256 != "" {
			metadata["sequence_sha256"] = rec.SequenceSHA256
		}

		_, _, err = regdb.PublishVersionTx(ctx, tx, opts.Store, regdb.PublishVersionParams{
			EntryID:         entryID,
			Major:           next.Major,
			Minor:           next.Minor,
			Patch:           next.Patch,
			ExternalVersion: opts.ExternalVersion,
			Metadata:        metadata,
			Files:           rec.Files,
			Dependencies:    deps,
			OrganizationID:  opts.OrganizationID,
			JobID:           opts.JobID,
		})
		return err
	}
}

// organizationIDBySlugTx looks up an organization id within tx, creating a
// bare placeholder organization if the dependency names one the registry
// hasn't seen yet (spec.md §4.4 DependencyMissing applies to organizations,
// not just entries, when a source references a cross-organization entity
// before that organization has been onboarded).
func organizationIDBySlugTx(ctx context.Context, tx *sql.Tx, slug string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM organizations WHERE slug = $1`, slug).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, bdperr.Wrap(bdperr.KindInternal, err, "query organization for dependency")
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO organizations (slug, name, is_system)
		VALUES ($1, $2, false)
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id`, slug, slug).Scan(&id)
	if err != nil {
		return 0, bdperr.Wrap(bdperr.KindInternal, err, "create placeholder organization for dependency")
	}
	return id, nil
}
