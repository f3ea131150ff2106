package regdb

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// ListJobsParams filters GET /api/v1/jobs.
type ListJobsParams struct {
	OrganizationSlug string // empty = all organizations
	JobType          string // empty = all
	Status           string // empty = all
	Limit            int
	Offset           int
}

// JobWithOrg joins an ingestion_jobs row with its organization slug, the
// shape GET /api/v1/jobs returns.
type JobWithOrg struct {
	IngestionJob
	OrganizationSlug string
}

// ListJobs returns ingestion_jobs newest-started-first, per spec.md §6's
// `GET /api/v1/jobs`.
func (s *Store) ListJobs(ctx context.Context, p ListJobsParams) ([]JobWithOrg, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT j.id, j.job_id, j.organization_id, j.job_type, j.external_version, j.internal_version,
		       j.status, j.source_metadata, j.records_processed, j.records_skipped, j.records_failed,
		       j.started_at, j.finished_at, j.error, o.slug
		FROM ingestion_jobs j
		JOIN organizations o ON o.id = j.organization_id
		WHERE ($1 = '' OR o.slug = $1) AND ($2 = '' OR j.job_type = $2) AND ($3 = '' OR j.status = $3)
		ORDER BY j.started_at DESC NULLS LAST
		LIMIT $4 OFFSET $5`,
		p.OrganizationSlug, p.JobType, p.Status, limit, p.Offset)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "list ingestion jobs")
	}
	defer rows.Close()

	var out []JobWithOrg
	for rows.Next() {
		var j JobWithOrg
		var metadataRaw []byte
		if err := rows.Scan(&j.ID, &j.JobID, &j.OrganizationID, &j.JobType, &j.ExternalVersion, &j.InternalVersion,
			&j.Status, &metadataRaw, &j.RecordsProcessed, &j.RecordsSkipped, &j.RecordsFailed,
			&j.StartedAt, &j.FinishedAt, &j.Error, &j.OrganizationSlug); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "scan ingestion job")
		}
		if len(metadataRaw) > 0 {
			if err := json.Unmarshal(metadataRaw, &j.SourceMetadata); err != nil {
				return nil, bdperr.Wrap(bdperr.KindInternal, err, "parse job source_metadata")
			}
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// SyncStatusWithOrg joins organization_sync_status with its organization
// slug, the shape GET /api/v1/sync-status returns (spec.md §6).
type SyncStatusWithOrg struct {
	OrganizationSyncStatus
	OrganizationSlug string
}

// ListSyncStatus returns one row per organization that has ever completed a
// sync, newest first.
func (s *Store) ListSyncStatus(ctx context.Context) ([]SyncStatusWithOrg, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT st.organization_id, st.last_external_version, st.last_sync_at, st.last_job_id, o.slug
		FROM organization_sync_status st
		JOIN organizations o ON o.id = st.organization_id
		ORDER BY st.last_sync_at DESC NULLS LAST`)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "list sync status")
	}
	defer rows.Close()

	var out []SyncStatusWithOrg
	for rows.Next() {
		var st SyncStatusWithOrg
		if err := rows.Scan(&st.OrganizationID, &st.LastExternalVersion, &st.LastSyncAt, &st.LastJobID, &st.OrganizationSlug); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "scan sync status")
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetSyncStatusByOrgSlug backs `GET /api/v1/organizations/:slug/versions`'s
// sync-status rollup (SPEC_FULL.md supplemented feature). Returns
// bdperr.ErrNotFound if the organization has never completed a sync.
func (s *Store) GetSyncStatusByOrgSlug(ctx context.Context, orgSlug string) (SyncStatusWithOrg, error) {
	var st SyncStatusWithOrg
	st.OrganizationSlug = orgSlug
	err := s.DB.QueryRowContext(ctx, `
		SELECT st.organization_id, st.last_external_version, st.last_sync_at, st.last_job_id
		FROM organization_sync_status st
		JOIN organizations o ON o.id = st.organization_id
		WHERE o.slug = $1`, orgSlug,
	).Scan(&st.OrganizationID, &st.LastExternalVersion, &st.LastSyncAt, &st.LastJobID)
	if err == sql.ErrNoRows {
		return SyncStatusWithOrg{}, bdperr.ErrNotFound
	}
	if err != nil {
		return SyncStatusWithOrg{}, bdperr.Wrap(bdperr.KindInternal, err, "query sync status by org")
	}
	return st, nil
}
