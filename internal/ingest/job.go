// Package ingest is the ingestion framework (spec.md §4.4): job lifecycle,
// chunked batching with per-record savepoint isolation, bulk dedup, bounded
// parallelism across independent work units, and retry with backoff.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/regdb"
)

// Record is one normalized entity a source pipeline (C5) emits. Ingestion
// is source-agnostic past this point: every pipeline reduces its own
// domain format down to a Record before the coordinator takes over.
type Record struct {
	EntrySlug       string
	EntryName       string
	Description     string
	SourceType      regdb.SourceType
	SequenceSHA256  string // empty if the record carries no sequence
	Dependencies    []RecordDependency
	Files           []regdb.PublishFile
	Metadata        map[string]any
}

// RecordDependency names a child entry this record's version depends on,
// by (org, slug) rather than by internal id, since the child may not be
// ingested yet (spec.md §4.4 DependencyMissing). SourceType seeds the stub
// entry's data_source_metadata row if the child has to be created.
type RecordDependency struct {
	OrgSlug             string
	EntrySlug           string
	RequiredVersionSpec string
	SourceType          regdb.SourceType
}

// ErrNetwork and ErrSchemaMismatch are two of the four job-and-record-level
// error kinds spec.md §4.4 distinguishes; ParseError errors are built with
// NewParseError, and DependencyMissing has no error value since it is
// resolved by EnsureStubEntry. ParseError and DependencyMissing are
// per-record and recorded, not fatal; NetworkError is retried; SchemaMismatch
// is fatal to the whole job.
var (
	ErrNetwork           = bdperr.New(bdperr.KindNetworkError, "transient upstream fetch/parse failure")
	ErrSchemaMismatch    = bdperr.New(bdperr.KindSchemaMismatch, "upstream format changed")
)

// NewParseError wraps a per-record parse failure; the framework records it
// against the job's records_failed counter and continues.
func NewParseError(cause error, context string) error {
	return bdperr.Wrap(bdperr.KindParseError, cause, context)
}

// JobKey identifies a job per spec.md §4.4: "(organization, job_type,
// external_version)".
type JobKey struct {
	OrganizationID  int64
	JobType         string
	ExternalVersion string
}

// Coordinator drives one job: lifecycle transitions, batching, retry, and
// parallel work units. It holds no other state between jobs.
type Coordinator struct {
	Store        *regdb.Store
	RetryBase    time.Duration
	RetryMax     int
	BatchSize    int
	Parallelism  int
}

// NewCoordinator builds a Coordinator with spec.md §4.4/§5 defaults:
// 5s base backoff, 3 max attempts, 500-1000 record chunks, 4-way
// work-unit parallelism.
func NewCoordinator(store *regdb.Store) *Coordinator {
	return &Coordinator{
		Store:       store,
		RetryBase:   5 * time.Second,
		RetryMax:    3,
		BatchSize:   500,
		Parallelism: 4,
	}
}

// StartJob inserts the job row directly in status running; no job passes
// through queued here. A job that already exists for this key, whatever
// its status, is returned with its id and existing = true so the caller
// can decide to skip (e.g. migrated-from-current-to-historical
// re-ingestion, spec.md §8 "skipped with reason migrated").
func (c *Coordinator) StartJob(ctx context.Context, key JobKey, sourceMetadata map[string]any) (jobID string, existing bool, err error) {
	var existingStatus string
	err = c.Store.DB.QueryRowContext(ctx, `
		SELECT job_id::text, status FROM ingestion_jobs
		WHERE organization_id = $1 AND job_type = $2 AND external_version = $3`,
		key.OrganizationID, key.JobType, key.ExternalVersion,
	).Scan(&jobID, &existingStatus)
	if err == nil {
		return jobID, true, nil
	}

	newID := uuid.NewString()
	now := time.Now().UTC()
	metaJSON, mErr := marshalMetadata(sourceMetadata)
	if mErr != nil {
		return "", false, mErr
	}
	_, err = c.Store.DB.ExecContext(ctx, `
		INSERT INTO ingestion_jobs (job_id, organization_id, job_type, external_version, status, source_metadata, started_at)
		VALUES ($1,$2,$3,$4,'running',$5,$6)`,
		newID, key.OrganizationID, key.JobType, key.ExternalVersion, metaJSON, now)
	if err != nil {
		return "", false, bdperr.Wrap(bdperr.KindInternal, err, "create ingestion job")
	}
	return newID, false, nil
}

// FinishJob records the terminal status and counters for a job.
func (c *Coordinator) FinishJob(ctx context.Context, jobID string, status regdb.JobStatus, processed, skipped, failed int, internalVersion string, jobErr error) error {
	now := time.Now().UTC()
	var errMsg any
	if jobErr != nil {
		errMsg = jobErr.Error()
	}
	var internal any
	if internalVersion != "" {
		internal = internalVersion
	}
	_, err := c.Store.DB.ExecContext(ctx, `
		UPDATE ingestion_jobs
		SET status = $1, records_processed = $2, records_skipped = $3, records_failed = $4,
		    internal_version = $5, finished_at = $6, error = $7
		WHERE job_id = $8`,
		status, processed, skipped, failed, internal, now, errMsg, jobID)
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "finish ingestion job")
	}
	return nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "marshal source_metadata")
	}
	return data, nil
}
