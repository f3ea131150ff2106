package ingest

import (
	"context"
	"io"
	"sync"

	"github.com/bdp-project/bdp/internal/regdb"
)

// RunParams collects what RunJob needs to drive one ingestion job end to
// end: the thin orchestrator spec.md §4.5 describes wiring Discover/Parse/
// store together.
type RunParams struct {
	Key             JobKey
	OrgSlug         string
	JobType         string
	SourceMetadata  map[string]any
	Source          io.Reader
	ParseLimit      int // -1 for unbounded
}

// RunResult summarizes one job run for the HTTP layer to report back.
type RunResult struct {
	JobID     string
	Skipped   bool
	Processed int
	RecordsSkipped int
	Failed    int
}

// RunJob drives one job through its full lifecycle: StartJob, Parse, chunked
// commit with bounded work-unit parallelism, FinishJob. A job already
// running/finished for this (organization, job_type, external_version) key
// is returned as Skipped rather than re-run (spec.md §4.4 job identity).
func (c *Coordinator) RunJob(ctx context.Context, pipeline Pipeline, p RunParams) (RunResult, error) {
	jobID, existing, err := c.StartJob(ctx, p.Key, p.SourceMetadata)
	if err != nil {
		return RunResult{}, err
	}
	if existing {
		return RunResult{JobID: jobID, Skipped: true}, nil
	}

	records, parseFailed, parseErr := pipeline.Parse(p.Source, p.ParseLimit)
	if parseErr != nil {
		_ = c.FinishJob(ctx, jobID, regdb.JobFailed, 0, 0, parseFailed, "", parseErr)
		return RunResult{JobID: jobID, Failed: parseFailed}, parseErr
	}

	handle := NewCommitHandler(CommitOptions{
		Store:           c.Store,
		OrganizationID:  p.Key.OrganizationID,
		OrgSlug:         p.OrgSlug,
		JobID:           jobID,
		ExternalVersion: p.Key.ExternalVersion,
	})

	units := make([]WorkUnit, 0, len(records)/max(c.BatchSize, 1)+1)
	for _, chunk := range Chunks(records, c.BatchSize) {
		units = append(units, WorkUnit{Records: chunk})
	}

	var mu sync.Mutex
	var total ChunkStats
	runErr := c.RunWorkUnits(ctx, units, func(ctx context.Context, unit WorkUnit) error {
		stats, err := CommitChunk(ctx, c.Store, unit.Records, handle)
		mu.Lock()
		total.Add(stats)
		mu.Unlock()
		return err
	})

	status := regdb.JobSucceeded
	if runErr != nil {
		status = regdb.JobFailed
	}
	failed := total.Failed + parseFailed
	if finishErr := c.FinishJob(ctx, jobID, status, total.Processed, total.Skipped, failed, "", runErr); finishErr != nil {
		return RunResult{}, finishErr
	}

	result := RunResult{JobID: jobID, Processed: total.Processed, RecordsSkipped: total.Skipped, Failed: failed}
	return result, runErr
}
