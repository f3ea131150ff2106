package httpapi

import (
	"context"
	"fmt"
	"io"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/ingest"
	"github.com/bdp-project/bdp/internal/ingest/registry"
	"github.com/bdp-project/bdp/internal/mediator"
	"github.com/bdp-project/bdp/internal/regdb"
	"github.com/bdp-project/bdp/internal/search"
)

// Commands/queries registered against the mediator. Handlers below are
// thin: validate path/query params, build the typed command/query, and
// let the mediator own dispatch + (for commands) auditing.

type CreateOrganizationCommand struct {
	Slug, Name string
	Website    *string
}

type UpdateOrganizationCommand struct {
	Slug, Name string
	Website    *string
}

type DeleteOrganizationCommand struct {
	Slug string
}

type CreateEntryCommand struct {
	regdb.CreateEntryParams
}

type DeleteEntryCommand struct {
	OrgSlug, EntrySlug string
}

type PublishVersionCommand struct {
	OrgSlug, EntrySlug string
	regdb.PublishVersionParams
}

type UpdateEntryCommand struct {
	regdb.UpdateEntryParams
}

// RunJobCommand triggers one ingestion job (spec.md §4.4/§6 `POST
// /api/v1/jobs`): Source is the already-fetched upstream byte stream: job
// triggering over HTTP carries the body directly rather than re-deriving a
// fetch collaborator server-side (see internal/ingest.Pipeline's doc
// comment on why Fetch isn't part of that interface).
type RunJobCommand struct {
	OrgSlug         string
	JobType         string
	ExternalVersion string
	SourceMetadata  map[string]any
	Source          io.Reader
}

type GetOrganizationQuery struct{ Slug string }
type ListOrganizationsQuery struct{}
type ListEntriesQuery struct{ regdb.ListEntriesParams }
type ListAuditQuery struct{ regdb.ListAuditParams }
type ListJobsQuery struct{ regdb.ListJobsParams }
type ListSyncStatusQuery struct{}
type GetOrganizationVersionsQuery struct{ Slug string }

// RegisterHandlers wires every command/query type above to a Store-backed
// handler. Called once at server construction. refresher may be nil; when
// set, a successful publish nudges it so the search projection doesn't wait
// out its own idle schedule. coordinator drives RunJobCommand; it may be
// nil in tests that never exercise ingestion triggering.
func RegisterHandlers(m *mediator.Mediator, store *regdb.Store, refresher *search.Refresher, coordinator *ingest.Coordinator) {
	mediator.RegisterCommand(m, func(ctx context.Context, cmd CreateOrganizationCommand) (regdb.Organization, mediator.AuditEvent, error) {
		org, err := store.CreateOrganization(ctx, cmd.Slug, cmd.Name, cmd.Website)
		if err != nil {
			return regdb.Organization{}, mediator.AuditEvent{}, err
		}
		return org, mediator.AuditEvent{ResourceType: "organization", ResourceID: org.Slug}, nil
	})

	mediator.RegisterCommand(m, func(ctx context.Context, cmd UpdateOrganizationCommand) (regdb.Organization, mediator.AuditEvent, error) {
		org, err := store.UpdateOrganization(ctx, cmd.Slug, cmd.Name, cmd.Website)
		if err != nil {
			return regdb.Organization{}, mediator.AuditEvent{}, err
		}
		return org, mediator.AuditEvent{ResourceType: "organization", ResourceID: org.Slug}, nil
	})

	mediator.RegisterCommand(m, func(ctx context.Context, cmd DeleteOrganizationCommand) (struct{}, mediator.AuditEvent, error) {
		if err := store.DeleteOrganization(ctx, cmd.Slug); err != nil {
			return struct{}{}, mediator.AuditEvent{}, err
		}
		return struct{}{}, mediator.AuditEvent{ResourceType: "organization", ResourceID: cmd.Slug}, nil
	})

	mediator.RegisterCommand(m, func(ctx context.Context, cmd CreateEntryCommand) (regdb.EntryWithMetadata, mediator.AuditEvent, error) {
		entry, err := store.CreateEntry(ctx, cmd.CreateEntryParams)
		if err != nil {
			return regdb.EntryWithMetadata{}, mediator.AuditEvent{}, err
		}
		id := fmt.Sprintf("%s:%s", entry.OrganizationSlug, entry.Slug)
		return entry, mediator.AuditEvent{ResourceType: "registry_entry", ResourceID: id}, nil
	})

	mediator.RegisterCommand(m, func(ctx context.Context, cmd DeleteEntryCommand) (struct{}, mediator.AuditEvent, error) {
		if err := store.DeleteEntry(ctx, cmd.OrgSlug, cmd.EntrySlug); err != nil {
			return struct{}{}, mediator.AuditEvent{}, err
		}
		id := fmt.Sprintf("%s:%s", cmd.OrgSlug, cmd.EntrySlug)
		return struct{}{}, mediator.AuditEvent{ResourceType: "registry_entry", ResourceID: id}, nil
	})

	mediator.RegisterCommand(m, func(ctx context.Context, cmd PublishVersionCommand) (publishResult, mediator.AuditEvent, error) {
		versionID, created, err := store.PublishVersion(ctx, cmd.PublishVersionParams)
		if err != nil {
			return publishResult{}, mediator.AuditEvent{}, err
		}
		if refresher != nil {
			refresher.RequestRefresh()
		}
		id := fmt.Sprintf("%s:%s@%d.%d", cmd.OrgSlug, cmd.EntrySlug, cmd.Major, cmd.Minor)
		return publishResult{VersionID: versionID, Created: created}, mediator.AuditEvent{
			ResourceType: "version", ResourceID: id,
			ResultMetadata: map[string]any{"created": created, "external_version": cmd.ExternalVersion},
		}, nil
	})

	mediator.RegisterCommand(m, func(ctx context.Context, cmd UpdateEntryCommand) (regdb.EntryWithMetadata, mediator.AuditEvent, error) {
		entry, err := store.UpdateEntry(ctx, cmd.UpdateEntryParams)
		if err != nil {
			return regdb.EntryWithMetadata{}, mediator.AuditEvent{}, err
		}
		id := fmt.Sprintf("%s:%s", entry.OrganizationSlug, entry.Slug)
		return entry, mediator.AuditEvent{ResourceType: "registry_entry", ResourceID: id}, nil
	})

	mediator.RegisterCommand(m, func(ctx context.Context, cmd RunJobCommand) (ingest.RunResult, mediator.AuditEvent, error) {
		if coordinator == nil {
			return ingest.RunResult{}, mediator.AuditEvent{}, bdperr.New(bdperr.KindInternal, "ingestion coordinator not configured")
		}
		org, err := store.GetOrganizationBySlug(ctx, cmd.OrgSlug)
		if err != nil {
			return ingest.RunResult{}, mediator.AuditEvent{}, err
		}
		pipeline, err := registry.PipelineFor(cmd.JobType)
		if err != nil {
			return ingest.RunResult{}, mediator.AuditEvent{}, bdperr.Wrap(bdperr.KindValidation, err, "unknown job type")
		}
		result, err := coordinator.RunJob(ctx, pipeline, ingest.RunParams{
			Key:            ingest.JobKey{OrganizationID: org.ID, JobType: cmd.JobType, ExternalVersion: cmd.ExternalVersion},
			OrgSlug:        cmd.OrgSlug,
			JobType:        cmd.JobType,
			SourceMetadata: cmd.SourceMetadata,
			Source:         cmd.Source,
			ParseLimit:     -1,
		})
		if err != nil {
			return result, mediator.AuditEvent{}, err
		}
		return result, mediator.AuditEvent{
			ResourceType: "ingestion_job", ResourceID: result.JobID,
			ResultMetadata: map[string]any{"processed": result.Processed, "failed": result.Failed, "skipped": result.Skipped},
		}, nil
	})

	mediator.RegisterQuery(m, func(ctx context.Context, q GetOrganizationQuery) (regdb.Organization, error) {
		return store.GetOrganizationBySlug(ctx, q.Slug)
	})
	mediator.RegisterQuery(m, func(ctx context.Context, q ListOrganizationsQuery) ([]regdb.Organization, error) {
		return store.ListOrganizations(ctx)
	})
	mediator.RegisterQuery(m, func(ctx context.Context, q ListEntriesQuery) ([]regdb.EntryWithMetadata, error) {
		return store.ListEntries(ctx, q.ListEntriesParams)
	})
	mediator.RegisterQuery(m, func(ctx context.Context, q ListAuditQuery) ([]regdb.AuditRecord, error) {
		return store.ListAuditRecords(ctx, q.ListAuditParams)
	})
	mediator.RegisterQuery(m, func(ctx context.Context, q ListJobsQuery) ([]regdb.JobWithOrg, error) {
		return store.ListJobs(ctx, q.ListJobsParams)
	})
	mediator.RegisterQuery(m, func(ctx context.Context, q ListSyncStatusQuery) ([]regdb.SyncStatusWithOrg, error) {
		return store.ListSyncStatus(ctx)
	})
	mediator.RegisterQuery(m, func(ctx context.Context, q GetOrganizationVersionsQuery) (regdb.SyncStatusWithOrg, error) {
		return store.GetSyncStatusByOrgSlug(ctx, q.Slug)
	})
}

type publishResult struct {
	VersionID int64 `json:"version_id"`
	Created   bool  `json:"created"`
}
