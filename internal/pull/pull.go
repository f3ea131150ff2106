// Package pull implements the client pull orchestrator (spec.md §4.12):
// read manifest → resolve → for each lockfile entry, ensure it's cached
// (C10) → record audited events (C11). Bounded parallel downloads,
// continue-on-partial-failure, nonzero exit on any entry failure.
package pull

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bdp-project/bdp/internal/cache"
	"github.com/bdp-project/bdp/internal/journal"
	"github.com/bdp-project/bdp/internal/resolve"
)

// DefaultParallelism bounds concurrent downloads, per spec.md §4.12.
const DefaultParallelism = 4

// URLResolver turns a lockfile entry's download_url (or, if absent, a
// fresh request to the server) into a cache.Fetcher the orchestrator can
// stream from. The real implementation is internal/client's presigned-URL
// fetch; tests supply an in-memory one.
type URLResolver func(ctx context.Context, entry resolve.LockEntry) (cache.Fetcher, error)

// EntryStatus is one lockfile entry's outcome, for the final per-entry
// report spec.md §4.12 requires.
type EntryStatus struct {
	Entry resolve.LockEntry
	Err   error
}

// Report is the orchestrator's final summary across every lockfile entry.
type Report struct {
	Statuses []EntryStatus
}

// Failed reports whether any entry in the report failed — the condition
// spec.md §4.12 ties to a nonzero process exit code.
func (r Report) Failed() bool {
	for _, s := range r.Statuses {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Orchestrator drives resolve → fetch → verify → audit for a lockfile.
type Orchestrator struct {
	Cache       *cache.Store
	Journal     *journal.Journal
	MachineID   string
	Parallelism int
	ResolveURL  URLResolver
}

// Pull ensures every entry in lock is present in the cache, recording
// audit events for each step. It never aborts early: a failure on one
// entry is recorded and the remaining entries still run. The returned
// error is always nil: journal write failures are discarded (see audit)
// and per-entry failures surface in the Report instead.
func (o *Orchestrator) Pull(ctx context.Context, lock resolve.Lockfile) (Report, error) {
	limit := o.Parallelism
	if limit <= 0 {
		limit = DefaultParallelism
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	statuses := make([]EntryStatus, len(lock.Sources))
	var mu sync.Mutex // guards statuses writes across goroutines; each index is unique but races detector still wants a guard on the shared slice header

	for i, entry := range lock.Sources {
		i, entry := i, entry
		g.Go(func() error {
			err := o.pullOne(gctx, entry)
			mu.Lock()
			statuses[i] = EntryStatus{Entry: entry, Err: err}
			mu.Unlock()
			return nil // never fail the group: partial failure must not cancel sibling downloads
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	return Report{Statuses: statuses}, nil
}

func (o *Orchestrator) pullOne(ctx context.Context, entry resolve.LockEntry) error {
	o.audit(ctx, "resolve", entry.Spec, nil)

	fetch, err := o.ResolveURL(ctx, entry)
	if err != nil {
		o.audit(ctx, "fetch:failed", entry.Spec, map[string]any{"error": err.Error()})
		return err
	}

	o.audit(ctx, "fetch:start", entry.Spec, nil)

	org, name := splitOrgName(entry.Spec)
	req := cache.FetchRequest{
		Spec: entry.Spec, InternalVersion: entry.InternalVersion, Org: org, Name: name,
		Format: entry.FileFormat, Filename: entry.Filename, ExpectedSHA256: entry.SHA256, SizeBytes: entry.SizeBytes,
	}

	cached, err := o.Cache.Ensure(ctx, req, fetch)
	if err != nil {
		o.audit(ctx, "fetch:failed", entry.Spec, map[string]any{"error": err.Error()})
		return err
	}

	o.audit(ctx, "fetch:complete", entry.Spec, map[string]any{"sha256": cached.SHA256})
	o.audit(ctx, "verify:ok", entry.Spec, map[string]any{"sha256": cached.SHA256})
	o.audit(ctx, "install", entry.Spec, map[string]any{
		"external_version": entry.ExternalVersion, "sha256": cached.SHA256, "path": cached.Path,
	})
	return nil
}

func (o *Orchestrator) audit(ctx context.Context, action, target string, metadata map[string]any) {
	if o.Journal == nil {
		return
	}
	// Audit writes never fail the pull itself: the append runs inline and
	// its error is discarded, not logged.
	_, _ = o.Journal.Append(ctx, o.MachineID, action, target, metadata)
}

func splitOrgName(spec string) (org, name string) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == ':' {
			org = spec[:i]
			rest := spec[i+1:]
			for j := 0; j < len(rest); j++ {
				if rest[j] == '@' {
					return org, rest[:j]
				}
			}
			return org, rest
		}
	}
	return "", spec
}
