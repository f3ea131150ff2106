package cache

import (
	"context"
	"os"
	"time"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// PruneReport summarizes one prune operation (spec.md §4.10: "each prune is
// an explicit operation, never implicit").
type PruneReport struct {
	Removed     []Entry
	BytesFreed  int64
}

// PruneAll removes every cached file and catalog row.
func (s *Store) PruneAll(ctx context.Context) (PruneReport, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return PruneReport{}, err
	}
	return s.removeAll(ctx, entries)
}

// PruneOlderThan removes entries whose fetched_at predates the cutoff.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (PruneReport, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return PruneReport{}, err
	}
	var stale []Entry
	for _, e := range entries {
		if e.FetchedAt.Before(cutoff) {
			stale = append(stale, e)
		}
	}
	return s.removeAll(ctx, stale)
}

// PruneUnused removes entries whose (spec, version, format) no longer
// appears in the lockfile's keep set.
func (s *Store) PruneUnused(ctx context.Context, keep map[string]struct{}) (PruneReport, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return PruneReport{}, err
	}
	var unused []Entry
	for _, e := range entries {
		if _, ok := keep[lockfileKey(e.Spec, e.Version, e.Format)]; !ok {
			unused = append(unused, e)
		}
	}
	return s.removeAll(ctx, unused)
}

// LockfileKey builds the keep-set key PruneUnused expects, so callers
// building the keep set from a resolve.Lockfile use the same identity.
func LockfileKey(spec, internalVersion, format string) string {
	return lockfileKey(spec, internalVersion, format)
}

func lockfileKey(spec, version, format string) string {
	return spec + "@" + version + "-" + format
}

func (s *Store) removeAll(ctx context.Context, entries []Entry) (PruneReport, error) {
	report := PruneReport{}
	for _, e := range entries {
		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			return report, bdperr.Wrap(bdperr.KindInternal, err, "remove cached file")
		}
		if err := s.delete(ctx, e.Spec, e.Version, e.Format); err != nil {
			return report, err
		}
		report.Removed = append(report.Removed, e)
		report.BytesFreed += e.SizeBytes
	}
	return report, nil
}
