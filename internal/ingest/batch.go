package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/regdb"
)

// ChunkStats accumulates the outcome of committing one chunk.
type ChunkStats struct {
	Processed int
	Skipped   int
	Failed    int
}

// Add folds another ChunkStats in.
func (s *ChunkStats) Add(o ChunkStats) {
	s.Processed += o.Processed
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// RecordHandler commits one record's writes using tx, returning an error
// that WithSavepoint will isolate. A DependencyMissing condition is not an
// error here: the handler is expected to create a stub (see EnsureStubEntry)
// and continue, since spec.md §4.4 treats it as resolved-by-stub, not a
// per-record failure.
type RecordHandler func(ctx context.Context, tx *sql.Tx, rec Record) error

// CommitChunk runs spec.md §4.4's chunk/savepoint contract: the whole
// chunk is one transaction; each record runs inside its own named
// savepoint so a malformed record fails only itself; the chunk's commit
// is all-or-nothing across the savepoint releases (i.e. once every
// record's savepoint has been resolved, the surrounding transaction
// commits as a unit).
func CommitChunk(ctx context.Context, store *regdb.Store, records []Record, handle RecordHandler) (ChunkStats, error) {
	var stats ChunkStats
	if len(records) == 0 {
		return stats, nil
	}

	tx, err := store.DB.BeginTx(ctx, nil)
	if err != nil {
		return stats, bdperr.Wrap(bdperr.KindInternal, err, "begin chunk transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for i, rec := range records {
		spName := fmt.Sprintf("rec_%d", i)
		recErr := regdb.WithSavepoint(ctx, tx, spName, func() error {
			return handle(ctx, tx, rec)
		})
		switch {
		case recErr == nil:
			stats.Processed++
		case bdperr.KindOf(recErr) == bdperr.KindParseError:
			stats.Failed++
		default:
			// A non-ParseError failure (e.g. the DB connection itself
			// died) is not record-local; abort the whole chunk rather
			// than silently losing an unknown-severity error.
			return stats, recErr
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, bdperr.Wrap(bdperr.KindInternal, err, "commit chunk")
	}
	committed = true
	return stats, nil
}

// Chunks splits records into groups of at most size, per spec.md §4.4's
// "500-1000 entities" batching guidance.
func Chunks(records []Record, size int) [][]Record {
	if size <= 0 {
		size = 500
	}
	var out [][]Record
	for i := 0; i < len(records); i += size {
		end := i + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[i:end])
	}
	return out
}
