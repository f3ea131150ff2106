package regdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// WithSavepoint runs fn inside a named savepoint on tx, per spec.md §4.4
// ("each chunk runs in a transaction with a savepoint per record so one
// malformed entity fails that entity, not the chunk"). If fn returns an
// error, the savepoint is rolled back (undoing only that record's writes)
// and the error is returned to the caller so it can be recorded as a
// per-record ParseError rather than aborting the chunk. If fn succeeds,
// the savepoint is released.
func WithSavepoint(ctx context.Context, tx *sql.Tx, name string, fn func() error) error {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+quoteIdent(name)); err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "create savepoint")
	}

	if err := fn(); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+quoteIdent(name)); rbErr != nil {
			return bdperr.Wrap(bdperr.KindInternal, rbErr, "rollback to savepoint after record error: "+err.Error())
		}
		// The savepoint still exists after a ROLLBACK TO; release it so it
		// doesn't linger for the rest of the chunk transaction.
		if _, relErr := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+quoteIdent(name)); relErr != nil {
			return bdperr.Wrap(bdperr.KindInternal, relErr, "release savepoint after rollback")
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+quoteIdent(name)); err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "release savepoint")
	}
	return nil
}

// quoteIdent produces a safe savepoint identifier. Savepoint names here are
// always framework-generated ("rec_<n>"), never user input, but quoting
// keeps the statement well-formed regardless.
func quoteIdent(name string) string {
	return fmt.Sprintf("%q", name)
}
