package regdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// DefaultBatchSize bounds how many values go into one IN (...) clause, per
// spec.md §4.4 ("a single bulk SELECT ... WHERE hash IN (...) per chunk").
// Oversized IN clauses make for a bad query plan and a wasteful round trip;
// 500 keeps each dedup lookup inside one efficient index scan.
const DefaultBatchSize = 500

// BatchIN executes query in chunks of batchSize values, substituting a
// Postgres $1,$2,... placeholder list built for each chunk, and
// accumulates results keyed by whatever scanRow extracts.
//
// queryTemplate must contain exactly one %s placeholder for the IN clause,
// e.g. "SELECT sha256, entry_id FROM protein_sequences WHERE sha256 IN (%s)".
func BatchIN[K comparable, V any](
	ctx context.Context,
	db *sql.DB,
	values []string,
	batchSize int,
	queryTemplate string,
	scanRow func(*sql.Rows) (K, V, error),
) (map[K][]V, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	result := make(map[K][]V)
	if len(values) == 0 {
		return result, nil
	}

	for i := 0; i < len(values); i += batchSize {
		end := i + batchSize
		if end > len(values) {
			end = len(values)
		}
		chunk := values[i:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, len(chunk))
		for j, v := range chunk {
			placeholders[j] = fmt.Sprintf("$%d", j+1)
			args[j] = v
		}

		query := fmt.Sprintf(queryTemplate, strings.Join(placeholders, ","))

		if err := func() error {
			rows, err := db.QueryContext(ctx, query, args...)
			if err != nil {
				return bdperr.Wrap(bdperr.KindInternal, err, "batch IN query")
			}
			defer rows.Close()
			for rows.Next() {
				key, val, err := scanRow(rows)
				if err != nil {
					return bdperr.Wrap(bdperr.KindInternal, err, "scan batch IN row")
				}
				result[key] = append(result[key], val)
			}
			return rows.Err()
		}(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// DedupSequences looks up which of the given SHA-256 hashes already exist
// in protein_sequences, per spec.md §4.4's pre-insert dedup step. The
// returned map's keys are the hashes found; callers skip inserting those
// and record a reference instead.
func (s *Store) DedupSequences(ctx context.Context, hashes []string) (map[string]bool, error) {
	found, err := BatchIN(ctx, s.DB, hashes, DefaultBatchSize,
		`SELECT sha256, 1 FROM protein_sequences WHERE sha256 IN (%s)`,
		func(rows *sql.Rows) (string, int, error) {
			var hash string
			var one int
			err := rows.Scan(&hash, &one)
			return hash, one, err
		})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(found))
	for hash := range found {
		out[hash] = true
	}
	return out, nil
}
