package regdb

import (
	"context"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// SearchParams are the search_projection query filters: free text, entry
// type, source type and organism. There is no file-format filter.
type SearchParams struct {
	Query      string
	EntryType  string
	SourceType string
	Organism   string
	Limit      int
	Offset     int
}

// Search ranks search_projection rows by
// ts_rank(tsv, websearch_to_tsquery(q)) + popularity_weight, per spec.md §4.8.
// An empty Query still applies the other filters, ordering by popularity.
func (s *Store) Search(ctx context.Context, p SearchParams) ([]SearchHit, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 25
	}

	query := `
		SELECT entry_id, slug, org_slug, name, entry_type, source_type, description, organism,
		       popularity_weight,
		       CASE WHEN $1 = '' THEN 0
		            ELSE ts_rank(tsv, websearch_to_tsquery('english', $1))
		       END AS rank
		FROM search_projection
		WHERE ($1 = '' OR tsv @@ websearch_to_tsquery('english', $1))
		  AND ($2 = '' OR entry_type = $2)
		  AND ($3 = '' OR source_type = $3)
		  AND ($4 = '' OR organism ILIKE '%' || $4 || '%')
		ORDER BY rank + popularity_weight DESC, name ASC
		LIMIT $5 OFFSET $6`

	rows, err := s.DB.QueryContext(ctx, query, p.Query, p.EntryType, p.SourceType, p.Organism, limit, p.Offset)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "search query")
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var h SearchHit
		var sourceType *SourceType
		if err := rows.Scan(&h.EntryID, &h.Slug, &h.OrgSlug, &h.Name, &h.EntryType, &sourceType,
			&h.Description, &h.Organism, &h.PopularityWeight, &h.Rank); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "scan search hit")
		}
		if sourceType != nil {
			h.SourceType = *sourceType
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Suggest returns the top-k prefix matches on name for autocomplete
// (spec.md §4.8: "target p95 below 100ms"); a plain prefix index scan,
// not full-text ranking, keeps it fast.
func (s *Store) Suggest(ctx context.Context, prefix string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT entry_id, slug, org_slug, name, entry_type, source_type, description, organism, popularity_weight
		FROM search_projection
		WHERE name ILIKE $1 || '%'
		ORDER BY popularity_weight DESC, name ASC
		LIMIT $2`, prefix, limit)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "suggest query")
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var h SearchHit
		var sourceType *SourceType
		if err := rows.Scan(&h.EntryID, &h.Slug, &h.OrgSlug, &h.Name, &h.EntryType, &sourceType,
			&h.Description, &h.Organism, &h.PopularityWeight); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "scan suggest hit")
		}
		if sourceType != nil {
			h.SourceType = *sourceType
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// RefreshSearchProjection refreshes the materialized view without blocking
// concurrent readers (spec.md §4.8: "the implementation must refresh
// concurrently so reads are not blocked"). CONCURRENTLY requires the
// unique index search_projection_entry_id_idx already present in schema.sql.
func (s *Store) RefreshSearchProjection(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY search_projection`); err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "refresh search projection")
	}
	return nil
}
