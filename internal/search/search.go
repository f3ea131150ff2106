// Package search implements the C8 search half of spec.md §4.8: a query
// endpoint over search_projection, a suggest/autocomplete endpoint, and a
// debounced concurrent projection refresher.
package search

import (
	"context"

	"github.com/bdp-project/bdp/internal/regdb"
)

// Query is the mediator query type for a full-text search request.
type Query struct {
	Text       string
	EntryType  string
	SourceType string
	Organism   string
	Limit      int
	Offset     int
}

// SuggestQuery is the mediator query type for autocomplete.
type SuggestQuery struct {
	Prefix string
	Limit  int
}

// Service wraps the registry for the search-facing handlers; Handle* methods
// are the functions internal/mediator.RegisterQuery binds to Query/
// SuggestQuery.
type Service struct {
	Store *regdb.Store
}

func New(store *regdb.Store) *Service {
	return &Service{Store: store}
}

func (s *Service) HandleSearch(ctx context.Context, q Query) ([]regdb.SearchHit, error) {
	return s.Store.Search(ctx, regdb.SearchParams{
		Query: q.Text, EntryType: q.EntryType, SourceType: q.SourceType, Organism: q.Organism,
		Limit: q.Limit, Offset: q.Offset,
	})
}

func (s *Service) HandleSuggest(ctx context.Context, q SuggestQuery) ([]regdb.SearchHit, error) {
	return s.Store.Suggest(ctx, q.Prefix, q.Limit)
}
