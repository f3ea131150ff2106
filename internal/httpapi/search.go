package httpapi

import (
	"net/http"
	"strconv"

	"github.com/bdp-project/bdp/internal/mediator"
	"github.com/bdp-project/bdp/internal/search"
)

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	perPage := atoiDefault(q.Get("per_page"), 20)
	if page < 1 {
		page = 1
	}

	query := search.Query{
		Text: q.Get("q"), EntryType: q.Get("type"), SourceType: q.Get("source_type"), Organism: q.Get("organism"),
		Limit: perPage, Offset: (page - 1) * perPage,
	}
	hits, err := mediator.DispatchQuery[search.Query, any](r.Context(), s.Dispatcher.Mediator, query)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.Metrics != nil {
		s.Metrics.SearchQueries.Inc()
	}
	writeData(w, http.StatusOK, hits, map[string]any{"page": page, "per_page": perPage})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := search.SuggestQuery{Prefix: q.Get("q"), Limit: atoiDefault(q.Get("limit"), 10)}
	hits, err := mediator.DispatchQuery[search.SuggestQuery, any](r.Context(), s.Dispatcher.Mediator, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, hits, nil)
}
