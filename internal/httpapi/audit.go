package httpapi

import (
	"net/http"

	"github.com/bdp-project/bdp/internal/mediator"
	"github.com/bdp-project/bdp/internal/regdb"
)

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := ListAuditQuery{regdb.ListAuditParams{
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		Limit:        atoiDefault(q.Get("limit"), 0),
		Offset:       atoiDefault(q.Get("offset"), 0),
	}}
	records, err := mediator.DispatchQuery[ListAuditQuery, any](r.Context(), s.Dispatcher.Mediator, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, records, nil)
}
