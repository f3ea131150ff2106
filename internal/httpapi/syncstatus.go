package httpapi

import (
	"net/http"

	"github.com/bdp-project/bdp/internal/mediator"
)

// handleSyncStatus backs the standalone `GET /api/v1/sync-status` (spec.md
// §6): one row per organization that has completed at least one sync.
func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := mediator.DispatchQuery[ListSyncStatusQuery, any](r.Context(), s.Dispatcher.Mediator, ListSyncStatusQuery{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, status, nil)
}
