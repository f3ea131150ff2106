// Package httpapi implements the registry's wire protocol (spec.md §6):
// JSON request/response over HTTP, routed with go-chi/chi (the router
// recurring across the retrieval pack's Go-service manifests — e.g.
// cs3org-reva, AKJUS-bsc-erigon — standing in for a teacher that itself
// has no HTTP layer to imitate, since beads is a CLI tool). Handlers
// dispatch through internal/mediator so every mutating request is
// audited (spec.md §4.7); query handlers call internal/regdb/internal/
// search/internal/resolve directly, since queries are never audited.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// envelope is the `{data, meta?}` / `{error: {kind, message, details?}}`
// response shape spec.md §6 specifies for every endpoint.
type envelope struct {
	Data any            `json:"data,omitempty"`
	Meta map[string]any `json:"meta,omitempty"`
	Error *errorBody    `json:"error,omitempty"`
}

type errorBody struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any, meta map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data, Meta: meta})
}

// writeError maps err onto its bdperr.Kind's HTTP status and the
// {error:{kind,message}} body, per spec.md §6/§7.
func writeError(w http.ResponseWriter, err error) {
	kind := bdperr.KindOf(err)
	status := kind.HTTPStatus()

	var details map[string]any
	var be *bdperr.Error
	if asErr, ok := err.(*bdperr.Error); ok {
		be = asErr
		if be.Field != "" {
			details = map[string]any{"field": be.Field}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: &errorBody{
		Kind: kind.String(), Message: err.Error(), Details: details,
	}})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return bdperr.Wrap(bdperr.KindValidation, err, "malformed request body")
	}
	return nil
}
