package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bdp-project/bdp/internal/mediator"
)

func requestMeta(r *http.Request) mediator.RequestMeta {
	return mediator.RequestMeta{IP: r.RemoteAddr, UserAgent: r.UserAgent()}
}

func (s *Server) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := mediator.DispatchQuery[ListOrganizationsQuery, any](r.Context(), s.Dispatcher.Mediator, ListOrganizationsQuery{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, orgs, nil)
}

func (s *Server) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	org, err := mediator.DispatchQuery[GetOrganizationQuery, any](r.Context(), s.Dispatcher.Mediator, GetOrganizationQuery{Slug: slug})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, org, nil)
}

type createOrganizationRequest struct {
	Slug    string  `json:"slug"`
	Name    string  `json:"name"`
	Website *string `json:"website,omitempty"`
}

func (s *Server) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	cmd := CreateOrganizationCommand{Slug: req.Slug, Name: req.Name, Website: req.Website}
	org, err := mediator.DispatchAudited[CreateOrganizationCommand, any](r.Context(), s.Dispatcher, requestMeta(r), "create_organization", cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, org, nil)
}

func (s *Server) handleUpdateOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	cmd := UpdateOrganizationCommand{Slug: chi.URLParam(r, "slug"), Name: req.Name, Website: req.Website}
	org, err := mediator.DispatchAudited[UpdateOrganizationCommand, any](r.Context(), s.Dispatcher, requestMeta(r), "update_organization", cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, org, nil)
}

// handleGetOrganizationVersions backs `GET /api/v1/organizations/:slug/versions`
// (SPEC_FULL.md supplemented feature): the organization's own sync-status
// rollup (last external version ingested, last sync time) — a per-org view
// onto the same data the standalone /sync-status endpoint lists for every
// organization at once.
func (s *Server) handleGetOrganizationVersions(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	status, err := mediator.DispatchQuery[GetOrganizationVersionsQuery, any](r.Context(), s.Dispatcher.Mediator, GetOrganizationVersionsQuery{Slug: slug})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, status, nil)
}

func (s *Server) handleDeleteOrganization(w http.ResponseWriter, r *http.Request) {
	cmd := DeleteOrganizationCommand{Slug: chi.URLParam(r, "slug")}
	_, err := mediator.DispatchAudited[DeleteOrganizationCommand, any](r.Context(), s.Dispatcher, requestMeta(r), "delete_organization", cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
