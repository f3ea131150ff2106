package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/idver"
	"github.com/bdp-project/bdp/internal/mediator"
	"github.com/bdp-project/bdp/internal/regdb"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	q := ListEntriesQuery{regdb.ListEntriesParams{
		OrganizationSlug: r.URL.Query().Get("org"),
		EntryType:        r.URL.Query().Get("type"),
	}}
	entries, err := mediator.DispatchQuery[ListEntriesQuery, any](r.Context(), s.Dispatcher.Mediator, q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, entries, nil)
}

type createEntryRequest struct {
	Slug        string            `json:"slug"`
	Name        string            `json:"name"`
	EntryType   regdb.EntryType   `json:"entry_type"`
	Description *string           `json:"description,omitempty"`
	SourceType  *regdb.SourceType `json:"source_type,omitempty"`
	ExternalID  *string           `json:"external_id,omitempty"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	cmd := CreateEntryCommand{regdb.CreateEntryParams{
		OrganizationSlug: chi.URLParam(r, "org"),
		Slug:             req.Slug, Name: req.Name, EntryType: req.EntryType,
		Description: req.Description, SourceType: req.SourceType, ExternalID: req.ExternalID,
	}}
	entry, err := mediator.DispatchAudited[CreateEntryCommand, any](r.Context(), s.Dispatcher, requestMeta(r), "create_entry", cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, entry, nil)
}

type updateEntryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// handleUpdateEntry backs `PATCH /api/v1/data-sources/:org/:name` (spec.md
// §6). Only name/description are mutable; slug, entry_type and source_type
// are identity-defining, per regdb.UpdateEntry's doc comment.
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req updateEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	cmd := UpdateEntryCommand{regdb.UpdateEntryParams{
		OrganizationSlug: chi.URLParam(r, "org"),
		Slug:             chi.URLParam(r, "name"),
		Name:             req.Name,
		Description:      req.Description,
	}}
	entry, err := mediator.DispatchAudited[UpdateEntryCommand, any](r.Context(), s.Dispatcher, requestMeta(r), "update_entry", cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, entry, nil)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	cmd := DeleteEntryCommand{OrgSlug: chi.URLParam(r, "org"), EntrySlug: chi.URLParam(r, "name")}
	_, err := mediator.DispatchAudited[DeleteEntryCommand, any](r.Context(), s.Dispatcher, requestMeta(r), "delete_entry", cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetVersion looks up a version directly against the store rather
// than through the mediator, since it's a plain read with no projection
// to keep consistent (unlike search, which reads the denormalized view).
func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	orgSlug, entrySlug, versionStr := chi.URLParam(r, "org"), chi.URLParam(r, "name"), chi.URLParam(r, "version")

	org, err := s.Store.GetOrganizationBySlug(r.Context(), orgSlug)
	if err != nil {
		writeError(w, err)
		return
	}
	entry, err := s.Store.GetEntry(r.Context(), org.ID, entrySlug)
	if err != nil {
		writeError(w, err)
		return
	}

	spec, err := idver.ParseVersion(versionStr)
	if err != nil {
		writeError(w, bdperr.Wrap(bdperr.KindValidation, err, "malformed version"))
		return
	}

	version, ok, err := s.Store.GetVersionExact(r.Context(), entry.ID, spec.Major, spec.Minor, spec.Patch)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, bdperr.ErrNotFound)
		return
	}

	files, err := s.Store.ListVersionFiles(r.Context(), version.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"version": version, "files": files}, nil)
}
