package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/mediator"
	"github.com/bdp-project/bdp/internal/regdb"
)

type publishFileRequest struct {
	FileFormat string `json:"file_format"`
	Filename   string `json:"filename"`
	SizeBytes  int64  `json:"size_bytes"`
	SHA256     string `json:"sha256"`
	MD5        string `json:"md5"`
	BlobKey    string `json:"blob_key"`
}

type publishDependencyRequest struct {
	ChildEntryID        int64  `json:"child_entry_id"`
	RequiredVersionSpec string `json:"required_version_spec"`
}

type publishVersionRequest struct {
	Major               int                        `json:"major"`
	Minor               int                        `json:"minor"`
	Patch               int                        `json:"patch"`
	ExternalVersion     string                     `json:"external_version"`
	ReleaseDate         *time.Time                 `json:"release_date,omitempty"`
	Metadata            map[string]any             `json:"metadata,omitempty"`
	Files               []publishFileRequest       `json:"files"`
	Dependencies        []publishDependencyRequest `json:"dependencies,omitempty"`
	JobID               string                     `json:"job_id,omitempty"`
}

func (s *Server) handlePublishVersion(w http.ResponseWriter, r *http.Request) {
	orgSlug, entrySlug := chi.URLParam(r, "org"), chi.URLParam(r, "name")

	var req publishVersionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

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

	files := make([]regdb.PublishFile, len(req.Files))
	for i, f := range req.Files {
		files[i] = regdb.PublishFile{FileFormat: f.FileFormat, Filename: f.Filename, SizeBytes: f.SizeBytes,
			SHA256: f.SHA256, MD5: f.MD5, BlobKey: f.BlobKey}
	}
	deps := make([]regdb.PublishDependency, len(req.Dependencies))
	for i, d := range req.Dependencies {
		deps[i] = regdb.PublishDependency{ChildEntryID: d.ChildEntryID, RequiredVersionSpec: d.RequiredVersionSpec}
	}

	cmd := PublishVersionCommand{
		OrgSlug: orgSlug, EntrySlug: entrySlug,
		PublishVersionParams: regdb.PublishVersionParams{
			EntryID: entry.ID, Major: req.Major, Minor: req.Minor, Patch: req.Patch,
			ExternalVersion: req.ExternalVersion, ReleaseDate: req.ReleaseDate, Metadata: req.Metadata,
			Files: files, Dependencies: deps, OrganizationID: org.ID, JobID: req.JobID,
		},
	}

	if len(cmd.Files) == 0 {
		writeError(w, bdperr.New(bdperr.KindValidation, "publish requires at least one file").WithField("files"))
		return
	}

	result, err := mediator.DispatchAudited[PublishVersionCommand, any](r.Context(), s.Dispatcher, requestMeta(r), "publish_version", cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.Metrics != nil {
		s.Metrics.PublishedVersions.Inc()
	}
	writeData(w, http.StatusCreated, result, nil)
}
