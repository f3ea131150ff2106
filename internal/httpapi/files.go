package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/blobstore"
)

func blobKeyFromRequest(r *http.Request, entryType string) string {
	return blobstore.Key(entryType, chi.URLParam(r, "org"), chi.URLParam(r, "name"),
		chi.URLParam(r, "version"), chi.URLParam(r, "filename"))
}

// handleUploadFile streams the request body straight into the blob store
// under the canonical key; the caller already knows the entry's type from
// the publish-version request, so it's passed as a query param here rather
// than looked up again.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	entryType := r.URL.Query().Get("entry_type")
	if entryType == "" {
		entryType = "data_source"
	}
	key := blobKeyFromRequest(r, entryType)

	if err := s.Blobs.Upload(r.Context(), key, r.Body, r.Header.Get("Content-Type")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]string{"key": key}, nil)
}

func (s *Server) handlePresignDownload(w http.ResponseWriter, r *http.Request) {
	entryType := r.URL.Query().Get("entry_type")
	if entryType == "" {
		entryType = "data_source"
	}
	key := blobKeyFromRequest(r, entryType)

	exists, err := s.Blobs.Exists(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	if !exists {
		writeError(w, bdperr.ErrNotFound)
		return
	}

	url, err := s.Blobs.PresignDownload(r.Context(), key, blobstore.DefaultPresignTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"url": url}, nil)
}
