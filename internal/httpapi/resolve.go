package httpapi

import (
	"errors"
	"net/http"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/resolve"
)

type resolveManifestEntry struct {
	Spec string `json:"spec"`
}

type resolveRequest struct {
	Name    string                 `json:"name"`
	Version string                 `json:"version"`
	Sources []resolveManifestEntry `json:"sources"`
	Tools   []resolveManifestEntry `json:"tools"`
}

func toManifestEntries(in []resolveManifestEntry) []resolve.ManifestEntry {
	out := make([]resolve.ManifestEntry, len(in))
	for i, e := range in {
		out[i] = resolve.ManifestEntry{Spec: e.Spec}
	}
	return out
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	manifest := resolve.Manifest{
		Name: req.Name, Version: req.Version,
		Sources: toManifestEntries(req.Sources), Tools: toManifestEntries(req.Tools),
	}
	lock, err := s.Resolver.Resolve(r.Context(), manifest)
	if err != nil {
		writeError(w, resolveErrorToBDPErr(err))
		return
	}
	if s.Metrics != nil {
		s.Metrics.ResolveRequests.Inc()
	}
	writeData(w, http.StatusOK, lock, nil)
}

// resolveErrorToBDPErr maps the resolver's untyped VersionConflictError/
// CycleError onto KindConflict so they surface as 409s, and an
// UnknownOrganizationError onto KindValidation (spec.md §8: an unresolvable
// organization is a caller error, not a 404) instead of falling through
// bdperr.KindOf's KindInternal default.
func resolveErrorToBDPErr(err error) error {
	var conflict *resolve.VersionConflictError
	var cycle *resolve.CycleError
	if errors.As(err, &conflict) || errors.As(err, &cycle) {
		return bdperr.Wrap(bdperr.KindConflict, err, "resolution conflict")
	}
	var unknownOrg *resolve.UnknownOrganizationError
	if errors.As(err, &unknownOrg) {
		return bdperr.Wrap(bdperr.KindValidation, err, unknownOrg.Error())
	}
	return err
}
