package httpapi

import (
	"net/http"

	"github.com/bdp-project/bdp/internal/mediator"
	"github.com/bdp-project/bdp/internal/regdb"
)

// handleListJobs backs `GET /api/v1/jobs` (spec.md §6), filterable by
// org/job_type/status query params.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := ListJobsQuery{regdb.ListJobsParams{
		OrganizationSlug: r.URL.Query().Get("org"),
		JobType:          r.URL.Query().Get("job_type"),
		Status:           r.URL.Query().Get("status"),
	}}
	jobs, err := mediator.DispatchQuery[ListJobsQuery, any](r.Context(), s.Dispatcher.Mediator, q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, jobs, nil)
}

// handleCreateJob backs `POST /api/v1/jobs`: triggers one ingestion run for
// ?org=&job_type=&external_version=, streaming the request body straight
// into the pipeline's Parse as the already-fetched source bytes (spec.md
// §4.5: fetching is an external collaborator, not this handler's job).
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	cmd := RunJobCommand{
		OrgSlug:         r.URL.Query().Get("org"),
		JobType:         r.URL.Query().Get("job_type"),
		ExternalVersion: r.URL.Query().Get("external_version"),
		SourceMetadata:  map[string]any{"is_current_release": r.URL.Query().Get("current") != "false"},
		Source:          r.Body,
	}
	result, err := mediator.DispatchAudited[RunJobCommand, any](r.Context(), s.Dispatcher, requestMeta(r), "run_ingestion_job", cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusAccepted, result, nil)
}
