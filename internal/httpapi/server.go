package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bdp-project/bdp/internal/blobstore"
	"github.com/bdp-project/bdp/internal/ingest"
	"github.com/bdp-project/bdp/internal/mediator"
	"github.com/bdp-project/bdp/internal/metrics"
	"github.com/bdp-project/bdp/internal/regdb"
	"github.com/bdp-project/bdp/internal/resolve"
	"github.com/bdp-project/bdp/internal/search"
)

// QueryTimeout is the default per-handler deadline spec.md §5 sets for
// query handlers.
const QueryTimeout = 30 * time.Second

// Server wires the registry's collaborators into HTTP routes. It holds no
// mutable state of its own beyond what the collaborators themselves own
// (the search projection lives in the DB; nothing here is an in-process
// cache), per spec.md §5.
type Server struct {
	Store      *regdb.Store
	Blobs      blobstore.Store
	Dispatcher *mediator.AuditingDispatcher
	Search     *search.Service
	Resolver   *resolve.Resolver
	Metrics    *metrics.Registry
	Logger     *zap.Logger

	// Refresher, if set, is nudged after every successful publish so the
	// search projection picks up the new version without waiting on
	// search.Refresher's own idle schedule. Optional: a server with no
	// search traffic can leave it nil.
	Refresher *search.Refresher

	// Coordinator drives POST /api/v1/jobs. Optional: a server that never
	// accepts ingestion triggers over HTTP (e.g. one fed only by a
	// batch/cron driver calling internal/ingest directly) can leave it nil;
	// RunJobCommand reports KindInternal if invoked against a nil Coordinator.
	Coordinator *ingest.Coordinator
}

// Router builds the full route tree.
func (s *Server) Router() http.Handler {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	RegisterHandlers(s.Dispatcher.Mediator, s.Store, s.Refresher, s.Coordinator)
	mediator.RegisterQuery(s.Dispatcher.Mediator, s.Search.HandleSearch)
	mediator.RegisterQuery(s.Dispatcher.Mediator, s.Search.HandleSuggest)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(QueryTimeout))
	r.Use(requestLogger(s.Logger))

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	if s.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Metrics.Registerer(), promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/organizations", s.handleListOrganizations)
		r.Get("/organizations/{slug}", s.handleGetOrganization)
		r.Get("/organizations/{slug}/versions", s.handleGetOrganizationVersions)
		r.Post("/organizations", s.handleCreateOrganization)
		r.Patch("/organizations/{slug}", s.handleUpdateOrganization)
		r.Delete("/organizations/{slug}", s.handleDeleteOrganization)

		r.Get("/data-sources", s.handleListEntries)
		r.Post("/data-sources/{org}", s.handleCreateEntry)
		r.Patch("/data-sources/{org}/{name}", s.handleUpdateEntry)
		r.Delete("/data-sources/{org}/{name}", s.handleDeleteEntry)
		r.Post("/data-sources/{org}/{name}/versions", s.handlePublishVersion)
		r.Get("/data-sources/{org}/{name}/versions/{version}", s.handleGetVersion)

		r.Get("/search", s.handleSearch)
		r.Get("/search/suggest", s.handleSuggest)

		r.Post("/resolve", s.handleResolve)

		r.Get("/jobs", s.handleListJobs)
		r.Post("/jobs", s.handleCreateJob)
		r.Get("/sync-status", s.handleSyncStatus)

		r.Get("/audit", s.handleListAudit)
	})

	r.Route("/files", func(r chi.Router) {
		r.Post("/{org}/{name}/{version}/{filename}", s.handleUploadFile)
		r.Get("/{org}/{name}/{version}/{filename}", s.handlePresignDownload)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DB.PingContext(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"}, nil)
}

// handleStats reports row-count totals directly from regdb; fine-grained
// request-rate counters live at /metrics for Prometheus to scrape instead.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, stats, nil)
}
