// Package metrics exposes operational counters for the registry server.
// The teacher has no metrics surface of its own (a CLI tool has no /stats
// to serve); prometheus/client_golang recurs across the retrieval pack's
// other manifests, so it is what BDP reaches for here.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the counters/gauges the registry server updates as
// requests land. Constructed once at server startup and passed down by
// reference, the same way the teacher threads its zap.Logger.
type Registry struct {
	reg *prometheus.Registry

	PublishedVersions prometheus.Counter
	SearchQueries     prometheus.Counter
	ResolveRequests   prometheus.Counter
	PullsCompleted    prometheus.Counter
	PullsFailed       prometheus.Counter
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Registry{
		reg: reg,
		PublishedVersions: factory.NewCounter(prometheus.CounterOpts{
			Name: "bdp_published_versions_total", Help: "Versions published through /data-sources/*/versions.",
		}),
		SearchQueries: factory.NewCounter(prometheus.CounterOpts{
			Name: "bdp_search_queries_total", Help: "Requests served by /search.",
		}),
		ResolveRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "bdp_resolve_requests_total", Help: "Requests served by /resolve.",
		}),
		PullsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bdp_pulls_completed_total", Help: "Lockfile entries fetched successfully by bdp pull.",
		}),
		PullsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bdp_pulls_failed_total", Help: "Lockfile entries that failed to fetch during bdp pull.",
		}),
	}
}

// Registerer exposes the underlying collector registry for promhttp.HandlerFor.
func (r *Registry) Registerer() *prometheus.Registry { return r.reg }
