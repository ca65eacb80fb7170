package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated registry served on /metrics.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolverDuration times one TSP solve by algorithm.
	SolverDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "route_solver_duration_seconds", Help: "Route solver duration in seconds.", Buckets: []float64{.0001, .001, .01, .05, .1, .5, 1, 5}},
		[]string{"algorithm"},
	)
	// DistanceFallbacks counts solves that fell back to great-circle distances.
	DistanceFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "distance_matrix_fallbacks_total", Help: "Distance matrix lookups served by the haversine fallback."},
		[]string{"reason"},
	)
	RoutesPlanned = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "routes_planned_total", Help: "Routes produced by the planning pipeline."},
		[]string{"result"},
	)
	RouteCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_cache_lookups_total", Help: "Route memo cache lookups by result."},
		[]string{"result"},
	)
	StopEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_stop_events_total", Help: "Applied stop transitions by type."},
		[]string{"type"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolverDuration)
		Registry.MustRegister(DistanceFallbacks)
		Registry.MustRegister(RoutesPlanned)
		Registry.MustRegister(RouteCacheLookups)
		Registry.MustRegister(StopEvents)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
