package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ccswitch-hq/ccswitch/pkg/config"
)

// RouteMetrics tracks whole routing runs.
//
// Metrics:
//   - ccswitch_routes_total: Routes by outcome (success or failure kind)
//   - ccswitch_route_duration_seconds: Wall time of a route
//   - ccswitch_route_attempts: Channels tried per route
type RouteMetrics struct {
	routes   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	attempts prometheus.Histogram
}

// NewRouteMetrics creates and registers route metrics with the provided registry.
func NewRouteMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *RouteMetrics {
	rm := &RouteMetrics{
		routes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "routes_total",
				Help:      "Total number of routed requests by outcome",
			},
			[]string{"outcome"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "route_duration_seconds",
				Help:      "Total time to route a request, including failed attempts",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"outcome"},
		),

		attempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "route_attempts",
				Help:      "Number of channels tried per routed request",
				Buckets:   prometheus.LinearBuckets(1, 1, 8),
			},
		),
	}

	registry.MustRegister(rm.routes, rm.duration, rm.attempts)
	return rm
}

// RecordRoute records one finished route.
func (rm *RouteMetrics) RecordRoute(outcome string, attempts int, duration time.Duration) {
	rm.routes.WithLabelValues(outcome).Inc()
	rm.duration.WithLabelValues(outcome).Observe(duration.Seconds())
	rm.attempts.Observe(float64(attempts))
}
