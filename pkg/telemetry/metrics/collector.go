package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ccswitch-hq/ccswitch/pkg/config"
	"ccswitch-hq/ccswitch/pkg/routing"
)

// Collector is the entry point for all Prometheus metrics in ccswitch.
// It owns metric registration and implements routing.Recorder, so an
// orchestrator reports attempts, probes, and routes to it directly.
//
// When the configuration disables metrics every Record call is a no-op
// and nothing is registered beyond the empty registry.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	channelMetrics *ChannelMetrics
	routeMetrics   *RouteMetrics
}

var _ routing.Recorder = (*Collector)(nil)

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is used.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "ccswitch"}
//	collector := metrics.NewCollector(cfg, nil)
//	orchestrator := routing.NewOrchestrator(store, exec, prober, routing.WithRecorder(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{}
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = append([]float64(nil), config.DefaultLatencyBuckets...)
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	if cfg.Enabled {
		c.channelMetrics = NewChannelMetrics(cfg, registry)
		c.routeMetrics = NewRouteMetrics(cfg, registry)
	}

	return c
}

// Registry returns the Prometheus registry metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Enabled reports whether metrics are being recorded.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// RecordAttempt records one routing attempt against a channel.
//
// Parameters:
//   - channel: channel name
//   - outcome: "success", "failed", or "unhealthy"
//   - kind: error kind of a failed attempt, empty on success
//   - latency: wall time of the request, zero when none was sent
func (c *Collector) RecordAttempt(channel, outcome, kind string, latency time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.channelMetrics.RecordAttempt(channel, outcome, kind, latency)
}

// RecordProbe records a health probe and updates the channel health gauge.
func (c *Collector) RecordProbe(channel string, healthy bool, reason string, latency time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.channelMetrics.RecordProbe(channel, healthy, reason, latency)
}

// RecordRoute records a finished route.
//
// Parameters:
//   - outcome: "success" or the route failure kind
//   - attempts: number of channels tried
//   - duration: total wall time of the route
func (c *Collector) RecordRoute(outcome string, attempts int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.routeMetrics.RecordRoute(outcome, attempts, duration)
}

// UpdateChannelHealth sets the health gauge without recording a probe.
func (c *Collector) UpdateChannelHealth(channel string, healthy bool) {
	if !c.config.Enabled {
		return
	}
	c.channelMetrics.UpdateHealth(channel, healthy)
}

// ForgetChannel removes every series labelled with channel.
func (c *Collector) ForgetChannel(channel string) {
	if !c.config.Enabled {
		return
	}
	c.channelMetrics.Forget(channel)
}

// RegisterStats exposes routing statistics, read from snapshot at each
// scrape, under the <namespace>_stats_ prefix.
func (c *Collector) RegisterStats(snapshot func() *routing.Stats) error {
	if !c.config.Enabled {
		return nil
	}
	return c.registry.Register(newStatsCollector(c.config.Namespace, snapshot))
}
