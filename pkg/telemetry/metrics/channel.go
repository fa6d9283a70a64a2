package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ccswitch-hq/ccswitch/pkg/config"
)

// Latency phases.
const (
	PhaseProbe   = "probe"
	PhaseRequest = "request"
)

// ChannelMetrics tracks per-channel health and performance.
//
// Metrics:
//   - ccswitch_channel_health: Last probe result (1=healthy, 0=unhealthy)
//   - ccswitch_channel_latency_seconds: Probe and request latency
//   - ccswitch_channel_attempts_total: Request attempts by outcome
//   - ccswitch_channel_errors_total: Failed attempts by error kind
//   - ccswitch_channel_probes_total: Probes by result and reason
type ChannelMetrics struct {
	health   *prometheus.GaugeVec
	latency  *prometheus.HistogramVec
	attempts *prometheus.CounterVec
	errors   *prometheus.CounterVec
	probes   *prometheus.CounterVec
}

// NewChannelMetrics creates and registers channel metrics with the provided registry.
func NewChannelMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *ChannelMetrics {
	cm := &ChannelMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "channel_health",
				Help:      "Channel health from the last probe (1=healthy, 0=unhealthy)",
			},
			[]string{"channel"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "channel_latency_seconds",
				Help:      "Channel latency in seconds by phase (probe or request)",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"channel", "phase"},
		),

		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "channel_attempts_total",
				Help:      "Total number of routing attempts per channel by outcome",
			},
			[]string{"channel", "outcome"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "channel_errors_total",
				Help:      "Total number of failed attempts per channel by error kind",
			},
			[]string{"channel", "kind"},
		),

		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "channel_probes_total",
				Help:      "Total number of health probes per channel by result",
			},
			[]string{"channel", "result"},
		),
	}

	registry.MustRegister(
		cm.health,
		cm.latency,
		cm.attempts,
		cm.errors,
		cm.probes,
	)

	return cm
}

// UpdateHealth sets the health gauge for channel.
func (cm *ChannelMetrics) UpdateHealth(channel string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	cm.health.WithLabelValues(channel).Set(value)
}

// RecordAttempt records one request attempt. Kind is empty on success.
func (cm *ChannelMetrics) RecordAttempt(channel, outcome, kind string, latency time.Duration) {
	cm.attempts.WithLabelValues(channel, outcome).Inc()
	if kind != "" {
		cm.errors.WithLabelValues(channel, kind).Inc()
	}
	if latency > 0 {
		cm.latency.WithLabelValues(channel, PhaseRequest).Observe(latency.Seconds())
	}
}

// RecordProbe records one probe and updates the health gauge.
// Result is "healthy" or the unhealthy reason.
func (cm *ChannelMetrics) RecordProbe(channel string, healthy bool, reason string, latency time.Duration) {
	result := "healthy"
	if !healthy {
		result = reason
	}
	cm.probes.WithLabelValues(channel, result).Inc()
	cm.latency.WithLabelValues(channel, PhaseProbe).Observe(latency.Seconds())
	cm.UpdateHealth(channel, healthy)
}

// Forget drops every series of channel, used when it is removed from the
// configuration.
func (cm *ChannelMetrics) Forget(channel string) {
	labels := prometheus.Labels{"channel": channel}
	cm.health.DeletePartialMatch(labels)
	cm.latency.DeletePartialMatch(labels)
	cm.attempts.DeletePartialMatch(labels)
	cm.errors.DeletePartialMatch(labels)
	cm.probes.DeletePartialMatch(labels)
}
