package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"ccswitch-hq/ccswitch/pkg/routing"
)

// statsCollector exposes the orchestrator's in-process counters at
// scrape time.
type statsCollector struct {
	snapshot func() *routing.Stats

	total           *prometheus.Desc
	successes       *prometheus.Desc
	failures        *prometheus.Desc
	channelAttempts *prometheus.Desc
	channelFailures *prometheus.Desc
}

func newStatsCollector(namespace string, snapshot func() *routing.Stats) *statsCollector {
	fq := func(name string) string {
		return prometheus.BuildFQName(namespace, "stats", name)
	}
	return &statsCollector{
		snapshot:        snapshot,
		total:           prometheus.NewDesc(fq("routes"), "Routes started since the last stats reset", nil, nil),
		successes:       prometheus.NewDesc(fq("successes"), "Successful routes since the last stats reset", nil, nil),
		failures:        prometheus.NewDesc(fq("failures"), "Failed routes since the last stats reset by kind", []string{"kind"}, nil),
		channelAttempts: prometheus.NewDesc(fq("channel_attempts"), "Attempts per channel since the last stats reset", []string{"channel"}, nil),
		channelFailures: prometheus.NewDesc(fq("channel_failures"), "Failed attempts per channel and kind since the last stats reset", []string{"channel", "kind"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.successes
	ch <- c.failures
	ch <- c.channelAttempts
	ch <- c.channelFailures
}

// Collect implements prometheus.Collector.
func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.snapshot()
	if s == nil {
		return
	}

	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.TotalRoutes))
	ch <- prometheus.MustNewConstMetric(c.successes, prometheus.GaugeValue, float64(s.Successes))
	for kind, n := range s.Failures {
		ch <- prometheus.MustNewConstMetric(c.failures, prometheus.GaugeValue, float64(n), string(kind))
	}
	for name, n := range s.ChannelAttempts {
		ch <- prometheus.MustNewConstMetric(c.channelAttempts, prometheus.GaugeValue, float64(n), name)
	}
	for name, kinds := range s.ChannelFailures {
		for kind, n := range kinds {
			ch <- prometheus.MustNewConstMetric(c.channelFailures, prometheus.GaugeValue, float64(n), name, string(kind))
		}
	}
}
