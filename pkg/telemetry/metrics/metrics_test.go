package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"ccswitch-hq/ccswitch/pkg/config"
	"ccswitch-hq/ccswitch/pkg/providers"
	"ccswitch-hq/ccswitch/pkg/routing"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:        true,
		Namespace:      "test",
		LatencyBuckets: []float64{0.1, 0.5, 1.0, 5.0},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.Registry() != registry {
		t.Error("collector registry not set correctly")
	}
	if !collector.Enabled() {
		t.Error("expected collector to be enabled")
	}
}

func TestCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	NewCollector(cfg, nil)

	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected default namespace, got %q", cfg.Namespace)
	}
	if len(cfg.LatencyBuckets) == 0 {
		t.Error("expected default latency buckets")
	}
}

func TestCollector_RecordAttempt(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	cm := collector.channelMetrics

	collector.RecordAttempt("A", "failed", "rate_limited", 200*time.Millisecond)
	collector.RecordAttempt("A", "failed", "rate_limited", 300*time.Millisecond)
	collector.RecordAttempt("A", "success", "", 100*time.Millisecond)
	collector.RecordAttempt("B", "unhealthy", "network", 0)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"A failed attempts", testutil.ToFloat64(cm.attempts.WithLabelValues("A", "failed")), 2},
		{"A successes", testutil.ToFloat64(cm.attempts.WithLabelValues("A", "success")), 1},
		{"A rate limited", testutil.ToFloat64(cm.errors.WithLabelValues("A", "rate_limited")), 2},
		{"B network", testutil.ToFloat64(cm.errors.WithLabelValues("B", "network")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
		}
	}

	// zero latency attempts are not observed
	if n := testutil.CollectAndCount(cm.latency); n != 1 {
		t.Errorf("expected one latency series, got %d", n)
	}
}

func TestCollector_RecordProbe(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	cm := collector.channelMetrics

	collector.RecordProbe("A", true, "", 50*time.Millisecond)
	collector.RecordProbe("B", false, string(providers.ReasonRejected), 80*time.Millisecond)

	if v := testutil.ToFloat64(cm.health.WithLabelValues("A")); v != 1 {
		t.Errorf("expected A healthy, got %v", v)
	}
	if v := testutil.ToFloat64(cm.health.WithLabelValues("B")); v != 0 {
		t.Errorf("expected B unhealthy, got %v", v)
	}
	if v := testutil.ToFloat64(cm.probes.WithLabelValues("B", "rejected")); v != 1 {
		t.Errorf("expected one rejected probe for B, got %v", v)
	}

	collector.UpdateChannelHealth("B", true)
	if v := testutil.ToFloat64(cm.health.WithLabelValues("B")); v != 1 {
		t.Errorf("expected B healthy after update, got %v", v)
	}
}

func TestCollector_RecordRoute(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordRoute("success", 2, time.Second)
	collector.RecordRoute("all_channels_failed", 3, 2*time.Second)

	expected := `
# HELP test_routes_total Total number of routed requests by outcome
# TYPE test_routes_total counter
test_routes_total{outcome="all_channels_failed"} 1
test_routes_total{outcome="success"} 1
`
	if err := testutil.CollectAndCompare(collector.routeMetrics.routes, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected routes metric: %v", err)
	}
}

func TestCollector_ForgetChannel(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordProbe("A", true, "", time.Millisecond)
	collector.RecordAttempt("A", "failed", "auth", time.Millisecond)
	collector.RecordProbe("B", true, "", time.Millisecond)

	collector.ForgetChannel("A")

	if n := testutil.CollectAndCount(collector.channelMetrics.health); n != 1 {
		t.Errorf("expected only B's health series, got %d", n)
	}
	if n := testutil.CollectAndCount(collector.channelMetrics.errors); n != 0 {
		t.Errorf("expected A's error series gone, got %d", n)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, nil)

	collector.RecordAttempt("A", "failed", "auth", time.Second)
	collector.RecordProbe("A", false, "network", time.Second)
	collector.RecordRoute("success", 1, time.Second)
	collector.UpdateChannelHealth("A", true)
	collector.ForgetChannel("A")
	if err := collector.RegisterStats(func() *routing.Stats { return nil }); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	families, err := collector.Registry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) != 0 {
		t.Errorf("expected no metrics when disabled, got %d families", len(families))
	}
}

func TestCollector_RegisterStats(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	stats := routing.NewAtomicStats()
	stats.IncrementRoutes()
	stats.IncrementRoutes()
	stats.IncrementSuccesses()
	stats.IncrementFailure(routing.FailureAllChannelsFailed)
	stats.RecordAttempt(routing.AttemptResult{Channel: "A", Outcome: routing.OutcomeFailed, Kind: providers.KindTimeout})

	if err := collector.RegisterStats(stats.Snapshot); err != nil {
		t.Fatalf("failed to register stats: %v", err)
	}

	expected := `
# HELP test_stats_routes Routes started since the last stats reset
# TYPE test_stats_routes gauge
test_stats_routes 2
# HELP test_stats_channel_failures Failed attempts per channel and kind since the last stats reset
# TYPE test_stats_channel_failures gauge
test_stats_channel_failures{channel="A",kind="timeout"} 1
`
	err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected),
		"test_stats_routes", "test_stats_channel_failures")
	if err != nil {
		t.Errorf("unexpected stats metrics: %v", err)
	}

	stats.IncrementRoutes()
	if err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(strings.Replace(expected, "test_stats_routes 2", "test_stats_routes 3", 1)),
		"test_stats_routes", "test_stats_channel_failures"); err != nil {
		t.Errorf("stats should be read at scrape time: %v", err)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordRoute("success", 1, time.Second)

	server := httptest.NewServer(collector.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `test_routes_total{outcome="success"} 1`) {
		t.Errorf("expected routes metric in scrape, got:\n%s", body)
	}
}

func TestCollector_WriteTextfile(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordProbe("A", true, "", 10*time.Millisecond)

	path := filepath.Join(t.TempDir(), "ccswitch.prom")
	if err := collector.WriteTextfile(path); err != nil {
		t.Fatalf("failed to write textfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), `test_channel_health{channel="A"} 1`) {
		t.Errorf("expected health gauge in textfile, got:\n%s", data)
	}

	if err := collector.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Error("expected error for missing directory")
	}
}
