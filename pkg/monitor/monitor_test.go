package monitor

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	mockrouting "ccswitch-hq/ccswitch/internal/routing"
	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/providers"
	"ccswitch-hq/ccswitch/pkg/routing"
	"ccswitch-hq/ccswitch/pkg/telemetry/health"
)

// mutableSource is a routing.Source whose channels can change mid-test.
type mutableSource struct {
	mu  sync.Mutex
	reg *channels.Registry
}

func (s *mutableSource) Snapshot() (*channels.Registry, routing.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Clone(), routing.Settings{ProbeTimeout: time.Second}
}

func (s *mutableSource) remove(t *testing.T, name string) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reg.Remove(name); err != nil {
		t.Fatalf("remove %s: %v", name, err)
	}
}

func newSource(t *testing.T) *mutableSource {
	t.Helper()
	reg, err := channels.NewRegistryFrom([]channels.Channel{
		{Name: "A", URL: "https://a.example.com/v1", Enabled: true, Priority: 0},
		{Name: "B", URL: "https://b.example.com/v1", Enabled: true, Priority: 1},
		{Name: "C", URL: "https://c.example.com/v1", Enabled: false, Priority: 2},
	})
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return &mutableSource{reg: reg}
}

// fakeClock is advanced by hand.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMonitor(t *testing.T, source routing.Source, prober *mockrouting.MockProber, opts Options) (*Monitor, *fakeClock) {
	t.Helper()
	orchestrator := routing.NewOrchestrator(source, mockrouting.NewMockExecutor(), prober,
		routing.WithLogger(quietLogger()),
	)
	opts.Logger = quietLogger()
	m := New(orchestrator, source, health.NewBoard(), opts)
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m.now = clock.now
	return m, clock
}

func channelNames(results []providers.ProbeResult) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Channel
	}
	return names
}

func TestNew_Defaults(t *testing.T) {
	m := New(nil, newSource(t), nil, Options{})
	if m.interval != DefaultInterval {
		t.Errorf("expected interval %v, got %v", DefaultInterval, m.interval)
	}
	if m.maxBackoff != DefaultInterval*maxBackoffFactor {
		t.Errorf("expected max backoff %v, got %v", DefaultInterval*maxBackoffFactor, m.maxBackoff)
	}
	if m.Board() == nil {
		t.Error("expected a board to be created")
	}
}

func TestRunOnce_ProbesEnabledChannels(t *testing.T) {
	prober := mockrouting.NewMockProber()
	m, _ := newMonitor(t, newSource(t), prober, Options{Interval: 10 * time.Second})

	results, err := m.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := channelNames(results); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("expected [A B] probed, got %v", got)
	}

	status := m.Board().Status()
	if status.Status != health.StatusReady {
		t.Errorf("expected ready, got %s", status.Status)
	}
	if _, ok := status.Channels["C"]; ok {
		t.Error("disabled channel should not be monitored")
	}
}

func TestRunOnce_BacksOffUnhealthyChannels(t *testing.T) {
	prober := mockrouting.NewMockProber()
	prober.SetUnhealthy("B", providers.ReasonNetwork, providers.KindNetwork)
	m, clock := newMonitor(t, newSource(t), prober, Options{Interval: 10 * time.Second})

	rounds := []struct {
		after time.Duration
		want  []string
	}{
		{0, []string{"A", "B"}},
		{10 * time.Second, []string{"A"}},
		{10 * time.Second, []string{"A", "B"}}, // B waited 2 intervals
		{10 * time.Second, []string{"A"}},
		{10 * time.Second, []string{"A"}},
		{10 * time.Second, []string{"A"}},
		{10 * time.Second, []string{"A", "B"}}, // then 4
	}

	for i, round := range rounds {
		clock.advance(round.after)
		results, err := m.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("round %d: unexpected error: %v", i, err)
		}
		if got := channelNames(results); !reflect.DeepEqual(got, round.want) {
			t.Errorf("round %d: expected %v, got %v", i, round.want, got)
		}
	}

	status, _ := m.Board().Get("B")
	if status.ConsecutiveFailures != 3 {
		t.Errorf("expected 3 consecutive failures, got %d", status.ConsecutiveFailures)
	}
	if m.Board().Status().Status != health.StatusDegraded {
		t.Errorf("expected degraded, got %s", m.Board().Status().Status)
	}

	// Recovery returns B to the base interval.
	prober.SetHealthy("B")
	clock.advance(80 * time.Second)
	if _, err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.advance(10 * time.Second)
	results, err := m.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := channelNames(results); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("expected recovered channel on the base interval, got %v", got)
	}
	if status, _ := m.Board().Get("B"); !status.Healthy || status.ConsecutiveFailures != 0 {
		t.Errorf("expected B healthy, got %+v", status)
	}
}

func TestBackOff_Capped(t *testing.T) {
	tests := []struct {
		name       string
		maxBackoff time.Duration
		want       []time.Duration
	}{
		{"doubles up to cap", 30 * time.Second, []time.Duration{20 * time.Second, 30 * time.Second, 30 * time.Second}},
		{"cap below first retry", 15 * time.Second, []time.Duration{15 * time.Second, 15 * time.Second}},
		{"cap equals interval", 10 * time.Second, []time.Duration{10 * time.Second, 10 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(nil, newSource(t), nil, Options{Interval: 10 * time.Second, MaxBackoff: tt.maxBackoff})
			b := m.newBackOff()

			for i, w := range tt.want {
				if got := b.NextBackOff(); got != w {
					t.Errorf("step %d: expected %v, got %v", i, w, got)
				}
			}
		})
	}
}

func TestRunOnce_ForgetsRemovedChannels(t *testing.T) {
	source := newSource(t)
	var forgotten []string
	m, clock := newMonitor(t, source, mockrouting.NewMockProber(), Options{
		Interval: 10 * time.Second,
		OnForget: func(name string) { forgotten = append(forgotten, name) },
	})

	if _, err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	source.remove(t, "B")
	clock.advance(10 * time.Second)
	if _, err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(forgotten, []string{"B"}) {
		t.Errorf("expected B forgotten, got %v", forgotten)
	}
	if _, ok := m.Board().Get("B"); ok {
		t.Error("removed channel should leave the board")
	}
	if _, ok := m.schedules["B"]; ok {
		t.Error("removed channel should lose its schedule")
	}
}

func TestRunOnce_Cancelled(t *testing.T) {
	prober := mockrouting.NewMockProber()
	prober.Block("A")
	m, _ := newMonitor(t, newSource(t), prober, Options{Interval: 10 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := m.RunOnce(ctx); err == nil {
		t.Fatal("expected error from a cancelled round")
	}
}

// countingTester signals every TestChannels call.
type countingTester struct {
	calls chan []string
}

func (c *countingTester) TestChannels(ctx context.Context, names []string) ([]providers.ProbeResult, error) {
	c.calls <- names
	results := make([]providers.ProbeResult, len(names))
	for i, name := range names {
		results[i] = providers.ProbeResult{Channel: name, Healthy: true}
	}
	return results, nil
}

func TestRun_TriggerAndStop(t *testing.T) {
	source := newSource(t)
	tester := &countingTester{calls: make(chan []string, 4)}
	m := New(tester, source, nil, Options{Interval: time.Hour, Logger: quietLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case names := <-tester.calls:
		if !reflect.DeepEqual(names, []string{"A", "B"}) {
			t.Errorf("expected first round over [A B], got %v", names)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first round did not run")
	}

	// A channel added by a reload is probed as soon as the monitor is
	// triggered, without waiting for the next tick.
	source.mu.Lock()
	if err := source.reg.Insert(channels.Channel{Name: "D", URL: "https://d.example.com/v1", Enabled: true, Priority: 3}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	source.mu.Unlock()
	m.Trigger()

	select {
	case names := <-tester.calls:
		if !reflect.DeepEqual(names, []string{"D"}) {
			t.Errorf("expected triggered round over [D], got %v", names)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not start a round")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}
