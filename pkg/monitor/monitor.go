package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/providers"
	"ccswitch-hq/ccswitch/pkg/routing"
	"ccswitch-hq/ccswitch/pkg/telemetry/health"
)

// Defaults for Options.
const (
	DefaultInterval = 30 * time.Second

	// maxBackoffFactor caps an unhealthy channel's interval at this many
	// base intervals when Options.MaxBackoff is unset.
	maxBackoffFactor = 10
)

// Tester probes channels by name. *routing.Orchestrator implements it.
type Tester interface {
	TestChannels(ctx context.Context, names []string) ([]providers.ProbeResult, error)
}

// Options configures a Monitor.
type Options struct {
	// Interval between probes of a healthy channel.
	Interval time.Duration

	// MaxBackoff caps the probe interval of a failing channel.
	MaxBackoff time.Duration

	// OnForget is called with the name of every channel that left the
	// configuration, after its health entry is dropped.
	OnForget func(name string)

	Logger *slog.Logger
}

// schedule is the probe plan of one channel.
type schedule struct {
	backoff *backoff.ExponentialBackOff
	next    time.Time
	failing bool
}

// Monitor periodically probes every enabled channel and keeps the results
// on a health board. Failing channels are probed with exponential backoff
// and return to the base interval after their first healthy probe.
type Monitor struct {
	tester Tester
	source routing.Source
	board  *health.Board

	interval   time.Duration
	maxBackoff time.Duration
	onForget   func(string)
	logger     *slog.Logger
	now        func() time.Time

	mu        sync.Mutex
	schedules map[string]*schedule

	trigger chan struct{}
}

// New creates a monitor for the enabled channels of source.
func New(tester Tester, source routing.Source, board *health.Board, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxBackoff < opts.Interval {
		opts.MaxBackoff = opts.Interval * maxBackoffFactor
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if board == nil {
		board = health.NewBoard()
	}

	return &Monitor{
		tester:     tester,
		source:     source,
		board:      board,
		interval:   opts.Interval,
		maxBackoff: opts.MaxBackoff,
		onForget:   opts.OnForget,
		logger:     opts.Logger,
		now:        time.Now,
		schedules:  make(map[string]*schedule),
		trigger:    make(chan struct{}, 1),
	}
}

// Board returns the health board the monitor writes to.
func (m *Monitor) Board() *health.Board {
	return m.board
}

// Trigger asks Run to start a round now, probing every channel whose
// schedule entry is new. Extra triggers before the round starts coalesce.
func (m *Monitor) Trigger() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Run probes immediately and then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", "interval", m.interval, "max_backoff", m.maxBackoff)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if _, err := m.RunOnce(ctx); err != nil && ctx.Err() == nil {
			m.logger.Error("monitor round failed", "error", err)
		}

		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped")
			return nil
		case <-ticker.C:
		case <-m.trigger:
		}
	}
}

// RunOnce probes the channels that are due and returns their results.
// Channels that left the configuration are dropped from the board.
func (m *Monitor) RunOnce(ctx context.Context) ([]providers.ProbeResult, error) {
	reg, _ := m.source.Snapshot()
	enabled := reg.List()
	now := m.now()

	names := make([]string, len(enabled))
	due := m.due(enabled, now, names)

	m.forget(names)

	if len(due) == 0 {
		return nil, nil
	}

	results, err := m.tester.TestChannels(ctx, due)
	if err != nil {
		if errors.Is(err, channels.ErrNotFound) && ctx.Err() == nil {
			// The configuration changed between the snapshot and the probe.
			m.logger.Warn("skipping monitor round", "error", err)
			return nil, nil
		}
		return nil, err
	}

	finished := m.now()
	m.mu.Lock()
	for _, result := range results {
		status := m.board.Record(result)
		sched, ok := m.schedules[result.Channel]
		if !ok {
			continue
		}

		if result.Healthy {
			if sched.failing {
				m.logger.Info("channel recovered", "channel", result.Channel)
			}
			sched.failing = false
			sched.backoff.Reset()
			sched.next = finished.Add(m.interval)
			continue
		}

		wait := sched.backoff.NextBackOff()
		sched.failing = true
		sched.next = finished.Add(wait)
		m.logger.Warn("channel unhealthy",
			"channel", result.Channel,
			"reason", result.Reason,
			"detail", result.Detail,
			"consecutive_failures", status.ConsecutiveFailures,
			"next_check_in", wait,
		)
	}
	m.mu.Unlock()

	return results, nil
}

// due fills names with the enabled channel names and returns those whose
// next probe is at most half an interval away.
func (m *Monitor) due(enabled []channels.Channel, now time.Time, names []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	slack := m.interval / 2
	var due []string
	for i, ch := range enabled {
		names[i] = ch.Name
		sched, ok := m.schedules[ch.Name]
		if !ok {
			sched = &schedule{backoff: m.newBackOff()}
			m.schedules[ch.Name] = sched
		}
		if !now.Add(slack).Before(sched.next) {
			due = append(due, ch.Name)
		}
	}
	return due
}

// forget drops schedules and board entries of channels not in names.
func (m *Monitor) forget(names []string) {
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		keep[name] = true
	}

	m.mu.Lock()
	for name := range m.schedules {
		if !keep[name] {
			delete(m.schedules, name)
		}
	}
	m.mu.Unlock()

	for _, name := range m.board.Retain(names) {
		m.logger.Info("channel no longer monitored", "channel", name)
		if m.onForget != nil {
			m.onForget(name)
		}
	}
}

func (m *Monitor) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = min(2*m.interval, m.maxBackoff)
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = m.maxBackoff
	b.Reset()
	return b
}
