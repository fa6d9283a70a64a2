package health

import (
	"sort"
	"sync"
	"time"

	"ccswitch-hq/ccswitch/pkg/providers"
)

// Overall statuses.
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusDown     = "unhealthy"
	StatusUnknown  = "unknown"
)

// ChannelStatus is the latest known health of one channel.
type ChannelStatus struct {
	// Healthy is the result of the last probe.
	Healthy bool `json:"healthy"`

	// Reason is set when the last probe was unhealthy.
	Reason providers.ProbeReason `json:"reason,omitempty"`

	// Detail describes the last failure.
	Detail string `json:"detail,omitempty"`

	// StatusCode is the HTTP status of the last probe.
	StatusCode int `json:"status_code,omitempty"`

	// LatencyMS is the last probe's wall time in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// ConsecutiveFailures counts unhealthy probes since the last healthy one.
	ConsecutiveFailures int `json:"consecutive_failures,omitempty"`

	// CheckedAt is when the last probe finished.
	CheckedAt time.Time `json:"checked_at"`
}

// HealthStatus is the aggregated health of all tracked channels.
type HealthStatus struct {
	// Status is "ready" when every channel is healthy, "degraded" when some
	// are, "unhealthy" when none are, and "unknown" before the first probe.
	Status string `json:"status"`

	// Channels holds the per-channel status keyed by name.
	Channels map[string]ChannelStatus `json:"channels,omitempty"`

	// Timestamp is when the status was computed.
	Timestamp time.Time `json:"timestamp"`
}

// Board tracks the latest probe result of every monitored channel.
// It is safe for concurrent use.
type Board struct {
	mu       sync.RWMutex
	channels map[string]ChannelStatus

	now func() time.Time
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		channels: make(map[string]ChannelStatus),
		now:      time.Now,
	}
}

// Record stores a probe result and returns the channel's updated status.
func (b *Board) Record(result providers.ProbeResult) ChannelStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.channels[result.Channel]
	status := ChannelStatus{
		Healthy:    result.Healthy,
		Reason:     result.Reason,
		Detail:     result.Detail,
		StatusCode: result.StatusCode,
		LatencyMS:  result.Latency.Milliseconds(),
		CheckedAt:  b.now(),
	}
	if !result.Healthy {
		status.ConsecutiveFailures = prev.ConsecutiveFailures + 1
	}

	b.channels[result.Channel] = status
	return status
}

// Get returns the status of the named channel.
func (b *Board) Get(name string) (ChannelStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.channels[name]
	return s, ok
}

// Retain drops every channel not in names and returns the dropped names,
// sorted. Used after a configuration reload removes channels.
func (b *Board) Retain(names []string) []string {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var dropped []string
	for name := range b.channels {
		if !keep[name] {
			delete(b.channels, name)
			dropped = append(dropped, name)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// Status aggregates the board into an overall health status.
func (b *Board) Status() HealthStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	channels := make(map[string]ChannelStatus, len(b.channels))
	healthy := 0
	for name, s := range b.channels {
		channels[name] = s
		if s.Healthy {
			healthy++
		}
	}

	status := StatusReady
	switch {
	case len(channels) == 0:
		status = StatusUnknown
	case healthy == 0:
		status = StatusDown
	case healthy < len(channels):
		status = StatusDegraded
	}

	return HealthStatus{
		Status:    status,
		Channels:  channels,
		Timestamp: b.now(),
	}
}
