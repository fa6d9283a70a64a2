package routing

import (
	"context"
	"sync"
	"time"

	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/providers"
)

// MockProber is a scripted prober. Channels are healthy unless marked otherwise.
type MockProber struct {
	mu        sync.Mutex
	unhealthy map[string]providers.ProbeResult
	blocked   map[string]bool
	calls     []Call
}

// NewMockProber creates a prober reporting every channel healthy.
func NewMockProber() *MockProber {
	return &MockProber{
		unhealthy: make(map[string]providers.ProbeResult),
		blocked:   make(map[string]bool),
	}
}

// SetUnhealthy makes probes of channel fail with reason and kind.
func (m *MockProber) SetUnhealthy(channel string, reason providers.ProbeReason, kind providers.ErrorKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unhealthy[channel] = providers.ProbeResult{
		Channel: channel,
		Reason:  reason,
		Kind:    kind,
		Detail:  "injected " + string(reason),
	}
}

// SetHealthy clears a previous SetUnhealthy for channel.
func (m *MockProber) SetHealthy(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.unhealthy, channel)
}

// Block makes probes of channel wait until the context is done.
func (m *MockProber) Block(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocked[channel] = true
}

// Probe implements the routing Prober.
func (m *MockProber) Probe(ctx context.Context, ch channels.Channel, timeout time.Duration) (providers.ProbeResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Channel: ch.Name, Model: ch.Model, Timeout: timeout})
	result, bad := m.unhealthy[ch.Name]
	blocked := m.blocked[ch.Name]
	m.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return providers.ProbeResult{}, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return providers.ProbeResult{}, err
	}
	if bad {
		return result, nil
	}
	return providers.ProbeResult{Channel: ch.Name, Healthy: true, StatusCode: 200, Latency: time.Millisecond}, nil
}

// CalledChannels returns the probed channel names, in call order.
func (m *MockProber) CalledChannels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.calls))
	for i, c := range m.calls {
		names[i] = c.Channel
	}
	return names
}
