package routing

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/providers"
)

// Call records one invocation of a mock.
type Call struct {
	Channel string
	Model   string
	Timeout time.Duration
}

// ExecuteFunc scripts the executor's behaviour for one channel.
type ExecuteFunc func(ctx context.Context, ch channels.Channel, req *providers.ChatRequest) (*providers.ChatResponse, error)

// MockExecutor is a scripted executor for routing tests.
// Channels without a script fail with a network error.
type MockExecutor struct {
	mu      sync.Mutex
	scripts map[string]ExecuteFunc
	calls   []Call
}

// NewMockExecutor creates an executor with no scripts.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{scripts: make(map[string]ExecuteFunc)}
}

// On sets the behaviour for channel.
func (m *MockExecutor) On(channel string, fn ExecuteFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[channel] = fn
}

// Succeed makes channel answer with content.
func (m *MockExecutor) Succeed(channel, content string) {
	m.On(channel, func(_ context.Context, ch channels.Channel, req *providers.ChatRequest) (*providers.ChatResponse, error) {
		return &providers.ChatResponse{
			Channel:    ch.Name,
			Model:      req.Model,
			Content:    content,
			StatusCode: http.StatusOK,
			Latency:    time.Millisecond,
		}, nil
	})
}

// Fail makes channel fail with kind.
func (m *MockExecutor) Fail(channel string, kind providers.ErrorKind) {
	m.On(channel, func(_ context.Context, ch channels.Channel, _ *providers.ChatRequest) (*providers.ChatResponse, error) {
		return nil, ChannelError(ch.Name, kind)
	})
}

// Block makes channel wait until the context is done.
func (m *MockExecutor) Block(channel string) {
	m.On(channel, func(ctx context.Context, _ channels.Channel, _ *providers.ChatRequest) (*providers.ChatResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

// Execute implements the routing Executor.
func (m *MockExecutor) Execute(ctx context.Context, ch channels.Channel, req *providers.ChatRequest, timeout time.Duration) (*providers.ChatResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Channel: ch.Name, Model: req.Model, Timeout: timeout})
	fn := m.scripts[ch.Name]
	m.mu.Unlock()

	if fn == nil {
		return nil, &providers.ChannelError{Channel: ch.Name, Kind: providers.KindNetwork, Message: "unscripted channel"}
	}
	return fn(ctx, ch, req)
}

// Calls returns the recorded calls in order.
func (m *MockExecutor) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CalledChannels returns the channel names called, in order.
func (m *MockExecutor) CalledChannels() []string {
	calls := m.Calls()
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Channel
	}
	return names
}

// ChannelError builds the error the real executor returns for kind.
func ChannelError(channel string, kind providers.ErrorKind) *providers.ChannelError {
	e := &providers.ChannelError{Channel: channel, Kind: kind, Message: "injected " + string(kind)}
	switch kind {
	case providers.KindAuth:
		e.StatusCode = http.StatusUnauthorized
	case providers.KindRateLimited:
		e.StatusCode = http.StatusTooManyRequests
	case providers.KindServerError:
		e.StatusCode = http.StatusInternalServerError
	case providers.KindClientError:
		e.StatusCode = http.StatusBadRequest
	case providers.KindMalformed:
		e.StatusCode = http.StatusOK
	case providers.KindTimeout:
		e.Timeout = time.Second
	}
	return e
}
