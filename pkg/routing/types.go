package routing

import (
	"time"

	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/providers"
)

// Defaults used when Settings leave a field unset.
const (
	// FallbackModel is requested when neither the caller nor the settings name a model.
	FallbackModel = "gpt-3.5-turbo"

	DefaultTimeout      = 30 * time.Second
	DefaultProbeTimeout = 10 * time.Second

	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

// Settings are the global routing knobs, consumed read-only per route.
type Settings struct {
	// DefaultModel is used when a request does not name a model.
	DefaultModel string

	// Timeout bounds each request to a channel that does not override it.
	Timeout time.Duration

	// RetryAttempts is the maximum number of distinct channels tried for
	// one request. Zero or negative means every eligible channel.
	RetryAttempts int

	// ProbeBeforeRequest probes each channel before sending the request.
	ProbeBeforeRequest bool

	// ProbeTimeout bounds each probe.
	ProbeTimeout time.Duration
}

// Model resolves the model to route for a requested name.
func (s Settings) Model(requested string) string {
	if requested != "" {
		return requested
	}
	if s.DefaultModel != "" {
		return s.DefaultModel
	}
	return FallbackModel
}

// MaxAttempts returns how many of n eligible channels may be tried.
func (s Settings) MaxAttempts(n int) int {
	if s.RetryAttempts <= 0 || s.RetryAttempts > n {
		return n
	}
	return s.RetryAttempts
}

// ChannelTimeout returns the request timeout for ch.
func (s Settings) ChannelTimeout(ch channels.Channel) time.Duration {
	fallback := s.Timeout
	if fallback <= 0 {
		fallback = DefaultTimeout
	}
	return ch.Timeout(fallback)
}

func (s Settings) probeTimeout() time.Duration {
	if s.ProbeTimeout <= 0 {
		return DefaultProbeTimeout
	}
	return s.ProbeTimeout
}

// RequestSpec is the caller's logical request.
type RequestSpec struct {
	// Model is the target model. Empty uses the settings default.
	Model string

	// Prompt is sent as a single user message.
	Prompt string

	// System is an optional system prompt sent before Prompt.
	System string

	// Messages, when set, replaces Prompt and System entirely.
	Messages []providers.Message

	// MaxTokens defaults to DefaultMaxTokens when nil.
	MaxTokens *int

	// Temperature defaults to DefaultTemperature when nil.
	Temperature *float64

	// Extra parameters passed through to the channel untouched.
	Extra map[string]any

	// Probe forces a probe before each attempt regardless of settings.
	Probe bool
}

// chatRequest builds the wire request for model.
func (r *RequestSpec) chatRequest(model string) *providers.ChatRequest {
	messages := r.Messages
	if len(messages) == 0 {
		if r.System != "" {
			messages = append(messages, providers.Message{Role: providers.RoleSystem, Content: r.System})
		}
		messages = append(messages, providers.Message{Role: providers.RoleUser, Content: r.Prompt})
	}

	maxTokens := DefaultMaxTokens
	if r.MaxTokens != nil {
		maxTokens = *r.MaxTokens
	}
	temperature := DefaultTemperature
	if r.Temperature != nil {
		temperature = *r.Temperature
	}

	return &providers.ChatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		Extra:       r.Extra,
	}
}

// Outcome is the result class of one attempt.
type Outcome string

// Attempt outcomes.
const (
	OutcomeSuccess   Outcome = "success"
	OutcomeUnhealthy Outcome = "unhealthy"
	OutcomeFailed    Outcome = "failed"
)

// AttemptResult records one channel tried during a route.
type AttemptResult struct {
	// Channel is the channel's name.
	Channel string `json:"channel"`

	// Outcome is unhealthy when a probe failed and the request was not sent.
	Outcome Outcome `json:"outcome"`

	// Kind is the error kind of the failure.
	Kind providers.ErrorKind `json:"kind,omitempty"`

	// Reason is set for unhealthy probes.
	Reason providers.ProbeReason `json:"reason,omitempty"`

	// StatusCode is the HTTP status, 0 if none was received.
	StatusCode int `json:"status_code,omitempty"`

	// Latency is the wall time of the probe or request.
	Latency time.Duration `json:"latency"`

	// Detail describes the failure.
	Detail string `json:"detail,omitempty"`
}

// RouteResult is a successful route.
type RouteResult struct {
	// RequestID identifies this route in logs and traces.
	RequestID string `json:"request_id"`

	// Channel is the channel that served the request.
	Channel string `json:"channel"`

	// Model is the model reported by the channel.
	Model string `json:"model"`

	// Response is the channel's interpreted response.
	Response *providers.ChatResponse `json:"response"`

	// PriorFailures lists the channels tried before Channel, in order.
	PriorFailures []AttemptResult `json:"prior_failures"`

	// Duration is the wall time of the whole route.
	Duration time.Duration `json:"duration"`
}

// Stats contains statistics about routing decisions.
type Stats struct {
	// TotalRoutes is the total number of routes started.
	TotalRoutes int64

	// Successes is the number of routes that found a working channel.
	Successes int64

	// Failures counts failed routes by failure kind.
	Failures map[FailureKind]int64

	// ChannelAttempts counts attempts per channel.
	ChannelAttempts map[string]int64

	// ChannelFailures counts failed attempts per channel and error kind.
	ChannelFailures map[string]map[providers.ErrorKind]int64

	// LastResetTime is when statistics were last reset.
	LastResetTime time.Time
}
