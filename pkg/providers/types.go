package providers

import (
	"encoding/json"
	"time"
)

// Message represents a single message in a conversation.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`
}

// ChatRequest is the request payload sent to a channel.
//
// Known fields are typed. Extra carries any additional parameters through
// to the channel untouched; a known field always wins over an Extra entry
// with the same key.
type ChatRequest struct {
	// Model is the model identifier sent to the channel.
	Model string

	// Messages is the conversation history.
	Messages []Message

	// MaxTokens caps the generated tokens. Nil leaves it to the channel.
	MaxTokens *int

	// Temperature controls randomness. Nil leaves it to the channel.
	Temperature *float64

	// Stream is always sent; streaming responses are not consumed.
	Stream bool

	// Extra holds passthrough parameters (top_p, stop, user, ...).
	Extra map[string]any
}

// MarshalJSON encodes the request as a flat JSON object.
func (r *ChatRequest) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(r.Extra)+5)
	for k, v := range r.Extra {
		body[k] = v
	}

	body["model"] = r.Model
	messages := r.Messages
	if messages == nil {
		messages = []Message{}
	}
	body["messages"] = messages
	body["stream"] = r.Stream
	if r.MaxTokens != nil {
		body["max_tokens"] = *r.MaxTokens
	}
	if r.Temperature != nil {
		body["temperature"] = *r.Temperature
	}

	return json.Marshal(body)
}

// ChatResponse is the interpreted result of a successful call.
type ChatResponse struct {
	// Channel is the name of the channel that served the request.
	Channel string `json:"channel"`

	// Model is the model reported by the channel, or the requested model
	// when the body does not name one.
	Model string `json:"model"`

	// Content is the generated text.
	Content string `json:"content"`

	// Usage is the channel's token usage object, verbatim.
	Usage json.RawMessage `json:"usage,omitempty"`

	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"status_code"`

	// Latency is the wall time of the call.
	Latency time.Duration `json:"latency"`

	// Body is the raw response body.
	Body json.RawMessage `json:"-"`
}

// ProbeReason classifies why a probe found a channel unhealthy.
type ProbeReason string

// Probe reasons.
const (
	// ReasonNetwork means the endpoint could not be reached in time.
	ReasonNetwork ProbeReason = "network"

	// ReasonRejected means the endpoint refused the credential or rate limited it.
	ReasonRejected ProbeReason = "rejected"

	// ReasonUpstream means the endpoint answered with an unusable status.
	ReasonUpstream ProbeReason = "upstream"
)

// ProbeResult is the outcome of a single health probe.
type ProbeResult struct {
	// Channel is the probed channel's name.
	Channel string `json:"channel"`

	// Healthy is true when the endpoint is reachable and accepted the credential.
	Healthy bool `json:"healthy"`

	// Reason is set when Healthy is false.
	Reason ProbeReason `json:"reason,omitempty"`

	// Kind is the underlying error kind when Healthy is false.
	Kind ErrorKind `json:"kind,omitempty"`

	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int `json:"status_code,omitempty"`

	// Latency is the probe's wall time.
	Latency time.Duration `json:"latency"`

	// Detail describes the failure.
	Detail string `json:"detail,omitempty"`
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
