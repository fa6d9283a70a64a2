package providers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ccswitch-hq/ccswitch/pkg/channels"
)

// probeModel is sent when the channel does not pin a model.
const probeModel = "test"

// Prober performs lightweight reachability and credential checks.
type Prober struct {
	client *Client
	logger *slog.Logger
}

// NewProber creates a prober on top of a shared client.
func NewProber(client *Client, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{client: client, logger: logger}
}

// probeRequest is the smallest completion a chat endpoint will accept.
func probeRequest(ch channels.Channel) *ChatRequest {
	model := ch.Model
	if model == "" {
		model = probeModel
	}
	maxTokens := 1
	return &ChatRequest{
		Model:     model,
		Messages:  []Message{{Role: RoleUser, Content: "Hello"}},
		MaxTokens: &maxTokens,
	}
}

// Probe checks whether ch is reachable and accepts its credential.
//
// A 2xx response is healthy. So is a 400: the endpoint answered and
// authenticated us, it only disliked the probe payload. 401, 403 and 429
// are Rejected; timeouts and transport failures are Network; any other
// status is Upstream. The only error returned is the context error when
// ctx is cancelled.
func (p *Prober) Probe(ctx context.Context, ch channels.Channel, timeout time.Duration) (ProbeResult, error) {
	payload, err := json.Marshal(probeRequest(ch))
	if err != nil {
		return ProbeResult{}, err
	}

	start := time.Now()
	ex, err := p.client.post(ctx, ch, payload, timeout)
	if err != nil {
		var chErr *ChannelError
		if !errors.As(err, &chErr) {
			return ProbeResult{}, err
		}
		result := ProbeResult{
			Channel: ch.Name,
			Healthy: false,
			Reason:  ReasonNetwork,
			Kind:    chErr.Kind,
			Latency: time.Since(start),
			Detail:  chErr.Detail(),
		}
		p.logger.Error("channel probe failed",
			"channel", ch.Name,
			"kind", chErr.Kind,
			"error", err,
		)
		return result, nil
	}

	result := ProbeResult{
		Channel:    ch.Name,
		StatusCode: ex.status,
		Latency:    ex.latency,
	}

	if (ex.status >= 200 && ex.status < 300) || ex.status == http.StatusBadRequest {
		result.Healthy = true
		p.logger.Debug("channel probe passed",
			"channel", ch.Name,
			"status", ex.status,
			"latency", ex.latency,
		)
		return result, nil
	}

	chErr := statusError(ch, ex)
	result.Kind = chErr.Kind
	result.Detail = chErr.Detail()
	switch chErr.Kind {
	case KindAuth, KindRateLimited:
		result.Reason = ReasonRejected
	default:
		result.Reason = ReasonUpstream
	}

	p.logger.Warn("channel probe returned error status",
		"channel", ch.Name,
		"status", ex.status,
		"reason", result.Reason,
	)
	return result, nil
}
