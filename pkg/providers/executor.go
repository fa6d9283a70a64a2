package providers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"ccswitch-hq/ccswitch/pkg/channels"
)

// Executor performs the real chat-completion call against a channel.
type Executor struct {
	client *Client
	logger *slog.Logger
}

// NewExecutor creates an executor on top of a shared client.
func NewExecutor(client *Client, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{client: client, logger: logger}
}

// Execute sends req to ch and interprets the response.
//
// Exactly one outbound call is made, bounded by timeout. On failure the
// returned error is a *ChannelError, or the context error when ctx itself
// was cancelled.
func (e *Executor) Execute(ctx context.Context, ch channels.Channel, req *ChatRequest, timeout time.Duration) (*ChatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &ChannelError{
			Channel: ch.Name,
			Kind:    KindClientError,
			Message: "failed to encode request: " + err.Error(),
			Cause:   err,
		}
	}

	ex, err := e.client.post(ctx, ch, payload, timeout)
	if err != nil {
		e.logger.Warn("channel request failed",
			"channel", ch.Name,
			"error", err,
		)
		return nil, err
	}

	if ex.status < 200 || ex.status >= 300 {
		chErr := statusError(ch, ex)
		e.logger.Warn("channel returned error status",
			"channel", ch.Name,
			"status", ex.status,
			"kind", chErr.Kind,
		)
		return nil, chErr
	}

	content, model, usage, err := parseResponse(ex.body)
	if err != nil {
		e.logger.Warn("channel response could not be interpreted",
			"channel", ch.Name,
			"error", err,
		)
		return nil, &ChannelError{
			Channel:    ch.Name,
			Kind:       KindMalformed,
			StatusCode: ex.status,
			Message:    err.Error(),
			Cause:      err,
		}
	}
	if model == "" {
		model = req.Model
	}

	e.logger.Debug("channel request succeeded",
		"channel", ch.Name,
		"status", ex.status,
		"latency", ex.latency,
	)

	return &ChatResponse{
		Channel:    ch.Name,
		Model:      model,
		Content:    content,
		Usage:      usage,
		StatusCode: ex.status,
		Latency:    ex.latency,
		Body:       ex.body,
	}, nil
}
