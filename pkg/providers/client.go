package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"ccswitch-hq/ccswitch/pkg/channels"
)

// ClientConfig contains the HTTP transport settings shared by all channels.
type ClientConfig struct {
	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration

	// MaxResponseBytes caps how much of a response body is read.
	MaxResponseBytes int64

	// UserAgent is sent on every request.
	UserAgent string
}

// DefaultClientConfig returns the transport settings used by the CLI.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		MaxResponseBytes:    8 << 20,
		UserAgent:           "ccswitch",
	}
}

// Client is the pooled HTTP client shared by the Executor and Prober.
type Client struct {
	config ClientConfig
	http   *http.Client
	logger *slog.Logger
}

// exchange is one completed HTTP round trip.
type exchange struct {
	status  int
	header  http.Header
	body    []byte
	latency time.Duration
}

// NewClient creates a client with connection pooling.
// Timeouts are applied per call, not on the http.Client.
func NewClient(config ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxResponseBytes <= 0 {
		config.MaxResponseBytes = DefaultClientConfig().MaxResponseBytes
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		config: config,
		http:   &http.Client{Transport: transport},
		logger: logger,
	}
}

// Close releases idle pooled connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// post sends body to the channel and reads the whole response.
//
// The call is bounded by timeout. If the caller's ctx is done the context
// error is returned unwrapped; an expired per-call timeout is reported as
// KindTimeout and any other transport failure as KindNetwork. The response
// body is always drained and closed before returning.
func (c *Client) post(ctx context.Context, ch channels.Channel, body []byte, timeout time.Duration) (*exchange, error) {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, ch.URL, bytes.NewReader(body))
	if err != nil {
		return nil, &ChannelError{
			Channel: ch.Name,
			Kind:    KindNetwork,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Cause:   err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if ch.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+ch.APIKey)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.logger.Debug("sending request to channel",
		"channel", ch.Name,
		"url", ch.URL,
		"timeout", timeout,
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, callCtx, ch, timeout, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes))
	if err != nil {
		return nil, c.transportError(ctx, callCtx, ch, timeout, err)
	}

	return &exchange{
		status:  resp.StatusCode,
		header:  resp.Header,
		body:    data,
		latency: time.Since(start),
	}, nil
}

// transportError classifies a failed round trip.
func (c *Client) transportError(ctx, callCtx context.Context, ch channels.Channel, timeout time.Duration, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || isTimeout(err) {
		return &ChannelError{
			Channel: ch.Name,
			Kind:    KindTimeout,
			Timeout: timeout,
			Message: err.Error(),
			Cause:   err,
		}
	}
	return &ChannelError{
		Channel: ch.Name,
		Kind:    KindNetwork,
		Message: err.Error(),
		Cause:   err,
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// statusError builds the error for a non-2xx response.
func statusError(ch channels.Channel, ex *exchange) *ChannelError {
	e := &ChannelError{
		Channel:    ch.Name,
		Kind:       KindForStatus(ex.status),
		StatusCode: ex.status,
		Message:    truncate(strings.TrimSpace(string(ex.body)), 512),
	}
	if e.Kind == KindRateLimited {
		e.RetryAfter = parseRetryAfter(ex.header.Get("Retry-After"))
	}
	return e
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
