package providers

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies a failed channel call.
type ErrorKind string

// Error kinds reported by the Executor and Prober.
const (
	KindTimeout     ErrorKind = "timeout"
	KindNetwork     ErrorKind = "network"
	KindAuth        ErrorKind = "auth"
	KindRateLimited ErrorKind = "rate_limited"
	KindServerError ErrorKind = "server_error"
	KindClientError ErrorKind = "client_error"
	KindMalformed   ErrorKind = "malformed"
)

// Sentinels matched by *ChannelError through errors.Is().
var (
	ErrTimeout     = errors.New("channel timeout")
	ErrNetwork     = errors.New("channel unreachable")
	ErrAuth        = errors.New("channel authentication failed")
	ErrRateLimited = errors.New("channel rate limited")
	ErrServerError = errors.New("channel server error")
	ErrClientError = errors.New("channel rejected request")
	ErrMalformed   = errors.New("channel response malformed")
)

var kindSentinels = map[ErrorKind]error{
	KindTimeout:     ErrTimeout,
	KindNetwork:     ErrNetwork,
	KindAuth:        ErrAuth,
	KindRateLimited: ErrRateLimited,
	KindServerError: ErrServerError,
	KindClientError: ErrClientError,
	KindMalformed:   ErrMalformed,
}

// ChannelSpecific reports whether the failure is tied to the channel's own
// configuration (credential, payload) rather than a transient condition.
// Both classes cause a failover; the distinction is reported to operators.
func (k ErrorKind) ChannelSpecific() bool {
	return k == KindAuth || k == KindClientError
}

// KindForStatus maps a non-2xx HTTP status code to an error kind.
// Statuses outside 4xx and 5xx (an unfollowed redirect, a stray 1xx) are
// not a usable answer and count as malformed.
func KindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code >= 500 && code < 600:
		return KindServerError
	case code >= 400 && code < 500:
		return KindClientError
	default:
		return KindMalformed
	}
}

// ChannelError is returned when a call to a channel fails.
type ChannelError struct {
	// Channel is the name of the channel that failed.
	Channel string

	// Kind classifies the failure.
	Kind ErrorKind

	// StatusCode is the HTTP status code (0 if no response was received).
	StatusCode int

	// Message is the (truncated) error body or transport error text.
	Message string

	// RetryAfter is the channel's Retry-After hint on 429 responses.
	RetryAfter time.Duration

	// Timeout is the per-call timeout that expired, for KindTimeout.
	Timeout time.Duration

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *ChannelError) Error() string {
	switch {
	case e.Kind == KindTimeout:
		return fmt.Sprintf("channel %q timeout after %s", e.Channel, e.Timeout)
	case e.Kind == KindRateLimited && e.RetryAfter > 0:
		return fmt.Sprintf("channel %q rate limited (status %d, retry after %s): %s",
			e.Channel, e.StatusCode, e.RetryAfter, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("channel %q %s (status %d): %s", e.Channel, e.Kind, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("channel %q %s: %s", e.Channel, e.Kind, e.Message)
	}
}

// Unwrap returns the underlying error for error chain support.
func (e *ChannelError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for errors.Is() against the kind sentinels.
func (e *ChannelError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Detail is a short operator-facing description of the failure.
func (e *ChannelError) Detail() string {
	if e.StatusCode > 0 {
		if e.Message == "" {
			return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
		}
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	if e.Kind == KindTimeout {
		return fmt.Sprintf("no response within %s", e.Timeout)
	}
	return e.Message
}

// KindOf returns the error kind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var chErr *ChannelError
	if errors.As(err, &chErr) {
		return chErr.Kind, true
	}
	return "", false
}
