package routing

import (
	"errors"
	"fmt"
	"strings"
)

// FailureKind classifies a failed route.
type FailureKind string

// Route failure kinds.
const (
	FailureNoEligibleChannel FailureKind = "no_eligible_channel"
	FailureAllChannelsFailed FailureKind = "all_channels_failed"
	FailureCancelled         FailureKind = "cancelled"
)

// Common routing errors that can be checked with errors.Is().
var (
	// ErrNoEligibleChannel is returned when no enabled channel serves the model.
	ErrNoEligibleChannel = errors.New("no eligible channel")

	// ErrAllChannelsFailed is returned when every attempted channel failed.
	ErrAllChannelsFailed = errors.New("all channels failed")

	// ErrCancelled is returned when the caller cancelled the route.
	ErrCancelled = errors.New("route cancelled")
)

var failureSentinels = map[FailureKind]error{
	FailureNoEligibleChannel: ErrNoEligibleChannel,
	FailureAllChannelsFailed: ErrAllChannelsFailed,
	FailureCancelled:         ErrCancelled,
}

// RouteError is returned when a route ends without a successful response.
type RouteError struct {
	// Kind is the terminal failure kind.
	Kind FailureKind

	// RequestID identifies the route.
	RequestID string

	// Model is the resolved model that was routed.
	Model string

	// Attempts lists every completed attempt in order.
	Attempts []AttemptResult

	// Cause is the context error for cancelled routes.
	Cause error
}

// Error implements the error interface.
func (e *RouteError) Error() string {
	switch e.Kind {
	case FailureNoEligibleChannel:
		return fmt.Sprintf("no enabled channel serves model %q", e.Model)
	case FailureCancelled:
		if len(e.Attempts) == 0 {
			return fmt.Sprintf("request for model %q cancelled", e.Model)
		}
		return fmt.Sprintf("request for model %q cancelled after %d attempt(s): %s",
			e.Model, len(e.Attempts), summarize(e.Attempts))
	default:
		return fmt.Sprintf("all %d channel(s) failed for model %q: %s",
			len(e.Attempts), e.Model, summarize(e.Attempts))
	}
}

// Unwrap returns the underlying error for error chain support.
func (e *RouteError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for errors.Is().
func (e *RouteError) Is(target error) bool {
	return failureSentinels[e.Kind] == target
}

func summarize(attempts []AttemptResult) string {
	parts := make([]string, len(attempts))
	for i, a := range attempts {
		label := string(a.Kind)
		if a.Outcome == OutcomeUnhealthy {
			label = "unhealthy (" + string(a.Reason) + ")"
		}
		if a.Detail != "" {
			parts[i] = fmt.Sprintf("%s: %s: %s", a.Channel, label, a.Detail)
		} else {
			parts[i] = fmt.Sprintf("%s: %s", a.Channel, label)
		}
	}
	return strings.Join(parts, "; ")
}
