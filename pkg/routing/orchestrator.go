package routing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/providers"
	"ccswitch-hq/ccswitch/pkg/telemetry/logging"
)

// Executor sends the real request to a channel.
type Executor interface {
	Execute(ctx context.Context, ch channels.Channel, req *providers.ChatRequest, timeout time.Duration) (*providers.ChatResponse, error)
}

// Prober checks a channel's health.
type Prober interface {
	Probe(ctx context.Context, ch channels.Channel, timeout time.Duration) (providers.ProbeResult, error)
}

// Source hands out the channel set and settings for one invocation.
// Implementations must return a registry the caller may keep; later
// configuration changes must not be visible through it.
type Source interface {
	Snapshot() (*channels.Registry, Settings)
}

// StaticSource is a Source over a fixed registry and settings.
type StaticSource struct {
	Registry *channels.Registry
	Settings Settings
}

// Snapshot returns a copy of the registry.
func (s StaticSource) Snapshot() (*channels.Registry, Settings) {
	return s.Registry.Clone(), s.Settings
}

// Orchestrator routes requests across channels with sequential failover.
type Orchestrator struct {
	source   Source
	executor Executor
	prober   Prober
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
	stats    *AtomicStats

	// probeConcurrency bounds parallel probes in TestChannels.
	probeConcurrency int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithTracer sets the tracer used for route, attempt and probe spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithProbeConcurrency bounds the number of probes TestChannels runs at once.
func WithProbeConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.probeConcurrency = n
		}
	}
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(source Source, executor Executor, prober Prober, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:           source,
		executor:         executor,
		prober:           prober,
		logger:           slog.Default(),
		recorder:         nopRecorder{},
		tracer:           otel.Tracer("ccswitch/routing"),
		stats:            NewAtomicStats(),
		probeConcurrency: 4,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stats returns the orchestrator's routing statistics.
func (o *Orchestrator) Stats() *AtomicStats {
	return o.stats
}

// Route sends spec to the first eligible channel that answers successfully.
//
// Eligible channels are tried one at a time in (priority, name) order, at
// most Settings.MaxAttempts of them, never the same channel twice. On
// failure the returned error is a *RouteError. A nil spec is the empty
// request.
func (o *Orchestrator) Route(ctx context.Context, spec *RequestSpec) (*RouteResult, error) {
	if spec == nil {
		spec = &RequestSpec{}
	}
	start := time.Now()
	reg, settings := o.source.Snapshot()
	model := settings.Model(spec.Model)
	requestID := uuid.NewString()

	ctx = logging.WithRequestID(ctx, requestID)
	ctx = logging.WithModel(ctx, model)
	ctx, span := o.tracer.Start(ctx, "ccswitch.route",
		trace.WithAttributes(
			attribute.String("ccswitch.request_id", requestID),
			attribute.String("ccswitch.model", model),
		),
	)
	defer span.End()

	o.stats.IncrementRoutes()

	eligible := reg.EligibleFor(model)
	if len(eligible) == 0 {
		o.logger.WarnContext(ctx, "no eligible channel", "channels", reg.Len())
		return nil, o.fail(ctx, span, start, &RouteError{
			Kind:      FailureNoEligibleChannel,
			RequestID: requestID,
			Model:     model,
		})
	}

	limit := settings.MaxAttempts(len(eligible))
	probe := spec.Probe || settings.ProbeBeforeRequest
	req := spec.chatRequest(model)

	span.SetAttributes(
		attribute.Int("ccswitch.eligible", len(eligible)),
		attribute.Int("ccswitch.max_attempts", limit),
	)
	o.logger.DebugContext(ctx, "routing request",
		"eligible", len(eligible),
		"max_attempts", limit,
		"probe", probe,
	)

	attempts := make([]AttemptResult, 0, limit)
	for _, ch := range eligible[:limit] {
		if err := ctx.Err(); err != nil {
			return nil, o.cancelled(ctx, span, start, requestID, model, attempts, err)
		}

		attempt, resp, err := o.attempt(ctx, ch, req, settings, probe)
		if err != nil {
			return nil, o.cancelled(ctx, span, start, requestID, model, attempts, err)
		}
		o.stats.RecordAttempt(attempt)

		if resp != nil {
			o.stats.IncrementSuccesses()
			o.recorder.RecordRoute(string(OutcomeSuccess), len(attempts)+1, time.Since(start))
			span.SetAttributes(
				attribute.String("ccswitch.channel", ch.Name),
				attribute.Int("ccswitch.attempts", len(attempts)+1),
			)
			span.SetStatus(codes.Ok, "")
			o.logger.InfoContext(ctx, "request served",
				"channel", ch.Name,
				"prior_failures", len(attempts),
				"latency", resp.Latency,
			)
			return &RouteResult{
				RequestID:     requestID,
				Channel:       ch.Name,
				Model:         resp.Model,
				Response:      resp,
				PriorFailures: attempts,
				Duration:      time.Since(start),
			}, nil
		}

		attempts = append(attempts, attempt)
	}

	return nil, o.fail(ctx, span, start, &RouteError{
		Kind:      FailureAllChannelsFailed,
		RequestID: requestID,
		Model:     model,
		Attempts:  attempts,
	})
}

// attempt runs the optional probe and the request against one channel.
// A non-nil error means ctx was cancelled and the attempt is void.
func (o *Orchestrator) attempt(ctx context.Context, ch channels.Channel, req *providers.ChatRequest, settings Settings, probe bool) (AttemptResult, *providers.ChatResponse, error) {
	ctx = logging.WithChannel(ctx, ch.Name)
	ctx, span := o.tracer.Start(ctx, "ccswitch.attempt",
		trace.WithAttributes(attribute.String("ccswitch.channel", ch.Name)),
	)
	defer span.End()

	if probe {
		result, err := o.probe(ctx, ch, settings.probeTimeout())
		if err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return AttemptResult{}, nil, err
		}
		if !result.Healthy {
			attempt := AttemptResult{
				Channel:    ch.Name,
				Outcome:    OutcomeUnhealthy,
				Kind:       result.Kind,
				Reason:     result.Reason,
				StatusCode: result.StatusCode,
				Latency:    result.Latency,
				Detail:     result.Detail,
			}
			o.recorder.RecordAttempt(ch.Name, string(attempt.Outcome), string(attempt.Kind), attempt.Latency)
			span.SetStatus(codes.Error, "unhealthy")
			o.logger.WarnContext(ctx, "skipping unhealthy channel",
				"reason", result.Reason,
				"detail", result.Detail,
			)
			return attempt, nil, nil
		}
	}

	timeout := settings.ChannelTimeout(ch)
	start := time.Now()
	resp, err := o.executor.Execute(ctx, ch, req, timeout)
	latency := time.Since(start)

	if err == nil {
		o.recorder.RecordAttempt(ch.Name, string(OutcomeSuccess), "", latency)
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		return AttemptResult{
			Channel:    ch.Name,
			Outcome:    OutcomeSuccess,
			StatusCode: resp.StatusCode,
			Latency:    resp.Latency,
		}, resp, nil
	}

	if ctx.Err() != nil {
		span.SetStatus(codes.Error, "cancelled")
		return AttemptResult{}, nil, ctx.Err()
	}

	attempt := AttemptResult{
		Channel: ch.Name,
		Outcome: OutcomeFailed,
		Kind:    providers.KindNetwork,
		Latency: latency,
		Detail:  err.Error(),
	}
	var chErr *providers.ChannelError
	if errors.As(err, &chErr) {
		attempt.Kind = chErr.Kind
		attempt.StatusCode = chErr.StatusCode
		attempt.Detail = chErr.Detail()
	}

	o.recorder.RecordAttempt(ch.Name, string(attempt.Outcome), string(attempt.Kind), latency)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(attempt.Kind))
	o.logger.WarnContext(ctx, "channel attempt failed, failing over",
		"kind", attempt.Kind,
		"channel_specific", attempt.Kind.ChannelSpecific(),
		"status", attempt.StatusCode,
		"detail", attempt.Detail,
	)
	return attempt, nil, nil
}

// probe runs one traced, recorded probe.
func (o *Orchestrator) probe(ctx context.Context, ch channels.Channel, timeout time.Duration) (providers.ProbeResult, error) {
	ctx, span := o.tracer.Start(ctx, "ccswitch.probe",
		trace.WithAttributes(attribute.String("ccswitch.channel", ch.Name)),
	)
	defer span.End()

	result, err := o.prober.Probe(ctx, ch, timeout)
	if err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return result, err
	}

	o.recorder.RecordProbe(ch.Name, result.Healthy, string(result.Reason), result.Latency)
	span.SetAttributes(attribute.Bool("ccswitch.healthy", result.Healthy))
	if !result.Healthy {
		span.SetStatus(codes.Error, string(result.Reason))
	}
	return result, nil
}

func (o *Orchestrator) cancelled(ctx context.Context, span trace.Span, start time.Time, requestID, model string, attempts []AttemptResult, cause error) error {
	return o.fail(ctx, span, start, &RouteError{
		Kind:      FailureCancelled,
		RequestID: requestID,
		Model:     model,
		Attempts:  attempts,
		Cause:     cause,
	})
}

func (o *Orchestrator) fail(ctx context.Context, span trace.Span, start time.Time, err *RouteError) error {
	o.stats.IncrementFailure(err.Kind)
	o.recorder.RecordRoute(string(err.Kind), len(err.Attempts), time.Since(start))
	span.SetAttributes(attribute.Int("ccswitch.attempts", len(err.Attempts)))
	span.SetStatus(codes.Error, string(err.Kind))

	if err.Kind == FailureCancelled {
		o.logger.InfoContext(ctx, "request cancelled", "attempts", len(err.Attempts))
	} else {
		o.logger.ErrorContext(ctx, "request failed", "kind", err.Kind, "attempts", len(err.Attempts), "error", err)
	}
	return err
}

// TestChannels probes the named channels, or every enabled channel when
// names is empty, and returns the results in (priority, name) order.
//
// Unknown names fail with channels.ErrNotFound before any probe is sent.
// Named channels are probed even when disabled. Probes run concurrently.
func (o *Orchestrator) TestChannels(ctx context.Context, names []string) ([]providers.ProbeResult, error) {
	reg, settings := o.source.Snapshot()

	targets, err := selectTargets(reg, names)
	if err != nil {
		return nil, err
	}

	ctx, span := o.tracer.Start(ctx, "ccswitch.test_channels",
		trace.WithAttributes(attribute.Int("ccswitch.channels", len(targets))),
	)
	defer span.End()

	results := make([]providers.ProbeResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.probeConcurrency)

	for i, ch := range targets {
		g.Go(func() error {
			result, err := o.probe(logging.WithChannel(gctx, ch.Name), ch, settings.probeTimeout())
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return nil, err
	}

	healthy := 0
	for _, r := range results {
		if r.Healthy {
			healthy++
		}
	}
	span.SetAttributes(attribute.Int("ccswitch.healthy", healthy))
	o.logger.InfoContext(ctx, "channel test complete",
		"channels", len(results),
		"healthy", healthy,
	)

	return results, nil
}

// selectTargets resolves names against reg, all enabled channels if empty.
func selectTargets(reg *channels.Registry, names []string) ([]channels.Channel, error) {
	if len(names) == 0 {
		return reg.List(), nil
	}

	seen := make(map[string]bool, len(names))
	targets := make([]channels.Channel, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		ch, err := reg.Get(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, ch)
	}

	channels.Sort(targets)
	return targets, nil
}
