// Package tracing provides OpenTelemetry tracing for ccswitch.
//
// # Overview
//
// When telemetry.tracing.enabled is set, New installs a global tracer
// provider exporting to an OTLP gRPC collector and a W3C Trace Context
// propagator. The orchestrator then records one span per route, with a
// child span for each attempt and probe, and outbound channel requests
// carry a traceparent header.
//
// When tracing is disabled, New returns a noop tracer and nothing is
// exported.
//
// # Sampling
//
// telemetry.tracing.sample_ratio selects the fraction of routes traced.
// The sampler is parent-based, so attempts inherit the decision of their
// route.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	orchestrator := routing.NewOrchestrator(store, exec, prober,
//	    routing.WithTracer(tracer.Tracer()))
package tracing
