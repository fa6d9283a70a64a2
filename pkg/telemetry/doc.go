// Package telemetry groups the observability packages used by ccswitch.
//
// # Components
//
//   - logging: slog-based structured logging with credential redaction and
//     request, channel, model and trace fields lifted from the context
//   - metrics: Prometheus collectors for attempts, probes, routes and
//     routing statistics, served over HTTP or written to a textfile
//   - tracing: OpenTelemetry spans for routes, attempts and probes,
//     exported over OTLP gRPC
//   - health: the channel health board and its HTTP endpoints
//
// # Wiring
//
//	logger, _ := logging.New(logging.Config{Level: "info", Format: "text", Redact: true})
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	orchestrator := routing.NewOrchestrator(store, executor, prober,
//		routing.WithLogger(logger.Slog()),
//		routing.WithRecorder(collector),
//		routing.WithTracer(tracer.Tracer()),
//	)
//
// # Credentials
//
// Channel API keys never reach a log line: the redactor rewrites sk- keys,
// bearer tokens and api_key pairs in every message and attribute.
package telemetry
