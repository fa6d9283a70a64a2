// Package metrics provides Prometheus metrics collection for ccswitch.
//
// # Metrics Categories
//
//   - Channel Metrics: health gauge, probe and request latency, attempts by
//     outcome, errors by kind
//   - Route Metrics: routes by outcome, route duration, channels tried
//   - Stats: the orchestrator's in-process counters, read at scrape time
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	orchestrator := routing.NewOrchestrator(store, exec, prober,
//		routing.WithRecorder(collector))
//	collector.RegisterStats(orchestrator.Stats().Snapshot)
//
// Long-running commands serve collector.Handler() on /metrics. One-shot
// commands may call WriteTextfile when telemetry.metrics.textfile is set.
//
// Channel names are bounded by the configuration file, so labels do not
// need a cardinality guard.
package metrics
