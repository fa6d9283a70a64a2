// Package health tracks channel health for the monitor and serves it over HTTP.
//
// A Board keeps the latest probe result of every monitored channel, with
// the count of consecutive failures. Its readiness handler reports the
// aggregate:
//
//   - ready: every channel answered its last probe
//   - degraded: some channels did
//   - unhealthy: none did (503)
//   - unknown: nothing probed yet (503)
//
// # Endpoints
//
//	mux := http.NewServeMux()
//	health.Register(mux, board, health.NewVersionInfo(version, commit, date))
//
// registers /health (liveness), /ready (channel readiness) and /version.
package health
