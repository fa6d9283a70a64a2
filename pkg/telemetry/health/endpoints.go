package health

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

// VersionInfo contains build and version information.
type VersionInfo struct {
	// Version is the semantic version (e.g., "1.0.0")
	Version string `json:"version"`

	// Commit is the git commit hash
	Commit string `json:"commit"`

	// BuildTime is when the binary was built
	BuildTime string `json:"build_time"`

	// GoVersion is the Go version used to build
	GoVersion string `json:"go_version"`
}

// NewVersionInfo fills GoVersion from the running binary.
func NewVersionInfo(version, commit, buildTime string) VersionInfo {
	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// LivenessHandler returns an HTTP handler reporting that the process is alive.
//
// Example response:
//
//	{"status": "ok", "timestamp": "2025-11-20T10:30:00Z"}
func LivenessHandler() http.HandlerFunc {
	return getOnly(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, HealthStatus{Status: StatusOK, Timestamp: time.Now()})
	})
}

// ReadinessHandler returns an HTTP handler for the channel health board.
//
// Returns:
//   - 200 OK: at least one channel answered its last probe
//   - 503 Service Unavailable: no channel is healthy, or none was probed yet
//
// Example response (degraded):
//
//	{
//	    "status": "degraded",
//	    "channels": {
//	        "primary": {"healthy": false, "reason": "rejected", "latency_ms": 120, ...},
//	        "backup": {"healthy": true, "latency_ms": 340, ...}
//	    },
//	    "timestamp": "2025-11-20T10:30:00Z"
//	}
func (b *Board) ReadinessHandler() http.HandlerFunc {
	return getOnly(func(w http.ResponseWriter, r *http.Request) {
		status := b.Status()

		code := http.StatusOK
		if status.Status == StatusDown || status.Status == StatusUnknown {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
	})
}

// VersionHandler returns an HTTP handler for build information.
func VersionHandler(info VersionInfo) http.HandlerFunc {
	return getOnly(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, info)
	})
}

// Register mounts the health endpoints on mux:
//   - /health: liveness
//   - /ready: channel readiness
//   - /version: build information
func Register(mux *http.ServeMux, board *Board, info VersionInfo) {
	mux.HandleFunc("/health", LivenessHandler())
	mux.HandleFunc("/ready", board.ReadinessHandler())
	mux.HandleFunc("/version", VersionHandler(info))
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(v)
	}
}
