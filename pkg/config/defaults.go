package config

// Default values for configuration fields.
const (
	// Routing defaults
	DefaultTimeoutSeconds      = 30
	DefaultRetryAttempts       = 3
	DefaultProbeBeforeRequest  = false
	DefaultProbeTimeoutSeconds = 10

	// Logging defaults
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultLogAddSource = false
	DefaultLogRedact    = true

	// Metrics defaults
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "ccswitch"

	// Tracing defaults
	DefaultTracingEnabled     = false
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingInsecure    = true
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "ccswitch"
)

// DefaultLatencyBuckets are the default channel latency histogram buckets in seconds.
var DefaultLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Default returns a configuration with every field at its default value
// and no channels.
//
// Files are decoded on top of Default, so a field absent from the file
// keeps its default while an explicit zero (retry_attempts: 0) is kept.
func Default() *Config {
	return &Config{
		TimeoutSeconds:      DefaultTimeoutSeconds,
		RetryAttempts:       DefaultRetryAttempts,
		ProbeBeforeRequest:  DefaultProbeBeforeRequest,
		ProbeTimeoutSeconds: DefaultProbeTimeoutSeconds,
		Channels:            []ChannelConfig{},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:     DefaultLogLevel,
				Format:    DefaultLogFormat,
				AddSource: DefaultLogAddSource,
				Redact:    DefaultLogRedact,
			},
			Metrics: MetricsConfig{
				Enabled:        DefaultMetricsEnabled,
				Namespace:      DefaultMetricsNamespace,
				LatencyBuckets: append([]float64(nil), DefaultLatencyBuckets...),
			},
			Tracing: TracingConfig{
				Enabled:     DefaultTracingEnabled,
				Endpoint:    DefaultTracingEndpoint,
				Insecure:    DefaultTracingInsecure,
				SampleRatio: DefaultTracingSampleRatio,
				ServiceName: DefaultTracingServiceName,
			},
		},
	}
}

// ApplyDefaults fills fields left empty, or set to values that mean
// "unset", with their defaults. It modifies the config in place.
func ApplyDefaults(cfg *Config) {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.ProbeTimeoutSeconds <= 0 {
		cfg.ProbeTimeoutSeconds = DefaultProbeTimeoutSeconds
	}
	if cfg.Channels == nil {
		cfg.Channels = []ChannelConfig{}
	}

	applyLoggingDefaults(&cfg.Telemetry.Logging)
	applyMetricsDefaults(&cfg.Telemetry.Metrics)
	applyTracingDefaults(&cfg.Telemetry.Tracing)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = DefaultLogLevel
	}
	if cfg.Format == "" {
		cfg.Format = DefaultLogFormat
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = append([]float64(nil), DefaultLatencyBuckets...)
	}
}

func applyTracingDefaults(cfg *TracingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultTracingEndpoint
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultTracingServiceName
	}
}
