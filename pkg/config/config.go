package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"ccswitch-hq/ccswitch/pkg/channels"
	"ccswitch-hq/ccswitch/pkg/routing"
)

// Config is the root configuration structure for ccswitch.
// It holds the global routing settings, the channel list, and telemetry.
type Config struct {
	// DefaultModel is used when a request does not name a model.
	// Default: "" (falls back to gpt-3.5-turbo)
	DefaultModel string `yaml:"default_model,omitempty"`

	// TimeoutSeconds bounds each request to a channel.
	// Default: 30
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// RetryAttempts is the maximum number of distinct channels tried per
	// request. Zero or negative means every eligible channel.
	// Default: 3
	RetryAttempts int `yaml:"retry_attempts"`

	// ProbeBeforeRequest probes each channel before sending a request.
	// Default: false
	ProbeBeforeRequest bool `yaml:"probe_before_request"`

	// ProbeTimeoutSeconds bounds each health probe.
	// Default: 10
	ProbeTimeoutSeconds int `yaml:"probe_timeout_seconds"`

	// Channels lists the configured backends.
	Channels []ChannelConfig `yaml:"channels"`

	// Telemetry contains logging, metrics, and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ChannelConfig is a channel record as stored in the configuration file.
// A record without an explicit enabled field is enabled.
type ChannelConfig channels.Channel

// UnmarshalYAML decodes a channel record, defaulting enabled to true.
func (c *ChannelConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain ChannelConfig
	raw := plain{Enabled: true}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = ChannelConfig(raw)
	return nil
}

// Channel returns the record as a registry channel.
func (c ChannelConfig) Channel() channels.Channel {
	return channels.Channel(c)
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact scrubs API keys and bearer tokens from log output.
	// Default: true
	Redact bool `yaml:"redact"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "ccswitch"
	Namespace string `yaml:"namespace"`

	// Textfile, when set, receives a Prometheus text exposition of the
	// metrics after each one-shot command (node_exporter textfile format).
	// Default: ""
	Textfile string `yaml:"textfile,omitempty"`

	// LatencyBuckets defines histogram buckets for channel latency (seconds).
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30]
	LatencyBuckets []float64 `yaml:"latency_buckets,omitempty"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of routes traced (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "ccswitch"
	ServiceName string `yaml:"service_name"`
}

// Settings returns the routing settings described by the configuration.
func (c *Config) Settings() routing.Settings {
	return routing.Settings{
		DefaultModel:       c.DefaultModel,
		Timeout:            time.Duration(c.TimeoutSeconds) * time.Second,
		RetryAttempts:      c.RetryAttempts,
		ProbeBeforeRequest: c.ProbeBeforeRequest,
		ProbeTimeout:       time.Duration(c.ProbeTimeoutSeconds) * time.Second,
	}
}

// Registry builds a channel registry from the configured channels.
func (c *Config) Registry() (*channels.Registry, error) {
	list := make([]channels.Channel, len(c.Channels))
	for i, ch := range c.Channels {
		list[i] = ch.Channel()
	}
	return channels.NewRegistryFrom(list)
}

// SetChannels replaces the channel list with list, in order.
func (c *Config) SetChannels(list []channels.Channel) {
	c.Channels = make([]ChannelConfig, len(list))
	for i, ch := range list {
		c.Channels[i] = ChannelConfig(ch)
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Channels = append([]ChannelConfig(nil), c.Channels...)
	out.Telemetry.Metrics.LatencyBuckets = append([]float64(nil), c.Telemetry.Metrics.LatencyBuckets...)
	return &out
}
